package renderer_test

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/renderer"
	"github.com/spaghettifunk/glmesh/engine/renderer/headless"
)

var (
	triangleVertices = []float32{
		0, 0, 0, 0, 0,
		1, 0, 0, 1, 0,
		1, 1, 0, 1, 1,
	}
	triangleIndices = []uint32{0, 1, 2}
)

func assertUnbound(t *testing.T, dev *headless.Device) {
	t.Helper()
	if got := dev.BoundArray(); got != 0 {
		t.Errorf("vertex array still bound: %d", got)
	}
	if got := dev.Bound(renderer.ArrayBuffer); got != 0 {
		t.Errorf("array buffer still bound: %d", got)
	}
	if got := dev.Bound(renderer.ElementArrayBuffer); got != 0 {
		t.Errorf("element buffer still bound: %d", got)
	}
}

func TestNewMeshTriangle(t *testing.T) {
	dev := headless.New()

	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer m.Destroy()

	if m.ArrayID == 0 || m.VertexBufferID == 0 || m.IndexBufferID == 0 {
		t.Fatalf("zero handle: vao=%d vbo=%d ebo=%d", m.ArrayID, m.VertexBufferID, m.IndexBufferID)
	}
	if m.ArrayID == m.VertexBufferID || m.ArrayID == m.IndexBufferID || m.VertexBufferID == m.IndexBufferID {
		t.Fatalf("handles not distinct: vao=%d vbo=%d ebo=%d", m.ArrayID, m.VertexBufferID, m.IndexBufferID)
	}
	if m.VertexCount() != 3 || m.IndexCount() != 3 {
		t.Errorf("counts = %d vertices, %d indices; want 3, 3", m.VertexCount(), m.IndexCount())
	}
	if dev.Live() != 3 {
		t.Errorf("live objects = %d, want 3", dev.Live())
	}

	assertUnbound(t, dev)

	if size, _ := dev.BufferSize(m.VertexBufferID); size != len(triangleVertices)*4 {
		t.Errorf("vertex buffer size = %d, want %d", size, len(triangleVertices)*4)
	}
	if size, _ := dev.BufferSize(m.IndexBufferID); size != len(triangleIndices)*4 {
		t.Errorf("index buffer size = %d, want %d", size, len(triangleIndices)*4)
	}
	if got := dev.ElementBuffer(m.ArrayID); got != m.IndexBufferID {
		t.Errorf("vertex array element buffer = %d, want %d", got, m.IndexBufferID)
	}
	if code := dev.GetError(); code != renderer.NoError {
		t.Errorf("pending error after construction: %s", renderer.ErrorString(code))
	}
}

func TestNewMeshAttributeLayout(t *testing.T) {
	dev := headless.New()
	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer m.Destroy()

	tests := []struct {
		slot   uint32
		size   int32
		offset uintptr
	}{
		{slot: renderer.PositionAttribute, size: 3, offset: 0},
		{slot: renderer.TexcoordAttribute, size: 2, offset: 12},
	}
	for _, tt := range tests {
		attr, ok := dev.Attribute(m.ArrayID, tt.slot)
		if !ok {
			t.Fatalf("slot %d: no attribute state", tt.slot)
		}
		if !attr.Enabled {
			t.Errorf("slot %d not enabled", tt.slot)
		}
		if attr.Size != tt.size || attr.Offset != tt.offset {
			t.Errorf("slot %d = size %d offset %d, want size %d offset %d", tt.slot, attr.Size, attr.Offset, tt.size, tt.offset)
		}
		if attr.Stride != 20 {
			t.Errorf("slot %d stride = %d, want 20", tt.slot, attr.Stride)
		}
		if attr.Type != renderer.Float || attr.Normalized {
			t.Errorf("slot %d type = %#x normalized = %v", tt.slot, attr.Type, attr.Normalized)
		}
		if attr.Buffer != m.VertexBufferID {
			t.Errorf("slot %d sources buffer %d, want %d", tt.slot, attr.Buffer, m.VertexBufferID)
		}
	}

	if attr, _ := dev.Attribute(m.ArrayID, 2); attr.Enabled {
		t.Errorf("slot 2 unexpectedly enabled")
	}
}

func TestMeshBindUnbind(t *testing.T) {
	dev := headless.New()
	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer m.Destroy()

	allocated := dev.Allocated()

	for i := 0; i < 2; i++ {
		m.Bind()
		if dev.BoundArray() != m.ArrayID {
			t.Errorf("bind %d: vertex array = %d, want %d", i, dev.BoundArray(), m.ArrayID)
		}
		if dev.Bound(renderer.ArrayBuffer) != m.VertexBufferID {
			t.Errorf("bind %d: array buffer = %d, want %d", i, dev.Bound(renderer.ArrayBuffer), m.VertexBufferID)
		}
		if dev.Bound(renderer.ElementArrayBuffer) != m.IndexBufferID {
			t.Errorf("bind %d: element buffer = %d, want %d", i, dev.Bound(renderer.ElementArrayBuffer), m.IndexBufferID)
		}
	}
	if dev.Allocated() != allocated {
		t.Errorf("bind allocated objects: %d -> %d", allocated, dev.Allocated())
	}

	m.Unbind()
	assertUnbound(t, dev)

	if code := dev.GetError(); code != renderer.NoError {
		t.Errorf("bind/unbind raised %s", renderer.ErrorString(code))
	}
}

func TestMeshDestroyReleasesOwnedHandles(t *testing.T) {
	dev := headless.New()

	other, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh other: %v", err)
	}
	defer other.Destroy()

	before := dev.Live()
	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	vao, vbo, ebo := m.ArrayID, m.VertexBufferID, m.IndexBufferID

	m.Destroy()

	if dev.Live() != before {
		t.Errorf("live objects after destroy = %d, want %d", dev.Live(), before)
	}
	if dev.IsVertexArray(vao) || dev.IsBuffer(vbo) || dev.IsBuffer(ebo) {
		t.Errorf("handles still alive after destroy: vao=%v vbo=%v ebo=%v", dev.IsVertexArray(vao), dev.IsBuffer(vbo), dev.IsBuffer(ebo))
	}
	if !dev.IsVertexArray(other.ArrayID) || !dev.IsBuffer(other.VertexBufferID) || !dev.IsBuffer(other.IndexBufferID) {
		t.Errorf("destroy released handles it does not own")
	}
	if !m.Destroyed() {
		t.Errorf("Destroyed() = false after Destroy")
	}

	// Second destroy is a no-op.
	m.Destroy()
	if dev.Live() != before {
		t.Errorf("live objects after second destroy = %d, want %d", dev.Live(), before)
	}
}

func TestNewMeshUploadFailure(t *testing.T) {
	tests := []struct {
		name   string
		target uint32
		code   uint32
	}{
		{name: "vertex upload", target: renderer.ArrayBuffer, code: renderer.OutOfMemory},
		{name: "index upload", target: renderer.ElementArrayBuffer, code: renderer.OutOfMemory},
		{name: "index upload invalid value", target: renderer.ElementArrayBuffer, code: renderer.InvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := headless.New()
			dev.FailUploadOn(tt.target, tt.code)

			m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
			if err == nil {
				t.Fatalf("NewMesh succeeded, want error")
			}
			if m != nil {
				t.Errorf("NewMesh returned a mesh alongside the error")
			}
			if !errors.Is(err, core.ErrBufferUpload) {
				t.Errorf("error = %v, want ErrBufferUpload", err)
			}
			if dev.Live() != 0 {
				t.Errorf("leaked %d objects", dev.Live())
			}
			if dev.Allocated() == 0 {
				t.Errorf("nothing was allocated before the failure")
			}
			assertUnbound(t, dev)
		})
	}
}

func TestNewMeshIgnoresStaleErrors(t *testing.T) {
	dev := headless.New()
	// Binding an unknown vertex array raises an error nobody reads.
	dev.BindVertexArray(999)

	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	m.Destroy()
}

func TestNewMeshRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		indices  []uint32
		want     error
	}{
		{name: "no vertices", vertices: nil, indices: triangleIndices, want: core.ErrEmptyVertexData},
		{name: "partial vertex", vertices: []float32{0, 0, 0, 0}, indices: triangleIndices, want: core.ErrEmptyVertexData},
		{name: "no indices", vertices: triangleVertices, indices: nil, want: core.ErrEmptyIndexData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := headless.New()
			_, err := renderer.NewMesh(dev, tt.vertices, tt.indices)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if dev.Allocated() != 0 {
				t.Errorf("allocated %d objects for rejected input", dev.Allocated())
			}
		})
	}
}

func TestMeshDraw(t *testing.T) {
	dev := headless.New()
	m, err := renderer.NewMesh(dev, triangleVertices, triangleIndices)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}

	m.Draw()
	draws := dev.Draws()
	if len(draws) != 1 {
		t.Fatalf("draw calls = %d, want 1", len(draws))
	}
	if draws[0].Count != 3 || draws[0].Mode != renderer.Triangles || draws[0].Type != renderer.UnsignedInt || draws[0].VertexArray != m.ArrayID {
		t.Errorf("draw = %+v", draws[0])
	}
	assertUnbound(t, dev)

	m.Destroy()
	m.Draw()
	if len(dev.Draws()) != 1 {
		t.Errorf("destroyed mesh issued a draw")
	}
}

package renderer

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/glmesh/engine/core"
)

const (
	// FloatsPerVertex is the interleaved layout: x, y, z, u, v.
	FloatsPerVertex = 5
	floatSize       = int(unsafe.Sizeof(float32(0)))
	indexSize       = int(unsafe.Sizeof(uint32(0)))

	// VertexStride is the byte distance between two consecutive vertices.
	VertexStride = FloatsPerVertex * floatSize

	PositionAttribute uint32 = 0
	TexcoordAttribute uint32 = 1

	positionComponents int32 = 3
	texcoordComponents int32 = 2
	texcoordOffset           = uintptr(positionComponents) * uintptr(floatSize)

	// GL keeps at most one flag per error kind, so a handful of reads
	// empties the queue.
	maxPendingErrors = 8
)

/**
 * @brief A vertex array object together with the vertex and element buffers
 * it draws from. The three handles are owned by the mesh and released
 * together by Destroy.
 *
 * A Mesh must not be copied; pass the pointer around and call Destroy once
 * from the thread that owns the graphics context.
 */
type Mesh struct {
	/** @brief The vertex array object. */
	ArrayID uint32
	/** @brief The buffer holding interleaved vertex data. */
	VertexBufferID uint32
	/** @brief The buffer holding triangle indices. */
	IndexBufferID uint32

	device      Device
	vertexCount uint32
	indexCount  uint32
	destroyed   bool
}

// NewMesh uploads vertices (x, y, z, u, v per vertex) and indices into fresh
// GPU buffers and records the position/texcoord layout in a new vertex array.
// All bindings are cleared again before it returns. On failure every handle
// created so far is deleted and no mesh is returned.
func NewMesh(device Device, vertices []float32, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%FloatsPerVertex != 0 {
		return nil, fmt.Errorf("%w: got %d floats", core.ErrEmptyVertexData, len(vertices))
	}
	if len(indices) == 0 {
		return nil, core.ErrEmptyIndexData
	}

	m := &Mesh{
		device:      device,
		vertexCount: uint32(len(vertices) / FloatsPerVertex),
		indexCount:  uint32(len(indices)),
	}

	m.ArrayID = device.GenVertexArray()
	device.BindVertexArray(m.ArrayID)

	m.VertexBufferID = device.GenBuffer()
	if err := m.upload(ArrayBuffer, m.VertexBufferID, len(vertices)*floatSize, unsafe.Pointer(&vertices[0])); err != nil {
		m.release()
		return nil, err
	}

	m.IndexBufferID = device.GenBuffer()
	if err := m.upload(ElementArrayBuffer, m.IndexBufferID, len(indices)*indexSize, unsafe.Pointer(&indices[0])); err != nil {
		m.release()
		return nil, err
	}

	device.VertexAttribPointer(PositionAttribute, positionComponents, Float, false, int32(VertexStride), 0)
	device.EnableVertexAttribArray(PositionAttribute)
	device.VertexAttribPointer(TexcoordAttribute, texcoordComponents, Float, false, int32(VertexStride), texcoordOffset)
	device.EnableVertexAttribArray(TexcoordAttribute)

	// The vertex array goes first: clearing the element binding while it is
	// still bound would detach the index buffer from it.
	m.clearBindings()

	return m, nil
}

func (m *Mesh) upload(target, id uint32, size int, data unsafe.Pointer) error {
	m.drainErrors()
	m.device.BindBuffer(target, id)
	m.device.BufferData(target, size, data, StaticDraw)
	if code := m.device.GetError(); code != NoError {
		err := fmt.Errorf("%w: failed to buffer data into the %s (%s)", core.ErrBufferUpload, targetName(target), ErrorString(code))
		core.LogError(err.Error())
		return err
	}
	return nil
}

// drainErrors drops flags raised by earlier, unrelated calls so the check
// after an upload only sees what the upload itself reported.
func (m *Mesh) drainErrors() {
	for i := 0; i < maxPendingErrors; i++ {
		code := m.device.GetError()
		if code == NoError {
			return
		}
		core.LogWarn("discarding pending %s before buffer upload", ErrorString(code))
	}
}

// Bind makes the vertex array and both buffers the active bindings.
func (m *Mesh) Bind() {
	m.device.BindVertexArray(m.ArrayID)
	m.device.BindBuffer(ArrayBuffer, m.VertexBufferID)
	m.device.BindBuffer(ElementArrayBuffer, m.IndexBufferID)
}

// Unbind resets the vertex array and both buffer bindings to none.
func (m *Mesh) Unbind() {
	m.clearBindings()
}

func (m *Mesh) clearBindings() {
	m.device.BindVertexArray(0)
	m.device.BindBuffer(ArrayBuffer, 0)
	m.device.BindBuffer(ElementArrayBuffer, 0)
}

// Draw issues an indexed triangle draw for the whole mesh. The caller is
// expected to have a program in use.
func (m *Mesh) Draw() {
	if m.destroyed {
		core.LogWarn("draw called on a destroyed mesh")
		return
	}
	m.Bind()
	m.device.DrawElements(Triangles, int32(m.indexCount), UnsignedInt, 0)
	m.Unbind()
}

// Destroy deletes the vertex array and both buffers. Only the first call
// has an effect.
func (m *Mesh) Destroy() {
	if m.destroyed {
		return
	}
	m.release()
}

func (m *Mesh) release() {
	m.clearBindings()
	if m.ArrayID != 0 {
		m.device.DeleteVertexArray(m.ArrayID)
		m.ArrayID = 0
	}
	if m.VertexBufferID != 0 {
		m.device.DeleteBuffer(m.VertexBufferID)
		m.VertexBufferID = 0
	}
	if m.IndexBufferID != 0 {
		m.device.DeleteBuffer(m.IndexBufferID)
		m.IndexBufferID = 0
	}
	m.destroyed = true
}

func (m *Mesh) Destroyed() bool {
	return m.destroyed
}

func (m *Mesh) VertexCount() uint32 {
	return m.vertexCount
}

func (m *Mesh) IndexCount() uint32 {
	return m.indexCount
}

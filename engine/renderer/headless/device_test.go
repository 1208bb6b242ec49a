package headless

import (
	"testing"

	"github.com/spaghettifunk/glmesh/engine/renderer"
)

func TestErrorFlagIsStickyUntilRead(t *testing.T) {
	d := New()
	d.BindVertexArray(42)
	d.BindBuffer(renderer.ArrayBuffer, 42)

	if code := d.GetError(); code != renderer.InvalidOperation {
		t.Fatalf("first error = %s, want GL_INVALID_OPERATION", renderer.ErrorString(code))
	}
	if code := d.GetError(); code != renderer.NoError {
		t.Fatalf("error after read = %s, want GL_NO_ERROR", renderer.ErrorString(code))
	}
}

func TestElementBindingFollowsVertexArray(t *testing.T) {
	d := New()
	vao := d.GenVertexArray()
	ebo := d.GenBuffer()

	d.BindVertexArray(vao)
	d.BindBuffer(renderer.ElementArrayBuffer, ebo)
	d.BindVertexArray(0)

	if got := d.Bound(renderer.ElementArrayBuffer); got != 0 {
		t.Errorf("element binding with no vertex array = %d, want 0", got)
	}
	d.BindVertexArray(vao)
	if got := d.Bound(renderer.ElementArrayBuffer); got != ebo {
		t.Errorf("element binding restored = %d, want %d", got, ebo)
	}
}

func TestDeleteUnbindsAndDetaches(t *testing.T) {
	d := New()
	vao := d.GenVertexArray()
	vbo := d.GenBuffer()
	ebo := d.GenBuffer()

	d.BindVertexArray(vao)
	d.BindBuffer(renderer.ArrayBuffer, vbo)
	d.BindBuffer(renderer.ElementArrayBuffer, ebo)
	d.VertexAttribPointer(0, 3, renderer.Float, false, 20, 0)

	d.DeleteBuffer(vbo)
	d.DeleteBuffer(ebo)
	if d.Bound(renderer.ArrayBuffer) != 0 || d.ElementBuffer(vao) != 0 {
		t.Errorf("deleted buffers still bound")
	}
	if attr, _ := d.Attribute(vao, 0); attr.Buffer != 0 {
		t.Errorf("attribute still sources deleted buffer %d", attr.Buffer)
	}

	d.DeleteVertexArray(vao)
	if d.BoundArray() != 0 {
		t.Errorf("deleted vertex array still bound")
	}
	if d.Live() != 0 {
		t.Errorf("live = %d, want 0", d.Live())
	}
	if d.Allocated() != 3 {
		t.Errorf("allocated = %d, want 3", d.Allocated())
	}
}

func TestReleasedNamesAreReused(t *testing.T) {
	d := New()
	a := d.GenBuffer()
	d.DeleteBuffer(a)
	b := d.GenBuffer()
	if a != b {
		t.Errorf("name %d not reused, got %d", a, b)
	}
	if a == 0 {
		t.Errorf("generated the reserved name 0")
	}
}

func TestBufferDataRequiresBinding(t *testing.T) {
	d := New()
	d.BufferData(renderer.ArrayBuffer, 4, nil, renderer.StaticDraw)
	if code := d.GetError(); code != renderer.InvalidOperation {
		t.Errorf("upload with nothing bound = %s, want GL_INVALID_OPERATION", renderer.ErrorString(code))
	}
}

func TestFailUploadOnIsOneShot(t *testing.T) {
	d := New()
	id := d.GenBuffer()
	d.BindBuffer(renderer.ArrayBuffer, id)
	d.FailUploadOn(renderer.ArrayBuffer, renderer.OutOfMemory)

	d.BufferData(renderer.ArrayBuffer, 8, nil, renderer.StaticDraw)
	if code := d.GetError(); code != renderer.OutOfMemory {
		t.Fatalf("first upload = %s, want GL_OUT_OF_MEMORY", renderer.ErrorString(code))
	}
	d.BufferData(renderer.ArrayBuffer, 8, nil, renderer.StaticDraw)
	if code := d.GetError(); code != renderer.NoError {
		t.Fatalf("second upload = %s, want GL_NO_ERROR", renderer.ErrorString(code))
	}
	if size, _ := d.BufferSize(id); size != 8 {
		t.Errorf("size = %d, want 8", size)
	}
}

func TestPrograms(t *testing.T) {
	d := New()
	if _, err := d.CreateProgram("", "x"); err == nil {
		t.Errorf("CreateProgram accepted empty source")
	}
	p, err := d.CreateProgram("v", "f")
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	d.UseProgram(p)
	if d.BoundProgram() != p {
		t.Errorf("bound program = %d, want %d", d.BoundProgram(), p)
	}
	d.DeleteProgram(p)
	if d.BoundProgram() != 0 || d.Live() != 0 {
		t.Errorf("program not released")
	}
}

// Package headless implements renderer.FrameDevice without a GPU. It keeps
// the same object and binding state an OpenGL context would, so mesh
// lifetimes can be checked in tests and in runs without a window.
package headless

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/renderer"
)

const maxVertexAttributes = 16

type objectKind uint8

const (
	kindBuffer objectKind = iota + 1
	kindVertexArray
	kindProgram
)

// Attribute is the recorded state of one vertex attribute slot.
type Attribute struct {
	Size       int32
	Type       uint32
	Normalized bool
	Stride     int32
	Offset     uintptr
	Buffer     uint32
	Enabled    bool
}

// DrawCall records one DrawElements invocation.
type DrawCall struct {
	Mode        uint32
	Count       int32
	Type        uint32
	Offset      uintptr
	VertexArray uint32
	Program     uint32
}

type buffer struct {
	size  int
	usage uint32
}

type vertexArray struct {
	attributes    [maxVertexAttributes]Attribute
	elementBuffer uint32
}

type Device struct {
	ids *core.IdentifierPool

	buffers  map[uint32]*buffer
	arrays   map[uint32]*vertexArray
	programs map[uint32]struct{}

	boundArray   uint32
	boundBuffer  uint32
	boundProgram uint32

	err       uint32
	failOn    map[uint32]uint32
	allocated int

	viewportW, viewportH int32
	clears               int
	draws                []DrawCall
}

func New() *Device {
	return &Device{
		// Zero is reserved for "no object".
		ids:      core.NewIdentifierPool(1),
		buffers:  make(map[uint32]*buffer),
		arrays:   map[uint32]*vertexArray{0: {}},
		programs: make(map[uint32]struct{}),
		failOn:   make(map[uint32]uint32),
	}
}

func (d *Device) setError(code uint32) {
	// Like GL, the first unread error sticks.
	if d.err == renderer.NoError {
		d.err = code
	}
}

func (d *Device) GetError() uint32 {
	code := d.err
	d.err = renderer.NoError
	return code
}

func (d *Device) GenVertexArray() uint32 {
	id := d.ids.Acquire(kindVertexArray)
	d.arrays[id] = &vertexArray{}
	d.allocated++
	return id
}

func (d *Device) GenBuffer() uint32 {
	id := d.ids.Acquire(kindBuffer)
	d.buffers[id] = &buffer{}
	d.allocated++
	return id
}

func (d *Device) BindVertexArray(id uint32) {
	if _, ok := d.arrays[id]; !ok {
		d.setError(renderer.InvalidOperation)
		return
	}
	d.boundArray = id
}

func (d *Device) BindBuffer(target, id uint32) {
	if id != 0 {
		if _, ok := d.buffers[id]; !ok {
			d.setError(renderer.InvalidValue)
			return
		}
	}
	switch target {
	case renderer.ArrayBuffer:
		d.boundBuffer = id
	case renderer.ElementArrayBuffer:
		// The element binding lives in the bound vertex array.
		d.arrays[d.boundArray].elementBuffer = id
	default:
		d.setError(renderer.InvalidEnum)
	}
}

func (d *Device) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	id, ok := d.boundTo(target)
	if !ok {
		d.setError(renderer.InvalidEnum)
		return
	}
	if id == 0 {
		d.setError(renderer.InvalidOperation)
		return
	}
	if size < 0 {
		d.setError(renderer.InvalidValue)
		return
	}
	if code, ok := d.failOn[target]; ok {
		delete(d.failOn, target)
		d.setError(code)
		return
	}
	d.buffers[id].size = size
	d.buffers[id].usage = usage
}

func (d *Device) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr) {
	if index >= maxVertexAttributes || size < 1 || size > 4 || stride < 0 {
		d.setError(renderer.InvalidValue)
		return
	}
	if d.boundArray == 0 || d.boundBuffer == 0 {
		d.setError(renderer.InvalidOperation)
		return
	}
	attr := &d.arrays[d.boundArray].attributes[index]
	attr.Size = size
	attr.Type = xtype
	attr.Normalized = normalized
	attr.Stride = stride
	attr.Offset = offset
	attr.Buffer = d.boundBuffer
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	if index >= maxVertexAttributes {
		d.setError(renderer.InvalidValue)
		return
	}
	if d.boundArray == 0 {
		d.setError(renderer.InvalidOperation)
		return
	}
	d.arrays[d.boundArray].attributes[index].Enabled = true
}

func (d *Device) DeleteVertexArray(id uint32) {
	if _, ok := d.arrays[id]; !ok || id == 0 {
		return
	}
	if d.boundArray == id {
		d.boundArray = 0
	}
	delete(d.arrays, id)
	d.releaseID(id)
}

func (d *Device) DeleteBuffer(id uint32) {
	if _, ok := d.buffers[id]; !ok {
		return
	}
	if d.boundBuffer == id {
		d.boundBuffer = 0
	}
	// Deleting a buffer detaches it from every vertex array that used it.
	for _, va := range d.arrays {
		if va.elementBuffer == id {
			va.elementBuffer = 0
		}
		for i := range va.attributes {
			if va.attributes[i].Buffer == id {
				va.attributes[i].Buffer = 0
			}
		}
	}
	delete(d.buffers, id)
	d.releaseID(id)
}

func (d *Device) DrawElements(mode uint32, count int32, xtype uint32, offset uintptr) {
	if count < 0 {
		d.setError(renderer.InvalidValue)
		return
	}
	if d.boundArray == 0 || d.arrays[d.boundArray].elementBuffer == 0 {
		d.setError(renderer.InvalidOperation)
		return
	}
	d.draws = append(d.draws, DrawCall{
		Mode:        mode,
		Count:       count,
		Type:        xtype,
		Offset:      offset,
		VertexArray: d.boundArray,
		Program:     d.boundProgram,
	})
}

func (d *Device) Viewport(width, height int32) {
	d.viewportW, d.viewportH = width, height
}

func (d *Device) Clear(r, g, b, a float32) {
	d.clears++
}

func (d *Device) CreateProgram(vertexSource, fragmentSource string) (uint32, error) {
	if vertexSource == "" || fragmentSource == "" {
		return 0, fmt.Errorf("failed to link program: empty shader source")
	}
	id := d.ids.Acquire(kindProgram)
	d.programs[id] = struct{}{}
	d.allocated++
	return id, nil
}

func (d *Device) UseProgram(program uint32) {
	if _, ok := d.programs[program]; !ok && program != 0 {
		d.setError(renderer.InvalidValue)
		return
	}
	d.boundProgram = program
}

func (d *Device) DeleteProgram(program uint32) {
	if _, ok := d.programs[program]; !ok {
		return
	}
	if d.boundProgram == program {
		d.boundProgram = 0
	}
	delete(d.programs, program)
	d.releaseID(program)
}

func (d *Device) releaseID(id uint32) {
	if err := d.ids.Release(id); err != nil {
		core.LogWarn(err.Error())
	}
}

func (d *Device) boundTo(target uint32) (uint32, bool) {
	switch target {
	case renderer.ArrayBuffer:
		return d.boundBuffer, true
	case renderer.ElementArrayBuffer:
		return d.arrays[d.boundArray].elementBuffer, true
	}
	return 0, false
}

// FailUploadOn makes the next BufferData on target raise code instead of
// storing the data.
func (d *Device) FailUploadOn(target, code uint32) {
	d.failOn[target] = code
}

// Live counts objects that have been generated and not yet deleted.
func (d *Device) Live() int {
	return d.ids.InUse()
}

// Allocated counts every object ever generated.
func (d *Device) Allocated() int {
	return d.allocated
}

// Bound reports the buffer bound to target. The element binding is read
// from the currently bound vertex array.
func (d *Device) Bound(target uint32) uint32 {
	id, _ := d.boundTo(target)
	return id
}

func (d *Device) BoundArray() uint32 {
	return d.boundArray
}

func (d *Device) BoundProgram() uint32 {
	return d.boundProgram
}

// ElementBuffer reports the index buffer recorded in vertex array vao.
func (d *Device) ElementBuffer(vao uint32) uint32 {
	va, ok := d.arrays[vao]
	if !ok {
		return 0
	}
	return va.elementBuffer
}

func (d *Device) Attribute(vao, slot uint32) (Attribute, bool) {
	va, ok := d.arrays[vao]
	if !ok || slot >= maxVertexAttributes {
		return Attribute{}, false
	}
	return va.attributes[slot], true
}

// BufferSize reports the byte size last uploaded to buffer id.
func (d *Device) BufferSize(id uint32) (int, bool) {
	b, ok := d.buffers[id]
	if !ok {
		return 0, false
	}
	return b.size, true
}

func (d *Device) IsBuffer(id uint32) bool {
	return d.ids.Owner(id) == kindBuffer
}

func (d *Device) IsVertexArray(id uint32) bool {
	return d.ids.Owner(id) == kindVertexArray
}

func (d *Device) Draws() []DrawCall {
	return d.draws
}

func (d *Device) Clears() int {
	return d.clears
}

func (d *Device) ViewportSize() (int32, int32) {
	return d.viewportW, d.viewportH
}

var _ renderer.FrameDevice = (*Device)(nil)

package renderer

import "unsafe"

// GL enum values used by the mesh handle. They match the OpenGL headers so a
// Device can pass them straight through.
const (
	NoError          uint32 = 0
	InvalidEnum      uint32 = 0x0500
	InvalidValue     uint32 = 0x0501
	InvalidOperation uint32 = 0x0502
	OutOfMemory      uint32 = 0x0505

	ArrayBuffer        uint32 = 0x8892
	ElementArrayBuffer uint32 = 0x8893
	StaticDraw         uint32 = 0x88E4

	Triangles   uint32 = 0x0004
	UnsignedInt uint32 = 0x1405
	Float       uint32 = 0x1406
)

/**
 * @brief The subset of the graphics API the mesh handle drives. Every call
 * runs against the context that is current on the calling thread; binding
 * state is shared by all meshes created on that context.
 */
type Device interface {
	GenVertexArray() uint32
	GenBuffer() uint32
	BindVertexArray(id uint32)
	BindBuffer(target, id uint32)
	BufferData(target uint32, size int, data unsafe.Pointer, usage uint32)
	GetError() uint32
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset uintptr)
	EnableVertexAttribArray(index uint32)
	DeleteVertexArray(id uint32)
	DeleteBuffer(id uint32)
	DrawElements(mode uint32, count int32, xtype uint32, offset uintptr)
}

// FrameDevice is a Device that also owns a framebuffer and shader programs,
// which is what the frame loop needs on top of mesh handles.
type FrameDevice interface {
	Device
	Viewport(width, height int32)
	Clear(r, g, b, a float32)
	CreateProgram(vertexSource, fragmentSource string) (uint32, error)
	UseProgram(program uint32)
	DeleteProgram(program uint32)
}

// ErrorString names a GL error code for log and error messages.
func ErrorString(code uint32) string {
	switch code {
	case NoError:
		return "GL_NO_ERROR"
	case InvalidEnum:
		return "GL_INVALID_ENUM"
	case InvalidValue:
		return "GL_INVALID_VALUE"
	case InvalidOperation:
		return "GL_INVALID_OPERATION"
	case OutOfMemory:
		return "GL_OUT_OF_MEMORY"
	default:
		return "GL_UNKNOWN_ERROR"
	}
}

func targetName(target uint32) string {
	switch target {
	case ArrayBuffer:
		return "vertex buffer object"
	case ElementArrayBuffer:
		return "element buffer object"
	default:
		return "buffer object"
	}
}

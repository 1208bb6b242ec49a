package metadata

import (
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/renderer"
)

/** @brief The name of the default geometry. */
const DefaultGeometryName string = "default"

const (
	InvalidID       uint32 = 4294967295
	InvalidIDUint16 uint16 = 65535
)

type GeometrySystemConfig struct {
	/**
	 * @brief Max number of geometries that can be loaded at once.
	 * NOTE: Should be significantly greater than the number of static meshes because
	 * the there can and will be more than one of these per mesh.
	 * Take other systems into account as well.
	 */
	MaxGeometryCount uint32
}

/**
 * @brief Represents the configuration for a geometry.
 */
type GeometryConfig struct {
	/** @brief An array of Vertices. */
	Vertices []math.Vertex3D
	/** @brief An array of Indices. */
	Indices []uint32

	Center     math.Vec3
	MinExtents math.Vec3
	MaxExtents math.Vec3

	/** @brief The Name of the geometry. */
	Name string
}

type GeometryReference struct {
	ReferenceCount uint64
	Geometry       *Geometry
	AutoRelease    bool
}

/**
 * @brief Represents actual geometry in the world, backed by a mesh handle
 * on the GPU.
 */
type Geometry struct {
	/** @brief The geometry identifier. */
	ID uint32
	/** @brief The geometry generation. Incremented every time the geometry is rebuilt. */
	Generation uint16
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
	/** @brief The geometry name. */
	Name string
	/** @brief The GPU resources of the geometry. Nil until uploaded. */
	Mesh *renderer.Mesh
}

// Invalidate resets g to the unused state.
func (g *Geometry) Invalidate() {
	g.ID = InvalidID
	g.Generation = InvalidIDUint16
	g.Name = ""
	g.Mesh = nil
	g.Center = math.Vec3{}
	g.Extents = math.Extents3D{}
}

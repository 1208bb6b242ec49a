package systems

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/renderer"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
)

// GeometrySystem owns every geometry uploaded to the device, hands out
// reference counted pointers to them and destroys their meshes once no
// longer referenced. It must be used from the thread owning the device.
type GeometrySystem struct {
	device          renderer.Device
	config          *metadata.GeometrySystemConfig
	defaultGeometry *metadata.Geometry
	// Array of registered geometries.
	registeredGeometries []*metadata.GeometryReference
	byName               map[string]uint32
}

/**
 * @brief Initializes the geometry system and uploads the default geometry.
 *
 * @param device The device meshes are created on.
 * @param config The configuration for this system.
 */
func NewGeometrySystem(device renderer.Device, config *metadata.GeometrySystemConfig) (*GeometrySystem, error) {
	if config == nil || config.MaxGeometryCount == 0 {
		err := fmt.Errorf("func NewGeometrySystem - config.MaxGeometryCount must be > 0")
		core.LogWarn(err.Error())
		return nil, err
	}

	gs := &GeometrySystem{
		device:               device,
		config:               config,
		registeredGeometries: make([]*metadata.GeometryReference, config.MaxGeometryCount),
		byName:               make(map[string]uint32),
	}

	// Invalidate all geometries in the array.
	for i := range gs.registeredGeometries {
		g := &metadata.Geometry{}
		g.Invalidate()
		gs.registeredGeometries[i] = &metadata.GeometryReference{Geometry: g}
	}

	if err := gs.createDefaultGeometries(); err != nil {
		err = fmt.Errorf("failed to create default geometries: %w", err)
		core.LogError(err.Error())
		return nil, err
	}

	return gs, nil
}

// Shutdown destroys every registered geometry and the default one.
func (gs *GeometrySystem) Shutdown() {
	for _, ref := range gs.registeredGeometries {
		if ref.Geometry.ID != metadata.InvalidID {
			gs.destroyGeometry(ref.Geometry)
			ref.ReferenceCount = 0
			ref.AutoRelease = false
		}
	}
	if gs.defaultGeometry != nil && gs.defaultGeometry.Mesh != nil {
		gs.defaultGeometry.Mesh.Destroy()
		gs.defaultGeometry.Invalidate()
	}
}

/**
 * @brief Acquires an existing geometry by id.
 *
 * @param id The geometry identifier to acquire by.
 * @return A pointer to the acquired geometry or an error if failed.
 */
func (gs *GeometrySystem) AcquireByID(id uint32) (*metadata.Geometry, error) {
	if id < uint32(len(gs.registeredGeometries)) && gs.registeredGeometries[id].Geometry.ID != metadata.InvalidID {
		gs.registeredGeometries[id].ReferenceCount++
		return gs.registeredGeometries[id].Geometry, nil
	}

	err := fmt.Errorf("%w: cannot acquire geometry id %d", core.ErrInvalidGeometryID, id)
	core.LogError(err.Error())
	return nil, err
}

// AcquireByName acquires a registered geometry by its name.
func (gs *GeometrySystem) AcquireByName(name string) (*metadata.Geometry, error) {
	id, ok := gs.byName[name]
	if !ok {
		err := fmt.Errorf("%w: no geometry named '%s'", core.ErrInvalidGeometryID, name)
		core.LogError(err.Error())
		return nil, err
	}
	return gs.AcquireByID(id)
}

/**
 * @brief Registers and acquires a new geometry using the given config.
 *
 * @param config The geometry configuration.
 * @param autoRelease Indicates if the acquired geometry should be unloaded when its reference count reaches 0.
 * @return A pointer to the acquired geometry or an error if failed.
 */
func (gs *GeometrySystem) AcquireFromConfig(config *metadata.GeometryConfig, autoRelease bool) (*metadata.Geometry, error) {
	if config.Name != "" {
		if _, exists := gs.byName[config.Name]; exists {
			err := fmt.Errorf("a geometry named '%s' is already registered", config.Name)
			core.LogError(err.Error())
			return nil, err
		}
	}

	var ref *metadata.GeometryReference
	var id uint32
	for i, r := range gs.registeredGeometries {
		if r.Geometry.ID == metadata.InvalidID {
			// Found empty slot.
			ref = r
			id = uint32(i)
			break
		}
	}

	if ref == nil {
		err := fmt.Errorf("%w: adjust MaxGeometryCount (%d) to allow more space", core.ErrGeometrySlotsExhausted, gs.config.MaxGeometryCount)
		core.LogError(err.Error())
		return nil, err
	}

	geometry := ref.Geometry
	if err := gs.createGeometry(config, geometry); err != nil {
		err = fmt.Errorf("failed to create geometry: %w", err)
		core.LogError(err.Error())
		return nil, err
	}

	geometry.ID = id
	ref.ReferenceCount = 1
	ref.AutoRelease = autoRelease
	gs.byName[geometry.Name] = id

	core.LogDebug("geometry '%s' registered with id %d", geometry.Name, id)
	return geometry, nil
}

/**
 * @brief Releases a reference to the provided geometry.
 *
 * @param geometry The geometry to be released.
 */
func (gs *GeometrySystem) Release(geometry *metadata.Geometry) {
	if geometry == nil || geometry.ID == metadata.InvalidID || geometry.ID >= uint32(len(gs.registeredGeometries)) {
		core.LogWarn("geometry system cannot release invalid geometry id. Nothing was done.")
		return
	}

	ref := gs.registeredGeometries[geometry.ID]
	if ref.Geometry != geometry {
		core.LogError("Geometry id mismatch. Check registration logic, as this should never occur.")
		return
	}

	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}

	// Also blanks out the geometry id.
	if ref.ReferenceCount < 1 && ref.AutoRelease {
		gs.destroyGeometry(ref.Geometry)
		ref.ReferenceCount = 0
		ref.AutoRelease = false
	}
}

// Reload replaces the GPU data of a registered geometry with config. The
// old mesh is kept if the new one cannot be created.
func (gs *GeometrySystem) Reload(geometry *metadata.Geometry, config *metadata.GeometryConfig) error {
	if geometry == nil || geometry.ID == metadata.InvalidID {
		return fmt.Errorf("%w: cannot reload an unregistered geometry", core.ErrInvalidGeometryID)
	}

	mesh, err := renderer.NewMesh(gs.device, math.GeometryInterleave(config.Vertices), config.Indices)
	if err != nil {
		core.LogError("failed to reload geometry '%s': %s", geometry.Name, err)
		return err
	}

	if geometry.Mesh != nil {
		geometry.Mesh.Destroy()
	}
	geometry.Mesh = mesh
	geometry.Extents, geometry.Center = math.GeometryCalculateExtents(config.Vertices)
	geometry.Generation++
	return nil
}

// ReferenceCount reports how many references are held on geometry id.
func (gs *GeometrySystem) ReferenceCount(id uint32) uint64 {
	if id >= uint32(len(gs.registeredGeometries)) {
		return 0
	}
	return gs.registeredGeometries[id].ReferenceCount
}

/**
 * @brief Obtains a pointer to the default geometry.
 *
 * @return A pointer to the default geometry.
 */
func (gs *GeometrySystem) GetDefault() *metadata.Geometry {
	return gs.defaultGeometry
}

/**
 * @brief Generates configuration for plane geometries given the provided parameters.
 *
 * @param width The overall width of the plane. Must be non-zero.
 * @param height The overall height of the plane. Must be non-zero.
 * @param xSegmentCount The number of segments along the x-axis in the plane. Must be non-zero.
 * @param ySegmentCount The number of segments along the y-axis in the plane. Must be non-zero.
 * @param tileX The number of times the texture should tile across the plane on the x-axis. Must be non-zero.
 * @param tileY The number of times the texture should tile across the plane on the y-axis. Must be non-zero.
 * @param name The name of the generated geometry.
 * @return A geometry configuration which can then be fed into AcquireFromConfig.
 */
func GeneratePlaneConfig(width, height float32, xSegmentCount, ySegmentCount uint32, tileX, tileY float32, name string) *metadata.GeometryConfig {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if xSegmentCount < 1 {
		core.LogWarn("xSegmentCount must be a positive number. Defaulting to one.")
		xSegmentCount = 1
	}
	if ySegmentCount < 1 {
		core.LogWarn("ySegmentCount must be a positive number. Defaulting to one.")
		ySegmentCount = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	config := &metadata.GeometryConfig{
		Vertices: make([]math.Vertex3D, xSegmentCount*ySegmentCount*4), // 4 verts per segment
		Indices:  make([]uint32, xSegmentCount*ySegmentCount*6),        // 6 indices per segment
		Name:     name,
	}

	// TODO: neighbouring segments duplicate their shared vertices; deduplicate them.
	segWidth := width / float32(xSegmentCount)
	segHeight := height / float32(ySegmentCount)
	halfWidth := width * 0.5
	halfHeight := height * 0.5
	for y := uint32(0); y < ySegmentCount; y++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			minX := (float32(x) * segWidth) - halfWidth
			minY := (float32(y) * segHeight) - halfHeight
			maxX := minX + segWidth
			maxY := minY + segHeight
			minUVX := (float32(x) / float32(xSegmentCount)) * tileX
			minUVY := (float32(y) / float32(ySegmentCount)) * tileY
			maxUVX := (float32(x+1) / float32(xSegmentCount)) * tileX
			maxUVY := (float32(y+1) / float32(ySegmentCount)) * tileY

			vOffset := ((y * xSegmentCount) + x) * 4
			config.Vertices[vOffset+0] = math.Vertex3D{Position: math.NewVec3(minX, minY, 0), Texcoord: math.NewVec2(minUVX, minUVY)}
			config.Vertices[vOffset+1] = math.Vertex3D{Position: math.NewVec3(maxX, maxY, 0), Texcoord: math.NewVec2(maxUVX, maxUVY)}
			config.Vertices[vOffset+2] = math.Vertex3D{Position: math.NewVec3(minX, maxY, 0), Texcoord: math.NewVec2(minUVX, maxUVY)}
			config.Vertices[vOffset+3] = math.Vertex3D{Position: math.NewVec3(maxX, minY, 0), Texcoord: math.NewVec2(maxUVX, minUVY)}

			iOffset := ((y * xSegmentCount) + x) * 6
			config.Indices[iOffset+0] = vOffset + 0
			config.Indices[iOffset+1] = vOffset + 1
			config.Indices[iOffset+2] = vOffset + 2
			config.Indices[iOffset+3] = vOffset + 0
			config.Indices[iOffset+4] = vOffset + 3
			config.Indices[iOffset+5] = vOffset + 1
		}
	}

	config.MinExtents = math.NewVec3(-halfWidth, -halfHeight, 0)
	config.MaxExtents = math.NewVec3(halfWidth, halfHeight, 0)

	return config
}

func (gs *GeometrySystem) createDefaultGeometries() error {
	const f float32 = 10.0

	verts := []math.Vertex3D{
		{Position: math.NewVec3(-0.5*f, -0.5*f, 0), Texcoord: math.NewVec2(0, 0)}, // 0    3
		{Position: math.NewVec3(0.5*f, 0.5*f, 0), Texcoord: math.NewVec2(1, 1)},   //
		{Position: math.NewVec3(-0.5*f, 0.5*f, 0), Texcoord: math.NewVec2(0, 1)},  //
		{Position: math.NewVec3(0.5*f, -0.5*f, 0), Texcoord: math.NewVec2(1, 0)},  // 2    1
	}
	indices := []uint32{0, 1, 2, 0, 3, 1}

	mesh, err := renderer.NewMesh(gs.device, math.GeometryInterleave(verts), indices)
	if err != nil {
		return err
	}

	gs.defaultGeometry = &metadata.Geometry{
		ID:   metadata.InvalidID,
		Name: metadata.DefaultGeometryName,
		Mesh: mesh,
	}
	gs.defaultGeometry.Extents, gs.defaultGeometry.Center = math.GeometryCalculateExtents(verts)
	return nil
}

func (gs *GeometrySystem) createGeometry(config *metadata.GeometryConfig, geometry *metadata.Geometry) error {
	// Send the geometry off to the device to be uploaded to the GPU.
	mesh, err := renderer.NewMesh(gs.device, math.GeometryInterleave(config.Vertices), config.Indices)
	if err != nil {
		geometry.Invalidate()
		return err
	}

	geometry.Mesh = mesh
	geometry.Generation = 0
	geometry.Name = config.Name
	if geometry.Name == "" {
		geometry.Name = uuid.New().String()
	}

	// Use the config extents when provided, otherwise compute them.
	if config.MinExtents != config.MaxExtents {
		geometry.Extents = math.Extents3D{Min: config.MinExtents, Max: config.MaxExtents}
		geometry.Center = config.Center
		if config.Center == (math.Vec3{}) {
			geometry.Center = config.MinExtents.Add(config.MaxExtents).MulScalar(0.5)
		}
	} else {
		geometry.Extents, geometry.Center = math.GeometryCalculateExtents(config.Vertices)
	}
	return nil
}

func (gs *GeometrySystem) destroyGeometry(geometry *metadata.Geometry) {
	if geometry.Mesh != nil {
		geometry.Mesh.Destroy()
	}
	delete(gs.byName, geometry.Name)
	geometry.Invalidate()
}

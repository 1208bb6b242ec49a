package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
)

// MeshExtension is the suffix of mesh description files.
const MeshExtension = ".mesh.toml"

// meshFile is the on-disk layout of a mesh. The mesh is named after its file.
//
//	vertices = [[0.0, 0.0, 0.0, 0.0, 0.0], ...] # x, y, z, u, v
//	indices = [0, 1, 2]
type meshFile struct {
	Vertices [][]float32 `toml:"vertices"`
	Indices  []uint32    `toml:"indices"`
}

type MeshLoader struct{}

func (ml *MeshLoader) Load(path string, assetType metadata.ResourceType) (*metadata.Resource, error) {
	if assetType != metadata.ResourceTypeMesh {
		return nil, fmt.Errorf("mesh loader cannot load resource type %d", assetType)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := ParseMesh(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	config.Name = MeshName(path)
	return &metadata.Resource{
		Name:     config.Name,
		FullPath: path,
		Type:     metadata.ResourceTypeMesh,
		Data:     config,
	}, nil
}

// ParseMesh decodes a mesh description into a geometry config.
func ParseMesh(data []byte) (*metadata.GeometryConfig, error) {
	var mf meshFile
	if err := toml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidMeshFile, err)
	}
	if len(mf.Vertices) == 0 {
		return nil, fmt.Errorf("%w: no vertices", core.ErrInvalidMeshFile)
	}
	if len(mf.Indices) == 0 {
		return nil, fmt.Errorf("%w: no indices", core.ErrInvalidMeshFile)
	}

	flat := make([]float32, 0, len(mf.Vertices)*math.VertexComponents)
	for i, row := range mf.Vertices {
		if len(row) != math.VertexComponents {
			return nil, fmt.Errorf("%w: vertex %d has %d components, want %d", core.ErrInvalidMeshFile, i, len(row), math.VertexComponents)
		}
		flat = append(flat, row...)
	}

	config := &metadata.GeometryConfig{
		Vertices: math.GeometryDeinterleave(flat),
		Indices:  mf.Indices,
	}
	ext, center := math.GeometryCalculateExtents(config.Vertices)
	config.MinExtents, config.MaxExtents, config.Center = ext.Min, ext.Max, center
	return config, nil
}

// MeshName derives a resource name from a mesh file path.
func MeshName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), MeshExtension)
}

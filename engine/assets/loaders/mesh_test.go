package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
)

const triangleMesh = `
vertices = [
  [0.0, 0.0, 0.0, 0.0, 0.0],
  [1.0, 0.0, 0.0, 1.0, 0.0],
  [1.0, 1.0, 0.0, 1.0, 1.0],
]
indices = [0, 1, 2]
`

func TestParseMesh(t *testing.T) {
	config, err := ParseMesh([]byte(triangleMesh))
	if err != nil {
		t.Fatalf("ParseMesh: %v", err)
	}
	want := []float32{0, 0, 0, 0, 0, 1, 0, 0, 1, 0, 1, 1, 0, 1, 1}
	got := math.GeometryInterleave(config.Vertices)
	if len(got) != len(want) {
		t.Fatalf("interleaved len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("interleaved[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(config.Indices) != 3 || config.Indices[2] != 2 {
		t.Errorf("indices = %v", config.Indices)
	}
	if !config.MaxExtents.Compare(math.NewVec3(1, 1, 0), math.FloatEpsilon) {
		t.Errorf("max extents = %+v", config.MaxExtents)
	}
}

func TestParseMeshIntegerLiterals(t *testing.T) {
	data := "vertices = [[0, 0, 0, 0, 0], [1, 0, 0, 1, 0], [1, 1, 0, 1, 1]]\nindices = [0, 1, 2]\n"
	config, err := ParseMesh([]byte(data))
	if err != nil {
		t.Fatalf("ParseMesh: %v", err)
	}
	if len(config.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(config.Vertices))
	}
	if !config.Vertices[2].Position.Compare(math.NewVec3(1, 1, 0), math.FloatEpsilon) ||
		config.Vertices[1].Texcoord != math.NewVec2(1, 0) {
		t.Errorf("vertices = %+v", config.Vertices)
	}
}

func TestParseMeshErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not toml", data: "vertices = ["},
		{name: "no vertices", data: "indices = [0]"},
		{name: "no indices", data: "vertices = [[0.0, 0.0, 0.0, 0.0, 0.0]]"},
		{name: "short vertex", data: "vertices = [[0.0, 0.0, 0.0]]\nindices = [0]"},
		{name: "long vertex", data: "vertices = [[0.0, 0.0, 0.0, 0.0, 0.0, 0.0]]\nindices = [0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMesh([]byte(tt.data))
			if !errors.Is(err, core.ErrInvalidMeshFile) {
				t.Errorf("error = %v, want ErrInvalidMeshFile", err)
			}
		})
	}
}

func TestMeshLoaderNamesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad"+MeshExtension)
	// A stray name key does not rename the mesh; names come from the file.
	data := "name = \"other\"\nvertices = [[0.0, 0.0, 0.0, 0.0, 0.0]]\nindices = [0]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := (&MeshLoader{}).Load(path, metadata.ResourceTypeMesh)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Name != "quad" || res.FullPath != path || res.Type != metadata.ResourceTypeMesh {
		t.Errorf("resource = %+v", res)
	}

	if _, err := (&MeshLoader{}).Load(path, metadata.ResourceTypeNone); err == nil {
		t.Errorf("loaded a mesh as the wrong resource type")
	}
}

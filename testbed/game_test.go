package testbed

import (
	"testing"

	"github.com/spaghettifunk/glmesh/engine"
)

func TestTestbedHeadless(t *testing.T) {
	config := engine.DefaultApplicationConfig()
	config.Headless = true
	config.HeadlessFrames = 2
	config.AssetsDir = ""
	config.LogLevel = "error"

	tg := NewTestGame(config)
	e, err := engine.New(tg.Game)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	triangle := tg.state().triangle
	if triangle == nil || triangle.Mesh == nil || triangle.Mesh.IndexCount() != 3 {
		t.Fatalf("triangle = %+v", triangle)
	}
	mesh := triangle.Mesh

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 2 {
		t.Errorf("frames = %d, want 2", e.Frames())
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !mesh.Destroyed() {
		t.Errorf("triangle mesh not released on shutdown")
	}
}

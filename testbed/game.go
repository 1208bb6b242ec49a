package testbed

import (
	"github.com/spaghettifunk/glmesh/engine"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine

	triangle *metadata.Geometry
	elapsed  float64
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	if config == nil {
		config = engine.DefaultApplicationConfig()
		config.Name = "Mesh Testbed"
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize uploads a single textured triangle next to whatever meshes the
// engine loaded from the assets directory.
func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("initializing testbed...")
	state := g.state()
	state.engine = e

	triangle, err := e.GeometrySystem().AcquireFromConfig(&metadata.GeometryConfig{
		Name: "testbed_triangle",
		Vertices: []math.Vertex3D{
			{Position: math.NewVec3(-5, -5, 0), Texcoord: math.NewVec2(0, 0)},
			{Position: math.NewVec3(5, -5, 0), Texcoord: math.NewVec2(1, 0)},
			{Position: math.NewVec3(0, 5, 0), Texcoord: math.NewVec2(0.5, 1)},
		},
		Indices: []uint32{0, 1, 2},
	}, true)
	if err != nil {
		return err
	}
	state.triangle = triangle

	for _, geo := range e.Geometries() {
		core.LogDebug("asset geometry '%s' id=%d extents=%v", geo.Name, geo.ID, geo.Extents)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	g.state().elapsed += deltaTime
	return nil
}

func (g *TestGame) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	state := g.state()

	geometries := state.engine.Geometries()
	if len(geometries) == 0 {
		// Nothing loaded from disk, show the built-in quad behind the triangle.
		geometries = append(geometries, state.engine.GeometrySystem().GetDefault())
	}
	packet.Geometries = append(packet.Geometries, geometries...)
	if state.triangle != nil {
		packet.Geometries = append(packet.Geometries, state.triangle)
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.state()
	core.LogInfo("testbed ran for %.2fs", state.elapsed)
	if state.triangle != nil {
		state.engine.GeometrySystem().Release(state.triangle)
		state.triangle = nil
	}
	return nil
}

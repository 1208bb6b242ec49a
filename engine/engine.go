package engine

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync/atomic"

	"github.com/spaghettifunk/glmesh/engine/assets"
	"github.com/spaghettifunk/glmesh/engine/containers"
	"github.com/spaghettifunk/glmesh/engine/core"
	"github.com/spaghettifunk/glmesh/engine/math"
	"github.com/spaghettifunk/glmesh/engine/platform"
	"github.com/spaghettifunk/glmesh/engine/renderer"
	"github.com/spaghettifunk/glmesh/engine/renderer/headless"
	"github.com/spaghettifunk/glmesh/engine/renderer/metadata"
	"github.com/spaghettifunk/glmesh/engine/renderer/opengl"
	"github.com/spaghettifunk/glmesh/engine/systems"
)

// Mesh uploads stall the frame, so only this many asset changes are applied
// per frame; the rest wait in the pending queue.
const maxAssetChangesPerFrame = 8

// Longest delta handed to the game hooks, in seconds.
const maxFrameDelta = 0.25

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

type Engine struct {
	currentStage   Stage
	gameInstance   *Game
	config         *ApplicationConfig
	isRunning      atomic.Bool
	platform       *platform.Platform
	device         renderer.FrameDevice
	assetManager   *assets.AssetManager
	geometrySystem *systems.GeometrySystem
	clock          *core.Clock
	metrics        *core.Metrics
	lastTime       float64
	frames         uint64
	program        uint32

	// Geometries uploaded from mesh assets, by asset name.
	loaded  map[string]*metadata.Geometry
	pending *containers.RingQueue[assets.AssetChange]
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and application config are required")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}

	level, err := core.ParseLogLevel(g.ApplicationConfig.LogLevel)
	if err != nil {
		return nil, err
	}
	core.SetLogLevel(level)

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       g.ApplicationConfig,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		loaded:       make(map[string]*metadata.Geometry),
		pending:      containers.NewRingQueue[assets.AssetChange](4 * maxAssetChangesPerFrame),
	}, nil
}

// Initialize creates the window (or the headless device), the geometry
// system and the asset watcher, then uploads the configured meshes. It must
// run on the thread that later calls Run and Shutdown.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.config

	if config.Headless {
		core.LogInfo("starting headless")
		e.device = headless.New()
	} else {
		e.platform = platform.New()
		if err := e.platform.Startup(config.Name, config.StartPosX, config.StartPosY, config.StartWidth, config.StartHeight, config.Visible); err != nil {
			return err
		}
		dev := opengl.New()
		if err := dev.Initialize(); err != nil {
			core.LogError(err.Error())
			return err
		}
		e.device = dev
	}

	program, err := e.device.CreateProgram(builtinVertexShader, builtinFragmentShader)
	if err != nil {
		err = fmt.Errorf("failed to build the builtin program: %w", err)
		core.LogError(err.Error())
		return err
	}
	e.program = program

	gs, err := systems.NewGeometrySystem(e.device, &metadata.GeometrySystemConfig{MaxGeometryCount: config.MaxGeometryCount})
	if err != nil {
		return err
	}
	e.geometrySystem = gs

	if err := e.initializeAssets(); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) initializeAssets() error {
	dir := e.config.AssetsDir
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); err != nil {
		core.LogWarn("assets directory '%s' not available, skipping mesh assets: %s", dir, err)
		return nil
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return err
	}
	if err := am.Initialize(dir); err != nil {
		core.LogError(err.Error())
		am.Close()
		return err
	}
	e.assetManager = am

	names := e.config.Meshes
	if len(names) == 0 {
		for _, a := range am.Assets(metadata.ResourceTypeMesh) {
			names = append(names, a.Name)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		if err := e.loadMesh(name); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadMesh(name string) error {
	config, err := e.assetManager.LoadMesh(name)
	if err != nil {
		core.LogError("failed to load mesh '%s': %s", name, err)
		return err
	}
	config.Name = name
	g, err := e.geometrySystem.AcquireFromConfig(config, true)
	if err != nil {
		return err
	}
	e.loaded[name] = g
	core.LogInfo("mesh '%s' uploaded (%d vertices, %d indices)", name, g.Mesh.VertexCount(), g.Mesh.IndexCount())
	return nil
}

// processAssetChanges applies mesh file changes seen by the watcher. Only
// the render thread touches the device, so changes are drained here.
func (e *Engine) processAssetChanges() {
	if e.assetManager != nil {
	drain:
		for !e.pending.IsFull() {
			select {
			case change, ok := <-e.assetManager.Changes():
				if !ok {
					e.assetManager = nil
					break drain
				}
				_ = e.pending.Enqueue(change)
			default:
				break drain
			}
		}
	}

	for i := 0; i < maxAssetChangesPerFrame; i++ {
		change, err := e.pending.Dequeue()
		if err != nil {
			return
		}
		e.applyAssetChange(change)
	}
}

func (e *Engine) applyAssetChange(change assets.AssetChange) {
	if change.Type != metadata.ResourceTypeMesh {
		return
	}
	g, loaded := e.loaded[change.Name]

	switch change.Op {
	case assets.AssetRemoved:
		if loaded {
			core.LogInfo("mesh '%s' removed, releasing geometry", change.Name)
			e.geometrySystem.Release(g)
			delete(e.loaded, change.Name)
		}
	case assets.AssetUpdated:
		if e.assetManager == nil {
			return
		}
		if !loaded {
			// With an explicit list only listed meshes come (back) in.
			if len(e.config.Meshes) > 0 && !slices.Contains(e.config.Meshes, change.Name) {
				return
			}
			if err := e.loadMesh(change.Name); err != nil {
				core.LogWarn("ignoring new mesh '%s': %s", change.Name, err)
			}
			return
		}
		config, err := e.assetManager.LoadMesh(change.Name)
		if err != nil {
			// Editors often write partial files; keep the current mesh.
			core.LogWarn("keeping previous mesh '%s': %s", change.Name, err)
			return
		}
		if err := e.geometrySystem.Reload(g, config); err == nil {
			core.LogInfo("mesh '%s' reloaded (generation %d)", change.Name, g.Generation)
		}
	}
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	defer e.isRunning.Store(false)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if e.platform != nil && !e.platform.PumpMessages() {
			break
		}
		if e.config.Headless && e.config.HeadlessFrames > 0 && e.frames >= e.config.HeadlessFrames {
			break
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := math.Min(currentTime-e.lastTime, maxFrameDelta)

		e.processAssetChanges()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("Game update failed, shutting down: %s", err)
				return err
			}
		}

		packet := &metadata.RenderPacket{DeltaTime: delta}
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(packet, delta); err != nil {
				core.LogError("Game render failed, shutting down: %s", err)
				return err
			}
		}
		e.drawFrame(packet)

		e.clock.Update()
		e.metrics.Update(e.clock.Elapsed() - currentTime)
		e.frames++
		if e.frames%600 == 0 {
			core.LogDebug("fps %.1f, frame time %.3fms", e.metrics.FPS(), e.metrics.FrameTime())
		}

		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) drawFrame(packet *metadata.RenderPacket) {
	if e.platform != nil {
		if w, h, resized := e.platform.FramebufferSize(); resized || e.frames == 0 {
			e.device.Viewport(int32(w), int32(h))
		}
	}

	c := e.config.ClearColor
	e.device.Clear(c[0], c[1], c[2], c[3])

	e.device.UseProgram(e.program)
	for _, g := range packet.Geometries {
		if g == nil || g.Mesh == nil || g.Mesh.Destroyed() {
			continue
		}
		g.Mesh.Draw()
	}
	e.device.UseProgram(0)

	if e.platform != nil {
		e.platform.SwapBuffers()
	}
}

// Stop asks Run to return after the current frame. Safe to call from any
// goroutine; no graphics call is made here.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
	if e.platform != nil {
		e.platform.RequestClose()
	}
}

// Shutdown releases every geometry, the program and the window. Call it on
// the thread that ran the engine.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Close(); err != nil {
			errs = append(errs, err)
		}
		e.assetManager = nil
	}
	if e.geometrySystem != nil {
		e.geometrySystem.Shutdown()
	}
	if e.device != nil && e.program != 0 {
		e.device.DeleteProgram(e.program)
		e.program = 0
	}
	if e.platform != nil {
		if err := e.platform.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	e.currentStage = EngineStageShutdown
	return errors.Join(errs...)
}

func (e *Engine) GeometrySystem() *systems.GeometrySystem {
	return e.geometrySystem
}

// Geometries returns the geometries uploaded from mesh assets, sorted by name.
func (e *Engine) Geometries() []*metadata.Geometry {
	names := make([]string, 0, len(e.loaded))
	for name := range e.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*metadata.Geometry, 0, len(names))
	for _, name := range names {
		out = append(out, e.loaded[name])
	}
	return out
}

func (e *Engine) Frames() uint64 {
	return e.frames
}

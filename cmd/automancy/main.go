package main

import (
	"context"
	"flag"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine"
	"github.com/ckiee/automancy/engine/camera"
	"github.com/ckiee/automancy/engine/config"
	"github.com/ckiee/automancy/engine/loader"
	"github.com/ckiee/automancy/engine/profiler"
	"github.com/ckiee/automancy/engine/renderer"
	"github.com/ckiee/automancy/engine/resource"
	"github.com/ckiee/automancy/engine/sim"
	"github.com/ckiee/automancy/engine/window"
)

// GLFW virtual key codes used by the input bindings.
const (
	keyScreenshot = 291 // F2
)

// mouseDragScale converts pixel drag deltas into pan input.
const mouseDragScale = 0.005

func main() {
	configPath := flag.String("config", "automancy.yaml", "path to the YAML config file")
	modelDir := flag.String("models", "assets/models", "directory of glTF model assets")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	// ── Window ──────────────────────────────────────────────────────
	win := window.NewWindow(
		window.WithTitle("automancy"),
		window.WithSize(1280, 720),
	)
	defer win.Close()

	// ── Resources ───────────────────────────────────────────────────
	resMan, err := loadResources(*modelDir, logger)
	if err != nil {
		logger.Fatal("loading resources", zap.Error(err))
	}

	// ── GPU backend ─────────────────────────────────────────────────
	presentMode := renderer.PresentModeVSync
	if cfg.FPSLimit > 0 {
		presentMode = renderer.PresentModeUncapped
	}
	backend, err := renderer.NewWGPUFrameBackend(
		win.SurfaceDescriptor(),
		resMan.VertexData(), resMan.IndexData(),
		uint32(win.Width()), uint32(win.Height()),
		renderer.MSAASampleCount(cfg.MSAASampleCount),
		presentMode,
	)
	if err != nil {
		logger.Fatal("initializing GPU backend", zap.Error(err))
	}

	// ── Camera ──────────────────────────────────────────────────────
	ctrl := camera.NewCameraController(
		camera.WithStartPosition(0, 0),
	)
	cam := camera.NewCamera(
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithController(ctrl),
	)

	// ── Simulation ──────────────────────────────────────────────────
	game := sim.NewGame(resMan, sim.WithLogger(logger))
	defer game.Close()

	if err := seedWorld(game, resMan); err != nil {
		logger.Fatal("seeding world", zap.Error(err))
	}

	// ── Renderer ────────────────────────────────────────────────────
	prof := profiler.NewProfiler(logger)
	rend := renderer.NewRenderer(backend, resMan, game, cam,
		renderer.WithLogger(logger),
		renderer.WithProfiler(prof),
		renderer.WithUpdateRate(cfg.UpdateRate),
		renderer.WithCullingPadding(cfg.CullingRadiusPadding),
		renderer.WithScreenshotSink(renderer.NewFileSink(cfg.ScreenshotDir)),
	)
	defer rend.Release()

	// ── Input ───────────────────────────────────────────────────────
	var screenshotRequested atomic.Bool
	var dragging bool
	var lastX, lastY int32

	win.SetResizeCallback(func(width, height int) {
		rend.Resize(width, height)
	})
	win.SetMouseButtonCallback(func(button window.MouseButton, pressed bool, x, y int32) {
		if button != window.MouseButtonLeft {
			return
		}
		dragging = pressed
		lastX, lastY = x, y
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		if !dragging {
			return
		}
		dx := float32(x - lastX)
		dy := float32(y - lastY)
		lastX, lastY = x, y
		// Screen y grows downward; grab-drag moves the camera against the
		// cursor.
		ctrl.Pan(-dx*mouseDragScale, dy*mouseDragScale)
	})
	win.SetScrollCallback(func(delta float32) {
		ctrl.Zoom(-delta)
	})
	win.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == keyScreenshot {
			screenshotRequested.Store(true)
		}
	})

	// ── Engine ──────────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithTickRate(float64(cfg.UpdateRate)),
		engine.WithRenderFrameLimit(float64(cfg.FPSLimit)),
		engine.WithProfiler(prof),
	)

	eng.SetTickCallback(demoTransactionTicker(game, resMan, logger))
	eng.SetRenderCallback(func(dt float32) {
		ctrl.Tick(dt)
		cam.Update()

		if err := rend.Render(screenshotRequested.Swap(false)); err != nil {
			logger.Error("frame failed", zap.Error(err))
		}
	})

	logger.Info("starting", zap.Uint("update_rate", cfg.UpdateRate), zap.Uint("fps_limit", cfg.FPSLimit))
	eng.Run()
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// loadResources builds the resource manager: glTF assets from modelDir when
// present, procedural geometry for everything the asset set leaves out.
func loadResources(modelDir string, logger *zap.Logger) (resource.Manager, error) {
	ldr := loader.NewLoader()
	opts := []resource.ManagerBuilderOption{}

	loaded := map[string]bool{}
	paths, _ := filepath.Glob(filepath.Join(modelDir, "*.glb"))
	for _, path := range paths {
		name := "model/" + trimExt(filepath.Base(path))
		mesh, tracks, err := ldr.LoadModel(path)
		if err != nil {
			logger.Warn("skipping model asset", zap.String("path", path), zap.Error(err))
			continue
		}
		opts = append(opts, resource.WithModel(name, mesh))
		for _, track := range tracks {
			opts = append(opts, resource.WithAnimation(name, track))
		}
		loaded[name] = true
		logger.Debug("loaded model", zap.String("name", name))
	}

	// Procedural fallbacks for the reserved models and any demo model the
	// asset directory did not provide.
	hexModel := func(name string, color common.Color) {
		if loaded[name] {
			return
		}
		vertices, indices := resource.HexagonGeometry(0.95, color)
		opts = append(opts, resource.WithModel(name, ldr.AppendGeometry(vertices, indices)))
	}
	cubeModel := func(name string, color common.Color) {
		if loaded[name] {
			return
		}
		vertices, indices := resource.CubeGeometry(color)
		opts = append(opts, resource.WithModel(name, ldr.AppendGeometry(vertices, indices)))
	}

	cubeModel(resource.NameMissing, common.Color{1, 0, 1, 1})
	cubeModel(resource.NameCube, common.ColorWhite)
	hexModel("model/none", common.Color{0.12, 0.12, 0.14, 1})
	hexModel("model/machine", common.Color{0.55, 0.57, 0.6, 1})
	hexModel("model/machine_idle", common.Color{0.3, 0.31, 0.33, 1})
	hexModel("model/miner", common.Color{0.7, 0.5, 0.2, 1})
	hexModel("model/storage", common.Color{0.25, 0.45, 0.7, 1})
	cubeModel("model/ore", common.Color{0.6, 0.4, 0.25, 1})
	cubeModel("model/ingot", common.Color{0.85, 0.75, 0.3, 1})

	green := common.Color{0.3, 0.9, 0.3, 1}
	opts = append(opts,
		resource.WithTileNamed(resource.NameNone, "model/none", "", nil),
		resource.WithTileNamed("tile/machine", "model/machine", "model/machine_idle", &green),
		resource.WithTileNamed("tile/miner", "model/miner", "", nil),
		resource.WithTileNamed("tile/storage", "model/storage", "", nil),
		resource.WithItemNamed("item/ore", "model/ore"),
		resource.WithItemNamed("item/ingot", "model/ingot"),
		resource.WithGeometry(ldr.VertexData(), ldr.IndexData()),
	)

	return resource.NewManager(opts...), nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// seedWorld places a small production line so the renderer has something to
// show: a miner feeding a machine feeding storage, with links and facing
// directions set.
func seedWorld(game sim.Game, resMan resource.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	miner, _ := resMan.Lookup("tile/miner")
	machine, _ := resMan.Lookup("tile/machine")
	storage, _ := resMan.Lookup("tile/storage")
	ore, _ := resMan.Lookup("item/ore")
	ingot, _ := resMan.Lookup("item/ingot")

	minerAt := common.TileCoord{Q: -2, R: 0}
	machineAt := common.TileCoord{Q: 0, R: 0}
	storageAt := common.TileCoord{Q: 2, R: -1}
	idleAt := common.TileCoord{Q: 0, R: 2}

	type placement struct {
		coord common.TileCoord
		tile  resource.ID
	}
	for _, p := range []placement{
		{minerAt, miner},
		{machineAt, machine},
		{storageAt, storage},
		{idleAt, machine},
	} {
		if err := game.PlaceTile(ctx, p.coord, p.tile); err != nil {
			return err
		}
	}

	steps := []func() error{
		func() error {
			return game.SetData(ctx, minerAt, sim.KeyDirection, sim.CoordData{Coord: machineAt.Sub(minerAt)})
		},
		func() error {
			return game.SetData(ctx, machineAt, sim.KeyDirection, sim.CoordData{Coord: storageAt.Sub(machineAt)})
		},
		func() error {
			return game.SetData(ctx, machineAt, sim.KeyLink, sim.CoordData{Coord: minerAt.Sub(machineAt)})
		},
		func() error {
			return game.SetData(ctx, storageAt, sim.KeyItem, sim.IdData{Id: ingot})
		},
		func() error {
			return game.SetData(ctx, minerAt, sim.KeyItem, sim.IdData{Id: ore})
		},
		func() error {
			return game.SetInactive(ctx, idleAt, true)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// demoTransactionTicker returns a tick callback that records an item
// movement along the production line every few hundred milliseconds so the
// transaction animation path stays exercised.
func demoTransactionTicker(game sim.Game, resMan resource.Manager, logger *zap.Logger) func(float32) {
	ore, _ := resMan.Lookup("item/ore")
	ingot, _ := resMan.Lookup("item/ingot")

	const interval = 0.6 // seconds between recordings
	var accum float32

	return func(dt float32) {
		accum += dt
		if accum < interval {
			return
		}
		accum = 0

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := game.RecordTransaction(ctx, common.TileCoord{Q: -2, R: 0}, common.TileCoord{Q: 0, R: 0}, ore)
		if err == nil {
			err = game.RecordTransaction(ctx, common.TileCoord{Q: 0, R: 0}, common.TileCoord{Q: 2, R: -1}, ingot)
		}
		if err != nil {
			logger.Debug("demo transaction dropped", zap.Error(err))
		}
	}
}

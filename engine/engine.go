package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/rtgeom/engine/config"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
	"github.com/spaghettifunk/rtgeom/engine/systems"
)

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
)

/**
 * @brief Runs the frame loop of a game: every frame collects the game's
 * geometry, records the staging copies and the preprocessing barriers.
 */
type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *config.Config
	systemManager *systems.SystemManager
	backend       gpu.Backend
	frameNumber   uint64
	lastTime      time.Time
}

func New(g *Game, cfg *config.Config, backend gpu.Backend) (*Engine, error) {
	core.SetLogLevel(cfg.Level())

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		Frame:      cfg.FrameSystem(),
		Texture:    cfg.TextureSystem(),
		JobWorkers: cfg.Overrides.JobWorkers,
	}, backend.Allocator())
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		systemManager: sm,
		backend:       backend,
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

/**
 * @brief Runs frames until the context is done or the configured frame
 * count is reached.
 */
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before Run")
	}
	e.currentStage = EngineStageRunning
	e.lastTime = time.Now()

	appConfig := e.gameInstance.ApplicationConfig
	frames := e.systemManager.Frames()

	for {
		select {
		case <-ctx.Done():
			core.LogInfo("Run cancelled after %d frames", e.frameNumber)
			return nil
		default:
		}
		if appConfig.FrameCount > 0 && e.frameNumber >= appConfig.FrameCount {
			return nil
		}

		now := time.Now()
		delta := now.Sub(e.lastTime).Seconds()
		e.lastTime = now

		if err := e.runFrame(frames, delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err.Error())
			return err
		}

		e.frameNumber++
		if appConfig.MetricsInterval > 0 && e.frameNumber%appConfig.MetricsInterval == 0 {
			m := frames.Metrics()
			core.LogInfo("%s: frame %d, %.0f bytes and %.1f triangles uploaded per frame, %d primitives rejected",
				appConfig.Name, e.frameNumber, m.AverageBytes(), m.AveragePrimitives(), m.RejectedTotal)
		}
	}
}

func (e *Engine) runFrame(frames *systems.FrameSystem, delta float64) error {
	frameIndex := uint32(e.frameNumber % uint64(e.config.FramesInFlight))

	for _, reloaded := range e.systemManager.Textures().Update() {
		core.LogInfo("Texture overrides of %q reloaded", reloaded)
	}

	frames.BeginFrame(frameIndex)
	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(frames, e.frameNumber, delta); err != nil {
			return err
		}
	}

	cmd, err := e.backend.Recorder(frameIndex)
	if err != nil {
		return err
	}
	frames.Record(cmd)
	// vertex preprocessing runs here
	frames.FinishPreprocess(cmd)
	return e.backend.Submit(frameIndex)
}

func (e *Engine) FrameNumber() uint64 {
	return e.frameNumber
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	return e.systemManager.Shutdown()
}

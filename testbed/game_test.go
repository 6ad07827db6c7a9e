package testbed

import (
	"context"
	"testing"

	"github.com/spaghettifunk/rtgeom/engine"
	"github.com/spaghettifunk/rtgeom/engine/config"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/headless"
)

func TestTestGameRuns(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = string(core.LogLevelError)
	cfg.Collector.StaticVertexBufferSize = 4096 * 64
	cfg.Collector.DynamicVertexBufferSize = 4096 * 64
	cfg.Overrides.Loader = "png"
	cfg.Overrides.TexturesPath = t.TempDir()

	tg := NewTestGame(4, core.LogLevelError)
	e, err := engine.New(tg.Game, cfg, headless.NewBackend(cfg.FramesInFlight))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	frames := tg.SystemManager.Frames()
	// 4x4 floor segments, two triangles each
	if got := frames.StaticCollector().GetCurrentPrimitiveCount(); got != 32 {
		t.Errorf("static triangles = %d, want 32", got)
	}
	// crate and fence
	if got := frames.DynamicCollector().GetCurrentPrimitiveCount(); got != 14 {
		t.Errorf("dynamic triangles = %d, want 14", got)
	}

	tg.SystemManager.Textures().Wait()
	if _, ok := tg.SystemManager.Textures().Get(crateMaterial); !ok {
		t.Errorf("%s was not loaded", crateMaterial)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

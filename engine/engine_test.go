package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/spaghettifunk/rtgeom/engine/config"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/collector"
	"github.com/spaghettifunk/rtgeom/engine/renderer/headless"
	"github.com/spaghettifunk/rtgeom/engine/systems"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LogLevel = string(core.LogLevelError)
	cfg.Collector.StaticVertexBufferSize = 1024 * 64
	cfg.Collector.DynamicVertexBufferSize = 1024 * 64
	cfg.Overrides.Loader = "png"
	cfg.Overrides.TexturesPath = t.TempDir()
	return cfg
}

func newTestEngine(t *testing.T, g *Game) (*Engine, *headless.Backend) {
	t.Helper()
	cfg := testConfig(t)
	backend := headless.NewBackend(cfg.FramesInFlight)
	e, err := New(g, cfg, backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return e, backend
}

func TestRunUploadsEveryFrame(t *testing.T) {
	cube := systems.GenerateCube(1, 1, 1, 1, 1)
	var updates []uint64
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Name: "test", FrameCount: 5},
		FnUpdate: func(frames *systems.FrameSystem, frameNumber uint64, deltaTime float64) error {
			updates = append(updates, frameNumber)
			return frames.Upload(&collector.MeshInfo{UniqueObjectID: 1}, cube, nil, nil)
		},
	}
	e, backend := newTestEngine(t, g)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.FrameNumber() != 5 || len(updates) != 5 || updates[4] != 4 {
		t.Errorf("frames %d, updates %v", e.FrameNumber(), updates)
	}
	// frames 0, 2, 4 and 1, 3
	if backend.Submitted(0) != 3 || backend.Submitted(1) != 2 {
		t.Errorf("submitted %d/%d", backend.Submitted(0), backend.Submitted(1))
	}
	if copies := countKind(backend.Commands(0), headless.CommandCopy); copies != 3 {
		t.Errorf("last frame recorded %d copies, want 3", copies)
	}
	if m := g.SystemManager.Frames().Metrics(); m.Frames != 5 || m.AveragePrimitives() != 12 {
		t.Errorf("metrics: %d frames, %v triangles", m.Frames, m.AveragePrimitives())
	}

	if err := e.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func countKind(cmds []headless.Command, kind headless.CommandKind) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestRunStopsOnUpdateError(t *testing.T) {
	errBoom := errors.New("boom")
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Name: "test"},
		FnUpdate: func(*systems.FrameSystem, uint64, float64) error {
			return errBoom
		},
	}
	e, _ := newTestEngine(t, g)
	defer e.Shutdown()

	if err := e.Run(context.Background()); !errors.Is(err, errBoom) {
		t.Errorf("Run err = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		ApplicationConfig: &ApplicationConfig{Name: "test"},
		FnUpdate: func(_ *systems.FrameSystem, frameNumber uint64, _ float64) error {
			if frameNumber == 2 {
				cancel()
			}
			return nil
		},
	}
	e, _ := newTestEngine(t, g)
	defer e.Shutdown()

	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if e.FrameNumber() != 3 {
		t.Errorf("ran %d frames, want 3", e.FrameNumber())
	}
}

func TestStages(t *testing.T) {
	g := &Game{ApplicationConfig: &ApplicationConfig{Name: "test", FrameCount: 1}}
	cfg := testConfig(t)
	e, err := New(g, cfg, headless.NewBackend(cfg.FramesInFlight))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Shutdown()

	if err := e.Run(context.Background()); err == nil {
		t.Error("Run before Initialize succeeded")
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err == nil {
		t.Error("second Initialize succeeded")
	}
}

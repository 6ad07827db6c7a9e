/*
This is an example of application that will use the
engine package to collect and stage geometry headlessly
*/
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/rtgeom/engine"
	"github.com/spaghettifunk/rtgeom/engine/config"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/headless"
	"github.com/spaghettifunk/rtgeom/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	frames := flag.Uint64("frames", 120, "number of frames to run, 0 runs until interrupted")
	logLevel := flag.String("log-level", "", "overrides the log level of the configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogWarn("No configuration at %s, using defaults", *configPath)
		cfg, err = config.Default(), nil
	}
	if err != nil {
		core.LogFatal("Failed to load configuration: %s", err.Error())
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
		if err := cfg.Validate(); err != nil {
			core.LogFatal(err.Error())
		}
	}

	if err := run(cfg, *frames); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, frames uint64) error {
	backend := headless.NewBackend(cfg.FramesInFlight)
	defer backend.Destroy()

	tb := testbed.NewTestGame(frames, cfg.Level())

	e, err := engine.New(tb.Game, cfg, backend)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("Shutdown failed: %s", err.Error())
		}
	}()

	if err := e.Initialize(); err != nil {
		core.LogError(err.Error())
		return err
	}

	// signal context to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	return e.Run(ctx)
}

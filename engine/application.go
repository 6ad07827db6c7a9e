package engine

import (
	"github.com/spaghettifunk/rtgeom/engine/core"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name     string
	LogLevel core.LogLevel
	// Number of frames to run, 0 runs until the context is cancelled.
	FrameCount uint64
	// Frames between two upload metrics reports, 0 disables them.
	MetricsInterval uint64
}

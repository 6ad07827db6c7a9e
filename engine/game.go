package engine

import (
	"github.com/spaghettifunk/rtgeom/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnShutdown        Shutdown
}

type Initialize func() error

// Update uploads the geometry of a frame. It runs between BeginFrame and Record.
type Update func(frames *systems.FrameSystem, frameNumber uint64, deltaTime float64) error
type Shutdown func() error

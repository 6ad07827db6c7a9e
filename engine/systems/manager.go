package systems

import (
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

type SystemManagerConfig struct {
	Frame      *FrameSystemConfig
	Texture    *TextureSystemConfig
	JobWorkers int
}

type SystemManager struct {
	jobSystem     *JobSystem
	textureSystem *TextureSystem
	frameSystem   *FrameSystem
}

func NewSystemManager(config *SystemManagerConfig, allocator gpu.MemoryAllocator) (*SystemManager, error) {
	js, err := NewJobSystem(config.JobWorkers, 64)
	if err != nil {
		return nil, err
	}
	ts, err := NewTextureSystem(config.Texture, js)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	fs, err := NewFrameSystem(config.Frame, allocator)
	if err != nil {
		ts.Shutdown()
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		jobSystem:     js,
		textureSystem: ts,
		frameSystem:   fs,
	}, nil
}

func (sm *SystemManager) Frames() *FrameSystem {
	return sm.frameSystem
}

func (sm *SystemManager) Textures() *TextureSystem {
	return sm.textureSystem
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.frameSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.textureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}

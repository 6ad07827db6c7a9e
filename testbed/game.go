package testbed

import (
	gomath "math"

	"github.com/spaghettifunk/rtgeom/engine"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/math"
	"github.com/spaghettifunk/rtgeom/engine/overrides"
	"github.com/spaghettifunk/rtgeom/engine/renderer/collector"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
	"github.com/spaghettifunk/rtgeom/engine/systems"
)

const (
	floorObjectID uint64 = iota + 1
	crateObjectID
	fenceObjectID
	crateMaterial = "demo/crate"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	floor *collector.PrimitiveInfo
	crate *collector.PrimitiveInfo
	fence *collector.PrimitiveInfo

	crateTextures [collector.LayerCount]collector.MaterialTextures
	elapsed       float64
}

func NewTestGame(frameCount uint64, logLevel core.LogLevel) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:            "rtgeom demo",
				LogLevel:        logLevel,
				FrameCount:      frameCount,
				MetricsInterval: 30,
			},
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize() error {
	core.LogInfo("initializing testbed...")
	s := g.state()

	s.floor = systems.GeneratePlane(20, 20, 4, 4, 4, 4)
	s.floor.Transform = math.NewTransformTranslation(math.Vec3{Y: -1})

	s.crate = systems.GenerateCube(1, 1, 1, 1, 1)

	s.fence = systems.GeneratePlane(4, 2, 1, 1, 2, 1)
	s.fence.Flags = collector.PRIMITIVE_ALPHA_TESTED
	s.fence.Transform = math.NewTransformTranslation(math.Vec3{Z: -3})

	// albedo, roughness-metallic, normal; no emission
	s.crateTextures[collector.LayerBase].Indices = [4]uint32{1, 2, 3, metadata.MATERIAL_NO_TEXTURE}

	white := []byte{255, 255, 255, 255}
	flatNormal := []byte{128, 128, 255, 255}
	g.SystemManager.Textures().LoadAsync(crateMaterial,
		overrides.DefaultTextures{white, nil, flatNormal},
		metadata.Extent2D{Width: 1, Height: 1},
		func(o *overrides.TextureOverrides) {
			core.LogDebug("Material %q has its textures", o.DebugName())
		})

	// the floor never moves, upload it once
	g.SystemManager.Frames().StartStaticUpload()
	return nil
}

func (g *TestGame) Update(frames *systems.FrameSystem, frameNumber uint64, deltaTime float64) error {
	s := g.state()
	s.elapsed += deltaTime

	if frameNumber == 0 {
		if err := frames.Upload(&collector.MeshInfo{UniqueObjectID: floorObjectID, IsStatic: true}, s.floor, nil, nil); err != nil {
			return err
		}
		frames.SubmitStaticUpload()
	}

	bob := float32(gomath.Sin(s.elapsed * 2))
	scale := 1 + 0.1*bob
	s.crate.Transform = math.NewTransformTranslation(math.Vec3{Y: bob * 0.5}).
		Mul(math.NewTransformScale(math.Vec3{X: scale, Y: scale, Z: scale}))
	if err := frames.Upload(&collector.MeshInfo{UniqueObjectID: crateObjectID}, s.crate, &s.crateTextures, nil); err != nil {
		return err
	}

	return frames.Upload(&collector.MeshInfo{UniqueObjectID: fenceObjectID, Visibility: collector.VisibilityWorld1}, s.fence, nil, nil)
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed...")
	return nil
}

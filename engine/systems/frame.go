package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/renderer/collector"
	"github.com/spaghettifunk/rtgeom/engine/renderer/geominfo"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
)

const (
	staticFilters  = collector.CF_STATIC_NON_MOVABLE | collector.CF_STATIC_MOVABLE | collector.MASK_PASS_THROUGH_GROUP | collector.MASK_PRIMARY_VISIBILITY_GROUP
	dynamicFilters = collector.CF_DYNAMIC | collector.MASK_PASS_THROUGH_GROUP | collector.MASK_PRIMARY_VISIBILITY_GROUP
)

var ErrStaticUploadNotStarted = errors.New("static geometry can only be uploaded after StartStaticUpload")

type FrameSystemConfig struct {
	FramesInFlight uint32
	/** @brief Size in bytes of the static vertex buffer. */
	StaticVertexBufferSize uint64
	/** @brief Size in bytes of the dynamic vertex buffer, shared by every frame in flight. */
	DynamicVertexBufferSize uint64
}

/**
 * @brief Drives the collectors through a frame: reset, upload, transfer and
 * the barriers around vertex preprocessing.
 *
 * Static geometry is collected once between StartStaticUpload and
 * SubmitStaticUpload, then copied to the device with the next Record and
 * kept until the next StartStaticUpload. Dynamic geometry is collected anew
 * every frame; each frame in flight stages into its own memory.
 */
type FrameSystem struct {
	Config *FrameSystemConfig

	registry *geominfo.Manager
	static   *collector.Collector
	dynamic  []*collector.Collector
	metrics  *core.UploadMetrics

	frameIndex       uint32
	isFrameStarted   bool
	staticRequested  bool
	staticCollecting bool
	staticSubmitted  bool
	rejected         uint32
}

func NewFrameSystem(config *FrameSystemConfig, allocator gpu.MemoryAllocator) (*FrameSystem, error) {
	if config.FramesInFlight == 0 {
		err := fmt.Errorf("func NewFrameSystem - %w: FramesInFlight must be > 0", core.ErrInvalidConfig)
		core.LogError(err.Error())
		return nil, err
	}

	fs := &FrameSystem{
		Config:   config,
		registry: geominfo.NewManager(config.FramesInFlight),
		dynamic:  make([]*collector.Collector, config.FramesInFlight),
		metrics:  core.NewUploadMetrics(),
	}

	var err error
	fs.static, err = collector.NewCollector(allocator, fs.registry, config.StaticVertexBufferSize, staticFilters)
	if err != nil {
		return nil, err
	}

	fs.dynamic[0], err = collector.NewCollector(allocator, fs.registry, config.DynamicVertexBufferSize, dynamicFilters)
	if err != nil {
		fs.Shutdown()
		return nil, err
	}
	for i := uint32(1); i < config.FramesInFlight; i++ {
		fs.dynamic[i], err = collector.NewCollectorSharing(fs.dynamic[0], allocator)
		if err != nil {
			fs.Shutdown()
			return nil, err
		}
	}

	return fs, nil
}

/**
 * @brief Starts a frame: the frame's dynamic collector and geometry records
 * are cleared. Static records survive unless a static upload was started.
 */
func (fs *FrameSystem) BeginFrame(frameIndex uint32) {
	fs.frameIndex = frameIndex % fs.Config.FramesInFlight
	fs.isFrameStarted = true
	fs.rejected = 0

	if fs.staticRequested {
		fs.staticRequested = false
		fs.staticCollecting = true
		fs.staticSubmitted = false
		fs.static.Reset()
		fs.registry.PrepareForFrame(fs.frameIndex)
	} else {
		fs.registry.ResetOnlyDynamic(fs.frameIndex)
	}

	fs.dynamic[fs.frameIndex].Reset()
}

// StartStaticUpload drops the static geometry at the next BeginFrame and
// accepts static uploads until SubmitStaticUpload.
func (fs *FrameSystem) StartStaticUpload() {
	fs.staticRequested = true
}

// SubmitStaticUpload closes the static upload; the next Record copies it.
func (fs *FrameSystem) SubmitStaticUpload() {
	if !fs.staticCollecting {
		core.LogWarn("SubmitStaticUpload called without StartStaticUpload")
		return
	}
	fs.staticCollecting = false
	fs.staticSubmitted = true
}

/**
 * @brief Routes a primitive to the static or the dynamic collector of the
 * current frame.
 */
func (fs *FrameSystem) Upload(mesh *collector.MeshInfo, primitive *collector.PrimitiveInfo, layerTextures *[collector.LayerCount]collector.MaterialTextures, layerColors *[collector.LayerCount]uint32) error {
	if !fs.isFrameStarted {
		panic("systems: Upload called before BeginFrame")
	}

	var err error
	if mesh.IsStatic {
		if !fs.staticCollecting {
			return fmt.Errorf("%w: object %d", ErrStaticUploadNotStarted, mesh.UniqueObjectID)
		}
		err = fs.static.AddPrimitive(fs.frameIndex, mesh, primitive, layerTextures, layerColors)
	} else {
		err = fs.dynamic[fs.frameIndex].AddPrimitive(fs.frameIndex, mesh, primitive, layerTextures, layerColors)
	}

	if errors.Is(err, core.ErrCapacityExceeded) {
		fs.rejected++
	}
	return err
}

/**
 * @brief Records the staging to device copies of the frame. The static data
 * is copied only once after it was submitted.
 * @return true if anything was recorded.
 */
func (fs *FrameSystem) Record(cmd gpu.CommandRecorder) bool {
	sample := core.UploadSample{Rejected: fs.rejected}

	recorded := false
	if fs.staticSubmitted {
		fs.staticSubmitted = false
		if fs.static.CopyFromStaging(cmd) {
			recorded = true
			sample = addSample(sample, fs.static.UploadSample())
		}
	}

	dyn := fs.dynamic[fs.frameIndex]
	if dyn.CopyFromStaging(cmd) {
		recorded = true
		sample = addSample(sample, dyn.UploadSample())
	}

	fs.metrics.Update(sample)
	return recorded
}

func addSample(a, b core.UploadSample) core.UploadSample {
	a.VertexBytes += b.VertexBytes
	a.IndexBytes += b.IndexBytes
	a.TransformBytes += b.TransformBytes
	a.Primitives += b.Primitives
	return a
}

// FinishPreprocess makes the preprocessed vertices visible to the BLAS build.
func (fs *FrameSystem) FinishPreprocess(cmd gpu.CommandRecorder) {
	fs.static.InsertVertexPreprocessFinishBarrier(cmd)
	fs.dynamic[fs.frameIndex].InsertVertexPreprocessFinishBarrier(cmd)
	fs.isFrameStarted = false
}

// StaticCollector holds the BLAS build input of the static geometry.
func (fs *FrameSystem) StaticCollector() *collector.Collector {
	return fs.static
}

// DynamicCollector holds the BLAS build input of the current frame's dynamic geometry.
func (fs *FrameSystem) DynamicCollector() *collector.Collector {
	return fs.dynamic[fs.frameIndex]
}

func (fs *FrameSystem) Registry() *geominfo.Manager {
	return fs.registry
}

// GeometryInstances returns the current frame's geometry instance records, ready for upload.
func (fs *FrameSystem) GeometryInstances() ([]byte, error) {
	return fs.registry.Encode(fs.frameIndex)
}

func (fs *FrameSystem) Metrics() *core.UploadMetrics {
	return fs.metrics
}

func (fs *FrameSystem) Shutdown() error {
	for i, c := range fs.dynamic {
		if c != nil {
			c.Destroy()
			fs.dynamic[i] = nil
		}
	}
	if fs.static != nil {
		fs.static.Destroy()
		fs.static = nil
	}
	return nil
}

// Package collector gathers the mesh primitives of a frame into device
// buffers and produces the bottom level acceleration structure build input,
// grouped by filter flags.
package collector

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/math"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

const (
	IndexBufferSize     = uint64(metadata.MAX_INDEXED_PRIMITIVE_COUNT) * 3 * indexSize
	TransformBufferSize = uint64(metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT) * transformSize
)

/**
 * @brief Accumulates the primitives of one frame. Not safe for concurrent use;
 * separate collectors can be used from separate goroutines.
 */
type Collector struct {
	ID uuid.UUID

	filtersFlags FilterTypeFlags
	registry     GeomInfoRegistry

	vertBuffer       *sharedBuffer
	indexBuffer      *sharedBuffer
	transformsBuffer *sharedBuffer

	stagingVertBuffer       gpu.Buffer
	stagingIndexBuffer      gpu.Buffer
	stagingTransformsBuffer gpu.Buffer

	mappedVertexData    []byte
	mappedIndexData     []byte
	mappedTransformData []byte

	curVertexCount    uint32
	curIndexCount     uint32
	curPrimitiveCount uint32
	curTransformCount uint32

	maxStaticVertexCount  uint32
	maxDynamicVertexCount uint32

	// Indexed by filter slot, nil if the group was not created.
	filters [FilterGroupCount]*filter
}

/**
 * @brief Creates a collector with its own device local buffers.
 * @param bufferSize size of the vertex buffer in bytes.
 * @param filters groups to create; every combination fully contained in it gets one.
 */
func NewCollector(allocator gpu.MemoryAllocator, registry GeomInfoRegistry, bufferSize uint64, filters FilterTypeFlags) (*Collector, error) {
	if filters == 0 {
		panic("collector: no filter flags")
	}
	if registry == nil {
		panic("collector: nil geometry info registry")
	}

	c := newCollector(registry, filters)
	isDynamic := filters.IsDynamic()

	// dynamic vertices also get copied to the previous frame buffers
	transferUsage := vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	if isDynamic {
		transferUsage |= vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	}
	addressUsage := vk.BufferUsageFlags(vk.BufferUsageShaderDeviceAddressBit) |
		vk.BufferUsageFlags(vk.BufferUsageAccelerationStructureBuildInputReadOnlyBit)
	storageUsage := vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

	prefix := changeFrequencyName(isDynamic)

	vert, err := initBuffer(allocator, bufferSize, transferUsage|storageUsage|addressUsage, deviceLocal, prefix+" Vertices data buffer")
	if err != nil {
		return nil, err
	}
	index, err := initBuffer(allocator, IndexBufferSize, transferUsage|storageUsage|addressUsage, deviceLocal, prefix+" Index data buffer")
	if err != nil {
		vert.Destroy()
		return nil, err
	}
	transforms, err := initBuffer(allocator, TransformBufferSize, transferUsage|addressUsage, deviceLocal, prefix+" BLAS transforms buffer")
	if err != nil {
		vert.Destroy()
		index.Destroy()
		return nil, err
	}

	c.vertBuffer = newSharedBuffer(vert)
	c.indexBuffer = newSharedBuffer(index)
	c.transformsBuffer = newSharedBuffer(transforms)

	if err := c.initStagingBuffers(allocator); err != nil {
		c.releaseDeviceBuffers()
		return nil, err
	}
	c.initFilters(filters)

	core.LogDebug("Collector %s created with filters %s", c.ID, filters)
	return c, nil
}

/**
 * @brief Creates a collector sharing the device local buffers of src, with its
 * own staging buffers, counters and filter groups.
 */
func NewCollectorSharing(src *Collector, allocator gpu.MemoryAllocator) (*Collector, error) {
	if src == nil || src.vertBuffer == nil {
		panic("collector: sharing buffers of a destroyed collector")
	}

	c := newCollector(src.registry, src.filtersFlags)
	c.vertBuffer = src.vertBuffer.acquire()
	c.indexBuffer = src.indexBuffer.acquire()
	c.transformsBuffer = src.transformsBuffer.acquire()

	if err := c.initStagingBuffers(allocator); err != nil {
		c.releaseDeviceBuffers()
		return nil, err
	}
	c.initFilters(c.filtersFlags)

	core.LogDebug("Collector %s shares device buffers of %s", c.ID, src.ID)
	return c, nil
}

func newCollector(registry GeomInfoRegistry, filters FilterTypeFlags) *Collector {
	return &Collector{
		ID:                    uuid.New(),
		filtersFlags:          filters,
		registry:              registry,
		maxStaticVertexCount:  metadata.MAX_STATIC_VERTEX_COUNT,
		maxDynamicVertexCount: metadata.MAX_DYNAMIC_VERTEX_COUNT,
	}
}

func changeFrequencyName(isDynamic bool) string {
	if isDynamic {
		return "Dynamic"
	}
	return "Static"
}

func initBuffer(allocator gpu.MemoryAllocator, size uint64, usage vk.BufferUsageFlags, memory vk.MemoryPropertyFlags, debugName string) (gpu.Buffer, error) {
	b := allocator.NewBuffer()
	if err := b.Init(allocator, size, usage, memory, debugName); err != nil {
		err = fmt.Errorf("failed to create %s: %w", debugName, err)
		core.LogError(err.Error())
		return nil, err
	}
	return b, nil
}

func (c *Collector) initStagingBuffers(allocator gpu.MemoryAllocator) error {
	// device local buffers must not be empty
	for _, b := range []*sharedBuffer{c.vertBuffer, c.indexBuffer, c.transformsBuffer} {
		if b == nil || b.GetSize() == 0 {
			panic("collector: empty device local buffer")
		}
	}

	usage := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit)
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	prefix := changeFrequencyName(c.filtersFlags.IsDynamic())

	specs := []struct {
		size   uint64
		name   string
		buffer *gpu.Buffer
		mapped *[]byte
	}{
		{c.vertBuffer.GetSize(), prefix + " Vertices data staging buffer", &c.stagingVertBuffer, &c.mappedVertexData},
		{c.indexBuffer.GetSize(), prefix + " Index data staging buffer", &c.stagingIndexBuffer, &c.mappedIndexData},
		{c.transformsBuffer.GetSize(), prefix + " BLAS transforms staging buffer", &c.stagingTransformsBuffer, &c.mappedTransformData},
	}

	for _, s := range specs {
		b, err := initBuffer(allocator, s.size, usage, hostVisible, s.name)
		if err != nil {
			c.destroyStagingBuffers()
			return err
		}
		*s.buffer = b

		data, err := b.Map()
		if err != nil {
			err = fmt.Errorf("failed to map %s: %w", s.name, err)
			core.LogError(err.Error())
			c.destroyStagingBuffers()
			return err
		}
		*s.mapped = data
	}
	return nil
}

// initFilters creates a group for every legal combination contained in flags.
func (c *Collector) initFilters(flags FilterTypeFlags) {
	for _, f := range allFilterGroups {
		if flags&f == f {
			c.AddFilter(f)
		}
	}
}

/**
 * @brief Creates the group for an exact flag combination. Zero is ignored;
 * an illegal or already existing combination panics.
 */
func (c *Collector) AddFilter(flags FilterTypeFlags) {
	if flags == 0 {
		return
	}
	slot := flags.mustSlot()
	if c.filters[slot] != nil {
		panic(fmt.Sprintf("collector: filter group %s already exists", flags))
	}
	c.filters[slot] = newFilter(flags)
}

func (c *Collector) group(flags FilterTypeFlags) *filter {
	f := c.filters[flags.mustSlot()]
	if f == nil {
		panic(fmt.Sprintf("collector: filter group %s was not created, collector filters are %s", flags, c.filtersFlags))
	}
	return f
}

func (c *Collector) HasFilter(flags FilterTypeFlags) bool {
	slot, ok := flags.Slot()
	return ok && c.filters[slot] != nil
}

/**
 * @brief Stages a primitive and registers its build input.
 *
 * On any error nothing is changed: counters, staging memory, filter groups
 * and the registry keep their previous state. Capacity errors wrap
 * core.ErrCapacityExceeded.
 */
func (c *Collector) AddPrimitive(frameIndex uint32, parentMesh *MeshInfo, info *PrimitiveInfo, layerTextures *[LayerCount]MaterialTextures, layerColors *[LayerCount]uint32) error {
	if info.VertexCount() == 0 {
		err := fmt.Errorf("%w: primitive %d of object %d has no vertices", core.ErrInvalidPrimitive, info.PrimitiveIndexInMesh, parentMesh.UniqueObjectID)
		core.LogError(err.Error())
		return err
	}

	geomFlags := FilterFlagsForGeometry(parentMesh, info)
	group := c.group(geomFlags)

	// if exceeds a limit of geometries in a group with specified geomFlags
	if limit := AmountInGlobalArray(geomFlags); group.geometryCount()+1 >= limit {
		core.LogError("Too many geometries in a group (%s). Limit is %d", geomFlags, limit)
		return fmt.Errorf("%w: group %s, limit %d", core.ErrGroupLimit, geomFlags, limit)
	}

	collectStatic := geomFlags.IsStatic()
	maxVertexCount := c.maxDynamicVertexCount
	if collectStatic {
		maxVertexCount = c.maxStaticVertexCount
	}

	vertIndex := math.AlignUp(c.curVertexCount, 3)
	indIndex := math.AlignUp(c.curIndexCount, 3)
	transformIndex := c.curTransformCount

	useIndices := info.UsesIndices()
	triangleCount := info.TriangleCount()

	newVertexCount := vertIndex + info.VertexCount()
	newIndexCount := indIndex
	if useIndices {
		newIndexCount += info.IndexCount()
	}

	// check bounds
	if newVertexCount >= maxVertexCount {
		core.LogError("Too many %s vertices: the limit is %d", changeFrequencyAdjective(collectStatic), maxVertexCount)
		return fmt.Errorf("%w: %d", core.ErrVertexLimit, maxVertexCount)
	}
	if uint64(newVertexCount)*vertexSize > uint64(len(c.mappedVertexData)) {
		core.LogError("Too many %s vertices: the vertex buffer holds %d", changeFrequencyAdjective(collectStatic), uint64(len(c.mappedVertexData))/vertexSize)
		return fmt.Errorf("%w: buffer of %d bytes", core.ErrVertexLimit, len(c.mappedVertexData))
	}
	if newIndexCount >= metadata.MAX_INDEXED_PRIMITIVE_COUNT*3 {
		core.LogError("Too many indices: the limit is %d", metadata.MAX_INDEXED_PRIMITIVE_COUNT*3)
		return fmt.Errorf("%w: %d", core.ErrIndexLimit, metadata.MAX_INDEXED_PRIMITIVE_COUNT*3)
	}
	if uint64(transformIndex+1)*transformSize > uint64(len(c.mappedTransformData)) {
		core.LogError("Too many transforms: the limit is %d", metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT)
		return fmt.Errorf("%w: %d", core.ErrTransformLimit, metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT)
	}
	if c.registry.GetCount(frameIndex)+1 >= metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT {
		core.LogError("Too many geometry infos: the limit is %d", metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT)
		return fmt.Errorf("%w: %d", core.ErrGeomInfoLimit, metadata.MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT)
	}

	c.curVertexCount = newVertexCount
	c.curIndexCount = newIndexCount
	c.curPrimitiveCount += triangleCount
	c.curTransformCount++

	// copy data to buffers
	copy(c.mappedVertexData[uint64(vertIndex)*vertexSize:], vertexBytes(info.Vertices))
	if useIndices {
		copy(c.mappedIndexData[uint64(indIndex)*indexSize:], indexBytes(info.Indices))
	}
	copy(c.mappedTransformData[uint64(transformIndex)*transformSize:], transformBytes(&info.Transform))

	geom := ASGeometry{
		GeometryType: GeometryTypeTriangles,
		Flags:        GeometryNoDuplicateAnyHitInvocationBit,
		Triangles: ASTrianglesData{
			VertexFormat:  vk.FormatR32g32b32Sfloat,
			VertexData:    c.vertBuffer.GetAddress() + uint64(vertIndex)*vertexSize + positionOffset,
			VertexStride:  vertexSize,
			MaxVertex:     info.VertexCount(),
			IndexType:     vk.IndexTypeNone,
			TransformData: c.transformsBuffer.GetAddress() + uint64(transformIndex)*transformSize,
		},
	}
	if geomFlags&PT_OPAQUE != 0 {
		geom.Flags = GeometryOpaqueBit
	}
	if useIndices {
		geom.Triangles.IndexType = vk.IndexTypeUint32
		geom.Triangles.IndexData = c.indexBuffer.GetAddress() + uint64(indIndex)*indexSize
	}

	localIndex := group.pushGeometry(geomFlags, geom)
	group.pushRangeInfo(geomFlags, ASBuildRangeInfo{PrimitiveCount: triangleCount})
	group.pushPrimitiveCount(geomFlags, triangleCount)

	geomInfo := c.makeGeomInfo(geomFlags, info, layerTextures, layerColors, vertIndex, indIndex)

	// global geometry index: for indexing in the geometry infos buffer
	// local geometry index: index of the geometry in its BLAS
	c.registry.WriteGeomInfo(frameIndex, MakeUniqueID(parentMesh, info), localIndex, geomFlags, geomInfo)
	return nil
}

func changeFrequencyAdjective(collectStatic bool) string {
	if collectStatic {
		return "static"
	}
	return "dynamic"
}

func (c *Collector) makeGeomInfo(geomFlags FilterTypeFlags, info *PrimitiveInfo, layerTextures *[LayerCount]MaterialTextures, layerColors *[LayerCount]uint32, vertIndex, indIndex uint32) *metadata.ShGeometryInstance {
	var textures [LayerCount]MaterialTextures
	if layerTextures != nil {
		textures = *layerTextures
	}
	colors := [LayerCount]uint32{ColorWhite, ColorWhite, ColorWhite, ColorWhite}
	if layerColors != nil {
		colors = *layerColors
	}

	flags := c.registry.GetPrimitiveFlags(info)
	for layer, bit := range [...]uint32{
		Layer1:        metadata.GEOM_INST_FLAG_EXISTS_LAYER1,
		Layer2:        metadata.GEOM_INST_FLAG_EXISTS_LAYER2,
		LayerLightmap: metadata.GEOM_INST_FLAG_EXISTS_LAYER3,
	} {
		if bit != 0 && textures[layer].Indices[0] != metadata.MATERIAL_NO_TEXTURE {
			flags |= bit
		}
	}
	if geomFlags&CF_STATIC_MOVABLE != 0 {
		flags |= metadata.GEOM_INST_FLAG_IS_MOVABLE
	}

	baseIndexIndex, indexCount := metadata.GEOM_INST_NO_TRIANGLE_INFO, metadata.GEOM_INST_NO_TRIANGLE_INFO
	if info.UsesIndices() {
		baseIndexIndex, indexCount = indIndex, info.IndexCount()
	}

	return &metadata.ShGeometryInstance{
		Model: info.Transform.ToMat4().Data,
		// PrevModel and PrevBase* are filled by the registry
		Flags: flags,

		TextureBase:    textures[LayerBase].Indices[0],
		TextureBaseORM: textures[LayerBase].Indices[1],
		TextureBaseN:   textures[LayerBase].Indices[2],

		TextureLayer1:   textures[Layer1].Indices[0],
		TextureLayer2:   textures[Layer2].Indices[0],
		TextureLightmap: textures[LayerLightmap].Indices[0],

		ColorFactorBase:     colors[LayerBase],
		ColorFactorLayer1:   colors[Layer1],
		ColorFactorLayer2:   colors[Layer2],
		ColorFactorLightmap: colors[LayerLightmap],

		BaseVertexIndex: vertIndex,
		BaseIndexIndex:  baseIndexIndex,
		VertexCount:     info.VertexCount(),
		IndexCount:      indexCount,

		RoughnessDefault: 1,
		MetallicDefault:  0,
		EmissiveMult:     math.Clamp(info.Emissive, 0, 1),
	}
}

/**
 * @brief Clears the counters and every filter group. Buffers are kept, the
 * next frame overwrites them from the start.
 */
func (c *Collector) Reset() {
	c.curVertexCount = 0
	c.curIndexCount = 0
	c.curPrimitiveCount = 0
	c.curTransformCount = 0

	for _, f := range c.filters {
		if f != nil {
			f.reset()
		}
	}
}

func (c *Collector) PushGeometry(flags FilterTypeFlags, geom ASGeometry) uint32 {
	return c.group(flags).pushGeometry(flags, geom)
}

func (c *Collector) PushRangeInfo(flags FilterTypeFlags, rangeInfo ASBuildRangeInfo) {
	c.group(flags).pushRangeInfo(flags, rangeInfo)
}

func (c *Collector) PushPrimitiveCount(flags FilterTypeFlags, primCount uint32) {
	c.group(flags).pushPrimitiveCount(flags, primCount)
}

func (c *Collector) GetGeometryCount(flags FilterTypeFlags) uint32 {
	return c.group(flags).geometryCount()
}

func (c *Collector) GetAllGeometryCount() uint32 {
	var count uint32
	for _, f := range c.filters {
		if f != nil {
			count += f.geometryCount()
		}
	}
	return count
}

/**
 * @brief True if no group sharing a bit with flags holds a geometry.
 * flags may be a single bit or any combination.
 */
func (c *Collector) AreGeometriesEmpty(flags FilterTypeFlags) bool {
	for _, f := range c.filters {
		if f != nil && f.flags&flags != 0 && f.geometryCount() > 0 {
			return false
		}
	}
	return true
}

func (c *Collector) GetASGeometries(flags FilterTypeFlags) []ASGeometry {
	return c.group(flags).geometries
}

func (c *Collector) GetASBuildRangeInfos(flags FilterTypeFlags) []ASBuildRangeInfo {
	return c.group(flags).rangeInfos
}

func (c *Collector) GetPrimitiveCounts(flags FilterTypeFlags) []uint32 {
	return c.group(flags).primitiveCounts
}

func (c *Collector) GetFilters() FilterTypeFlags {
	return c.filtersFlags
}

func (c *Collector) GetVertexBuffer() gpu.Buffer {
	return c.vertBuffer.Buffer
}

func (c *Collector) GetIndexBuffer() gpu.Buffer {
	return c.indexBuffer.Buffer
}

func (c *Collector) GetTransformsBuffer() gpu.Buffer {
	return c.transformsBuffer.Buffer
}

func (c *Collector) GetCurrentVertexCount() uint32 {
	return c.curVertexCount
}

func (c *Collector) GetCurrentIndexCount() uint32 {
	return c.curIndexCount
}

func (c *Collector) GetCurrentPrimitiveCount() uint32 {
	return c.curPrimitiveCount
}

func (c *Collector) GetCurrentTransformCount() uint32 {
	return c.curTransformCount
}

/**
 * @brief Unmaps and destroys the staging buffers and releases the device
 * local buffers. Must not be called while recorded copies are pending.
 */
func (c *Collector) Destroy() {
	if c.vertBuffer == nil {
		return
	}
	c.destroyStagingBuffers()
	c.releaseDeviceBuffers()
	core.LogDebug("Collector %s destroyed", c.ID)
}

func (c *Collector) destroyStagingBuffers() {
	for _, b := range []*gpu.Buffer{&c.stagingVertBuffer, &c.stagingIndexBuffer, &c.stagingTransformsBuffer} {
		if *b == nil {
			continue
		}
		(*b).TryUnmap()
		(*b).Destroy()
		*b = nil
	}
	c.mappedVertexData = nil
	c.mappedIndexData = nil
	c.mappedTransformData = nil
}

func (c *Collector) releaseDeviceBuffers() {
	for _, b := range []**sharedBuffer{&c.vertBuffer, &c.indexBuffer, &c.transformsBuffer} {
		if *b == nil {
			continue
		}
		(*b).release()
		*b = nil
	}
}

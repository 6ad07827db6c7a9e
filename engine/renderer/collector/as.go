package collector

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rtgeom/engine/renderer/gpu"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

// Acceleration structure build input, mirroring the VK_KHR_acceleration_structure
// structures field for field. The bindings lack the geometry type and flags,
// their values are the Vulkan ones.

type GeometryType uint32

const GeometryTypeTriangles GeometryType = 0

type GeometryFlags uint32

const (
	GeometryOpaqueBit                      GeometryFlags = 0x1
	GeometryNoDuplicateAnyHitInvocationBit GeometryFlags = 0x2
)

/**
 * @brief Triangle data of one geometry, referenced by device address.
 */
type ASTrianglesData struct {
	VertexFormat  vk.Format
	VertexData    gpu.DeviceAddress
	VertexStride  uint64
	MaxVertex     uint32
	IndexType     vk.IndexType
	IndexData     gpu.DeviceAddress
	TransformData gpu.DeviceAddress
}

type ASGeometry struct {
	GeometryType GeometryType
	Flags        GeometryFlags
	Triangles    ASTrianglesData
}

type ASBuildRangeInfo struct {
	PrimitiveCount  uint32
	PrimitiveOffset uint32
	FirstVertex     uint32
	TransformOffset uint32
}

/**
 * @brief Geometry info registry the collector reports every accepted primitive to.
 */
type GeomInfoRegistry interface {
	// GetCount returns the number of geometry infos written for a frame.
	GetCount(frameIndex uint32) uint32
	WriteGeomInfo(frameIndex uint32, uniqueID PrimitiveUniqueID, localIndex uint32, flags FilterTypeFlags, info *metadata.ShGeometryInstance)
	GetPrimitiveFlags(primitive *PrimitiveInfo) uint32
}

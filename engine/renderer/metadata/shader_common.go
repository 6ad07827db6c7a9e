package metadata

// Values shared with the shader side. They must match the GLSL definitions
// bit for bit.

const (
	MAX_STATIC_VERTEX_COUNT               uint32 = 1048576
	MAX_DYNAMIC_VERTEX_COUNT              uint32 = 2097152
	MAX_INDEXED_PRIMITIVE_COUNT           uint32 = 1048576
	MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT     uint32 = 4096
	MAX_BOTTOM_LEVEL_GEOMETRIES_COUNT_POW uint32 = 12
	MAX_GEOMETRY_PRIMITIVE_COUNT          uint32 = 1048576
	MAX_GEOMETRY_PRIMITIVE_COUNT_POW      uint32 = 20
	LOWER_BOTTOM_LEVEL_GEOMETRIES_COUNT   uint32 = 256
	MAX_TOP_LEVEL_INSTANCE_COUNT          uint32 = 45
)

const (
	BINDING_VERTEX_BUFFER_STATIC          uint32 = 0
	BINDING_VERTEX_BUFFER_DYNAMIC         uint32 = 1
	BINDING_INDEX_BUFFER_STATIC           uint32 = 2
	BINDING_INDEX_BUFFER_DYNAMIC          uint32 = 3
	BINDING_GEOMETRY_INSTANCES            uint32 = 4
	BINDING_GEOMETRY_INSTANCES_MATCH_PREV uint32 = 5
	BINDING_PREV_POSITIONS_BUFFER_DYNAMIC uint32 = 6
	BINDING_PREV_INDEX_BUFFER_DYNAMIC     uint32 = 7
)

const (
	INSTANCE_MASK_WORLD_0             uint32 = 1 << 0
	INSTANCE_MASK_WORLD_1             uint32 = 1 << 1
	INSTANCE_MASK_WORLD_2             uint32 = 1 << 2
	INSTANCE_MASK_RESERVED_0          uint32 = 1 << 3
	INSTANCE_MASK_RESERVED_1          uint32 = 1 << 4
	INSTANCE_MASK_REFRACT             uint32 = 1 << 5
	INSTANCE_MASK_FIRST_PERSON        uint32 = 1 << 6
	INSTANCE_MASK_FIRST_PERSON_VIEWER uint32 = 1 << 7
)

const MATERIAL_NO_TEXTURE uint32 = 0

const (
	GEOM_INST_FLAG_EXISTS_LAYER1         uint32 = 1 << 15
	GEOM_INST_FLAG_EXISTS_LAYER2         uint32 = 1 << 16
	GEOM_INST_FLAG_EXISTS_LAYER3         uint32 = 1 << 17
	GEOM_INST_FLAG_MEDIA_TYPE_ACID       uint32 = 1 << 18
	GEOM_INST_FLAG_EXACT_NORMALS         uint32 = 1 << 19
	GEOM_INST_FLAG_IGNORE_REFRACT_AFTER  uint32 = 1 << 20
	GEOM_INST_FLAG_REFL_REFR_ALBEDO_MULT uint32 = 1 << 21
	GEOM_INST_FLAG_REFL_REFR_ALBEDO_ADD  uint32 = 1 << 22
	GEOM_INST_FLAG_NO_MEDIA_CHANGE       uint32 = 1 << 23
	GEOM_INST_FLAG_REFRACT               uint32 = 1 << 24
	GEOM_INST_FLAG_REFLECT               uint32 = 1 << 25
	GEOM_INST_FLAG_PORTAL                uint32 = 1 << 26
	GEOM_INST_FLAG_MEDIA_TYPE_WATER      uint32 = 1 << 27
	GEOM_INST_FLAG_MEDIA_TYPE_GLASS      uint32 = 1 << 28
	GEOM_INST_FLAG_GENERATE_NORMALS      uint32 = 1 << 29
	GEOM_INST_FLAG_INVERTED_NORMALS      uint32 = 1 << 30
	GEOM_INST_FLAG_IS_MOVABLE            uint32 = 1 << 31
)

const (
	MEDIA_TYPE_VACUUM uint32 = 0
	MEDIA_TYPE_WATER  uint32 = 1
	MEDIA_TYPE_GLASS  uint32 = 2
	MEDIA_TYPE_ACID   uint32 = 3
	MEDIA_TYPE_COUNT  uint32 = 4
)

// GEOM_INST_NO_TRIANGLE_INFO marks absent index data and unmatched
// previous-frame geometry.
const GEOM_INST_NO_TRIANGLE_INFO uint32 = ^uint32(0)

/**
 * @brief Vertex as stored in the static/dynamic vertex buffers.
 */
type ShVertex struct {
	Position [4]float32
	Normal   [4]float32
	Tangent  [4]float32
	TexCoord [2]float32
	Color    uint32
	Padding  uint32
}

// ShVertexSize is the stride of the vertex buffers.
const ShVertexSize uint64 = 64

/**
 * @brief Per-geometry data read by the ray tracing shaders.
 */
type ShGeometryInstance struct {
	Model     [16]float32
	PrevModel [16]float32

	Flags uint32

	TextureBase    uint32
	TextureBaseORM uint32
	TextureBaseN   uint32
	TextureBaseE   uint32

	TextureLayer1   uint32
	TextureLayer2   uint32
	TextureLightmap uint32

	ColorFactorBase     uint32
	ColorFactorLayer1   uint32
	ColorFactorLayer2   uint32
	ColorFactorLightmap uint32

	BaseVertexIndex     uint32
	BaseIndexIndex      uint32
	PrevBaseVertexIndex uint32
	PrevBaseIndexIndex  uint32
	VertexCount         uint32
	IndexCount          uint32

	RoughnessDefault float32
	MetallicDefault  float32
	EmissiveMult     float32

	FirstVertexLayer1 uint32
	FirstVertexLayer2 uint32
	FirstVertexLayer3 uint32

	Unused [8]uint32
}

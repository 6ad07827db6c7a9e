package collector

import (
	"unsafe"

	"github.com/spaghettifunk/rtgeom/engine/math"
	"github.com/spaghettifunk/rtgeom/engine/renderer/metadata"
)

type MeshVisibility uint32

const (
	VisibilityWorld0 MeshVisibility = iota
	VisibilityWorld1
	VisibilityWorld2
	VisibilityFirstPerson
	VisibilityFirstPersonViewer
)

/**
 * @brief The object a primitive belongs to.
 */
type MeshInfo struct {
	UniqueObjectID uint64
	// IsStatic meshes are uploaded once and kept across frames.
	IsStatic bool
	// IsMovable static meshes may change their transform.
	IsMovable  bool
	Visibility MeshVisibility
}

type PrimitiveFlags uint32

const (
	PRIMITIVE_ALPHA_TESTED PrimitiveFlags = 1 << iota
	PRIMITIVE_REFLECT
	PRIMITIVE_REFRACT
	PRIMITIVE_PORTAL
	PRIMITIVE_WATER
	PRIMITIVE_GLASS
	PRIMITIVE_ACID
	PRIMITIVE_NO_MEDIA_CHANGE
	PRIMITIVE_IGNORE_REFRACT_AFTER
	PRIMITIVE_EXACT_NORMALS
	PRIMITIVE_GENERATE_NORMALS
	PRIMITIVE_INVERTED_NORMALS
	PRIMITIVE_ALBEDO_MULT
	PRIMITIVE_ALBEDO_ADD
)

/**
 * @brief Vertex as submitted by the application. It is copied byte for byte
 * into the vertex buffers, so its layout is the one of metadata.ShVertex.
 */
type PrimitiveVertex struct {
	Position [3]float32
	_        float32
	Normal   [3]float32
	_        float32
	Tangent  [4]float32
	TexCoord [2]float32
	Color    uint32
	_        uint32
}

var (
	_ = [1]struct{}{}[unsafe.Sizeof(PrimitiveVertex{})-unsafe.Sizeof(metadata.ShVertex{})]
	_ = [1]struct{}{}[unsafe.Offsetof(PrimitiveVertex{}.Position)-unsafe.Offsetof(metadata.ShVertex{}.Position)]
	_ = [1]struct{}{}[unsafe.Offsetof(PrimitiveVertex{}.Normal)-unsafe.Offsetof(metadata.ShVertex{}.Normal)]
	_ = [1]struct{}{}[unsafe.Offsetof(PrimitiveVertex{}.Tangent)-unsafe.Offsetof(metadata.ShVertex{}.Tangent)]
	_ = [1]struct{}{}[unsafe.Offsetof(PrimitiveVertex{}.TexCoord)-unsafe.Offsetof(metadata.ShVertex{}.TexCoord)]
	_ = [1]struct{}{}[unsafe.Offsetof(PrimitiveVertex{}.Color)-unsafe.Offsetof(metadata.ShVertex{}.Color)]
	_ = [1]struct{}{}[unsafe.Sizeof(math.Transform{})-math.TransformSize]
)

const (
	vertexSize    = uint64(unsafe.Sizeof(metadata.ShVertex{}))
	indexSize     = uint64(unsafe.Sizeof(uint32(0)))
	transformSize = uint64(math.TransformSize)

	positionOffset = uint64(unsafe.Offsetof(metadata.ShVertex{}.Position))
)

/**
 * @brief One mesh primitive. Its content is copied during AddPrimitive and
 * not referenced afterwards.
 */
type PrimitiveInfo struct {
	PrimitiveIndexInMesh uint32
	Flags                PrimitiveFlags

	Vertices []PrimitiveVertex
	// Indices may be empty, the primitive is then a triangle list over Vertices.
	Indices []uint32

	Transform math.Transform
	Emissive  float32
}

func (p *PrimitiveInfo) VertexCount() uint32 {
	return uint32(len(p.Vertices))
}

func (p *PrimitiveInfo) IndexCount() uint32 {
	return uint32(len(p.Indices))
}

func (p *PrimitiveInfo) UsesIndices() bool {
	return len(p.Indices) != 0
}

// TriangleCount counts whole triangles only.
func (p *PrimitiveInfo) TriangleCount() uint32 {
	if p.UsesIndices() {
		return p.IndexCount() / 3
	}
	return p.VertexCount() / 3
}

/**
 * @brief Texture indices of one material layer. The base layer uses all four
 * (albedo-alpha, occlusion-roughness-metallic, normal, emissive), the other
 * layers only the first one.
 */
type MaterialTextures struct {
	Indices [4]uint32
}

const (
	LayerBase = iota
	Layer1
	Layer2
	LayerLightmap
	LayerCount
)

// PackColor packs an 8-bit per channel RGBA color the way shaders unpack it.
func PackColor(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

var ColorWhite = PackColor(255, 255, 255, 255)

// vertexBytes views the vertices as raw memory.
func vertexBytes(v []PrimitiveVertex) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), uint64(len(v))*vertexSize)
}

func indexBytes(i []uint32) []byte {
	if len(i) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&i[0])), uint64(len(i))*indexSize)
}

func transformBytes(t *math.Transform) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(t)), transformSize)
}

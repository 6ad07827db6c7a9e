package systems

import (
	"github.com/spaghettifunk/rtgeom/engine/core"
	"github.com/spaghettifunk/rtgeom/engine/math"
	"github.com/spaghettifunk/rtgeom/engine/renderer/collector"
)

/**
 * @brief Generates a plane in the XY plane facing +Z, centered on the origin.
 * @param width The overall width of the plane. Must be non-zero.
 * @param height The overall height of the plane. Must be non-zero.
 * @param xSegmentCount The number of segments along the x-axis. Must be non-zero.
 * @param ySegmentCount The number of segments along the y-axis. Must be non-zero.
 * @param tileX The number of times the texture should tile across the plane on the x-axis.
 * @param tileY The number of times the texture should tile across the plane on the y-axis.
 * @return An indexed primitive with an identity transform.
 */
func GeneratePlane(width, height float32, xSegmentCount, ySegmentCount uint32, tileX, tileY float32) *collector.PrimitiveInfo {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if xSegmentCount < 1 {
		core.LogWarn("xSegmentCount must be a positive number. Defaulting to one.")
		xSegmentCount = 1
	}
	if ySegmentCount < 1 {
		core.LogWarn("ySegmentCount must be a positive number. Defaulting to one.")
		ySegmentCount = 1
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	segments := xSegmentCount * ySegmentCount
	info := &collector.PrimitiveInfo{
		Vertices:  make([]collector.PrimitiveVertex, segments*4), // 4 verts per segment
		Indices:   make([]uint32, segments*6),                    // 6 indices per segment
		Transform: math.NewTransformIdentity(),
	}

	// TODO: adjacent segments duplicate their shared vertices, deduplicate them.
	segWidth := width / float32(xSegmentCount)
	segHeight := height / float32(ySegmentCount)
	halfWidth := width * 0.5
	halfHeight := height * 0.5
	for y := uint32(0); y < ySegmentCount; y++ {
		for x := uint32(0); x < xSegmentCount; x++ {
			minX := (float32(x) * segWidth) - halfWidth
			minY := (float32(y) * segHeight) - halfHeight
			maxX := minX + segWidth
			maxY := minY + segHeight
			minUVX := (float32(x) / float32(xSegmentCount)) * tileX
			minUVY := (float32(y) / float32(ySegmentCount)) * tileY
			maxUVX := (float32(x+1) / float32(xSegmentCount)) * tileX
			maxUVY := (float32(y+1) / float32(ySegmentCount)) * tileY

			vOffset := ((y * xSegmentCount) + x) * 4
			info.Vertices[vOffset+0] = planeVertex(minX, minY, minUVX, minUVY)
			info.Vertices[vOffset+1] = planeVertex(maxX, maxY, maxUVX, maxUVY)
			info.Vertices[vOffset+2] = planeVertex(minX, maxY, minUVX, maxUVY)
			info.Vertices[vOffset+3] = planeVertex(maxX, minY, maxUVX, minUVY)

			iOffset := ((y * xSegmentCount) + x) * 6
			info.Indices[iOffset+0] = vOffset + 0
			info.Indices[iOffset+1] = vOffset + 1
			info.Indices[iOffset+2] = vOffset + 2
			info.Indices[iOffset+3] = vOffset + 0
			info.Indices[iOffset+4] = vOffset + 3
			info.Indices[iOffset+5] = vOffset + 1
		}
	}
	return info
}

func planeVertex(x, y, u, v float32) collector.PrimitiveVertex {
	return collector.PrimitiveVertex{
		Position: [3]float32{x, y, 0},
		Normal:   [3]float32{0, 0, 1},
		Tangent:  [4]float32{1, 0, 0, 1},
		TexCoord: [2]float32{u, v},
		Color:    collector.ColorWhite,
	}
}

type cubeFace struct {
	normal  [3]float32
	tangent [4]float32
	// corners in the order min-min, max-max, min-max, max-min of the face's UV space
	corners [4][3]float32
}

/**
 * @brief Generates a box centered on the origin, 4 vertices per face so each
 * face gets its own normal.
 */
func GenerateCube(width, height, depth, tileX, tileY float32) *collector.PrimitiveInfo {
	if width == 0 {
		core.LogWarn("Width must be nonzero. Defaulting to one.")
		width = 1.0
	}
	if height == 0 {
		core.LogWarn("Height must be nonzero. Defaulting to one.")
		height = 1.0
	}
	if depth == 0 {
		core.LogWarn("Depth must be nonzero. Defaulting to one.")
		depth = 1.0
	}
	if tileX == 0 {
		core.LogWarn("tileX must be nonzero. Defaulting to one.")
		tileX = 1.0
	}
	if tileY == 0 {
		core.LogWarn("tileY must be nonzero. Defaulting to one.")
		tileY = 1.0
	}

	hw := width * 0.5
	hh := height * 0.5
	hd := depth * 0.5

	faces := [6]cubeFace{
		// front
		{[3]float32{0, 0, 1}, [4]float32{1, 0, 0, 1}, [4][3]float32{{-hw, -hh, hd}, {hw, hh, hd}, {-hw, hh, hd}, {hw, -hh, hd}}},
		// back
		{[3]float32{0, 0, -1}, [4]float32{-1, 0, 0, 1}, [4][3]float32{{hw, -hh, -hd}, {-hw, hh, -hd}, {hw, hh, -hd}, {-hw, -hh, -hd}}},
		// left
		{[3]float32{-1, 0, 0}, [4]float32{0, 0, 1, 1}, [4][3]float32{{-hw, -hh, -hd}, {-hw, hh, hd}, {-hw, hh, -hd}, {-hw, -hh, hd}}},
		// right
		{[3]float32{1, 0, 0}, [4]float32{0, 0, -1, 1}, [4][3]float32{{hw, -hh, hd}, {hw, hh, -hd}, {hw, hh, hd}, {hw, -hh, -hd}}},
		// bottom
		{[3]float32{0, -1, 0}, [4]float32{1, 0, 0, 1}, [4][3]float32{{-hw, -hh, -hd}, {hw, -hh, hd}, {-hw, -hh, hd}, {hw, -hh, -hd}}},
		// top
		{[3]float32{0, 1, 0}, [4]float32{1, 0, 0, 1}, [4][3]float32{{-hw, hh, hd}, {hw, hh, -hd}, {-hw, hh, -hd}, {hw, hh, hd}}},
	}
	uvs := [4][2]float32{{0, 0}, {tileX, tileY}, {0, tileY}, {tileX, 0}}

	info := &collector.PrimitiveInfo{
		Vertices:  make([]collector.PrimitiveVertex, 0, 4*6),
		Indices:   make([]uint32, 0, 6*6),
		Transform: math.NewTransformIdentity(),
	}
	for i, f := range faces {
		for c := range f.corners {
			info.Vertices = append(info.Vertices, collector.PrimitiveVertex{
				Position: f.corners[c],
				Normal:   f.normal,
				Tangent:  f.tangent,
				TexCoord: uvs[c],
				Color:    collector.ColorWhite,
			})
		}
		v := uint32(i * 4)
		info.Indices = append(info.Indices, v+0, v+1, v+2, v+0, v+3, v+1)
	}
	return info
}

package math

// TransformSize is the byte size of a Transform as stored in GPU memory.
const TransformSize = 3 * 4 * 4

func NewTransformIdentity() Transform {
	return Transform{Matrix: [3][4]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}}
}

func NewTransformTranslation(position Vec3) Transform {
	t := NewTransformIdentity()
	t.Matrix[0][3] = position.X
	t.Matrix[1][3] = position.Y
	t.Matrix[2][3] = position.Z
	return t
}

func NewTransformScale(scale Vec3) Transform {
	t := NewTransformIdentity()
	t.Matrix[0][0] = scale.X
	t.Matrix[1][1] = scale.Y
	t.Matrix[2][2] = scale.Z
	return t
}

// Mul composes two transforms: the result applies other first, then t.
func (t Transform) Mul(other Transform) Transform {
	var r Transform
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			var v float32
			for k := 0; k < 3; k++ {
				v += t.Matrix[row][k] * other.Matrix[k][col]
			}
			if col == 3 {
				v += t.Matrix[row][3]
			}
			r.Matrix[row][col] = v
		}
	}
	return r
}

// Apply transforms a point.
func (t Transform) Apply(p Vec3) Vec3 {
	m := &t.Matrix
	return Vec3{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// ToMat4 expands the transform into a column-major 4x4 matrix.
func (t Transform) ToMat4() Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 3; row++ {
			out.Data[col*4+row] = t.Matrix[row][col]
		}
	}
	out.Data[15] = 1
	return out
}

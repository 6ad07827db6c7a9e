package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

/** @brief a 4x4 matrix, column-major as the shaders expect it. */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief A 3x4 row-major affine transform. Same memory layout as
 * VkTransformMatrixKHR, so it can be copied verbatim into a BLAS
 * transform buffer.
 */
type Transform struct {
	Matrix [3][4]float32
}

package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/**
 * @brief Represents the extents of a 3d object.
 */
type Extents3D struct {
	/** @brief The minimum extents of the object. */
	Min Vec3
	/** @brief The maximum extents of the object. */
	Max Vec3
}

/**
 * @brief Represents a rigid transform (plus scale) mapping a local space
 * into its parent space. Application order is scale, rotate, translate.
 */
type Transform struct {
	/** @brief The position in the parent space. */
	Position Vec3
	/** @brief The rotation in the parent space. */
	Rotation Quaternion
	/** @brief The scale in the parent space. */
	Scale Vec3
}

// Ray is a half line starting at Origin. Direction need not be normalized;
// hit distances are expressed in multiples of Direction.
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// Triangle is a single face of a triangle mesh.
type Triangle struct {
	A, B, C Vec3
}

package math

func TransformCreate() Transform {
	return TransformFromPositionRotationScale(NewVec3Zero(), NewQuatIdentity(), NewVec3One())
}

func TransformFromPosition(position Vec3) Transform {
	return TransformFromPositionRotationScale(position, NewQuatIdentity(), NewVec3One())
}

func TransformFromPositionRotation(position Vec3, rotation Quaternion) Transform {
	return TransformFromPositionRotationScale(position, rotation, NewVec3One())
}

func TransformFromPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
	}
}

// Apply maps a point from local space into parent space.
func (t Transform) Apply(point Vec3) Vec3 {
	return t.Rotation.Rotate(point.Mul(t.Scale)).Add(t.Position)
}

// ApplyDirection maps a direction from local space into parent space.
func (t Transform) ApplyDirection(dir Vec3) Vec3 {
	return t.Rotation.Rotate(dir.Mul(t.Scale))
}

// InverseApply maps a point from parent space into local space.
func (t Transform) InverseApply(point Vec3) Vec3 {
	return t.Rotation.Inverse().Rotate(point.Sub(t.Position)).Div(t.Scale)
}

// InverseApplyDirection maps a direction from parent space into local space.
func (t Transform) InverseApplyDirection(dir Vec3) Vec3 {
	return t.Rotation.Inverse().Rotate(dir).Div(t.Scale)
}

// Mul composes t with a child transform so that
// t.Mul(child).Apply(p) == t.Apply(child.Apply(p)) for uniform scales.
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Position: t.Apply(child.Position),
		Rotation: t.Rotation.Mul(child.Rotation).Normalize(),
		Scale:    t.Scale.Mul(child.Scale),
	}
}

// Compare reports whether both transforms are equal within tolerance.
func (t Transform) Compare(other Transform, tolerance float32) bool {
	return t.Position.Compare(other.Position, tolerance) &&
		t.Scale.Compare(other.Scale, tolerance) &&
		Vec4(t.Rotation).Compare(Vec4(other.Rotation), tolerance)
}

package math

// ExtentsFromPoints returns the axis aligned bounds of points.
func ExtentsFromPoints(points []Vec3) Extents3D {
	if len(points) == 0 {
		return Extents3D{}
	}
	ext := Extents3D{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		ext.Min = ext.Min.Min(p)
		ext.Max = ext.Max.Max(p)
	}
	return ext
}

func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).MulScalar(0.5)
}

// Normal returns the unit face normal following the A, B, C winding.
func (t Triangle) Normal() Vec3 {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)
	return edge1.Cross(edge2).Normalized()
}

// IsDegenerate reports whether the triangle has (almost) no area.
func (t Triangle) IsDegenerate() bool {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)
	return edge1.Cross(edge2).LengthSquared() <= K_FLOAT_EPSILON*K_FLOAT_EPSILON
}

// At returns the point reached after travelling distance along the ray.
func (r Ray) At(distance float32) Vec3 {
	return r.Origin.Add(r.Direction.MulScalar(distance))
}

// IntersectTriangle implements Möller–Trumbore. Both faces are hit.
// The returned distance is in multiples of r.Direction.
func (r Ray) IntersectTriangle(t Triangle) (float32, bool) {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if kabs(det) < K_FLOAT_EPSILON {
		// parallel to the triangle plane
		return 0, false
	}
	invDet := 1.0 / det

	s := r.Origin.Sub(t.A)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	distance := edge2.Dot(q) * invDet
	if distance < 0 {
		return 0, false
	}
	return distance, true
}

// IntersectSphere returns the nearest non-negative hit distance against a sphere.
func (r Ray) IntersectSphere(center Vec3, radius float32) (float32, bool) {
	oc := r.Origin.Sub(center)
	a := r.Direction.LengthSquared()
	if a == 0 {
		return 0, false
	}
	b := oc.Dot(r.Direction)
	c := oc.LengthSquared() - radius*radius
	disc := b*b - a*c
	if disc < 0 {
		return 0, false
	}
	sq := ksqrt(disc)
	near := (-b - sq) / a
	if near >= 0 {
		return near, true
	}
	// origin inside the sphere
	far := (-b + sq) / a
	if far >= 0 {
		return far, true
	}
	return 0, false
}

// IntersectExtents is a slab test used to reject shapes before testing faces.
func (r Ray) IntersectExtents(e Extents3D) bool {
	tmin, tmax := float32(0), K_INFINITY
	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{e.Min.X, e.Min.Y, e.Min.Z}
	hi := [3]float32{e.Max.X, e.Max.Y, e.Max.Z}
	for i := 0; i < 3; i++ {
		if kabs(dir[i]) < K_FLOAT_EPSILON {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}

package scene

import (
	"github.com/spaghettifunk/fusen/engine/math"
)

// Shape is collision geometry expressed in the owning entity's local space.
type Shape interface {
	Bounds() math.Extents3D
	// Raycast returns the nearest hit distance in multiples of ray.Direction.
	Raycast(ray math.Ray) (float32, bool)
}

// StaticMeshShape is an immovable triangle mesh, typically generated from a
// reconstructed surface patch.
type StaticMeshShape struct {
	Triangles []math.Triangle
	Extents   math.Extents3D
}

func (s *StaticMeshShape) Bounds() math.Extents3D {
	return s.Extents
}

func (s *StaticMeshShape) Raycast(ray math.Ray) (float32, bool) {
	if !ray.IntersectExtents(s.Extents) {
		return 0, false
	}
	nearest, found := math.K_INFINITY, false
	for _, tri := range s.Triangles {
		if d, ok := ray.IntersectTriangle(tri); ok && d < nearest {
			nearest, found = d, true
		}
	}
	return nearest, found
}

// SphereShape is centred on the local origin.
type SphereShape struct {
	Radius float32
}

func (s *SphereShape) Bounds() math.Extents3D {
	r := math.NewVec3(s.Radius, s.Radius, s.Radius)
	return math.Extents3D{Min: math.NewVec3Zero().Sub(r), Max: r}
}

func (s *SphereShape) Raycast(ray math.Ray) (float32, bool) {
	return ray.IntersectSphere(math.NewVec3Zero(), s.Radius)
}

package scene

import (
	"sync"

	"github.com/spaghettifunk/fusen/engine/math"
)

// Scene owns two disjoint roots: one for reconstructed mesh entities and one
// for user placed markers. Either root can be cleared without touching the
// other.
//
// Every mutation of entities attached to the scene runs inside Update, which
// serializes callers the way a single main thread would.
type Scene struct {
	mu            sync.Mutex
	meshRoot      *Entity
	placementRoot *Entity
}

func New() *Scene {
	return &Scene{
		meshRoot:      NewEntity("mesh-root"),
		placementRoot: NewEntity("placement-root"),
	}
}

// Update runs fn with exclusive access to the scene graph. fn must not call
// Update, Raycast or Resolve on the same scene.
func (s *Scene) Update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *Scene) MeshRoot() *Entity {
	return s.meshRoot
}

func (s *Scene) PlacementRoot() *Entity {
	return s.placementRoot
}

// SpatialTap is a tap gesture already projected into the world as a ray
// from the user's eye or hand through the tapped location.
type SpatialTap struct {
	Ray math.Ray
}

// Hit is the outcome of resolving a gesture against rendered geometry.
type Hit struct {
	// The struck entity. Nil when nothing was hit.
	Entity     *Entity
	WorldPoint math.Vec3
	Distance   float32
}

// Resolve hit tests tap against every input target in both roots.
func (s *Scene) Resolve(tap SpatialTap) (Hit, bool) {
	return s.Raycast(tap.Ray)
}

// Raycast returns the nearest input target struck by the world space ray.
func (s *Scene) Raycast(ray math.Ray) (Hit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Raycast(ray, s.meshRoot, s.placementRoot)
}

// Raycast walks the given trees and returns the nearest entity that is an
// enabled input target with collision shapes.
func Raycast(ray math.Ray, roots ...*Entity) (Hit, bool) {
	best := Hit{Distance: math.K_INFINITY}
	found := false
	for _, root := range roots {
		if root == nil {
			continue
		}
		raycastEntity(ray, root, root.WorldTransform(), &best, &found)
	}
	if !found {
		return Hit{}, false
	}
	best.WorldPoint = ray.At(best.Distance)
	return best, true
}

func raycastEntity(ray math.Ray, e *Entity, world math.Transform, best *Hit, found *bool) {
	if e.inputTarget != nil && e.inputTarget.Enabled && e.collision != nil {
		// an affine map keeps the ray parameter, so local distances compare directly
		local := math.Ray{
			Origin:    world.InverseApply(ray.Origin),
			Direction: world.InverseApplyDirection(ray.Direction),
		}
		for _, shape := range e.collision.Shapes {
			if d, ok := shape.Raycast(local); ok && d < best.Distance {
				best.Entity = e
				best.Distance = d
				*found = true
			}
		}
	}
	for _, c := range e.children {
		raycastEntity(ray, c, world.Mul(c.transform), best, found)
	}
}

package scene

import (
	"testing"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floorShape() *StaticMeshShape {
	tris := []math.Triangle{
		{A: math.NewVec3(-1, 0, -1), B: math.NewVec3(1, 0, -1), C: math.NewVec3(1, 0, 1)},
		{A: math.NewVec3(-1, 0, -1), B: math.NewVec3(1, 0, 1), C: math.NewVec3(-1, 0, 1)},
	}
	return &StaticMeshShape{
		Triangles: tris,
		Extents:   math.Extents3D{Min: math.NewVec3(-1, 0, -1), Max: math.NewVec3(1, 0, 1)},
	}
}

func TestEntityParenting(t *testing.T) {
	a := NewEntity("a")
	b := NewEntity("b")
	child := NewEntity("child")

	a.AddChild(child)
	assert.Equal(t, a, child.Parent())
	assert.Equal(t, 1, a.ChildCount())

	// reparenting detaches from the old parent
	b.AddChild(child)
	assert.Equal(t, b, child.Parent())
	assert.Equal(t, 0, a.ChildCount())
	assert.Equal(t, 1, b.ChildCount())

	child.RemoveFromParent()
	assert.Nil(t, child.Parent())
	assert.Equal(t, 0, b.ChildCount())

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestEntityRemoveAllChildren(t *testing.T) {
	root := NewEntity("root")
	for i := 0; i < 3; i++ {
		root.AddChild(NewEntity("c"))
	}
	detached := root.RemoveAllChildren()
	assert.Len(t, detached, 3)
	assert.Equal(t, 0, root.ChildCount())
	for _, c := range detached {
		assert.Nil(t, c.Parent())
	}
}

func TestWorldTransform(t *testing.T) {
	parent := NewEntity("parent")
	parent.SetTransform(math.TransformFromPosition(math.NewVec3(0, 1, 0)))
	child := NewEntity("child")
	child.SetTransform(math.TransformFromPosition(math.NewVec3(2, 0, 0)))
	parent.AddChild(child)

	got := child.WorldTransform().Position
	assert.True(t, got.Compare(math.NewVec3(2, 1, 0), 1e-5), "got %v", got)
}

func TestRaycastNearestInputTarget(t *testing.T) {
	s := New()

	low := NewEntity("low")
	low.SetAnchorID(uuid.New())
	low.SetCollision(&CollisionComponent{Shapes: []Shape{floorShape()}, IsStatic: true})
	low.SetInputTarget(NewInputTarget())

	high := NewEntity("high")
	high.SetTransform(math.TransformFromPosition(math.NewVec3(0, 1, 0)))
	high.SetCollision(&CollisionComponent{Shapes: []Shape{floorShape()}, IsStatic: true})
	high.SetInputTarget(NewInputTarget())

	// collidable but not an input target
	ghost := NewEntity("ghost")
	ghost.SetTransform(math.TransformFromPosition(math.NewVec3(0, 2, 0)))
	ghost.SetCollision(&CollisionComponent{Shapes: []Shape{floorShape()}})

	s.Update(func() {
		s.MeshRoot().AddChild(low)
		s.MeshRoot().AddChild(high)
		s.MeshRoot().AddChild(ghost)
	})

	hit, ok := s.Resolve(SpatialTap{Ray: math.Ray{Origin: math.NewVec3(0.2, 5, 0.1), Direction: math.NewVec3(0, -1, 0)}})
	require.True(t, ok)
	assert.Equal(t, high, hit.Entity)
	assert.True(t, hit.WorldPoint.Compare(math.NewVec3(0.2, 1, 0.1), 1e-4), "got %v", hit.WorldPoint)

	_, ok = s.Raycast(math.Ray{Origin: math.NewVec3(5, 5, 5), Direction: math.NewVec3(0, -1, 0)})
	assert.False(t, ok)
}

func TestRaycastSphereMarker(t *testing.T) {
	s := New()
	anchor := NewEntity("anchor")
	anchor.SetTransform(math.TransformFromPosition(math.NewVec3(0, 0, -2)))
	sphere := NewEntity("sphere")
	sphere.SetModel(&ModelComponent{Mesh: GenerateSphere(0.05)})
	sphere.GenerateCollisionShapes(true)
	sphere.SetInputTarget(NewInputTarget())
	anchor.AddChild(sphere)

	s.Update(func() { s.PlacementRoot().AddChild(anchor) })

	hit, ok := s.Raycast(math.Ray{Origin: math.NewVec3Zero(), Direction: math.NewVec3(0, 0, -1)})
	require.True(t, ok)
	assert.Equal(t, sphere, hit.Entity)
	assert.InDelta(t, 1.95, hit.Distance, 1e-4)
}

func TestSimpleMaterialClampsColor(t *testing.T) {
	m := NewSimpleMaterial(math.NewVec4(-1, 0.5, 2, 1), false)
	assert.Equal(t, math.NewVec4(0, 0.5, 1, 1), m.Color)
}

func TestStaticPhysicsBodyIsImmovable(t *testing.T) {
	body := &PhysicsBodyComponent{Mode: PhysicsBodyModeStatic}
	assert.Equal(t, math.K_INFINITY, body.Mass())
	assert.Equal(t, "static", body.Mode.String())
}

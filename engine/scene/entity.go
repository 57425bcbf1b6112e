package scene

import (
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/math"
)

// EntityID uniquely identifies an entity for the process lifetime.
type EntityID uint64

var lastEntityID atomic.Uint64

// Entity is a node of the scene graph. Entities are not safe for concurrent
// use; once attached to a Scene they must only be touched inside Scene.Update.
type Entity struct {
	id        EntityID
	Name      string
	anchorID  uuid.UUID
	transform math.Transform
	parent    *Entity
	children  []*Entity

	collision   *CollisionComponent
	physicsBody *PhysicsBodyComponent
	inputTarget *InputTargetComponent
	model       *ModelComponent
}

func NewEntity(name string) *Entity {
	return &Entity{
		id:        EntityID(lastEntityID.Add(1)),
		Name:      name,
		transform: math.TransformCreate(),
	}
}

func (e *Entity) ID() EntityID {
	return e.id
}

// AnchorID is the identity of the tracked anchor this entity mirrors, or
// uuid.Nil when the entity is not backed by an anchor.
func (e *Entity) AnchorID() uuid.UUID {
	return e.anchorID
}

func (e *Entity) SetAnchorID(id uuid.UUID) {
	e.anchorID = id
}

func (e *Entity) Transform() math.Transform {
	return e.transform
}

func (e *Entity) SetTransform(t math.Transform) {
	e.transform = t
}

// WorldTransform composes every ancestor transform with the entity's own.
func (e *Entity) WorldTransform() math.Transform {
	world := e.transform
	for p := e.parent; p != nil; p = p.parent {
		world = p.transform.Mul(world)
	}
	return world
}

func (e *Entity) Parent() *Entity {
	return e.parent
}

// Children returns a snapshot; detaching while iterating it is fine.
func (e *Entity) Children() []*Entity {
	return slices.Clone(e.children)
}

func (e *Entity) ChildCount() int {
	return len(e.children)
}

// AddChild attaches child under e, detaching it from any previous parent.
func (e *Entity) AddChild(child *Entity) {
	if child == nil || child == e || child.parent == e {
		return
	}
	child.RemoveFromParent()
	child.parent = e
	e.children = append(e.children, child)
}

func (e *Entity) RemoveFromParent() {
	if e.parent == nil {
		return
	}
	p := e.parent
	if i := slices.Index(p.children, e); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	e.parent = nil
}

// RemoveAllChildren detaches every direct child and returns them.
func (e *Entity) RemoveAllChildren() []*Entity {
	detached := e.children
	for _, c := range detached {
		c.parent = nil
	}
	e.children = nil
	return detached
}

func (e *Entity) Collision() *CollisionComponent {
	return e.collision
}

func (e *Entity) SetCollision(c *CollisionComponent) {
	e.collision = c
}

func (e *Entity) PhysicsBody() *PhysicsBodyComponent {
	return e.physicsBody
}

func (e *Entity) SetPhysicsBody(p *PhysicsBodyComponent) {
	e.physicsBody = p
}

func (e *Entity) InputTarget() *InputTargetComponent {
	return e.inputTarget
}

func (e *Entity) SetInputTarget(t *InputTargetComponent) {
	e.inputTarget = t
}

func (e *Entity) Model() *ModelComponent {
	return e.model
}

func (e *Entity) SetModel(m *ModelComponent) {
	e.model = m
}

// GenerateCollisionShapes derives a collision component from the model mesh.
func (e *Entity) GenerateCollisionShapes(recursive bool) {
	if e.model != nil {
		if shape := e.model.Mesh.CollisionShape(); shape != nil {
			e.collision = &CollisionComponent{Shapes: []Shape{shape}}
		}
	}
	if recursive {
		for _, c := range e.children {
			c.GenerateCollisionShapes(true)
		}
	}
}

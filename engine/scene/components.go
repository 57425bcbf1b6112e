package scene

import (
	"github.com/spaghettifunk/fusen/engine/math"
)

// CollisionComponent makes an entity collidable and hit testable.
type CollisionComponent struct {
	Shapes []Shape
	// Static shapes are never moved by the simulation.
	IsStatic bool
}

type PhysicsBodyMode uint8

const (
	// Moved by forces and collisions.
	PhysicsBodyModeDynamic PhysicsBodyMode = iota
	// Immovable, infinite mass.
	PhysicsBodyModeStatic
	// Moved only by setting its transform.
	PhysicsBodyModeKinematic
)

func (m PhysicsBodyMode) String() string {
	switch m {
	case PhysicsBodyModeStatic:
		return "static"
	case PhysicsBodyModeKinematic:
		return "kinematic"
	default:
		return "dynamic"
	}
}

type PhysicsBodyComponent struct {
	Mode PhysicsBodyMode
}

// Mass is infinite for static bodies.
func (p *PhysicsBodyComponent) Mass() float32 {
	if p.Mode == PhysicsBodyModeStatic {
		return math.K_INFINITY
	}
	return 1
}

// InputTargetComponent marks an entity as a target for spatial gestures.
type InputTargetComponent struct {
	Enabled bool
}

func NewInputTarget() *InputTargetComponent {
	return &InputTargetComponent{Enabled: true}
}

type MeshKind uint8

const (
	MeshKindSphere MeshKind = iota
)

// MeshResource describes generated primitive geometry for a model.
type MeshResource struct {
	Kind   MeshKind
	Radius float32
}

func GenerateSphere(radius float32) MeshResource {
	return MeshResource{Kind: MeshKindSphere, Radius: radius}
}

func (m MeshResource) CollisionShape() Shape {
	switch m.Kind {
	case MeshKindSphere:
		return &SphereShape{Radius: m.Radius}
	}
	return nil
}

type SimpleMaterial struct {
	Color      math.Vec4
	IsMetallic bool
}

// NewSimpleMaterial clamps every colour channel into [0, 1].
func NewSimpleMaterial(color math.Vec4, isMetallic bool) SimpleMaterial {
	return SimpleMaterial{
		Color: math.Vec4{
			X: math.Clamp(color.X, 0, 1),
			Y: math.Clamp(color.Y, 0, 1),
			Z: math.Clamp(color.Z, 0, 1),
			W: math.Clamp(color.W, 0, 1),
		},
		IsMetallic: isMetallic,
	}
}

type ModelComponent struct {
	Mesh      MeshResource
	Materials []SimpleMaterial
}

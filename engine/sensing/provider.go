package sensing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/scene"
)

type AnchorEvent uint8

const (
	AnchorEventAdded AnchorEvent = iota
	AnchorEventUpdated
	AnchorEventRemoved
)

func (e AnchorEvent) String() string {
	switch e {
	case AnchorEventAdded:
		return "added"
	case AnchorEventUpdated:
		return "updated"
	case AnchorEventRemoved:
		return "removed"
	}
	return "unknown"
}

// MeshGeometry is raw reconstructed surface geometry in anchor local space.
type MeshGeometry struct {
	Vertices []math.Vec3
	// Each face indexes three entries of Vertices.
	Faces [][3]uint32
}

// MeshAnchor is a tracked surface patch. ID is stable across updates to the
// same physical patch.
type MeshAnchor struct {
	ID uuid.UUID
	// Maps anchor local space into world space.
	OriginFromAnchorTransform math.Transform
	Geometry                  MeshGeometry
}

type AnchorUpdate struct {
	Anchor    MeshAnchor
	Event     AnchorEvent
	Timestamp time.Time
}

// GeometryProvider is the scene reconstruction facility of the device.
type GeometryProvider interface {
	// IsSupported probes the capability once before a session starts.
	IsSupported() bool
	// Run starts producing anchor updates until ctx is cancelled.
	Run(ctx context.Context) error
	// AnchorUpdates returns the update sequence. It can be consumed once;
	// later calls fail with core.ErrProviderConsumed.
	AnchorUpdates() (<-chan AnchorUpdate, error)
	// GenerateStaticMesh builds collision geometry for one anchor. It may be
	// slow and may fail independently per call.
	GenerateStaticMesh(ctx context.Context, anchor MeshAnchor) (*scene.StaticMeshShape, error)
}

// HitResolver turns a spatial gesture into a struck entity and world point.
type HitResolver interface {
	Resolve(tap scene.SpatialTap) (scene.Hit, bool)
}

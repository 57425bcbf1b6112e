package systems

import (
	"fmt"

	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/scene"
)

type PlacementSystemConfig struct {
	MarkerRadius float32
	MarkerColor  math.Vec4
}

// DefaultPlacementConfig is a small blue sphere.
func DefaultPlacementConfig() PlacementSystemConfig {
	return PlacementSystemConfig{
		MarkerRadius: 0.05,
		MarkerColor:  math.NewVec4(0, 0, 1, 1),
	}
}

// PlacementSystem drops markers where the user taps on reconstructed mesh.
type PlacementSystem struct {
	config  PlacementSystemConfig
	scene   *scene.Scene
	meshes  *MeshSystem
	metrics *core.SessionMetrics
}

var ErrInvalidMarkerRadius = fmt.Errorf("marker radius must be greater than zero")

func NewPlacementSystem(config PlacementSystemConfig, sc *scene.Scene, ms *MeshSystem, metrics *core.SessionMetrics) (*PlacementSystem, error) {
	if config.MarkerRadius <= 0 {
		return nil, ErrInvalidMarkerRadius
	}
	if metrics == nil {
		metrics = core.NewSessionMetrics()
	}
	return &PlacementSystem{
		config:  config,
		scene:   sc,
		meshes:  ms,
		metrics: metrics,
	}, nil
}

/**
 * @brief Places a marker at the hit location when the hit entity is a
 * currently tracked mesh entity. Any other hit is ignored.
 *
 * @param hit The resolved gesture.
 * @return The marker anchor entity, or nil when nothing was placed.
 */
func (ps *PlacementSystem) PlaceAt(hit scene.Hit) *scene.Entity {
	var anchor *scene.Entity
	ps.scene.Update(func() {
		if !ps.meshes.isMeshEntity(hit.Entity) {
			return
		}
		anchor = ps.newMarker(hit.WorldPoint)
		ps.scene.PlacementRoot().AddChild(anchor)
	})
	if anchor == nil {
		core.LogDebug("tap did not hit a tracked mesh, ignoring")
		return nil
	}
	ps.metrics.MarkerPlaced()
	core.LogDebug("placed marker at (%.3f, %.3f, %.3f)", hit.WorldPoint.X, hit.WorldPoint.Y, hit.WorldPoint.Z)
	return anchor
}

// newMarker builds a world anchor holding a tappable sphere.
func (ps *PlacementSystem) newMarker(at math.Vec3) *scene.Entity {
	anchor := scene.NewEntity("marker-anchor")
	anchor.SetTransform(math.TransformFromPosition(at))

	sphere := scene.NewEntity("marker")
	sphere.SetModel(&scene.ModelComponent{
		Mesh:      scene.GenerateSphere(ps.config.MarkerRadius),
		Materials: []scene.SimpleMaterial{scene.NewSimpleMaterial(ps.config.MarkerColor, false)},
	})
	sphere.SetInputTarget(scene.NewInputTarget())
	anchor.AddChild(sphere)
	anchor.GenerateCollisionShapes(true)

	return anchor
}

// Markers returns the anchors of every placed marker.
func (ps *PlacementSystem) Markers() []*scene.Entity {
	var markers []*scene.Entity
	ps.scene.Update(func() { markers = ps.scene.PlacementRoot().Children() })
	return markers
}

// Clear removes every placed marker.
func (ps *PlacementSystem) Clear() {
	ps.scene.Update(func() { ps.scene.PlacementRoot().RemoveAllChildren() })
}

func (ps *PlacementSystem) Shutdown() error {
	return nil
}

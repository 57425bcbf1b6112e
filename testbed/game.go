package testbed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine"
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/scene"
	"github.com/spaghettifunk/fusen/engine/sensing"
)

const pollInterval = 10 * time.Millisecond

var errSessionEnded = errors.New("session ended")

// NewGame builds the demo matching the configured provider kind.
func NewGame(cfg *engine.Config) (*engine.Game, error) {
	switch cfg.Provider.Kind {
	case engine.ProviderKindScripted:
		return NewScriptedGame(cfg), nil
	case engine.ProviderKindDirectory:
		return NewDirectoryGame(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
}

type scriptedGame struct {
	provider *sensing.ScriptedProvider
}

// NewScriptedGame plays a fixed session: a floor and a wall appear, the user
// taps the floor, the floor goes away and a tap into empty space places
// nothing.
func NewScriptedGame(cfg *engine.Config) *engine.Game {
	sg := &scriptedGame{}
	return &engine.Game{
		Config: cfg,
		NewProvider: func() (sensing.GeometryProvider, error) {
			sg.provider = sensing.NewScriptedProvider(16)
			return sg.provider, nil
		},
		FnInitialize: func(e *engine.Engine) error {
			core.LogInfo("booting scripted testbed...")
			return nil
		},
		FnRun: sg.run,
		FnShutdown: func() error {
			core.LogInfo("scripted testbed done")
			return nil
		},
	}
}

func (sg *scriptedGame) run(ctx context.Context, e *engine.Engine) error {
	floorID, wallID := uuid.New(), uuid.New()

	sg.provider.Push(sensing.AnchorEventAdded, floorAnchor(floorID))
	sg.provider.Push(sensing.AnchorEventAdded, wallAnchor(wallID))
	if err := waitUntil(ctx, func() bool { return e.MeshCount() == 2 }); err != nil {
		return err
	}
	core.LogInfo("floor and wall reconstructed")

	if marker := e.HandleTap(tapDown(0.5, 0.5)); marker != nil {
		p := marker.Transform().Position
		core.LogInfo("marker placed at (%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
	}

	// the floor refines as reconstruction improves
	refined := floorAnchor(floorID)
	refined.OriginFromAnchorTransform = math.TransformFromPosition(math.NewVec3(0, -0.01, 0))
	sg.provider.Push(sensing.AnchorEventUpdated, refined)
	if err := waitUntil(ctx, func() bool { return e.Metrics().Updated >= 1 }); err != nil {
		return err
	}

	sg.provider.Push(sensing.AnchorEventRemoved, sensing.MeshAnchor{ID: floorID})
	if err := waitUntil(ctx, func() bool { return e.MeshCount() == 1 }); err != nil {
		return err
	}
	core.LogInfo("floor removed, %d marker(s) kept", len(e.Markers()))

	if marker := e.HandleTap(tapDown(10, 10)); marker == nil {
		core.LogInfo("tap into empty space placed nothing")
	}

	logMetrics(e)
	return nil
}

type directoryGame struct {
	tapEvery time.Duration
}

// NewDirectoryGame mirrors the anchor files in the configured directory and
// taps straight down onto the first mesh it finds every few seconds, until
// the context ends.
func NewDirectoryGame(cfg *engine.Config) *engine.Game {
	dg := &directoryGame{tapEvery: 2 * time.Second}
	return &engine.Game{
		Config: cfg,
		NewProvider: func() (sensing.GeometryProvider, error) {
			return sensing.NewDirectoryProvider(cfg.Provider.WatchDir), nil
		},
		FnInitialize: func(e *engine.Engine) error {
			core.LogInfo("watching %s for anchor files", cfg.Provider.WatchDir)
			return nil
		},
		FnRun: dg.run,
	}
}

func (dg *directoryGame) run(ctx context.Context, e *engine.Engine) error {
	ticker := time.NewTicker(dg.tapEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logMetrics(e)
			return ctx.Err()
		case <-ticker.C:
			if e.State() != engine.SessionStateRunning {
				return errSessionEnded
			}
			if target, ok := firstMeshCenter(e.Scene()); ok {
				if marker := e.HandleTap(tapDown(target.X, target.Z)); marker != nil {
					core.LogInfo("marker placed on mesh")
				}
			}
			logMetrics(e)
		}
	}
}

func firstMeshCenter(sc *scene.Scene) (math.Vec3, bool) {
	var center math.Vec3
	found := false
	sc.Update(func() {
		for _, child := range sc.MeshRoot().Children() {
			collision := child.Collision()
			if collision == nil || len(collision.Shapes) == 0 {
				continue
			}
			center = child.WorldTransform().Apply(collision.Shapes[0].Bounds().Center())
			found = true
			return
		}
	})
	return center, found
}

func logMetrics(e *engine.Engine) {
	m := e.Metrics()
	core.Logger().Info("session metrics",
		"received", m.Received,
		"added", m.Added,
		"updated", m.Updated,
		"removed", m.Removed,
		"dropped", m.Dropped,
		"stale", m.Stale,
		"markers", m.Markers,
		"avg_build_ms", m.AverageBuildMS,
	)
}

func waitUntil(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func tapDown(x, z float32) scene.SpatialTap {
	return scene.SpatialTap{Ray: math.Ray{
		Origin:    math.NewVec3(x, 2, z),
		Direction: math.NewVec3(0, -1, 0),
	}}
}

// floorAnchor is a 2m square at y=0.
func floorAnchor(id uuid.UUID) sensing.MeshAnchor {
	return sensing.MeshAnchor{
		ID:                        id,
		OriginFromAnchorTransform: math.TransformCreate(),
		Geometry: sensing.MeshGeometry{
			Vertices: []math.Vec3{
				math.NewVec3(-1, 0, -1),
				math.NewVec3(1, 0, -1),
				math.NewVec3(1, 0, 1),
				math.NewVec3(-1, 0, 1),
			},
			Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		},
	}
}

// wallAnchor is a 2m square standing at z=-3.
func wallAnchor(id uuid.UUID) sensing.MeshAnchor {
	return sensing.MeshAnchor{
		ID:                        id,
		OriginFromAnchorTransform: math.TransformFromPosition(math.NewVec3(0, 0, -3)),
		Geometry: sensing.MeshGeometry{
			Vertices: []math.Vec3{
				math.NewVec3(-1, 0, 0),
				math.NewVec3(1, 0, 0),
				math.NewVec3(1, 2, 0),
				math.NewVec3(-1, 2, 0),
			},
			Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
		},
	}
}

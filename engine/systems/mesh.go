package systems

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/scene"
	"github.com/spaghettifunk/fusen/engine/sensing"
)

type MeshSystemConfig struct {
	// Capacity of the completed build channel.
	ResultQueueSize int
}

// BuildResult is a finished static mesh build waiting to be applied on the
// scene context.
type BuildResult struct {
	Update  sensing.AnchorUpdate
	Token   uint64
	Shape   *scene.StaticMeshShape
	Err     error
	Elapsed time.Duration
}

// anchorTrack follows the newest build scheduled for one anchor id.
type anchorTrack struct {
	latest uint64
	// An Added event has been seen but no entity is attached yet.
	pendingAdd bool
}

// MeshSystem keeps one entity under the scene's mesh root per live mesh
// anchor. Maps are only touched inside Scene.Update.
type MeshSystem struct {
	scene    *scene.Scene
	provider sensing.GeometryProvider
	jobs     *JobSystem
	metrics  *core.SessionMetrics

	entities  map[uuid.UUID]*scene.Entity
	tracks    map[uuid.UUID]*anchorTrack
	nextToken uint64
	results   chan BuildResult
}

var ErrNegativeResultQueue = fmt.Errorf("result queue size must be zero or greater")

func NewMeshSystem(config MeshSystemConfig, sc *scene.Scene, provider sensing.GeometryProvider, js *JobSystem, metrics *core.SessionMetrics) (*MeshSystem, error) {
	if config.ResultQueueSize < 0 {
		return nil, ErrNegativeResultQueue
	}
	if metrics == nil {
		metrics = core.NewSessionMetrics()
	}
	return &MeshSystem{
		scene:    sc,
		provider: provider,
		jobs:     js,
		metrics:  metrics,
		entities: make(map[uuid.UUID]*scene.Entity),
		tracks:   make(map[uuid.UUID]*anchorTrack),
		results:  make(chan BuildResult, config.ResultQueueSize),
	}, nil
}

// Results delivers finished builds. The owner passes each one to Apply.
func (ms *MeshSystem) Results() <-chan BuildResult {
	return ms.results
}

/**
 * @brief Handles one anchor update. Removals are applied immediately, additions
 * and updates schedule a static mesh build on the job system and return.
 *
 * @param ctx The session context. Builds still running when it ends are abandoned.
 * @param update The anchor update to handle.
 */
func (ms *MeshSystem) Receive(ctx context.Context, update sensing.AnchorUpdate) {
	ms.metrics.EventReceived()
	id := update.Anchor.ID

	switch update.Event {
	case sensing.AnchorEventRemoved:
		ms.scene.Update(func() { ms.remove(id) })
	case sensing.AnchorEventAdded, sensing.AnchorEventUpdated:
		var token uint64
		scheduled := false
		ms.scene.Update(func() {
			track := ms.tracks[id]
			if update.Event == sensing.AnchorEventUpdated {
				if _, ok := ms.entities[id]; !ok && (track == nil || !track.pendingAdd) {
					return
				}
			}
			if track == nil {
				track = &anchorTrack{}
				ms.tracks[id] = track
			}
			if update.Event == sensing.AnchorEventAdded {
				track.pendingAdd = true
			}
			ms.nextToken++
			token = ms.nextToken
			track.latest = token
			scheduled = true
		})
		if !scheduled {
			core.LogDebug("ignoring update for unknown anchor %s", id)
			ms.metrics.EventDropped()
			return
		}
		ms.jobs.AddWorkNonBlocking(ctx, func(jobCtx context.Context) {
			ms.build(ctx, jobCtx, update, token)
		})
	default:
		core.LogWarn("unknown anchor event %d for anchor %s", update.Event, id)
		ms.metrics.EventDropped()
	}
}

func (ms *MeshSystem) build(ctx context.Context, jobCtx context.Context, update sensing.AnchorUpdate, token uint64) {
	buildCtx, cancel := context.WithCancel(jobCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	shape, err := ms.provider.GenerateStaticMesh(buildCtx, update.Anchor)
	if buildCtx.Err() != nil {
		return
	}
	result := BuildResult{
		Update:  update,
		Token:   token,
		Shape:   shape,
		Err:     err,
		Elapsed: time.Since(start),
	}

	select {
	case ms.results <- result:
	case <-buildCtx.Done():
	}
}

/**
 * @brief Applies a finished build to the scene. Results superseded by a newer
 * event for the same anchor are discarded, as are failed builds.
 *
 * @param result The build to apply.
 */
func (ms *MeshSystem) Apply(result BuildResult) {
	ms.metrics.BuildFinished(result.Elapsed)
	ms.scene.Update(func() { ms.apply(result) })
}

func (ms *MeshSystem) apply(result BuildResult) {
	anchor := result.Update.Anchor
	track, ok := ms.tracks[anchor.ID]
	if !ok || track.latest != result.Token {
		core.LogDebug("discarding stale build for anchor %s", anchor.ID)
		ms.metrics.BuildDiscarded()
		return
	}
	if result.Err != nil {
		core.LogWarn("failed to generate static mesh for anchor %s: %s", anchor.ID, result.Err)
		ms.metrics.EventDropped()
		if result.Update.Event == sensing.AnchorEventAdded {
			// the anchor was never added, later updates for it are dropped
			track.pendingAdd = false
		}
		return
	}

	entity, exists := ms.entities[anchor.ID]
	switch {
	case exists && result.Update.Event == sensing.AnchorEventAdded:
		err := fmt.Errorf("anchor %s added twice: %w", anchor.ID, core.ErrConsistencyViolation)
		core.LogWarn("%s, overwriting its entity", err)
		ms.metrics.ConsistencyViolation()
		configureMeshEntity(entity, anchor, result.Shape)
	case exists:
		configureMeshEntity(entity, anchor, result.Shape)
		ms.metrics.AnchorUpdated()
	case track.pendingAdd:
		entity = scene.NewEntity("mesh-" + anchor.ID.String())
		configureMeshEntity(entity, anchor, result.Shape)
		ms.scene.MeshRoot().AddChild(entity)
		ms.entities[anchor.ID] = entity
		ms.metrics.AnchorAdded()
	default:
		ms.metrics.EventDropped()
		return
	}
	track.pendingAdd = false
}

func configureMeshEntity(entity *scene.Entity, anchor sensing.MeshAnchor, shape *scene.StaticMeshShape) {
	entity.SetAnchorID(anchor.ID)
	entity.SetTransform(anchor.OriginFromAnchorTransform)
	entity.SetCollision(&scene.CollisionComponent{
		Shapes:   []scene.Shape{shape},
		IsStatic: true,
	})
	entity.SetPhysicsBody(&scene.PhysicsBodyComponent{Mode: scene.PhysicsBodyModeStatic})
	if entity.InputTarget() == nil {
		entity.SetInputTarget(scene.NewInputTarget())
	}
}

// remove must run inside Scene.Update. Dropping the track invalidates builds
// still in flight for the id.
func (ms *MeshSystem) remove(id uuid.UUID) {
	delete(ms.tracks, id)
	entity, ok := ms.entities[id]
	if !ok {
		core.LogDebug("ignoring removal of unknown anchor %s", id)
		ms.metrics.EventDropped()
		return
	}
	entity.RemoveFromParent()
	delete(ms.entities, id)
	ms.metrics.AnchorRemoved()
}

// isMeshEntity reports whether e is tagged with a live anchor id. It must run
// inside Scene.Update.
func (ms *MeshSystem) isMeshEntity(e *scene.Entity) bool {
	if e == nil || e.AnchorID() == uuid.Nil {
		return false
	}
	_, ok := ms.entities[e.AnchorID()]
	return ok
}

// Reset detaches every mesh entity and forgets all anchors.
func (ms *MeshSystem) Reset() {
	ms.scene.Update(func() {
		ms.scene.MeshRoot().RemoveAllChildren()
		clear(ms.entities)
		clear(ms.tracks)
	})
}

func (ms *MeshSystem) Contains(id uuid.UUID) bool {
	var ok bool
	ms.scene.Update(func() { _, ok = ms.entities[id] })
	return ok
}

func (ms *MeshSystem) Entity(id uuid.UUID) *scene.Entity {
	var e *scene.Entity
	ms.scene.Update(func() { e = ms.entities[id] })
	return e
}

func (ms *MeshSystem) Len() int {
	var n int
	ms.scene.Update(func() { n = len(ms.entities) })
	return n
}

func (ms *MeshSystem) AnchorIDs() []uuid.UUID {
	var ids []uuid.UUID
	ms.scene.Update(func() {
		ids = make([]uuid.UUID, 0, len(ms.entities))
		for id := range ms.entities {
			ids = append(ids, id)
		}
	})
	return ids
}

func (ms *MeshSystem) Shutdown() error {
	ms.Reset()
	return nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/scene"
	"github.com/spaghettifunk/fusen/engine/sensing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Session.BuildWorkers = 2
	cfg.Session.BuildQueueSize = 4
	return cfg
}

// providers hands out ps in order, one per session.
func providers(ps ...sensing.GeometryProvider) (ProviderFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func() (sensing.GeometryProvider, error) {
		n := int(calls.Add(1))
		if n > len(ps) {
			return nil, fmt.Errorf("no provider for session %d", n)
		}
		return ps[n-1], nil
	}, &calls
}

func newTestEngine(t *testing.T, ps ...sensing.GeometryProvider) (*Engine, *atomic.Int32) {
	t.Helper()
	fn, calls := providers(ps...)
	e, err := New(testConfig(), fn)
	require.NoError(t, err)
	t.Cleanup(func() { e.Shutdown() })
	return e, calls
}

func floor(id uuid.UUID, x float32) sensing.MeshAnchor {
	return sensing.MeshAnchor{
		ID:                        id,
		OriginFromAnchorTransform: math.TransformFromPosition(math.NewVec3(x, 0, 0)),
		Geometry: sensing.MeshGeometry{
			Vertices: []math.Vec3{
				math.NewVec3(0, 0, 0),
				math.NewVec3(1, 0, 0),
				math.NewVec3(0, 0, 1),
			},
			Faces: [][3]uint32{{0, 1, 2}},
		},
	}
}

func tapDown(x, z float32) scene.SpatialTap {
	return scene.SpatialTap{Ray: math.Ray{
		Origin:    math.NewVec3(x, 1, z),
		Direction: math.NewVec3(0, -1, 0),
	}}
}

func meshRootCount(e *Engine) int {
	var n int
	e.Scene().Update(func() { n = e.Scene().MeshRoot().ChildCount() })
	return n
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Session.BuildWorkers = 0
	_, err := New(cfg, func() (sensing.GeometryProvider, error) { return nil, nil })
	assert.Error(t, err)

	_, err = New(NewDefaultConfig(), nil)
	assert.Error(t, err)
}

func TestEngineStartIsIdempotent(t *testing.T) {
	p := sensing.NewScriptedProvider(8)
	e, calls := newTestEngine(t, p)

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, SessionStateRunning, e.State())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, p.RunCalls())

	p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
	assert.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)

	// one listener means one receipt and one build per event
	assert.Equal(t, uint64(1), e.Metrics().Received)
	assert.Equal(t, 1, p.BuildCalls())
}

func TestEngineStartUnsupported(t *testing.T) {
	p := sensing.NewScriptedProvider(1)
	p.Supported = false
	e, _ := newTestEngine(t, p)

	err := e.Start(context.Background())
	assert.ErrorIs(t, err, core.ErrUnsupportedCapability)
	assert.Equal(t, SessionStateClosed, e.State())
	assert.Equal(t, 0, p.RunCalls())
}

func TestEngineStartFailureIsNotRetried(t *testing.T) {
	broken := sensing.NewScriptedProvider(1)
	broken.RunErr = errors.New("tracking unavailable")
	healthy := sensing.NewScriptedProvider(1)
	e, calls := newTestEngine(t, broken, healthy)

	err := e.Start(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionStart)
	assert.ErrorIs(t, err, broken.RunErr)
	assert.Equal(t, SessionStateClosed, e.State())
	assert.Equal(t, int32(1), calls.Load())

	// the user triggers it again
	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, SessionStateRunning, e.State())
	assert.Equal(t, 1, healthy.RunCalls())
}

func TestEngineProviderUpdatesAreConsumedOnce(t *testing.T) {
	p := sensing.NewScriptedProvider(1)
	e, _ := newTestEngine(t, p, p)

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Stop())

	err := e.Start(context.Background())
	assert.ErrorIs(t, err, core.ErrSessionStart)
	assert.ErrorIs(t, err, core.ErrProviderConsumed)
	assert.Equal(t, SessionStateClosed, e.State())
}

func TestEngineStopKeepsMarkers(t *testing.T) {
	p := sensing.NewScriptedProvider(8)
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
	p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 5))
	require.Eventually(t, func() bool { return e.MeshCount() == 2 }, waitFor, tick)

	marker := e.HandleTap(tapDown(0.2, 0.2))
	require.NotNil(t, marker)
	before := marker.Transform()

	require.NoError(t, e.Stop())

	assert.Equal(t, SessionStateClosed, e.State())
	assert.Equal(t, 0, e.MeshCount())
	assert.Equal(t, 0, meshRootCount(e))
	markers := e.Markers()
	require.Len(t, markers, 1)
	assert.Same(t, marker, markers[0])
	assert.Equal(t, before, markers[0].Transform())

	require.NoError(t, e.Stop())
}

func TestEngineTapScenario(t *testing.T) {
	p := sensing.NewScriptedProvider(8)
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	id := uuid.New()
	p.Push(sensing.AnchorEventAdded, floor(id, 0))
	require.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)

	marker := e.HandleTap(tapDown(0.2, 0.2))
	require.NotNil(t, marker)
	assert.True(t, marker.Transform().Position.Compare(math.NewVec3(0.2, 0, 0.2), 1e-4))
	require.Len(t, e.Markers(), 1)

	p.Push(sensing.AnchorEventRemoved, floor(id, 0))
	require.Eventually(t, func() bool { return e.MeshCount() == 0 }, waitFor, tick)
	assert.Equal(t, 0, meshRootCount(e))
	require.Len(t, e.Markers(), 1)
	assert.Same(t, marker, e.Markers()[0])

	// empty space, then the marker itself
	assert.Nil(t, e.HandleTap(tapDown(7, 7)))
	assert.Nil(t, e.HandleTap(tapDown(0.2, 0.2)))
	assert.Len(t, e.Markers(), 1)
	assert.Equal(t, uint64(1), e.Metrics().Markers)
}

func TestEngineListenerSurvivesBuildFailures(t *testing.T) {
	p := sensing.NewScriptedProvider(8)
	p.Build = func(ctx context.Context, anchor sensing.MeshAnchor) (*scene.StaticMeshShape, error) {
		if anchor.OriginFromAnchorTransform.Position.X == 1 {
			return nil, fmt.Errorf("bad patch: %w", core.ErrGeometryConstruction)
		}
		return sensing.GenerateStaticMesh(anchor)
	}
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	broken, good := uuid.New(), uuid.New()
	p.Push(sensing.AnchorEventAdded, floor(broken, 1))
	p.Push(sensing.AnchorEventAdded, floor(good, 2))

	assert.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)
	assert.Eventually(t, func() bool { return e.Metrics().Dropped == 1 }, waitFor, tick)
	assert.Equal(t, SessionStateRunning, e.State())
}

func TestEngineContextCancellationEndsSession(t *testing.T) {
	p := sensing.NewScriptedProvider(8)
	e, _ := newTestEngine(t, p)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, e.Start(ctx))

	p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
	require.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)

	cancel()
	assert.Eventually(t, func() bool { return e.State() == SessionStateClosed }, waitFor, tick)
	assert.Equal(t, 0, meshRootCount(e))
}

func TestEngineStreamEndClosesSession(t *testing.T) {
	p := sensing.NewScriptedProvider(1)
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	p.Close()
	assert.Eventually(t, func() bool { return e.State() == SessionStateClosed }, waitFor, tick)
}

func TestEngineStopAbandonsBuildsInFlight(t *testing.T) {
	building := make(chan struct{})
	p := sensing.NewScriptedProvider(1)
	p.Build = func(ctx context.Context, anchor sensing.MeshAnchor) (*scene.StaticMeshShape, error) {
		close(building)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
	<-building

	stopped := make(chan struct{})
	go func() {
		e.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(waitFor):
		t.Fatal("stop did not return while a build was in flight")
	}
	assert.Equal(t, 0, meshRootCount(e))
	assert.Equal(t, uint64(0), e.Metrics().Added)
}

func TestEngineRestartsWithFreshProvider(t *testing.T) {
	first := sensing.NewScriptedProvider(4)
	second := sensing.NewScriptedProvider(4)
	e, _ := newTestEngine(t, first, second)

	require.NoError(t, e.Start(context.Background()))
	first.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
	require.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)
	require.NoError(t, e.Stop())

	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, 0, e.MeshCount())
	second.Push(sensing.AnchorEventAdded, floor(uuid.New(), 3))
	assert.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)
}

func TestEngineTapWithoutSession(t *testing.T) {
	e, _ := newTestEngine(t, sensing.NewScriptedProvider(1))
	assert.Nil(t, e.HandleTap(tapDown(0, 0)))
	assert.Nil(t, e.PlaceAt(scene.Hit{Entity: scene.NewEntity("x")}))
}

type fixedResolver struct {
	hit scene.Hit
}

func (r fixedResolver) Resolve(scene.SpatialTap) (scene.Hit, bool) {
	return r.hit, r.hit.Entity != nil
}

func TestEngineUsesHitResolver(t *testing.T) {
	p := sensing.NewScriptedProvider(4)
	e, _ := newTestEngine(t, p)
	require.NoError(t, e.Start(context.Background()))

	id := uuid.New()
	p.Push(sensing.AnchorEventAdded, floor(id, 0))
	require.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)

	var mesh *scene.Entity
	e.Scene().Update(func() { mesh = e.Scene().MeshRoot().Children()[0] })
	e.SetHitResolver(fixedResolver{hit: scene.Hit{Entity: mesh, WorldPoint: math.NewVec3(9, 9, 9)}})

	marker := e.HandleTap(scene.SpatialTap{})
	require.NotNil(t, marker)
	assert.Equal(t, math.NewVec3(9, 9, 9), marker.Transform().Position)
}

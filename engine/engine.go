package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/scene"
	"github.com/spaghettifunk/fusen/engine/sensing"
	"github.com/spaghettifunk/fusen/engine/systems"
)

type SessionState uint8

const (
	// No session, no listener
	SessionStateClosed SessionState = iota
	// Start is probing and starting the provider
	SessionStateStarting
	// The listener is consuming anchor updates
	SessionStateRunning
)

func (s SessionState) String() string {
	switch s {
	case SessionStateStarting:
		return "starting"
	case SessionStateRunning:
		return "running"
	default:
		return "closed"
	}
}

// ProviderFunc returns the geometry provider for a new session. Providers
// hand out their updates once, so every session asks for a fresh one.
type ProviderFunc func() (sensing.GeometryProvider, error)

// Engine is the session lifecycle controller. It starts and stops sessions
// against a geometry provider and keeps the scene's mesh root in sync while
// a session runs.
type Engine struct {
	config      *Config
	newProvider ProviderFunc
	scene       *scene.Scene
	resolver    sensing.HitResolver
	metrics     *core.SessionMetrics

	mu      sync.Mutex
	state   SessionState
	session *session
	// Closed when the in progress Start returns.
	started chan struct{}
}

type session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	provider sensing.GeometryProvider
	systems  *systems.SystemManager
	updates  <-chan sensing.AnchorUpdate
	done     chan struct{}
	once     sync.Once
}

func New(config *Config, newProvider ProviderFunc) (*Engine, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if err := config.Validate(); err != nil {
		core.LogError("invalid configuration: %s", err)
		return nil, err
	}
	if newProvider == nil {
		return nil, fmt.Errorf("engine requires a geometry provider")
	}

	sc := scene.New()
	return &Engine{
		config:      config,
		newProvider: newProvider,
		scene:       sc,
		resolver:    sc,
		metrics:     core.NewSessionMetrics(),
		state:       SessionStateClosed,
	}, nil
}

// SetHitResolver replaces the scene raycaster used by HandleTap.
func (e *Engine) SetHitResolver(r sensing.HitResolver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resolver = r
}

func (e *Engine) Scene() *scene.Scene {
	return e.scene
}

func (e *Engine) Metrics() core.MetricsSnapshot {
	return e.metrics.Snapshot()
}

func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

/**
 * @brief Starts a session unless one is already starting or running, in
 * which case it does nothing. On failure the engine stays closed and the
 * error is returned after being logged; there is no automatic retry.
 *
 * @param ctx Bounds the session. Cancelling it ends the session like Stop.
 */
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != SessionStateClosed {
		core.LogDebug("session already %s, ignoring start", e.state)
		e.mu.Unlock()
		return nil
	}
	e.state = SessionStateStarting
	started := make(chan struct{})
	e.started = started
	e.mu.Unlock()

	defer close(started)

	s, err := e.startSession(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = SessionStateClosed
		return err
	}
	e.session = s
	e.state = SessionStateRunning
	go e.listen(s)

	core.LogInfo("session running")
	return nil
}

func (e *Engine) startSession(ctx context.Context) (*session, error) {
	provider, err := e.newProvider()
	if err != nil {
		core.LogError("failed to create geometry provider: %s", err)
		return nil, fmt.Errorf("%w: %w", core.ErrSessionStart, err)
	}
	if !provider.IsSupported() {
		core.LogError("scene reconstruction is not supported on this device")
		return nil, core.ErrUnsupportedCapability
	}

	sm, err := systems.NewSystemManager(e.config.systemManagerConfig(), e.scene, provider, e.metrics)
	if err != nil {
		core.LogError("failed to create session systems: %s", err)
		return nil, fmt.Errorf("%w: %w", core.ErrSessionStart, err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	fail := func(err error) (*session, error) {
		cancel()
		if serr := sm.Shutdown(); serr != nil {
			core.LogError("failed to shut down session systems: %s", serr)
		}
		core.LogError("failed to start session: %s", err)
		return nil, fmt.Errorf("%w: %w", core.ErrSessionStart, err)
	}

	if err := provider.Run(sessionCtx); err != nil {
		return fail(err)
	}
	updates, err := provider.AnchorUpdates()
	if err != nil {
		return fail(err)
	}

	return &session{
		ctx:      sessionCtx,
		cancel:   cancel,
		provider: provider,
		systems:  sm,
		updates:  updates,
		done:     make(chan struct{}),
	}, nil
}

// listen is the only goroutine that mutates the mesh root while s runs. It
// checks for cancellation before every mutation.
func (e *Engine) listen(s *session) {
	defer close(s.done)
	defer e.teardown(s)

	meshes := s.systems.Meshes()
	for {
		select {
		case <-s.ctx.Done():
			core.LogDebug("listener cancelled")
			return
		case update, ok := <-s.updates:
			if !ok {
				core.LogWarn("anchor update stream ended, closing session")
				return
			}
			if s.ctx.Err() != nil {
				return
			}
			meshes.Receive(s.ctx, update)
		case result := <-meshes.Results():
			if s.ctx.Err() != nil {
				return
			}
			meshes.Apply(result)
		}
	}
}

// teardown runs once per session, from the listener as it exits.
func (e *Engine) teardown(s *session) {
	s.once.Do(func() {
		s.cancel()
		if err := s.systems.Shutdown(); err != nil {
			core.LogError("failed to shut down session systems: %s", err)
		}

		e.mu.Lock()
		if e.session == s {
			e.session = nil
			e.state = SessionStateClosed
		}
		e.mu.Unlock()

		core.LogInfo("session closed")
	})
}

/**
 * @brief Ends the running session: cancels the listener, waits for it to
 * exit, forgets every mesh anchor and detaches all mesh entities. Placed
 * markers are kept. Does nothing when no session is running.
 */
func (e *Engine) Stop() error {
	for {
		e.mu.Lock()
		switch e.state {
		case SessionStateClosed:
			e.mu.Unlock()
			return nil
		case SessionStateStarting:
			started := e.started
			e.mu.Unlock()
			<-started
			continue
		}
		s := e.session
		e.mu.Unlock()

		s.cancel()
		<-s.done
		return nil
	}
}

// Shutdown stops any running session.
func (e *Engine) Shutdown() error {
	return e.Stop()
}

// HandleTap resolves tap against the scene and places a marker when it hit
// a tracked mesh. It returns the marker anchor or nil.
func (e *Engine) HandleTap(tap scene.SpatialTap) *scene.Entity {
	e.mu.Lock()
	resolver := e.resolver
	e.mu.Unlock()

	hit, ok := resolver.Resolve(tap)
	if !ok {
		core.LogDebug("tap hit nothing")
		return nil
	}
	return e.PlaceAt(hit)
}

// PlaceAt places a marker for an already resolved hit.
func (e *Engine) PlaceAt(hit scene.Hit) *scene.Entity {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()

	if s == nil {
		core.LogDebug("no running session, ignoring tap")
		return nil
	}
	return s.systems.Placement().PlaceAt(hit)
}

// MeshCount is the number of mesh anchors currently mirrored in the scene.
func (e *Engine) MeshCount() int {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()

	if s == nil {
		return 0
	}
	return s.systems.Meshes().Len()
}

// Markers returns the anchors of every placed marker, across sessions.
func (e *Engine) Markers() []*scene.Entity {
	var markers []*scene.Entity
	e.scene.Update(func() { markers = e.scene.PlacementRoot().Children() })
	return markers
}

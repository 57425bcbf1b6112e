package sensing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/scene"
)

// BuildFunc replaces the static mesh generation of a ScriptedProvider.
type BuildFunc func(ctx context.Context, anchor MeshAnchor) (*scene.StaticMeshShape, error)

// ScriptedProvider is fed by its owner through Push. It backs the testbed and
// tests, where anchor updates come from a script instead of a sensor.
type ScriptedProvider struct {
	Supported bool
	// Returned by Run when set.
	RunErr error
	// Overrides GenerateStaticMesh when set.
	Build BuildFunc

	updates   chan AnchorUpdate
	consumed  atomic.Bool
	closeOnce sync.Once

	runCalls   atomic.Int32
	buildCalls atomic.Int32
}

func NewScriptedProvider(bufferSize int) *ScriptedProvider {
	return &ScriptedProvider{
		Supported: true,
		updates:   make(chan AnchorUpdate, bufferSize),
	}
}

func (p *ScriptedProvider) IsSupported() bool {
	return p.Supported
}

func (p *ScriptedProvider) Run(ctx context.Context) error {
	p.runCalls.Add(1)
	if p.RunErr != nil {
		return p.RunErr
	}
	return ctx.Err()
}

func (p *ScriptedProvider) AnchorUpdates() (<-chan AnchorUpdate, error) {
	if !p.consumed.CompareAndSwap(false, true) {
		return nil, core.ErrProviderConsumed
	}
	return p.updates, nil
}

func (p *ScriptedProvider) GenerateStaticMesh(ctx context.Context, anchor MeshAnchor) (*scene.StaticMeshShape, error) {
	p.buildCalls.Add(1)
	if p.Build != nil {
		return p.Build(ctx, anchor)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GenerateStaticMesh(anchor)
}

// Push queues an update, blocking while the buffer is full.
func (p *ScriptedProvider) Push(event AnchorEvent, anchor MeshAnchor) {
	p.updates <- AnchorUpdate{Anchor: anchor, Event: event, Timestamp: time.Now()}
}

// Close ends the update sequence.
func (p *ScriptedProvider) Close() {
	p.closeOnce.Do(func() { close(p.updates) })
}

func (p *ScriptedProvider) RunCalls() int {
	return int(p.runCalls.Load())
}

func (p *ScriptedProvider) BuildCalls() int {
	return int(p.buildCalls.Load())
}

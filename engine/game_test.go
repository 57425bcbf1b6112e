package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/spaghettifunk/fusen/engine/sensing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunGame(t *testing.T) {
	p := sensing.NewScriptedProvider(4)
	fn, _ := providers(p)

	var initialized, shutdown bool
	var eng *Engine
	g := &Game{
		Config:      testConfig(),
		NewProvider: fn,
		FnInitialize: func(e *Engine) error {
			initialized = true
			eng = e
			return nil
		},
		FnRun: func(ctx context.Context, e *Engine) error {
			assert.Equal(t, SessionStateRunning, e.State())
			p.Push(sensing.AnchorEventAdded, floor(uuid.New(), 0))
			require.Eventually(t, func() bool { return e.MeshCount() == 1 }, waitFor, tick)
			require.NotNil(t, e.HandleTap(tapDown(0.5, 0.25)))
			return nil
		},
		FnShutdown: func() error {
			shutdown = true
			return nil
		},
	}

	require.NoError(t, RunGame(context.Background(), g))
	assert.True(t, initialized)
	assert.True(t, shutdown)
	assert.Equal(t, SessionStateClosed, eng.State())
	assert.Len(t, eng.Markers(), 1)
}

func TestRunGameReportsRunError(t *testing.T) {
	fn, _ := providers(sensing.NewScriptedProvider(1))
	boom := errors.New("boom")
	var eng *Engine
	g := &Game{
		Config:       testConfig(),
		NewProvider:  fn,
		FnInitialize: func(e *Engine) error { eng = e; return nil },
		FnRun:        func(context.Context, *Engine) error { return boom },
	}

	assert.ErrorIs(t, RunGame(context.Background(), g), boom)
	assert.Equal(t, SessionStateClosed, eng.State())
}

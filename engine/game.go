package engine

import (
	"context"
	"errors"
)

// Game is the content run inside the immersive space.
type Game struct {
	Config      *Config
	NewProvider ProviderFunc
	// Called once the engine exists, before the space opens.
	FnInitialize Initialize
	// Drives the open space until it returns or ctx ends.
	FnRun      Run
	FnShutdown Shutdown
}

type Initialize func(e *Engine) error
type Run func(ctx context.Context, e *Engine) error
type Shutdown func() error

// RunGame opens an immersive space for g, runs it and dismisses the space
// again. The session is always torn down before RunGame returns.
func RunGame(ctx context.Context, g *Game) error {
	e, err := New(g.Config, g.NewProvider)
	if err != nil {
		return err
	}
	app := NewApp(e)

	if g.FnInitialize != nil {
		if err := g.FnInitialize(e); err != nil {
			return err
		}
	}

	if err := app.OpenImmersiveSpace(ctx); err != nil {
		return err
	}

	var runErr error
	if g.FnRun != nil {
		runErr = g.FnRun(ctx, e)
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
	}

	if err := app.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	if g.FnShutdown != nil {
		if err := g.FnShutdown(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

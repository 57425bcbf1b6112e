package engine

import (
	"context"
	"sync"

	"github.com/spaghettifunk/fusen/engine/core"
)

type ImmersiveSpaceState uint8

const (
	ImmersiveSpaceClosed ImmersiveSpaceState = iota
	// Opening or dismissing
	ImmersiveSpaceInTransition
	ImmersiveSpaceOpen
)

func (s ImmersiveSpaceState) String() string {
	switch s {
	case ImmersiveSpaceInTransition:
		return "inTransition"
	case ImmersiveSpaceOpen:
		return "open"
	default:
		return "closed"
	}
}

// App is the shell around an Engine: opening the immersive space starts a
// session and dismissing it tears the session down.
type App struct {
	engine *Engine

	mu    sync.Mutex
	state ImmersiveSpaceState
}

func NewApp(e *Engine) *App {
	return &App{engine: e, state: ImmersiveSpaceClosed}
}

func (a *App) Engine() *Engine {
	return a.engine
}

func (a *App) ImmersiveSpaceState() ImmersiveSpaceState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OpenImmersiveSpace starts a session. The space only opens if the session
// started; otherwise it falls back to closed.
func (a *App) OpenImmersiveSpace(ctx context.Context) error {
	if !a.transition(ImmersiveSpaceClosed) {
		core.LogDebug("immersive space is %s, ignoring open", a.ImmersiveSpaceState())
		return nil
	}
	if err := a.engine.Start(ctx); err != nil {
		a.setState(ImmersiveSpaceClosed)
		return err
	}
	a.setState(ImmersiveSpaceOpen)
	return nil
}

func (a *App) DismissImmersiveSpace() error {
	if !a.transition(ImmersiveSpaceOpen) {
		core.LogDebug("immersive space is %s, ignoring dismiss", a.ImmersiveSpaceState())
		return nil
	}
	err := a.engine.Stop()
	a.setState(ImmersiveSpaceClosed)
	return err
}

// transition moves from the expected state into inTransition.
func (a *App) transition(from ImmersiveSpaceState) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		return false
	}
	a.state = ImmersiveSpaceInTransition
	return true
}

func (a *App) setState(s ImmersiveSpaceState) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = s
}

func (a *App) Shutdown() error {
	if err := a.DismissImmersiveSpace(); err != nil {
		return err
	}
	return a.engine.Shutdown()
}

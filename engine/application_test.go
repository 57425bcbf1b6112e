package engine

import (
	"context"
	"testing"

	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/sensing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppOpenAndDismiss(t *testing.T) {
	e, calls := newTestEngine(t, sensing.NewScriptedProvider(1))
	app := NewApp(e)
	assert.Equal(t, ImmersiveSpaceClosed, app.ImmersiveSpaceState())

	require.NoError(t, app.OpenImmersiveSpace(context.Background()))
	assert.Equal(t, ImmersiveSpaceOpen, app.ImmersiveSpaceState())
	assert.Equal(t, SessionStateRunning, e.State())

	require.NoError(t, app.OpenImmersiveSpace(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, app.DismissImmersiveSpace())
	assert.Equal(t, ImmersiveSpaceClosed, app.ImmersiveSpaceState())
	assert.Equal(t, SessionStateClosed, e.State())

	require.NoError(t, app.DismissImmersiveSpace())
}

func TestAppOpenFailureFallsBackToClosed(t *testing.T) {
	p := sensing.NewScriptedProvider(1)
	p.Supported = false
	e, _ := newTestEngine(t, p)
	app := NewApp(e)

	err := app.OpenImmersiveSpace(context.Background())
	assert.ErrorIs(t, err, core.ErrUnsupportedCapability)
	assert.Equal(t, ImmersiveSpaceClosed, app.ImmersiveSpaceState())
}

func TestImmersiveSpaceStateString(t *testing.T) {
	assert.Equal(t, "closed", ImmersiveSpaceClosed.String())
	assert.Equal(t, "inTransition", ImmersiveSpaceInTransition.String())
	assert.Equal(t, "open", ImmersiveSpaceOpen.String())
	assert.Equal(t, "running", SessionStateRunning.String())
}

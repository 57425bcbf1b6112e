package systems

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsJobsConcurrently(t *testing.T) {
	js, err := NewJobSystem(3, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	// all three must be running at once to get past the barrier
	var started atomic.Int32
	release := make(chan struct{})
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		js.AddWorkNonBlocking(context.Background(), func(ctx context.Context) {
			if started.Add(1) == 3 {
				close(release)
			}
			<-release
			done <- struct{}{}
		})
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("jobs did not run concurrently")
		}
	}
}

func TestJobSystemShutdownCancelsRunningJobs(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)

	running := make(chan struct{})
	cancelled := make(chan struct{})
	require.True(t, js.Submit(context.Background(), func(ctx context.Context) {
		close(running)
		<-ctx.Done()
		close(cancelled)
	}))
	<-running

	require.NoError(t, js.Shutdown())
	select {
	case <-cancelled:
	default:
		t.Fatal("running job was not cancelled before Shutdown returned")
	}
	require.NoError(t, js.Shutdown())
	assert.False(t, js.Submit(context.Background(), func(context.Context) {}))
}

func TestJobSystemSurvivesPanics(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	js.Submit(context.Background(), func(context.Context) { panic("boom") })
	ok := make(chan struct{})
	js.Submit(context.Background(), func(context.Context) { close(ok) })
	select {
	case <-ok:
	case <-time.After(5 * time.Second):
		t.Fatal("worker died after a panicking job")
	}
}

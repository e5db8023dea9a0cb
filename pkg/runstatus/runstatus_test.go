package runstatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkfeed/pkg/logger"
)

func newTestTracker(timeout time.Duration) *Tracker {
	return NewTracker(timeout, logger.NewTestLogger())
}

func TestStartAndComplete(t *testing.T) {
	tr := newTestTracker(time.Minute)

	runID, err := tr.Start("someuser")
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	assert.True(t, tr.IsRunning())

	tr.UpdateProgress(1, 20)
	snap := tr.Get()
	assert.Equal(t, StateRunning, snap.State)
	assert.Equal(t, 1, snap.PagesCompleted)
	assert.Equal(t, 20, snap.PostsCollected)

	tr.Complete(3, 60)
	snap = tr.Get()
	assert.Equal(t, StateCompleted, snap.State)
	assert.Equal(t, 3, snap.PagesCompleted)
	assert.Equal(t, 60, snap.PostsCollected)
	assert.False(t, snap.FinishedAt.IsZero())
	assert.False(t, tr.IsRunning())
}

func TestStartRejectedWhileRunning(t *testing.T) {
	tr := newTestTracker(time.Minute)

	_, err := tr.Start("first")
	require.NoError(t, err)

	_, err = tr.Start("second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in progress")
	assert.Equal(t, "first", tr.Get().Profile)
}

func TestStartForceResetsStuckRun(t *testing.T) {
	tr := newTestTracker(10 * time.Millisecond)

	firstID, err := tr.Start("stuck")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	secondID, err := tr.Start("fresh")
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)
	assert.Equal(t, "fresh", tr.Get().Profile)
	assert.True(t, tr.IsRunning())
}

func TestFail(t *testing.T) {
	tr := newTestTracker(time.Minute)
	_, err := tr.Start("someuser")
	require.NoError(t, err)

	tr.Fail("network error on page 2")

	snap := tr.Get()
	assert.Equal(t, StateFailed, snap.State)
	assert.Equal(t, "network error on page 2", snap.Message)
}

func TestTerminalTransitionsIgnoredWhenNotRunning(t *testing.T) {
	tr := newTestTracker(time.Minute)

	tr.Complete(1, 1)
	assert.Equal(t, StateIdle, tr.Get().State)

	tr.Fail("late failure")
	assert.Equal(t, StateIdle, tr.Get().State)

	tr.UpdateProgress(5, 5)
	assert.Equal(t, 0, tr.Get().PagesCompleted)
}

func TestReset(t *testing.T) {
	tr := newTestTracker(time.Minute)
	_, err := tr.Start("someuser")
	require.NoError(t, err)
	tr.Complete(1, 10)

	require.NoError(t, tr.Reset(false))
	snap := tr.Get()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.RunID)
	assert.Equal(t, 0, snap.PostsCollected)
}

func TestResetRequiresForceWhileRunning(t *testing.T) {
	tr := newTestTracker(time.Minute)
	_, err := tr.Start("someuser")
	require.NoError(t, err)

	assert.Error(t, tr.Reset(false))
	assert.True(t, tr.IsRunning())

	require.NoError(t, tr.Reset(true))
	assert.Equal(t, StateIdle, tr.Get().State)
}

func TestCheckTimeout(t *testing.T) {
	tr := newTestTracker(10 * time.Millisecond)
	_, err := tr.Start("someuser")
	require.NoError(t, err)

	assert.False(t, tr.CheckTimeout())

	time.Sleep(20 * time.Millisecond)

	assert.True(t, tr.CheckTimeout())
	snap := tr.Get()
	assert.Equal(t, StateTimedOut, snap.State)
	assert.NotEmpty(t, snap.Message)

	// Second check is a no-op on a terminal state
	assert.False(t, tr.CheckTimeout())
}

func TestTimedOutPredicate(t *testing.T) {
	base := time.Now()
	assert.False(t, timedOut(base, base.Add(5*time.Second), 10*time.Second))
	assert.False(t, timedOut(base, base.Add(10*time.Second), 10*time.Second))
	assert.True(t, timedOut(base, base.Add(11*time.Second), 10*time.Second))
}

func TestMonitorTransitionsStuckRun(t *testing.T) {
	tr := newTestTracker(10 * time.Millisecond)
	_, err := tr.Start("someuser")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Monitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return tr.Get().State == StateTimedOut
	}, time.Second, 5*time.Millisecond)
}

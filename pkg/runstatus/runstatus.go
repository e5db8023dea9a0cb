package runstatus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	errs "linkfeed/pkg/errors"
	"linkfeed/pkg/logger"
)

// State is the lifecycle state of an aggregation run
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Defaults for the stuck-run guard
const (
	DefaultRunTimeout      = 600 * time.Second
	DefaultMonitorInterval = 30 * time.Second
)

// Snapshot is a point-in-time copy of the tracker's state, safe to hand
// to other goroutines
type Snapshot struct {
	State          State     `json:"state"`
	RunID          string    `json:"run_id,omitempty"`
	Profile        string    `json:"profile,omitempty"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	PagesCompleted int       `json:"pages_completed"`
	PostsCollected int       `json:"posts_collected"`
	Message        string    `json:"message,omitempty"`
}

// Tracker owns the run state for the whole process. All mutation goes
// through its transition methods under a single lock; only one run may
// be in StateRunning at a time.
type Tracker struct {
	mu sync.Mutex

	state          State
	runID          string
	profile        string
	startedAt      time.Time
	finishedAt     time.Time
	pagesCompleted int
	postsCollected int
	message        string

	timeout time.Duration
	logger  logger.Logger
}

// NewTracker creates an idle tracker with the given stuck-run timeout.
// A non-positive timeout gets the default bound.
func NewTracker(timeout time.Duration, log logger.Logger) *Tracker {
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{
		state:   StateIdle,
		timeout: timeout,
		logger:  log,
	}
}

// timedOut is the pure predicate deciding whether a run that started at
// startedAt has exceeded the bound as of now
func timedOut(startedAt, now time.Time, bound time.Duration) bool {
	return now.Sub(startedAt) > bound
}

// Start transitions the tracker into StateRunning for a new run and
// returns the run ID. Starting while another run is active is rejected
// unless that run is stuck past the timeout bound, in which case it is
// force-reset first.
func (t *Tracker) Start(profile string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning {
		if !timedOut(t.startedAt, time.Now(), t.timeout) {
			return "", &errs.Error{
				Type:    errs.ErrorTypeUnknown,
				Message: "an aggregation run is already in progress",
			}
		}
		t.logger.WarnWithFields("force-resetting stuck run", map[string]interface{}{
			"run_id":  t.runID,
			"profile": t.profile,
			"elapsed": time.Since(t.startedAt).String(),
		})
		t.markTimedOutLocked()
	}

	t.state = StateRunning
	t.runID = uuid.NewString()
	t.profile = profile
	t.startedAt = time.Now()
	t.finishedAt = time.Time{}
	t.pagesCompleted = 0
	t.postsCollected = 0
	t.message = ""

	t.logger.InfoWithFields("aggregation run started", map[string]interface{}{
		"run_id":  t.runID,
		"profile": profile,
	})

	return t.runID, nil
}

// UpdateProgress records per-page progress of the active run
func (t *Tracker) UpdateProgress(pagesCompleted, postsCollected int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return
	}
	t.pagesCompleted = pagesCompleted
	t.postsCollected = postsCollected
}

// Complete transitions the active run to StateCompleted
func (t *Tracker) Complete(pagesCompleted, postsCollected int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return
	}
	t.state = StateCompleted
	t.finishedAt = time.Now()
	t.pagesCompleted = pagesCompleted
	t.postsCollected = postsCollected

	t.logger.InfoWithFields("aggregation run completed", map[string]interface{}{
		"run_id": t.runID,
		"pages":  pagesCompleted,
		"posts":  postsCollected,
	})
}

// Fail transitions the active run to StateFailed with a reason
func (t *Tracker) Fail(reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return
	}
	t.state = StateFailed
	t.finishedAt = time.Now()
	t.message = reason

	t.logger.ErrorWithFields("aggregation run failed", map[string]interface{}{
		"run_id": t.runID,
		"reason": reason,
	})
}

// Reset returns the tracker to StateIdle. A running run blocks the
// reset unless force is set.
func (t *Tracker) Reset(force bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateRunning && !force {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: "cannot reset while a run is in progress",
		}
	}

	t.state = StateIdle
	t.runID = ""
	t.profile = ""
	t.startedAt = time.Time{}
	t.finishedAt = time.Time{}
	t.pagesCompleted = 0
	t.postsCollected = 0
	t.message = ""
	return nil
}

// CheckTimeout transitions a running run to StateTimedOut if it has
// exceeded the bound. Returns true when a transition happened.
func (t *Tracker) CheckTimeout() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning || !timedOut(t.startedAt, time.Now(), t.timeout) {
		return false
	}
	t.markTimedOutLocked()
	return true
}

// markTimedOutLocked records the timeout transition; callers hold the lock
func (t *Tracker) markTimedOutLocked() {
	t.state = StateTimedOut
	t.finishedAt = time.Now()
	t.message = "run exceeded timeout bound"

	t.logger.WarnWithFields("aggregation run timed out", map[string]interface{}{
		"run_id":  t.runID,
		"profile": t.profile,
	})
}

// IsRunning reports whether a run is currently active
func (t *Tracker) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateRunning
}

// Get returns a snapshot of the current state
func (t *Tracker) Get() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		State:          t.state,
		RunID:          t.runID,
		Profile:        t.profile,
		StartedAt:      t.startedAt,
		FinishedAt:     t.finishedAt,
		PagesCompleted: t.pagesCompleted,
		PostsCollected: t.postsCollected,
		Message:        t.message,
	}
}

// Monitor periodically checks for stuck runs until the context is
// cancelled. Run it in its own goroutine.
func (t *Tracker) Monitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.CheckTimeout()
		}
	}
}

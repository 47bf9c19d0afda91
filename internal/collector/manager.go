package collector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// BackfillJob represents an active history backfill.
type BackfillJob struct {
	ID        uuid.UUID       `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Options   BackfillOptions `json:"options"`
}

// HistoryLoader runs a single backfill.
type HistoryLoader interface {
	Backfill(ctx context.Context, opts BackfillOptions) (*BackfillResult, error)
	GetTelegramStatus() telegram.Status
}

// BackfillManager runs at most one backfill at a time.
type BackfillManager struct {
	mu       sync.Mutex
	current  *BackfillJob
	last     *BackfillResult
	cancelFn context.CancelFunc
	loader   HistoryLoader
	onFinish func(job *BackfillJob, res *BackfillResult)
}

// NewBackfillManager creates a new backfill manager.
func NewBackfillManager(loader HistoryLoader) *BackfillManager {
	return &BackfillManager{loader: loader}
}

// OnFinish registers fn to run after each backfill ends, stopped or not.
// res is nil when the loader failed before fetching anything.
func (m *BackfillManager) OnFinish(fn func(job *BackfillJob, res *BackfillResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = fn
}

// Start launches a backfill in the background.
// returns ErrAlreadyRunning if one is already running
func (m *BackfillManager) Start(_ context.Context, opts BackfillOptions) (*BackfillJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil, ErrAlreadyRunning
	}

	// detached from the request context, which ends with the HTTP response
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFn = cancel

	job := &BackfillJob{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Options:   opts,
	}
	m.current = job

	go m.run(ctx, job)

	return job, nil
}

// Stop cancels the current backfill. Safe to call when idle.
func (m *BackfillManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelFn != nil {
		m.cancelFn()
		m.cancelFn = nil
	}
	m.current = nil
}

// Current returns the running job, or nil.
func (m *BackfillManager) Current() *BackfillJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// LastResult returns the counters of the last finished backfill.
func (m *BackfillManager) LastResult() *BackfillResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *BackfillManager) run(ctx context.Context, job *BackfillJob) {
	var res *BackfillResult
	defer func() {
		m.mu.Lock()
		if m.current != nil && m.current.ID == job.ID {
			m.current = nil
			m.cancelFn = nil
		}
		if res != nil {
			m.last = res
		}
		hook := m.onFinish
		m.mu.Unlock()

		if hook != nil {
			hook(job, res)
		}
	}()

	if m.loader != nil {
		// errors are logged by the loader
		res, _ = m.loader.Backfill(ctx, job.Options)
	}
}

// GetTelegramStatus returns the current Telegram connection status.
func (m *BackfillManager) GetTelegramStatus() telegram.Status {
	if m.loader == nil {
		return "UNKNOWN"
	}
	return m.loader.GetTelegramStatus()
}

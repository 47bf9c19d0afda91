package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// errors
var (
	ErrAlreadyRunning = errors.New("already running")
	ErrNotRunning     = errors.New("ingestion stream is not running")
)

// DefaultQueueSize is used when NewRunner gets a non-positive size.
const DefaultQueueSize = 256

// Ingester stores a single message.
type Ingester interface {
	Ingest(ctx context.Context, msg telegram.Message) (*Result, error)
}

// Run identifies an active ingestion stream.
type Run struct {
	ID        uuid.UUID `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// RunnerStats counts events handled since the runner was created.
type RunnerStats struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
	Alerts    int64 `json:"alerts"`
	Queued    int   `json:"queued"`
}

// Runner feeds queued messages to the classifier one at a time, so each
// event is committed before the next one is classified.
type Runner struct {
	ingester Ingester
	queue    chan telegram.Message
	log      *logger.Logger

	mu       sync.Mutex
	current  *Run
	cancelFn context.CancelFunc
	done     chan struct{}

	processed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	alerts    atomic.Int64
}

// NewRunner creates a runner with a buffered queue of the given size.
func NewRunner(ingester Ingester, size int, log *logger.Logger) *Runner {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Runner{
		ingester: ingester,
		queue:    make(chan telegram.Message, size),
		log:      log,
	}
}

// Start launches the consumer goroutine. It returns ErrAlreadyRunning if a
// stream is active. The stream is detached from ctx and ends with Stop.
func (r *Runner) Start(_ context.Context) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{ID: uuid.New(), StartedAt: time.Now()}
	done := make(chan struct{})

	r.current = run
	r.cancelFn = cancel
	r.done = done

	go r.consume(ctx, done)

	r.log.Info().Str("run_id", run.ID.String()).Msg("ingestion stream started")
	return run, nil
}

// Stop ends the active stream and waits for the in-flight event to finish.
// Messages still queued are kept for the next Start. Safe to call when idle.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancelFn, r.done
	r.cancelFn, r.done, r.current = nil, nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.log.Info().Msg("ingestion stream stopped")
}

// Current returns the active stream, or nil.
func (r *Runner) Current() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Enqueue queues msg, blocking while the queue is full.
func (r *Runner) Enqueue(ctx context.Context, msg telegram.Message) error {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done == nil {
		return ErrNotRunning
	}

	select {
	case r.queue <- msg:
		return nil
	case <-done:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() RunnerStats {
	return RunnerStats{
		Processed: r.processed.Load(),
		Skipped:   r.skipped.Load(),
		Failed:    r.failed.Load(),
		Alerts:    r.alerts.Load(),
		Queued:    len(r.queue),
	}
}

func (r *Runner) consume(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.queue:
			// the in-flight event completes even if Stop cancels ctx
			r.handle(context.WithoutCancel(ctx), msg)
		}
	}
}

// handle ingests one event. Failures are logged and counted; they never
// stop the stream.
func (r *Runner) handle(ctx context.Context, msg telegram.Message) {
	res, err := r.ingester.Ingest(ctx, msg)
	switch {
	case errors.Is(err, ErrIgnoredPeer), errors.Is(err, ErrUnmonitored):
		r.skipped.Add(1)
		r.log.ForMessage(msg.ChannelID, msg.ID).Debug().Err(err).Msg("message skipped")
	case err != nil:
		r.failed.Add(1)
		r.log.ForMessage(msg.ChannelID, msg.ID).Error().Err(err).Msg("failed to ingest message")
	default:
		r.processed.Add(1)
		if res != nil && res.Alert != nil {
			r.alerts.Add(1)
		}
	}
}

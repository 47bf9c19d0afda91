package collector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// DefaultBackfillLimit is used when BackfillOptions.Limit is not set.
const DefaultBackfillLimit = 100

// HistoryClient reads chat history from Telegram.
type HistoryClient interface {
	ResolveChannel(ctx context.Context, username string) (*telegram.Channel, error)
	GetMessages(ctx context.Context, channel *telegram.Channel, offsetID int, limit int) ([]telegram.Message, error)
	GetStatus() telegram.Status
}

// Enqueuer accepts messages for ingestion.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg telegram.Message) error
}

// BackfillOptions selects the history to load.
type BackfillOptions struct {
	Channel string     `json:"channel"`
	Limit   int        `json:"limit"`
	Until   *time.Time `json:"until,omitempty"`
}

// BackfillResult contains backfill statistics.
type BackfillResult struct {
	TotalFetched int `json:"total_fetched"`
	Enqueued     int `json:"enqueued"`
	SkippedOld   int `json:"skipped_old"`
	Errors       int `json:"errors"`
}

// Backfiller loads recent history of a chat into the ingestion queue.
type Backfiller struct {
	client HistoryClient
	queue  Enqueuer
	pause  time.Duration
	log    *logger.Logger
}

// NewBackfiller creates a new Backfiller.
func NewBackfiller(client HistoryClient, queue Enqueuer, log *logger.Logger) *Backfiller {
	return &Backfiller{
		client: client,
		queue:  queue,
		pause:  100 * time.Millisecond,
		log:    log,
	}
}

// GetTelegramStatus reports the status of the underlying client.
func (b *Backfiller) GetTelegramStatus() telegram.Status {
	return b.client.GetStatus()
}

// Backfill fetches up to opts.Limit messages, newest first, and enqueues
// them oldest first so posts are stored before the replies to them.
// Messages older than opts.Until are skipped.
func (b *Backfiller) Backfill(ctx context.Context, opts BackfillOptions) (*BackfillResult, error) {
	result := &BackfillResult{}

	channel, err := b.client.ResolveChannel(ctx, opts.Channel)
	if err != nil {
		b.log.Error().Err(err).Str("channel", opts.Channel).Msg("backfill: resolve failed")
		return nil, fmt.Errorf("resolve channel: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultBackfillLimit
	}

	b.log.Info().Str("channel", opts.Channel).Int("limit", limit).Msg("backfill started")

	var batch []telegram.Message
	offsetID := 0
	reachedUntil := false

	for result.TotalFetched < limit && !reachedUntil {
		if ctx.Err() != nil {
			b.log.Info().Msg("backfill cancelled")
			return result, nil
		}

		messages, err := b.client.GetMessages(ctx, channel, offsetID, min(limit-result.TotalFetched, 100))
		if err != nil {
			b.log.Error().Err(err).Int("offset_id", offsetID).Msg("backfill: failed to get messages")
			result.Errors++
			break
		}
		if len(messages) == 0 {
			break
		}

		result.TotalFetched += len(messages)
		for _, msg := range messages {
			if opts.Until != nil && msg.Date.Before(*opts.Until) {
				// history is newest first, no later page can be newer
				result.SkippedOld++
				reachedUntil = true
				continue
			}
			batch = append(batch, msg)
		}

		offsetID = messages[len(messages)-1].ID

		select {
		case <-ctx.Done():
		case <-time.After(b.pause):
		}
	}

	slices.Reverse(batch)
	for _, msg := range batch {
		if err := b.queue.Enqueue(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return result, nil
			}
			b.log.Error().Err(err).Int("message_id", msg.ID).Msg("backfill: enqueue failed")
			result.Errors++
			if errors.Is(err, ErrNotRunning) {
				break
			}
			continue
		}
		result.Enqueued++
	}

	b.log.Info().
		Int("total", result.TotalFetched).
		Int("enqueued", result.Enqueued).
		Int("skipped_old", result.SkippedOld).
		Int("errors", result.Errors).
		Msg("backfill completed")

	return result, nil
}

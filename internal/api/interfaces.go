package api

import (
	"context"

	"github.com/pi4tnitsa/telegram-pareser/internal/collector"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/period"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// ContentQuery defines period-scoped reads over stored content.
type ContentQuery interface {
	Fetch(ctx context.Context, kind models.ContentKind, r period.Range) (models.Dataset, error)
	Search(ctx context.Context, query string, r *period.Range) ([]models.Record, error)
}

// StatsRepository defines the interface for aggregate statistics.
type StatsRepository interface {
	Aggregate(ctx context.Context) (*repository.Statistics, error)
}

// SourcesRepository defines the interface for monitored source data access.
type SourcesRepository interface {
	ListActive(ctx context.Context) ([]models.MonitoredSource, error)
	Deactivate(ctx context.Context, id uint) error
}

// SourceRegistry resolves and registers new sources.
type SourceRegistry interface {
	AddSource(ctx context.Context, username string) (*models.MonitoredSource, error)
}

// KeywordsRepository defines the interface for keyword data access.
type KeywordsRepository interface {
	Add(ctx context.Context, text string) (*models.Keyword, error)
	Remove(ctx context.Context, text string) error
	ListActive(ctx context.Context) ([]models.Keyword, error)
}

// TelegramClient defines the interface for Telegram operations.
type TelegramClient interface {
	GetStatus() telegram.Status
	IsQRInProgress() bool
	StartQR(ctx context.Context, onURL func(string)) error
}

// IngestRunner exposes the live ingestion stream.
type IngestRunner interface {
	Current() *collector.Run
	Stats() collector.RunnerStats
}

// BackfillService defines the interface for history backfills.
type BackfillService interface {
	Start(ctx context.Context, opts collector.BackfillOptions) (*collector.BackfillJob, error)
	Stop()
	Current() *collector.BackfillJob
	LastResult() *collector.BackfillResult
	GetTelegramStatus() telegram.Status
}

// HubBroadcaster defines the interface for WebSocket broadcasting.
type HubBroadcaster interface {
	Broadcast(message any)
}

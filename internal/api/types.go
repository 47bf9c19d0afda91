package api

import (
	"github.com/pi4tnitsa/telegram-pareser/internal/collector"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/period"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
)

// Status values used in simple responses.
const (
	StatusAlreadyExists = "already_exists"
	StatusCreated       = "created"
	StatusRemoved       = "removed"
	StatusStarted       = "started"
	StatusStopped       = "stopped"
)

// ============================================================================
// Common Types
// ============================================================================

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status" example:"ok" description:"Health status"`
	Version  string `json:"version" example:"dev" description:"Application version"`
	Telegram string `json:"telegram,omitempty" description:"Telegram client status"`
}

// StatusResponse is returned by mutations without a body of their own.
type StatusResponse struct {
	Status string `json:"status" description:"Operation result"`
}

// ============================================================================
// Content Types
// ============================================================================

// ContentResponse is a period-scoped export of one or all content kinds.
type ContentResponse struct {
	Kind    models.ContentKind `json:"kind" description:"post, comment, message or all"`
	Range   period.Range       `json:"range" description:"Resolved inclusive timestamp range"`
	Total   int                `json:"total" description:"Number of records across all kinds"`
	Records models.Dataset     `json:"records" description:"Records grouped by kind, oldest first"`
}

// SearchResponse lists records matching a search query, newest first.
type SearchResponse struct {
	Query   string          `json:"query" description:"Search query"`
	Range   *period.Range   `json:"range,omitempty" description:"Resolved range, absent for the whole history"`
	Total   int             `json:"total" description:"Number of matching records"`
	Records []models.Record `json:"records" description:"Matching records"`
}

// ============================================================================
// Stats Types
// ============================================================================

// StatsResponse combines store statistics with ingestion counters.
type StatsResponse struct {
	Store     *repository.Statistics `json:"store" description:"Aggregates over stored content"`
	Ingestion *IngestStatusResponse  `json:"ingestion,omitempty" description:"Live ingestion stream state"`
}

// IngestStatusResponse describes the live ingestion stream.
type IngestStatusResponse struct {
	IsRunning bool                  `json:"is_running" description:"Whether the stream is consuming"`
	Run       *collector.Run        `json:"run,omitempty" description:"Active stream"`
	Stats     collector.RunnerStats `json:"stats" description:"Event counters"`
}

// ============================================================================
// Sources Types
// ============================================================================

// SourcesListResponse contains the active monitored sources.
type SourcesListResponse struct {
	Sources []models.MonitoredSource `json:"sources" description:"Active sources"`
	Total   int                      `json:"total" description:"Number of active sources"`
}

// SourceCreateRequest contains the request body for registering a source.
type SourceCreateRequest struct {
	Username string `json:"username" validate:"required" description:"Public username, with or without @"`
}

// SourceCreateResponse is returned after registering a source.
type SourceCreateResponse struct {
	Status string                  `json:"status" description:"created or already_exists"`
	Source *models.MonitoredSource `json:"source,omitempty" description:"Registered source"`
}

// ============================================================================
// Keywords Types
// ============================================================================

// KeywordsListResponse contains the active keywords.
type KeywordsListResponse struct {
	Keywords []models.Keyword `json:"keywords" description:"Active keywords"`
	Total    int              `json:"total" description:"Number of active keywords"`
}

// KeywordCreateRequest contains the request body for adding a keyword.
type KeywordCreateRequest struct {
	Text string `json:"text" validate:"required" description:"Keyword, stored lower-cased"`
}

// KeywordCreateResponse is returned after adding a keyword.
type KeywordCreateResponse struct {
	Status  string          `json:"status" description:"created or already_exists"`
	Keyword *models.Keyword `json:"keyword,omitempty" description:"Stored keyword"`
}

// ============================================================================
// Backfill Types
// ============================================================================

// BackfillStartRequest contains the request body for starting a backfill.
type BackfillStartRequest struct {
	Channel string  `json:"channel" validate:"required" description:"Channel or group username (e.g., @durov)"`
	Limit   int     `json:"limit" default:"100" description:"Maximum messages to load (max 10000)"`
	Until   *string `json:"until,omitempty" description:"Stop at messages older than this date (YYYY-MM-DD or RFC 3339)"`
}

// BackfillStartResponse contains the response after starting a backfill.
type BackfillStartResponse struct {
	Status string                 `json:"status" example:"started" description:"Backfill status"`
	Job    *collector.BackfillJob `json:"job,omitempty" description:"Started job"`
}

// BackfillStatusResponse contains the current backfill state.
type BackfillStatusResponse struct {
	IsRunning  bool                      `json:"is_running" description:"Whether a backfill is running"`
	Job        *collector.BackfillJob    `json:"job,omitempty" description:"Running job"`
	LastResult *collector.BackfillResult `json:"last_result,omitempty" description:"Counters of the last finished backfill"`
}

// ============================================================================
// Auth Types
// ============================================================================

// AuthStatusResponse contains Telegram authentication status.
type AuthStatusResponse struct {
	Status       string `json:"status" description:"Auth status: INITIALIZING, READY, UNAUTHORIZED, ERROR"`
	IsReady      bool   `json:"is_ready" description:"Whether Telegram client is ready"`
	QRInProgress bool   `json:"qr_in_progress" description:"Whether QR login flow is active"`
}

// AuthQRStartResponse contains the response after starting QR login.
type AuthQRStartResponse struct {
	Status string `json:"status" example:"started" description:"QR flow status"`
}

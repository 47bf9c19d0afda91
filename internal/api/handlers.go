// Package api provides HTTP handlers for the REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-fuego/fuego"

	"github.com/pi4tnitsa/telegram-pareser/internal/collector"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/period"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
	"github.com/pi4tnitsa/telegram-pareser/internal/web"
)

// MaxBackfillLimit caps the number of messages a single backfill may load.
const MaxBackfillLimit = 10000

func unavailable(what string) error {
	return fuego.HTTPError{Status: http.StatusServiceUnavailable, Title: "Service Unavailable", Detail: what + " not available"}
}

// toHTTPError maps domain errors onto fuego errors.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, period.ErrInvalidDate),
		errors.Is(err, period.ErrInvertedRange),
		errors.Is(err, repository.ErrEmptyQuery),
		errors.Is(err, repository.ErrEmptyKeyword),
		errors.Is(err, repository.ErrUnknownKind):
		return fuego.BadRequestError{Detail: err.Error()}
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, telegram.ErrChatNotFound):
		return fuego.NotFoundError{Detail: err.Error()}
	case errors.Is(err, telegram.ErrNotAuthorized):
		return unavailable("Telegram client")
	case errors.Is(err, collector.ErrAlreadyRunning):
		return fuego.ConflictError{Detail: err.Error()}
	}
	return fuego.InternalServerError{Detail: err.Error()}
}

func (s *Server) now() time.Time {
	now := time.Now
	if s.deps.Now != nil {
		now = s.deps.Now
	}
	return now().In(s.cfg.Location)
}

// periodRange resolves the period, start and end query parameters. Custom
// bounds without a period token imply the custom period.
func (s *Server) periodRange(c fuego.ContextNoBody) (period.Range, error) {
	token := c.QueryParam("period")
	start, end := c.QueryParam("start"), c.QueryParam("end")
	if token == "" && (start != "" || end != "") {
		token = period.Custom
	}
	return period.Resolve(token, start, end, s.now())
}

func (s *Server) broadcast(eventType string, payload any) {
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(web.WSEvent{Type: eventType, Payload: payload})
	}
}

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.cfg.Version,
	}
	if s.deps.TelegramClient != nil {
		resp.Telegram = string(s.deps.TelegramClient.GetStatus())
	}
	return resp, nil
}

// ============================================================================
// Content Handlers
// ============================================================================

func (s *Server) getContent(c fuego.ContextNoBody) (ContentResponse, error) {
	if s.deps.Content == nil {
		return ContentResponse{}, unavailable("Content store")
	}

	kind, err := models.ParseContentKind(c.PathParam("kind"))
	if err != nil {
		return ContentResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	r, err := s.periodRange(c)
	if err != nil {
		return ContentResponse{}, toHTTPError(err)
	}

	ds, err := s.deps.Content.Fetch(c.Context(), kind, r)
	if err != nil {
		return ContentResponse{}, toHTTPError(err)
	}

	return ContentResponse{
		Kind:    kind,
		Range:   r,
		Total:   ds.Len(),
		Records: ds,
	}, nil
}

func (s *Server) search(c fuego.ContextNoBody) (SearchResponse, error) {
	if s.deps.Content == nil {
		return SearchResponse{}, unavailable("Content store")
	}

	query := c.QueryParam("q")
	if strings.TrimSpace(query) == "" {
		return SearchResponse{}, toHTTPError(repository.ErrEmptyQuery)
	}

	var rng *period.Range
	if c.QueryParam("period") != "" || c.QueryParam("start") != "" || c.QueryParam("end") != "" {
		r, err := s.periodRange(c)
		if err != nil {
			return SearchResponse{}, toHTTPError(err)
		}
		rng = &r
	}

	recs, err := s.deps.Content.Search(c.Context(), query, rng)
	if err != nil {
		return SearchResponse{}, toHTTPError(err)
	}
	if recs == nil {
		recs = []models.Record{}
	}

	return SearchResponse{
		Query:   query,
		Range:   rng,
		Total:   len(recs),
		Records: recs,
	}, nil
}

// ============================================================================
// Stats Handlers
// ============================================================================

func (s *Server) getStats(c fuego.ContextNoBody) (StatsResponse, error) {
	if s.deps.StatsRepo == nil {
		return StatsResponse{}, unavailable("Statistics")
	}

	stats, err := s.deps.StatsRepo.Aggregate(c.Context())
	if err != nil {
		return StatsResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	resp := StatsResponse{Store: stats}
	if s.deps.Runner != nil {
		status := s.ingestStatus()
		resp.Ingestion = &status
	}
	return resp, nil
}

func (s *Server) ingestStatus() IngestStatusResponse {
	run := s.deps.Runner.Current()
	return IngestStatusResponse{
		IsRunning: run != nil,
		Run:       run,
		Stats:     s.deps.Runner.Stats(),
	}
}

func (s *Server) getIngestStatus(c fuego.ContextNoBody) (IngestStatusResponse, error) {
	if s.deps.Runner == nil {
		return IngestStatusResponse{}, unavailable("Ingestion stream")
	}
	return s.ingestStatus(), nil
}

// ============================================================================
// Sources Handlers
// ============================================================================

func (s *Server) listSources(c fuego.ContextNoBody) (SourcesListResponse, error) {
	if s.deps.SourcesRepo == nil {
		return SourcesListResponse{}, unavailable("Sources")
	}

	sources, err := s.deps.SourcesRepo.ListActive(c.Context())
	if err != nil {
		return SourcesListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if sources == nil {
		sources = []models.MonitoredSource{}
	}

	return SourcesListResponse{Sources: sources, Total: len(sources)}, nil
}

func (s *Server) createSource(c fuego.ContextWithBody[SourceCreateRequest]) (SourceCreateResponse, error) {
	if s.deps.Registry == nil {
		return SourceCreateResponse{}, unavailable("Source registry")
	}

	body, err := c.Body()
	if err != nil {
		return SourceCreateResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if strings.TrimSpace(body.Username) == "" {
		return SourceCreateResponse{}, fuego.BadRequestError{Detail: "username is required"}
	}

	src, err := s.deps.Registry.AddSource(c.Context(), body.Username)
	if errors.Is(err, repository.ErrAlreadyExists) {
		c.SetStatus(http.StatusOK)
		return SourceCreateResponse{Status: StatusAlreadyExists, Source: src}, nil
	}
	if err != nil {
		return SourceCreateResponse{}, toHTTPError(err)
	}

	c.SetStatus(http.StatusCreated)
	return SourceCreateResponse{Status: StatusCreated, Source: src}, nil
}

func (s *Server) deleteSource(c fuego.ContextNoBody) (StatusResponse, error) {
	if s.deps.SourcesRepo == nil {
		return StatusResponse{}, unavailable("Sources")
	}

	id, err := strconv.ParseUint(c.PathParam("id"), 10, 64)
	if err != nil || id == 0 {
		return StatusResponse{}, fuego.BadRequestError{Detail: "Invalid source ID"}
	}

	if err := s.deps.SourcesRepo.Deactivate(c.Context(), uint(id)); err != nil {
		return StatusResponse{}, toHTTPError(err)
	}
	return StatusResponse{Status: StatusRemoved}, nil
}

// ============================================================================
// Keywords Handlers
// ============================================================================

func (s *Server) listKeywords(c fuego.ContextNoBody) (KeywordsListResponse, error) {
	if s.deps.KeywordsRepo == nil {
		return KeywordsListResponse{}, unavailable("Keywords")
	}

	keywords, err := s.deps.KeywordsRepo.ListActive(c.Context())
	if err != nil {
		return KeywordsListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if keywords == nil {
		keywords = []models.Keyword{}
	}

	return KeywordsListResponse{Keywords: keywords, Total: len(keywords)}, nil
}

func (s *Server) createKeyword(c fuego.ContextWithBody[KeywordCreateRequest]) (KeywordCreateResponse, error) {
	if s.deps.KeywordsRepo == nil {
		return KeywordCreateResponse{}, unavailable("Keywords")
	}

	body, err := c.Body()
	if err != nil {
		return KeywordCreateResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	kw, err := s.deps.KeywordsRepo.Add(c.Context(), body.Text)
	if errors.Is(err, repository.ErrAlreadyExists) {
		c.SetStatus(http.StatusOK)
		return KeywordCreateResponse{Status: StatusAlreadyExists, Keyword: kw}, nil
	}
	if err != nil {
		return KeywordCreateResponse{}, toHTTPError(err)
	}

	c.SetStatus(http.StatusCreated)
	return KeywordCreateResponse{Status: StatusCreated, Keyword: kw}, nil
}

func (s *Server) deleteKeyword(c fuego.ContextNoBody) (StatusResponse, error) {
	if s.deps.KeywordsRepo == nil {
		return StatusResponse{}, unavailable("Keywords")
	}

	if err := s.deps.KeywordsRepo.Remove(c.Context(), c.PathParam("text")); err != nil {
		return StatusResponse{}, toHTTPError(err)
	}
	return StatusResponse{Status: StatusRemoved}, nil
}

// ============================================================================
// Backfill Handlers
// ============================================================================

// parseUntil accepts a plain date in the reporting timezone or RFC 3339.
func (s *Server) parseUntil(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(period.DateLayout, raw, s.cfg.Location); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, period.ErrInvalidDate
	}
	return &t, nil
}

func (s *Server) startBackfill(c fuego.ContextWithBody[BackfillStartRequest]) (BackfillStartResponse, error) {
	if s.deps.Backfill == nil {
		return BackfillStartResponse{}, unavailable("Backfill")
	}

	body, err := c.Body()
	if err != nil {
		return BackfillStartResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}
	if strings.TrimSpace(body.Channel) == "" {
		return BackfillStartResponse{}, fuego.BadRequestError{Detail: "channel is required"}
	}

	opts := collector.BackfillOptions{
		Channel: body.Channel,
		Limit:   min(body.Limit, MaxBackfillLimit),
	}
	if opts.Limit <= 0 {
		opts.Limit = collector.DefaultBackfillLimit
	}
	if body.Until != nil {
		until, err := s.parseUntil(*body.Until)
		if err != nil {
			return BackfillStartResponse{}, toHTTPError(err)
		}
		opts.Until = until
	}

	if st := s.deps.Backfill.GetTelegramStatus(); st != telegram.StatusReady {
		return BackfillStartResponse{}, fuego.HTTPError{
			Status: http.StatusServiceUnavailable,
			Title:  "Service Unavailable",
			Detail: "Telegram client is " + string(st),
		}
	}

	job, err := s.deps.Backfill.Start(c.Context(), opts)
	if err != nil {
		return BackfillStartResponse{}, toHTTPError(err)
	}

	s.broadcast(web.EventBackfillStart, job)
	return BackfillStartResponse{Status: StatusStarted, Job: job}, nil
}

func (s *Server) stopBackfill(c fuego.ContextNoBody) (StatusResponse, error) {
	if s.deps.Backfill == nil {
		return StatusResponse{}, unavailable("Backfill")
	}
	s.deps.Backfill.Stop()
	return StatusResponse{Status: StatusStopped}, nil
}

func (s *Server) getBackfillStatus(c fuego.ContextNoBody) (BackfillStatusResponse, error) {
	if s.deps.Backfill == nil {
		return BackfillStatusResponse{}, unavailable("Backfill")
	}
	job := s.deps.Backfill.Current()
	return BackfillStatusResponse{
		IsRunning:  job != nil,
		Job:        job,
		LastResult: s.deps.Backfill.LastResult(),
	}, nil
}

// ============================================================================
// Auth Handlers
// ============================================================================

func (s *Server) getAuthStatus(c fuego.ContextNoBody) (AuthStatusResponse, error) {
	if s.deps.TelegramClient == nil {
		return AuthStatusResponse{}, unavailable("Telegram client")
	}

	status := s.deps.TelegramClient.GetStatus()
	return AuthStatusResponse{
		Status:       string(status),
		IsReady:      status == telegram.StatusReady,
		QRInProgress: s.deps.TelegramClient.IsQRInProgress(),
	}, nil
}

func (s *Server) startQRAuth(c fuego.ContextNoBody) (AuthQRStartResponse, error) {
	if s.deps.TelegramClient == nil {
		return AuthQRStartResponse{}, unavailable("Telegram client")
	}

	if s.deps.TelegramClient.GetStatus() == telegram.StatusReady {
		return AuthQRStartResponse{}, fuego.BadRequestError{Detail: "Already logged in"}
	}

	if s.deps.TelegramClient.IsQRInProgress() {
		return AuthQRStartResponse{Status: "already in progress"}, nil
	}

	// Start QR flow in background
	go func() {
		err := s.deps.TelegramClient.StartQR(context.Background(), func(url string) {
			s.broadcast(web.EventAuthQR, map[string]string{"url": url})
		})

		switch {
		case err == nil:
			s.broadcast(web.EventAuthSuccess, nil)
		case !errors.Is(err, context.Canceled):
			s.broadcast(web.EventAuthError, map[string]string{"message": err.Error()})
		}
	}()

	return AuthQRStartResponse{Status: StatusStarted}, nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi4tnitsa/telegram-pareser/internal/collector"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/period"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
	"github.com/pi4tnitsa/telegram-pareser/internal/web"
)

// Mock implementations for testing

type mockContent struct {
	dataset     models.Dataset
	records     []models.Record
	fetchKind   models.ContentKind
	fetchRange  period.Range
	searchQuery string
	searchRange *period.Range
}

func (m *mockContent) Fetch(_ context.Context, kind models.ContentKind, r period.Range) (models.Dataset, error) {
	m.fetchKind, m.fetchRange = kind, r
	return m.dataset, nil
}

func (m *mockContent) Search(_ context.Context, query string, r *period.Range) ([]models.Record, error) {
	m.searchQuery, m.searchRange = query, r
	return m.records, nil
}

type mockStatsRepo struct {
	stats *repository.Statistics
}

func (m *mockStatsRepo) Aggregate(context.Context) (*repository.Statistics, error) {
	return m.stats, nil
}

type mockSourcesRepo struct {
	sources     []models.MonitoredSource
	deactivated []uint
}

func (m *mockSourcesRepo) ListActive(context.Context) ([]models.MonitoredSource, error) {
	return m.sources, nil
}

func (m *mockSourcesRepo) Deactivate(_ context.Context, id uint) error {
	for _, s := range m.sources {
		if s.ID == id {
			m.deactivated = append(m.deactivated, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type mockRegistry struct {
	known map[string]*models.MonitoredSource
}

func (m *mockRegistry) AddSource(_ context.Context, username string) (*models.MonitoredSource, error) {
	username = strings.TrimPrefix(username, "@")
	if src, ok := m.known[username]; ok {
		return src, repository.ErrAlreadyExists
	}
	if username == "missing" {
		return nil, telegram.ErrChatNotFound
	}
	src := &models.MonitoredSource{ID: 9, ExternalID: "900", DisplayName: username, Kind: models.SourceChannel, Active: true}
	m.known[username] = src
	return src, nil
}

type mockKeywordsRepo struct {
	keywords []models.Keyword
}

func (m *mockKeywordsRepo) Add(_ context.Context, text string) (*models.Keyword, error) {
	text = repository.NormalizeKeyword(text)
	if text == "" {
		return nil, repository.ErrEmptyKeyword
	}
	for i := range m.keywords {
		if m.keywords[i].Text == text {
			return &m.keywords[i], repository.ErrAlreadyExists
		}
	}
	kw := models.Keyword{ID: uint(len(m.keywords) + 1), Text: text, Active: true}
	m.keywords = append(m.keywords, kw)
	return &kw, nil
}

func (m *mockKeywordsRepo) Remove(_ context.Context, text string) error {
	for i, kw := range m.keywords {
		if kw.Text == repository.NormalizeKeyword(text) {
			m.keywords = append(m.keywords[:i], m.keywords[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockKeywordsRepo) ListActive(context.Context) ([]models.Keyword, error) {
	return m.keywords, nil
}

type mockTelegramClient struct {
	status       telegram.Status
	qrInProgress bool
	qrURL        string
	qrErr        error
}

func (m *mockTelegramClient) GetStatus() telegram.Status {
	return m.status
}

func (m *mockTelegramClient) IsQRInProgress() bool {
	return m.qrInProgress
}

func (m *mockTelegramClient) StartQR(_ context.Context, onURL func(string)) error {
	onURL(m.qrURL)
	return m.qrErr
}

type mockRunner struct {
	run   *collector.Run
	stats collector.RunnerStats
}

func (m *mockRunner) Current() *collector.Run      { return m.run }
func (m *mockRunner) Stats() collector.RunnerStats { return m.stats }

type mockBackfill struct {
	mu      sync.Mutex
	status  telegram.Status
	current *collector.BackfillJob
	last    *collector.BackfillResult
	started []collector.BackfillOptions
	stopped int
}

func (m *mockBackfill) Start(_ context.Context, opts collector.BackfillOptions) (*collector.BackfillJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return nil, collector.ErrAlreadyRunning
	}
	m.started = append(m.started, opts)
	m.current = &collector.BackfillJob{ID: uuid.New(), StartedAt: time.Now(), Options: opts}
	return m.current, nil
}

func (m *mockBackfill) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	m.current = nil
}

func (m *mockBackfill) Current() *collector.BackfillJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *mockBackfill) LastResult() *collector.BackfillResult { return m.last }
func (m *mockBackfill) GetTelegramStatus() telegram.Status    { return m.status }

type mockHub struct {
	mu     sync.Mutex
	events []web.WSEvent
}

func (m *mockHub) Broadcast(message any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := message.(web.WSEvent); ok {
		m.events = append(m.events, e)
	}
}

func (m *mockHub) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	srv      *Server
	content  *mockContent
	sources  *mockSourcesRepo
	keywords *mockKeywordsRepo
	tg       *mockTelegramClient
	backfill *mockBackfill
	hub      *mockHub
}

var msk = time.FixedZone("MSK", 3*60*60)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		content: &mockContent{dataset: models.Dataset{}},
		sources: &mockSourcesRepo{sources: []models.MonitoredSource{
			{ID: 1, ExternalID: "100", DisplayName: "News", Kind: models.SourceChannel, Active: true},
		}},
		keywords: &mockKeywordsRepo{keywords: []models.Keyword{{ID: 1, Text: "launch", Active: true}}},
		tg:       &mockTelegramClient{status: telegram.StatusReady},
		backfill: &mockBackfill{status: telegram.StatusReady},
		hub:      &mockHub{},
	}

	cfg := &Config{
		Port:        8080,
		Title:       "Test API",
		Description: "Test",
		Version:     "1.0.0",
		Location:    msk,
	}

	runner := &mockRunner{
		run:   &collector.Run{ID: uuid.New(), StartedAt: time.Now()},
		stats: collector.RunnerStats{Processed: 10, Skipped: 2, Alerts: 1},
	}

	deps := &Dependencies{
		Content:        f.content,
		StatsRepo:      &mockStatsRepo{stats: &repository.Statistics{TotalPosts: 4, TotalComments: 2}},
		SourcesRepo:    f.sources,
		Registry:       &mockRegistry{known: map[string]*models.MonitoredSource{"news": &f.sources.sources[0]}},
		KeywordsRepo:   f.keywords,
		TelegramClient: f.tg,
		Runner:         runner,
		Backfill:       f.backfill,
		Hub:            f.hub,
	}
	deps.Now = func() time.Time {
		return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	}

	f.srv = NewServer(cfg, deps)
	return f
}

func (f *fixture) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestNewServer(t *testing.T) {
	f := newFixture(t)
	require.NotNil(t, f.srv)
	assert.NotNil(t, f.srv.fuego)
	assert.NotNil(t, f.srv.Mux())
	assert.NotNil(t, f.srv.Handler())
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, "READY", resp.Telegram)
}

func TestOpenAPIDocs(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/search")

	w = f.do(http.MethodGet, "/docs", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-url="/openapi.json"`)
}

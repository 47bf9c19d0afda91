package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-fuego/fuego"
	"github.com/go-fuego/fuego/option"
)

// Server represents the Fuego API server.
type Server struct {
	fuego  *fuego.Server
	router chi.Router
	http   *http.Server
	deps   *Dependencies
	cfg    *Config
}

// Dependencies contains all service dependencies. Nil members disable the
// routes that need them.
type Dependencies struct {
	Content        ContentQuery
	StatsRepo      StatsRepository
	SourcesRepo    SourcesRepository
	Registry       SourceRegistry
	KeywordsRepo   KeywordsRepository
	TelegramClient TelegramClient
	Runner         IngestRunner
	Backfill       BackfillService
	Hub            HubBroadcaster

	// WebSocket is mounted on /ws when set.
	WebSocket http.Handler

	// Now overrides the clock used to resolve periods.
	Now func() time.Time
}

// Config holds API server configuration.
type Config struct {
	Port           int
	Title          string
	Description    string
	Version        string
	Location       *time.Location
	AllowedOrigins []string
}

// NewServer creates a new Fuego API server.
func NewServer(cfg *Config, deps *Dependencies) *Server {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := fuego.NewServer(
		fuego.WithAddr(fmt.Sprintf(":%d", cfg.Port)),
		fuego.WithEngineOptions(
			fuego.WithOpenAPIConfig(fuego.OpenAPIConfig{
				PrettyFormatJSON: true,
				SwaggerURL:       "/docs",
				SpecURL:          "/openapi.json",
				UIHandler: func(specURL string) http.Handler {
					return ScalarHandler(specURL, cfg.Title, cfg.Description)
				},
			}),
		),
	)

	// Set OpenAPI info
	s.OpenAPI.Description().Info.Title = cfg.Title
	s.OpenAPI.Description().Info.Description = cfg.Description
	s.OpenAPI.Description().Info.Version = cfg.Version

	// Add Chi middleware (Fuego is net/http compatible)
	fuego.Use(s, middleware.RequestID)
	fuego.Use(s, middleware.RealIP)
	fuego.Use(s, middleware.Logger)
	fuego.Use(s, middleware.Recoverer)

	srv := &Server{
		fuego: s,
		deps:  deps,
		cfg:   cfg,
	}

	srv.registerRoutes()
	srv.router = srv.newRouter()

	return srv
}

// newRouter puts the fuego routes, the docs and the websocket behind one
// chi router.
func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS", "DELETE"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	s.MountDocsOn(r, s.cfg.Title, s.cfg.Description)

	if s.deps.WebSocket != nil {
		r.Handle("/ws", s.deps.WebSocket)
	}

	r.Handle("/health", s.fuego.Mux)
	r.Handle("/api/*", s.fuego.Mux)

	return r
}

func (s *Server) registerRoutes() {
	// Health check
	fuego.Get(s.fuego, "/health", s.healthCheck,
		option.Summary("Health Check"),
		option.Description("Returns the health status of the API"),
		option.Tags("System"),
	)

	// Content API
	fuego.Get(s.fuego, "/api/v1/content/{kind}", s.getContent,
		option.Summary("Export Content"),
		option.Description("Returns stored records of one kind (post, comment, message) or all kinds for a period, oldest first"),
		option.Tags("Content"),
		option.Query("period", "week, two_weeks, month, three_months, all or custom (default: week)"),
		option.Query("start", "Custom period start (YYYY-MM-DD)"),
		option.Query("end", "Custom period end (YYYY-MM-DD)"),
	)

	fuego.Get(s.fuego, "/api/v1/search", s.search,
		option.Summary("Search Content"),
		option.Description("Substring search over posts, comments and group messages, newest first"),
		option.Tags("Content"),
		option.Query("q", "Search query (required)"),
		option.Query("period", "Optional period token; omitted means the whole history"),
		option.Query("start", "Custom period start (YYYY-MM-DD)"),
		option.Query("end", "Custom period end (YYYY-MM-DD)"),
	)

	// Stats API
	fuego.Get(s.fuego, "/api/v1/stats", s.getStats,
		option.Summary("Get Statistics"),
		option.Description("Returns totals, top channels, weekday activity, sentiment and media distributions"),
		option.Tags("Analytics"),
	)

	// Sources API
	sourcesGroup := fuego.Group(s.fuego, "/api/v1/sources",
		option.Tags("Sources"),
	)

	fuego.Get(sourcesGroup, "/", s.listSources,
		option.Summary("List Sources"),
		option.Description("Returns active monitored sources"),
	)

	fuego.Post(sourcesGroup, "/", s.createSource,
		option.Summary("Add Source"),
		option.Description("Resolves a public username through Telegram and registers it"),
	)

	fuego.Delete(sourcesGroup, "/{id}", s.deleteSource,
		option.Summary("Remove Source"),
		option.Description("Deactivates a monitored source"),
	)

	// Keywords API
	keywordsGroup := fuego.Group(s.fuego, "/api/v1/keywords",
		option.Tags("Keywords"),
	)

	fuego.Get(keywordsGroup, "/", s.listKeywords,
		option.Summary("List Keywords"),
		option.Description("Returns active alert keywords"),
	)

	fuego.Post(keywordsGroup, "/", s.createKeyword,
		option.Summary("Add Keyword"),
		option.Description("Adds an alert keyword; it applies to the next ingested message"),
	)

	fuego.Delete(keywordsGroup, "/{text}", s.deleteKeyword,
		option.Summary("Remove Keyword"),
		option.Description("Deactivates an alert keyword"),
	)

	// Ingestion API
	fuego.Get(s.fuego, "/api/v1/ingest/status", s.getIngestStatus,
		option.Summary("Get Ingestion Status"),
		option.Description("Returns the live ingestion stream state and counters"),
		option.Tags("Ingestion"),
	)

	backfillGroup := fuego.Group(s.fuego, "/api/v1/backfill",
		option.Tags("Ingestion"),
	)

	fuego.Post(backfillGroup, "/", s.startBackfill,
		option.Summary("Start Backfill"),
		option.Description("Loads recent history of a channel or group through the ingestion stream"),
	)

	fuego.Delete(backfillGroup, "/current", s.stopBackfill,
		option.Summary("Stop Backfill"),
		option.Description("Stops the running backfill"),
	)

	fuego.Get(backfillGroup, "/status", s.getBackfillStatus,
		option.Summary("Get Backfill Status"),
		option.Description("Returns the running backfill and the result of the last one"),
	)

	// Auth API
	authGroup := fuego.Group(s.fuego, "/api/v1/auth",
		option.Tags("Authentication"),
	)

	fuego.Get(authGroup, "/status", s.getAuthStatus,
		option.Summary("Get Auth Status"),
		option.Description("Returns Telegram authentication status"),
	)

	fuego.Post(authGroup, "/qr", s.startQRAuth,
		option.Summary("Start QR Auth"),
		option.Description("Initiates Telegram QR code login flow; the login URL is pushed over /ws"),
	)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server and blocks until it stops.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Mux returns the underlying ServeMux for mounting additional routes.
func (s *Server) Mux() *http.ServeMux {
	return s.fuego.Mux
}

// MountDocsOn mounts the OpenAPI documentation routes (/docs, /openapi.json)
// on a Chi router.
func (s *Server) MountDocsOn(r interface {
	Get(pattern string, handlerFn http.HandlerFunc)
}, title, description string) {
	// Serve Scalar UI directly at /docs
	scalarHandler := ScalarHandler("/openapi.json", title, description)
	r.Get("/docs", func(w http.ResponseWriter, req *http.Request) {
		scalarHandler.ServeHTTP(w, req)
	})

	// OpenAPI document generated by fuego
	r.Get("/openapi.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		doc := s.fuego.OpenAPI.Description()
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	})
}

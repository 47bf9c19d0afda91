package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/api"
	"github.com/pi4tnitsa/telegram-pareser/internal/collector"
	"github.com/pi4tnitsa/telegram-pareser/internal/config"
	"github.com/pi4tnitsa/telegram-pareser/internal/database"
	"github.com/pi4tnitsa/telegram-pareser/internal/dispatcher"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/nats"
	"github.com/pi4tnitsa/telegram-pareser/internal/publisher"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
	"github.com/pi4tnitsa/telegram-pareser/internal/web"
)

var version = "dev"

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Str("version", version).Msg("starting telegram monitor")

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REPORT_TIMEZONE")
	}

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Connect to database
	db, err := database.New(ctx, cfg.DatabaseURL, database.WithLogger(log.Component("gorm").GORM()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("dialect", db.Dialect()).Msg("database ready")

	// 5. Initialize repositories
	contentRepo := repository.NewContentRepository(db.GORM)
	queryRepo := repository.NewQueryRepository(db.GORM)
	statsRepo := repository.NewStatsRepository(db.GORM)
	sourcesRepo := repository.NewSourcesRepository(db.GORM)
	keywordsRepo := repository.NewKeywordsRepository(db.GORM)

	seed, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed file")
	}
	for _, kw := range seed.Keywords {
		if _, err := keywordsRepo.Add(ctx, kw); err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			log.Warn().Err(err).Str("keyword", kw).Msg("seed: failed to add keyword")
		}
	}

	// 6. WebSocket hub
	hub := web.NewHub()
	go hub.Run()
	defer hub.Close()

	// 7. Alert sinks
	sinks := []dispatcher.Sink{web.NewAlertSink(hub)}

	if cfg.BotToken != "" {
		bot, err := dispatcher.NewBotSender(cfg.BotToken, cfg.AlertChatIDs, log.Component("bot"))
		if err != nil {
			log.Warn().Err(err).Msg("bot sender disabled")
		} else {
			sinks = append(sinks, bot)
		}
	}

	if cfg.NatsURL != "" {
		nc, err := nats.New(ctx, cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, alert streaming disabled")
		} else {
			defer nc.Close()
			if err := nc.EnsureAlertStream(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to ensure alert stream")
			}
			sinks = append(sinks, publisher.NewNATSPublisher(nc))
		}
	}

	alerts := dispatcher.NewService(log.Component("dispatcher"), sinks...)
	log.Info().Strs("sinks", alerts.Sinks()).Msg("alert delivery configured")

	// 8. Telegram
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		log.Fatal().Msg("TG_API_ID and TG_API_HASH are required")
	}

	tgManager := telegram.NewManager(cfg, db.GORM)
	tgClient := telegram.NewClient(tgManager)
	defer tgClient.Close()

	// 9. Ingestion pipeline
	opts := []collector.Option{
		collector.WithFetcher(tgClient),
		collector.WithAlerts(alert.NewEvaluator(keywordsRepo, log.Component("alert")), alerts),
	}
	if cfg.MonitorRegisteredOnly {
		opts = append(opts, collector.WithSourceFilter(sourcesRepo))
	}

	svc := collector.NewService(contentRepo, loc, log.Component("collector"), opts...)
	runner := collector.NewRunner(svc, cfg.IngestQueueSize, log.Component("runner"))
	if _, err := runner.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start ingestion stream")
	}

	tgManager.SetMessageCallback(runner.Enqueue)
	if err := tgManager.Init(ctx); err != nil {
		log.Error().Err(err).Msg("telegram manager init failed")
	}

	registry := collector.NewRegistry(tgClient, sourcesRepo, log.Component("registry"))
	if len(seed.Sources) > 0 {
		if tgManager.GetStatus() == telegram.StatusReady {
			n := registry.Seed(ctx, seed.Sources)
			log.Info().Int("added", n).Int("listed", len(seed.Sources)).Msg("seed: sources registered")
		} else {
			log.Warn().Msg("seed: telegram not authorized, skipping sources")
		}
	}

	backfill := collector.NewBackfillManager(collector.NewBackfiller(tgClient, runner, log.Component("backfill")))
	backfill.OnFinish(func(job *collector.BackfillJob, res *collector.BackfillResult) {
		hub.Broadcast(web.WSEvent{Type: web.EventBackfillEnd, Payload: map[string]any{
			"job":    job,
			"result": res,
		}})
	})

	// 10. API server
	server := api.NewServer(&api.Config{
		Port:        cfg.HTTPPort,
		Title:       "Telegram Monitor API",
		Description: "Stored Telegram content, statistics, sources, keywords and alerts",
		Version:     version,
		Location:    loc,
	}, &api.Dependencies{
		Content:        queryRepo,
		StatsRepo:      statsRepo,
		SourcesRepo:    sourcesRepo,
		Registry:       registry,
		KeywordsRepo:   keywordsRepo,
		TelegramClient: tgClient,
		Runner:         runner,
		Backfill:       backfill,
		Hub:            hub,
		WebSocket:      web.Handler(hub),
	})

	log.Info().Int("port", cfg.HTTPPort).Msg("starting api server")
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	// 11. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down services...")

	backfill.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api server shutdown")
	}

	runner.Stop()
	stats := runner.Stats()
	log.Info().
		Int64("processed", stats.Processed).
		Int64("skipped", stats.Skipped).
		Int64("failed", stats.Failed).
		Int64("alerts", stats.Alerts).
		Msg("shutdown complete")
}

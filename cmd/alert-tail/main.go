// Command alert-tail prints keyword alerts from the NATS alert stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/config"
	"github.com/pi4tnitsa/telegram-pareser/internal/dispatcher"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/nats"
)

func main() {
	consumer := flag.String("consumer", "alert-tail", "durable consumer name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.LogLevel, ""); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()

	if cfg.NatsURL == "" {
		log.Fatal().Msg("NATS_URL is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	nc, err := nats.New(ctx, cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to nats")
	}
	defer nc.Close()

	if err := nc.EnsureAlertStream(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure alert stream")
	}

	cc, err := nc.ConsumeAlerts(ctx, *consumer, func(p alert.Payload) error {
		fmt.Printf("%s\n\n", dispatcher.FormatAlert(p))
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe")
	}
	defer cc.Stop()

	log.Info().Str("consumer", *consumer).Msg("waiting for alerts")
	<-ctx.Done()
}

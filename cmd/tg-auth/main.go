// Command tg-auth logs the monitor's Telegram user session in by QR code
// and stores it in the monitor database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdp/qrterminal/v3"

	"github.com/pi4tnitsa/telegram-pareser/internal/config"
	"github.com/pi4tnitsa/telegram-pareser/internal/database"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

func main() {
	fmt.Println("=== telegram auth tool ===")
	fmt.Println("scan the QR code with Telegram: Settings > Devices > Link Desktop Device")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		fmt.Fprintln(os.Stderr, "TG_API_ID and TG_API_HASH are required")
		os.Exit(1)
	}
	if err := logger.Init(cfg.LogLevel, ""); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := telegram.NewManager(cfg, db.GORM)
	if err := manager.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		os.Exit(1)
	}
	if manager.GetStatus() == telegram.StatusReady {
		fmt.Println("already authorized, nothing to do")
		manager.Stop()
		return
	}

	err = manager.StartQR(ctx, func(url string) {
		fmt.Println()
		qrterminal.GenerateWithConfig(url, qrterminal.Config{
			Level:      qrterminal.L,
			Writer:     os.Stdout,
			HalfBlocks: true,
			QuietZone:  1,
		})
		fmt.Println("waiting for scan... (the code refreshes automatically)")
	})
	defer manager.Stop()

	switch {
	case errors.Is(err, context.Canceled):
		fmt.Println("\ncanceled")
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "\nauth failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nsuccess! session saved to", cfg.DatabaseURL)
}

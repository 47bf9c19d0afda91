package telegram

import (
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/pi4tnitsa/telegram-pareser/internal/config"
)

// QRClientBundle holds a raw gotd client together with the update
// dispatcher and in-memory storage the QR login flow needs.
type QRClientBundle struct {
	Client     *telegram.Client
	Dispatcher *tg.UpdateDispatcher
	Storage    *session.StorageMemory
}

// NewQRClient creates a raw gotd client for QR login. It never prompts on
// stdin, unlike gotgproto.NewClient.
func NewQRClient(cfg *config.Config) (*QRClientBundle, error) {
	storage := &session.StorageMemory{}
	dispatcher := tg.NewUpdateDispatcher()

	client := telegram.NewClient(cfg.TGApiID, cfg.TGApiHash, telegram.Options{
		SessionStorage: storage,
		UpdateHandler:  &dispatcher,
	})

	return &QRClientBundle{
		Client:     client,
		Dispatcher: &dispatcher,
		Storage:    storage,
	}, nil
}

// Package publisher streams keyword alerts to NATS JetStream.
package publisher

import (
	"context"
	"fmt"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
)

// AlertPublisher stores an alert on the alert stream.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, p alert.Payload) error
}

// NATSPublisher is the alert sink backed by JetStream.
type NATSPublisher struct {
	js AlertPublisher
}

// NewNATSPublisher creates a new publisher
func NewNATSPublisher(js AlertPublisher) *NATSPublisher {
	return &NATSPublisher{js: js}
}

// Name identifies the sink in logs.
func (p *NATSPublisher) Name() string { return "nats" }

// Send publishes the alert.
func (p *NATSPublisher) Send(ctx context.Context, a alert.Payload) error {
	if err := p.js.PublishAlert(ctx, a); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

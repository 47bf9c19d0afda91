package web

import (
	"context"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
)

// WebSocket event types
const (
	EventAlert         = "alert.keyword"
	EventBackfillStart = "backfill.start"
	EventBackfillEnd   = "backfill.end"
	EventAuthQR        = "tg_qr"
	EventAuthSuccess   = "tg_auth_success"
	EventAuthError     = "error"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// AlertSink pushes keyword alerts to websocket clients.
type AlertSink struct {
	hub *Hub
}

// NewAlertSink creates an AlertSink broadcasting on hub.
func NewAlertSink(hub *Hub) *AlertSink {
	return &AlertSink{hub: hub}
}

// Name identifies the sink in logs.
func (s *AlertSink) Name() string { return "websocket" }

// Send broadcasts p as an EventAlert.
func (s *AlertSink) Send(_ context.Context, p alert.Payload) error {
	s.hub.Broadcast(WSEvent{Type: EventAlert, Payload: p})
	return nil
}

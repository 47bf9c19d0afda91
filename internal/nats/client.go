// Package nats carries keyword alerts over NATS JetStream.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
)

// Stream and subject holding keyword alerts.
const (
	AlertStream  = "ALERTS"
	AlertSubject = "alerts.keyword"
)

const (
	alertMaxAge     = 7 * 24 * time.Hour
	alertDedupeSpan = 2 * time.Minute
)

// ErrMalformedAlert is returned by DecodeAlert for payloads that are not alerts.
var ErrMalformedAlert = errors.New("malformed alert")

// Client holds the connection and its JetStream context.
type Client struct {
	Conn *nats.Conn
	js   jetstream.JetStream
}

// New connects to natsURL. The connection reconnects forever.
func New(_ context.Context, natsURL string) (*Client, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("telegram-monitor"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Client{Conn: conn, js: js}, nil
}

// EnsureAlertStream creates or updates AlertStream. Alerts are kept for a
// week; a publish repeated with the same alert id within the dedupe span is
// stored once.
func (c *Client) EnsureAlertStream(ctx context.Context) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       AlertStream,
		Subjects:   []string{AlertSubject},
		MaxAge:     alertMaxAge,
		Duplicates: alertDedupeSpan,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", AlertStream, err)
	}
	return nil
}

// PublishAlert stores p on AlertSubject, using its id as the message id.
func (c *Client) PublishAlert(ctx context.Context, p alert.Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	if _, err := c.js.Publish(ctx, AlertSubject, data, jetstream.WithMsgID(p.ID.String())); err != nil {
		return fmt.Errorf("publish alert %s: %w", p.ID, err)
	}
	return nil
}

// ConsumeAlerts delivers alerts to handler through the durable consumer
// named consumer. Handler errors nak the message for redelivery; payloads
// that fail DecodeAlert are terminated. Call Stop on the result to end.
func (c *Client) ConsumeAlerts(ctx context.Context, consumer string, handler func(alert.Payload) error) (jetstream.ConsumeContext, error) {
	cons, err := c.js.CreateOrUpdateConsumer(ctx, AlertStream, jetstream.ConsumerConfig{
		Durable:       consumer,
		FilterSubject: AlertSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer %s: %w", consumer, err)
	}

	return cons.Consume(func(msg jetstream.Msg) {
		p, err := DecodeAlert(msg.Data())
		if err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(p); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
}

// DecodeAlert parses a payload published by PublishAlert.
func DecodeAlert(data []byte) (alert.Payload, error) {
	var p alert.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return alert.Payload{}, fmt.Errorf("%w: %v", ErrMalformedAlert, err)
	}
	if p.ID == uuid.Nil || len(p.MatchedKeywords) == 0 {
		return alert.Payload{}, fmt.Errorf("%w: missing id or keywords", ErrMalformedAlert)
	}
	return p, nil
}

// Close closes the connection.
func (c *Client) Close() {
	c.Conn.Close()
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	return c.Conn.IsConnected()
}

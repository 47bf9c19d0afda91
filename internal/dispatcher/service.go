// Package dispatcher delivers keyword alerts to every configured sink.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
)

// Sink is a single alert delivery target.
type Sink interface {
	Name() string
	Send(ctx context.Context, p alert.Payload) error
}

// Service fans an alert out to all sinks. A failing sink does not keep the
// alert from the others.
type Service struct {
	sinks []Sink
	log   *logger.Logger
}

// NewService creates a new Service. Nil sinks are skipped.
func NewService(log *logger.Logger, sinks ...Sink) *Service {
	s := &Service{log: log}
	for _, sink := range sinks {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
	return s
}

// Sinks returns the names of the configured sinks.
func (s *Service) Sinks() []string {
	names := make([]string, 0, len(s.sinks))
	for _, sink := range s.sinks {
		names = append(names, sink.Name())
	}
	return names
}

// Send delivers p to every sink and joins their errors.
func (s *Service) Send(ctx context.Context, p alert.Payload) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Send(ctx, p); err != nil {
			s.log.Error().Err(err).Str("sink", sink.Name()).Str("alert_id", p.ID.String()).Msg("dispatcher: delivery failed")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		s.log.Debug().Str("sink", sink.Name()).Str("alert_id", p.ID.String()).Msg("dispatcher: alert delivered")
	}
	return errors.Join(errs...)
}

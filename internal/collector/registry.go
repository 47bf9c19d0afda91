package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// ChannelResolver looks up a chat by public username.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, username string) (*telegram.Channel, error)
}

// SourceStore persists monitored sources.
type SourceStore interface {
	Add(ctx context.Context, src *models.MonitoredSource) error
}

// Registry registers chats for monitoring.
type Registry struct {
	resolver ChannelResolver
	sources  SourceStore
	log      *logger.Logger
}

// NewRegistry creates a new Registry.
func NewRegistry(resolver ChannelResolver, sources SourceStore, log *logger.Logger) *Registry {
	return &Registry{resolver: resolver, sources: sources, log: log}
}

// SourceKindOf classifies a resolved chat.
func SourceKindOf(ch *telegram.Channel) models.SourceKind {
	switch {
	case ch.Megagroup:
		return models.SourceGroup
	case ch.Broadcast:
		return models.SourceChannel
	default:
		return models.SourceChat
	}
}

// AddSource resolves username and registers the chat. When the chat is
// already monitored the stored source is returned with
// repository.ErrAlreadyExists.
func (r *Registry) AddSource(ctx context.Context, username string) (*models.MonitoredSource, error) {
	ch, err := r.resolver.ResolveChannel(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", username, err)
	}

	name := ch.Title
	if name == "" {
		name = ch.Username
	}

	src := &models.MonitoredSource{
		ExternalID:  ch.ExternalID(),
		DisplayName: name,
		Username:    ch.Username,
		Kind:        SourceKindOf(ch),
	}

	err = r.sources.Add(ctx, src)
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		r.log.Info().Str("source", src.DisplayName).Msg("source already monitored")
		return src, err
	case err != nil:
		return nil, err
	}

	r.log.Info().Str("source", src.DisplayName).Str("kind", string(src.Kind)).Str("external_id", src.ExternalID).Msg("source registered")
	return src, nil
}

// Seed registers every username, continuing past failures. It returns the
// number of newly registered sources.
func (r *Registry) Seed(ctx context.Context, usernames []string) int {
	added := 0
	for _, u := range usernames {
		_, err := r.AddSource(ctx, u)
		switch {
		case err == nil:
			added++
		case errors.Is(err, repository.ErrAlreadyExists):
		default:
			r.log.Warn().Err(err).Str("username", u).Msg("seed: failed to add source")
		}
	}
	return added
}

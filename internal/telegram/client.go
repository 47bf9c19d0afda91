// Package telegram provides Telegram MTProto client wrapper.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/celestix/gotgproto"
	"github.com/gotd/td/tg"

	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
)

var (
	ErrNotAuthorized   = errors.New("telegram client not authorized")
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Client wraps gotgproto client and provides high-level telegram operations.
// It uses the Manager to access the underlying protocol client.
type Client struct {
	manager     *Manager
	rateLimiter *RateLimiter
	log         *logger.Logger
}

// NewClient creates a new telegram client wrapper using the Manager.
func NewClient(manager *Manager) *Client {
	return &Client{
		manager:     manager,
		rateLimiter: DefaultRateLimiter(),
		log:         logger.Get().Component("telegram"),
	}
}

// Close stops the client via the manager.
func (c *Client) Close() {
	if c.manager != nil {
		c.manager.Stop()
	}
}

// GetStatus returns the current status of the telegram client.
func (c *Client) GetStatus() Status {
	return c.manager.GetStatus()
}

// StartQR starts the QR login flow by proxying to the manager.
func (c *Client) StartQR(ctx context.Context, onQRCode func(url string)) error {
	return c.manager.StartQR(ctx, onQRCode)
}

// IsQRInProgress returns true if a QR login flow is currently in progress.
func (c *Client) IsQRInProgress() bool {
	return c.manager.IsQRInProgress()
}

func (c *Client) getProto() (*gotgproto.Client, error) {
	proto := c.manager.GetClient()
	if proto == nil {
		return nil, ErrNotAuthorized
	}
	return proto, nil
}

// API returns the raw tg.Client for direct API calls.
func (c *Client) API() (*tg.Client, error) {
	proto, err := c.getProto()
	if err != nil {
		return nil, err
	}
	return proto.API(), nil
}

// wait blocks on the rate limiter.
func (c *Client) wait(ctx context.Context, op string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("telegram: rate limiter wait failed")
		return err
	}
	return nil
}

// noteFloodWait feeds FLOOD_WAIT errors back into the rate limiter.
func (c *Client) noteFloodWait(err error, op string) {
	if wait := c.checkFloodWait(err); wait > 0 {
		c.log.Warn().Int("wait_seconds", wait).Str("op", op).Msg("telegram: FLOOD_WAIT detected, updating rate limiter")
		c.rateLimiter.SetFloodWait(wait)
	}
}

// ResolveChannel resolves a public username to chat info.
// username can be with or without @ prefix
func (c *Client) ResolveChannel(ctx context.Context, username string) (*Channel, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return nil, fmt.Errorf("resolve username: %w", ErrChatNotFound)
	}

	if err := c.wait(ctx, "resolve"); err != nil {
		return nil, err
	}

	api, err := c.API()
	if err != nil {
		return nil, err
	}

	c.log.Info().Str("username", username).Msg("telegram: resolving username")
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
		Username: username,
	})
	if err != nil {
		c.noteFloodWait(err, "resolve")
		c.log.Error().Err(err).Str("username", username).Msg("telegram: failed to resolve username")
		return nil, fmt.Errorf("resolve username %s: %w", username, err)
	}

	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			out := channelFromTG(ch)
			if out.Username == "" {
				out.Username = username
			}
			return out, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", username, ErrChatNotFound)
}

// GetMessage fetches a single message from chat by id.
func (c *Client) GetMessage(ctx context.Context, chat *Channel, id int) (*Message, error) {
	if chat == nil {
		return nil, fmt.Errorf("get message %d: %w", id, ErrChatNotFound)
	}

	if err := c.wait(ctx, "get_message"); err != nil {
		return nil, err
	}

	api, err := c.API()
	if err != nil {
		return nil, err
	}

	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: id}}

	var result tg.MessagesMessagesClass
	if chat.Broadcast || chat.Megagroup || chat.AccessHash != 0 {
		result, err = api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash},
			ID:      ids,
		})
	} else {
		result, err = api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		c.noteFloodWait(err, "get_message")
		return nil, fmt.Errorf("get message %d: %w", id, err)
	}

	messages := c.extractMessages(result, chat)
	if len(messages) == 0 {
		return nil, fmt.Errorf("get message %d: %w", id, ErrMessageNotFound)
	}
	return &messages[0], nil
}

// GetMessages fetches messages from a channel
// offsetID: start from this message id (0 = newest messages)
// limit: max number of messages to fetch (max 100)
func (c *Client) GetMessages(ctx context.Context, channel *Channel, offsetID int, limit int) ([]Message, error) {
	if limit > 100 {
		limit = 100 // telegram api limit
	}

	if err := c.wait(ctx, "history"); err != nil {
		return nil, err
	}

	c.log.Debug().Int64("channel_id", channel.ID).Int("offset_id", offsetID).Int("limit", limit).Msg("telegram: calling MessagesGetHistory API")
	api, err := c.API()
	if err != nil {
		return nil, err
	}
	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		},
		OffsetID: offsetID,
		Limit:    limit,
	})
	if err != nil {
		c.noteFloodWait(err, "history")
		c.log.Error().Err(err).Int("offset_id", offsetID).Msg("telegram: MessagesGetHistory failed")
		return nil, fmt.Errorf("get history: %w", err)
	}

	return c.extractMessages(history, channel), nil
}

// extractMessages converts telegram message response to our Message type.
// Service messages and empty slots are skipped.
func (c *Client) extractMessages(messagesClass tg.MessagesMessagesClass, channel *Channel) []Message {
	var (
		raw []tg.MessageClass
		idx peers
	)

	switch h := messagesClass.(type) {
	case *tg.MessagesChannelMessages:
		raw, idx = h.Messages, peersFromLists(h.Users, h.Chats)
	case *tg.MessagesMessages:
		raw, idx = h.Messages, peersFromLists(h.Users, h.Chats)
	case *tg.MessagesMessagesSlice:
		raw, idx = h.Messages, peersFromLists(h.Users, h.Chats)
	}

	messages := make([]Message, 0, len(raw))
	for _, msg := range raw {
		m, ok := msg.(*tg.Message)
		if !ok {
			continue
		}
		messages = append(messages, convertMessage(m, idx, channel))
	}
	return messages
}

// checkFloodWait checks if error is a FLOOD_WAIT error and returns wait seconds
func (c *Client) checkFloodWait(err error) int {
	if err == nil {
		return 0
	}

	// format is FLOOD_WAIT_X where X is seconds,
	// e.g. "rpc error: code 420: FLOOD_WAIT_15"
	str := err.Error()
	parts := strings.Split(str, "FLOOD_WAIT_")
	if len(parts) < 2 {
		return 0
	}

	var seconds int
	_, _ = fmt.Sscanf(strings.TrimSpace(parts[1]), "%d", &seconds)
	return seconds
}

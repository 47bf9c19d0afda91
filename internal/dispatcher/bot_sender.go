package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// ErrNoRecipients is returned by NewBotSender without chat ids.
var ErrNoRecipients = errors.New("no alert recipients configured")

// BotAPI is the part of tgbotapi.BotAPI used for sending.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotSender posts alerts to operator chats through the Bot API.
type BotSender struct {
	bot     BotAPI
	chatIDs []int64
	log     *logger.Logger
}

// NewBotSender connects to the Bot API with token.
func NewBotSender(token string, chatIDs []int64, log *logger.Logger) (*BotSender, error) {
	if len(chatIDs) == 0 {
		return nil, ErrNoRecipients
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Int("recipients", len(chatIDs)).Msg("dispatcher: bot sender ready")
	return NewBotSenderWithAPI(bot, chatIDs, log), nil
}

// NewBotSenderWithAPI creates a sender on top of an existing client.
func NewBotSenderWithAPI(bot BotAPI, chatIDs []int64, log *logger.Logger) *BotSender {
	return &BotSender{bot: bot, chatIDs: chatIDs, log: log}
}

// Name identifies the sink in logs.
func (s *BotSender) Name() string { return "bot" }

// Send delivers p to every chat. Each chat is tried even if an earlier one
// failed.
func (s *BotSender) Send(ctx context.Context, p alert.Payload) error {
	text := FormatAlert(p)

	var errs []error
	for _, id := range s.chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.bot.Send(tgbotapi.NewMessage(id, text)); err != nil {
			s.log.Warn().Err(err).Int64("chat_id", id).Msg("dispatcher: bot send failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

var kindLabels = map[models.ContentKind]string{
	models.KindPost:    "post",
	models.KindComment: "comment",
	models.KindMessage: "group message",
}

// FormatAlert renders p as a plain-text notification.
func FormatAlert(p alert.Payload) string {
	label, ok := kindLabels[p.ContentKind]
	if !ok {
		label = string(p.ContentKind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Keyword detected in %s: %s\n\n", label, strings.Join(p.MatchedKeywords, ", "))
	fmt.Fprintf(&b, "Source: %s\n", p.SourceName)
	fmt.Fprintf(&b, "Date: %s\n", p.Timestamp)
	fmt.Fprintf(&b, "Text: %s", p.TextExcerpt)
	if len([]rune(p.TextExcerpt)) >= alert.ExcerptLength {
		b.WriteString("...")
	}
	return b.String()
}

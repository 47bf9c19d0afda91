package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/sentiment"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

// Text stored in place of missing content.
const (
	NoTextPlaceholder      = "Message without text"
	UnavailablePlaceholder = "Original post unavailable"
)

// DefaultFetchTimeout bounds the remote lookup of a reply's parent.
const DefaultFetchTimeout = 10 * time.Second

var (
	// ErrIgnoredPeer is returned for messages from private chats.
	ErrIgnoredPeer = errors.New("message from unsupported peer")
	// ErrUnmonitored is returned when only registered sources are ingested
	// and the chat is not one of them.
	ErrUnmonitored = errors.New("chat is not a monitored source")
)

// ContentStore persists classified content.
type ContentStore interface {
	FindPost(ctx context.Context, channelName string, sourceMessageID int) (*models.Post, error)
	CreatePost(ctx context.Context, p *models.Post) (bool, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	CreateMessage(ctx context.Context, m *models.GroupMessage) error
}

// HistoryFetcher loads a single message from Telegram.
type HistoryFetcher interface {
	GetMessage(ctx context.Context, chat *telegram.Channel, id int) (*telegram.Message, error)
}

// AlertEvaluator matches a stored record against the active keywords.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, rec models.Record) (*alert.Payload, error)
}

// AlertSink delivers keyword alerts.
type AlertSink interface {
	Send(ctx context.Context, p alert.Payload) error
}

// SourceFilter reports whether a chat is registered for monitoring.
type SourceFilter interface {
	IsActive(ctx context.Context, externalID string) (bool, error)
}

// Outcome tells how a reply's parent snapshot was obtained.
type Outcome string

// Outcome constants.
const (
	OutcomeLocal      Outcome = "local"      // parent post found in the store
	OutcomeRemote     Outcome = "remote"     // parent fetched from Telegram
	OutcomeUnresolved Outcome = "unresolved" // placeholder used
)

// Resolution is the result of parent lookup for a reply.
type Resolution struct {
	Outcome  Outcome
	Snapshot string
	PostID   *uint
}

// Result describes what Ingest stored for one message.
type Result struct {
	Kind       models.ContentKind
	Record     models.Record
	Resolution *Resolution
	Alert      *alert.Payload
	// Duplicate is set when the post already existed and nothing was written.
	Duplicate bool
}

// Service classifies incoming messages and stores them.
type Service struct {
	store        ContentStore
	fetcher      HistoryFetcher
	evaluator    AlertEvaluator
	sink         AlertSink
	sources      SourceFilter
	loc          *time.Location
	fetchTimeout time.Duration
	log          *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher enables remote lookup of reply parents.
func WithFetcher(f HistoryFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithAlerts enables keyword alerts.
func WithAlerts(e AlertEvaluator, sink AlertSink) Option {
	return func(s *Service) {
		s.evaluator = e
		s.sink = sink
	}
}

// WithSourceFilter restricts ingestion to registered sources.
func WithSourceFilter(f SourceFilter) Option {
	return func(s *Service) { s.sources = f }
}

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

// NewService creates a classifier writing to store. Timestamps are rendered in loc.
func NewService(store ContentStore, loc *time.Location, log *logger.Logger, opts ...Option) *Service {
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		store:        store,
		loc:          loc,
		fetchTimeout: DefaultFetchTimeout,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest classifies msg as a post, comment or group message and stores it.
// Keyword alerts are raised after the row is committed, including for a post
// that was already stored; their failures are logged and never returned.
func (s *Service) Ingest(ctx context.Context, msg telegram.Message) (*Result, error) {
	if msg.PeerKind == telegram.PeerUser {
		return nil, ErrIgnoredPeer
	}

	if s.sources != nil {
		ok, err := s.sources.IsActive(ctx, strconv.FormatInt(msg.ChannelID, 10))
		if err != nil {
			return nil, fmt.Errorf("check source: %w", err)
		}
		if !ok {
			return nil, ErrUnmonitored
		}
	}

	var (
		res *Result
		err error
	)
	switch {
	case msg.ReplyToID != nil:
		res, err = s.ingestComment(ctx, &msg)
	case msg.PeerKind == telegram.PeerChannel:
		res, err = s.ingestPost(ctx, &msg)
	default:
		res, err = s.ingestGroupMessage(ctx, &msg)
	}
	if err != nil {
		return nil, err
	}

	// a duplicate post is matched against the current keyword set too
	res.Alert = s.raiseAlert(ctx, res.Record)
	return res, nil
}

func (s *Service) timestamp(msg *telegram.Message) string {
	return models.FormatTime(msg.Date, s.loc)
}

func textOrPlaceholder(text string) string {
	if text == "" {
		return NoTextPlaceholder
	}
	return text
}

func author(msg *telegram.Message) (*int64, *string) {
	if msg.Sender == nil {
		return nil, nil
	}
	id := msg.Sender.ID
	name := msg.Sender.DisplayName()
	return &id, &name
}

func (s *Service) ingestPost(ctx context.Context, msg *telegram.Message) (*Result, error) {
	post := &models.Post{
		Timestamp:       s.timestamp(msg),
		ChannelName:     msg.SourceName(),
		Content:         textOrPlaceholder(msg.Text),
		SourceMessageID: msg.ID,
		Views:           max(msg.Views, 0),
		Forwards:        max(msg.Forwards, 0),
	}

	created, err := s.store.CreatePost(ctx, post)
	if err != nil {
		return nil, err
	}

	if created {
		s.log.Info().Str("channel", post.ChannelName).Int("message_id", msg.ID).Str("at", post.Timestamp).Msg("post stored")
	} else {
		s.log.Debug().Str("channel", post.ChannelName).Int("message_id", msg.ID).Msg("post already stored")
	}

	return &Result{
		Kind:      models.KindPost,
		Record:    models.PostRecord(post),
		Duplicate: !created,
	}, nil
}

func (s *Service) ingestComment(ctx context.Context, msg *telegram.Message) (*Result, error) {
	channel := msg.SourceName()
	res := s.resolveParent(ctx, msg, channel)

	text := textOrPlaceholder(msg.Text)
	authorID, username := author(msg)
	comment := &models.Comment{
		Timestamp:      s.timestamp(msg),
		ChannelName:    channel,
		ParentContent:  res.Snapshot,
		Text:           text,
		AuthorID:       authorID,
		AuthorUsername: username,
		ParentPostID:   res.PostID,
		Sentiment:      sentiment.Tag(text),
	}

	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("channel", channel).
		Int("reply_to", *msg.ReplyToID).
		Str("parent", string(res.Outcome)).
		Str("sentiment", string(comment.Sentiment)).
		Msg("comment stored")

	return &Result{
		Kind:       models.KindComment,
		Record:     models.CommentRecord(comment),
		Resolution: res,
	}, nil
}

// resolveParent finds the snapshot of the message a reply points at. It
// never fails: lookup errors degrade to the placeholder.
func (s *Service) resolveParent(ctx context.Context, msg *telegram.Message, channel string) *Resolution {
	parentID := *msg.ReplyToID

	post, err := s.store.FindPost(ctx, channel, parentID)
	if err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Int("parent_id", parentID).Msg("parent lookup failed")
	}
	if post != nil {
		id := post.ID
		return &Resolution{Outcome: OutcomeLocal, Snapshot: post.Content, PostID: &id}
	}

	if s.fetcher == nil {
		return &Resolution{Outcome: OutcomeUnresolved, Snapshot: UnavailablePlaceholder}
	}

	chat := msg.Chat
	if chat == nil {
		chat = &telegram.Channel{ID: msg.ChannelID, Megagroup: msg.PeerKind == telegram.PeerGroup}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	parent, err := s.fetcher.GetMessage(fetchCtx, chat, parentID)
	if err != nil || parent == nil {
		s.log.Warn().Err(err).Str("channel", channel).Int("parent_id", parentID).Msg("parent fetch failed, using placeholder")
		return &Resolution{Outcome: OutcomeUnresolved, Snapshot: UnavailablePlaceholder}
	}

	return &Resolution{Outcome: OutcomeRemote, Snapshot: textOrPlaceholder(parent.Text)}
}

func (s *Service) ingestGroupMessage(ctx context.Context, msg *telegram.Message) (*Result, error) {
	authorID, username := author(msg)
	gm := &models.GroupMessage{
		Timestamp:      s.timestamp(msg),
		SourceName:     msg.SourceName(),
		Content:        textOrPlaceholder(msg.Text),
		AuthorID:       authorID,
		AuthorUsername: username,
		MediaKind:      mediaKind(msg.Media),
	}

	if err := s.store.CreateMessage(ctx, gm); err != nil {
		return nil, err
	}

	s.log.Info().Str("source", gm.SourceName).Str("media", string(gm.MediaKind)).Msg("group message stored")

	return &Result{
		Kind:   models.KindMessage,
		Record: models.MessageRecord(gm),
	}, nil
}

// mediaKind picks the first present attachment in photo, document, video,
// audio order.
func mediaKind(m telegram.Media) models.MediaKind {
	switch {
	case m.Photo:
		return models.MediaPhoto
	case m.Document:
		return models.MediaDocument
	case m.Video:
		return models.MediaVideo
	case m.Audio:
		return models.MediaAudio
	}
	return models.MediaNone
}

func (s *Service) raiseAlert(ctx context.Context, rec models.Record) *alert.Payload {
	if s.evaluator == nil {
		return nil
	}

	p, err := s.evaluator.Evaluate(ctx, rec)
	if err != nil {
		s.log.Warn().Err(err).Str("kind", string(rec.Kind)).Uint("record_id", rec.ID()).Msg("keyword evaluation failed")
		return nil
	}
	if p == nil {
		return nil
	}

	if s.sink != nil {
		if err := s.sink.Send(ctx, *p); err != nil {
			s.log.Error().Err(err).Str("alert_id", p.ID.String()).Msg("alert delivery failed")
		}
	}
	return p
}

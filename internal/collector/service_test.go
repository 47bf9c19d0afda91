package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/repository"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

func newService(db *gorm.DB, opts ...Option) *Service {
	return NewService(repository.NewContentRepository(db), msk, logger.Get(), opts...)
}

func TestService_Ingest_ChannelPost(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)

	msg := channelPost(10, "Launch day", at(7, 30))
	msg.Views, msg.Forwards = 120, 4

	res, err := svc.Ingest(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, models.KindPost, res.Kind)
	assert.False(t, res.Duplicate)
	assert.Nil(t, res.Resolution)

	var stored models.Post
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "2024-01-01 10:30:00", stored.Timestamp)
	assert.Equal(t, "News", stored.ChannelName)
	assert.Equal(t, "Launch day", stored.Content)
	assert.Equal(t, 10, stored.SourceMessageID)
	assert.Equal(t, 120, stored.Views)
	assert.Equal(t, 4, stored.Forwards)
	assert.Equal(t, stored.ID, res.Record.ID())
}

func TestService_Ingest_EmptyTextPlaceholder(t *testing.T) {
	db := newTestDB(t)

	res, err := newService(db).Ingest(context.Background(), channelPost(11, "", at(8, 0)))
	require.NoError(t, err)
	assert.Equal(t, NoTextPlaceholder, res.Record.Text())
}

func TestService_Ingest_DuplicatePost(t *testing.T) {
	db := newTestDB(t)
	sink := &mockSink{}
	sink.On("Send", mock.Anything, mock.Anything).Return(nil).Twice()

	kw := repository.NewKeywordsRepository(db)
	_, err := kw.Add(context.Background(), "launch")
	require.NoError(t, err)

	svc := newService(db, WithAlerts(alert.NewEvaluator(kw, logger.Get()), sink))

	first, err := svc.Ingest(context.Background(), channelPost(10, "Launch day", at(7, 0)))
	require.NoError(t, err)
	require.NotNil(t, first.Alert)

	second, err := svc.Ingest(context.Background(), channelPost(10, "Launch day", at(7, 0)))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	require.NotNil(t, second.Alert)
	assert.Equal(t, []string{"launch"}, second.Alert.MatchedKeywords)
	assert.Equal(t, first.Record.ID(), second.Record.ID())

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	sink.AssertExpectations(t)
}

func TestService_Ingest_KeywordAddedBeforeReingest(t *testing.T) {
	db := newTestDB(t)
	sink := &mockSink{}
	sink.On("Send", mock.Anything, mock.MatchedBy(func(p alert.Payload) bool {
		return p.RecordID == 1
	})).Return(nil).Once()

	kw := repository.NewKeywordsRepository(db)
	svc := newService(db, WithAlerts(alert.NewEvaluator(kw, logger.Get()), sink))

	first, err := svc.Ingest(context.Background(), channelPost(42, "Launch day", at(7, 0)))
	require.NoError(t, err)
	assert.Nil(t, first.Alert)

	_, err = kw.Add(context.Background(), "launch")
	require.NoError(t, err)

	res, err := svc.Ingest(context.Background(), channelPost(42, "Launch day", at(7, 0)))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	require.NotNil(t, res.Alert)
	assert.Equal(t, []string{"launch"}, res.Alert.MatchedKeywords)
	assert.Equal(t, models.KindPost, res.Alert.ContentKind)
	assert.Equal(t, first.Record.ID(), res.Alert.RecordID)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	sink.AssertExpectations(t)
}

func TestService_Ingest_CommentLocalParent(t *testing.T) {
	db := newTestDB(t)
	fetcher := &mockFetcher{}
	svc := newService(db, WithFetcher(fetcher))

	post, err := svc.Ingest(context.Background(), channelPost(10, "Release notes", at(7, 0)))
	require.NoError(t, err)

	res, err := svc.Ingest(context.Background(), reply(11, 10, "Отлично, супер!", at(7, 5)))
	require.NoError(t, err)
	assert.Equal(t, models.KindComment, res.Kind)
	require.NotNil(t, res.Resolution)
	assert.Equal(t, OutcomeLocal, res.Resolution.Outcome)

	c := res.Record.Comment
	require.NotNil(t, c)
	assert.Equal(t, "Release notes", c.ParentContent)
	require.NotNil(t, c.ParentPostID)
	assert.Equal(t, post.Record.ID(), *c.ParentPostID)
	assert.Equal(t, models.SentimentPositive, c.Sentiment)
	require.NotNil(t, c.AuthorID)
	assert.Equal(t, int64(9), *c.AuthorID)
	assert.Equal(t, "alice", *c.AuthorUsername)
	assert.Equal(t, "2024-01-01 10:05:00", c.Timestamp)

	fetcher.AssertNotCalled(t, "GetMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Ingest_CommentRemoteParent(t *testing.T) {
	db := newTestDB(t)
	fetcher := &mockFetcher{}
	fetcher.On("GetMessage", mock.Anything, newsChat, 3).Return(&telegram.Message{ID: 3, Text: "Old announcement"}, nil)
	fetcher.On("GetMessage", mock.Anything, newsChat, 4).Return(&telegram.Message{ID: 4}, nil)

	svc := newService(db, WithFetcher(fetcher))

	res, err := svc.Ingest(context.Background(), reply(20, 3, "nice", at(9, 0)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRemote, res.Resolution.Outcome)
	assert.Equal(t, "Old announcement", res.Record.Comment.ParentContent)
	assert.Nil(t, res.Record.Comment.ParentPostID)

	res, err = svc.Ingest(context.Background(), reply(21, 4, "ok", at(9, 1)))
	require.NoError(t, err)
	assert.Equal(t, NoTextPlaceholder, res.Record.Comment.ParentContent)

	fetcher.AssertExpectations(t)
}

func TestService_Ingest_CommentUnresolvedParent(t *testing.T) {
	t.Run("fetch error", func(t *testing.T) {
		db := newTestDB(t)
		fetcher := &mockFetcher{}
		fetcher.On("GetMessage", mock.Anything, mock.Anything, 3).Return(nil, errors.New("CHANNEL_PRIVATE"))

		res, err := newService(db, WithFetcher(fetcher)).Ingest(context.Background(), reply(20, 3, "плохо", at(9, 0)))
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnresolved, res.Resolution.Outcome)
		assert.Equal(t, UnavailablePlaceholder, res.Record.Comment.ParentContent)
		assert.Nil(t, res.Record.Comment.ParentPostID)
		assert.Equal(t, models.SentimentNegative, res.Record.Comment.Sentiment)
	})

	t.Run("no fetcher", func(t *testing.T) {
		db := newTestDB(t)

		res, err := newService(db).Ingest(context.Background(), reply(20, 3, "hmm", at(9, 0)))
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnresolved, res.Resolution.Outcome)
		assert.Equal(t, UnavailablePlaceholder, res.Record.Comment.ParentContent)
		assert.Equal(t, models.SentimentNeutral, res.Record.Comment.Sentiment)
	})
}

func TestService_Ingest_GroupMessage(t *testing.T) {
	tests := []struct {
		name  string
		media telegram.Media
		want  models.MediaKind
	}{
		{"text only", telegram.Media{}, models.MediaNone},
		{"photo wins", telegram.Media{Photo: true, Video: true}, models.MediaPhoto},
		{"document", telegram.Media{Document: true}, models.MediaDocument},
		{"video", telegram.Media{Video: true, Audio: true}, models.MediaVideo},
		{"audio", telegram.Media{Audio: true}, models.MediaAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)

			res, err := newService(db).Ingest(context.Background(), groupMessage(1, "hi", tt.media))
			require.NoError(t, err)
			assert.Equal(t, models.KindMessage, res.Kind)

			m := res.Record.Message
			require.NotNil(t, m)
			assert.Equal(t, tt.want, m.MediaKind)
			assert.Equal(t, "Devs", m.SourceName)
			assert.Equal(t, "User_5", *m.AuthorUsername)
		})
	}
}

func TestService_Ingest_PrivateChatIgnored(t *testing.T) {
	db := newTestDB(t)

	_, err := newService(db).Ingest(context.Background(), telegram.Message{ID: 1, ChannelID: 7, PeerKind: telegram.PeerUser})
	assert.ErrorIs(t, err, ErrIgnoredPeer)
}

func TestService_Ingest_SourceFilter(t *testing.T) {
	db := newTestDB(t)
	filter := &mockSourceFilter{}
	filter.On("IsActive", mock.Anything, "100").Return(true, nil)
	filter.On("IsActive", mock.Anything, "200").Return(false, nil)

	svc := newService(db, WithSourceFilter(filter))

	_, err := svc.Ingest(context.Background(), channelPost(1, "ok", at(1, 0)))
	assert.NoError(t, err)

	_, err = svc.Ingest(context.Background(), groupMessage(1, "not monitored", telegram.Media{}))
	assert.ErrorIs(t, err, ErrUnmonitored)

	filter.AssertExpectations(t)
}

func TestService_Ingest_AlertSinkErrorDoesNotFail(t *testing.T) {
	db := newTestDB(t)
	kw := repository.NewKeywordsRepository(db)
	_, err := kw.Add(context.Background(), "Outage")
	require.NoError(t, err)

	sink := &mockSink{}
	sink.On("Send", mock.Anything, mock.MatchedBy(func(p alert.Payload) bool {
		return p.ContentKind == models.KindMessage && p.SourceName == "Devs"
	})).Return(errors.New("bot down"))

	res, err := newService(db, WithAlerts(alert.NewEvaluator(kw, logger.Get()), sink)).
		Ingest(context.Background(), groupMessage(1, "big OUTAGE in prod", telegram.Media{}))
	require.NoError(t, err)
	require.NotNil(t, res.Alert)
	assert.Equal(t, []string{"outage"}, res.Alert.MatchedKeywords)
	assert.Equal(t, res.Record.ID(), res.Alert.RecordID)
	sink.AssertExpectations(t)
}

type failingStore struct {
	*repository.ContentRepository
}

func (failingStore) CreatePost(context.Context, *models.Post) (bool, error) {
	return false, errors.New("disk full")
}

func TestService_Ingest_PersistenceError(t *testing.T) {
	svc := NewService(failingStore{}, msk, logger.Get())

	_, err := svc.Ingest(context.Background(), channelPost(1, "x", at(1, 0)))
	assert.EqualError(t, err, "disk full")
}

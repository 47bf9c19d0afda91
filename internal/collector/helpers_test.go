package collector

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/telegram"
)

var msk = time.FixedZone("MSK", 3*60*60)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.Tables()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetMessage(ctx context.Context, chat *telegram.Channel, id int) (*telegram.Message, error) {
	args := m.Called(ctx, chat, id)
	if v := args.Get(0); v != nil {
		return v.(*telegram.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Send(ctx context.Context, p alert.Payload) error {
	return m.Called(ctx, p).Error(0)
}

type mockSourceFilter struct {
	mock.Mock
}

func (m *mockSourceFilter) IsActive(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

var (
	newsChannel = &telegram.Channel{ID: 100, AccessHash: 1, Title: "News", Broadcast: true}
	newsChat    = &telegram.Channel{ID: 100, AccessHash: 1, Title: "News", Megagroup: true}
	devsGroup   = &telegram.Channel{ID: 200, AccessHash: 2, Title: "Devs", Megagroup: true}
)

func at(hh, mm int) time.Time {
	return time.Date(2024, 1, 1, hh, mm, 0, 0, time.UTC)
}

func channelPost(id int, text string, date time.Time) telegram.Message {
	return telegram.Message{
		ID:        id,
		ChannelID: newsChannel.ID,
		PeerKind:  telegram.PeerChannel,
		Chat:      newsChannel,
		Text:      text,
		Date:      date,
	}
}

func reply(id, to int, text string, date time.Time) telegram.Message {
	return telegram.Message{
		ID:        id,
		ChannelID: newsChat.ID,
		PeerKind:  telegram.PeerGroup,
		Chat:      newsChat,
		Text:      text,
		Date:      date,
		ReplyToID: &to,
		Sender:    &telegram.Sender{ID: 9, Username: "alice"},
	}
}

func groupMessage(id int, text string, media telegram.Media) telegram.Message {
	return telegram.Message{
		ID:        id,
		ChannelID: devsGroup.ID,
		PeerKind:  telegram.PeerGroup,
		Chat:      devsGroup,
		Text:      text,
		Date:      at(12, 0),
		Sender:    &telegram.Sender{ID: 5},
		Media:     media,
	}
}

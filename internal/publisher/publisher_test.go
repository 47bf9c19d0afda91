package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi4tnitsa/telegram-pareser/internal/alert"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// MockJetStream records published alerts
type MockJetStream struct {
	Published    []alert.Payload
	PublishError error
}

func (m *MockJetStream) PublishAlert(_ context.Context, p alert.Payload) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.Published = append(m.Published, p)
	return nil
}

func TestNATSPublisher_Send(t *testing.T) {
	js := &MockJetStream{}
	pub := NewNATSPublisher(js)
	assert.Equal(t, "nats", pub.Name())

	p := alert.Payload{
		ID:              uuid.New(),
		MatchedKeywords: []string{"launch"},
		ContentKind:     models.KindPost,
		SourceName:      "News",
		Timestamp:       "2024-03-01 12:00:00",
		TextExcerpt:     "launch today",
		RecordID:        1,
	}

	require.NoError(t, pub.Send(context.Background(), p))
	require.Len(t, js.Published, 1)
	assert.Equal(t, p, js.Published[0])
}

func TestNATSPublisher_SendError(t *testing.T) {
	js := &MockJetStream{PublishError: errors.New("no responders")}
	err := NewNATSPublisher(js).Send(context.Background(), alert.Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish alert")
	assert.Empty(t, js.Published)
}

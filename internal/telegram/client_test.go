package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClient_API_Unauthorized(t *testing.T) {
	c := NewClient(NewManager(testConfig(), newManagerDB(t)))

	api, err := c.API()
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Nil(t, api)
}

func TestClient_ResolveChannel(t *testing.T) {
	c := NewClient(NewManager(testConfig(), newManagerDB(t)))

	_, err := c.ResolveChannel(context.Background(), "  @ ")
	assert.ErrorIs(t, err, ErrChatNotFound)

	ch, err := c.ResolveChannel(context.Background(), "@gonews")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Nil(t, ch)
}

func TestClient_GetMessage(t *testing.T) {
	c := NewClient(NewManager(testConfig(), newManagerDB(t)))

	_, err := c.GetMessage(context.Background(), nil, 1)
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = c.GetMessage(context.Background(), &Channel{ID: 1, Megagroup: true}, 1)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestClient_CheckFloodWait(t *testing.T) {
	c := &Client{}

	assert.Equal(t, 0, c.checkFloodWait(nil))
	assert.Equal(t, 0, c.checkFloodWait(errors.New("rpc error: CHANNEL_PRIVATE")))
	assert.Equal(t, 15, c.checkFloodWait(errors.New("rpc error code 420: FLOOD_WAIT_15")))
}

func TestClient_NoteFloodWait_PausesLimiter(t *testing.T) {
	c := NewClient(NewManager(testConfig(), newManagerDB(t)))

	c.noteFloodWait(errors.New("FLOOD_WAIT_30"), "test")
	assert.Greater(t, c.rateLimiter.FloodWaitRemaining().Seconds(), 25.0)
}

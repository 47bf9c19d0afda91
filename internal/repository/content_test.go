package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

func TestContentRepository_CreatePost(t *testing.T) {
	repo := NewContentRepository(newTestDB(t))
	ctx := context.Background()

	p := &models.Post{
		Timestamp:       "2024-01-01 10:00:00",
		ChannelName:     "News",
		Content:         "Launch day",
		SourceMessageID: 42,
		Views:           10,
	}
	created, err := repo.CreatePost(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, p.ID)

	found, err := repo.FindPost(ctx, "News", 42)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Launch day", found.Content)
	assert.Equal(t, 10, found.Views)
}

func TestContentRepository_CreatePost_Duplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	first := &models.Post{Timestamp: "2024-01-01 10:00:00", ChannelName: "News", Content: "Launch day", SourceMessageID: 42}
	_, err := repo.CreatePost(ctx, first)
	require.NoError(t, err)

	again := &models.Post{Timestamp: "2024-01-01 10:05:00", ChannelName: "News", Content: "edited", SourceMessageID: 42}
	created, err := repo.CreatePost(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Launch day", again.Content, "stored row wins")

	var n int64
	require.NoError(t, db.Model(&models.Post{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// same id in another channel is a distinct post
	other := &models.Post{Timestamp: "2024-01-01 10:00:00", ChannelName: "Other", Content: "x", SourceMessageID: 42}
	created, err = repo.CreatePost(ctx, other)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestContentRepository_FindPost_Missing(t *testing.T) {
	repo := NewContentRepository(newTestDB(t))

	p, err := repo.FindPost(context.Background(), "News", 999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestContentRepository_CreateCommentAndMessage(t *testing.T) {
	db := newTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	c := &models.Comment{
		Timestamp:      "2024-01-01 10:01:00",
		ChannelName:    "News",
		ParentContent:  "Launch day",
		Text:           "Expensive",
		AuthorID:       int64Ptr(7),
		AuthorUsername: strPtr("alice"),
		Sentiment:      models.SentimentNeutral,
	}
	require.NoError(t, repo.CreateComment(ctx, c))
	assert.NotZero(t, c.ID)

	m := &models.GroupMessage{
		Timestamp:  "2024-01-01 10:02:00",
		SourceName: "Chat",
		Content:    "hi",
		MediaKind:  models.MediaPhoto,
	}
	require.NoError(t, repo.CreateMessage(ctx, m))
	assert.NotZero(t, m.ID)

	var stored models.Comment
	require.NoError(t, db.First(&stored, c.ID).Error)
	assert.Nil(t, stored.ParentPostID)
	assert.Equal(t, "alice", *stored.AuthorUsername)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// ContentRepository writes posts, comments and group messages.
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// CreatePost inserts p unless a post with the same channel and source
// message id already exists. In that case p is overwritten with the stored
// row and created is false.
func (r *ContentRepository) CreatePost(ctx context.Context, p *models.Post) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_name"}, {Name: "source_message_id"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return false, fmt.Errorf("create post: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.FindPost(ctx, p.ChannelName, p.SourceMessageID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, fmt.Errorf("create post: conflicting row for %s/%d vanished", p.ChannelName, p.SourceMessageID)
	}
	*p = *existing
	return false, nil
}

// FindPost looks up a post by its channel and source message id.
// Returns nil, nil when absent.
func (r *ContentRepository) FindPost(ctx context.Context, channelName string, sourceMessageID int) (*models.Post, error) {
	var p models.Post
	err := r.db.WithContext(ctx).
		Where("channel_name = ? AND source_message_id = ?", channelName, sourceMessageID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &p, nil
}

// CreateComment inserts c.
func (r *ContentRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// CreateMessage inserts m.
func (r *ContentRepository) CreateMessage(ctx context.Context, m *models.GroupMessage) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
	"github.com/pi4tnitsa/telegram-pareser/internal/period"
)

// QueryRepository serves period-scoped reads over the content tables.
// It never writes and may run concurrently with ingestion.
type QueryRepository struct {
	db *gorm.DB
}

// NewQueryRepository creates a new QueryRepository.
func NewQueryRepository(db *gorm.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// Fetch returns the records of the given kind whose timestamp lies in r,
// ordered by timestamp ascending. KindAll fills all three buckets.
func (q *QueryRepository) Fetch(ctx context.Context, kind models.ContentKind, r period.Range) (models.Dataset, error) {
	kinds := []models.ContentKind{kind}
	switch kind {
	case models.KindAll:
		kinds = models.ContentKinds
	case models.KindPost, models.KindComment, models.KindMessage:
	default:
		return nil, fmt.Errorf("fetch %q: %w", kind, ErrUnknownKind)
	}

	out := make(models.Dataset, len(kinds))
	for _, k := range kinds {
		recs, err := q.fetchKind(ctx, k, r)
		if err != nil {
			return nil, err
		}
		out[k] = recs
	}
	return out, nil
}

func (q *QueryRepository) fetchKind(ctx context.Context, kind models.ContentKind, r period.Range) ([]models.Record, error) {
	tx := q.db.WithContext(ctx).
		Where("occurred_at BETWEEN ? AND ?", r.Start, r.End).
		Order("occurred_at, id")

	switch kind {
	case models.KindPost:
		var rows []models.Post
		if err := tx.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("fetch posts: %w", err)
		}
		return postRecords(rows), nil
	case models.KindComment:
		var rows []models.Comment
		if err := tx.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("fetch comments: %w", err)
		}
		return commentRecords(rows), nil
	default:
		var rows []models.GroupMessage
		if err := tx.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("fetch messages: %w", err)
		}
		return messageRecords(rows), nil
	}
}

// Search returns records from all three tables whose text contains query,
// newest first. The query is matched literally and untrimmed; a blank query
// is rejected. A nil range searches the whole history.
func (q *QueryRepository) Search(ctx context.Context, query string, r *period.Range) ([]models.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	pattern := containsPattern(query)
	scoped := func(column string) *gorm.DB {
		tx := q.db.WithContext(ctx).Where(containsClause(column), pattern)
		if r != nil {
			tx = tx.Where("occurred_at BETWEEN ? AND ?", r.Start, r.End)
		}
		return tx
	}

	var posts []models.Post
	if err := scoped("content").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	var comments []models.Comment
	if err := scoped("comment_text").Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("search comments: %w", err)
	}
	var messages []models.GroupMessage
	if err := scoped("content").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	out := make([]models.Record, 0, len(posts)+len(comments)+len(messages))
	out = append(out, postRecords(posts)...)
	out = append(out, commentRecords(comments)...)
	out = append(out, messageRecords(messages)...)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp() > out[j].Timestamp()
	})
	return out, nil
}

func postRecords(rows []models.Post) []models.Record {
	out := make([]models.Record, len(rows))
	for i := range rows {
		out[i] = models.PostRecord(&rows[i])
	}
	return out
}

func commentRecords(rows []models.Comment) []models.Record {
	out := make([]models.Record, len(rows))
	for i := range rows {
		out[i] = models.CommentRecord(&rows[i])
	}
	return out
}

func messageRecords(rows []models.GroupMessage) []models.Record {
	out := make([]models.Record, len(rows))
	for i := range rows {
		out[i] = models.MessageRecord(&rows[i])
	}
	return out
}

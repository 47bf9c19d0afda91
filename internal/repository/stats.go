package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// topChannelsLimit caps the channel leaderboard.
const topChannelsLimit = 5

// ChannelCount is one row of the top-channels leaderboard.
type ChannelCount struct {
	ChannelName string `json:"channel_name"`
	Posts       int64  `json:"posts"`
}

// Statistics is the store-wide aggregate report.
type Statistics struct {
	TotalPosts    int64 `json:"total_posts"`
	TotalComments int64 `json:"total_comments"`
	TotalMessages int64 `json:"total_messages"`

	TopChannels []ChannelCount `json:"top_channels"`

	// ActivityByWeekday is indexed 0 (Sunday) through 6 (Saturday) and
	// counts records from all three content tables.
	ActivityByWeekday [7]int64 `json:"activity_by_weekday"`

	Sentiment     map[models.Sentiment]int64  `json:"sentiment"`
	Media         map[string]int64            `json:"media"`
	ActiveSources map[models.SourceKind]int64 `json:"active_sources"`
}

// StatsRepository computes aggregate statistics.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Aggregate computes the full statistics report.
func (r *StatsRepository) Aggregate(ctx context.Context) (*Statistics, error) {
	db := r.db.WithContext(ctx)
	stats := &Statistics{
		TopChannels:   []ChannelCount{},
		Sentiment:     make(map[models.Sentiment]int64, len(models.Sentiments)),
		Media:         map[string]int64{},
		ActiveSources: map[models.SourceKind]int64{},
	}

	if err := db.Model(&models.Post{}).Count(&stats.TotalPosts).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if err := db.Model(&models.Comment{}).Count(&stats.TotalComments).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	if err := db.Model(&models.GroupMessage{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	// ties resolve to the channel whose first post was stored earliest
	err := db.Model(&models.Post{}).
		Select("channel_name, COUNT(*) AS posts").
		Group("channel_name").
		Order("posts DESC, MIN(id) ASC").
		Limit(topChannelsLimit).
		Scan(&stats.TopChannels).Error
	if err != nil {
		return nil, fmt.Errorf("top channels: %w", err)
	}

	if err := r.weekdayActivity(db, stats); err != nil {
		return nil, err
	}

	for _, s := range models.Sentiments {
		stats.Sentiment[s] = 0
	}
	var sentimentRows []struct {
		Sentiment models.Sentiment
		N         int64
	}
	err = db.Model(&models.Comment{}).
		Select("sentiment, COUNT(*) AS n").
		Group("sentiment").
		Scan(&sentimentRows).Error
	if err != nil {
		return nil, fmt.Errorf("sentiment distribution: %w", err)
	}
	for _, row := range sentimentRows {
		stats.Sentiment[row.Sentiment] += row.N
	}

	var mediaRows []struct {
		Media string
		N     int64
	}
	err = db.Model(&models.GroupMessage{}).
		Select("COALESCE(NULLIF(media_kind, ?), 'text') AS media, COUNT(*) AS n", models.MediaNone).
		Group("media").
		Scan(&mediaRows).Error
	if err != nil {
		return nil, fmt.Errorf("media distribution: %w", err)
	}
	for _, row := range mediaRows {
		stats.Media[row.Media] += row.N
	}

	var sourceRows []struct {
		Kind models.SourceKind
		N    int64
	}
	err = db.Model(&models.MonitoredSource{}).
		Select("kind, COUNT(*) AS n").
		Where("active = ?", true).
		Group("kind").
		Scan(&sourceRows).Error
	if err != nil {
		return nil, fmt.Errorf("active sources: %w", err)
	}
	for _, row := range sourceRows {
		stats.ActiveSources[row.Kind] = row.N
	}

	return stats, nil
}

// weekdayActivity buckets every stored record by the weekday of its
// timestamp. Both dialects number Sunday as 0.
func (r *StatsRepository) weekdayActivity(db *gorm.DB, stats *Statistics) error {
	expr := "CAST(strftime('%w', occurred_at) AS INTEGER)"
	if db.Dialector.Name() == "postgres" {
		expr = "CAST(EXTRACT(DOW FROM CAST(occurred_at AS TIMESTAMP)) AS INTEGER)"
	}

	var rows []struct {
		Weekday int
		N       int64
	}
	query := `SELECT weekday, COUNT(*) AS n FROM (
		SELECT ` + expr + ` AS weekday FROM posts
		UNION ALL SELECT ` + expr + ` AS weekday FROM comments
		UNION ALL SELECT ` + expr + ` AS weekday FROM group_messages
	) activity GROUP BY weekday`
	if err := db.Raw(query).Scan(&rows).Error; err != nil {
		return fmt.Errorf("weekday activity: %w", err)
	}

	for _, row := range rows {
		if row.Weekday >= 0 && row.Weekday < len(stats.ActivityByWeekday) {
			stats.ActivityByWeekday[row.Weekday] = row.N
		}
	}
	return nil
}

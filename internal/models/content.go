// Package models defines shared data types for the application.
package models

import (
	"time"
)

// TimeLayout is the storage format for every content timestamp.
// Lexical order of formatted values equals chronological order.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in loc using TimeLayout.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(TimeLayout)
}

// Sentiment is the coarse polarity label attached to comments.
type Sentiment string

// Sentiment constants.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Sentiments lists every label in reporting order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// MediaKind describes the attachment of a group message.
type MediaKind string

// MediaKind constants.
const (
	MediaNone     MediaKind = "none"
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
)

// Post is a top-level message published in a broadcast channel.
type Post struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Timestamp       string `gorm:"column:occurred_at;size:19;not null;index" json:"timestamp"`
	ChannelName     string `gorm:"not null;uniqueIndex:idx_posts_channel_message" json:"channel_name"`
	Content         string `gorm:"type:text;not null" json:"content"`
	SourceMessageID int    `gorm:"not null;uniqueIndex:idx_posts_channel_message" json:"source_message_id"`
	Views           int    `gorm:"not null;default:0" json:"view_count"`
	Forwards        int    `gorm:"not null;default:0" json:"forward_count"`
}

// Comment is a reply to some post. ParentContent always carries a
// snapshot of the parent text, or a placeholder when it could not be found.
type Comment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Timestamp      string    `gorm:"column:occurred_at;size:19;not null;index" json:"timestamp"`
	ChannelName    string    `gorm:"not null;index" json:"channel_name"`
	ParentContent  string    `gorm:"type:text;not null" json:"parent_post_content"`
	Text           string    `gorm:"column:comment_text;type:text;not null" json:"comment_text"`
	AuthorID       *int64    `json:"author_user_id,omitempty"`
	AuthorUsername *string   `json:"author_username,omitempty"`
	ParentPostID   *uint     `gorm:"index" json:"parent_post_id,omitempty"`
	Sentiment      Sentiment `gorm:"size:16;not null;default:neutral" json:"sentiment"`
}

// GroupMessage is a non-reply message posted in a group.
type GroupMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Timestamp      string    `gorm:"column:occurred_at;size:19;not null;index" json:"timestamp"`
	SourceName     string    `gorm:"not null;index" json:"source_name"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	AuthorID       *int64    `json:"author_user_id,omitempty"`
	AuthorUsername *string   `json:"author_username,omitempty"`
	MediaKind      MediaKind `gorm:"size:16;not null;default:none" json:"media_kind"`
}

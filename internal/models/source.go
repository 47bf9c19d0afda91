package models

import (
	"time"
)

// SourceKind classifies a monitored chat.
type SourceKind string

// SourceKind constants.
const (
	SourceChannel SourceKind = "channel"
	SourceGroup   SourceKind = "group"
	SourceChat    SourceKind = "chat"
)

// MonitoredSource is a chat registered for monitoring. Removal is a soft
// delete through Active.
type MonitoredSource struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ExternalID  string     `gorm:"not null;uniqueIndex" json:"external_id"`
	DisplayName string     `gorm:"not null" json:"display_name"`
	Username    string     `json:"username,omitempty"`
	Kind        SourceKind `gorm:"size:16;not null" json:"kind"`
	AddedAt     time.Time  `gorm:"autoCreateTime" json:"added_at"`
	Active      bool       `gorm:"not null;default:true" json:"active"`
}

// Keyword is a case-folded alert term.
type Keyword struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Text    string    `gorm:"not null;uniqueIndex" json:"text"`
	AddedAt time.Time `gorm:"autoCreateTime" json:"added_at"`
	Active  bool      `gorm:"not null;default:true" json:"active"`
}

// Tables returns every persisted model, in migration order.
func Tables() []any {
	return []any{
		&Post{},
		&Comment{},
		&GroupMessage{},
		&MonitoredSource{},
		&Keyword{},
	}
}

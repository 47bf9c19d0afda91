package models

import "fmt"

// ContentKind names one of the three content tables, or all of them.
type ContentKind string

// ContentKind constants.
const (
	KindPost    ContentKind = "post"
	KindComment ContentKind = "comment"
	KindMessage ContentKind = "message"
	KindAll     ContentKind = "all"
)

// ContentKinds lists the concrete kinds in their canonical order.
var ContentKinds = []ContentKind{KindPost, KindComment, KindMessage}

// ParseContentKind validates a kind token.
func ParseContentKind(s string) (ContentKind, error) {
	switch k := ContentKind(s); k {
	case KindPost, KindComment, KindMessage, KindAll:
		return k, nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Record is a tagged union over the three content types. Exactly one of
// Post, Comment or Message is set, matching Kind.
type Record struct {
	Kind    ContentKind   `json:"kind"`
	Post    *Post         `json:"post,omitempty"`
	Comment *Comment      `json:"comment,omitempty"`
	Message *GroupMessage `json:"message,omitempty"`
}

// PostRecord wraps p.
func PostRecord(p *Post) Record { return Record{Kind: KindPost, Post: p} }

// CommentRecord wraps c.
func CommentRecord(c *Comment) Record { return Record{Kind: KindComment, Comment: c} }

// MessageRecord wraps m.
func MessageRecord(m *GroupMessage) Record { return Record{Kind: KindMessage, Message: m} }

// ID returns the primary key of the wrapped row.
func (r Record) ID() uint {
	switch {
	case r.Post != nil:
		return r.Post.ID
	case r.Comment != nil:
		return r.Comment.ID
	case r.Message != nil:
		return r.Message.ID
	}
	return 0
}

// Timestamp returns the stored timestamp string.
func (r Record) Timestamp() string {
	switch {
	case r.Post != nil:
		return r.Post.Timestamp
	case r.Comment != nil:
		return r.Comment.Timestamp
	case r.Message != nil:
		return r.Message.Timestamp
	}
	return ""
}

// SourceName returns the channel or group the row came from.
func (r Record) SourceName() string {
	switch {
	case r.Post != nil:
		return r.Post.ChannelName
	case r.Comment != nil:
		return r.Comment.ChannelName
	case r.Message != nil:
		return r.Message.SourceName
	}
	return ""
}

// Text returns the body that keyword search and alerts operate on.
func (r Record) Text() string {
	switch {
	case r.Post != nil:
		return r.Post.Content
	case r.Comment != nil:
		return r.Comment.Text
	case r.Message != nil:
		return r.Message.Content
	}
	return ""
}

// Dataset groups records by kind.
type Dataset map[ContentKind][]Record

// Len counts every record in the dataset.
func (d Dataset) Len() int {
	n := 0
	for _, recs := range d {
		n += len(recs)
	}
	return n
}

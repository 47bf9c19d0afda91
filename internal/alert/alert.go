// Package alert matches stored content against operator keywords and
// builds the notification payload handed to alert sinks.
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pi4tnitsa/telegram-pareser/internal/logger"
	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// ExcerptLength is the maximum number of characters in TextExcerpt.
const ExcerptLength = 100

// Payload is the notification emitted when stored content matches keywords.
type Payload struct {
	ID              uuid.UUID          `json:"id"`
	MatchedKeywords []string           `json:"matched_keywords"`
	ContentKind     models.ContentKind `json:"content_kind"`
	SourceName      string             `json:"source_name"`
	Timestamp       string             `json:"timestamp"`
	TextExcerpt     string             `json:"text_excerpt"`
	RecordID        uint               `json:"record_id"`
}

// NewPayload builds a payload for rec.
func NewPayload(rec models.Record, matched []string) Payload {
	return Payload{
		ID:              uuid.New(),
		MatchedKeywords: matched,
		ContentKind:     rec.Kind,
		SourceName:      rec.SourceName(),
		Timestamp:       rec.Timestamp(),
		TextExcerpt:     Excerpt(rec.Text(), ExcerptLength),
		RecordID:        rec.ID(),
	}
}

// Excerpt returns at most n characters of text.
func Excerpt(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n])
}

// Match returns the keywords contained in text, in keyword order.
// Keywords are expected to be case-folded already.
func Match(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	folded := strings.ToLower(text)
	var matched []string
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		if strings.Contains(folded, kw) {
			matched = append(matched, kw)
			seen[kw] = struct{}{}
		}
	}
	return matched
}

// KeywordSource yields the currently active keywords.
type KeywordSource interface {
	ActiveTexts(ctx context.Context) ([]string, error)
}

// Evaluator checks records against the active keyword set. The set is
// read on every call so additions and removals apply to the next event.
type Evaluator struct {
	keywords KeywordSource
	log      *logger.Logger
}

// NewEvaluator creates a new Evaluator.
func NewEvaluator(keywords KeywordSource, log *logger.Logger) *Evaluator {
	return &Evaluator{keywords: keywords, log: log}
}

// Evaluate returns a payload when rec matches at least one keyword, or nil.
func (e *Evaluator) Evaluate(ctx context.Context, rec models.Record) (*Payload, error) {
	keywords, err := e.keywords.ActiveTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	matched := Match(rec.Text(), keywords)
	if len(matched) == 0 {
		return nil, nil
	}

	p := NewPayload(rec, matched)
	e.log.Debug().
		Str("kind", string(rec.Kind)).
		Uint("record_id", rec.ID()).
		Strs("keywords", matched).
		Msg("keyword match")
	return &p, nil
}

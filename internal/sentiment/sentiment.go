// Package sentiment assigns a coarse polarity label to short texts by
// counting fixed positive and negative terms.
package sentiment

import (
	"strings"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// Positive terms, stored case-folded.
var Positive = []string{
	"хорошо", "отлично", "супер", "класс", "нравится", "отличный", "лучший",
	"good", "great", "excellent", "love", "best", "awesome",
}

// Negative terms, stored case-folded.
var Negative = []string{
	"плохо", "ужасно", "отстой", "провал", "недоволен", "хуже", "негативный",
	"bad", "terrible", "awful", "fail", "worst", "hate",
}

// Tag labels text. Each term contributes at most once, by substring
// presence; ties (including zero hits) are neutral.
func Tag(text string) models.Sentiment {
	folded := strings.ToLower(text)
	pos := count(folded, Positive)
	neg := count(folded, Negative)

	switch {
	case pos > neg:
		return models.SentimentPositive
	case neg > pos:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func count(folded string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(folded, term) {
			n++
		}
	}
	return n
}

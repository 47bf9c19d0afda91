// Package period turns reporting period tokens into concrete timestamp
// ranges in the storage format.
package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/pi4tnitsa/telegram-pareser/internal/models"
)

// Period tokens.
const (
	Week        = "week"
	TwoWeeks    = "two_weeks"
	Month       = "month"
	ThreeMonths = "three_months"
	All         = "all"
	Custom      = "custom"
)

// DateLayout is the accepted format for custom range bounds.
const DateLayout = "2006-01-02"

// Epoch is the lower bound used by the All period.
const Epoch = "1970-01-01 00:00:00"

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvertedRange = errors.New("start date is after end date")
)

var lookback = map[string]int{
	Week:        7,
	TwoWeeks:    14,
	Month:       30,
	ThreeMonths: 90,
}

// Range is an inclusive [Start, End] pair of storage timestamps.
type Range struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether ts lies within the range.
func (r Range) Contains(ts string) bool {
	return ts >= r.Start && ts <= r.End
}

// Resolve maps a period token to a range ending at now. now should already
// be in the reporting timezone. Unknown tokens fall back to Week.
func Resolve(token, customStart, customEnd string, now time.Time) (Range, error) {
	switch token {
	case Custom:
		return resolveCustom(customStart, customEnd)
	case All:
		return Range{Start: Epoch, End: now.Format(models.TimeLayout)}, nil
	}

	days, ok := lookback[token]
	if !ok {
		days = lookback[Week]
	}

	return Range{
		Start: now.AddDate(0, 0, -days).Format(models.TimeLayout),
		End:   now.Format(models.TimeLayout),
	}, nil
}

func resolveCustom(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("start %q: %w", start, ErrInvalidDate)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("end %q: %w", end, ErrInvalidDate)
	}
	if s.After(e) {
		return Range{}, ErrInvertedRange
	}

	return Range{
		Start: s.Format(DateLayout) + " 00:00:00",
		End:   e.Format(DateLayout) + " 23:59:59",
	}, nil
}

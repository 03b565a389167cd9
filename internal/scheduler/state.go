// Package scheduler implements SM-2 spaced-repetition scheduling.
//
// The transition function is pure: it takes a state, a grade, and an
// injected "now", and returns the next state. Callers own persistence and
// must serialize transitions for the same atom; concurrent grading of one
// atom is undefined.
package scheduler

import (
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

// MinEaseFactor is the SM-2 floor. Ease never drops below this, so interval
// growth on repeated successes is always at least 1.3x.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease assigned to a freshly created state.
const DefaultEaseFactor = 2.5

// State is the per-atom scheduling record.
type State struct {
	AtomID string `json:"atom_id"`

	// EaseFactor >= 1.3; starts at 2.5.
	EaseFactor float64 `json:"ease_factor"`

	// IntervalDays is the current inter-review interval. 0 means new.
	IntervalDays float64 `json:"interval_days"`

	// RepetitionCount is the number of consecutive successful reviews.
	// Any failure resets it to 0.
	RepetitionCount int `json:"repetition_count"`

	// Lapses counts failures over the atom's lifetime.
	Lapses int `json:"lapses"`

	// TotalReviews counts all graded reviews, pass or fail.
	TotalReviews int `json:"total_reviews"`

	// Due is the next review date (UTC midnight).
	Due time.Time `json:"due"`

	// LastReviewed is nil before the first review.
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
}

// NewState creates the scheduling record for an atom's first exposure:
// interval 0, ease 2.5, due immediately.
func NewState(atomID string, now time.Time) State {
	return State{
		AtomID:     atomID,
		EaseFactor: DefaultEaseFactor,
		Due:        StartOfDay(now),
	}
}

// IsNew reports whether the atom has never been reviewed.
func (s State) IsNew() bool {
	return s.LastReviewed == nil && s.TotalReviews == 0
}

// IsDue reports whether the atom is due at the given time.
func (s State) IsDue(now time.Time) bool {
	return !s.Due.After(StartOfDay(now))
}

// DaysSinceReview returns the days elapsed since the last review, or -1 if
// the atom has never been reviewed.
func (s State) DaysSinceReview(now time.Time) float64 {
	if s.LastReviewed == nil {
		return -1
	}
	return now.Sub(*s.LastReviewed).Hours() / 24.0
}

// Metrics derives the memory-metrics snapshot recorded with each
// interaction. Stability is approximated by the current interval.
func (s State) Metrics() models.MemoryMetrics {
	return models.MemoryMetrics{
		Stability:   s.IntervalDays,
		Difficulty:  difficultyFromEase(s.EaseFactor),
		Lapses:      s.Lapses,
		ReviewCount: s.TotalReviews,
	}
}

// difficultyFromEase maps ease [1.3, ~3.0] onto a difficulty in [0, 1],
// where the 1.3 floor is maximum difficulty.
func difficultyFromEase(ease float64) float64 {
	d := (DefaultEaseFactor - ease) / (DefaultEaseFactor - MinEaseFactor) // 1.0 at floor
	if d < 0 {
		d = 0
	}
	if d > 1 {
		d = 1
	}
	return d
}

// StartOfDay truncates t to UTC midnight. Scheduling works in whole days,
// so due dates are always date-aligned.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

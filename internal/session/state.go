// Package session tracks the state of a single study session: when it
// started, how many reviews have happened, and the running error streak.
// The diagnosis engine consumes these signals for fatigue and cognitive
// load estimation.
//
// All public methods are safe for concurrent use.
package session

import (
	"sync"
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

// ConceptTally accumulates per-concept outcomes within a session.
type ConceptTally struct {
	Concept  string `json:"concept"`
	Reviews  int    `json:"reviews"`
	Failures int    `json:"failures"`
}

// State tracks a single study session.
type State struct {
	mu          sync.RWMutex
	startedAt   time.Time
	reviewCount int
	correct     int
	errorStreak int
	latencySum  int64
	tallies     map[string]*ConceptTally
	order       []string
}

// NewState starts a fresh session anchored at now.
func NewState(now time.Time) *State {
	return &State{
		startedAt: now,
		tallies:   make(map[string]*ConceptTally),
	}
}

// RecordReview folds a graded review into the session.
func (s *State) RecordReview(concept string, grade models.Grade, latencyMS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviewCount++
	s.latencySum += latencyMS

	tally, ok := s.tallies[concept]
	if !ok {
		tally = &ConceptTally{Concept: concept}
		s.tallies[concept] = tally
		s.order = append(s.order, concept)
	}
	tally.Reviews++

	if grade.Passing() {
		s.correct++
		s.errorStreak = 0
		return
	}
	tally.Failures++
	s.errorStreak++
}

// StartedAt returns the session start time.
func (s *State) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.startedAt
}

// Duration returns elapsed session time as of now.
func (s *State) Duration(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return now.Sub(s.startedAt)
}

// ReviewCount returns the number of reviews graded this session.
func (s *State) ReviewCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.reviewCount
}

// ErrorStreak returns the current run of consecutive failed reviews.
func (s *State) ErrorStreak() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.errorStreak
}

// Accuracy returns the fraction of passing reviews, or 0 for an empty session.
func (s *State) Accuracy() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reviewCount == 0 {
		return 0
	}
	return float64(s.correct) / float64(s.reviewCount)
}

// MeanLatencyMS returns the average response time across the session.
func (s *State) MeanLatencyMS() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.reviewCount == 0 {
		return 0
	}
	return float64(s.latencySum) / float64(s.reviewCount)
}

// Tallies returns per-concept outcomes in first-review order.
func (s *State) Tallies() []ConceptTally {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConceptTally, 0, len(s.order))
	for _, concept := range s.order {
		out = append(out, *s.tallies[concept])
	}
	return out
}

// Stats is a point-in-time summary of the session.
type Stats struct {
	StartedAt     time.Time      `json:"started_at"`
	DurationMin   float64        `json:"duration_min"`
	Reviews       int            `json:"reviews"`
	Correct       int            `json:"correct"`
	Accuracy      float64        `json:"accuracy"`
	ErrorStreak   int            `json:"error_streak"`
	MeanLatencyMS float64        `json:"mean_latency_ms"`
	Concepts      []ConceptTally `json:"concepts"`
}

// Snapshot summarizes the session as of now.
func (s *State) Snapshot(now time.Time) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		StartedAt:   s.startedAt,
		DurationMin: now.Sub(s.startedAt).Minutes(),
		Reviews:     s.reviewCount,
		Correct:     s.correct,
		ErrorStreak: s.errorStreak,
	}
	if s.reviewCount > 0 {
		stats.Accuracy = float64(s.correct) / float64(s.reviewCount)
		stats.MeanLatencyMS = float64(s.latencySum) / float64(s.reviewCount)
	}
	for _, concept := range s.order {
		stats.Concepts = append(stats.Concepts, *s.tallies[concept])
	}
	return stats
}

// Reset clears all session state (for testing or session restart).
func (s *State) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.startedAt = now
	s.reviewCount = 0
	s.correct = 0
	s.errorStreak = 0
	s.latencySum = 0
	s.tallies = make(map[string]*ConceptTally)
	s.order = nil
}

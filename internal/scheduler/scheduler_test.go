package scheduler

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

var t0 = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func mustAdvance(t *testing.T, s State, g models.Grade, now time.Time) State {
	t.Helper()
	next, err := Advance(s, g, now)
	if err != nil {
		t.Fatalf("Advance(%v): %v", g, err)
	}
	return next
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestNewState(t *testing.T) {
	s := NewState("a1", t0)
	if s.EaseFactor != DefaultEaseFactor {
		t.Errorf("EaseFactor = %v, want %v", s.EaseFactor, DefaultEaseFactor)
	}
	if s.IntervalDays != 0 || s.RepetitionCount != 0 {
		t.Errorf("new state should have zero interval and repetitions, got %v / %v", s.IntervalDays, s.RepetitionCount)
	}
	if !s.IsNew() {
		t.Error("IsNew() = false for fresh state")
	}
	if !s.IsDue(t0) {
		t.Error("fresh state should be due immediately")
	}
}

func TestAdvanceInvalidGrade(t *testing.T) {
	s := NewState("a1", t0)
	for _, g := range []models.Grade{-1, 6, 42} {
		_, err := Advance(s, g, t0)
		if !errors.Is(err, models.ErrInvalidGrade) {
			t.Errorf("Advance(grade=%d) error = %v, want ErrInvalidGrade", int(g), err)
		}
	}
}

// First three successes walk the 1 / 6 / round(6*2.5)=15 ladder.
func TestAdvanceSuccessLadder(t *testing.T) {
	s := NewState("a1", t0)
	now := t0
	wantIntervals := []float64{1, 6, 15}
	for i, want := range wantIntervals {
		s = mustAdvance(t, s, models.GradeGood, now)
		if s.IntervalDays != want {
			t.Errorf("review %d: IntervalDays = %v, want %v", i+1, s.IntervalDays, want)
		}
		if s.RepetitionCount != i+1 {
			t.Errorf("review %d: RepetitionCount = %d, want %d", i+1, s.RepetitionCount, i+1)
		}
		if s.EaseFactor < DefaultEaseFactor {
			t.Errorf("review %d: EaseFactor dropped to %v on grade 4", i+1, s.EaseFactor)
		}
		wantDue := StartOfDay(now).AddDate(0, 0, int(want))
		if !s.Due.Equal(wantDue) {
			t.Errorf("review %d: Due = %v, want %v", i+1, s.Due, wantDue)
		}
		now = s.Due.Add(10 * time.Hour)
	}
}

func TestAdvanceFailureResets(t *testing.T) {
	s := NewState("a1", t0)
	s = mustAdvance(t, s, models.GradePerfect, t0)
	s = mustAdvance(t, s, models.GradePerfect, t0.AddDate(0, 0, 1))
	s = mustAdvance(t, s, models.GradePerfect, t0.AddDate(0, 0, 7))
	if s.IntervalDays < 6 {
		t.Fatalf("setup: IntervalDays = %v, want mature interval", s.IntervalDays)
	}

	for _, g := range []models.Grade{models.GradeBlackout, models.GradeWrong, models.GradeAlmost} {
		failed := mustAdvance(t, s, g, t0.AddDate(0, 0, 20))
		if failed.RepetitionCount != 0 {
			t.Errorf("grade %v: RepetitionCount = %d, want 0", g, failed.RepetitionCount)
		}
		if failed.IntervalDays != 1 {
			t.Errorf("grade %v: IntervalDays = %v, want 1", g, failed.IntervalDays)
		}
		wantDue := StartOfDay(t0.AddDate(0, 0, 20)).AddDate(0, 0, 1)
		if !failed.Due.Equal(wantDue) {
			t.Errorf("grade %v: Due = %v, want %v", g, failed.Due, wantDue)
		}
		if failed.Lapses != s.Lapses+1 {
			t.Errorf("grade %v: Lapses = %d, want %d", g, failed.Lapses, s.Lapses+1)
		}
	}
}

// Repeated blackouts never push ease below the 1.3 floor.
func TestEaseFloor(t *testing.T) {
	s := NewState("a1", t0)
	now := t0
	for i := 0; i < 25; i++ {
		s = mustAdvance(t, s, models.GradeBlackout, now)
		if s.EaseFactor < MinEaseFactor {
			t.Fatalf("after %d blackouts: EaseFactor = %v, below floor %v", i+1, s.EaseFactor, MinEaseFactor)
		}
		now = now.AddDate(0, 0, 1)
	}
	assertFloat(t, "EaseFactor at floor", s.EaseFactor, MinEaseFactor)
}

// With repetition_count > 2 and ease >= 1.3, successes never shrink the interval.
func TestMonotonicIntervalGrowth(t *testing.T) {
	s := NewState("a1", t0)
	// Drive ease to the floor first, then recover with successes.
	now := t0
	for i := 0; i < 10; i++ {
		s = mustAdvance(t, s, models.GradeBlackout, now)
		now = now.AddDate(0, 0, 1)
	}
	prev := 0.0
	for i := 0; i < 12; i++ {
		s = mustAdvance(t, s, models.GradeHard, now)
		if s.RepetitionCount > 2 && s.IntervalDays < prev {
			t.Fatalf("review %d: interval shrank from %v to %v", i+1, prev, s.IntervalDays)
		}
		prev = s.IntervalDays
		now = s.Due.Add(6 * time.Hour)
	}
}

func TestEaseUpdateByGrade(t *testing.T) {
	tests := []struct {
		grade models.Grade
		want  float64
	}{
		{models.GradePerfect, 2.6},  // +0.1
		{models.GradeGood, 2.5},     // +0.0
		{models.GradeHard, 2.36},    // -0.14
		{models.GradeAlmost, 2.18},  // -0.32
		{models.GradeWrong, 1.96},   // -0.54
		{models.GradeBlackout, 1.7}, // -0.8
	}
	for _, tt := range tests {
		s := mustAdvance(t, NewState("a1", t0), tt.grade, t0)
		assertFloat(t, "EaseFactor after "+tt.grade.String(), s.EaseFactor, tt.want)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	s := NewState("a1", t0)
	orig := s
	_ = mustAdvance(t, s, models.GradePerfect, t0)
	if s != orig {
		t.Error("Advance mutated its input state")
	}
}

func TestAdvanceDeterministic(t *testing.T) {
	s := NewState("a1", t0)
	a := mustAdvance(t, s, models.GradeGood, t0)
	b := mustAdvance(t, s, models.GradeGood, t0)
	if a.Due != b.Due || a.IntervalDays != b.IntervalDays || a.EaseFactor != b.EaseFactor {
		t.Error("Advance is not deterministic for identical inputs")
	}
}

func TestPreview(t *testing.T) {
	s := NewState("a1", t0)
	out := Preview(s, t0)
	if len(out) != 6 {
		t.Fatalf("Preview returned %d states, want 6", len(out))
	}
	if out[models.GradeBlackout].IntervalDays != 1 {
		t.Errorf("blackout preview interval = %v, want 1", out[models.GradeBlackout].IntervalDays)
	}
	if out[models.GradePerfect].RepetitionCount != 1 {
		t.Errorf("perfect preview repetitions = %d, want 1", out[models.GradePerfect].RepetitionCount)
	}
}

func TestReplay(t *testing.T) {
	history := []models.InteractionRecord{
		{AtomID: "a1", Grade: models.GradeGood, Correct: true, Timestamp: t0},
		{AtomID: "a1", Grade: models.GradeGood, Correct: true, Timestamp: t0.AddDate(0, 0, 1)},
		{AtomID: "a1", Grade: models.GradeGood, Correct: true, Timestamp: t0.AddDate(0, 0, 7)},
	}
	s, err := Replay("a1", history)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if s.IntervalDays != 15 {
		t.Errorf("replayed IntervalDays = %v, want 15", s.IntervalDays)
	}
	if s.TotalReviews != 3 {
		t.Errorf("replayed TotalReviews = %d, want 3", s.TotalReviews)
	}

	bad := append(history, models.InteractionRecord{AtomID: "other", Grade: models.GradeGood, Timestamp: t0})
	if _, err := Replay("a1", bad); err == nil {
		t.Error("Replay should reject records for a different atom")
	}
}

func TestMetricsDerivation(t *testing.T) {
	s := NewState("a1", t0)
	m := s.Metrics()
	if m.Difficulty != 0 {
		t.Errorf("fresh state Difficulty = %v, want 0", m.Difficulty)
	}
	now := t0
	for i := 0; i < 8; i++ {
		s = mustAdvance(t, s, models.GradeBlackout, now)
		now = now.AddDate(0, 0, 1)
	}
	m = s.Metrics()
	if m.Difficulty != 1 {
		t.Errorf("floor-ease Difficulty = %v, want 1", m.Difficulty)
	}
	if m.Lapses != 8 || m.ReviewCount != 8 {
		t.Errorf("Metrics lapses/reviews = %d/%d, want 8/8", m.Lapses, m.ReviewCount)
	}
}

package models

import (
	"testing"
	"time"
)

func rec(correct bool) InteractionRecord {
	return InteractionRecord{AtomID: "a1", Correct: correct, Timestamp: time.Now()}
}

func TestGradeBoundaries(t *testing.T) {
	for g := GradeBlackout; g <= GradePerfect; g++ {
		if !g.IsValid() {
			t.Errorf("Grade(%d).IsValid() = false", g)
		}
	}
	if Grade(-1).IsValid() || Grade(6).IsValid() {
		t.Error("out-of-range grades reported valid")
	}
	if GradeAlmost.Passing() {
		t.Error("grade 2 should not pass")
	}
	if !GradeHard.Passing() {
		t.Error("grade 3 should pass")
	}
}

func TestGradeString(t *testing.T) {
	cases := map[Grade]string{
		GradeBlackout: "blackout",
		GradeHard:     "hard",
		GradePerfect:  "perfect",
		Grade(7):      "grade(7)",
		Grade(-1):     "grade(-1)",
	}
	for g, want := range cases {
		if got := g.String(); got != want {
			t.Errorf("Grade(%d).String() = %q, want %q", int(g), got, want)
		}
	}
}

func TestLastN(t *testing.T) {
	records := []InteractionRecord{rec(true), rec(false), rec(true)}
	if got := LastN(records, 2); len(got) != 2 || got[0].Correct {
		t.Errorf("LastN(2) = %+v", got)
	}
	if got := LastN(records, 10); len(got) != 3 {
		t.Errorf("LastN(10) returned %d records, want all 3", len(got))
	}
	if got := LastN(records, 0); len(got) != 0 {
		t.Errorf("LastN(0) returned %d records, want none", len(got))
	}
}

func TestTrailingErrorStreak(t *testing.T) {
	cases := []struct {
		records []InteractionRecord
		want    int
	}{
		{nil, 0},
		{[]InteractionRecord{rec(true)}, 0},
		{[]InteractionRecord{rec(true), rec(false), rec(false)}, 2},
		{[]InteractionRecord{rec(false), rec(true), rec(false)}, 1},
	}
	for i, tc := range cases {
		if got := TrailingErrorStreak(tc.records); got != tc.want {
			t.Errorf("case %d: streak = %d, want %d", i, got, tc.want)
		}
	}
}

package scheduler

import (
	"fmt"
	"math"
	"time"

	"github.com/atomloop/atomloop/internal/models"
)

// Advance applies the SM-2 transition for a graded review at the given time.
// It returns the updated state; the input is not mutated. The caller
// persists the result.
//
// Grades below 3 are failures: the repetition count resets to 0 and the
// interval resets to 1 day. Successes walk the 1 / 6 / round(interval*ease)
// ladder. The ease factor updates on every review, pass or fail, and floors
// at MinEaseFactor.
//
// Returns models.ErrInvalidGrade for grades outside [0, 5].
func Advance(s State, grade models.Grade, now time.Time) (State, error) {
	if !grade.IsValid() {
		return State{}, fmt.Errorf("%w: %d", models.ErrInvalidGrade, int(grade))
	}

	next := s
	next.EaseFactor = nextEase(s.EaseFactor, grade)
	next.TotalReviews++

	if grade.Passing() {
		next.RepetitionCount++
		switch next.RepetitionCount {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = math.Round(s.IntervalDays * next.EaseFactor)
		}
	} else {
		next.RepetitionCount = 0
		next.IntervalDays = 1
		next.Lapses++
	}

	today := StartOfDay(now)
	next.Due = today.AddDate(0, 0, int(next.IntervalDays))
	reviewed := now
	next.LastReviewed = &reviewed

	return next, nil
}

// Preview returns the state that each grade would produce, without
// committing any of them.
func Preview(s State, now time.Time) map[models.Grade]State {
	out := make(map[models.Grade]State, 6)
	for g := models.GradeBlackout; g <= models.GradePerfect; g++ {
		next, err := Advance(s, g, now)
		if err != nil {
			continue
		}
		out[g] = next
	}
	return out
}

// Replay rebuilds a scheduling state by applying a sequence of graded
// reviews in order. Used to reconstruct state from the interaction log.
func Replay(atomID string, history []models.InteractionRecord) (State, error) {
	var s State
	if len(history) == 0 {
		return NewState(atomID, time.Now()), nil
	}
	s = NewState(atomID, history[0].Timestamp)
	for _, rec := range history {
		if rec.AtomID != atomID {
			return State{}, fmt.Errorf("atomloop: replay: record for atom %q applied to %q", rec.AtomID, atomID)
		}
		next, err := Advance(s, rec.Grade, rec.Timestamp)
		if err != nil {
			return State{}, err
		}
		s = next
	}
	return s, nil
}

// nextEase applies the SM-2 ease update for quality grade g:
//
//	ef' = ef + (0.1 - (5-g)*(0.08 + (5-g)*0.02))
//
// floored at MinEaseFactor.
func nextEase(ease float64, g models.Grade) float64 {
	q := float64(5 - int(g))
	next := ease + (0.1 - q*(0.08+q*0.02))
	return math.Max(MinEaseFactor, next)
}

package models

import (
	"errors"
	"fmt"
)

// ErrInvalidGrade is returned when a review grade falls outside [0, 5].
var ErrInvalidGrade = errors.New("grade must be between 0 and 5")

// Grade is a 0-5 recall quality score in the SM-2 tradition.
// Grades of 3 and above count as successful recall.
type Grade int

const (
	GradeBlackout Grade = 0 // no recall at all
	GradeWrong    Grade = 1 // wrong, but the answer rang a bell
	GradeAlmost   Grade = 2 // wrong, felt close
	GradeHard     Grade = 3 // correct with serious effort
	GradeGood     Grade = 4 // correct after some hesitation
	GradePerfect  Grade = 5 // instant, confident recall
)

// IsValid reports whether g is within the 0-5 scale.
func (g Grade) IsValid() bool {
	return g >= GradeBlackout && g <= GradePerfect
}

// Passing reports whether g counts as a successful recall.
func (g Grade) Passing() bool {
	return g >= GradeHard
}

var gradeNames = map[Grade]string{
	GradeBlackout: "blackout",
	GradeWrong:    "wrong",
	GradeAlmost:   "almost",
	GradeHard:     "hard",
	GradeGood:     "good",
	GradePerfect:  "perfect",
}

// String returns the grade's name, or "grade(N)" for out-of-range values.
func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

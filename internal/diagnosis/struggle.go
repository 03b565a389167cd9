package diagnosis

import (
	"github.com/atomloop/atomloop/internal/models"
)

// Priority of a detected struggle pattern.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// StrugglePattern flags a concept the learner keeps failing inside the
// detection window.
type StrugglePattern struct {
	Concept      string   `json:"concept"`
	FailureCount int      `json:"failure_count"`
	Total        int      `json:"total"`
	FailureRate  float64  `json:"failure_rate"`
	Priority     Priority `json:"priority"`
}

// DetectStrugglePattern scans the trailing window of the interaction log
// for a concept with a failure rate at or above the struggle threshold and
// at least two attempts. Concepts are visited in order of first appearance
// within the window, and the first qualifying one is returned.
//
// A nil return means no concept qualifies: keep drilling rather than stop
// and re-read the source. Short or empty histories simply return nil;
// cold start is expected, not an error.
func (e *Engine) DetectStrugglePattern(history []models.InteractionRecord) *StrugglePattern {
	window := models.LastN(history, e.cfg.StruggleWindow)
	if len(window) == 0 {
		return nil
	}

	type tally struct {
		failures int
		total    int
	}
	counts := make(map[string]*tally)
	order := make([]string, 0, len(window))
	for _, rec := range window {
		if rec.Concept == "" {
			continue
		}
		c, ok := counts[rec.Concept]
		if !ok {
			c = &tally{}
			counts[rec.Concept] = c
			order = append(order, rec.Concept)
		}
		c.total++
		if !rec.Correct {
			c.failures++
		}
	}

	for _, concept := range order {
		c := counts[concept]
		if c.total < 2 {
			continue
		}
		rate := float64(c.failures) / float64(c.total)
		if rate < e.cfg.StruggleFailureRate {
			continue
		}
		priority := PriorityMedium
		if rate >= e.cfg.CriticalFailureRate || c.failures >= 5 {
			priority = PriorityHigh
		}
		return &StrugglePattern{
			Concept:      concept,
			FailureCount: c.failures,
			Total:        c.total,
			FailureRate:  rate,
			Priority:     priority,
		}
	}
	return nil
}

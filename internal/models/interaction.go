package models

import (
	"time"
)

// MemoryMetrics is a snapshot of an atom's memory model at the moment a
// review was recorded. Stored alongside each interaction so diagnosis can
// reason about how settled the memory was when it failed.
type MemoryMetrics struct {
	// Stability is the current inter-review interval in days.
	Stability float64 `json:"stability"`

	// Difficulty grows as the ease factor falls below its default.
	Difficulty float64 `json:"difficulty"`

	Lapses      int `json:"lapses"`
	ReviewCount int `json:"review_count"`
}

// InteractionRecord is one graded review in the append-only history log.
type InteractionRecord struct {
	ID        string        `json:"id"`
	AtomID    string        `json:"atom_id"`
	Concept   string        `json:"concept"`
	Module    string        `json:"module,omitempty"`
	Correct   bool          `json:"correct"`
	Grade     Grade         `json:"grade"`
	LatencyMS int64         `json:"latency_ms"`
	Timestamp time.Time     `json:"timestamp"`
	Metrics   MemoryMetrics `json:"metrics"`
}

// LastN returns the trailing n records, or all of them when fewer exist.
func LastN(records []InteractionRecord, n int) []InteractionRecord {
	if n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

// TrailingErrorStreak counts consecutive failed reviews at the end of the
// history. A single success resets the streak to zero.
func TrailingErrorStreak(records []InteractionRecord) int {
	streak := 0
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Correct {
			break
		}
		streak++
	}
	return streak
}

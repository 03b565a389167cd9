package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stateFile is the default session state filename.
const stateFile = "session.json"

// persistedState is the on-disk representation of session state.
// It captures only what is needed to resume a session across CLI invocations.
type persistedState struct {
	StartedAt   time.Time                `json:"started_at"`
	ReviewCount int                      `json:"review_count"`
	Correct     int                      `json:"correct"`
	ErrorStreak int                      `json:"error_streak"`
	LatencySum  int64                    `json:"latency_sum_ms"`
	Tallies     map[string]*ConceptTally `json:"tallies"`
	Order       []string                 `json:"order"`
}

// SaveState persists the session state to a JSON file in the given directory.
// The directory must already exist.
func SaveState(s *State, dir string) error {
	s.mu.RLock()
	ps := persistedState{
		StartedAt:   s.startedAt,
		ReviewCount: s.reviewCount,
		Correct:     s.correct,
		ErrorStreak: s.errorStreak,
		LatencySum:  s.latencySum,
		Tallies:     s.tallies,
		Order:       s.order,
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session state: %w", err)
	}

	path := filepath.Join(dir, stateFile)

	// Write atomically via temp file + rename.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing session state temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming session state file: %w", err)
	}

	return nil
}

// LoadState reads session state from a JSON file in the given directory.
// If the file does not exist, it returns a new State anchored at now.
func LoadState(dir string, now time.Time) (*State, error) {
	path := filepath.Join(dir, stateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(now), nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("unmarshaling session state: %w", err)
	}

	tallies := ps.Tallies
	if tallies == nil {
		tallies = make(map[string]*ConceptTally)
	}

	return &State{
		startedAt:   ps.StartedAt,
		reviewCount: ps.ReviewCount,
		correct:     ps.Correct,
		errorStreak: ps.ErrorStreak,
		latencySum:  ps.LatencySum,
		tallies:     tallies,
		order:       ps.Order,
	}, nil
}

// StateFilePath returns the expected path for the session state file in the given directory.
func StateFilePath(dir string) string {
	return filepath.Join(dir, stateFile)
}

// RemoveState removes the session state file from the given directory.
// It is not an error if the file does not exist.
func RemoveState(dir string) error {
	path := filepath.Join(dir, stateFile)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}

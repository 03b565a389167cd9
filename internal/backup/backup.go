// Package backup exports and restores the review store: atoms, scheduling
// states, the interaction log, and the active study context.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
	"github.com/atomloop/atomloop/internal/store"
)

// Archive is the payload of a backup file.
type Archive struct {
	Version      int                        `json:"version"`
	CreatedAt    time.Time                  `json:"created_at"`
	Atoms        []models.Atom              `json:"atoms"`
	States       []scheduler.State          `json:"states"`
	Interactions []models.InteractionRecord `json:"interactions"`
	Context      models.ActiveContext       `json:"context"`
}

// Export writes a complete snapshot of the store to path.
func Export(ctx context.Context, st store.ReviewStore, path string) (*Archive, error) {
	atoms, err := st.ListAtoms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing atoms: %w", err)
	}
	states, err := st.ListStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}

	// Interactions are gathered per atom so the archive stays complete even
	// for histories longer than any recency window.
	var interactions []models.InteractionRecord
	for _, a := range atoms {
		recs, err := st.AtomInteractions(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("loading interactions for %s: %w", a.ID, err)
		}
		interactions = append(interactions, recs...)
	}

	active, err := st.GetActiveContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active context: %w", err)
	}

	archive := &Archive{
		Version:      FormatVersion,
		CreatedAt:    time.Now().UTC(),
		Atoms:        atoms,
		States:       states,
		Interactions: interactions,
		Context:      active,
	}
	if err := WriteArchive(path, archive); err != nil {
		return nil, err
	}
	return archive, nil
}

// RestoreMode controls how restore handles atoms already in the store.
type RestoreMode string

const (
	// RestoreMerge skips atoms that already exist, along with their states
	// and interactions (default).
	RestoreMerge RestoreMode = "merge"
	// RestoreReplace deletes all existing atoms before restoring.
	RestoreReplace RestoreMode = "replace"
)

// RestoreResult summarizes a restore operation.
type RestoreResult struct {
	AtomsRestored int `json:"atoms_restored"`
	AtomsSkipped  int `json:"atoms_skipped"`
	Interactions  int `json:"interactions"`
}

// Restore imports an archive into the store. In merge mode, atoms that
// already exist keep their current state and history.
func Restore(ctx context.Context, st store.ReviewStore, path string, mode RestoreMode) (*RestoreResult, error) {
	archive, err := ReadArchive(path)
	if err != nil {
		return nil, err
	}

	if mode == RestoreReplace {
		existing, err := st.ListAtoms(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing atoms: %w", err)
		}
		for _, a := range existing {
			if err := st.DeleteAtom(ctx, a.ID); err != nil {
				return nil, fmt.Errorf("clearing atom %s: %w", a.ID, err)
			}
		}
	}

	skipped := make(map[string]bool)
	result := &RestoreResult{}
	for _, a := range archive.Atoms {
		if mode == RestoreMerge {
			if _, err := st.GetAtom(ctx, a.ID); err == nil {
				skipped[a.ID] = true
				result.AtomsSkipped++
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("checking atom %s: %w", a.ID, err)
			}
		}
		if err := st.PutAtom(ctx, a); err != nil {
			return nil, fmt.Errorf("restoring atom %s: %w", a.ID, err)
		}
		result.AtomsRestored++
	}

	for _, s := range archive.States {
		if skipped[s.AtomID] {
			continue
		}
		if err := st.PutState(ctx, s); err != nil {
			return nil, fmt.Errorf("restoring state for %s: %w", s.AtomID, err)
		}
	}

	for _, rec := range archive.Interactions {
		if skipped[rec.AtomID] {
			continue
		}
		if err := st.AppendInteraction(ctx, rec); err != nil {
			return nil, fmt.Errorf("restoring interaction %s: %w", rec.ID, err)
		}
		result.Interactions++
	}

	if archive.Context.Course != "" && mode == RestoreReplace {
		if err := st.SetActiveContext(ctx, archive.Context); err != nil {
			return nil, fmt.Errorf("restoring active context: %w", err)
		}
	}

	return result, nil
}

// GeneratePath creates a timestamped backup filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("atomloop-backup-%s.json.gz", now.Format("20060102-150405")))
}

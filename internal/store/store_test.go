package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newStores(t *testing.T) map[string]ReviewStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]ReviewStore{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
}

func testAtom(id, concept string) models.Atom {
	return models.Atom{
		ID:        id,
		Front:     "What does " + concept + " do?",
		Back:      "It does things.",
		Concept:   concept,
		Course:    "CS-201",
		Module:    "networking",
		Week:      2,
		CreatedAt: t0,
	}
}

func TestAtomRoundTrip(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			atom := testAtom("a1", "TCP handshake")
			atom.SourceSection = "ch3.1"
			atom.Difficulty = "medium"
			atom.Quality = 0.85

			if err := s.PutAtom(ctx, atom); err != nil {
				t.Fatalf("PutAtom: %v", err)
			}
			got, err := s.GetAtom(ctx, "a1")
			if err != nil {
				t.Fatalf("GetAtom: %v", err)
			}
			if got.Concept != atom.Concept || got.Week != atom.Week || got.Quality != atom.Quality {
				t.Errorf("round trip mismatch: got %+v want %+v", got, atom)
			}
			if !got.CreatedAt.Equal(atom.CreatedAt) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, atom.CreatedAt)
			}
		})
	}
}

func TestAtomUpsert(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			atom := testAtom("a1", "DNS resolution")
			if err := s.PutAtom(ctx, atom); err != nil {
				t.Fatalf("PutAtom: %v", err)
			}
			atom.Back = "Resolves names to addresses."
			if err := s.PutAtom(ctx, atom); err != nil {
				t.Fatalf("PutAtom (update): %v", err)
			}
			atoms, err := s.ListAtoms(ctx)
			if err != nil {
				t.Fatalf("ListAtoms: %v", err)
			}
			if len(atoms) != 1 {
				t.Fatalf("got %d atoms, want 1", len(atoms))
			}
			if atoms[0].Back != atom.Back {
				t.Errorf("Back = %q, want %q", atoms[0].Back, atom.Back)
			}
		})
	}
}

func TestAtomNotFound(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.GetAtom(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetAtom(missing) = %v, want ErrNotFound", err)
			}
			if err := s.DeleteAtom(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("DeleteAtom(missing) = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestDeleteAtomRemovesState(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.PutAtom(ctx, testAtom("a1", "ARP")); err != nil {
				t.Fatalf("PutAtom: %v", err)
			}
			if err := s.PutState(ctx, scheduler.NewState("a1", t0)); err != nil {
				t.Fatalf("PutState: %v", err)
			}
			if err := s.DeleteAtom(ctx, "a1"); err != nil {
				t.Fatalf("DeleteAtom: %v", err)
			}
			if _, err := s.GetState(ctx, "a1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetState after delete = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStateRoundTrip(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.PutAtom(ctx, testAtom("a1", "subnetting")); err != nil {
				t.Fatalf("PutAtom: %v", err)
			}

			last := t0.Add(-24 * time.Hour)
			state := scheduler.State{
				AtomID:          "a1",
				EaseFactor:      2.36,
				IntervalDays:    6,
				RepetitionCount: 2,
				Lapses:          1,
				TotalReviews:    4,
				Due:             t0.Add(5 * 24 * time.Hour),
				LastReviewed:    &last,
			}
			if err := s.PutState(ctx, state); err != nil {
				t.Fatalf("PutState: %v", err)
			}
			got, err := s.GetState(ctx, "a1")
			if err != nil {
				t.Fatalf("GetState: %v", err)
			}
			if got.EaseFactor != state.EaseFactor || got.IntervalDays != state.IntervalDays ||
				got.RepetitionCount != state.RepetitionCount || got.Lapses != state.Lapses {
				t.Errorf("state mismatch: got %+v want %+v", got, state)
			}
			if got.LastReviewed == nil || !got.LastReviewed.Equal(last) {
				t.Errorf("LastReviewed = %v, want %v", got.LastReviewed, last)
			}
		})
	}
}

func TestStateNullLastReviewed(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.PutAtom(ctx, testAtom("a1", "NAT")); err != nil {
				t.Fatalf("PutAtom: %v", err)
			}
			if err := s.PutState(ctx, scheduler.NewState("a1", t0)); err != nil {
				t.Fatalf("PutState: %v", err)
			}
			got, err := s.GetState(ctx, "a1")
			if err != nil {
				t.Fatalf("GetState: %v", err)
			}
			if got.LastReviewed != nil {
				t.Errorf("LastReviewed = %v, want nil", got.LastReviewed)
			}
			if !got.IsNew() {
				t.Error("expected fresh state to report IsNew")
			}
		})
	}
}

func TestInteractionLogOrdering(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 6; i++ {
				rec := models.InteractionRecord{
					ID:        fmt.Sprintf("r%d", i),
					AtomID:    fmt.Sprintf("a%d", i%2),
					Concept:   "OSPF",
					Module:    "routing",
					Correct:   i%3 != 0,
					Grade:     models.GradeGood,
					LatencyMS: 1200,
					Timestamp: t0.Add(time.Duration(i) * time.Minute),
					Metrics:   models.MemoryMetrics{Stability: float64(i), ReviewCount: i},
				}
				if err := s.AppendInteraction(ctx, rec); err != nil {
					t.Fatalf("AppendInteraction: %v", err)
				}
			}

			recent, err := s.RecentInteractions(ctx, 4)
			if err != nil {
				t.Fatalf("RecentInteractions: %v", err)
			}
			if len(recent) != 4 {
				t.Fatalf("got %d records, want 4", len(recent))
			}
			// Chronological, most recent last.
			for i := 1; i < len(recent); i++ {
				if recent[i].Timestamp.Before(recent[i-1].Timestamp) {
					t.Errorf("records out of order at %d: %v before %v", i, recent[i].Timestamp, recent[i-1].Timestamp)
				}
			}
			if recent[len(recent)-1].ID != "r5" {
				t.Errorf("last record = %s, want r5", recent[len(recent)-1].ID)
			}

			byAtom, err := s.AtomInteractions(ctx, "a0")
			if err != nil {
				t.Fatalf("AtomInteractions: %v", err)
			}
			if len(byAtom) != 3 {
				t.Fatalf("got %d records for a0, want 3", len(byAtom))
			}
			if byAtom[0].ID != "r0" || byAtom[2].ID != "r4" {
				t.Errorf("unexpected per-atom ordering: %s..%s", byAtom[0].ID, byAtom[2].ID)
			}
		})
	}
}

func TestActiveContextRoundTrip(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Unset context reads back as zero value, not an error.
			active, err := s.GetActiveContext(ctx)
			if err != nil {
				t.Fatalf("GetActiveContext (empty): %v", err)
			}
			if !active.IsZero() {
				t.Errorf("expected zero context, got %+v", active)
			}

			want := models.ActiveContext{
				Course:    "CS-201",
				Concepts:  []string{"TCP handshake", "congestion control"},
				Keywords:  []string{"window", "ack"},
				UpdatedAt: t0,
			}
			if err := s.SetActiveContext(ctx, want); err != nil {
				t.Fatalf("SetActiveContext: %v", err)
			}
			got, err := s.GetActiveContext(ctx)
			if err != nil {
				t.Fatalf("GetActiveContext: %v", err)
			}
			if got.Course != want.Course || len(got.Concepts) != 2 || len(got.Keywords) != 2 {
				t.Errorf("context mismatch: got %+v want %+v", got, want)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, ".atomloop", "atomloop.db")

	s, err := NewSQLiteStore(dir, "")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if err := s.PutAtom(ctx, testAtom("a1", "BGP")); err != nil {
		t.Fatalf("PutAtom: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLiteStore(dir, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	atom, err := reopened.GetAtom(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAtom after reopen: %v", err)
	}
	if atom.Concept != "BGP" {
		t.Errorf("Concept = %q, want BGP", atom.Concept)
	}
}

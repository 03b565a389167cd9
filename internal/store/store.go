// Package store defines the ReviewStore interface for persisting atoms,
// scheduling state, and the interaction log. The decision engine never
// touches storage; commands load snapshots here, run the pure engine, and
// write results back.
package store

import (
	"context"
	"errors"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

// ErrNotFound is returned when a requested atom or state does not exist.
var ErrNotFound = errors.New("atomloop: not found")

// ReviewStore persists the study corpus and everything learned about it.
type ReviewStore interface {
	// Atom operations. Atoms are immutable once imported; PutAtom
	// upserts by ID.
	PutAtom(ctx context.Context, atom models.Atom) error
	GetAtom(ctx context.Context, id string) (*models.Atom, error)
	ListAtoms(ctx context.Context) ([]models.Atom, error)
	DeleteAtom(ctx context.Context, id string) error

	// Scheduling state, one record per atom. GetState returns
	// ErrNotFound for atoms that have never been exposed.
	PutState(ctx context.Context, state scheduler.State) error
	GetState(ctx context.Context, atomID string) (*scheduler.State, error)
	ListStates(ctx context.Context) ([]scheduler.State, error)

	// Interaction log, append-only, most-recent-last.
	AppendInteraction(ctx context.Context, rec models.InteractionRecord) error
	RecentInteractions(ctx context.Context, limit int) ([]models.InteractionRecord, error)
	AtomInteractions(ctx context.Context, atomID string) ([]models.InteractionRecord, error)

	// Active study context for project-relevance scoring.
	SetActiveContext(ctx context.Context, active models.ActiveContext) error
	GetActiveContext(ctx context.Context) (models.ActiveContext, error)

	Close() error
}

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

// MemoryStore is an in-memory ReviewStore used in tests and by the
// simulation harness. Safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	atoms        map[string]models.Atom
	atomOrder    []string
	states       map[string]scheduler.State
	interactions []models.InteractionRecord
	active       models.ActiveContext
	hasActive    bool
}

var _ ReviewStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		atoms:  make(map[string]models.Atom),
		states: make(map[string]scheduler.State),
	}
}

func (m *MemoryStore) PutAtom(_ context.Context, atom models.Atom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.atoms[atom.ID]; !ok {
		m.atomOrder = append(m.atomOrder, atom.ID)
	}
	m.atoms[atom.ID] = atom
	return nil
}

func (m *MemoryStore) GetAtom(_ context.Context, id string) (*models.Atom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atom, ok := m.atoms[id]
	if !ok {
		return nil, fmt.Errorf("atom %s: %w", id, ErrNotFound)
	}
	return &atom, nil
}

func (m *MemoryStore) ListAtoms(_ context.Context) ([]models.Atom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	atoms := make([]models.Atom, 0, len(m.atomOrder))
	for _, id := range m.atomOrder {
		atoms = append(atoms, m.atoms[id])
	}
	return atoms, nil
}

func (m *MemoryStore) DeleteAtom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.atoms[id]; !ok {
		return fmt.Errorf("atom %s: %w", id, ErrNotFound)
	}
	delete(m.atoms, id)
	delete(m.states, id)
	for i, existing := range m.atomOrder {
		if existing == id {
			m.atomOrder = append(m.atomOrder[:i], m.atomOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) PutState(_ context.Context, state scheduler.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.AtomID] = state
	return nil
}

func (m *MemoryStore) GetState(_ context.Context, atomID string) (*scheduler.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.states[atomID]
	if !ok {
		return nil, fmt.Errorf("state for %s: %w", atomID, ErrNotFound)
	}
	return &state, nil
}

func (m *MemoryStore) ListStates(_ context.Context) ([]scheduler.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make([]scheduler.State, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].AtomID < states[j].AtomID })
	return states, nil
}

func (m *MemoryStore) AppendInteraction(_ context.Context, rec models.InteractionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, rec)
	return nil
}

func (m *MemoryStore) RecentInteractions(_ context.Context, limit int) ([]models.InteractionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := len(m.interactions) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	out := make([]models.InteractionRecord, len(m.interactions)-start)
	copy(out, m.interactions[start:])
	return out, nil
}

func (m *MemoryStore) AtomInteractions(_ context.Context, atomID string) ([]models.InteractionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.InteractionRecord
	for _, rec := range m.interactions {
		if rec.AtomID == atomID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) SetActiveContext(_ context.Context, active models.ActiveContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = active
	m.hasActive = true
	return nil
}

func (m *MemoryStore) GetActiveContext(_ context.Context) (models.ActiveContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasActive {
		return models.ActiveContext{}, nil
	}
	return m.active, nil
}

func (m *MemoryStore) Close() error { return nil }

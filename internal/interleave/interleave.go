// Package interleave orders a pool of due atoms so that two atoms from the
// same concept group are never shown back to back while an alternative
// exists. Alternating between concepts forces context switches, which
// strengthens discrimination between similar material.
package interleave

import (
	"time"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

// Entry pairs an atom with its scheduling state for ordering.
type Entry struct {
	Atom  models.Atom
	State scheduler.State
}

// Sequence emits due atoms one at a time. It is single-pass and not
// restartable: each pick updates the session-local "last group shown"
// state that the adjacency constraint depends on.
type Sequence struct {
	remaining []indexed
	lastGroup string
	started   bool
}

type indexed struct {
	Entry
	idx int // original input position, for stable tie-breaks
}

// New builds a Sequence over the given due pool. Input order is preserved
// as the final tie-break.
func New(pool []Entry) *Sequence {
	remaining := make([]indexed, len(pool))
	for i, e := range pool {
		remaining[i] = indexed{Entry: e, idx: i}
	}
	return &Sequence{remaining: remaining}
}

// Next returns the next atom to present. ok is false once the pool is
// exhausted.
//
// Among eligible candidates (a different group than the previous pick, or
// everything left when no other group remains) it prefers the earliest due
// date, then the lowest repetition count, then input order.
func (s *Sequence) Next() (Entry, bool) {
	if len(s.remaining) == 0 {
		return Entry{}, false
	}

	pick := s.pickIndex()
	chosen := s.remaining[pick]
	s.remaining = append(s.remaining[:pick], s.remaining[pick+1:]...)
	s.lastGroup = chosen.Atom.GroupKey()
	s.started = true
	return chosen.Entry, true
}

// Remaining reports how many atoms have not been emitted yet.
func (s *Sequence) Remaining() int {
	return len(s.remaining)
}

// pickIndex finds the position of the best eligible candidate in remaining.
func (s *Sequence) pickIndex() int {
	best := -1
	for i, cand := range s.remaining {
		if s.started && cand.Atom.GroupKey() == s.lastGroup {
			continue
		}
		if best == -1 || prefer(s.remaining[i], s.remaining[best]) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}

	// Only the previous group is left; the adjacency constraint cannot be
	// satisfied, so fall back to the same preference over everything.
	best = 0
	for i := 1; i < len(s.remaining); i++ {
		if prefer(s.remaining[i], s.remaining[best]) {
			best = i
		}
	}
	return best
}

// prefer reports whether a should be shown before b: earlier due date,
// then lower repetition count (struggling and new items first), then
// original input order.
func prefer(a, b indexed) bool {
	if !a.State.Due.Equal(b.State.Due) {
		return a.State.Due.Before(b.State.Due)
	}
	if a.State.RepetitionCount != b.State.RepetitionCount {
		return a.State.RepetitionCount < b.State.RepetitionCount
	}
	return a.idx < b.idx
}

// Order drains a Sequence over the pool into a slice. Convenience for
// callers that want the whole session plan up front.
func Order(pool []Entry) []Entry {
	seq := New(pool)
	out := make([]Entry, 0, len(pool))
	for {
		e, ok := seq.Next()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}

// DueFilter returns the entries whose state is due at the given time,
// preserving input order.
func DueFilter(pool []Entry, now time.Time) []Entry {
	out := make([]Entry, 0, len(pool))
	for _, e := range pool {
		if e.State.IsDue(now) {
			out = append(out, e)
		}
	}
	return out
}

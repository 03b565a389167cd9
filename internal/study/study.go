// Package study composes the focus stream, interleaver, scheduler, and
// diagnosis engine over a store. The CLI commands and the MCP server both
// drive their operations through a Planner rather than wiring the engines
// themselves.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atomloop/atomloop/internal/config"
	"github.com/atomloop/atomloop/internal/diagnosis"
	"github.com/atomloop/atomloop/internal/focus"
	"github.com/atomloop/atomloop/internal/interleave"
	"github.com/atomloop/atomloop/internal/logging"
	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
	"github.com/atomloop/atomloop/internal/session"
	"github.com/atomloop/atomloop/internal/store"
)

// historyWindow bounds how much of the interaction log the diagnosis and
// struggle components read.
const historyWindow = 50

// Planner runs study operations against a store.
type Planner struct {
	store     store.ReviewStore
	stream    *focus.Stream
	engine    *diagnosis.Engine
	decisions *logging.DecisionLogger
}

// NewPlanner validates the config and builds a planner over the store.
// The decision logger may be nil.
func NewPlanner(st store.ReviewStore, cfg *config.Config, decisions *logging.DecisionLogger) (*Planner, error) {
	stream, err := focus.NewStream(cfg.Focus)
	if err != nil {
		return nil, err
	}
	return &Planner{
		store:     st,
		stream:    stream,
		engine:    diagnosis.NewEngine(cfg.Diagnosis),
		decisions: decisions,
	}, nil
}

// QueueItem is one scheduled position in today's study queue.
type QueueItem struct {
	Atom  models.Atom     `json:"atom"`
	State scheduler.State `json:"state"`
	Score focus.AtomScore `json:"score"`
}

// BuildQueue assembles today's study queue: every atom is scored by the
// focus stream, the activation threshold and daily budget are applied, and
// the surviving atoms are interleaved so no concept group repeats
// back-to-back.
func (p *Planner) BuildQueue(ctx context.Context, now time.Time) ([]QueueItem, error) {
	atoms, err := p.store.ListAtoms(ctx)
	if err != nil {
		return nil, err
	}
	states, err := p.store.ListStates(ctx)
	if err != nil {
		return nil, err
	}
	active, err := p.store.GetActiveContext(ctx)
	if err != nil {
		return nil, err
	}

	byAtom := make(map[string]scheduler.State, len(states))
	for _, s := range states {
		byAtom[s.AtomID] = s
	}

	candidates := make([]focus.Candidate, 0, len(atoms))
	lookup := make(map[string]focus.Candidate, len(atoms))
	for _, atom := range atoms {
		state, ok := byAtom[atom.ID]
		if !ok {
			state = scheduler.NewState(atom.ID, now)
		}
		c := focus.Candidate{Atom: atom, State: state}
		candidates = append(candidates, c)
		lookup[atom.ID] = c
	}

	scores := p.stream.Queue(candidates, active, now)

	pool := make([]interleave.Entry, 0, len(scores))
	scoreFor := make(map[string]focus.AtomScore, len(scores))
	for _, sc := range scores {
		c := lookup[sc.AtomID]
		pool = append(pool, interleave.Entry{Atom: c.Atom, State: c.State})
		scoreFor[sc.AtomID] = sc
	}

	ordered := interleave.Order(pool)
	queue := make([]QueueItem, 0, len(ordered))
	for _, e := range ordered {
		queue = append(queue, QueueItem{Atom: e.Atom, State: e.State, Score: scoreFor[e.Atom.ID]})
	}

	p.decisions.Log(map[string]any{
		"event":      "queue_built",
		"candidates": len(candidates),
		"selected":   len(queue),
	})
	return queue, nil
}

// ReviewResult reports everything a grade produced: the scheduler
// transition, the diagnosis when the review failed, and any struggle
// pattern visible in the recent history.
type ReviewResult struct {
	Atom      models.Atom                `json:"atom"`
	Previous  scheduler.State            `json:"previous"`
	Next      scheduler.State            `json:"next"`
	Diagnosis *diagnosis.Diagnosis       `json:"diagnosis,omitempty"`
	Struggle  *diagnosis.StrugglePattern `json:"struggle,omitempty"`
}

// GradeReview applies a grade to an atom: the scheduler state advances and
// is persisted, the interaction is appended to the log, the session is
// updated, and a failed review is diagnosed. sess may be nil when no
// session is being tracked.
func (p *Planner) GradeReview(ctx context.Context, atomID string, grade models.Grade, latencyMS int64, sess *session.State, now time.Time) (*ReviewResult, error) {
	atom, err := p.store.GetAtom(ctx, atomID)
	if err != nil {
		return nil, err
	}

	prev, err := p.store.GetState(ctx, atomID)
	if errors.Is(err, store.ErrNotFound) {
		fresh := scheduler.NewState(atomID, now)
		prev = &fresh
	} else if err != nil {
		return nil, err
	}

	next, err := scheduler.Advance(*prev, grade, now)
	if err != nil {
		return nil, err
	}
	if err := p.store.PutState(ctx, next); err != nil {
		return nil, err
	}

	rec := models.InteractionRecord{
		ID:        uuid.NewString(),
		AtomID:    atomID,
		Concept:   atom.Concept,
		Module:    atom.Module,
		Correct:   grade.Passing(),
		Grade:     grade,
		LatencyMS: latencyMS,
		Timestamp: now,
		// Memory strength as it was when the learner answered; a first
		// failure reaches diagnosis with ReviewCount 0.
		Metrics: prev.Metrics(),
	}
	if err := p.store.AppendInteraction(ctx, rec); err != nil {
		return nil, err
	}

	if sess != nil {
		sess.RecordReview(atom.Concept, grade, latencyMS)
	}

	history, err := p.store.RecentInteractions(ctx, historyWindow)
	if err != nil {
		return nil, err
	}

	result := &ReviewResult{
		Atom:     *atom,
		Previous: *prev,
		Next:     next,
		Struggle: p.engine.DetectStrugglePattern(history),
	}
	if !grade.Passing() {
		diag := p.engine.Diagnose(p.observation(*atom, rec, history, sess, now))
		result.Diagnosis = &diag
	}

	p.decisions.Log(map[string]any{
		"event":    "review_graded",
		"atom_id":  atomID,
		"grade":    int(grade),
		"correct":  grade.Passing(),
		"interval": next.IntervalDays,
		"ease":     next.EaseFactor,
	})
	return result, nil
}

// DiagnoseAtom explains the most recent review of an atom. Returns
// store.ErrNotFound when the atom has never been reviewed.
func (p *Planner) DiagnoseAtom(ctx context.Context, atomID string, sess *session.State, now time.Time) (*diagnosis.Diagnosis, error) {
	atom, err := p.store.GetAtom(ctx, atomID)
	if err != nil {
		return nil, err
	}
	recs, err := p.store.AtomInteractions(ctx, atomID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("no reviews for atom %s: %w", atomID, store.ErrNotFound)
	}
	last := recs[len(recs)-1]

	history, err := p.store.RecentInteractions(ctx, historyWindow)
	if err != nil {
		return nil, err
	}

	diag := p.engine.Diagnose(p.observation(*atom, last, history, sess, now))
	return &diag, nil
}

// Struggles reports the dominant struggle pattern in the recent history,
// or nil when review is spread thin enough that drilling should continue.
func (p *Planner) Struggles(ctx context.Context) (*diagnosis.StrugglePattern, error) {
	history, err := p.store.RecentInteractions(ctx, historyWindow)
	if err != nil {
		return nil, err
	}
	return p.engine.DetectStrugglePattern(history), nil
}

// Load estimates the learner's current cognitive load from the recent
// history and the running session duration.
func (p *Planner) Load(ctx context.Context, sess *session.State, now time.Time) (diagnosis.CognitiveLoad, error) {
	history, err := p.store.RecentInteractions(ctx, historyWindow)
	if err != nil {
		return diagnosis.CognitiveLoad{}, err
	}
	var duration time.Duration
	if sess != nil {
		duration = sess.Duration(now)
	}
	return diagnosis.ComputeCognitiveLoad(history, duration), nil
}

func (p *Planner) observation(atom models.Atom, rec models.InteractionRecord, history []models.InteractionRecord, sess *session.State, now time.Time) diagnosis.Observation {
	obs := diagnosis.Observation{
		Atom:           atom,
		Metrics:        rec.Metrics,
		Correct:        rec.Correct,
		ResponseTimeMS: int(rec.LatencyMS),
		History:        history,
	}
	if sess != nil {
		obs.SessionDuration = sess.Duration(now)
		obs.ErrorStreak = sess.ErrorStreak()
	}
	return obs
}

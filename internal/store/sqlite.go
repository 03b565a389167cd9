package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atomloop/atomloop/internal/models"
	"github.com/atomloop/atomloop/internal/scheduler"
)

// SQLiteStore is the durable ReviewStore backed by a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ ReviewStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path, creating parent
// directories as needed. An empty path defaults to .atomloop/atomloop.db
// under root.
func NewSQLiteStore(root, path string) (*SQLiteStore, error) {
	if path == "" {
		path = filepath.Join(root, ".atomloop", "atomloop.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// modernc.org/sqlite serializes access; a single connection avoids
	// SQLITE_BUSY under concurrent command invocations.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_info LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("recording schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) PutAtom(ctx context.Context, atom models.Atom) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO atoms (id, front, back, concept, course, module, week, source_section, difficulty, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			front = excluded.front,
			back = excluded.back,
			concept = excluded.concept,
			course = excluded.course,
			module = excluded.module,
			week = excluded.week,
			source_section = excluded.source_section,
			difficulty = excluded.difficulty,
			quality = excluded.quality`,
		atom.ID, atom.Front, atom.Back, atom.Concept, atom.Course, atom.Module,
		atom.Week, atom.SourceSection, atom.Difficulty, atom.Quality, atom.CreatedAt)
	if err != nil {
		return fmt.Errorf("storing atom %s: %w", atom.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetAtom(ctx context.Context, id string) (*models.Atom, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, front, back, concept, course, module, week, source_section, difficulty, quality, created_at
		FROM atoms WHERE id = ?`, id)
	atom, err := scanAtom(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("atom %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading atom %s: %w", id, err)
	}
	return atom, nil
}

func (s *SQLiteStore) ListAtoms(ctx context.Context) ([]models.Atom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, front, back, concept, course, module, week, source_section, difficulty, quality, created_at
		FROM atoms ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing atoms: %w", err)
	}
	defer rows.Close()

	var atoms []models.Atom
	for rows.Next() {
		atom, err := scanAtom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning atom: %w", err)
		}
		atoms = append(atoms, *atom)
	}
	return atoms, rows.Err()
}

func (s *SQLiteStore) DeleteAtom(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM atoms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting atom %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("atom %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) PutState(ctx context.Context, state scheduler.State) error {
	var last interface{}
	if state.LastReviewed != nil {
		last = *state.LastReviewed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO states (atom_id, ease_factor, interval_days, repetition_count, lapses, total_reviews, due, last_reviewed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(atom_id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetition_count = excluded.repetition_count,
			lapses = excluded.lapses,
			total_reviews = excluded.total_reviews,
			due = excluded.due,
			last_reviewed = excluded.last_reviewed`,
		state.AtomID, state.EaseFactor, state.IntervalDays, state.RepetitionCount,
		state.Lapses, state.TotalReviews, state.Due, last)
	if err != nil {
		return fmt.Errorf("storing state for %s: %w", state.AtomID, err)
	}
	return nil
}

func (s *SQLiteStore) GetState(ctx context.Context, atomID string) (*scheduler.State, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT atom_id, ease_factor, interval_days, repetition_count, lapses, total_reviews, due, last_reviewed
		FROM states WHERE atom_id = ?`, atomID)
	state, err := scanState(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("state for %s: %w", atomID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading state for %s: %w", atomID, err)
	}
	return state, nil
}

func (s *SQLiteStore) ListStates(ctx context.Context) ([]scheduler.State, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT atom_id, ease_factor, interval_days, repetition_count, lapses, total_reviews, due, last_reviewed
		FROM states ORDER BY atom_id`)
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	var states []scheduler.State
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		states = append(states, *state)
	}
	return states, rows.Err()
}

func (s *SQLiteStore) AppendInteraction(ctx context.Context, rec models.InteractionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interactions (id, atom_id, concept, module, correct, grade, latency_ms, ts, stability, difficulty, lapses, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AtomID, rec.Concept, rec.Module, rec.Correct, int(rec.Grade),
		rec.LatencyMS, rec.Timestamp, rec.Metrics.Stability, rec.Metrics.Difficulty,
		rec.Metrics.Lapses, rec.Metrics.ReviewCount)
	if err != nil {
		return fmt.Errorf("appending interaction %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RecentInteractions(ctx context.Context, limit int) ([]models.InteractionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, atom_id, concept, module, correct, grade, latency_ms, ts, stability, difficulty, lapses, review_count
		FROM interactions ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent interactions: %w", err)
	}
	defer rows.Close()

	recs, err := scanInteractions(rows)
	if err != nil {
		return nil, err
	}
	// Reverse into chronological order: callers expect most-recent-last.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

func (s *SQLiteStore) AtomInteractions(ctx context.Context, atomID string) ([]models.InteractionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, atom_id, concept, module, correct, grade, latency_ms, ts, stability, difficulty, lapses, review_count
		FROM interactions WHERE atom_id = ? ORDER BY ts, id`, atomID)
	if err != nil {
		return nil, fmt.Errorf("loading interactions for %s: %w", atomID, err)
	}
	defer rows.Close()
	return scanInteractions(rows)
}

func (s *SQLiteStore) SetActiveContext(ctx context.Context, active models.ActiveContext) error {
	concepts, err := json.Marshal(active.Concepts)
	if err != nil {
		return fmt.Errorf("encoding concepts: %w", err)
	}
	keywords, err := json.Marshal(active.Keywords)
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}
	if active.UpdatedAt.IsZero() {
		active.UpdatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO active_context (id, course, concepts, keywords, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			course = excluded.course,
			concepts = excluded.concepts,
			keywords = excluded.keywords,
			updated_at = excluded.updated_at`,
		active.Course, string(concepts), string(keywords), active.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storing active context: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetActiveContext(ctx context.Context) (models.ActiveContext, error) {
	var (
		active             models.ActiveContext
		concepts, keywords string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT course, concepts, keywords, updated_at FROM active_context WHERE id = 1`).
		Scan(&active.Course, &concepts, &keywords, &active.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ActiveContext{}, nil
	}
	if err != nil {
		return models.ActiveContext{}, fmt.Errorf("loading active context: %w", err)
	}
	if err := json.Unmarshal([]byte(concepts), &active.Concepts); err != nil {
		return models.ActiveContext{}, fmt.Errorf("decoding concepts: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &active.Keywords); err != nil {
		return models.ActiveContext{}, fmt.Errorf("decoding keywords: %w", err)
	}
	return active, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAtom(r rowScanner) (*models.Atom, error) {
	var atom models.Atom
	err := r.Scan(&atom.ID, &atom.Front, &atom.Back, &atom.Concept, &atom.Course,
		&atom.Module, &atom.Week, &atom.SourceSection, &atom.Difficulty,
		&atom.Quality, &atom.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &atom, nil
}

func scanState(r rowScanner) (*scheduler.State, error) {
	var (
		state scheduler.State
		last  sql.NullTime
	)
	err := r.Scan(&state.AtomID, &state.EaseFactor, &state.IntervalDays,
		&state.RepetitionCount, &state.Lapses, &state.TotalReviews, &state.Due, &last)
	if err != nil {
		return nil, err
	}
	if last.Valid {
		t := last.Time
		state.LastReviewed = &t
	}
	return &state, nil
}

func scanInteractions(rows *sql.Rows) ([]models.InteractionRecord, error) {
	var recs []models.InteractionRecord
	for rows.Next() {
		var (
			rec   models.InteractionRecord
			grade int
		)
		err := rows.Scan(&rec.ID, &rec.AtomID, &rec.Concept, &rec.Module, &rec.Correct,
			&grade, &rec.LatencyMS, &rec.Timestamp, &rec.Metrics.Stability,
			&rec.Metrics.Difficulty, &rec.Metrics.Lapses, &rec.Metrics.ReviewCount)
		if err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		rec.Grade = models.Grade(grade)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

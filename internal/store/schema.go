package store

// schemaVersion tracks the on-disk layout. Bump when the schema changes
// and add a migration step in migrate().
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS atoms (
    id             TEXT PRIMARY KEY,
    front          TEXT NOT NULL,
    back           TEXT NOT NULL,
    concept        TEXT NOT NULL,
    course         TEXT NOT NULL DEFAULT '',
    module         TEXT NOT NULL DEFAULT '',
    week           INTEGER NOT NULL DEFAULT 0,
    source_section TEXT NOT NULL DEFAULT '',
    difficulty     TEXT NOT NULL DEFAULT '',
    quality        REAL NOT NULL DEFAULT 0,
    created_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_atoms_concept ON atoms(concept);
CREATE INDEX IF NOT EXISTS idx_atoms_course ON atoms(course);

CREATE TABLE IF NOT EXISTS states (
    atom_id          TEXT PRIMARY KEY REFERENCES atoms(id) ON DELETE CASCADE,
    ease_factor      REAL NOT NULL,
    interval_days    REAL NOT NULL,
    repetition_count INTEGER NOT NULL,
    lapses           INTEGER NOT NULL,
    total_reviews    INTEGER NOT NULL,
    due              TIMESTAMP NOT NULL,
    last_reviewed    TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_states_due ON states(due);

CREATE TABLE IF NOT EXISTS interactions (
    id         TEXT PRIMARY KEY,
    atom_id    TEXT NOT NULL,
    concept    TEXT NOT NULL,
    module     TEXT NOT NULL DEFAULT '',
    correct    INTEGER NOT NULL,
    grade      INTEGER NOT NULL,
    latency_ms INTEGER NOT NULL,
    ts         TIMESTAMP NOT NULL,
    stability    REAL NOT NULL DEFAULT 0,
    difficulty   REAL NOT NULL DEFAULT 0,
    lapses       INTEGER NOT NULL DEFAULT 0,
    review_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_interactions_atom ON interactions(atom_id, ts);
CREATE INDEX IF NOT EXISTS idx_interactions_ts ON interactions(ts);

CREATE TABLE IF NOT EXISTS active_context (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    course     TEXT NOT NULL DEFAULT '',
    concepts   TEXT NOT NULL DEFAULT '[]',
    keywords   TEXT NOT NULL DEFAULT '[]',
    updated_at TIMESTAMP NOT NULL
);
`

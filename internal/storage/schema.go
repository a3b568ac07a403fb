package storage

const schema = `
-- The 'sources' table tracks where decks come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'cards' table stores each flashcard and the statistics carried across sessions.
CREATE TABLE IF NOT EXISTS cards (
    hash TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    options TEXT NOT NULL DEFAULT '[]', -- JSON array of distractors
    source_id INTEGER,
    position INTEGER NOT NULL DEFAULT 0,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    streak INTEGER NOT NULL DEFAULT 0,
    is_difficult INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_source_position ON cards(source_id, position);

-- One row per finished study session.
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    started_at DATETIME NOT NULL,
    ended_at DATETIME NOT NULL,
    total_attempts INTEGER NOT NULL,
    total_correct INTEGER NOT NULL
);

-- Per-card outcomes of a session; only cards with a nonzero streak are recorded.
CREATE TABLE IF NOT EXISTS session_cards (
    session_id TEXT NOT NULL,
    card_hash TEXT NOT NULL,
    total_attempts INTEGER NOT NULL,
    streak INTEGER NOT NULL,
    is_difficult INTEGER NOT NULL,

    PRIMARY KEY (session_id, card_hash),
    FOREIGN KEY(session_id) REFERENCES sessions(id)
);
`

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolquiz/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrUnknownCard is returned when a session outcome references a card that is
// not part of the deck it was played from.
var ErrUnknownCard = errors.New("storage: outcome references unknown card")

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Source represents a deck source, either a local path or a Git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string
	LastScanned sql.NullTime
}

// InsertSource inserts a new source into the database and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type)
		VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path. It returns nil when absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned
		FROM sources WHERE path = ?
	`, path)

	if err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources ordered by ID.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned
		FROM sources ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and every card imported from it.
func (db *DB) DeleteSource(id int64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete of source %d: %w", id, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cards WHERE source_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cards for source %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return tx.Commit()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources
		SET last_scanned = ?
		WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// UpsertCard stores a card's content at the given position of its source.
// The hash ignores case and surrounding whitespace, so the stored text is
// refreshed on conflict. Statistics of an existing card are left untouched.
func (db *DB) UpsertCard(card domain.Card, sourceID int64, position int) error {
	options, err := encodeOptions(card.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options for card %s: %w", card.Hash, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO cards (hash, question, answer, context, options, source_id, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			question = excluded.question,
			answer = excluded.answer,
			context = excluded.context,
			options = excluded.options,
			source_id = excluded.source_id,
			position = excluded.position
	`,
		card.Hash,
		card.Question,
		card.Answer,
		card.Context,
		options,
		sourceID,
		position,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %s: %w", card.Hash, err)
	}
	return nil
}

const cardColumns = `hash, question, answer, context, options, total_attempts, streak, is_difficult`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var (
		card    domain.Card
		options string
	)
	err := row.Scan(
		&card.Hash,
		&card.Question,
		&card.Answer,
		&card.Context,
		&options,
		&card.TotalAttempts,
		&card.Streak,
		&card.IsDifficult,
	)
	if err != nil {
		return domain.Card{}, err
	}
	if card.Options, err = decodeOptions(options); err != nil {
		return domain.Card{}, fmt.Errorf("failed to decode options for card %s: %w", card.Hash, err)
	}
	return card, nil
}

// FindCardByHash retrieves a card by its hash. It returns nil when absent.
func (db *DB) FindCardByHash(hash string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE hash = ?`, hash)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}
	return &card, nil
}

// GetCardsBySourceID retrieves all cards of a source in deck order.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]domain.Card, error) {
	return db.LoadDeck(context.Background(), DeckFilter{SourceID: sourceID})
}

// DeleteCardByHash removes a card from the database by its hash.
func (db *DB) DeleteCardByHash(hash string) error {
	_, err := db.conn.Exec(`
		DELETE FROM cards
		WHERE hash = ?
	`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// DeckFilter narrows the cards returned by LoadDeck. A zero SourceID selects
// every source.
type DeckFilter struct {
	SourceID      int64
	DifficultOnly bool
}

// LoadDeck returns the cards matching filter ordered by source and position,
// with Index set to each card's place in the returned slice.
func (db *DB) LoadDeck(ctx context.Context, filter DeckFilter) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE 1 = 1`
	var args []any
	if filter.SourceID != 0 {
		query += ` AND source_id = ?`
		args = append(args, filter.SourceID)
	}
	if filter.DifficultOnly {
		query += ` AND is_difficult = 1`
	}
	query += ` ORDER BY source_id, position, hash`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		card.Index = len(cards)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	return cards, nil
}

// SessionRecord describes a finished session. An empty ID is replaced by a
// new UUID.
type SessionRecord struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time
}

// SaveSession persists a finished session in one transaction. Outcome indexes
// refer to cards, the deck the session was played from; their statistics are
// written back by hash. Difficulty flags are written for every card in the
// deck so toggles on cards without progress are kept.
func (db *DB) SaveSession(ctx context.Context, rec SessionRecord, cards []domain.Card, summary domain.Summary) (id string, err error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin session %s: %w", rec.ID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, mode, started_at, ended_at, total_attempts, total_correct)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, summary.Mode.String(), rec.StartedAt, rec.EndedAt, summary.TotalAttempts, summary.TotalCorrect)
	if err != nil {
		return "", fmt.Errorf("failed to insert session %s: %w", rec.ID, err)
	}

	for _, o := range summary.Outcomes {
		if o.Index < 0 || o.Index >= len(cards) {
			return "", fmt.Errorf("%w: index %d", ErrUnknownCard, o.Index)
		}
		hash := cards[o.Index].Hash
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO session_cards (session_id, card_hash, total_attempts, streak, is_difficult)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, hash, o.TotalAttempts, o.Streak, o.IsDifficult); err != nil {
			return "", fmt.Errorf("failed to insert outcome for card %s: %w", hash, err)
		}
		if _, err = tx.ExecContext(ctx, `
			UPDATE cards SET total_attempts = ?, streak = ?
			WHERE hash = ?
		`, o.TotalAttempts, o.Streak, hash); err != nil {
			return "", fmt.Errorf("failed to update statistics for card %s: %w", hash, err)
		}
	}

	for _, card := range cards {
		if _, err = tx.ExecContext(ctx, `
			UPDATE cards SET is_difficult = ? WHERE hash = ?
		`, card.IsDifficult, card.Hash); err != nil {
			return "", fmt.Errorf("failed to update difficulty for card %s: %w", card.Hash, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit session %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// SessionSummary is a stored session as listed by RecentSessions.
type SessionSummary struct {
	ID            string
	Mode          string
	EndedAt       time.Time
	TotalAttempts int
	TotalCorrect  int
}

// RecentSessions returns up to limit sessions, newest first.
func (db *DB) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, mode, ended_at, total_attempts, total_correct
		FROM sessions ORDER BY ended_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.Mode, &s.EndedAt, &s.TotalAttempts, &s.TotalCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func encodeOptions(options []string) (string, error) {
	if options == nil {
		options = []string{}
	}
	b, err := json.Marshal(options)
	return string(b), err
}

func decodeOptions(raw string) ([]string, error) {
	var options []string
	if raw == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, nil
	}
	return options, nil
}

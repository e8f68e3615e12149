package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/ircsession/internal/store"
)

// Schema creates the transcript tables.
const Schema = `
	CREATE TABLE IF NOT EXISTS entries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		kind       TEXT NOT NULL,
		target     TEXT NOT NULL,
		target_key TEXT NOT NULL,
		nick       TEXT NOT NULL DEFAULT '',
		text       TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_target ON entries(target_key, id DESC);
`

// ApplySchema runs Schema against db.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and ensures the schema exists.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveEntry persists an entry and sets its ID.
func (s *SQLiteStore) SaveEntry(ctx context.Context, entry *store.Entry) error {
	query := `
		INSERT INTO entries (kind, target, target_key, nick, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		string(entry.Kind),
		entry.Target,
		entry.TargetKey,
		entry.Nick,
		entry.Text,
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListEntries retrieves entries for a target with pagination.
func (s *SQLiteStore) ListEntries(ctx context.Context, targetKey string, limit int, beforeID *int64) ([]*store.Entry, error) {
	var query string
	var args []any

	if beforeID != nil {
		query = `
			SELECT id, kind, target, target_key, nick, text, created_at
			FROM entries
			WHERE target_key = ? AND id < ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []any{targetKey, *beforeID, limit}
	} else {
		query = `
			SELECT id, kind, target, target_key, nick, text, created_at
			FROM entries
			WHERE target_key = ?
			ORDER BY id DESC
			LIMIT ?
		`
		args = []any{targetKey, limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*store.Entry
	for rows.Next() {
		var e store.Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Target, &e.TargetKey, &e.Nick, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = store.EntryKind(kind)
		entries = append(entries, &e)
	}

	// Reverse to get chronological order
	for i := range len(entries) / 2 {
		entries[i], entries[len(entries)-1-i] = entries[len(entries)-1-i], entries[i]
	}

	return entries, rows.Err()
}

// ListTargets lists the display names of all targets with entries, most recent name per target.
func (s *SQLiteStore) ListTargets(ctx context.Context) ([]string, error) {
	query := `
		SELECT e.target
		FROM entries e
		JOIN (SELECT target_key, MAX(id) AS id FROM entries GROUP BY target_key) latest
			ON latest.id = e.id
		ORDER BY e.target_key
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets = append(targets, target)
	}
	return targets, rows.Err()
}

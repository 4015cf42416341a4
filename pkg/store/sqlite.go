package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores state values in a single database file under the data directory.
type SQLite struct {
	db      *sql.DB
	dataDir string
}

// NewSQLite opens (creating if needed) the state database in dataDir.
func NewSQLite(dataDir string) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{
		db:      db,
		dataDir: dataDir,
	}

	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize state store: %w", err)
	}

	return s, nil
}

// init creates the database schema
func (s *SQLite) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS state (
		scope TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (scope, key)
	);

	CREATE INDEX IF NOT EXISTS idx_state_scope ON state(scope);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load returns the stored value, or ok=false when nothing was stored yet.
func (s *SQLite) Load(ctx context.Context, scope Scope, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM state WHERE scope = ? AND key = ?",
		string(scope), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s/%s: %w", scope, key, err)
	}
	return []byte(value), true, nil
}

// Save upserts a value.
func (s *SQLite) Save(ctx context.Context, scope Scope, key string, value []byte) error {
	query := `
	INSERT OR REPLACE INTO state (scope, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, string(scope), key, string(value), time.Now()); err != nil {
		return fmt.Errorf("save %s/%s: %w", scope, key, err)
	}
	return nil
}

// Keys lists the keys stored under scope.
func (s *SQLite) Keys(ctx context.Context, scope Scope) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM state WHERE scope = ? ORDER BY key", string(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close closes the state database
func (s *SQLite) Close() error {
	return s.db.Close()
}

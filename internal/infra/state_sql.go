package infra

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

const schemaVersion = "1"

// sqlStateStore holds the engine state in a key/payload table. Shared by the
// SQLite and SQLCipher backends, which differ only in how the DB is opened.
type sqlStateStore struct {
	db     *sql.DB
	dbPath string
}

// createTables creates the schema if it doesn't exist.
func (s *sqlStateStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS engine_state (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion)
	return err
}

// Load returns the state stored under key, or nil when there is none.
func (s *sqlStateStore) Load(key string) (*domain.EngineState, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM engine_state WHERE key = ?`, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}
	return decodeState([]byte(payload))
}

// Save replaces the state stored under key.
func (s *sqlStateStore) Save(key string, state domain.EngineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO engine_state (key, payload, updated_at) VALUES (?, ?, ?)`,
		key, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

// UpdatedAt returns when key was last saved.
func (s *sqlStateStore) UpdatedAt(key string) (time.Time, error) {
	var ts int64
	err := s.db.QueryRow(`SELECT updated_at FROM engine_state WHERE key = ?`, key).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(ts, 0), nil
}

// Path returns the database file path.
func (s *sqlStateStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *sqlStateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

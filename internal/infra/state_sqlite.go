package infra

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

const sqliteDBName = "state.db"

// SQLiteStateStore implements domain.StateStore on plain SQLite through the
// pure-Go modernc driver.
type SQLiteStateStore struct {
	sqlStateStore
}

// NewSQLiteStateStore opens (or creates) state.db under dataDir.
func NewSQLiteStateStore(dataDir string) (*SQLiteStateStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, sqliteDBName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; keeps the per-connection pragmas below in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &SQLiteStateStore{sqlStateStore{db: db, dbPath: dbPath}}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Ensure SQLiteStateStore implements domain.StateStore.
var _ domain.StateStore = (*SQLiteStateStore)(nil)

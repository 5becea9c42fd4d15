package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// FileStateStore implements domain.StateStore with one JSON file per key.
type FileStateStore struct {
	dir string
}

// NewFileStateStore creates a file-backed store rooted at dir.
func NewFileStateStore(dir string) (*FileStateStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileStateStore{dir: dir}, nil
}

// PathFor returns the file a key is stored in.
func (s *FileStateStore) PathFor(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Load reads the state for key. A missing file is not an error.
func (s *FileStateStore) Load(key string) (*domain.EngineState, error) {
	data, err := os.ReadFile(s.PathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return decodeState(data)
}

// Save writes the state for key atomically (write + rename).
func (s *FileStateStore) Save(key string, state domain.EngineState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	path := s.PathFor(key)
	// Unique per process so concurrent writers never share a temp file
	tmpPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStateStore) Close() error {
	return nil
}

// decodeState parses a JSON payload; empty payloads count as absent.
func decodeState(data []byte) (*domain.EngineState, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var st domain.EngineState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &st, nil
}

// sanitizeKey maps a store key to a safe file name.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
}

// Ensure FileStateStore implements domain.StateStore.
var _ domain.StateStore = (*FileStateStore)(nil)

package infra

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// Store backends selectable from configuration.
const (
	BackendFile      = "file"
	BackendSQLite    = "sqlite"
	BackendEncrypted = "encrypted"
	BackendMemory    = "memory"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendFile, BackendSQLite, BackendEncrypted, BackendMemory}
}

// StoreOptions selects and locates a state store.
type StoreOptions struct {
	Backend string
	DataDir string
	// Key is an optional hex/base64 SQLCipher key. When empty the encrypted
	// backend generates one and keeps it in the data directory.
	Key string
}

// OpenStateStore opens the configured backend. Durable backends are wrapped
// in a FallbackStore so a failing disk degrades to in-memory state. A backend
// that cannot be opened at all also degrades to memory, logged at Warn; only
// configuration mistakes (unknown backend, malformed key) are returned.
func OpenStateStore(opts StoreOptions, logger *zap.Logger) (domain.StateStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var static *StaticKeyProvider
	if opts.Backend == BackendEncrypted && opts.Key != "" {
		p, err := NewStaticKeyProvider(opts.Key)
		if err != nil {
			return nil, err
		}
		static = p
	}

	var (
		store domain.StateStore
		err   error
	)
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStateStore(), nil
	case BackendFile, "":
		store, err = NewFileStateStore(opts.DataDir)
	case BackendSQLite:
		store, err = NewSQLiteStateStore(opts.DataDir)
	case BackendEncrypted:
		store, err = openEncrypted(opts.DataDir, static)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
	if err != nil {
		logger.Warn("state store unavailable, keeping state in memory",
			zap.String("backend", opts.Backend),
			zap.String("data_dir", opts.DataDir),
			zap.Error(err))
		return NewMemoryStateStore(), nil
	}

	logger.Debug("state store opened",
		zap.String("backend", opts.Backend),
		zap.String("data_dir", opts.DataDir))
	return NewFallbackStore(store, logger), nil
}

func openEncrypted(dataDir string, static *StaticKeyProvider) (*EncryptedStateStore, error) {
	var provider domain.KeyProvider = NewFileKeyProvider(dataDir)
	if static != nil {
		provider = static
	}

	key, err := EnsureKey(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain encryption key: %w", err)
	}
	return NewEncryptedStateStore(dataDir, key)
}

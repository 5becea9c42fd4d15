package domain

// StateStore persists the engine state as an opaque record under a key.
// Implementations: JSON file, SQLite, SQLCipher, in-memory.
type StateStore interface {
	// Load returns the stored state, or (nil, nil) when nothing is stored.
	// A payload that cannot be decoded is reported as an error.
	Load(key string) (*EngineState, error)

	// Save replaces the stored state.
	Save(key string, state EngineState) error

	// Close releases resources (e.g., database connection).
	Close() error
}

// PolicyTable provides the static per-mode defaults.
// Implementation: policy.Registry.
type PolicyTable interface {
	// Lookup returns the entry for mode.
	Lookup(mode Mode) (ModePolicy, bool)

	// All returns every entry, ordered as AllModes.
	All() []ModePolicy
}

// KeyProvider abstracts the source of encryption keys for the encrypted store.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

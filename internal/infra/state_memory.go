package infra

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// MemoryStateStore keeps state in process memory only.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]domain.EngineState
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]domain.EngineState)}
}

func (s *MemoryStateStore) Load(key string) (*domain.EngineState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[key]
	if !ok {
		return nil, nil
	}
	out := st.Clone()
	return &out, nil
}

func (s *MemoryStateStore) Save(key string, state domain.EngineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = state.Clone()
	return nil
}

func (s *MemoryStateStore) Close() error {
	return nil
}

// FallbackStore pairs a durable primary store with an in-memory shadow.
// Every Save lands in the shadow, so a session keeps its state when the
// primary becomes unavailable mid-run.
type FallbackStore struct {
	primary domain.StateStore
	shadow  *MemoryStateStore
	logger  *zap.Logger
}

// NewFallbackStore wraps primary. A nil logger disables logging.
func NewFallbackStore(primary domain.StateStore, logger *zap.Logger) *FallbackStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackStore{
		primary: primary,
		shadow:  NewMemoryStateStore(),
		logger:  logger,
	}
}

// Load prefers the primary, serving the shadow copy when the primary fails
// and a shadow copy exists.
func (s *FallbackStore) Load(key string) (*domain.EngineState, error) {
	st, err := s.primary.Load(key)
	if err == nil {
		if st != nil {
			s.shadow.Save(key, *st)
		}
		return st, nil
	}

	shadow, _ := s.shadow.Load(key)
	if shadow == nil {
		return nil, err
	}
	s.logger.Warn("primary state store unavailable, serving in-memory copy",
		zap.String("key", key),
		zap.Error(err))
	return shadow, nil
}

// Save writes the shadow first and then the primary. The primary's error is
// returned so callers can log it; the shadow is updated regardless.
func (s *FallbackStore) Save(key string, state domain.EngineState) error {
	s.shadow.Save(key, state)
	return s.primary.Save(key, state)
}

func (s *FallbackStore) Close() error {
	return s.primary.Close()
}

var (
	_ domain.StateStore = (*MemoryStateStore)(nil)
	_ domain.StateStore = (*FallbackStore)(nil)
)

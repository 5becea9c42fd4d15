// Package usecase contains application business logic.
package usecase

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// DefaultStateKey is the key the engine state is stored under.
const DefaultStateKey = "pulse.behavior.state"

// BehaviorEngine owns the persisted adaptation state. Mutators are the only
// way state changes; Compute derives the current UI policy from it.
type BehaviorEngine struct {
	mu     sync.Mutex
	store  domain.StateStore
	table  domain.PolicyTable
	logger *zap.Logger
	now    func() time.Time
	loc    *time.Location
	key    string
	state  domain.EngineState
}

// Option configures a BehaviorEngine.
type Option func(*BehaviorEngine)

// WithClock replaces time.Now (for testing).
func WithClock(now func() time.Time) Option {
	return func(e *BehaviorEngine) { e.now = now }
}

// WithLocation sets the zone calendar days and times of day are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(e *BehaviorEngine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithStateKey overrides DefaultStateKey.
func WithStateKey(key string) Option {
	return func(e *BehaviorEngine) { e.key = key }
}

// NewBehaviorEngine loads persisted state from store, bootstrapping fresh
// defaults when nothing usable is stored, and runs the monthly grace and
// daily focus checks. A nil store keeps state in memory only.
// It fails only when table does not cover every mode.
func NewBehaviorEngine(store domain.StateStore, table domain.PolicyTable, logger *zap.Logger, opts ...Option) (*BehaviorEngine, error) {
	for _, m := range domain.AllModes() {
		if _, ok := table.Lookup(m); !ok {
			return nil, fmt.Errorf("policy table missing mode %q", m)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &BehaviorEngine{
		store:  store,
		table:  table,
		logger: logger,
		now:    time.Now,
		loc:    time.Local,
		key:    DefaultStateKey,
	}
	for _, opt := range opts {
		opt(e)
	}

	now := e.clock()
	if st, ok := e.load(); ok {
		e.state = st
	} else {
		e.state = e.bootstrap(now)
		e.persist()
	}

	grace := e.monthlyGraceReset(now, false)
	focus := e.dailyCountersReset(now)
	if grace || focus {
		e.persist()
	}

	e.logger.Debug("behavior engine ready",
		zap.String("mode", string(e.state.Mode)),
		zap.Int("streak_days", e.state.StreakDays),
		zap.Int("grace_days_left", e.state.GraceDaysLeft))
	return e, nil
}

// Mode returns the active mode.
func (e *BehaviorEngine) Mode() domain.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Mode
}

// State returns a read-only copy of the current state.
func (e *BehaviorEngine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// SetMode switches mode and resets grace days to the new mode's quota,
// even within the same month. The streak is kept.
func (e *BehaviorEngine) SetMode(mode domain.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMode, mode)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state.Mode
	e.state.Mode = mode
	e.monthlyGraceReset(e.clock(), true)
	e.persist()

	e.logger.Info("mode changed",
		zap.String("from", string(prev)),
		zap.String("to", string(mode)),
		zap.Int("grace_days_left", e.state.GraceDaysLeft))
	return nil
}

// ApplyCheckIn records today's mood and energy. A check-in counts as
// qualifying activity. Callers pass values validated with ParseMood and
// ParseEnergy.
func (e *BehaviorEngine) ApplyCheckIn(mood domain.Mood, energy domain.Energy) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	e.state.CheckIn = &domain.CheckIn{Date: domain.DateOf(now), Mood: mood, Energy: energy}
	e.markActivity(now)
	e.persist()

	e.logger.Debug("check-in applied",
		zap.Int("mood", int(mood)),
		zap.String("energy", string(energy)))
}

// RecordFocusSession counts a completed focus session.
func (e *BehaviorEngine) RecordFocusSession() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock()
	e.dailyCountersReset(now)
	e.state.FocusSessionsToday++
	at := now
	e.state.LastFocusAt = &at
	e.markActivity(now)
	e.persist()

	e.logger.Debug("focus session recorded",
		zap.Int("focus_sessions_today", e.state.FocusSessionsToday))
}

// RecordCompletion counts a task or Daily-3 completion as activity.
// Focus counters are unaffected.
func (e *BehaviorEngine) RecordCompletion() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.markActivity(e.clock())
	e.persist()
}

// clock returns the current time in the engine's location.
func (e *BehaviorEngine) clock() time.Time {
	return e.now().In(e.loc)
}

// policyFor returns the table entry for mode, falling back to the default
// entry. Construction guarantees every valid mode is present.
func (e *BehaviorEngine) policyFor(mode domain.Mode) domain.ModePolicy {
	if p, ok := e.table.Lookup(mode); ok {
		return p
	}
	p, _ := e.table.Lookup(domain.ModeDefault)
	return p
}

func (e *BehaviorEngine) bootstrap(now time.Time) domain.EngineState {
	e.logger.Info("bootstrapping fresh behavior state")
	return domain.EngineState{
		Version:            domain.StateVersion,
		Mode:               domain.ModeDefault,
		GraceDaysLeft:      e.policyFor(domain.ModeDefault).GraceDaysPerMonth,
		GraceSnapshotMonth: domain.MonthOf(now),
	}
}

// markActivity advances the streak on the first qualifying action of a day.
// This is the only place streakDays increases.
func (e *BehaviorEngine) markActivity(now time.Time) {
	today := domain.DateOf(now)
	if e.state.LastActivityDate != nil && *e.state.LastActivityDate == today {
		return
	}
	e.state.StreakDays++
	e.state.LastActivityDate = &today
	e.state.StreakPaused = false
	if e.state.StreakDays > e.state.LongestStreak {
		e.state.LongestStreak = e.state.StreakDays
	}
	e.logger.Info("streak advanced", zap.Int("streak_days", e.state.StreakDays))
}

// monthlyGraceReset refills grace days to the current mode's quota when the
// calendar month changed, or unconditionally when forced.
func (e *BehaviorEngine) monthlyGraceReset(now time.Time, force bool) bool {
	month := domain.MonthOf(now)
	if !force && e.state.GraceSnapshotMonth == month {
		return false
	}
	e.state.GraceDaysLeft = e.policyFor(e.state.Mode).GraceDaysPerMonth
	e.state.GraceSnapshotMonth = month
	return true
}

// dailyCountersReset zeroes the focus counter once lastFocusAt falls on an
// earlier day.
func (e *BehaviorEngine) dailyCountersReset(now time.Time) bool {
	if e.focusCounterStale(now) {
		e.state.FocusSessionsToday = 0
		return true
	}
	return false
}

func (e *BehaviorEngine) focusCounterStale(now time.Time) bool {
	last := e.state.LastFocusAt
	return last != nil && domain.DateOf(last.In(e.loc)) != domain.DateOf(now)
}

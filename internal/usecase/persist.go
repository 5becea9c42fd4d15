package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// load reads and migrates the stored state. Missing or unreadable state
// reports false so the caller bootstraps defaults.
func (e *BehaviorEngine) load() (domain.EngineState, bool) {
	if e.store == nil {
		return domain.EngineState{}, false
	}

	st, err := e.store.Load(e.key)
	if err != nil {
		e.logger.Warn("discarding unreadable behavior state",
			zap.String("key", e.key),
			zap.Error(err))
		return domain.EngineState{}, false
	}
	if st == nil {
		return domain.EngineState{}, false
	}

	migrated := migrate(*st)
	if migrated.Version != st.Version {
		e.logger.Info("migrated behavior state",
			zap.Int("from_version", st.Version),
			zap.Int("to_version", migrated.Version))
	}
	return migrated, true
}

// Reload replaces the in-memory state with what the store holds, so writes
// made by other processes sharing the store are seen before the next roll or
// compute. Missing or unreadable state keeps the in-memory copy.
func (e *BehaviorEngine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.load()
	if !ok {
		return
	}
	e.state = st

	now := e.clock()
	grace := e.monthlyGraceReset(now, false)
	focus := e.dailyCountersReset(now)
	if grace || focus {
		e.persist()
	}
}

// persist writes the state best-effort. Failures are logged, never
// returned: the in-memory copy stays authoritative.
func (e *BehaviorEngine) persist() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.key, e.state.Clone()); err != nil {
		e.logger.Warn("failed to persist behavior state",
			zap.String("key", e.key),
			zap.Error(err))
	}
}

// migrate upgrades payloads to StateVersion and repairs values that would
// break engine invariants. Unversioned payloads come from the web client.
func migrate(st domain.EngineState) domain.EngineState {
	out := st.Clone()

	if !out.Mode.Valid() {
		out.Mode = domain.ModeDefault
	}
	out.FocusSessionsToday = max(0, out.FocusSessionsToday)
	out.StreakDays = max(0, out.StreakDays)
	out.GraceDaysLeft = max(0, out.GraceDaysLeft)
	out.LongestStreak = max(out.LongestStreak, out.StreakDays)

	if ci := out.CheckIn; ci != nil && (!ci.Mood.Valid() || !ci.Energy.Valid() || ci.Date.IsZero()) {
		out.CheckIn = nil
	}
	if out.LastActivityDate != nil && out.LastActivityDate.IsZero() {
		out.LastActivityDate = nil
	}
	if out.LastActivityDate == nil {
		out.StreakPaused = false
	}

	out.Version = domain.StateVersion
	return out
}

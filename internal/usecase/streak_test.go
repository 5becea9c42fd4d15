package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

func TestRollGrace(t *testing.T) {
	tests := []struct {
		name      string
		gap       int
		grace     int
		wantUsed  int
		wantLeft  int
		wantPause bool
	}{
		{name: "one day with grace", gap: 1, grace: 2, wantUsed: 1, wantLeft: 1},
		{name: "one day without grace", gap: 1, grace: 0, wantUsed: 0, wantLeft: 0, wantPause: true},
		{name: "two days covered", gap: 2, grace: 2, wantUsed: 1, wantLeft: 1},
		{name: "four days covered exactly", gap: 4, grace: 3, wantUsed: 3, wantLeft: 0},
		{name: "long gap beyond quota", gap: 10, grace: 4, wantUsed: 4, wantLeft: 0, wantPause: true},
		{name: "gap with empty quota", gap: 3, grace: 0, wantUsed: 0, wantLeft: 0, wantPause: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rollGrace(tt.gap, tt.grace)

			assert.Equal(t, tt.gap, res.Gap)
			assert.Equal(t, tt.wantUsed, res.GraceUsed)
			assert.Equal(t, tt.wantLeft, tt.grace-res.GraceUsed)
			assert.Equal(t, tt.wantPause, res.Paused())
		})
	}
}

func TestRollStreakIfNeeded_GraceBounds(t *testing.T) {
	for gap := 1; gap <= 6; gap++ {
		for q := 0; q <= 4; q++ {
			store := newMockStateStore()
			store.states[DefaultStateKey] = domain.EngineState{
				Version:            domain.StateVersion,
				Mode:               domain.ModeBPD,
				StreakDays:         5,
				LastActivityDate:   date(2026, time.May, 1),
				GraceDaysLeft:      q,
				GraceSnapshotMonth: domain.Month{Year: 2026, Month: time.May},
			}
			clock := &testClock{t: at(2026, time.May, 1+gap, 8, 0)}
			e := newTestEngine(t, store, clock)

			e.RollStreakIfNeeded(clock.t)

			want := q - min(gap-1, q)
			if gap == 1 {
				want = q - min(1, q)
			}
			st := e.State()
			assert.Equal(t, want, st.GraceDaysLeft, "gap=%d q=%d", gap, q)
			assert.GreaterOrEqual(t, st.GraceDaysLeft, 0)
			assert.Equal(t, 5, st.StreakDays, "roll never changes the streak")
			assert.Equal(t, *date(2026, time.May, 1), *st.LastActivityDate, "roll never marks activity")
		}
	}
}

func TestRollStreakIfNeeded_IdempotentSameDay(t *testing.T) {
	store := newMockStateStore()
	clock := &testClock{t: at(2026, time.March, 10, 9, 0)}
	e := newTestEngine(t, store, clock)
	e.RecordCompletion()

	morning := at(2026, time.March, 12, 7, 0)
	first := e.RollStreakIfNeeded(morning)
	assert.Equal(t, 1, first.GraceUsed)
	after := e.State()

	for _, ts := range []time.Time{morning, at(2026, time.March, 12, 13, 0), at(2026, time.March, 12, 23, 59)} {
		res := e.RollStreakIfNeeded(ts)
		assert.Equal(t, domain.RollResult{}, res)
		assert.Equal(t, after, e.State())
	}
}

func TestRollStreakIfNeeded_FirstRunNoop(t *testing.T) {
	store := newMockStateStore()
	clock := &testClock{t: at(2026, time.March, 10, 9, 0)}
	e := newTestEngine(t, store, clock)
	saves := store.saves

	res := e.RollStreakIfNeeded(at(2026, time.March, 20, 9, 0))

	assert.Equal(t, domain.RollResult{}, res)
	assert.Equal(t, 2, e.State().GraceDaysLeft)
	assert.Equal(t, saves, store.saves)
}

func TestRollStreakIfNeeded_ActiveTodayNoop(t *testing.T) {
	clock := &testClock{t: at(2026, time.March, 10, 9, 0)}
	e := newTestEngine(t, newMockStateStore(), clock)
	e.RecordCompletion()

	res := e.RollStreakIfNeeded(at(2026, time.March, 10, 22, 0))
	assert.Equal(t, 0, res.Gap)
	assert.Equal(t, 2, e.State().GraceDaysLeft)
}

func TestRollStreakIfNeeded_PausedKeepsStreak(t *testing.T) {
	clock := &testClock{t: at(2026, time.March, 1, 9, 0)}
	e := newTestEngine(t, newMockStateStore(), clock)
	for d := 1; d <= 4; d++ {
		clock.t = at(2026, time.March, d, 9, 0)
		e.RecordCompletion()
	}
	require.Equal(t, 4, e.State().StreakDays)

	clock.t = at(2026, time.March, 15, 9, 0)
	res := e.RollStreakIfNeeded(clock.t)
	assert.True(t, res.Paused())
	assert.Equal(t, 8, res.Uncovered)
	assert.Equal(t, 4, e.State().StreakDays)

	// The streak resumes counting from where it froze.
	e.RecordCompletion()
	assert.Equal(t, 5, e.State().StreakDays)
	assert.Equal(t, 5, e.State().LongestStreak)
}

func TestRollStreakIfNeeded_PausedStateOutlivesTheRoll(t *testing.T) {
	store := newMockStateStore()
	clock := &testClock{t: at(2026, time.March, 1, 9, 0)}
	e := newTestEngine(t, store, clock)
	e.RecordCompletion()

	clock.t = at(2026, time.March, 10, 9, 0)
	require.True(t, e.RollStreakIfNeeded(clock.t).Paused())
	assert.True(t, e.State().StreakPaused)

	// A second status call the same day, from a fresh process.
	clock.t = at(2026, time.March, 10, 18, 0)
	again := newTestEngine(t, store, clock)
	assert.Equal(t, domain.RollResult{}, again.RollStreakIfNeeded(clock.t))
	assert.True(t, again.State().StreakPaused)

	again.RecordCompletion()
	assert.False(t, again.State().StreakPaused)
	assert.False(t, store.states[DefaultStateKey].StreakPaused)
}

func TestRollStreakIfNeeded_CoveredGapIsNotPaused(t *testing.T) {
	clock := &testClock{t: at(2026, time.March, 1, 9, 0)}
	e := newTestEngine(t, newMockStateStore(), clock)
	e.RecordCompletion()

	// Two skipped days, two grace days: grace runs out but nothing is uncovered.
	res := e.RollStreakIfNeeded(at(2026, time.March, 4, 9, 0))
	assert.False(t, res.Paused())
	assert.Equal(t, 0, e.State().GraceDaysLeft)
	assert.False(t, e.State().StreakPaused)
}

func TestRollStreakIfNeeded_PersistsEveryBranch(t *testing.T) {
	tests := []struct {
		name  string
		gap   int
		grace int
	}{
		{name: "one day grace", gap: 1, grace: 1},
		{name: "one day exhausted", gap: 1, grace: 0},
		{name: "multi day", gap: 5, grace: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStateStore()
			store.states[DefaultStateKey] = domain.EngineState{
				Version:            domain.StateVersion,
				Mode:               domain.ModeDefault,
				LastActivityDate:   date(2026, time.March, 1),
				GraceDaysLeft:      tt.grace,
				GraceSnapshotMonth: domain.Month{Year: 2026, Month: time.March},
			}
			clock := &testClock{t: at(2026, time.March, 1+tt.gap, 9, 0)}
			e := newTestEngine(t, store, clock)
			saves := store.saves

			e.RollStreakIfNeeded(clock.t)

			assert.Equal(t, saves+1, store.saves)
			require.NotNil(t, store.states[DefaultStateKey].LastRollDate)
			assert.Equal(t, domain.DateOf(clock.t), *store.states[DefaultStateKey].LastRollDate)
		})
	}
}

func TestRollStreakIfNeeded_FutureActivityIgnored(t *testing.T) {
	store := newMockStateStore()
	store.states[DefaultStateKey] = domain.EngineState{
		Version:            domain.StateVersion,
		Mode:               domain.ModeDefault,
		LastActivityDate:   date(2026, time.March, 20),
		GraceDaysLeft:      2,
		GraceSnapshotMonth: domain.Month{Year: 2026, Month: time.March},
	}
	clock := &testClock{t: at(2026, time.March, 10, 9, 0)}
	e := newTestEngine(t, store, clock)

	res := e.RollStreakIfNeeded(clock.t)
	assert.Equal(t, domain.RollResult{}, res)
	assert.Equal(t, 2, e.State().GraceDaysLeft)
}

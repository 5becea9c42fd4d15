package usecase

import (
	"time"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
	"github.com/eliteGoblin/focusd/pulse/internal/policy"
)

// Compute derives what the UI should do right now. It does not mutate
// state and is deterministic for a given state, now and table.
func (e *BehaviorEngine) Compute(now time.Time) domain.PolicySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	now = now.In(e.loc)
	pack := e.policyFor(e.state.Mode)
	snap := policy.Baseline(pack)
	snap.Mode = e.state.Mode

	if ci := e.state.CheckIn; ci != nil && ci.Date == domain.DateOf(now) {
		applyCheckIn(&snap, ci)
	}

	clock := domain.ClockOf(now)
	snap.ShouldOfferWindDown = domain.Reached(pack.NightWindDown, clock)

	if e.state.Mode == domain.ModeBipolar && pack.Overdrive != nil {
		guard := pack.Overdrive
		snap.ShouldDimAnimations = domain.Reached(guard.DimAnimationsAfter, clock)
		snap.RequireConfirmAddTask = domain.Reached(guard.SoftBlockNewTasksAfter, clock)

		if e.inOverdrive(now, guard.MaxFocusSessionsAfter21) {
			snap.ShouldDimAnimations = true
			snap.RequireConfirmAddTask = true
		}
	}

	return snap
}

// CurrentPolicy is Compute at the engine clock's current time.
func (e *BehaviorEngine) CurrentPolicy() domain.PolicySnapshot {
	return e.Compute(e.now())
}

// applyCheckIn adjusts caps, timer and animations for today's check-in.
func applyCheckIn(snap *domain.PolicySnapshot, ci *domain.CheckIn) {
	switch ci.Energy {
	case domain.EnergyLow:
		snap.TaskCap = max(1, snap.TaskCap-1)
		snap.TimerMin = max(5, snap.TimerMin-2)
	case domain.EnergyHigh:
		// ADHD only.
		if snap.Mode == domain.ModeADHD {
			snap.TimerMin = max(10, min(20, snap.TimerMin))
		}
	}
	if ci.Mood <= -1 {
		snap.Animations = snap.Animations.Dimmed()
	}
}

// inOverdrive reports whether today's focus sessions reached limit and the
// latest one finished at or after 21:00 today.
func (e *BehaviorEngine) inOverdrive(now time.Time, limit int) bool {
	sessions := e.state.FocusSessionsToday
	if e.focusCounterStale(now) {
		sessions = 0
	}
	if sessions < limit || e.state.LastFocusAt == nil {
		return false
	}
	y, m, d := now.Date()
	after21 := time.Date(y, m, d, policy.OverdriveHour, 0, 0, 0, e.loc)
	return !e.state.LastFocusAt.Before(after21)
}

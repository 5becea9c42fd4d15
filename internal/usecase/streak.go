package usecase

import (
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// RollStreakIfNeeded spends grace days on the days since the last
// qualifying activity. Call it at session start; repeated calls on the same
// calendar day are no-ops. It never sets lastActivityDate and never resets
// streakDays: days beyond the grace quota leave the streak frozen, which the
// returned RollResult reports as Paused. The paused outcome is also kept in
// state until the next qualifying activity.
func (e *BehaviorEngine) RollStreakIfNeeded(now time.Time) domain.RollResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now = now.In(e.loc)
	today := domain.DateOf(now)

	last := e.state.LastActivityDate
	if last == nil || *last == today {
		return domain.RollResult{}
	}
	if e.state.LastRollDate != nil && *e.state.LastRollDate == today {
		return domain.RollResult{}
	}

	gap := domain.DaysBetween(*last, today)
	if gap < 1 {
		// Last activity lies in the future (clock moved back); nothing to cover.
		e.logger.Warn("last activity is after today, skipping streak roll",
			zap.Stringer("last_activity", *last),
			zap.Stringer("today", today))
		return domain.RollResult{}
	}

	e.monthlyGraceReset(now, false)
	e.dailyCountersReset(now)

	res := rollGrace(gap, e.state.GraceDaysLeft)
	e.state.GraceDaysLeft -= res.GraceUsed
	e.state.LastRollDate = &today
	e.state.StreakPaused = res.Paused()
	e.persist()

	e.logger.Info("streak rolled",
		zap.Int("gap_days", res.Gap),
		zap.Int("grace_used", res.GraceUsed),
		zap.Int("grace_days_left", e.state.GraceDaysLeft),
		zap.Bool("paused", res.Paused()))
	return res
}

// rollGrace decides how many grace days a gap consumes.
// A one-day gap spends one grace day when available; a longer gap spends
// one per fully skipped day, up to the remaining quota.
func rollGrace(gap, graceLeft int) domain.RollResult {
	res := domain.RollResult{Gap: gap}
	if gap == 1 {
		if graceLeft > 0 {
			res.GraceUsed = 1
		} else {
			res.Exhausted = true
		}
		return res
	}

	uncovered := gap - 1
	res.GraceUsed = min(uncovered, graceLeft)
	res.Uncovered = uncovered - res.GraceUsed
	return res
}

// Package policy holds the mode policy table: the static per-mode defaults
// every adaptive UI parameter starts from. There is exactly one table.
package policy

import (
	"time"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
)

// DefaultRefreshInterval is how often hosts should re-run compute to catch
// time-of-day transitions (wind-down, overdrive windows).
const DefaultRefreshInterval = time.Minute

// OverdriveHour is the evening hour after which focus sessions count
// toward the Bipolar overdrive limit.
const OverdriveHour = 21

// noOverdriveLimit disables the late-session override for modes without one.
const noOverdriveLimit = 999

// Baseline converts a table entry into the snapshot it yields before any
// check-in or time-of-day adjustment.
func Baseline(p domain.ModePolicy) domain.PolicySnapshot {
	return domain.PolicySnapshot{
		Mode:             p.Mode,
		TaskCap:          p.TaskCap,
		TimerMin:         p.TimerMin,
		Animations:       p.Animations,
		Sounds:           p.Sounds,
		ShowCrisisButton: p.ShowCrisisButton,
		EveningCopy:      p.EveningCopy,
	}
}

// DefaultTable returns the built-in entries. Tune numbers here, not in UI code.
func DefaultTable() []domain.ModePolicy {
	return []domain.ModePolicy{
		{
			Mode:              domain.ModeDefault,
			TaskCap:           5,
			TimerMin:          15,
			GraceDaysPerMonth: 2,
			Animations:        domain.AnimMedium,
			Overdrive:         &domain.OverdriveGuard{MaxFocusSessionsAfter21: noOverdriveLimit},
		},
		{
			Mode:              domain.ModeADHD,
			TaskCap:           3,
			TimerMin:          15,
			GraceDaysPerMonth: 2,
			Animations:        domain.AnimHigh,
			Sounds:            true,
			Overdrive:         &domain.OverdriveGuard{MaxFocusSessionsAfter21: noOverdriveLimit},
		},
		{
			Mode:              domain.ModeBPD,
			TaskCap:           2,
			TimerMin:          10,
			GraceDaysPerMonth: 4,
			Animations:        domain.AnimLow,
			ShowCrisisButton:  true,
			EveningCopy:       true,
			Overdrive:         &domain.OverdriveGuard{MaxFocusSessionsAfter21: noOverdriveLimit},
		},
		{
			Mode:              domain.ModeBipolar,
			TaskCap:           3,
			TimerMin:          12,
			GraceDaysPerMonth: 3,
			Animations:        domain.AnimLow,
			EveningCopy:       true,
			NightWindDown:     domain.MustTimeOfDay("22:00"),
			Overdrive: &domain.OverdriveGuard{
				MaxFocusSessionsAfter21: 3,
				DimAnimationsAfter:      domain.MustTimeOfDay("21:00"),
				SoftBlockNewTasksAfter:  domain.MustTimeOfDay("22:00"),
			},
		},
	}
}

// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StateVersion is the current EngineState schema version.
// Payloads written before versioning carry 0.
const StateVersion = 1

var (
	ErrUnknownMode   = errors.New("unknown mode")
	ErrInvalidMood   = errors.New("mood must be an integer in [-2, 2]")
	ErrInvalidEnergy = errors.New("energy must be one of low, med, high")
)

// Mode identifies the user-selected behavioral profile.
type Mode string

const (
	ModeDefault Mode = "default"
	ModeADHD    Mode = "adhd"
	ModeBPD     Mode = "bpd"
	ModeBipolar Mode = "bipolar"
)

// AllModes lists every Mode variant. The policy table must cover each one.
func AllModes() []Mode {
	return []Mode{ModeDefault, ModeADHD, ModeBPD, ModeBipolar}
}

// Valid reports whether m is a known Mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDefault, ModeADHD, ModeBPD, ModeBipolar:
		return true
	}
	return false
}

// ParseMode parses a mode identifier case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Energy is the self-reported energy level of a check-in.
type Energy string

const (
	EnergyLow  Energy = "low"
	EnergyMed  Energy = "med"
	EnergyHigh Energy = "high"
)

// Valid reports whether e is a known Energy.
func (e Energy) Valid() bool {
	return e == EnergyLow || e == EnergyMed || e == EnergyHigh
}

// ParseEnergy accepts "low", "med" (or "medium") and "high".
func ParseEnergy(s string) (Energy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return EnergyLow, nil
	case "med", "medium":
		return EnergyMed, nil
	case "high":
		return EnergyHigh, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEnergy, s)
}

// Mood is the self-reported mood of a check-in, from -2 to 2.
type Mood int

const (
	MoodMin Mood = -2
	MoodMax Mood = 2
)

// Valid reports whether m is within [-2, 2].
func (m Mood) Valid() bool {
	return m >= MoodMin && m <= MoodMax
}

// ParseMood parses a signed integer mood.
func ParseMood(s string) (Mood, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Mood(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMood, s)
	}
	return Mood(n), nil
}

// AnimLevel is the amount of UI animation.
type AnimLevel string

const (
	AnimLow    AnimLevel = "low"
	AnimMedium AnimLevel = "medium"
	AnimHigh   AnimLevel = "high"
)

// Valid reports whether a is a known level.
func (a AnimLevel) Valid() bool {
	switch a {
	case AnimLow, AnimMedium, AnimHigh:
		return true
	}
	return false
}

// Dimmed returns the level one step down for a low mood.
// High drops to medium; anything else collapses to low.
func (a AnimLevel) Dimmed() AnimLevel {
	if a == AnimHigh {
		return AnimMedium
	}
	return AnimLow
}

// OverdriveGuard holds the Bipolar evening guardrails.
type OverdriveGuard struct {
	MaxFocusSessionsAfter21 int        `json:"maxFocusSessionsAfter21" yaml:"max_focus_sessions_after_21"`
	DimAnimationsAfter      *TimeOfDay `json:"dimAnimationsAfter,omitempty" yaml:"dim_animations_after,omitempty"`
	SoftBlockNewTasksAfter  *TimeOfDay `json:"softBlockNewTasksAfter,omitempty" yaml:"soft_block_new_tasks_after,omitempty"`
}

// ModePolicy is one entry of the mode policy table.
type ModePolicy struct {
	Mode              Mode            `json:"mode" yaml:"mode"`
	TaskCap           int             `json:"taskCap" yaml:"task_cap"`
	TimerMin          int             `json:"timerMin" yaml:"timer_min"`
	GraceDaysPerMonth int             `json:"graceDaysPerMonth" yaml:"grace_days_per_month"`
	Animations        AnimLevel       `json:"animations" yaml:"animations"`
	Sounds            bool            `json:"sounds" yaml:"sounds"`
	ShowCrisisButton  bool            `json:"showCrisisButton" yaml:"show_crisis_button"`
	EveningCopy       bool            `json:"eveningCopy" yaml:"evening_copy"`
	NightWindDown     *TimeOfDay      `json:"nightWindDown,omitempty" yaml:"night_wind_down,omitempty"`
	Overdrive         *OverdriveGuard `json:"overdrive,omitempty" yaml:"overdrive,omitempty"`
}

// CheckIn is a daily mood/energy report.
type CheckIn struct {
	Date   Date   `json:"date"`
	Mood   Mood   `json:"mood"`
	Energy Energy `json:"energy"`
}

// EngineState is the single persisted record of the behavior engine.
// JSON keys match the payload written by the web client so existing
// blobs load unchanged.
type EngineState struct {
	Version            int        `json:"version,omitempty"`
	Mode               Mode       `json:"mode"`
	CheckIn            *CheckIn   `json:"checkIn,omitempty"`
	FocusSessionsToday int        `json:"focusSessionsToday"`
	LastFocusAt        *time.Time `json:"lastFocusAt,omitempty"`
	StreakDays         int        `json:"streakDays"`
	LongestStreak      int        `json:"longestStreak,omitempty"`
	LastActivityDate   *Date      `json:"lastActivityDate,omitempty"`
	GraceDaysLeft      int        `json:"graceDaysLeft"`
	GraceSnapshotMonth Month      `json:"graceSnapshotMonth"`
	LastRollDate       *Date      `json:"lastRollDate,omitempty"`
	// StreakPaused holds the outcome of the last roll until the next
	// qualifying activity.
	StreakPaused       bool       `json:"streakPaused,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate engine internals.
func (s EngineState) Clone() EngineState {
	out := s
	if s.CheckIn != nil {
		ci := *s.CheckIn
		out.CheckIn = &ci
	}
	if s.LastFocusAt != nil {
		t := *s.LastFocusAt
		out.LastFocusAt = &t
	}
	if s.LastActivityDate != nil {
		d := *s.LastActivityDate
		out.LastActivityDate = &d
	}
	if s.LastRollDate != nil {
		d := *s.LastRollDate
		out.LastRollDate = &d
	}
	return out
}

// PolicySnapshot is the output of the engine's compute step: the UI's
// sole source of truth for adaptive parameters at a point in time.
type PolicySnapshot struct {
	Mode                  Mode      `json:"mode"`
	TaskCap               int       `json:"taskCap"`
	TimerMin              int       `json:"timerMin"`
	Animations            AnimLevel `json:"animations"`
	Sounds                bool      `json:"sounds"`
	ShowCrisisButton      bool      `json:"showCrisisButton"`
	EveningCopy           bool      `json:"eveningCopy"`
	ShouldOfferWindDown   bool      `json:"shouldOfferWindDown"`
	ShouldDimAnimations   bool      `json:"shouldDimAnimations"`
	RequireConfirmAddTask bool      `json:"requireConfirmAddTask"`
}

// RollResult describes what a streak roll did. It is not persisted.
type RollResult struct {
	Gap       int // calendar days since last activity; 0 when nothing to roll
	GraceUsed int // grace days consumed by this roll
	Uncovered int // skipped days the grace quota could not cover
	Exhausted bool // one-day gap found no grace left
}

// Paused reports whether the streak is frozen: days went uncovered, or a
// one-day gap found the grace quota already empty. streakDays is left as-is
// in both cases.
func (r RollResult) Paused() bool {
	return r.Uncovered > 0 || r.Exhausted
}

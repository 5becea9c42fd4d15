// Package daemon runs the long-lived refresh loop behind `pulse watch`.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
	"github.com/eliteGoblin/focusd/pulse/internal/policy"
)

// Engine is the part of the behavior engine the refresher drives.
type Engine interface {
	Reload()
	Compute(now time.Time) domain.PolicySnapshot
	RollStreakIfNeeded(now time.Time) domain.RollResult
}

// RefresherConfig holds refresh loop configuration.
type RefresherConfig struct {
	RefreshInterval time.Duration // How often to recompute the snapshot (default 1 min)
	Location        *time.Location
	Clock           func() time.Time
}

// DefaultRefresherConfig returns default refresher configuration.
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		RefreshInterval: policy.DefaultRefreshInterval,
		Location:        time.Local,
		Clock:           time.Now,
	}
}

// Refresher recomputes the policy snapshot on a schedule so time-of-day
// guards take effect without user interaction. It rolls the streak at
// startup and again whenever the calendar date changes.
type Refresher struct {
	config   RefresherConfig
	engine   Engine
	onChange func(domain.PolicySnapshot)
	logger   *zap.Logger

	lastDate domain.Date
	last     *domain.PolicySnapshot
}

// NewRefresher creates a refresher. onChange may be nil, in which case
// changes are only logged.
func NewRefresher(config RefresherConfig, engine Engine, onChange func(domain.PolicySnapshot), logger *zap.Logger) *Refresher {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = policy.DefaultRefreshInterval
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		config:   config,
		engine:   engine,
		onChange: onChange,
		logger:   logger,
	}
}

// Run starts the refresh loop.
// This blocks until context is canceled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started",
		zap.Duration("interval", r.config.RefreshInterval))

	// Roll and publish immediately on startup
	r.refresh(r.config.Clock())

	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping")
			return ctx.Err()

		case <-ticker.C:
			r.refresh(r.config.Clock())
		}
	}
}

// refresh runs one cycle: reload shared state, roll on a new day, then
// recompute and publish if the snapshot changed.
func (r *Refresher) refresh(now time.Time) {
	r.engine.Reload()

	today := domain.DateOf(now.In(r.config.Location))
	if today != r.lastDate {
		res := r.engine.RollStreakIfNeeded(now)
		if res.Paused() {
			r.logger.Info("streak paused",
				zap.Int("gap_days", res.Gap),
				zap.Int("uncovered_days", res.Uncovered))
		}
		r.lastDate = today
	}

	snap := r.engine.Compute(now)
	if r.last != nil && *r.last == snap {
		return
	}

	r.logger.Debug("policy snapshot changed",
		zap.String("mode", string(snap.Mode)),
		zap.Int("task_cap", snap.TaskCap),
		zap.Int("timer_min", snap.TimerMin),
		zap.String("animations", string(snap.Animations)),
		zap.Bool("wind_down", snap.ShouldOfferWindDown),
		zap.Bool("dim_animations", snap.ShouldDimAnimations),
		zap.Bool("confirm_add_task", snap.RequireConfirmAddTask))

	r.last = &snap
	if r.onChange != nil {
		r.onChange(snap)
	}
}

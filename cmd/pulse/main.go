// Package main is the CLI entry point for pulse.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/pulse/internal/config"
	"github.com/eliteGoblin/focusd/pulse/internal/daemon"
	"github.com/eliteGoblin/focusd/pulse/internal/domain"
	"github.com/eliteGoblin/focusd/pulse/internal/infra"
	"github.com/eliteGoblin/focusd/pulse/internal/settings"
	"github.com/eliteGoblin/focusd/pulse/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Adaptive daily planner engine",
	Long: `pulse adapts task caps, focus timers and evening guards to how you
are doing today. Pick a mode (ADHD, BPD, Bipolar or Mixed), check in with
your mood and energy, and log focus sessions and completed tasks.

Streaks survive missed days while the monthly grace quota lasts.`,
	Version:      Version,
	SilenceUsage: true,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's policy and streak",
	Long:  `Rolls the streak if a new day started, then prints the current policy snapshot.`,
	RunE:  runStatus,
}

var checkinCmd = &cobra.Command{
	Use:   "checkin",
	Short: "Record today's mood and energy",
	Long:  `Mood is an integer from -2 to 2. Energy is low, med or high. A second check-in replaces the first.`,
	RunE:  runCheckIn,
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Log a completed focus session",
	RunE:  runFocus,
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Log a completed task",
	RunE:  runComplete,
}

var modeCmd = &cobra.Command{
	Use:   "mode [LABEL]",
	Short: "Show or change the behavior mode",
	Long: `Without arguments prints the active mode. With a label (ADHD, BPD,
Bipolar, Mixed) switches modes; unrecognised labels select Mixed.
Switching modes resets this month's grace days to the new quota.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMode,
}

var rollCmd = &cobra.Command{
	Use:   "roll",
	Short: "Apply grace days for missed days",
	Long:  `Runs the daily streak roll. Repeated runs on the same day have no effect.`,
	RunE:  runRoll,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the policy snapshot whenever it changes",
	Long: `Recomputes the policy on a fixed interval and prints one JSON line each
time it changes, e.g. when the evening wind-down window opens. Stops on
Ctrl-C.`,
	RunE: runWatch,
}

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "Print the mode policy table",
	RunE:  runModes,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath    string
	dataDirFlag   string
	storeFlag     string
	verbose       bool
	jsonOutput    bool
	checkInMood   string
	checkInEnergy string
	watchInterval time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", infra.DefaultConfigPath(), "Config file")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override the data directory")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Override the store backend (file, sqlite, encrypted, memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr at debug level")

	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output snapshot as JSON")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	checkinCmd.Flags().StringVar(&checkInMood, "mood", "", "Mood from -2 to 2")
	checkinCmd.Flags().StringVar(&checkInEnergy, "energy", "", "Energy: low, med or high")
	_ = checkinCmd.MarkFlagRequired("mood")
	_ = checkinCmd.MarkFlagRequired("energy")

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Refresh interval (default from config)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(rollCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(modesCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles what every engine-backed command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  domain.StateStore
	engine *usecase.BehaviorEngine
	loc    *time.Location
}

func openApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = infra.ExpandHome(dataDirFlag)
		cfg.Logging.File = filepath.Join(cfg.DataDir, infra.LogFileName)
	}
	if storeFlag != "" {
		cfg.Store.Backend = storeFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	table, err := cfg.PolicyRegistry()
	if err != nil {
		return nil, err
	}

	logger := createLogger(cfg)

	store, err := infra.OpenStateStore(cfg.StoreOptions(), logger)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	engine, err := usecase.NewBehaviorEngine(store, table, logger, usecase.WithLocation(loc))
	if err != nil {
		store.Close()
		logger.Sync()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, engine: engine, loc: loc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close state store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp opens the engine for the duration of fn.
func withApp(fn func(a *app, out io.Writer) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd.OutOrStdout())
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		a.engine.RollStreakIfNeeded(time.Now())
		snap := a.engine.CurrentPolicy()
		st := a.engine.State()

		if jsonOutput {
			return writeJSON(out, struct {
				Label  string                `json:"label"`
				Policy domain.PolicySnapshot `json:"policy"`
				State  domain.EngineState    `json:"state"`
				Paused bool                  `json:"streakPaused"`
			}{settings.LabelForMode(snap.Mode), snap, st, st.StreakPaused})
		}

		fmt.Fprintln(out, "\n=== pulse Status ===")
		fmt.Fprintf(out, "Mode: %s (%s)\n", settings.LabelForMode(snap.Mode), snap.Mode)
		printSnapshot(out, snap)

		fmt.Fprintln(out, "\nToday:")
		if st.CheckIn != nil && st.CheckIn.Date == domain.DateOf(time.Now().In(a.loc)) {
			fmt.Fprintf(out, "  Check-in: mood %d, energy %s\n", st.CheckIn.Mood, st.CheckIn.Energy)
		} else {
			fmt.Fprintln(out, "  Check-in: none yet (pulse checkin --mood N --energy LEVEL)")
		}
		fmt.Fprintf(out, "  Focus sessions: %d\n", st.FocusSessionsToday)

		fmt.Fprintln(out, "\nStreak:")
		fmt.Fprintf(out, "  Current: %d days (longest %d)\n", st.StreakDays, st.LongestStreak)
		fmt.Fprintf(out, "  Grace days left this month: %d\n", st.GraceDaysLeft)
		if st.StreakPaused {
			fmt.Fprintln(out, "  Streak paused: missed days exceeded the grace quota")
		}
		fmt.Fprintln(out, "====================")
		return nil
	})(cmd, args)
}

func runCheckIn(cmd *cobra.Command, args []string) error {
	mood, err := domain.ParseMood(checkInMood)
	if err != nil {
		return err
	}
	energy, err := domain.ParseEnergy(checkInEnergy)
	if err != nil {
		return err
	}

	return withApp(func(a *app, out io.Writer) error {
		a.engine.ApplyCheckIn(mood, energy)
		snap := a.engine.CurrentPolicy()
		fmt.Fprintf(out, "Checked in: mood %d, energy %s\n", mood, energy)
		fmt.Fprintf(out, "Today: up to %d tasks, %d min timers\n", snap.TaskCap, snap.TimerMin)
		return nil
	})(cmd, args)
}

func runFocus(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		a.engine.RecordFocusSession()
		st := a.engine.State()
		fmt.Fprintf(out, "Focus session logged (%d today, streak %d days)\n", st.FocusSessionsToday, st.StreakDays)

		snap := a.engine.CurrentPolicy()
		if snap.RequireConfirmAddTask {
			fmt.Fprintln(out, "It's getting late. Consider winding down.")
		}
		return nil
	})(cmd, args)
}

func runComplete(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		a.engine.RecordCompletion()
		st := a.engine.State()
		fmt.Fprintf(out, "Task completed (streak %d days)\n", st.StreakDays)
		return nil
	})(cmd, args)
}

func runMode(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		if len(args) == 0 {
			m := a.engine.Mode()
			fmt.Fprintf(out, "%s (%s)\n", settings.LabelForMode(m), m)
			return nil
		}

		mode := settings.ModeFromLabel(args[0])
		if err := a.engine.SetMode(mode); err != nil {
			return err
		}
		st := a.engine.State()
		fmt.Fprintf(out, "Mode set to %s (%s), %d grace days this month\n",
			settings.LabelForMode(mode), mode, st.GraceDaysLeft)
		return nil
	})(cmd, args)
}

func runRoll(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		res := a.engine.RollStreakIfNeeded(time.Now())
		st := a.engine.State()

		switch {
		case res.Gap == 0:
			fmt.Fprintln(out, "Nothing to roll")
		case res.Paused():
			fmt.Fprintf(out, "%d day gap: used %d grace days, streak paused at %d\n",
				res.Gap, res.GraceUsed, st.StreakDays)
		default:
			fmt.Fprintf(out, "%d day gap: used %d grace days, streak kept at %d\n",
				res.Gap, res.GraceUsed, st.StreakDays)
		}
		fmt.Fprintf(out, "Grace days left: %d\n", st.GraceDaysLeft)
		return nil
	})(cmd, args)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app, out io.Writer) error {
		interval := watchInterval
		if interval <= 0 {
			var err error
			if interval, err = a.cfg.RefreshInterval(); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		refresher := daemon.NewRefresher(
			daemon.RefresherConfig{RefreshInterval: interval, Location: a.loc, Clock: time.Now},
			a.engine,
			func(snap domain.PolicySnapshot) {
				if err := writeJSON(out, snap); err != nil {
					a.logger.Warn("failed to write snapshot", zap.Error(err))
				}
			},
			a.logger,
		)

		if err := refresher.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})(cmd, args)
}

func runModes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	table, err := cfg.PolicyRegistry()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\n=== Modes ===")
	for _, p := range table.All() {
		fmt.Fprintf(out, "\n[%s] %s\n", p.Mode, settings.LabelForMode(p.Mode))
		fmt.Fprintf(out, "  Task cap: %d\n", p.TaskCap)
		fmt.Fprintf(out, "  Timer: %d min\n", p.TimerMin)
		fmt.Fprintf(out, "  Grace days/month: %d\n", p.GraceDaysPerMonth)
		fmt.Fprintf(out, "  Animations: %s, sounds: %t\n", p.Animations, p.Sounds)
		if p.ShowCrisisButton {
			fmt.Fprintln(out, "  Crisis button: shown")
		}
		if p.NightWindDown != nil {
			fmt.Fprintf(out, "  Wind-down from: %s\n", p.NightWindDown)
		}
		if g := p.Overdrive; g != nil && (g.DimAnimationsAfter != nil || g.SoftBlockNewTasksAfter != nil) {
			fmt.Fprintf(out, "  Overdrive: dim after %s, confirm new tasks after %s, max %d sessions after 21:00\n",
				timeOrDash(g.DimAnimationsAfter), timeOrDash(g.SoftBlockNewTasksAfter), g.MaxFocusSessionsAfter21)
		}
	}
	fmt.Fprintln(out, "\n=============")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if jsonOutput {
		_ = writeJSON(out, map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		return
	}
	fmt.Fprintf(out, "pulse %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
}

func printSnapshot(out io.Writer, snap domain.PolicySnapshot) {
	fmt.Fprintf(out, "  Task cap: %d\n", snap.TaskCap)
	fmt.Fprintf(out, "  Timer: %d min\n", snap.TimerMin)
	fmt.Fprintf(out, "  Animations: %s, sounds: %t\n", snap.Animations, snap.Sounds)
	if snap.ShowCrisisButton {
		fmt.Fprintln(out, "  Crisis button: shown")
	}
	if snap.ShouldOfferWindDown {
		fmt.Fprintln(out, "  Wind-down: offered")
	}
	if snap.ShouldDimAnimations {
		fmt.Fprintln(out, "  Animations: dimmed for the evening")
	}
	if snap.RequireConfirmAddTask {
		fmt.Fprintln(out, "  New tasks: confirm before adding")
	}
}

func timeOrDash(t *domain.TimeOfDay) string {
	if t == nil {
		return "-"
	}
	return t.String()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	return enc.Encode(v)
}

func createLogger(cfg *config.Config) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0700); err == nil {
			zc.OutputPaths = []string{cfg.Logging.File}
			zc.ErrorOutputPaths = []string{cfg.Logging.File}
		}
	}
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

//go:build integration

package integration

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/eliteGoblin/focusd/pulse/internal/domain"
	"github.com/eliteGoblin/focusd/pulse/internal/infra"
	"github.com/eliteGoblin/focusd/pulse/internal/policy"
	"github.com/eliteGoblin/focusd/pulse/internal/settings"
	"github.com/eliteGoblin/focusd/pulse/internal/usecase"
)

// fakeClock is advanced explicitly by each scenario.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) set(y int, mo time.Month, d, h, mi int) time.Time {
	c.now = time.Date(y, mo, d, h, mi, 0, 0, time.UTC)
	return c.now
}

var _ = Describe("Behavior engine over durable stores", func() {
	for _, backend := range []string{infra.BackendFile, infra.BackendSQLite, infra.BackendEncrypted} {
		backend := backend

		Context("with the "+backend+" backend", func() {
			var (
				dataDir string
				clock   *fakeClock
				store   domain.StateStore
			)

			open := func() *usecase.BehaviorEngine {
				var err error
				store, err = infra.OpenStateStore(infra.StoreOptions{Backend: backend, DataDir: dataDir}, nil)
				Expect(err).NotTo(HaveOccurred())

				engine, err := usecase.NewBehaviorEngine(store, policy.NewRegistry(), nil,
					usecase.WithClock(clock.Now), usecase.WithLocation(time.UTC))
				Expect(err).NotTo(HaveOccurred())
				return engine
			}

			restart := func() *usecase.BehaviorEngine {
				Expect(store.Close()).To(Succeed())
				return open()
			}

			BeforeEach(func() {
				var err error
				dataDir, err = os.MkdirTemp("", "pulse-integration-*")
				Expect(err).NotTo(HaveOccurred())
				clock = &fakeClock{}
				clock.set(2026, time.March, 2, 9, 0)
			})

			AfterEach(func() {
				if store != nil {
					store.Close()
				}
				os.RemoveAll(dataDir)
			})

			Describe("restarting the app", func() {
				It("keeps mode, check-in and streak", func() {
					engine := open()
					Expect(engine.SetMode(settings.ModeFromLabel("BPD"))).To(Succeed())
					engine.ApplyCheckIn(-1, domain.EnergyLow)
					engine.RecordCompletion()

					engine = restart()
					st := engine.State()
					Expect(st.Mode).To(Equal(domain.ModeBPD))
					Expect(st.StreakDays).To(Equal(1))
					Expect(st.CheckIn).NotTo(BeNil())
					Expect(st.CheckIn.Energy).To(Equal(domain.EnergyLow))
					Expect(st.Version).To(Equal(domain.StateVersion))

					snap := engine.CurrentPolicy()
					Expect(snap.TaskCap).To(Equal(1))
					Expect(snap.ShowCrisisButton).To(BeTrue())
				})
			})

			Describe("a week with missed days", func() {
				It("spends grace days and keeps the streak", func() {
					engine := open()
					for d := 2; d <= 4; d++ {
						clock.set(2026, time.March, d, 9, 0)
						engine.RecordCompletion()
					}
					Expect(engine.State().StreakDays).To(Equal(3))

					// Skip the 5th and 6th, come back on the 7th.
					now := clock.set(2026, time.March, 7, 8, 0)
					engine = restart()
					res := engine.RollStreakIfNeeded(now)
					Expect(res.Gap).To(Equal(3))
					Expect(res.GraceUsed).To(Equal(2))
					Expect(res.Paused()).To(BeFalse())

					engine = restart()
					Expect(engine.RollStreakIfNeeded(now)).To(Equal(domain.RollResult{}))
					Expect(engine.State().GraceDaysLeft).To(Equal(0))

					engine.RecordCompletion()
					Expect(engine.State().StreakDays).To(Equal(4))
				})

				It("pauses when the quota runs out", func() {
					engine := open()
					engine.RecordCompletion()

					now := clock.set(2026, time.March, 12, 8, 0)
					res := engine.RollStreakIfNeeded(now)
					Expect(res.Paused()).To(BeTrue())
					Expect(res.Uncovered).To(Equal(7))

					engine = restart()
					Expect(engine.State().StreakDays).To(Equal(1))
					Expect(engine.State().GraceDaysLeft).To(Equal(0))
					Expect(engine.State().StreakPaused).To(BeTrue())
				})
			})

			Describe("a watcher and a command sharing the store", func() {
				It("does not overwrite the command's writes on the next roll", func() {
					seed := open()
					seed.RecordCompletion()

					clock.set(2026, time.March, 3, 8, 0)
					watch := restart()
					watch.Reload()
					Expect(watch.RollStreakIfNeeded(clock.now).GraceUsed).To(Equal(1))

					other, err := infra.OpenStateStore(infra.StoreOptions{Backend: backend, DataDir: dataDir}, nil)
					Expect(err).NotTo(HaveOccurred())
					defer other.Close()
					command, err := usecase.NewBehaviorEngine(other, policy.NewRegistry(), nil,
						usecase.WithClock(clock.Now), usecase.WithLocation(time.UTC))
					Expect(err).NotTo(HaveOccurred())
					clock.set(2026, time.March, 3, 10, 0)
					command.RecordCompletion()

					now := clock.set(2026, time.March, 4, 0, 1)
					watch.Reload()
					watch.RollStreakIfNeeded(now)

					saved, err := other.Load(usecase.DefaultStateKey)
					Expect(err).NotTo(HaveOccurred())
					Expect(saved.StreakDays).To(Equal(2))
					Expect(saved.LastActivityDate).To(Equal(&domain.Date{Year: 2026, Month: time.March, Day: 3}))
					Expect(saved.GraceDaysLeft).To(Equal(0))
				})
			})

			Describe("month boundary", func() {
				It("restores the grace quota on first use in a new month", func() {
					engine := open()
					engine.RecordCompletion()
					clock.set(2026, time.March, 5, 9, 0)
					engine.RollStreakIfNeeded(clock.now)
					Expect(engine.State().GraceDaysLeft).To(Equal(0))

					clock.set(2026, time.April, 1, 9, 0)
					engine = restart()
					st := engine.State()
					Expect(st.GraceDaysLeft).To(Equal(2))
					Expect(st.GraceSnapshotMonth).To(Equal(domain.Month{Year: 2026, Month: time.April}))
				})
			})

			Describe("Bipolar evenings", func() {
				It("guards late-night focus across restarts", func() {
					engine := open()
					Expect(engine.SetMode(domain.ModeBipolar)).To(Succeed())

					clock.set(2026, time.March, 2, 21, 5)
					for i := 0; i < 3; i++ {
						engine.RecordFocusSession()
					}

					engine = restart()
					snap := engine.Compute(time.Date(2026, time.March, 2, 21, 20, 0, 0, time.UTC))
					Expect(snap.ShouldDimAnimations).To(BeTrue())
					Expect(snap.RequireConfirmAddTask).To(BeTrue())
					Expect(snap.ShouldOfferWindDown).To(BeFalse())

					clock.set(2026, time.March, 3, 9, 0)
					engine = restart()
					Expect(engine.State().FocusSessionsToday).To(Equal(0))
					snap = engine.CurrentPolicy()
					Expect(snap.ShouldDimAnimations).To(BeFalse())
					Expect(snap.RequireConfirmAddTask).To(BeFalse())
				})
			})
		})
	}

	Describe("legacy state files", func() {
		It("loads an unversioned blob and upgrades it on the next save", func() {
			dataDir, err := os.MkdirTemp("", "pulse-legacy-*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(dataDir)

			store, err := infra.NewFileStateStore(dataDir)
			Expect(err).NotTo(HaveOccurred())

			legacy := `{"mode":"bogus","focusSessionsToday":1,"streakDays":6,` +
				`"lastActivityDate":"2026-03-01","graceDaysLeft":2,"graceSnapshotMonth":"2026-03"}`
			Expect(os.WriteFile(store.PathFor(usecase.DefaultStateKey), []byte(legacy), 0600)).To(Succeed())

			clock := &fakeClock{}
			clock.set(2026, time.March, 2, 9, 0)
			engine, err := usecase.NewBehaviorEngine(store, policy.NewRegistry(), nil,
				usecase.WithClock(clock.Now), usecase.WithLocation(time.UTC))
			Expect(err).NotTo(HaveOccurred())

			Expect(engine.Mode()).To(Equal(domain.ModeDefault))
			Expect(engine.State().LongestStreak).To(Equal(6))

			engine.RecordCompletion()
			saved, err := store.Load(usecase.DefaultStateKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Version).To(Equal(domain.StateVersion))
			Expect(saved.StreakDays).To(Equal(7))
		})
	})
})

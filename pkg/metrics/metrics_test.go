package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestManager(opts ...Option) *Manager {
	return NewManager(append([]Option{WithPrometheusRegistry(prometheus.NewRegistry())}, opts...)...)
}

func TestManagerSessions(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		m := newTestManager()

		Convey("When two sessions start and one ends", func() {
			m.SessionStarted("normal")
			m.SessionStarted("beginner")
			m.SessionEnded("normal")

			Convey("Then the counters and the active gauge follow", func() {
				So(testutil.ToFloat64(m.sessionsStarted.WithLabelValues("normal")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sessionsStarted.WithLabelValues("beginner")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sessionsEnded.WithLabelValues("normal")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.sessionsActive), ShouldEqual, 1)
			})
		})

		Convey("When ticks are recorded", func() {
			m.Tick(3 * time.Millisecond)
			m.Tick(time.Millisecond)
			m.TickDeduplicated()

			Convey("Then ticks and dropped repeats are counted", func() {
				So(testutil.ToFloat64(m.ticks), ShouldEqual, 2)
				So(testutil.ToFloat64(m.ticksDeduped), ShouldEqual, 1)
			})
		})
	})
}

func TestManagerAttempts(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		m := newTestManager()

		Convey("When attempts of every outcome are recorded", func() {
			m.Attempt("grind", true, false, false, 120)
			m.Attempt("grind", false, true, false, 0)
			m.Attempt("flip", false, false, false, 0)
			m.Attempt("", false, false, true, 0)
			m.Unassigned(2)
			m.Unassigned(0)

			Convey("Then they land in the right series", func() {
				So(testutil.ToFloat64(m.attempts.WithLabelValues("grind", "landed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.attempts.WithLabelValues("grind", "bailed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.attempts.WithLabelValues("flip", "bailed")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.retries), ShouldEqual, 1)
				So(testutil.ToFloat64(m.noAttempts), ShouldEqual, 1)
				So(testutil.ToFloat64(m.unassigned), ShouldEqual, 2)
			})
		})
	})
}

func TestManagerDisabled(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := newTestManager(WithMetricsEnabled(false))

		Convey("When everything is recorded", func() {
			m.SessionStarted("normal")
			m.Attempt("grind", true, false, false, 50)
			m.BatchJob("done", time.Second)
			m.Error("http", "bad_request")

			Convey("Then nothing moves", func() {
				So(testutil.ToFloat64(m.sessionsActive), ShouldEqual, 0)
				So(testutil.ToFloat64(m.attempts.WithLabelValues("grind", "landed")), ShouldEqual, 0)
				So(testutil.ToFloat64(m.batchJobs.WithLabelValues("done")), ShouldEqual, 0)
				So(testutil.ToFloat64(m.errorsByComponent.WithLabelValues("http", "bad_request")), ShouldEqual, 0)
			})
		})
	})
}

func TestManagerInfrastructure(t *testing.T) {
	Convey("Given a manager with custom labels", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg), WithNamespace("test"), WithCustomLabels(map[string]string{"env": "ci"}))

		Convey("When the infrastructure metrics are recorded", func() {
			m.LeaderboardUpdate(7)
			m.ArchiveWrite(2 * time.Millisecond)
			m.BatchQueueDepth(4)
			m.BatchWorkersActive(2)
			m.HTTPRequest("/sessions", "POST", "201", time.Millisecond)

			Convey("Then they are exposed under the namespace", func() {
				So(testutil.ToFloat64(m.leaderboardSkaters), ShouldEqual, 7)
				So(testutil.ToFloat64(m.archiveWrites), ShouldEqual, 1)
				So(testutil.ToFloat64(m.batchQueueDepth), ShouldEqual, 4)
				So(testutil.ToFloat64(m.batchWorkers), ShouldEqual, 2)
				So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/sessions", "POST", "201")), ShouldEqual, 1)

				families, err := reg.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_sim_leaderboard_skaters"], ShouldBeTrue)
				So(names["test_sim_http_requests_total"], ShouldBeTrue)
			})
		})
	})

	Convey("Given the process-wide manager", t, func() {
		So(Default(), ShouldNotBeNil)
		So(GetRegistry(), ShouldNotBeNil)
		RecordTick(time.Millisecond)
		So(testutil.ToFloat64(Default().ticks), ShouldBeGreaterThanOrEqualTo, 1)
	})
}

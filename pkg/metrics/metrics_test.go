package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegisterer(registry))

			Convey("Then collectors register without clashing with the global manager", func() {
				So(manager, ShouldNotBeNil)
				manager.scheduleBuilds.WithLabelValues("fallback").Inc()
				So(testutil.ToFloat64(manager.scheduleBuilds.WithLabelValues("fallback")), ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("x"),
				WithLatencyBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithRegisterer(registry),
			)

			Convey("Then metric names carry namespace, subsystem and prefix", func() {
				manager.duplicateSubmissions.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_x_scores_duplicate_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording bandit activity", func() {
			before := testutil.ToFloat64(globalManager.difficultySelections.WithLabelValues("stroop", "mid", "hard", "true"))
			RecordDifficultySelection("stroop", "mid", "hard", true)
			RecordBanditUpdate("stroop", 1)
			RecordSelectorFallback("store_error")

			Convey("Then the labelled counters advance", func() {
				after := testutil.ToFloat64(globalManager.difficultySelections.WithLabelValues("stroop", "mid", "hard", "true"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When recording schedule and queue activity", func() {
			So(func() {
				RecordScheduleBuild("generator")
				RecordScheduleRepair("padded")
				RecordGeneratorFailure("timeout")
				RecordGeneratorLatency(150 * time.Millisecond)
				RecordCompletion("recall", true)
				RecordScoreSubmitted("recall", "assessment")
				RecordDuplicateSubmission()
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				RecordQueueEnqueue()
				RecordQueueRejected("full")
				UpdateWorkerCount(2)
				RecordWorkerError()
				RecordWorkerLatency(time.Millisecond)
				RecordStoreOperation("append_score", time.Now(), nil)
				RecordStoreOperation("append_score", time.Now(), errors.New("boom"))
				RecordHTTPRequest("score", "POST", "200")
				RecordHTTPRequestDuration("score", "POST", "200", 5*time.Millisecond)
				RecordHTTPError("score", "client_error")
			}, ShouldNotPanic)
		})

		Convey("When gathering the registry", func() {
			RecordScheduleBuild("fallback")
			families, err := GetRegistry().Gather()

			Convey("Then cogtrain metrics are exported", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "cogtrain_schedule_builds_total")
			})
		})
	})
}

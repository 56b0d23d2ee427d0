package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// gathered returns the summed counter, gauge or histogram-count value of a
// metric family from registry, or -1 when the family is missing.
func gathered(registry *prometheus.Registry, name string) float64 {
	families, err := registry.Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
		return total
	}
	return -1
}

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithRefreshInterval(time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.votesAccepted.Inc()

			Convey("Then collectors are registered under the namespace", func() {
				So(gathered(registry, "test_unit_votes_accepted_total"), ShouldEqual, 1)
			})
		})

		Convey("When options carry empty values", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "scout")
				So(m.subsystem, ShouldEqual, "discovery")
			})
		})
	})
}

func TestGlobalRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		reg := GetRegistry()

		Convey("When a listing is recorded", func() {
			before := gathered(reg, "scout_discovery_listing_requests_total")
			RecordListing("projects", "", 12, 0.4)

			Convey("Then the request counter grows", func() {
				So(gathered(reg, "scout_discovery_listing_requests_total"), ShouldEqual, max(before, 0)+1)
			})
		})

		Convey("When catalogue sizes are updated", func() {
			UpdateCatalogue(60, 40, 3)

			Convey("Then the gauges hold the values", func() {
				So(gathered(reg, "scout_discovery_catalogue_contributors"), ShouldEqual, 60)
				So(gathered(reg, "scout_discovery_catalogue_pending_projects"), ShouldEqual, 3)
			})
		})

		Convey("Then every recorder is safe to call", func() {
			So(func() {
				RecordDatasetReload("ok")
				RecordVoteAccepted()
				RecordVoteDuplicate()
				RecordVoteRejected()
				RecordVoteApplied()
				RecordSuggestion()
				RecordModeration("approve")
				RecordStoreLatency("memory", "apply_vote", 0.1)
				RecordHTTPRequest("/projects", "GET", "200")
				RecordHTTPRequestDuration("/projects", "GET", "200", 1.5)
				UpdateQueueSize(3)
				UpdateQueueCapacity(10)
				UpdateQueueUtilization(0.3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(1)
				UpdateWorkerIdleCount(3)
				RecordWorkerProcessingLatency(0.2)
				RecordWorkerError()
				RecordGitHubRequest("ok")
				UpdateGitHubRateRemaining(4999)
				RecordErrorByComponent("store", "not_found")
				RecordErrorByEndpoint("/votes", "POST", "invalid")
			}, ShouldNotPanic)
		})
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry), WithRefreshInterval(10*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("When the collector starts", func() {
			So(m.StartSystemCollector(ctx), ShouldBeNil)

			Convey("Then a second start is refused", func() {
				So(m.StartSystemCollector(ctx), ShouldEqual, ErrCollectorRunning)
			})

			Convey("Then runtime stats are sampled", func() {
				So(func() bool {
					deadline := time.Now().Add(time.Second)
					for time.Now().Before(deadline) {
						if gathered(registry, "scout_discovery_system_goroutine_count") > 0 {
							return true
						}
						time.Sleep(5 * time.Millisecond)
					}
					return false
				}(), ShouldBeTrue)
			})
		})
	})
}

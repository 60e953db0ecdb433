package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
)

// SyncMetrics contains the Prometheus metrics for extension sync runs
type SyncMetrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	RecordsRead    *prometheus.CounterVec
	DecisionsTotal *prometheus.CounterVec
	LastRunTime    prometheus.Gauge
}

// NewSyncMetrics registers the sync metrics with reg.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)
	return &SyncMetrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_extensions_runs_total",
			Help: "Total number of sync runs by outcome code",
		}, []string{"outcome"}),

		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_extensions_run_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		RecordsRead: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_extensions_records_read_total",
			Help: "Total number of source records read",
		}, []string{"source"}),

		DecisionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_extensions_decisions_total",
			Help: "Total number of per-record decisions by target and action",
		}, []string{"target", "action"}),

		LastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Name: "assessment_extensions_last_run_timestamp_seconds",
			Help: "Unix time the last sync run finished",
		}),
	}
}

// ObserveRun records one finished run. report may be nil when the run
// stopped before reading anything.
func (m *SyncMetrics) ObserveRun(report *extensions.Report, outcome extensions.Outcome, took time.Duration) {
	m.RunsTotal.WithLabelValues(strconv.Itoa(int(outcome))).Inc()
	m.RunDuration.Observe(took.Seconds())
	m.LastRunTime.SetToCurrentTime()

	if report == nil {
		return
	}
	m.RecordsRead.WithLabelValues("extensions").Add(float64(report.ExtensionsRead))
	m.RecordsRead.WithLabelValues("lates").Add(float64(report.LatesRead))
	for _, d := range report.Decisions {
		target := string(d.Target)
		if target == "" {
			target = "none"
		}
		m.DecisionsTotal.WithLabelValues(target, string(d.Action)).Inc()
	}
}

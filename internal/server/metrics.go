package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/penwyp/go-activity-timeline/internal/core/model"
)

const namespace = "activity_timeline"

// Load outcomes recorded by the loads counter.
const (
	OutcomeOK         = "ok"
	OutcomeSuperseded = "superseded"
	OutcomeInput      = "input_error"
	OutcomeFetch      = "fetch_error"
	OutcomeError      = "error"
)

// Metrics are the Prometheus collectors of one server.
type Metrics struct {
	registry   *prometheus.Registry
	rowsSeen   prometheus.Counter
	rowsKept   prometheus.Counter
	loads      *prometheus.CounterVec
	superseded prometheus.Counter
	lastLoad   prometheus.Gauge
	activities prometheus.Gauge
	reports    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rowsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_seen_total",
			Help:      "Input rows read across all committed loads.",
		}),
		rowsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_kept_total",
			Help:      "Input rows normalized into activities across all committed loads.",
		}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "loads_total",
			Help:      "Loads by outcome.",
		}, []string{"outcome"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "superseded_batches_total",
			Help:      "Batches discarded because a newer load had started.",
		}),
		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_load_timestamp_seconds",
			Help:      "Unix timestamp of the most recently committed batch.",
		}),
		activities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "activities",
			Help:      "Activities in the committed batch.",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "view",
			Name:      "report_requests_total",
			Help:      "Report requests by cache result.",
		}, []string{"cache"}),
	}
	m.registry.MustRegister(m.rowsSeen, m.rowsKept, m.loads, m.superseded, m.lastLoad, m.activities, m.reports)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCommit records a batch that became visible.
func (m *Metrics) ObserveCommit(batch *model.ParsedBatch) {
	m.rowsSeen.Add(float64(batch.TotalRowsSeen))
	m.rowsKept.Add(float64(batch.RowsKept))
	m.activities.Set(float64(len(batch.Activities)))
	if !batch.LoadedAt.IsZero() {
		m.lastLoad.Set(float64(batch.LoadedAt.Unix()))
	}
}

// ObserveDiscard records a superseded batch.
func (m *Metrics) ObserveDiscard(*model.ParsedBatch) {
	m.superseded.Inc()
}

// ObserveLoad counts one load attempt.
func (m *Metrics) ObserveLoad(outcome string) {
	m.loads.WithLabelValues(outcome).Inc()
}

// ObserveReport counts one report request served from or added to the cache.
func (m *Metrics) ObserveReport(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reports.WithLabelValues(result).Inc()
}

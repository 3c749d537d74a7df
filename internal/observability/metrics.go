package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ASL
// detection run.
type Metrics struct {
	TimestepsProcessed prometheus.Counter
	MissingRecords     prometheus.Counter
	OpenLows           prometheus.Counter
	RecordsPublished   prometheus.Counter
	RunActive          prometheus.Gauge

	StepDuration prometheus.Histogram
	RunDuration  prometheus.Histogram
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TimestepsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asli",
			Name:      "timesteps_processed_total",
			Help:      "Total monthly fields processed, including missing ones.",
		}),
		MissingRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asli",
			Name:      "missing_records_total",
			Help:      "Time steps that produced a record without analytic fields.",
		}),
		OpenLows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asli",
			Name:      "open_lows_total",
			Help:      "Candidate minima that failed the contour closure test.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "asli",
			Name:      "records_published_total",
			Help:      "Records published to the sink topic.",
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "asli",
			Name:      "run_active",
			Help:      "1 while a detection run is in progress.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asli",
			Name:      "step_duration_seconds",
			Help:      "Duration of one per-timestep load-and-detect unit.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "asli",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete detection run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}

	prometheus.MustRegister(
		m.TimestepsProcessed,
		m.MissingRecords,
		m.OpenLows,
		m.RecordsPublished,
		m.RunActive,
		m.StepDuration,
		m.RunDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		TimestepsProcessed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "asli", Name: "timesteps_processed_total"}),
		MissingRecords:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "asli", Name: "missing_records_total"}),
		OpenLows:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "asli", Name: "open_lows_total"}),
		RecordsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "asli", Name: "records_published_total"}),
		RunActive:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "asli", Name: "run_active"}),
		StepDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "asli", Name: "step_duration_seconds"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "asli", Name: "run_duration_seconds"}),
	}
}

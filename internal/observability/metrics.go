package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// case-trends service.
type Metrics struct {
	// Dataset loading metrics.
	RowsLoaded        prometheus.Counter
	DuplicatesDropped prometheus.Counter
	CounterCoercions  prometheus.Counter
	LoadDuration      prometheus.Histogram
	DatasetLoaded     prometheus.Gauge
	DatasetCache      *prometheus.CounterVec // labels: result={hit,miss}

	// Aggregation metrics.
	AggregateRequests *prometheus.CounterVec // labels: outcome={ok,empty}
	AggregateDuration prometheus.Histogram
	DeltaClips        prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "rows_loaded_total",
			Help:      "Total cleaned rows loaded from the data source.",
		}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "duplicate_rows_dropped_total",
			Help:      "Raw rows dropped because a later row shared their (date, region) key.",
		}),
		CounterCoercions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "counter_coercions_total",
			Help:      "Missing or non-numeric counter values silently treated as zero.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_trends",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete parse-clean dataset load.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		DatasetLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_trends",
			Name:      "dataset_loaded",
			Help:      "1 once at least one dataset has been loaded into the store.",
		}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "dataset_cache_total",
			Help:      "Dataset store lookups by result.",
		}, []string{"result"}),
		AggregateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "aggregate_requests_total",
			Help:      "Series aggregations by outcome.",
		}, []string{"outcome"}),
		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_trends",
			Name:      "aggregate_duration_seconds",
			Help:      "Duration of one filter-group-diff-smooth recompute.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		DeltaClips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_trends",
			Name:      "delta_clips_total",
			Help:      "Negative daily deltas floored to zero (source data corrections).",
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.DuplicatesDropped,
		m.CounterCoercions,
		m.LoadDuration,
		m.DatasetLoaded,
		m.DatasetCache,
		m.AggregateRequests,
		m.AggregateDuration,
		m.DeltaClips,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_trends", Name: "rows_loaded_total"}),
		DuplicatesDropped: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_trends", Name: "duplicate_rows_dropped_total"}),
		CounterCoercions:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_trends", Name: "counter_coercions_total"}),
		LoadDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covid_trends", Name: "load_duration_seconds"}),
		DatasetLoaded:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_trends", Name: "dataset_loaded"}),
		DatasetCache:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_trends", Name: "dataset_cache_total"}, []string{"result"}),
		AggregateRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_trends", Name: "aggregate_requests_total"}, []string{"outcome"}),
		AggregateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covid_trends", Name: "aggregate_duration_seconds"}),
		DeltaClips:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_trends", Name: "delta_clips_total"}),
	}
}

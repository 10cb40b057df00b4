package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// house-price pipeline.
type Metrics struct {
	RecordsLoaded  prometheus.Counter
	RecordsDropped *prometheus.CounterVec // label: reason
	FilesProcessed prometheus.Counter
	FileErrors     prometheus.Counter

	// Postcode lookup metrics.
	LookupResults     *prometheus.CounterVec // label: outcome={exact,variant,region,fallback}
	TableSize         prometheus.Gauge
	DatasetDownload   prometheus.Histogram
	CacheLoadDuration prometheus.Histogram

	// Pipeline metrics.
	PipelineRunning     prometheus.Gauge
	PipelineRunDuration prometheus.Histogram
	DistrictsAggregated prometheus.Gauge
	SnapshotTimestamp   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.RecordsDropped,
		m.FilesProcessed,
		m.FileErrors,
		m.LookupResults,
		m.TableSize,
		m.DatasetDownload,
		m.CacheLoadDuration,
		m.PipelineRunning,
		m.PipelineRunDuration,
		m.DistrictsAggregated,
		m.SnapshotTimestamp,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "housemap",
			Name:      "records_loaded_total",
			Help:      "Price records accepted from source CSV files.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housemap",
			Name:      "records_dropped_total",
			Help:      "Price records rejected by row filters, by reason.",
		}, []string{"reason"}),
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "housemap",
			Name:      "files_processed_total",
			Help:      "Source CSV files read successfully.",
		}),
		FileErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "housemap",
			Name:      "file_errors_total",
			Help:      "Source CSV files skipped due to read or parse errors.",
		}),
		LookupResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housemap",
			Name:      "postcode_lookup_total",
			Help:      "Postcode lookups by outcome.",
		}, []string{"outcome"}),
		TableSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "housemap",
			Name:      "postcode_table_size",
			Help:      "Entries in the in-memory postcode lookup table.",
		}),
		DatasetDownload: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "housemap",
			Name:      "postcode_dataset_download_seconds",
			Help:      "Duration of postcode dataset downloads.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		CacheLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "housemap",
			Name:      "postcode_cache_load_seconds",
			Help:      "Duration of postcode cache artifact loads.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "housemap",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		PipelineRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "housemap",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of a complete load-geocode-aggregate run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),
		DistrictsAggregated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "housemap",
			Name:      "districts_aggregated",
			Help:      "Districts materialized in the current snapshot.",
		}),
		SnapshotTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "housemap",
			Name:      "snapshot_timestamp_seconds",
			Help:      "Unix time the current snapshot was generated.",
		}),
	}
}

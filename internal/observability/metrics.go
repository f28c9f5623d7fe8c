package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline.
type Metrics struct {
	RecordsFetched prometheus.Counter
	RecordsStored  prometheus.Counter
	RecordsSkipped prometheus.Counter
	FieldErrors    prometheus.Counter
	IngestRuns     *prometheus.CounterVec // labels: outcome={success,fetch_error,store_error}
	IngestInFlight prometheus.Gauge

	// Batch metrics.
	BatchSize      prometheus.Histogram
	IngestDuration prometheus.Histogram

	// NASA NeoWs client metrics.
	NasaRequests    *prometheus.CounterVec   // labels: endpoint={feed,neo,browse}, outcome={success,error}
	NasaAPIDuration *prometheus.HistogramVec // labels: endpoint={feed,neo,browse}

	// Sink and report metrics.
	SinkMessages    prometheus.Counter
	SinkErrors      prometheus.Counter
	SummaryRequests *prometheus.CounterVec // labels: outcome={template,llm,llm_fallback}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "records_fetched_total",
			Help:      "Total raw NEO records received from the catalog.",
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "records_stored_total",
			Help:      "Total normalized asteroids written to the store.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "records_skipped_total",
			Help:      "Total records dropped during normalization.",
		}),
		FieldErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "field_errors_total",
			Help:      "Total field-level normalization errors (skipped units/entries).",
		}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "ingest_runs_total",
			Help:      "Ingest runs by outcome.",
		}, []string{"outcome"}),
		IngestInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neo_etl",
			Name:      "ingest_in_flight",
			Help:      "1 while an ingest run is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_etl",
			Name:      "batch_size",
			Help:      "Number of raw records per ingest batch.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "neo_etl",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-store run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		NasaRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "nasa_requests_total",
			Help:      "NeoWs API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		NasaAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neo_etl",
			Name:      "nasa_api_duration_seconds",
			Help:      "NeoWs API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		SinkMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "sink_messages_total",
			Help:      "Asteroid views published to the Kafka sink.",
		}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "sink_errors_total",
			Help:      "Failed sink publish attempts.",
		}),
		SummaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neo_etl",
			Name:      "summary_requests_total",
			Help:      "Report generations by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.RecordsFetched,
		m.RecordsStored,
		m.RecordsSkipped,
		m.FieldErrors,
		m.IngestRuns,
		m.IngestInFlight,
		m.BatchSize,
		m.IngestDuration,
		m.NasaRequests,
		m.NasaAPIDuration,
		m.SinkMessages,
		m.SinkErrors,
		m.SummaryRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsFetched:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "records_fetched_total"}),
		RecordsStored:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "records_stored_total"}),
		RecordsSkipped:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "records_skipped_total"}),
		FieldErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "field_errors_total"}),
		IngestRuns:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_etl", Name: "ingest_runs_total"}, []string{"outcome"}),
		IngestInFlight:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "neo_etl", Name: "ingest_in_flight"}),
		BatchSize:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "neo_etl", Name: "batch_size"}),
		IngestDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "neo_etl", Name: "ingest_duration_seconds"}),
		NasaRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_etl", Name: "nasa_requests_total"}, []string{"endpoint", "outcome"}),
		NasaAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "neo_etl", Name: "nasa_api_duration_seconds"}, []string{"endpoint"}),
		SinkMessages:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "sink_messages_total"}),
		SinkErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "neo_etl", Name: "sink_errors_total"}),
		SummaryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "neo_etl", Name: "summary_requests_total"}, []string{"outcome"}),
	}
}

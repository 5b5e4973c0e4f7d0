// Package prometheus exposes service metrics in the Prometheus format.
package prometheus

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name
const Namespace = "todo"

// NewRegistry creates a registry with Go runtime and process collectors.
// The returned registerer adds a service label to everything registered through it.
func NewRegistry(service string) (*prometheus.Registry, prometheus.Registerer) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, registry)
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Server metrics
	ServerRejectedRequests prometheus.Gauge
	ServerCurrentCCU       prometheus.Gauge
	ServerNormalCCU        prometheus.Gauge
	ServerCCUUtilization   prometheus.Gauge

	// Todo metrics
	TodoOperationsTotal *prometheus.CounterVec
	TodosStored         prometheus.Gauge
	TodosCompleted      prometheus.Gauge

	// Text analysis metrics
	TextAnalysesTotal prometheus.Counter
	TextWordCount     prometheus.Histogram

	// Event publishing metrics
	EventsPublishedTotal *prometheus.CounterVec

	registerer prometheus.Registerer
}

// NewMetrics registers the metric set on registerer
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request body size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 5), // 100B to 1MB
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response body size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 5),
			},
			[]string{"method", "path", "status"},
		),

		ServerRejectedRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_rejected_requests",
			Help:      "Requests rejected by backpressure (503) since start",
		}),
		ServerCurrentCCU: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_current_ccu",
			Help:      "In-flight requests",
		}),
		ServerNormalCCU: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_normal_ccu",
			Help:      "Normal capacity CCU (target utilization)",
		}),
		ServerCCUUtilization: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "server_ccu_utilization",
			Help:      "CCU utilization percentage (0-100)",
		}),

		TodoOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "todo_operations_total",
				Help:      "Todo operations by outcome",
			},
			[]string{"operation", "result"},
		),
		TodosStored: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "todos_stored",
			Help:      "Todos currently stored, as of the last stats request or mutation",
		}),
		TodosCompleted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "todos_completed",
			Help:      "Completed todos, as of the last stats request",
		}),

		TextAnalysesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "text_analyses_total",
			Help:      "Texts analyzed",
		}),
		TextWordCount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "text_word_count",
			Help:      "Words per analyzed text",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		EventsPublishedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_published_total",
				Help:      "Domain events handed to the publisher",
			},
			[]string{"type", "result"},
		),

		registerer: registerer,
	}
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, path, status).Observe(float64(responseSize))
}

// UpdateServerMetrics copies a server snapshot into the server gauges
func (m *Metrics) UpdateServerMetrics(rejected int64, currentCCU, normalCCU int, utilization float64) {
	m.ServerRejectedRequests.Set(float64(rejected))
	m.ServerCurrentCCU.Set(float64(currentCCU))
	m.ServerNormalCCU.Set(float64(normalCCU))
	m.ServerCCUUtilization.Set(utilization)
}

// RecordTodoOperation counts a todo operation. result is "ok", "not_found",
// "invalid" or "error".
func (m *Metrics) RecordTodoOperation(operation, result string) {
	m.TodoOperationsTotal.WithLabelValues(operation, result).Inc()
}

// SetTodoCounts updates the stored and completed gauges
func (m *Metrics) SetTodoCounts(total, completed int) {
	m.TodosStored.Set(float64(total))
	m.TodosCompleted.Set(float64(completed))
}

// RecordTextAnalysis records one text analysis
func (m *Metrics) RecordTextAnalysis(wordCount int) {
	m.TextAnalysesTotal.Inc()
	m.TextWordCount.Observe(float64(wordCount))
}

// RecordEventPublished counts a publish attempt
func (m *Metrics) RecordEventPublished(eventType string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsPublishedTotal.WithLabelValues(eventType, result).Inc()
}

// RegisterDBStats exports database/sql pool statistics for db
func (m *Metrics) RegisterDBStats(db *sql.DB, dbName string) error {
	return m.registerer.Register(collectors.NewDBStatsCollector(db, dbName))
}

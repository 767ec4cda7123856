// Package metrics defines the Prometheus collectors for the query service and
// exposes an HTTP handler for scraping.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "questions"

// Query outcomes used as the result label of QueriesTotal.
const (
	ResultAnswered = "answered"
	ResultEmpty    = "empty"
	ResultError    = "error"
)

// Metrics holds every collector. The zero value is not usable; call New.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	QueriesTotal         *prometheus.CounterVec
	QueryDuration        prometheus.Histogram
	StageDuration        *prometheus.HistogramVec
	CorpusDocuments      prometheus.Gauge
	CorpusReloadsTotal   *prometheus.CounterVec
	AnalyticsDropped     prometheus.Counter

	// AnalyticsBreakerState is 0 closed, 1 open, 2 half-open.
	AnalyticsBreakerState prometheus.Gauge

	gatherer prometheus.Gatherer
}

var (
	httpBuckets  = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	queryBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	stageBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}
)

// New creates the collectors and registers them on reg. A nil reg gets a
// fresh private registry, which keeps tests independent of each other.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"path", "method", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: httpBuckets,
		}, []string{"path", "method"}),
		HTTPRequestsInFlight: gauge("http_requests_in_flight", "HTTP requests being served."),

		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: namespace + "_queries_total",
			Help: "Answered queries by result (answered, empty, error).",
		}, []string{"result"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    namespace + "_query_duration_seconds",
			Help:    "End-to-end query latency in seconds.",
			Buckets: queryBuckets,
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    namespace + "_stage_duration_seconds",
			Help:    "Latency of each pipeline stage in seconds.",
			Buckets: stageBuckets,
		}, []string{"stage"}),

		CorpusDocuments: gauge(namespace+"_corpus_documents", "Documents in the loaded corpus."),

		CorpusReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: namespace + "_corpus_reloads_total",
			Help: "Corpus reloads by status (success, error).",
		}, []string{"status"}),

		AnalyticsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: namespace + "_analytics_dropped_total",
			Help: "Query events dropped by a full buffer or a failed publish.",
		}),
		AnalyticsBreakerState: gauge(namespace+"_analytics_breaker_state",
			"Analytics publish circuit breaker state (0 closed, 1 open, 2 half-open)."),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.QueriesTotal, m.QueryDuration, m.StageDuration,
		m.CorpusDocuments, m.CorpusReloadsTotal,
		m.AnalyticsDropped, m.AnalyticsBreakerState,
	)
	m.gatherer = prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

// Handler returns the scrape handler for the registry the collectors live in.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	<-stopped
	return nil
}

// Package metrics exposes Prometheus instrumentation for SERP fetches and
// audit stages, plus an optional /metrics HTTP server.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SerpFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serplens_serp_fetches_total",
			Help: "Total number of SERP fetches executed",
		},
		[]string{"provider", "language", "status"},
	)

	SerpFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serplens_serp_fetch_duration_seconds",
			Help:    "Duration of SERP fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	AuditStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serplens_audit_stage_duration_seconds",
			Help:    "Duration of audit analyzer stages in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 60},
		},
		[]string{"stage"},
	)

	InsightFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serplens_insight_failures_total",
			Help: "Total number of failed AI insight generations",
		},
	)
)

// RecordFetch updates the fetch metrics for one provider call.
func RecordFetch(provider, language string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if language == "" {
		language = "unknown"
	}

	SerpFetchesTotal.WithLabelValues(provider, language, status).Inc()
	SerpFetchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveStage records the duration of one audit analyzer stage.
func ObserveStage(stage string, duration time.Duration) {
	AuditStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

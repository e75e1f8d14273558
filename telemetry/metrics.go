// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollsTotal        prometheus.Counter
	SamplesTotal      prometheus.Counter
	TransientErrors   prometheus.Counter
	StreamsDiscovered prometheus.Counter
	StreamsEnded      prometheus.Counter
	StreamsProcessed  prometheus.Counter
	StreamsSkipped    prometheus.Counter

	// Per-step post-processing failures (step label: details, plot, index, events, metadata, site)
	PostprocessStepFailures *prometheus.CounterVec

	// Histograms (seconds)
	PostprocessDuration prometheus.Observer

	// Gauges
	CurrentViewersGauge prometheus.Gauge
	MonitoringGauge     prometheus.Gauge // 1=monitoring a live broadcast, 0=searching
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_polls_total", Help: "Number of viewership poll ticks issued"})
		SamplesTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_samples_total", Help: "Number of viewer-count samples appended"})
		TransientErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_transient_errors_total", Help: "Number of poll ticks skipped due to transient errors"})
		StreamsDiscovered = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_streams_discovered_total", Help: "Number of live broadcasts discovered"})
		StreamsEnded = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_streams_ended_total", Help: "Number of end-of-stream transitions observed"})
		StreamsProcessed = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_streams_processed_total", Help: "Number of broadcasts fully post-processed"})
		StreamsSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "livestream_streams_skipped_total", Help: "Number of broadcasts skipped by the duration gate"})
		PostprocessStepFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livestream_postprocess_step_failures_total", Help: "Post-processing step failures by step"}, []string{"step"})
		PostprocessDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "livestream_postprocess_duration_seconds", Help: "Post-processing duration seconds", Buckets: prometheus.DefBuckets})
		CurrentViewersGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "livestream_current_viewers", Help: "Most recently sampled concurrent viewer count"})
		MonitoringGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "livestream_monitoring", Help: "Monitoring a live broadcast=1 searching=0"})
	})
}

// SetMonitoring flips the state gauge.
func SetMonitoring(active bool) {
	if MonitoringGauge != nil {
		if active {
			MonitoringGauge.Set(1)
		} else {
			MonitoringGauge.Set(0)
		}
	}
}

// SetCurrentViewers records the latest sampled count.
func SetCurrentViewers(n uint64) {
	if CurrentViewersGauge != nil {
		CurrentViewersGauge.Set(float64(n))
	}
}

// StepFailure increments the failure counter for a named post-processing step.
func StepFailure(step string) {
	if PostprocessStepFailures != nil {
		PostprocessStepFailures.WithLabelValues(step).Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}

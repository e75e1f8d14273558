// Package server exposes the HTTP surface: health, monitor status, and
// Prometheus metrics. It injects correlation IDs into request contexts for
// consistent logging.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SNH48Live/official-livestreams/monitor"
	"github.com/SNH48Live/official-livestreams/telemetry"
)

// NewMux returns the HTTP handler with all routes.
func NewMux(m *monitor.Monitor) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.Status()); err != nil {
			slog.Warn("encode status", slog.Any("err", err))
		}
	})

	// Wrap with correlation ID injector and tracing middleware.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		mux.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		if wrappedWriter.statusCode >= 400 {
			telemetry.RecordError(span, fmt.Errorf("HTTP %d", wrappedWriter.statusCode))
		}
	})
	return handler
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, m *monitor.Monitor, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(m),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/SNH48Live/official-livestreams/monitor"
	"github.com/SNH48Live/official-livestreams/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Init()
	os.Exit(m.Run())
}

func TestHealthz(t *testing.T) {
	h := NewMux(&monitor.Monitor{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	m := &monitor.Monitor{}
	h := NewMux(m)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var st monitor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if st.State != "searching" {
		t.Errorf("state = %q, want searching", st.State)
	}
}

func TestCorrelationHeader(t *testing.T) {
	h := NewMux(&monitor.Monitor{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("missing generated correlation id")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "corr-123")
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Correlation-ID"); got != "corr-123" {
		t.Errorf("correlation id = %q, want corr-123 (reused)", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewMux(&monitor.Monitor{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body empty")
	}
}

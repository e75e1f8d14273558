// Package testutil provides mock HTTP servers for the YouTube Data API and the
// schedule feed, shared by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// MockYouTubeServer creates a test server that mocks Data API v3 responses.
type MockYouTubeServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockYouTubeServer creates a new mock YouTube API server. Point the real
// client at it with option.WithEndpoint(srv.URL).
func NewMockYouTubeServer(t *testing.T) *MockYouTubeServer {
	t.Helper()
	m := &MockYouTubeServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if handler, ok := m.Handlers[key]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockSearchResponse adds a handler for the search endpoint. Empty videoID
// yields an empty result set (no live broadcast).
func (m *MockYouTubeServer) MockSearchResponse(videoID string) {
	m.Handlers["/youtube/v3/search"] = func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]interface{}{}
		if videoID != "" {
			items = append(items, map[string]interface{}{
				"id": map[string]string{"kind": "youtube#video", "videoId": videoID},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items}) //nolint:errcheck // test mock response
	}
}

// MockSearchError makes the search endpoint fail with a server error.
func (m *MockYouTubeServer) MockSearchError(status int) {
	m.Handlers["/youtube/v3/search"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// LiveDetailsFixture describes one videos.list response item.
type LiveDetailsFixture struct {
	Title   string
	Start   time.Time // zero omits actualStartTime
	End     time.Time // zero omits actualEndTime
	Viewers uint64    // 0 omits concurrentViewers
}

// MockVideosResponse adds a handler for the videos endpoint. A nil fixture
// yields an empty item list (video not found).
func (m *MockYouTubeServer) MockVideosResponse(fx *LiveDetailsFixture) {
	m.Handlers["/youtube/v3/videos"] = func(w http.ResponseWriter, r *http.Request) {
		items := []map[string]interface{}{}
		if fx != nil {
			details := map[string]interface{}{}
			if !fx.Start.IsZero() {
				details["actualStartTime"] = fx.Start.Format(time.RFC3339)
			}
			if !fx.End.IsZero() {
				details["actualEndTime"] = fx.End.Format(time.RFC3339)
			}
			if fx.Viewers > 0 {
				// The live API serializes this count as a JSON string.
				details["concurrentViewers"] = strconv.FormatUint(fx.Viewers, 10)
			}
			items = append(items, map[string]interface{}{
				"snippet":              map[string]string{"title": fx.Title},
				"liveStreamingDetails": details,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": items}) //nolint:errcheck // test mock response
	}
}

// MockVideosError makes the videos endpoint fail with a server error.
func (m *MockYouTubeServer) MockVideosError(status int) {
	m.Handlers["/youtube/v3/videos"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}
}

// NewMockScheduleServer serves a fixed schedule feed document.
func NewMockScheduleServer(t *testing.T, past, scheduled []map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck // test mock response
			"past":      past,
			"scheduled": scheduled,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

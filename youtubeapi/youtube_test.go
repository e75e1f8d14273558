package youtubeapi

import (
	"context"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/SNH48Live/official-livestreams/config"
	"github.com/SNH48Live/official-livestreams/testutil"
)

func newTestClient(t *testing.T, srv *testutil.MockYouTubeServer) *Client {
	t.Helper()
	cfg := &config.Config{APIKey: "test-key"}
	c, err := New(context.Background(), cfg, option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSearchLiveFound(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	srv.MockSearchResponse("dQw4w9WgXcQ")
	c := newTestClient(t, srv)
	id, err := c.SearchLive(context.Background(), "UCChannel")
	if err != nil {
		t.Fatalf("SearchLive: %v", err)
	}
	if id != "dQw4w9WgXcQ" {
		t.Errorf("id = %q, want dQw4w9WgXcQ", id)
	}
}

func TestSearchLiveNone(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	srv.MockSearchResponse("")
	c := newTestClient(t, srv)
	id, err := c.SearchLive(context.Background(), "UCChannel")
	if err != nil {
		t.Fatalf("SearchLive: %v", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestSearchLiveRemoteError(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	srv.MockSearchError(500)
	c := newTestClient(t, srv)
	if _, err := c.SearchLive(context.Background(), "UCChannel"); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestGetLiveDetailsLive(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	start := time.Date(2023, 11, 14, 19, 0, 0, 0, time.UTC)
	srv.MockVideosResponse(&testutil.LiveDetailsFixture{Title: "Live show", Start: start, Viewers: 1234})
	c := newTestClient(t, srv)
	d, err := c.GetLiveDetails(context.Background(), "vid")
	if err != nil {
		t.Fatalf("GetLiveDetails: %v", err)
	}
	if d.Title != "Live show" {
		t.Errorf("Title = %q", d.Title)
	}
	if !d.HasViewers || d.Viewers != 1234 {
		t.Errorf("Viewers = %d (has=%v), want 1234", d.Viewers, d.HasViewers)
	}
	if !d.Start.Equal(start) {
		t.Errorf("Start = %v, want %v", d.Start, start)
	}
	if !d.End.IsZero() {
		t.Errorf("End should be zero while live, got %v", d.End)
	}
}

func TestGetLiveDetailsEnded(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	start := time.Date(2023, 11, 14, 19, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	srv.MockVideosResponse(&testutil.LiveDetailsFixture{Title: "Done", Start: start, End: end})
	c := newTestClient(t, srv)
	d, err := c.GetLiveDetails(context.Background(), "vid")
	if err != nil {
		t.Fatalf("GetLiveDetails: %v", err)
	}
	if d.HasViewers {
		t.Error("HasViewers should be false after end")
	}
	if !d.End.Equal(end) {
		t.Errorf("End = %v, want %v", d.End, end)
	}
}

func TestGetLiveDetailsNotFound(t *testing.T) {
	srv := testutil.NewMockYouTubeServer(t)
	srv.MockVideosResponse(nil)
	c := newTestClient(t, srv)
	if _, err := c.GetLiveDetails(context.Background(), "vid"); err == nil {
		t.Error("expected error for missing video")
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), &config.Config{}); err == nil {
		t.Error("expected error without credentials")
	}
}

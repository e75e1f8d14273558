// Package schedule consumes the public performance-schedule feed and answers
// "which scheduled events overlap this broadcast window". The feed is a JSON
// document with a reverse-chronological `past` list and a chronological
// `scheduled` list; this package normalizes them into one past-then-future
// chronological sequence. Read-only; one fetch per invocation, no caching.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is one scheduled performance.
type Event struct {
	Time      time.Time `json:"time"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Thumbnail string    `json:"thumbnail"`
}

// Client fetches the schedule feed.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Fetch returns all known events, past concatenated before scheduled, in
// chronological order.
func (c *Client) Fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("schedule request: %w", err)
	}
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule fetch: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule fetch: status %d", resp.StatusCode)
	}
	var body struct {
		Past      []Event `json:"past"`
		Scheduled []Event `json:"scheduled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("schedule decode: %w", err)
	}
	out := make([]Event, 0, len(body.Past)+len(body.Scheduled))
	// past is served newest-first; reverse into chronological order
	for i := len(body.Past) - 1; i >= 0; i-- {
		out = append(out, body.Past[i])
	}
	out = append(out, body.Scheduled...)
	return out, nil
}

// EventsBetween returns the events whose start instant falls within
// [from, to], inclusive, in chronological order.
func (c *Client) EventsBetween(ctx context.Context, from, to time.Time) ([]Event, error) {
	all, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	var out []Event
	for _, e := range all {
		if e.Time.Before(from) || e.Time.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

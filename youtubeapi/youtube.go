// Package youtubeapi contains minimal helpers around the YouTube Data API v3
// for live-broadcast discovery and concurrent-viewer lookup. Authentication is
// either an API key or a pre-provisioned OAuth token file; acquiring the token
// in the first place is out of scope.
package youtubeapi

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/SNH48Live/official-livestreams/config"
)

// Client provides the two Data API calls the monitor needs.
type Client struct {
	svc *yt.Service
}

// New builds a Data API client from config credentials. Extra options (custom
// endpoint, http client) are appended, which tests use to point at a mock.
func New(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Client, error) {
	var base []option.ClientOption
	switch {
	case cfg.APIKey != "":
		base = append(base, option.WithAPIKey(cfg.APIKey))
	case cfg.TokenFile != "":
		ts, err := NewTokenSource(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("token source: %w", err)
		}
		base = append(base, option.WithTokenSource(ts))
	default:
		return nil, fmt.Errorf("no YouTube credentials: set YT_API_KEY or YT_TOKEN_FILE")
	}
	svc, err := yt.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// SearchLive returns the id of the channel's currently-live broadcast, or ""
// when there is none. The platform orders results by relevance; the first
// match wins.
func (c *Client) SearchLive(ctx context.Context, channelID string) (string, error) {
	if channelID == "" {
		return "", fmt.Errorf("channelID empty")
	}
	res, err := c.svc.Search.List([]string{"id"}).
		ChannelId(channelID).
		Type("video").
		EventType("live").
		MaxResults(1).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search live: %w", err)
	}
	if len(res.Items) == 0 || res.Items[0].Id == nil {
		return "", nil
	}
	return res.Items[0].Id.VideoId, nil
}

// LiveDetails is the monitor-relevant slice of a video's liveStreamingDetails.
// Start/End are zero when the platform has not reported them. The API omits
// concurrentViewers once a stream ends; a live stream with literally zero
// viewers is indistinguishable from the omitted field and shows up as a
// skipped tick.
type LiveDetails struct {
	Title      string
	Start      time.Time
	End        time.Time
	Viewers    uint64
	HasViewers bool
}

// GetLiveDetails fetches snippet + liveStreamingDetails for one video.
func (c *Client) GetLiveDetails(ctx context.Context, videoID string) (*LiveDetails, error) {
	if videoID == "" {
		return nil, fmt.Errorf("videoID empty")
	}
	res, err := c.svc.Videos.List([]string{"snippet", "liveStreamingDetails"}).
		Id(videoID).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("video details: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	item := res.Items[0]
	d := &LiveDetails{}
	if item.Snippet != nil {
		d.Title = item.Snippet.Title
	}
	if ls := item.LiveStreamingDetails; ls != nil {
		if ls.ActualStartTime != "" {
			if t, err := time.Parse(time.RFC3339, ls.ActualStartTime); err == nil {
				d.Start = t.UTC()
			}
		}
		if ls.ActualEndTime != "" {
			if t, err := time.Parse(time.RFC3339, ls.ActualEndTime); err == nil {
				d.End = t.UTC()
			}
		}
		if ls.ConcurrentViewers > 0 {
			d.Viewers = ls.ConcurrentViewers
			d.HasViewers = true
		}
	}
	return d, nil
}

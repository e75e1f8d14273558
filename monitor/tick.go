package monitor

import (
	"fmt"
	"time"

	"github.com/SNH48Live/official-livestreams/youtubeapi"
)

// TickKind discriminates the outcome of one viewership poll.
type TickKind int

const (
	// TickSample: the stream is live and reported a viewer count.
	TickSample TickKind = iota
	// TickTransient: the poll failed or the response was anomalous; skip the
	// tick, no state change.
	TickTransient
	// TickEnded: the platform reports the broadcast has concluded.
	TickEnded
)

// TickResult is the typed result of a poll tick, switched on explicitly
// instead of propagating errors as control flow.
type TickResult struct {
	Kind    TickKind
	Viewers uint64    // TickSample
	End     time.Time // TickEnded; zero when the platform omitted it
	Err     error     // TickTransient
}

// classify maps a live-details response onto a tick outcome:
// viewer count present -> still live, sample it; absent with an end instant ->
// stream ended; absent with only a start instant -> transient anomaly; neither
// -> the video is not actually live.
func classify(d *youtubeapi.LiveDetails, err error) TickResult {
	if err != nil {
		return TickResult{Kind: TickTransient, Err: fmt.Errorf("live details lookup: %w", err)}
	}
	switch {
	case d.HasViewers:
		return TickResult{Kind: TickSample, Viewers: d.Viewers}
	case !d.End.IsZero():
		return TickResult{Kind: TickEnded, End: d.End}
	case !d.Start.IsZero():
		return TickResult{Kind: TickTransient, Err: fmt.Errorf("viewer count absent while stream reported live")}
	default:
		return TickResult{Kind: TickTransient, Err: fmt.Errorf("no live streaming details; stream not live")}
	}
}

// nextTickDelay returns the wait until the next wall-clock minute boundary, so
// ticks stay aligned regardless of poll latency or jitter.
func nextTickDelay(now time.Time) time.Duration {
	return time.Duration(60-now.Unix()%60) * time.Second
}

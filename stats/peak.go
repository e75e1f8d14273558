// Package stats derives summary statistics from a sampled viewer-count series.
package stats

import (
	"fmt"
	"time"

	"github.com/SNH48Live/official-livestreams/series"
)

// Peak is the maximum concurrent-viewer count of a series and the offset from
// stream start at which it first occurred.
type Peak struct {
	Count  uint64
	Offset time.Duration
}

// OffsetSeconds returns the peak offset in whole seconds (for deep links).
func (p Peak) OffsetSeconds() int64 { return int64(p.Offset / time.Second) }

// OffsetMinutes returns the peak offset in whole minutes, truncated (for display).
func (p Peak) OffsetMinutes() int64 { return int64(p.Offset / time.Minute) }

// FindPeak scans samples for the running maximum count; ties keep the earliest
// occurrence. A broadcast that reached post-processing had at least one
// successful tick, so an empty series is a caller bug.
func FindPeak(samples []series.Sample, start time.Time) (Peak, error) {
	if len(samples) == 0 {
		return Peak{}, fmt.Errorf("empty sample series")
	}
	pk := Peak{Count: samples[0].Count, Offset: samples[0].Time.Sub(start)}
	for _, s := range samples[1:] {
		if s.Count > pk.Count {
			pk = Peak{Count: s.Count, Offset: s.Time.Sub(start)}
		}
	}
	// The authoritative start can postdate the earliest samples; a negative
	// offset would plot off-axis and deep-link to t=-N.
	if pk.Offset < 0 {
		pk.Offset = 0
	}
	return pk, nil
}

package monitor

import (
	"errors"
	"testing"
	"time"

	"github.com/SNH48Live/official-livestreams/youtubeapi"
)

func TestClassify(t *testing.T) {
	start := time.Unix(1000, 0)
	end := time.Unix(5000, 0)
	tests := []struct {
		name string
		d    *youtubeapi.LiveDetails
		err  error
		want TickKind
	}{
		{"remote error", nil, errors.New("boom"), TickTransient},
		{"viewers present", &youtubeapi.LiveDetails{Start: start, Viewers: 42, HasViewers: true}, nil, TickSample},
		{"ended", &youtubeapi.LiveDetails{Start: start, End: end}, nil, TickEnded},
		{"missing viewers while live", &youtubeapi.LiveDetails{Start: start}, nil, TickTransient},
		{"not actually live", &youtubeapi.LiveDetails{}, nil, TickTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classify(tt.d, tt.err)
			if res.Kind != tt.want {
				t.Errorf("kind = %v, want %v", res.Kind, tt.want)
			}
			if tt.want == TickTransient && res.Err == nil {
				t.Error("transient result must carry an error")
			}
			if tt.want == TickSample && res.Viewers != 42 {
				t.Errorf("viewers = %d, want 42", res.Viewers)
			}
			if tt.want == TickEnded && !res.End.Equal(end) {
				t.Errorf("end = %v, want %v", res.End, end)
			}
		})
	}
}

func TestNextTickDelayAlignsToMinuteBoundary(t *testing.T) {
	for _, sec := range []int64{0, 1, 30, 59, 1000, 1699999999} {
		now := time.Unix(sec, 0)
		d := nextTickDelay(now)
		if d <= 0 || d > time.Minute {
			t.Errorf("delay for unix %d = %v, want (0, 60s]", sec, d)
		}
		if next := now.Add(d); next.Unix()%60 != 0 {
			t.Errorf("unix %d + %v = %d, not on a minute boundary", sec, d, next.Unix())
		}
	}
}

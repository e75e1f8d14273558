// Package monitor drives the live-broadcast watch loop. It alternates between
// two states: SEARCHING, where it asks the Data API for a live broadcast on the
// channel at a fixed backoff, and MONITORING, where it samples the concurrent
// viewer count once per wall-clock minute, feeds the sample log, and supervises
// the chat-recorder sidecar. When the platform reports the broadcast has ended
// it stops the recorder, hands the broadcast to the post-processor, and returns
// to SEARCHING. The loop only exits on context cancellation.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SNH48Live/official-livestreams/chatrec"
	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/telemetry"
	"github.com/SNH48Live/official-livestreams/youtubeapi"
)

// State is the orchestrator's current mode. It is transient: after a crash it
// is re-derived from a fresh discovery call, never persisted.
type State int

const (
	StateSearching State = iota
	StateMonitoring
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateMonitoring:
		return "monitoring"
	default:
		return "unknown"
	}
}

// Broadcast identifies one live stream under observation.
type Broadcast struct {
	ID    string
	Start time.Time
	// StartIsFallback marks a wall-clock fallback used because the platform
	// had not yet reported an actual start time.
	StartIsFallback bool
	// Corr is the correlation id attached to every log line and span for
	// this broadcast.
	Corr string
}

// API is the slice of the Data API the monitor consumes.
type API interface {
	SearchLive(ctx context.Context, channelID string) (string, error)
	GetLiveDetails(ctx context.Context, videoID string) (*youtubeapi.LiveDetails, error)
}

// Processor receives the finished broadcast and its sample-log path.
type Processor interface {
	Process(ctx context.Context, b Broadcast, seriesPath string)
}

// ChatRecorder is a running sidecar handle.
type ChatRecorder interface {
	Stop()
}

// ChatSupervisor starts sidecar recorders.
type ChatSupervisor interface {
	Start(videoID string) (ChatRecorder, error)
}

// WrapSupervisor adapts the concrete chatrec supervisor to the interface.
func WrapSupervisor(s *chatrec.Supervisor) ChatSupervisor { return supervisorAdapter{s} }

type supervisorAdapter struct{ s *chatrec.Supervisor }

func (a supervisorAdapter) Start(videoID string) (ChatRecorder, error) {
	r, err := a.s.Start(videoID)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Monitor is the orchestrating state machine. Construct one per process and
// share it by reference; there is no package-level state.
type Monitor struct {
	API            API
	Channel        string
	Store          *series.Store
	Chat           ChatSupervisor // nil disables chat recording
	Post           Processor      // nil disables post-processing
	SearchInterval time.Duration

	// tickWait computes the pre-poll wait; overridden in tests.
	tickWait func(now time.Time) time.Duration

	mu          sync.Mutex
	state       State
	current     *Broadcast
	lastSample  *series.Sample
	sampleCount int
}

// Status is a point-in-time snapshot for the /status endpoint.
type Status struct {
	State       string     `json:"state"`
	VideoID     string     `json:"video_id,omitempty"`
	StreamStart *time.Time `json:"stream_start,omitempty"`
	LastSample  *time.Time `json:"last_sample,omitempty"`
	LastViewers uint64     `json:"last_viewers,omitempty"`
	Samples     int        `json:"samples"`
}

// Status returns the current snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{State: m.state.String(), Samples: m.sampleCount}
	if m.current != nil {
		st.VideoID = m.current.ID
		t := m.current.Start
		st.StreamStart = &t
	}
	if m.lastSample != nil {
		t := m.lastSample.Time
		st.LastSample = &t
		st.LastViewers = m.lastSample.Count
	}
	return st
}

// Run drives the state machine until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.SearchInterval <= 0 {
		m.SearchInterval = 60 * time.Second
	}
	if m.tickWait == nil {
		m.tickWait = nextTickDelay
	}
	log := slog.Default().With(slog.String("component", "monitor"), slog.String("channel", m.Channel))
	log.Info("monitor started", slog.Duration("search_interval", m.SearchInterval))
	for {
		b := m.search(ctx, log)
		if b == nil {
			log.Info("monitor stopped")
			return
		}
		if !m.watch(ctx, b) {
			// Monitoring never started (local failure before the first tick).
			// Discovery would re-find the same broadcast instantly, so hold
			// the search backoff here to keep the cadence serial.
			select {
			case <-ctx.Done():
			case <-time.After(m.SearchInterval):
			}
		}
		if ctx.Err() != nil {
			log.Info("monitor stopped")
			return
		}
	}
}

// search polls discovery at the fixed backoff until a live broadcast appears or
// ctx is cancelled. Discovery failure is expected steady state (no stream
// currently live) and is never fatal.
func (m *Monitor) search(ctx context.Context, log *slog.Logger) *Broadcast {
	m.setState(StateSearching, nil)
	telemetry.SetMonitoring(false)
	for {
		if ctx.Err() != nil {
			return nil
		}
		id, err := m.API.SearchLive(ctx, m.Channel)
		if err != nil {
			// Remote failure collapses to "not found"; retry on the next tick.
			log.Debug("discovery", slog.Any("err", err))
		} else if id != "" {
			return m.begin(ctx, id, log)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.SearchInterval):
		}
	}
}

// begin performs the SEARCHING -> MONITORING side effects: resolve the start
// time (wall clock as fallback so logging can proceed) and mint a correlation
// id. The series log and recorder are opened by watch.
func (m *Monitor) begin(ctx context.Context, id string, log *slog.Logger) *Broadcast {
	b := &Broadcast{ID: id, Corr: uuid.New().String()}
	d, err := m.API.GetLiveDetails(ctx, id)
	if err == nil && !d.Start.IsZero() {
		b.Start = d.Start
	} else {
		b.Start = time.Now().UTC()
		b.StartIsFallback = true
		log.Warn("start time unavailable; using wall clock",
			slog.String("video_id", id), slog.Any("err", err))
	}
	return b
}

// watch is the MONITORING loop for one broadcast. The recorder is an owned
// resource: released exactly once on the way back to SEARCHING, including on
// cancellation and post-processor failure. Returns false when monitoring
// never began, so the caller backs off instead of rediscovering immediately.
func (m *Monitor) watch(ctx context.Context, b *Broadcast) bool {
	ctx = telemetry.WithCorrelation(ctx, b.Corr)
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("component", "monitor"),
		slog.String("video_id", b.ID))

	lg, err := m.Store.Open(b.ID)
	if err != nil {
		log.Error("open series log", slog.Any("err", err))
		return false
	}
	defer func() {
		if err := lg.Close(); err != nil {
			log.Warn("close series log", slog.Any("err", err))
		}
	}()

	var rec ChatRecorder
	if m.Chat != nil {
		if rec, err = m.Chat.Start(b.ID); err != nil {
			log.Error("start chat recorder", slog.Any("err", err))
			rec = nil
		}
	}
	defer func() {
		if rec != nil {
			rec.Stop()
		}
	}()

	m.setState(StateMonitoring, b)
	telemetry.StreamsDiscovered.Inc()
	telemetry.SetMonitoring(true)
	log.Info("stream live; monitoring",
		slog.Time("start", b.Start),
		slog.Bool("start_fallback", b.StartIsFallback))

	for {
		select {
		case <-ctx.Done():
			return true
		case <-time.After(m.tickWait(time.Now())):
		}
		telemetry.PollsTotal.Inc()
		tickCtx, span := telemetry.StartSpan(ctx, "monitor", "poll-tick", telemetry.VideoIDAttr(b.ID))
		d, err := m.API.GetLiveDetails(tickCtx, b.ID)
		res := classify(d, err)
		switch res.Kind {
		case TickSample:
			now := time.Now().UTC()
			if err := lg.Append(now, res.Viewers); err != nil {
				log.Error("append sample", slog.Any("err", err))
			} else {
				m.recordSample(series.Sample{Time: now, Count: res.Viewers})
				telemetry.SamplesTotal.Inc()
				telemetry.SetCurrentViewers(res.Viewers)
				log.Info("sample",
					slog.Uint64("viewers", res.Viewers),
					slog.Duration("offset", now.Sub(b.Start).Truncate(time.Second)))
			}
			telemetry.SetSpanSuccess(span)
		case TickTransient:
			telemetry.TransientErrors.Inc()
			telemetry.RecordError(span, res.Err)
			log.Warn("poll tick skipped", slog.Any("err", res.Err))
		case TickEnded:
			telemetry.StreamsEnded.Inc()
			telemetry.SetSpanSuccess(span)
			span.End()
			log.Info("stream ended", slog.Time("end", res.End))
			if rec != nil {
				rec.Stop()
				rec = nil
			}
			if m.Post != nil {
				m.Post.Process(ctx, *b, lg.Path())
			}
			return true
		}
		span.End()
	}
}

func (m *Monitor) setState(s State, b *Broadcast) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	m.current = b
	if s == StateSearching {
		m.lastSample = nil
		m.sampleCount = 0
	}
}

func (m *Monitor) recordSample(s series.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSample = &s
	m.sampleCount++
}

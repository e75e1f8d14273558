// Package postprocess turns a finished broadcast into its published artifacts:
// the peak plot, an index entry, and the metadata document the static site is
// generated from. Steps are individually fallible and individually logged; a
// failure in one step never rolls back or aborts its siblings, and nothing
// here crashes the orchestrator.
package postprocess

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/SNH48Live/official-livestreams/chart"
	"github.com/SNH48Live/official-livestreams/monitor"
	"github.com/SNH48Live/official-livestreams/schedule"
	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/stats"
	"github.com/SNH48Live/official-livestreams/telemetry"
	"github.com/SNH48Live/official-livestreams/youtubeapi"
)

// preRoll widens the event-correlation window backwards from the stream start,
// tolerating broadcasts that start late relative to a scheduled event.
const preRoll = 30 * time.Minute

// DetailsAPI is the one remote lookup the post-processor needs: the
// authoritative start/end instants (local sample timestamps only bound them).
type DetailsAPI interface {
	GetLiveDetails(ctx context.Context, videoID string) (*youtubeapi.LiveDetails, error)
}

// EventSource answers which scheduled events overlap a window.
type EventSource interface {
	EventsBetween(ctx context.Context, from, to time.Time) ([]schedule.Event, error)
}

// Processor holds the pipeline's collaborators and destinations.
type Processor struct {
	API          DetailsAPI
	Events       EventSource
	Charts       *chart.Renderer
	IndexPath    string
	MetadataDir  string
	MinDuration  time.Duration
	SiteBuildBin string // empty disables the rebuild trigger
}

// Metadata is the terminal artifact for one broadcast, written once and
// immutable thereafter.
type Metadata struct {
	VideoID           string           `json:"video_id"`
	Title             string           `json:"title,omitempty"`
	Start             time.Time        `json:"start"`
	End               time.Time        `json:"end"`
	Events            []schedule.Event `json:"events"`
	Plot              string           `json:"plot"`
	PeakViewers       uint64           `json:"peak_viewers"`
	PeakOffsetSeconds int64            `json:"peak_offset_seconds"`
	PeakURL           string           `json:"peak_url"`
}

// Process runs the pipeline for one finished broadcast.
func (p *Processor) Process(ctx context.Context, b monitor.Broadcast, seriesPath string) {
	log := telemetry.LoggerWithCorr(ctx).With(
		slog.String("component", "postprocess"),
		slog.String("video_id", b.ID))
	ctx, span := telemetry.StartSpan(ctx, "postprocess", "process-stream", telemetry.VideoIDAttr(b.ID))
	defer span.End()

	telemetry.TimeFunc(telemetry.PostprocessDuration, func() {
		p.process(ctx, b, seriesPath, log)
	})
}

func (p *Processor) process(ctx context.Context, b monitor.Broadcast, seriesPath string, log *slog.Logger) {
	samples, err := series.ReadFile(seriesPath)
	if err != nil {
		telemetry.StepFailure("series")
		log.Error("read sample series", slog.Any("err", err))
		return
	}
	if len(samples) == 0 {
		log.Warn("no samples recorded; nothing to publish")
		return
	}

	// Authoritative start/end come from the remote record; fall back to the
	// locally observed bounds if the lookup fails.
	start := b.Start
	end := samples[len(samples)-1].Time
	var title string
	if d, err := p.API.GetLiveDetails(ctx, b.ID); err != nil {
		telemetry.StepFailure("details")
		log.Warn("authoritative times lookup failed; using local bounds", slog.Any("err", err))
	} else {
		title = d.Title
		if !d.Start.IsZero() {
			start = d.Start
		}
		if !d.End.IsZero() {
			end = d.End
		}
	}

	if dur := end.Sub(start); dur < p.MinDuration {
		telemetry.StreamsSkipped.Inc()
		log.Info("stream too short to publish",
			slog.Duration("duration", dur),
			slog.Duration("min", p.MinDuration))
		return
	}

	if p.indexContains(b.ID) {
		log.Info("already indexed; skipping")
		return
	}

	pk, err := stats.FindPeak(samples, start)
	if err != nil {
		telemetry.StepFailure("peak")
		log.Error("peak analysis", slog.Any("err", err))
		return
	}
	log.Info("peak computed",
		slog.Uint64("viewers", pk.Count),
		slog.Int64("offset_seconds", pk.OffsetSeconds()))

	var plotName string
	if arts, err := p.Charts.Render(ctx, b.ID, start, samples, pk); err != nil {
		telemetry.StepFailure("plot")
		log.Error("render plot", slog.Any("err", err))
	} else {
		plotName = filepath.Base(arts.SVG)
		log.Info("plot rendered", slog.String("svg", arts.SVG), slog.String("png", arts.PNG))
	}

	if err := p.appendIndex(b.ID, start); err != nil {
		telemetry.StepFailure("index")
		log.Error("append index", slog.Any("err", err))
	}

	var events []schedule.Event
	if p.Events != nil {
		if events, err = p.Events.EventsBetween(ctx, start.Add(-preRoll), end); err != nil {
			telemetry.StepFailure("events")
			log.Error("event correlation", slog.Any("err", err))
			events = nil
		}
	}

	md := Metadata{
		VideoID:           b.ID,
		Title:             title,
		Start:             start,
		End:               end,
		Events:            events,
		Plot:              plotName,
		PeakViewers:       pk.Count,
		PeakOffsetSeconds: pk.OffsetSeconds(),
		PeakURL:           fmt.Sprintf("https://youtu.be/%s?t=%d", b.ID, pk.OffsetSeconds()),
	}
	if err := p.writeMetadata(md); err != nil {
		telemetry.StepFailure("metadata")
		log.Error("write metadata", slog.Any("err", err))
	}

	p.triggerSiteBuild(log)
	telemetry.StreamsProcessed.Inc()
	log.Info("stream processed",
		slog.Time("start", start),
		slog.Time("end", end),
		slog.Int("events", len(events)))
}

// MetadataPath returns the deterministic document path for a broadcast.
func (p *Processor) MetadataPath(videoID string, start time.Time) string {
	return filepath.Join(p.MetadataDir, chart.BaseName(videoID, start)+".json")
}

func (p *Processor) writeMetadata(md Metadata) error {
	if err := os.MkdirAll(p.MetadataDir, 0o755); err != nil {
		return fmt.Errorf("mkdir metadata dir: %w", err)
	}
	raw, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	path := p.MetadataPath(md.VideoID, md.Start)
	if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// appendIndex adds one `<date> <videoID>` line, a single flushed write.
func (p *Processor) appendIndex(videoID string, start time.Time) error {
	f, err := os.OpenFile(p.IndexPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(start.Format("2006-01-02") + " " + videoID + "\n"); err != nil {
		return fmt.Errorf("append index: %w", err)
	}
	return f.Sync()
}

// indexContains reports whether a broadcast was already processed. A missing
// index means nothing was processed yet.
func (p *Processor) indexContains(videoID string) bool {
	f, err := os.Open(p.IndexPath)
	if err != nil {
		return false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 2 && fields[1] == videoID {
			return true
		}
	}
	return false
}

// triggerSiteBuild launches the external site regenerator and does not wait
// for it; its exit status is not inspected.
func (p *Processor) triggerSiteBuild(log *slog.Logger) {
	if p.SiteBuildBin == "" {
		return
	}
	cmd := exec.Command(p.SiteBuildBin)
	if err := cmd.Start(); err != nil {
		telemetry.StepFailure("site")
		log.Warn("site rebuild trigger failed", slog.Any("err", err))
		return
	}
	go func() { _ = cmd.Wait() }()
	log.Info("site rebuild triggered", slog.Int("pid", cmd.Process.Pid))
}

// Package chart renders the peak-viewership plot for a finished broadcast.
// Each broadcast yields two encodings, SVG and PNG, named from the stream date
// and video id. Final-size optimization is delegated to external tools (svgo,
// zopflipng); a missing or failing optimizer leaves the unoptimized artifact in
// place, which is still valid output.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/stats"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// Renderer writes plot artifacts into Dir.
type Renderer struct {
	Dir string

	// Optimizer binaries; empty disables the corresponding pass.
	SVGOptimizer string
	PNGOptimizer string
}

// Artifacts are the rendered image files for one broadcast.
type Artifacts struct {
	SVG string
	PNG string
}

// BaseName returns the deterministic artifact stem for a broadcast,
// e.g. "2023-11-14-dQw4w9WgXcQ".
func BaseName(videoID string, start time.Time) string {
	return start.Format("2006-01-02") + "-" + videoID
}

// Render draws count vs. minute-offset with a vertical marker and annotation at
// the peak, then saves SVG and PNG at fixed size and runs the optimizers.
func (r *Renderer) Render(ctx context.Context, videoID string, start time.Time, samples []series.Sample, pk stats.Peak) (Artifacts, error) {
	if len(samples) == 0 {
		return Artifacts{}, fmt.Errorf("empty sample series")
	}
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("mkdir plot dir: %w", err)
	}

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.Time.Sub(start).Minutes()
		pts[i].Y = float64(s.Count)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s concurrent viewers", start.Format("2006-01-02"))
	p.X.Label.Text = "Minutes since stream start"
	p.Y.Label.Text = "Viewers"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return Artifacts{}, fmt.Errorf("series line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	p.Add(line)

	// Vertical peak marker scaled to the count axis, plus the value annotation.
	peakX := pk.Offset.Minutes()
	marker, err := plotter.NewLine(plotter.XYs{{X: peakX, Y: 0}, {X: peakX, Y: float64(pk.Count)}})
	if err != nil {
		return Artifacts{}, fmt.Errorf("peak marker: %w", err)
	}
	marker.LineStyle.Width = vg.Points(1)
	marker.LineStyle.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	marker.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(marker)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: peakX, Y: float64(pk.Count)}},
		Labels: []string{fmt.Sprintf("peak %d @ %dmin", pk.Count, pk.OffsetMinutes())},
	})
	if err != nil {
		return Artifacts{}, fmt.Errorf("peak label: %w", err)
	}
	p.Add(labels)

	base := filepath.Join(r.Dir, BaseName(videoID, start))
	out := Artifacts{SVG: base + ".svg", PNG: base + ".png"}
	if err := p.Save(plotWidth, plotHeight, out.SVG); err != nil {
		return Artifacts{}, fmt.Errorf("save svg: %w", err)
	}
	if err := p.Save(plotWidth, plotHeight, out.PNG); err != nil {
		return Artifacts{}, fmt.Errorf("save png: %w", err)
	}

	r.optimize(ctx, out)
	return out, nil
}

// optimize shells out to the configured tools. Never fatal.
func (r *Renderer) optimize(ctx context.Context, a Artifacts) {
	if r.SVGOptimizer != "" {
		runOptimizer(ctx, r.SVGOptimizer, a.SVG, []string{a.SVG})
	}
	if r.PNGOptimizer != "" {
		runOptimizer(ctx, r.PNGOptimizer, a.PNG, []string{"-y", a.PNG, a.PNG})
	}
}

func runOptimizer(ctx context.Context, bin, path string, args []string) {
	if _, err := exec.LookPath(bin); err != nil {
		slog.Debug("artifact optimizer not installed", slog.String("bin", bin))
		return
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		slog.Warn("artifact optimization failed",
			slog.String("bin", bin),
			slog.String("path", path),
			slog.Any("err", err),
			slog.String("out", string(out)))
	}
}

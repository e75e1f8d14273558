package chart

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/stats"
)

func TestBaseName(t *testing.T) {
	start := time.Date(2023, 11, 14, 19, 0, 0, 0, time.UTC)
	if got, want := BaseName("abc123", start), "2023-11-14-abc123"; got != want {
		t.Errorf("BaseName = %q, want %q", got, want)
	}
}

func TestRenderProducesBothEncodings(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{Dir: dir}
	start := time.Date(2023, 11, 14, 19, 0, 0, 0, time.UTC)
	samples := []series.Sample{
		{Time: start, Count: 10},
		{Time: start.Add(time.Minute), Count: 50},
		{Time: start.Add(2 * time.Minute), Count: 30},
	}
	pk, err := stats.FindPeak(samples, start)
	if err != nil {
		t.Fatalf("FindPeak: %v", err)
	}
	arts, err := r.Render(context.Background(), "abc123", start, samples, pk)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, p := range []string{arts.SVG, arts.PNG} {
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing artifact %s: %v", p, err)
		}
		if fi.Size() == 0 {
			t.Errorf("artifact %s is empty", p)
		}
	}
	if filepath.Base(arts.SVG) != "2023-11-14-abc123.svg" {
		t.Errorf("unexpected svg name %q", arts.SVG)
	}
	if filepath.Base(arts.PNG) != "2023-11-14-abc123.png" {
		t.Errorf("unexpected png name %q", arts.PNG)
	}
}

func TestRenderMissingOptimizerIsNonFatal(t *testing.T) {
	r := &Renderer{Dir: t.TempDir(), SVGOptimizer: "definitely-not-a-real-tool", PNGOptimizer: "also-not-real"}
	start := time.Unix(0, 0).UTC()
	samples := []series.Sample{{Time: start, Count: 1}}
	pk, _ := stats.FindPeak(samples, start)
	if _, err := r.Render(context.Background(), "vid", start, samples, pk); err != nil {
		t.Fatalf("Render should not fail when optimizers are missing: %v", err)
	}
}

func TestRenderEmptySeries(t *testing.T) {
	r := &Renderer{Dir: t.TempDir()}
	if _, err := r.Render(context.Background(), "vid", time.Unix(0, 0), nil, stats.Peak{}); err == nil {
		t.Error("expected error for empty series")
	}
}

// Command replot re-renders the peak plot for a broadcast from its existing
// sample log, for offline regeneration after chart tweaks. It prints the peak
// statistic and writes the SVG/PNG artifacts.
//
// Usage:
//
//	replot -log data/logs/VIDEOID.txt -id VIDEOID -start 2023-11-14T19:00:00+08:00 [-out data/plots]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SNH48Live/official-livestreams/chart"
	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/stats"
)

func main() {
	logPath := flag.String("log", "", "path to the sample log")
	videoID := flag.String("id", "", "broadcast video id")
	startStr := flag.String("start", "", "stream start (RFC3339); defaults to the first sample's timestamp")
	outDir := flag.String("out", "plots", "output directory for the artifacts")
	flag.Parse()

	if *logPath == "" || *videoID == "" {
		flag.Usage()
		os.Exit(2)
	}

	samples, err := series.ReadFile(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read log: %v\n", err)
		os.Exit(1)
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stderr, "log contains no samples")
		os.Exit(1)
	}

	start := samples[0].Time
	if *startStr != "" {
		t, err := time.Parse(time.RFC3339, *startStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
			os.Exit(2)
		}
		start = t
	}

	pk, err := stats.FindPeak(samples, start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "peak: %v\n", err)
		os.Exit(1)
	}

	r := &chart.Renderer{Dir: *outDir}
	arts, err := r.Render(context.Background(), *videoID, start, samples, pk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("samples: %d\n", len(samples))
	fmt.Printf("peak: %d viewers at +%dmin (%ds)\n", pk.Count, pk.OffsetMinutes(), pk.OffsetSeconds())
	fmt.Printf("svg: %s\npng: %s\n", arts.SVG, arts.PNG)
}

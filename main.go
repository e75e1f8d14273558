// Command official-livestreams watches a YouTube channel for live broadcasts.
// It:
//   - Loads configuration and initializes structured logging.
//   - Polls for a live broadcast and, while one is up, samples its concurrent
//     viewer count once per wall-clock minute into an append-only log.
//   - Runs the chat-recorder sidecar for the broadcast's duration.
//   - On stream end, renders the peak plot, correlates the stream against the
//     performance schedule, writes metadata + index entry, and triggers a
//     static-site rebuild.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/SNH48Live/official-livestreams/chart"
	"github.com/SNH48Live/official-livestreams/chatrec"
	"github.com/SNH48Live/official-livestreams/config"
	"github.com/SNH48Live/official-livestreams/monitor"
	"github.com/SNH48Live/official-livestreams/postprocess"
	"github.com/SNH48Live/official-livestreams/schedule"
	"github.com/SNH48Live/official-livestreams/series"
	"github.com/SNH48Live/official-livestreams/server"
	"github.com/SNH48Live/official-livestreams/telemetry"
	"github.com/SNH48Live/official-livestreams/youtubeapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		// unknown level -> keep info but note once using temporary logger
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		format = "text"
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateMonitorReady(); err != nil {
		slog.Error("monitor not configured", slog.Any("err", err))
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("create data dir failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("official-livestreams", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Data API client (API key or OAuth token file)
	api, err := youtubeapi.New(ctx, cfg)
	if err != nil {
		slog.Error("youtube client init failed", slog.Any("err", err))
		os.Exit(1)
	}
	if cfg.TokenFile != "" {
		youtubeapi.StartTokenRefresher(ctx, cfg, 10*time.Minute, 20*time.Minute)
	}

	post := &postprocess.Processor{
		API:    api,
		Events: &schedule.Client{URL: cfg.ScheduleURL},
		Charts: &chart.Renderer{
			Dir:          cfg.PlotDir(),
			SVGOptimizer: cfg.SVGOptimizerBin,
			PNGOptimizer: cfg.PNGOptimizerBin,
		},
		IndexPath:    cfg.IndexPath(),
		MetadataDir:  cfg.MetadataDir(),
		MinDuration:  cfg.MinDuration,
		SiteBuildBin: cfg.SiteBuildBin,
	}

	mon := &monitor.Monitor{
		API:            api,
		Channel:        cfg.ChannelID,
		Store:          series.NewStore(cfg.SeriesDir()),
		Chat:           monitor.WrapSupervisor(&chatrec.Supervisor{Bin: cfg.ChatRecorderBin, Grace: cfg.ChatStopGrace}),
		Post:           post,
		SearchInterval: cfg.SearchInterval,
	}

	// HTTP server (health/status/metrics)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, mon, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block in the monitor loop until shutdown signal
	mon.Run(ctx)
	slog.Info("shutting down")
}

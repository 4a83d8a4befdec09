package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/alerter"
	"github.com/darshan-rambhia/naspanel/internal/api"
	"github.com/darshan-rambhia/naspanel/internal/cache"
	"github.com/darshan-rambhia/naspanel/internal/config"
	"github.com/darshan-rambhia/naspanel/internal/display"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/notify"
	"github.com/darshan-rambhia/naspanel/internal/render"
	"github.com/darshan-rambhia/naspanel/internal/store"
	"github.com/darshan-rambhia/naspanel/internal/subscriber"
	"github.com/darshan-rambhia/naspanel/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// @title NAS Panel API
// @version 1.0
// @description Status panel for a NAS fed by MQTT telemetry
// @host localhost:8080
// @BasePath /

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// buildInfo returns version, commit, build time, and VCS details from the
// embedded Go build info. ldflags-injected values take priority; VCS info
// from debug.ReadBuildInfo fills in anything left as default.
func buildInfo() (ver, sha, built, dirty string) {
	ver = version
	sha = commit
	built = buildTime
	dirty = "clean"

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if sha == "none" {
				sha = s.Value
			}
		case "vcs.time":
			if built == "unknown" {
				built = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "dirty"
			}
		}
	}

	return
}

func main() {
	configPath := flag.String("config", "", "path to naspanel.yml config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	ver, sha, built, dirty := buildInfo()

	if *showVersion {
		fmt.Printf("naspanel %s\n  commit:    %s (%s)\n  built:     %s\n  go:        %s\n  platform:  %s/%s\n",
			ver, sha, dirty, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigFileNotFound) {
			fmt.Fprintf(os.Stderr, "error: %s\n\n", err)
			fmt.Fprintf(os.Stderr, "Copy the example config to get started:\n")
			fmt.Fprintf(os.Stderr, "  cp naspanel.example.yml %s\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "error: loading config (%s): %s\n", *configPath, err)
		}
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting naspanel",
		"version", ver,
		"commit", sha,
		"built", built,
		"dirty", dirty,
		"go", runtime.Version(),
		"listen", cfg.Listen,
	)

	// Initialize store
	st, err := store.New(cfg.DBPath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	c := cache.New()
	status := &subscriber.Status{}

	// The display loop reads the connection in effect; the subscriber
	// supervisor replaces it on every restart.
	var conn atomic.Pointer[model.ConnectionConfig]
	initial, err := st.LoadConnection()
	if err != nil {
		slog.Warn("loading connection settings", "error", err)
	}
	conn.Store(&initial)

	// Setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	// Start display loop
	frames, sinks := buildSinks(cfg.Display, os.Stdout)
	loop := display.NewLoop(render.New(time.Now()), c,
		func() model.ConnectionConfig { return *conn.Load() },
		cfg.RenderInterval.Duration, sinks...)
	g.Go(func() error { return loop.Run(ctx) })

	// Start subscriber supervisor
	restart := make(chan struct{}, 1)
	ingest := telemetry.NewIngestor(c)
	subOpts := subscriber.Options{
		RetryInterval: cfg.MQTTRetryInterval.Duration,
		Status:        status,
	}
	g.Go(func() error {
		return superviseSubscriber(ctx, st, &conn, ingest.Handle, subOpts, restart)
	})

	// Start pruner
	pruner := store.NewPruner(st, store.DefaultRetention())
	g.Go(func() error { return pruner.Run(ctx) })

	// Build notification providers
	var providers []notify.Provider
	for _, ncfg := range cfg.Notifications {
		switch ncfg.Type {
		case "ntfy":
			providers = append(providers, notify.NewNtfy(ncfg.URL, ncfg.Topic))
		case "webhook":
			method := ncfg.Method
			if method == "" {
				method = "POST"
			}
			providers = append(providers, notify.NewWebhook(ncfg.URL, method, ncfg.Headers))
		}
	}

	// Start alerter
	a := alerter.NewAlerter(c, st, providers, alertConfig(cfg.Alerts))
	g.Go(func() error { return a.Run(ctx) })

	// Start HTTP server
	server := api.NewServer(cfg.Listen, c, st, frames, status, api.Options{
		AdminUser: cfg.Admin.Username,
		AdminHash: cfg.Admin.PasswordHash,
		Restart: func() {
			select {
			case restart <- struct{}{}:
			default:
			}
		},
		RestartDelay: cfg.RestartDelay.Duration,
		StaleAfter:   cfg.StaleAfter.Duration,
	})
	g.Go(func() error { return server.Run(ctx) })

	slog.Info("all components started",
		"sinks", len(sinks),
		"notifications", len(providers),
		"auth", cfg.Admin.Enabled(),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "error", err)
	}

	slog.Info("naspanel stopped gracefully")
}

// buildSinks returns the frame buffer for the HTTP preview plus every sink
// the display config enables. All sinks use the renderer's panel size.
func buildSinks(dc config.DisplayConfig, out io.Writer) (*display.FrameBuffer, []display.Display) {
	frames := display.NewFrameBuffer()
	sinks := []display.Display{frames}
	if dc.Terminal {
		sinks = append(sinks, display.NewTerminal(out, render.Width, render.Height, true))
	}
	if dc.LogFrames {
		sinks = append(sinks, display.Logger{})
	}
	return frames, sinks
}

func setupLogging(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// alertConfig overlays the configured alert rules on the defaults.
func alertConfig(ac config.AlertsConfig) alerter.AlertConfig {
	cfg := alerter.DefaultAlertConfig()
	if ac.DiskFailed != nil {
		if ac.DiskFailed.Severity != "" {
			cfg.DiskFailed.Severity = ac.DiskFailed.Severity
		}
		if ac.DiskFailed.Cooldown.Duration > 0 {
			cfg.DiskFailed.Cooldown = ac.DiskFailed.Cooldown.Duration
		}
	}
	if ac.CPUHigh != nil {
		cfg.CPUHigh.Threshold = ac.CPUHigh.Threshold
		cfg.CPUHigh.Duration = ac.CPUHigh.Duration.Duration
		if ac.CPUHigh.Severity != "" {
			cfg.CPUHigh.Severity = ac.CPUHigh.Severity
		}
		if ac.CPUHigh.Cooldown.Duration > 0 {
			cfg.CPUHigh.Cooldown = ac.CPUHigh.Cooldown.Duration
		}
	}
	if ac.StorageFull != nil {
		cfg.StorageFull.Threshold = ac.StorageFull.Threshold
		if ac.StorageFull.Severity != "" {
			cfg.StorageFull.Severity = ac.StorageFull.Severity
		}
		if ac.StorageFull.Cooldown.Duration > 0 {
			cfg.StorageFull.Cooldown = ac.StorageFull.Cooldown.Duration
		}
	}
	if ac.TelemetryStale != nil {
		cfg.TelemetryStale.MaxAge = ac.TelemetryStale.MaxAge.Duration
		if ac.TelemetryStale.Severity != "" {
			cfg.TelemetryStale.Severity = ac.TelemetryStale.Severity
		}
		if ac.TelemetryStale.Cooldown.Duration > 0 {
			cfg.TelemetryStale.Cooldown = ac.TelemetryStale.Cooldown.Duration
		}
	}
	return cfg
}

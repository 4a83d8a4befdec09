// Command naspanel-publisher runs on the NAS and publishes host telemetry
// to the broker the panel subscribes to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/collector"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/publisher"
)

func main() {
	host := flag.String("host", "", "MQTT broker host")
	port := flag.Int("port", model.DefaultBrokerPort, "MQTT broker port")
	user := flag.String("user", "", "MQTT username")
	password := flag.String("password", "", "MQTT password")
	topic := flag.String("topic", model.DefaultTopic, "MQTT topic to publish to")
	interval := flag.Duration("interval", 5*time.Second, "publish interval")
	mounts := flag.String("mounts", "/", "comma-separated mount points, one per disk slot")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *interval <= 0 {
		fmt.Fprintln(os.Stderr, "error: -interval must be > 0")
		os.Exit(2)
	}

	pub, err := publisher.New(model.ConnectionConfig{
		BrokerHost: *host,
		BrokerPort: *port,
		Username:   *user,
		Password:   *password,
		Topic:      *topic,
	}, publisher.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := pub.Connect(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		slog.Error("connecting to broker", "error", err)
		os.Exit(1)
	}
	defer pub.Close()

	hc := collector.NewHostCollector(collector.NewSystem(), splitMounts(*mounts), *interval, pub.Publish)
	if err := collector.Run(ctx, hc); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "error", err)
	}
	slog.Info("publisher stopped")
}

func splitMounts(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

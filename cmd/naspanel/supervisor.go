package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/subscriber"
)

// connectionLoader reads the stored broker settings.
type connectionLoader interface {
	LoadConnection() (model.ConnectionConfig, error)
}

// superviseSubscriber runs one subscriber for the stored connection settings
// and replaces it each time restart fires. Without usable settings it waits
// for the next restart instead.
func superviseSubscriber(ctx context.Context, settings connectionLoader, conn *atomic.Pointer[model.ConnectionConfig],
	handler subscriber.Handler, opts subscriber.Options, restart <-chan struct{}) error {
	return supervise(ctx, settings, conn, restart, func(ctx context.Context, cfg model.ConnectionConfig) error {
		sub, err := subscriber.New(cfg, handler, opts)
		if err != nil {
			return err
		}
		return sub.Run(ctx)
	})
}

// runFunc runs one subscriber generation until ctx is cancelled.
type runFunc func(ctx context.Context, cfg model.ConnectionConfig) error

func supervise(ctx context.Context, settings connectionLoader, conn *atomic.Pointer[model.ConnectionConfig],
	restart <-chan struct{}, run runFunc) error {
	slog.Info("subscriber supervisor started")
	for {
		cfg, err := settings.LoadConnection()
		if err != nil {
			slog.Warn("loading connection settings", "error", err)
		}
		conn.Store(&cfg)

		genCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- run(genCtx, cfg) }()

		running := true
		stop := func() {
			cancel()
			if running {
				<-done
			}
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				stop()
				slog.Info("subscriber supervisor stopped")
				return ctx.Err()
			case <-restart:
				slog.Info("restarting subscriber with new settings")
				stop()
				break wait
			case err := <-done:
				// Not configured or exited early; wait for new settings.
				running = false
				done = nil
				if err != nil && !errors.Is(err, context.Canceled) {
					slog.Info("subscriber idle until settings change", "reason", err)
				}
			}
		}
	}
}

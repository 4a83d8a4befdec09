// Package display drives the render cadence and hands frames to output sinks.
package display

import (
	"context"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/cache"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/render"
)

// Display is an output sink for rendered frames. Draw must not retain the
// frame slice after returning.
type Display interface {
	Name() string
	Draw(ctx context.Context, frame model.Frame) error
}

// ConnectionFunc returns the broker settings currently in effect.
type ConnectionFunc func() model.ConnectionConfig

// Loop renders the cached state on a fixed cadence, whether or not new
// telemetry arrived since the previous tick.
type Loop struct {
	renderer *render.Renderer
	cache    *cache.Cache
	conn     ConnectionFunc
	sinks    []Display
	interval time.Duration
	now      func() time.Time

	mode    render.Mode
	started bool
}

// NewLoop creates a render loop writing to sinks.
func NewLoop(r *render.Renderer, c *cache.Cache, conn ConnectionFunc, interval time.Duration, sinks ...Display) *Loop {
	return &Loop{
		renderer: r,
		cache:    c,
		conn:     conn,
		sinks:    sinks,
		interval: interval,
		now:      time.Now,
	}
}

// Run renders once immediately and then on every tick until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	names := make([]string, 0, len(l.sinks))
	for _, s := range l.sinks {
		names = append(names, s.Name())
	}
	slog.Info("display loop started", "interval", l.interval, "sinks", names)

	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("display loop stopped")
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	state := l.cache.Current()
	conn := l.conn()

	mode := render.ModeFor(state)
	if !l.started || mode != l.mode {
		slog.Info("display mode", "mode", mode, "configured", conn.Configured())
		l.mode = mode
		l.started = true
	}

	frame := l.renderer.Render(state, conn, l.now())
	for _, s := range l.sinks {
		if err := s.Draw(ctx, frame); err != nil {
			slog.Error("drawing frame", "display", s.Name(), "error", err)
		}
	}
}

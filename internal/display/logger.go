package display

import (
	"context"
	"log/slog"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

// Logger debug-logs a one-line summary of every frame.
type Logger struct{}

func (Logger) Name() string { return "log" }

func (Logger) Draw(ctx context.Context, frame model.Frame) error {
	var texts, shapes int
	for _, in := range frame {
		if in.Op == model.OpDrawString {
			texts++
		} else {
			shapes++
		}
	}
	slog.DebugContext(ctx, "frame rendered", "instructions", len(frame), "texts", texts, "shapes", shapes)
	return nil
}

package display

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

// FrameBuffer keeps the most recent frame for the HTTP preview.
type FrameBuffer struct {
	mu      sync.RWMutex
	frame   model.Frame
	drawnAt time.Time
	frames  uint64
	now     func() time.Time
}

// NewFrameBuffer returns an empty frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{now: time.Now}
}

func (b *FrameBuffer) Name() string { return "framebuffer" }

// Draw stores a copy of the frame.
func (b *FrameBuffer) Draw(_ context.Context, frame model.Frame) error {
	cp := slices.Clone(frame)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = cp
	b.drawnAt = b.now()
	b.frames++
	return nil
}

// Latest returns a copy of the last frame and when it was drawn. Before the
// first draw the frame is nil and the time is zero.
func (b *FrameBuffer) Latest() (model.Frame, time.Time) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.frame), b.drawnAt
}

// Frames returns how many frames have been drawn.
func (b *FrameBuffer) Frames() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frames
}

package telemetry

import (
	"log/slog"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/cache"
)

// Ingestor decodes incoming messages and applies them to the cache.
// Handle must be called from a single goroutine: it reads the current
// snapshot and writes the next one without holding a lock in between.
type Ingestor struct {
	cache *cache.Cache
	now   func() time.Time
}

// NewIngestor returns an Ingestor writing to c.
func NewIngestor(c *cache.Cache) *Ingestor {
	return &Ingestor{cache: c, now: time.Now}
}

// Handle processes one message. Malformed messages are logged and dropped;
// the previous state stays in place.
func (i *Ingestor) Handle(topic string, payload []byte) {
	prev := i.cache.Current()
	next, err := Decode(payload, prev, i.now())
	if err != nil {
		i.cache.RecordRejected()
		slog.Warn("dropping telemetry message", "topic", topic, "bytes", len(payload), "error", err)
		return
	}

	i.cache.Apply(next)
	if !prev.Valid {
		slog.Info("telemetry received", "topic", topic, "hostname", next.Hostname, "ip", next.IPAddress)
		return
	}
	slog.Debug("telemetry updated", "topic", topic, "cpu", next.CPU.UsagePercent, "memory", next.Memory.UsagePercent)
}

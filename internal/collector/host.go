package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/telemetry"
)

// Mount usage thresholds for the per-slot disk status.
const (
	MountErrorPct   = 95
	MountWarningPct = 85
)

// Source reads raw host metrics.
type Source interface {
	CPUPercent(ctx context.Context) (float64, error)
	// Temperatures returns the hottest CPU package and memory module
	// sensors, 0 when none are present.
	Temperatures(ctx context.Context) (cpu, mem float64, err error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskUsage(ctx context.Context, path string) (total, used float64, err error)
	NetCounters(ctx context.Context) (sent, recv uint64, err error)
	Hostname(ctx context.Context) (string, error)
	PrimaryIP() string
}

// Sink receives each collected payload.
type Sink func(ctx context.Context, p telemetry.Payload) error

type netSample struct {
	sent, recv uint64
	at         time.Time
}

// HostCollector samples the local host and hands a telemetry payload to a
// sink. Each mount fills one disk slot.
type HostCollector struct {
	src      Source
	mounts   []string
	interval time.Duration
	sink     Sink
	pool     *WorkerPool
	now      func() time.Time

	mountTimeout time.Duration

	lastNet *netSample
}

// NewHostCollector creates a collector for up to model.MaxDisks mounts.
// Extra mounts are ignored.
func NewHostCollector(src Source, mounts []string, interval time.Duration, sink Sink) *HostCollector {
	if len(mounts) > model.MaxDisks {
		slog.Warn("too many mounts, ignoring the rest", "max", model.MaxDisks, "ignored", mounts[model.MaxDisks:])
		mounts = mounts[:model.MaxDisks]
	}
	return &HostCollector{
		src:      src,
		mounts:   mounts,
		interval: interval,
		sink:     sink,
		pool:     NewWorkerPool(2),
		now:      time.Now,

		mountTimeout: 5 * time.Second,
	}
}

func (h *HostCollector) Name() string            { return "host" }
func (h *HostCollector) Interval() time.Duration { return h.interval }

// Collect samples once and publishes the result.
func (h *HostCollector) Collect(ctx context.Context) error {
	p, err := h.Sample(ctx)
	if err != nil {
		return err
	}
	if err := h.sink(ctx, p); err != nil {
		return fmt.Errorf("publishing telemetry: %w", err)
	}
	return nil
}

// Sample builds one payload. Individual metric failures degrade to zero
// values; only a cancelled context fails the sample.
func (h *HostCollector) Sample(ctx context.Context) (telemetry.Payload, error) {
	var p telemetry.Payload

	hostname, err := h.src.Hostname(ctx)
	if err != nil {
		slog.Debug("reading hostname", "error", err)
	}
	p.Hostname = hostname
	p.IP = h.src.PrimaryIP()

	if p.CPU.Usage, err = h.src.CPUPercent(ctx); err != nil {
		slog.Debug("reading cpu usage", "error", err)
	}
	if p.Memory.Usage, err = h.src.MemoryPercent(ctx); err != nil {
		slog.Debug("reading memory usage", "error", err)
	}
	if p.CPU.Temperature, p.Memory.Temperature, err = h.src.Temperatures(ctx); err != nil {
		slog.Debug("reading temperatures", "error", err)
	}

	storage, err := h.sampleMounts(ctx)
	if err != nil {
		return telemetry.Payload{}, err
	}
	p.Storage = storage

	p.Network = h.sampleNetwork(ctx)
	return p, nil
}

type mountResult struct {
	total, used float64
	err         error
}

// sampleMounts reads mounts in the worker pool. A mount that fails or does
// not answer within the mount timeout is reported as an error slot.
func (h *HostCollector) sampleMounts(ctx context.Context) (telemetry.StoragePayload, error) {
	pctx, cancel := context.WithTimeout(ctx, h.mountTimeout)
	defer cancel()

	results := make([]chan mountResult, len(h.mounts))
	for i, m := range h.mounts {
		ch := make(chan mountResult, 1)
		results[i] = ch
		if err := h.pool.Submit(pctx, func() {
			total, used, err := h.src.DiskUsage(pctx, m)
			ch <- mountResult{total: total, used: used, err: err}
		}); err != nil {
			ch <- mountResult{err: err}
		}
	}

	var s telemetry.StoragePayload
	for i, m := range h.mounts {
		var r mountResult
		select {
		case r = <-results[i]:
		default:
			select {
			case r = <-results[i]:
			case <-pctx.Done():
				r.err = pctx.Err()
			}
		}

		d := telemetry.DiskPayload{ID: m, Status: MountStatus(r.total, r.used)}
		if r.err != nil {
			slog.Warn("reading mount usage", "mount", m, "error", r.err)
			d.Status = model.DiskError.String()
		} else {
			s.Capacity += r.total
			s.Used += r.used
		}
		s.Disks = append(s.Disks, d)
	}

	if err := ctx.Err(); err != nil {
		return telemetry.StoragePayload{}, fmt.Errorf("sampling mounts: %w", err)
	}
	return s, nil
}

// MountStatus maps mount fullness to a disk status tag.
func MountStatus(total, used float64) string {
	if total <= 0 {
		return "normal"
	}
	pct := used / total * 100
	switch {
	case pct >= MountErrorPct:
		return model.DiskError.String()
	case pct >= MountWarningPct:
		return model.DiskWarning.String()
	default:
		return "normal"
	}
}

// sampleNetwork returns throughput since the previous sample. The first
// sample, and any sample after a counter reset, reports zero.
func (h *HostCollector) sampleNetwork(ctx context.Context) telemetry.NetworkPayload {
	sent, recv, err := h.src.NetCounters(ctx)
	if err != nil {
		slog.Debug("reading network counters", "error", err)
		return telemetry.NetworkPayload{}
	}
	cur := &netSample{sent: sent, recv: recv, at: h.now()}
	prev := h.lastNet
	h.lastNet = cur

	if prev == nil {
		return telemetry.NetworkPayload{}
	}
	secs := cur.at.Sub(prev.at).Seconds()
	if secs <= 0 {
		return telemetry.NetworkPayload{}
	}
	return telemetry.NetworkPayload{
		Upload:   rate(prev.sent, cur.sent, secs),
		Download: rate(prev.recv, cur.recv, secs),
	}
}

func rate(prev, cur uint64, secs float64) float64 {
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / secs
}

// ErrNoData is returned by a Source that has nothing to report.
var ErrNoData = errors.New("no data")

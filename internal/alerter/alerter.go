// Package alerter evaluates alert rules against the cached NAS state.
package alerter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/cache"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/internal/notify"
	"github.com/darshan-rambhia/naspanel/internal/render"
	"github.com/darshan-rambhia/naspanel/internal/store"
	"github.com/darshan-rambhia/naspanel/templates"
)

// AlertConfig holds configuration for alert rules. A nil rule is disabled.
type AlertConfig struct {
	DiskFailed     *SimpleAlert
	CPUHigh        *ThresholdAlert
	StorageFull    *ThresholdAlert
	TelemetryStale *StaleAlert
}

// ThresholdAlert triggers when a value reaches a threshold.
type ThresholdAlert struct {
	Threshold float64
	Duration  time.Duration
	Severity  string
	Cooldown  time.Duration
}

// StaleAlert triggers when no telemetry arrived for MaxAge.
type StaleAlert struct {
	MaxAge   time.Duration
	Severity string
	Cooldown time.Duration
}

// SimpleAlert triggers on a boolean condition.
type SimpleAlert struct {
	Severity string
	Cooldown time.Duration
}

// DefaultAlertConfig returns sensible alert defaults.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		DiskFailed: &SimpleAlert{
			Severity: "critical", Cooldown: 6 * time.Hour,
		},
		CPUHigh: &ThresholdAlert{
			Threshold: 90, Duration: 5 * time.Minute, Severity: "warning", Cooldown: 1 * time.Hour,
		},
		StorageFull: &ThresholdAlert{
			Threshold: 90, Severity: "warning", Cooldown: 6 * time.Hour,
		},
		TelemetryStale: &StaleAlert{
			MaxAge: 5 * time.Minute, Severity: "warning", Cooldown: 30 * time.Minute,
		},
	}
}

// Alerter evaluates rules and sends notifications.
type Alerter struct {
	cache     *cache.Cache
	store     *store.Store
	providers []notify.Provider
	config    AlertConfig
	interval  time.Duration
	now       func() time.Time

	// Deduplication: maps alert key → last fired time
	lastFired map[string]time.Time

	// Track sustained conditions: maps alert key → first observed time
	sustained map[string]time.Time
}

// NewAlerter creates a new alerter.
func NewAlerter(c *cache.Cache, s *store.Store, providers []notify.Provider, cfg AlertConfig) *Alerter {
	return &Alerter{
		cache:     c,
		store:     s,
		providers: providers,
		config:    cfg,
		interval:  30 * time.Second,
		now:       time.Now,
		lastFired: make(map[string]time.Time),
		sustained: make(map[string]time.Time),
	}
}

// Run starts the alerter evaluation loop.
func (a *Alerter) Run(ctx context.Context) error {
	slog.Info("alerter started", "interval", a.interval, "providers", len(a.providers))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("alerter stopped")
			return ctx.Err()
		case <-ticker.C:
			a.evaluate(ctx)
		}
	}
}

func (a *Alerter) cleanup(now time.Time) {
	const maxAge = 6 * time.Hour
	for key, t := range a.lastFired {
		if now.Sub(t) > maxAge {
			delete(a.lastFired, key)
		}
	}
	for key, t := range a.sustained {
		if now.Sub(t) > maxAge {
			delete(a.sustained, key)
		}
	}
}

func (a *Alerter) evaluate(ctx context.Context) {
	state := a.cache.Current()
	now := a.now()

	a.cleanup(now)

	// Nothing to judge before the first message.
	if !state.Valid {
		return
	}
	host := state.Hostname

	// Stale data says nothing about the server's current health, so only the
	// staleness rule runs until telemetry resumes.
	if cfg := a.config.TelemetryStale; cfg != nil && a.cache.IsStale(now, cfg.MaxAge) {
		age := now.Sub(state.LastUpdate)
		a.fire(ctx, now, "telemetry_stale", cfg.Cooldown, model.Notification{
			AlertType: "telemetry_stale",
			Severity:  cfg.Severity,
			Title:     "Telemetry Stale",
			Message:   fmt.Sprintf("[%s] no telemetry for %s", host, age.Truncate(time.Second)),
			Host:      host,
			Subject:   "telemetry",
			Timestamp: now,
			Metadata:  map[string]string{"last_update": state.LastUpdate.UTC().Format(time.RFC3339)},
		})
		clear(a.sustained)
		return
	}

	// Disk slot alerts
	if cfg := a.config.DiskFailed; cfg != nil {
		for i, d := range state.Storage.Disks {
			label := templates.DiskLabel(i)
			switch d {
			case model.DiskError:
				a.fire(ctx, now, fmt.Sprintf("disk_failed:%d", i), cfg.Cooldown, model.Notification{
					AlertType: "disk_failed",
					Severity:  cfg.Severity,
					Title:     fmt.Sprintf("Disk Failed: %s", label),
					Message:   fmt.Sprintf("[%s] %s reports error", host, label),
					Host:      host,
					Subject:   label,
					Timestamp: now,
					Metadata:  map[string]string{"slot": fmt.Sprintf("%d", i+1)},
				})
			case model.DiskWarning:
				a.fire(ctx, now, fmt.Sprintf("disk_warning:%d", i), cfg.Cooldown, model.Notification{
					AlertType: "disk_warning",
					Severity:  "warning",
					Title:     fmt.Sprintf("Disk Warning: %s", label),
					Message:   fmt.Sprintf("[%s] %s reports warning", host, label),
					Host:      host,
					Subject:   label,
					Timestamp: now,
					Metadata:  map[string]string{"slot": fmt.Sprintf("%d", i+1)},
				})
			}
		}
	}

	// CPU alert
	if cfg := a.config.CPUHigh; cfg != nil {
		cpu := state.CPU.UsagePercent
		a.checkSustainedThreshold(ctx, now, "cpu_high", cpu, cfg, model.Notification{
			AlertType: "cpu_high",
			Severity:  cfg.Severity,
			Title:     "CPU High",
			Message:   fmt.Sprintf("[%s] CPU at %.0f%% for %s+", host, cpu, cfg.Duration),
			Host:      host,
			Subject:   "cpu",
			Timestamp: now,
			Metadata:  map[string]string{"value": fmt.Sprintf("%.0f", cpu)},
		})
	}

	// Storage capacity alert
	if cfg := a.config.StorageFull; cfg != nil && state.Storage.CapacityBytes > 0 {
		pct := render.CapacityPercent(state.Storage)
		if pct >= cfg.Threshold {
			a.fire(ctx, now, "storage_full", cfg.Cooldown, model.Notification{
				AlertType: "storage_full",
				Severity:  cfg.Severity,
				Title:     "Storage Almost Full",
				Message: fmt.Sprintf("[%s] storage at %.0f%% (%s of %s)", host, pct,
					templates.FormatBytes(state.Storage.UsedBytes), templates.FormatBytes(state.Storage.CapacityBytes)),
				Host:      host,
				Subject:   "storage",
				Timestamp: now,
				Metadata:  map[string]string{"usage_pct": fmt.Sprintf("%.0f", pct)},
			})
		}
	}
}

func (a *Alerter) checkSustainedThreshold(ctx context.Context, now time.Time, key string, value float64, cfg *ThresholdAlert, notif model.Notification) {
	if value >= cfg.Threshold {
		if first, ok := a.sustained[key]; ok {
			if now.Sub(first) >= cfg.Duration {
				a.fire(ctx, now, key, cfg.Cooldown, notif)
			}
		} else {
			a.sustained[key] = now
		}
	} else {
		delete(a.sustained, key)
	}
}

func (a *Alerter) fire(ctx context.Context, now time.Time, key string, cooldown time.Duration, notif model.Notification) {
	if last, ok := a.lastFired[key]; ok && now.Sub(last) < cooldown {
		return // still in cooldown
	}
	a.lastFired[key] = now

	if err := a.store.InsertAlert(now.Unix(), notif.AlertType, notif.Host, notif.Subject, notif.Message, notif.Severity); err != nil {
		slog.Error("storing alert", "type", notif.AlertType, "error", err)
	}

	if err := notify.SendAll(ctx, a.providers, notif); err != nil {
		slog.Error("sending notification", "alert", notif.AlertType, "error", err)
	}

	slog.Warn("alert fired",
		"type", notif.AlertType,
		"severity", notif.Severity,
		"host", notif.Host,
		"subject", notif.Subject,
		"title", notif.Title,
	)
}

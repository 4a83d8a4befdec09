// Package templates provides formatting helpers and templ components for the
// panel and its configuration page.
package templates

import (
	"fmt"
	"math"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
)

const (
	kib = 1024.0
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024
)

// FormatBytes formats a byte count into human-readable form.
func FormatBytes(b float64) string {
	switch {
	case b < kib:
		return fmt.Sprintf("%d B", int64(b))
	case b < mib:
		return fmt.Sprintf("%.1f KB", b/kib)
	case b < gib:
		return fmt.Sprintf("%.1f MB", b/mib)
	case b < tib:
		return fmt.Sprintf("%.1f GB", b/gib)
	default:
		return fmt.Sprintf("%.1f TB", b/tib)
	}
}

// FormatRate formats a byte-per-second throughput.
func FormatRate(bps float64) string {
	return FormatBytes(bps) + "/s"
}

// FormatPct formats a percentage truncated to an integer.
func FormatPct(v float64) string {
	return fmt.Sprintf("%d%%", truncInt(v))
}

// FormatTemp formats a temperature truncated to an integer.
func FormatTemp(c float64) string {
	return fmt.Sprintf("%d°C", truncInt(c))
}

// FormatClock renders process uptime as a 24h "H:MM" clock.
func FormatClock(uptime time.Duration) string {
	secs := int64(uptime / time.Second)
	if secs < 0 {
		secs = 0
	}
	hours := (secs / 3600) % 24
	minutes := (secs / 60) % 60
	return fmt.Sprintf("%d:%02d", hours, minutes)
}

// FormatAge formats how long ago t was, or "never" for the zero time.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	age := now.Sub(t)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(age.Hours()))
}

// UsagePct calculates used/total as a percentage, 0 when total is 0.
func UsagePct(used, total float64) float64 {
	if total == 0 {
		return 0
	}
	return used / total * 100
}

// DiskLabel returns the display label of a zero-based disk slot.
func DiskLabel(slot int) string {
	return fmt.Sprintf("HDD %d", slot+1)
}

// DiskStatusClass returns a CSS class for a disk slot.
func DiskStatusClass(s model.DiskStatus) string {
	switch s {
	case model.DiskError:
		return "status-critical"
	case model.DiskWarning:
		return "status-warning"
	default:
		return "status-ok"
	}
}

// truncInt converts toward zero, mapping NaN and infinities to 0.
func truncInt(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(v)
}

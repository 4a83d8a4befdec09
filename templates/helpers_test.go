package templates

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0 B"},
		{"bytes", 500, "500 B"},
		{"just below KB", 1023, "1023 B"},
		{"fractional bytes truncate", 1023.9, "1023 B"},
		{"one KB", 1024, "1.0 KB"},
		{"kilobytes", 1536, "1.5 KB"},
		{"one MB", 1048576, "1.0 MB"},
		{"megabytes", 10_485_760, "10.0 MB"},
		{"gigabytes", 8_000_000_000, "7.5 GB"},
		{"terabytes", 4_000_000_000_000, "3.6 TB"},
		{"petabytes stay TB", 2 * 1024 * tib, "2048.0 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBytes(tt.input))
		})
	}
}

func FuzzFormatBytes(f *testing.F) {
	for _, seed := range []float64{0, 1, 1023, 1024, 1536, 1048576, 1e12, 1e18} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, b float64) {
		if b < 0 || math.IsNaN(b) || math.IsInf(b, 0) {
			t.Skip()
		}
		s := FormatBytes(b)
		ok := strings.HasSuffix(s, " B") || strings.HasSuffix(s, " KB") ||
			strings.HasSuffix(s, " MB") || strings.HasSuffix(s, " GB") || strings.HasSuffix(s, " TB")
		if !ok {
			t.Fatalf("FormatBytes(%v) = %q has no unit", b, s)
		}
	})
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatRate(0))
	assert.Equal(t, "2.0 MB/s", FormatRate(2*1024*1024))
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "42%", FormatPct(42.9))
	assert.Equal(t, "0%", FormatPct(0))
	assert.Equal(t, "100%", FormatPct(100.0))
	assert.Equal(t, "0%", FormatPct(math.NaN()))
}

func TestFormatTemp(t *testing.T) {
	assert.Equal(t, "45°C", FormatTemp(45.7))
	assert.Equal(t, "0°C", FormatTemp(0))
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name     string
		uptime   time.Duration
		expected string
	}{
		{"boot", 0, "0:00"},
		{"minutes pad", 5 * time.Minute, "0:05"},
		{"hours", 3*time.Hour + 42*time.Minute + 59*time.Second, "3:42"},
		{"wraps at 24h", 25*time.Hour + 1*time.Minute, "1:01"},
		{"negative clamps", -time.Minute, "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatClock(tt.uptime))
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", FormatAge(time.Time{}, now))
	assert.Equal(t, "30s ago", FormatAge(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", FormatAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", FormatAge(now.Add(-3*time.Hour), now))
}

func TestUsagePct(t *testing.T) {
	assert.InDelta(t, 50.0, UsagePct(8_000_000_000, 16_000_000_000), 0.01)
	assert.InDelta(t, 0.0, UsagePct(0, 16_000_000_000), 0.01)
	assert.InDelta(t, 0.0, UsagePct(100, 0), 0.01) // divide by zero guard
}

func TestDiskLabelAndClass(t *testing.T) {
	assert.Equal(t, "HDD 1", DiskLabel(0))
	assert.Equal(t, "HDD 6", DiskLabel(5))
	assert.Equal(t, "status-ok", DiskStatusClass(model.DiskHealthy))
	assert.Equal(t, "status-warning", DiskStatusClass(model.DiskWarning))
	assert.Equal(t, "status-critical", DiskStatusClass(model.DiskError))
}

func TestConfigPage_EscapesValues(t *testing.T) {
	conn := model.DefaultConnectionConfig()
	conn.BrokerHost = `"><script>alert(1)</script>`

	var buf bytes.Buffer
	err := ConfigPage(ConfigPageData{Conn: conn}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "NAS Panel Configuration")
	assert.Contains(t, html, `value="nas/panel/data"`)
	assert.Contains(t, html, `value="1883"`)
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "Waiting for data...")
}

func TestConfigPage_ShowsState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := model.NasState{Hostname: "nas01", IPAddress: "10.0.0.5", LastUpdate: now.Add(-10 * time.Second), Valid: true}
	state.Storage.Disks[2] = model.DiskError

	var buf bytes.Buffer
	require.NoError(t, ConfigPage(ConfigPageData{Conn: model.DefaultConnectionConfig(), State: state, Now: now}).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "nas01 (10.0.0.5), updated 10s ago")
	assert.Contains(t, html, `<span class="status-critical">HDD 3: error</span>`)
	assert.NotContains(t, html, "Waiting for data...")
}

func TestPanelSVG(t *testing.T) {
	frame := model.Frame{
		{Op: model.OpFillRect, X: 0, Y: 0, W: 240, H: 320, Color: model.ColorBackground},
		{Op: model.OpDrawRect, X: 30, Y: 135, W: 180, H: 8, Color: model.ColorTextSecondary},
		{Op: model.OpFillCircle, X: 80, Y: 195, R: 3, Color: model.ColorDanger},
		{Op: model.OpDrawString, X: 10, Y: 10, Color: model.ColorTextPrimary, Text: "a<b", Size: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, PanelSVG(frame, 240, 320).Render(context.Background(), &buf))

	svg := buf.String()
	assert.True(t, strings.HasPrefix(svg, "<svg "))
	assert.Contains(t, svg, `<rect x="0" y="0" width="240" height="320" fill="#000000"/>`)
	assert.Contains(t, svg, `fill="none" stroke="#D1D5DB"`)
	assert.Contains(t, svg, `<circle cx="80" cy="195" r="3" fill="#EF4444"/>`)
	assert.Contains(t, svg, `<text x="10" y="26" font-size="16" fill="#FFFFFF">a&lt;b</text>`)
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

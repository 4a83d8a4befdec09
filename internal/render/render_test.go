package render

import (
	"math"
	"testing"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		pct  float64
		want Severity
	}{
		{0, SeveritySuccess},
		{59.9, SeveritySuccess},
		{60, SeveritySuccess},
		{60.01, SeverityWarning},
		{79.9, SeverityWarning},
		{80, SeverityWarning},
		{80.01, SeverityDanger},
		{100, SeverityDanger},
		{150, SeverityDanger},
		{-5, SeveritySuccess},
	}
	for _, tt := range tests {
		got := Classify(tt.pct)
		assert.Equal(t, tt.want, got.Severity, "pct=%v", tt.pct)
	}
}

func TestClassify_Colors(t *testing.T) {
	assert.Equal(t, model.ColorSuccess, Classify(10).Color)
	assert.Equal(t, model.ColorWarning, Classify(70).Color)
	assert.Equal(t, model.ColorDanger, Classify(90).Color)
	assert.Equal(t, "danger", Classify(90).Severity.String())
}

func TestDiskColor(t *testing.T) {
	assert.Equal(t, model.ColorSuccess, DiskColor(model.DiskHealthy))
	assert.Equal(t, model.ColorWarning, DiskColor(model.DiskWarning))
	assert.Equal(t, model.ColorDanger, DiskColor(model.DiskError))
}

func TestDiskCell(t *testing.T) {
	tests := []struct {
		idx  int
		x, y int
	}{
		{0, 30, 190},
		{1, 120, 190},
		{2, 30, 215},
		{3, 120, 215},
		{4, 30, 240},
		{5, 120, 240},
	}
	for _, tt := range tests {
		x, y := DiskCell(tt.idx)
		assert.Equal(t, tt.x, x, "slot %d x", tt.idx)
		assert.Equal(t, tt.y, y, "slot %d y", tt.idx)
	}
}

func TestCapacityPercent(t *testing.T) {
	assert.Zero(t, CapacityPercent(model.StorageStats{}))
	assert.Zero(t, CapacityPercent(model.StorageStats{UsedBytes: 10}))
	assert.InDelta(t, 62.5, CapacityPercent(model.StorageStats{CapacityBytes: 8e12, UsedBytes: 5e12}), 1e-9)
	assert.Zero(t, CapacityPercent(model.StorageStats{CapacityBytes: math.NaN(), UsedBytes: 1}))
}

func TestBarFill(t *testing.T) {
	assert.Equal(t, 0, BarFill(180, 0))
	assert.Equal(t, 0, BarFill(180, -10))
	assert.Equal(t, 90, BarFill(180, 50))
	assert.Equal(t, 76, BarFill(180, 42.5))
	assert.Equal(t, 180, BarFill(180, 100))
	assert.Equal(t, 180, BarFill(180, 250))
	assert.Equal(t, 0, BarFill(180, math.NaN()))
}

func texts(f model.Frame) []string {
	var out []string
	for _, in := range f {
		if in.Op == model.OpDrawString {
			out = append(out, in.Text)
		}
	}
	return out
}

func find(t *testing.T, f model.Frame, text string) model.Instruction {
	t.Helper()
	for _, in := range f {
		if in.Op == model.OpDrawString && in.Text == text {
			return in
		}
	}
	require.Failf(t, "text not found", "%q", text)
	return model.Instruction{}
}

func TestRender_AwaitingData(t *testing.T) {
	r := New(time.Unix(0, 0))

	unconfigured := r.Render(model.NasState{}, model.DefaultConnectionConfig(), time.Unix(10, 0))
	require.NotEmpty(t, unconfigured)
	assert.Equal(t, model.Instruction{Op: model.OpFillRect, W: Width, H: Height, Color: model.ColorBackground}, unconfigured[0])
	assert.Equal(t, []string{"Waiting for data...", "Please configure MQTT", "via web interface"}, texts(unconfigured))

	conn := model.DefaultConnectionConfig()
	conn.BrokerHost = "broker.lan"
	configured := r.Render(model.NasState{}, conn, time.Unix(10, 0))
	assert.Equal(t, []string{"Waiting for data..."}, texts(configured))
	w := find(t, configured, "Waiting for data...")
	assert.Equal(t, 60, w.X)
	assert.Equal(t, 150, w.Y)
	assert.Equal(t, model.ColorTextSecondary, w.Color)
}

func activeState() model.NasState {
	s := model.NasState{
		Hostname:  "nas01",
		IPAddress: "192.168.1.20",
		CPU:       model.CPUStats{UsagePercent: 42.5, TemperatureC: 51.9},
		Memory:    model.MemoryStats{UsagePercent: 85, TemperatureC: 38},
		Storage: model.StorageStats{
			CapacityBytes: 8 * 1024 * 1024 * 1024 * 1024,
			UsedBytes:     5 * 1024 * 1024 * 1024 * 1024,
		},
		Network: model.NetworkStats{UploadBytesPerSec: 1536, DownloadBytesPerSec: 1048576},
		Valid:   true,
	}
	s.Storage.Disks[1] = model.DiskWarning
	s.Storage.Disks[3] = model.DiskError
	return s
}

func TestRender_PanelActive(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := New(start)
	now := start.Add(25*time.Hour + 7*time.Minute + 30*time.Second)

	f := r.Render(activeState(), model.ConnectionConfig{}, now)

	assert.Equal(t, []string{
		"NAS Monitor", "nas01", "1:07", "192.168.1.20",
		"62%", "Capacity", "8.0 TB", "/ 5.0 TB",
		"CPU", "42%", "51°C",
		"RAM", "85%", "38°C",
		"HDD 1", "HDD 2", "HDD 3", "HDD 4", "HDD 5", "HDD 6",
		"↑ 1.5 KB/s", "↓ 1.0 MB/s",
	}, texts(f))

	assert.Equal(t, model.ColorBackground, f[0].Color)
	assert.Equal(t, model.Instruction{Op: model.OpFillRect, W: Width, H: titleBarHeight, Color: model.ColorPrimary}, f[1])

	pct := find(t, f, "62%")
	assert.Equal(t, 2, pct.Size)
	assert.Equal(t, 30, pct.X)
	assert.Equal(t, 50, pct.Y)

	clock := find(t, f, "1:07")
	assert.Equal(t, 180, clock.X)
	assert.Equal(t, model.ColorTextSecondary, clock.Color)
}

func TestRender_GaugeBars(t *testing.T) {
	r := New(time.Unix(0, 0))
	f := r.Render(activeState(), model.ConnectionConfig{}, time.Unix(0, 0))

	var bars []model.Instruction
	for _, in := range f {
		if in.Op == model.OpFillRect && in.H == gaugeBarHeight && in.Color != model.ColorCardBG {
			bars = append(bars, in)
		}
	}
	require.Len(t, bars, 2)
	assert.Equal(t, model.Instruction{Op: model.OpFillRect, X: 30, Y: 135, W: 76, H: 8, Color: model.ColorSuccess}, bars[0])
	assert.Equal(t, model.Instruction{Op: model.OpFillRect, X: 30, Y: 165, W: 153, H: 8, Color: model.ColorDanger}, bars[1])
}

func TestRender_DiskDots(t *testing.T) {
	r := New(time.Unix(0, 0))
	f := r.Render(activeState(), model.ConnectionConfig{}, time.Unix(0, 0))

	var dots []model.Instruction
	for _, in := range f {
		if in.Op == model.OpFillCircle {
			dots = append(dots, in)
		}
	}
	require.Len(t, dots, model.MaxDisks)
	assert.Equal(t, model.Instruction{Op: model.OpFillCircle, X: 80, Y: 195, R: 3, Color: model.ColorSuccess}, dots[0])
	assert.Equal(t, model.ColorWarning, dots[1].Color)
	assert.Equal(t, model.Instruction{Op: model.OpFillCircle, X: 170, Y: 220, R: 3, Color: model.ColorDanger}, dots[3])
}

func TestRender_ZeroCapacity(t *testing.T) {
	s := activeState()
	s.Storage.CapacityBytes = 0
	s.Storage.UsedBytes = 0

	f := New(time.Unix(0, 0)).Render(s, model.ConnectionConfig{}, time.Unix(0, 0))
	find(t, f, "0%")
	find(t, f, "0 B")
}

func TestRender_Idempotent(t *testing.T) {
	r := New(time.Unix(0, 0))
	now := time.Unix(3600, 0)
	s := activeState()
	conn := model.DefaultConnectionConfig()

	assert.Equal(t, r.Render(s, conn, now), r.Render(s, conn, now))
	assert.Equal(t, r.Render(model.NasState{}, conn, now), r.Render(model.NasState{}, conn, now))
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeAwaitingData, ModeFor(model.NasState{}))
	assert.Equal(t, ModePanelActive, ModeFor(model.NasState{Valid: true}))
	assert.Equal(t, "panel_active", ModePanelActive.String())
}

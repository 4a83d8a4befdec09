// Package render turns the NAS state into drawing instructions for the panel.
package render

import (
	"math"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/darshan-rambhia/naspanel/templates"
)

// Panel geometry, portrait.
const (
	Width  = 240
	Height = 320
)

// Mode is the display mode derived from the state.
type Mode int

const (
	ModeAwaitingData Mode = iota
	ModePanelActive
)

func (m Mode) String() string {
	if m == ModePanelActive {
		return "panel_active"
	}
	return "awaiting_data"
}

// MarshalText renders the mode as its string tag.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ModeFor returns the mode a state is drawn in. The switch to PanelActive
// is one-way because the cache never stores an invalid state once valid.
func ModeFor(s model.NasState) Mode {
	if s.Valid {
		return ModePanelActive
	}
	return ModeAwaitingData
}

// Layout constants.
const (
	titleBarHeight = 40
	capacityY      = 50
	cpuY           = 120
	ramY           = 150
	gaugeX         = 30
	gaugeBarOffset = 15
	gaugeBarWidth  = 180
	gaugeBarHeight = 8
	diskGridX      = 30
	diskGridY      = 190
	diskColWidth   = 90
	diskRowHeight  = 25
	diskDotOffsetX = 50
	diskDotOffsetY = 5
	diskDotRadius  = 3
	networkY       = 290
)

// Renderer produces frames. The clock shown in the title bar is the uptime
// measured from the renderer's start, not wall-clock time.
type Renderer struct {
	start time.Time
}

// New returns a Renderer whose uptime clock starts at start.
func New(start time.Time) *Renderer {
	return &Renderer{start: start}
}

// Start returns the reference time of the uptime clock.
func (r *Renderer) Start() time.Time {
	return r.start
}

// Render builds the full instruction list for one refresh. It has no side
// effects: the same inputs always give the same frame.
func (r *Renderer) Render(state model.NasState, conn model.ConnectionConfig, now time.Time) model.Frame {
	if ModeFor(state) == ModeAwaitingData {
		return awaitingFrame(conn)
	}
	return r.panelFrame(state, now)
}

func awaitingFrame(conn model.ConnectionConfig) model.Frame {
	f := frameBuilder{}
	f.fillRect(0, 0, Width, Height, model.ColorBackground)
	f.text("Waiting for data...", 60, 150, model.ColorTextSecondary, 1)
	if !conn.Configured() {
		f.text("Please configure MQTT", 40, 170, model.ColorTextSecondary, 1)
		f.text("via web interface", 60, 190, model.ColorTextSecondary, 1)
	}
	return f.frame
}

func (r *Renderer) panelFrame(s model.NasState, now time.Time) model.Frame {
	f := frameBuilder{frame: make(model.Frame, 0, 48)}
	f.fillRect(0, 0, Width, Height, model.ColorBackground)

	// Title bar.
	f.fillRect(0, 0, Width, titleBarHeight, model.ColorPrimary)
	f.text("NAS Monitor", 10, 10, model.ColorTextPrimary, 1)
	f.text(s.Hostname, 10, 25, model.ColorTextPrimary, 1)
	f.text(templates.FormatClock(now.Sub(r.start)), 180, 10, model.ColorTextSecondary, 1)
	f.text(s.IPAddress, 140, 25, model.ColorTextSecondary, 1)

	// Capacity.
	f.text(templates.FormatPct(CapacityPercent(s.Storage)), gaugeX, capacityY, model.ColorTextPrimary, 2)
	f.text("Capacity", gaugeX, capacityY+25, model.ColorTextPrimary, 1)
	f.text(templates.FormatBytes(s.Storage.CapacityBytes), gaugeX, capacityY+40, model.ColorTextPrimary, 1)
	f.text("/ "+templates.FormatBytes(s.Storage.UsedBytes), gaugeX, capacityY+55, model.ColorTextPrimary, 1)

	f.gauge("CPU", cpuY, s.CPU.UsagePercent, s.CPU.TemperatureC)
	f.gauge("RAM", ramY, s.Memory.UsagePercent, s.Memory.TemperatureC)

	for i, st := range s.Storage.Disks {
		x, y := DiskCell(i)
		f.text(templates.DiskLabel(i), x, y, model.ColorTextPrimary, 1)
		f.fillCircle(x+diskDotOffsetX, y+diskDotOffsetY, diskDotRadius, DiskColor(st))
	}

	f.text("↑ "+templates.FormatRate(s.Network.UploadBytesPerSec), 30, networkY, model.ColorTextPrimary, 1)
	f.text("↓ "+templates.FormatRate(s.Network.DownloadBytesPerSec), 130, networkY, model.ColorTextPrimary, 1)

	return f.frame
}

// CapacityPercent returns used/capacity as a percentage, 0 when the
// capacity is zero or the ratio is not a number.
func CapacityPercent(s model.StorageStats) float64 {
	pct := templates.UsagePct(s.UsedBytes, s.CapacityBytes)
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct
}

// DiskCell returns the top-left corner of a disk slot in the 2-column grid.
func DiskCell(i int) (x, y int) {
	col, row := i%2, i/2
	return diskGridX + col*diskColWidth, diskGridY + row*diskRowHeight
}

// BarFill returns the filled width of a progress bar of width w.
func BarFill(w int, pct float64) int {
	if math.IsNaN(pct) || pct <= 0 {
		return 0
	}
	fill := int(float64(w) * pct / 100)
	return min(fill, w)
}

type frameBuilder struct {
	frame model.Frame
}

func (b *frameBuilder) fillRect(x, y, w, h int, c model.Color) {
	b.frame = append(b.frame, model.Instruction{Op: model.OpFillRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (b *frameBuilder) drawRect(x, y, w, h int, c model.Color) {
	b.frame = append(b.frame, model.Instruction{Op: model.OpDrawRect, X: x, Y: y, W: w, H: h, Color: c})
}

func (b *frameBuilder) fillCircle(x, y, r int, c model.Color) {
	b.frame = append(b.frame, model.Instruction{Op: model.OpFillCircle, X: x, Y: y, R: r, Color: c})
}

func (b *frameBuilder) text(s string, x, y int, c model.Color, size int) {
	b.frame = append(b.frame, model.Instruction{Op: model.OpDrawString, X: x, Y: y, Color: c, Text: s, Size: size})
}

// gauge draws a labelled usage bar with its percentage and temperature.
func (b *frameBuilder) gauge(label string, y int, pct, tempC float64) {
	b.text(label, gaugeX, y, model.ColorTextPrimary, 1)
	b.text(templates.FormatPct(pct), 180, y, model.ColorTextPrimary, 1)
	b.text(templates.FormatTemp(tempC), 210, y, model.ColorTextPrimary, 1)

	barY := y + gaugeBarOffset
	b.fillRect(gaugeX, barY, gaugeBarWidth, gaugeBarHeight, model.ColorCardBG)
	b.fillRect(gaugeX, barY, BarFill(gaugeBarWidth, pct), gaugeBarHeight, Classify(pct).Color)
	b.drawRect(gaugeX, barY, gaugeBarWidth, gaugeBarHeight, model.ColorTextSecondary)
}

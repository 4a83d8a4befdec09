package display

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/darshan-rambhia/naspanel/internal/model"
	"github.com/muesli/termenv"
)

// Character cell size in panel pixels.
const (
	cellWidth  = 6
	cellHeight = 16
)

// Terminal draws frames as colored character grids. Each cell stands for a
// 6x16 pixel block of the panel, so a 240x320 panel becomes 40x20 cells.
type Terminal struct {
	w      io.Writer
	out    *termenv.Output
	r      *lipgloss.Renderer
	cols   int
	rows   int
	redraw bool
}

// NewTerminal returns a terminal sink for a panel of the given pixel size.
// When redraw is set, every frame clears the screen first.
func NewTerminal(w io.Writer, width, height int, redraw bool) *Terminal {
	return &Terminal{
		w:      w,
		out:    termenv.NewOutput(w),
		r:      lipgloss.NewRenderer(w),
		cols:   max(width/cellWidth, 1),
		rows:   max(height/cellHeight, 1),
		redraw: redraw,
	}
}

func (t *Terminal) Name() string { return "terminal" }

type cell struct {
	ch rune
	fg model.Color
	bg model.Color
}

// Draw rasterizes the frame into the grid and writes it in one call.
func (t *Terminal) Draw(_ context.Context, frame model.Frame) error {
	grid := t.rasterize(frame)

	var buf bytes.Buffer
	for _, row := range grid {
		t.writeRow(&buf, row)
		buf.WriteByte('\n')
	}

	if t.redraw {
		t.out.ClearScreen()
	}
	if _, err := t.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (t *Terminal) rasterize(frame model.Frame) [][]cell {
	grid := make([][]cell, t.rows)
	for i := range grid {
		grid[i] = make([]cell, t.cols)
		for j := range grid[i] {
			grid[i][j] = cell{ch: ' ', fg: model.ColorTextPrimary, bg: model.ColorBackground}
		}
	}

	for _, in := range frame {
		switch in.Op {
		case model.OpFillRect:
			t.fill(grid, in)
		case model.OpDrawRect:
			t.outline(grid, in)
		case model.OpFillCircle:
			row, col := in.Y/cellHeight, in.X/cellWidth
			if t.inside(row, col) {
				grid[row][col].ch = '●'
				grid[row][col].fg = in.Color
			}
		case model.OpDrawString:
			row, col := in.Y/cellHeight, in.X/cellWidth
			if row < 0 || row >= t.rows {
				continue
			}
			for _, ch := range in.Text {
				if col >= t.cols {
					break
				}
				if col >= 0 {
					grid[row][col].ch = ch
					grid[row][col].fg = in.Color
				}
				col++
			}
		}
	}
	return grid
}

// fill paints cell backgrounds. A rectangle thinner than a cell, such as a
// progress bar, is drawn as a line of glyphs instead so it stays visible
// without color.
func (t *Terminal) fill(grid [][]cell, in model.Instruction) {
	if in.W <= 0 || in.H <= 0 {
		return
	}
	r0, r1 := in.Y/cellHeight, (in.Y+in.H-1)/cellHeight
	c0, c1 := in.X/cellWidth, (in.X+in.W-1)/cellWidth
	thin := in.H < cellHeight
	for r := max(r0, 0); r <= min(r1, t.rows-1); r++ {
		for c := max(c0, 0); c <= min(c1, t.cols-1); c++ {
			if thin {
				grid[r][c].ch = barGlyph(in.Color)
				grid[r][c].fg = in.Color
				continue
			}
			grid[r][c] = cell{ch: ' ', fg: grid[r][c].fg, bg: in.Color}
		}
	}
}

func barGlyph(c model.Color) rune {
	if c == model.ColorCardBG {
		return '░'
	}
	return '█'
}

// outline draws rectangle edges. Single-row rectangles get bracket ends.
func (t *Terminal) outline(grid [][]cell, in model.Instruction) {
	if in.W <= 0 || in.H <= 0 {
		return
	}
	r0, r1 := in.Y/cellHeight, (in.Y+in.H-1)/cellHeight
	c0, c1 := in.X/cellWidth, (in.X+in.W-1)/cellWidth

	set := func(r, c int, ch rune) {
		if t.inside(r, c) {
			grid[r][c].ch = ch
			grid[r][c].fg = in.Color
		}
	}

	if r0 == r1 {
		set(r0, c0-1, '[')
		set(r0, c1+1, ']')
		return
	}
	for c := c0 + 1; c < c1; c++ {
		set(r0, c, '─')
		set(r1, c, '─')
	}
	for r := r0 + 1; r < r1; r++ {
		set(r, c0, '│')
		set(r, c1, '│')
	}
	set(r0, c0, '┌')
	set(r0, c1, '┐')
	set(r1, c0, '└')
	set(r1, c1, '┘')
}

func (t *Terminal) inside(row, col int) bool {
	return row >= 0 && row < t.rows && col >= 0 && col < t.cols
}

// writeRow emits runs of identically styled cells as single styled strings.
func (t *Terminal) writeRow(buf *bytes.Buffer, row []cell) {
	var run strings.Builder
	start := 0
	flush := func(end int) {
		if run.Len() == 0 {
			return
		}
		style := t.r.NewStyle().
			Foreground(lipgloss.Color(row[start].fg.Hex())).
			Background(lipgloss.Color(row[start].bg.Hex()))
		buf.WriteString(style.Render(run.String()))
		run.Reset()
		start = end
	}
	for i, c := range row {
		if i > start && (c.fg != row[start].fg || c.bg != row[start].bg) {
			flush(i)
		}
		run.WriteRune(c.ch)
	}
	flush(len(row))
}

package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/darshan-rambhia/naspanel/internal/model"
)

// textSizePx approximates the panel font: size 1 is an 8px cell.
const textSizePx = 8

// PanelSVG draws a frame as an SVG document the size of the panel.
func PanelSVG(frame model.Frame, width, height int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="monospace">`+"\n",
			width, height, width, height)
		for _, in := range frame {
			fill := in.Color.Hex()
			switch in.Op {
			case model.OpFillRect:
				ew.printf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
					in.X, in.Y, in.W, in.H, fill)
			case model.OpDrawRect:
				ew.printf(`<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="%s"/>`+"\n",
					in.X, in.Y, in.W, in.H, fill)
			case model.OpFillCircle:
				ew.printf(`<circle cx="%d" cy="%d" r="%d" fill="%s"/>`+"\n",
					in.X, in.Y, in.R, fill)
			case model.OpDrawString:
				size := max(in.Size, 1) * textSizePx
				// Panel text is anchored at its top-left; SVG anchors at the baseline.
				ew.printf(`<text x="%d" y="%d" font-size="%d" fill="%s">%s</text>`+"\n",
					in.X, in.Y+size, size, fill, templ.EscapeString(in.Text))
			}
		}
		ew.write("</svg>\n")
		return ew.err
	})
}

package model

import (
	"fmt"
	"image/color"
)

// Op is a drawing primitive understood by every display.
type Op string

const (
	OpFillRect   Op = "fill_rect"
	OpDrawRect   Op = "draw_rect"
	OpDrawString Op = "draw_string"
	OpFillCircle Op = "fill_circle"
)

// Instruction is one drawing operation. Coordinates are panel pixels with the
// origin at the top-left corner. W/H apply to rectangles, R to circles, Text
// and Size to strings. Font metrics belong to the display.
type Instruction struct {
	Op    Op     `json:"op"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w,omitempty"`
	H     int    `json:"h,omitempty"`
	R     int    `json:"r,omitempty"`
	Color Color  `json:"color"`
	Text  string `json:"text,omitempty"`
	Size  int    `json:"size,omitempty"`
}

// Frame is a complete, ordered set of instructions for one refresh.
type Frame []Instruction

// Color is a palette token. Displays resolve it to real pixels.
type Color string

const (
	ColorBackground    Color = "background"
	ColorPrimary       Color = "primary"
	ColorSecondary     Color = "secondary"
	ColorSuccess       Color = "success"
	ColorWarning       Color = "warning"
	ColorDanger        Color = "danger"
	ColorTextPrimary   Color = "text_primary"
	ColorTextSecondary Color = "text_secondary"
	ColorCardBG        Color = "card_bg"
)

var palette = map[Color]color.RGBA{
	ColorBackground:    {R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	ColorPrimary:       {R: 0x1E, G: 0x3A, B: 0x8A, A: 0xFF},
	ColorSecondary:     {R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	ColorSuccess:       {R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
	ColorWarning:       {R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	ColorDanger:        {R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
	ColorTextPrimary:   {R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	ColorTextSecondary: {R: 0xD1, G: 0xD5, B: 0xDB, A: 0xFF},
	ColorCardBG:        {R: 0x1F, G: 0x29, B: 0x37, A: 0xFF},
}

// RGBA resolves the token. Unknown tokens resolve to white.
func (c Color) RGBA() color.RGBA {
	if v, ok := palette[c]; ok {
		return v
	}
	return color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
}

// Hex returns the color as "#RRGGBB".
func (c Color) Hex() string {
	v := c.RGBA()
	return fmt.Sprintf("#%02X%02X%02X", v.R, v.G, v.B)
}

// RGB565 packs the color for 16-bit TFT controllers.
func (c Color) RGB565() uint16 {
	v := c.RGBA()
	return uint16(v.R>>3)<<11 | uint16(v.G>>2)<<5 | uint16(v.B>>3)
}

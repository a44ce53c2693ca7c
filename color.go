package snowman

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// Named colors used by the snowman patterns.
var (
	Black  = rgb(0, 0, 0)
	White  = rgb(255, 255, 255)
	Red    = rgb(255, 0, 0)
	Green  = rgb(0, 255, 0)
	Blue   = rgb(0, 0, 255)
	Orange = rgb(255, 165, 0)
)

// DefaultAmbientColor is the ambient color before the feed delivers anything
// valid.
var DefaultAmbientColor = Green

func rgb(r, g, b uint8) xcolor.RGB {
	return xcolor.RGBFromUint(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func channels(c xcolor.RGB) (r, g, b uint8) {
	v := c.ToUint()
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// Dim scales a color by brightness/255.
func Dim(c xcolor.RGB, brightness uint8) xcolor.RGB {
	if brightness == 255 {
		return c
	}
	r, g, b := channels(c)
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(brightness) / 255)
	}
	return rgb(scale(r), scale(g), scale(b))
}

// Hex formats a color as "#rrggbb".
func Hex(c xcolor.RGB) string {
	return fmt.Sprintf("#%06x", c.ToUint()&0xFFFFFF)
}

// ParseHex parses a "#rrggbb" color. The leading '#' is optional.
func ParseHex(s string) (xcolor.RGB, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return Black, fmt.Errorf("invalid hex color %q: want 6 hex digits", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Black, fmt.Errorf("invalid hex color %q: %w", s, err)
	}

	return xcolor.RGBFromUint(uint32(v)), nil
}

// ColorSource supplies a theme color to a pattern. It is read every time a
// pattern needs the color, so a pattern that is already running may pick up
// a new value part way through.
type ColorSource interface {
	Color() xcolor.RGB
}

// StaticColor is a ColorSource that never changes.
type StaticColor xcolor.RGB

func (c StaticColor) Color() xcolor.RGB { return xcolor.RGB(c) }

// AmbientColor is the shared theme color. It may be replaced at any time by
// the color feed while patterns read it; reads never observe a partially
// written color.
type AmbientColor struct {
	v atomic.Uint32
}

var _ ColorSource = (*AmbientColor)(nil)

// NewAmbientColor creates an AmbientColor holding c.
func NewAmbientColor(c xcolor.RGB) *AmbientColor {
	a := &AmbientColor{}
	a.Set(c)
	return a
}

// Color returns the current color.
func (a *AmbientColor) Color() xcolor.RGB {
	return xcolor.RGBFromUint(a.v.Load())
}

// Set replaces the current color.
func (a *AmbientColor) Set(c xcolor.RGB) {
	a.v.Store(c.ToUint() & 0xFFFFFF)
}

// SetHex parses s as a "#rrggbb" color and replaces the current color with
// it. If s is malformed, the current color is left untouched and an error is
// returned.
func (a *AmbientColor) SetHex(s string) error {
	c, err := ParseHex(s)
	if err != nil {
		return err
	}
	a.Set(c)
	return nil
}

// wheel returns a color on the red-green-blue color wheel for pos in 0..255.
func wheel(pos uint8) xcolor.RGB {
	switch {
	case pos < 85:
		return rgb(pos*3, 255-pos*3, 0)
	case pos < 170:
		pos -= 85
		return rgb(255-pos*3, 0, pos*3)
	default:
		pos -= 170
		return rgb(0, pos*3, 255-pos*3)
	}
}

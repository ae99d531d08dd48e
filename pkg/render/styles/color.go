package styles

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHex parses #RGB, #RRGGBB or #RRGGBBAA into a color.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustHex is ParseHex for palette constants. Unparseable input yields opaque
// black.
func MustHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return c
}

// SplitAlpha splits #RRGGBBAA into #RRGGBB and an opacity in [0, 1]. Other
// forms return s unchanged with opacity 1.
func SplitAlpha(s string) (string, float64) {
	if len(s) != 9 || s[0] != '#' {
		return s, 1
	}
	a, err := strconv.ParseUint(s[7:], 16, 8)
	if err != nil {
		return s, 1
	}
	return s[:7], float64(a) / 255
}

package plot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/forecastviz/core/forecast"
)

// RGBA is a color with an opacity in [0,1].
type RGBA struct {
	R, G, B uint8
	A       float64
}

func (c RGBA) String() string { return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.R, c.G, c.B, c.A) }

// WithAlpha returns c with opacity a.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = a
	return c
}

// Transparent is used for boundary lines of filled bands.
var Transparent = RGBA{R: 255, G: 255, B: 255, A: 0}

// ParseHex decodes "#rrggbb" into an opaque color.
func ParseHex(hex string) (RGBA, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return RGBA{}, fmt.Errorf("invalid hex color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}, nil
}

func mustHex(hex string) RGBA {
	c, err := ParseHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// ColorScale is a sequential scale. The last entry is used for the median.
type ColorScale []RGBA

func newScale(hexes ...string) ColorScale {
	s := make(ColorScale, len(hexes))
	for i, h := range hexes {
		s[i] = mustHex(h)
	}
	return s
}

var (
	ScalePlasma = newScale("#0d0887", "#46039f", "#7201a8", "#9c179e", "#bd3786",
		"#d8576b", "#ed7953", "#fb9f3a", "#fdca26", "#f0f921")
	ScaleViridis = newScale("#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725")
	ScaleBlues = newScale("#f7fbff", "#e3eef9", "#cfe1f2", "#b5d4e9", "#93c3df",
		"#6daed5", "#4b97c9", "#2f7ebc", "#1864aa", "#0a4a90")
)

// ParseScale returns the named scale. Empty means plasma.
func ParseScale(name string) (ColorScale, error) {
	switch strings.ToLower(name) {
	case "", "plasma":
		return ScalePlasma, nil
	case "viridis":
		return ScaleViridis, nil
	case "blues":
		return ScaleBlues, nil
	default:
		return nil, fmt.Errorf("unknown color scale %q", name)
	}
}

// Index maps a level onto a scale position by its distance from the median:
// round((n-1) * (1 - d/50)). Levels at the median land on the last entry.
func (s ColorScale) Index(l forecast.Level) int {
	d := l.Distance()
	if d > 50 {
		d = 50
	}
	return int(math.Round(float64(len(s)-1) * (1 - float64(d)/50)))
}

// Color returns the scale color for a level.
func (s ColorScale) Color(l forecast.Level) RGBA { return s[s.Index(l)] }

// ColorIndex is the position of level on a ten entry scale.
func ColorIndex(l forecast.Level) int { return ScalePlasma.Index(l) }

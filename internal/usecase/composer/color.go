package composer

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"lime":        {0, 255, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"gold":        {255, 215, 0, 255},
	"silver":      {192, 192, 192, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"maroon":      {128, 0, 0, 255},
	"brown":       {165, 42, 42, 255},
	"cyan":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor accepts CSS colour notations (#rgb, #rrggbb, #rrggbbaa, rgb(),
// rgba(), named colours) and the bare "r,g,b[,a]" form.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color")
	}

	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseComponents(s[5:len(s)-1], true)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseComponents(s[4:len(s)-1], true)
	case strings.Contains(s, ","):
		return parseComponents(s, false)
	}

	return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
}

// MustColor returns fallback when s cannot be parsed.
func MustColor(s string, fallback color.RGBA) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3, 4:
		var expanded strings.Builder
		for _, r := range h {
			expanded.WriteRune(r)
			expanded.WriteRune(r)
		}
		h = expanded.String()
	case 6, 8:
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length %d", len(h))
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %w", err)
	}

	if len(h) == 6 {
		return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
	}
	a := uint8(v)
	return color.RGBA{premul(uint8(v>>24), a), premul(uint8(v>>16), a), premul(uint8(v>>8), a), a}, nil
}

// parseComponents reads "r,g,b[,a]". In CSS functional notation alpha is a
// 0..1 fraction; in the bare legacy form it is 0..255.
func parseComponents(body string, cssAlpha bool) (color.RGBA, error) {
	body = strings.ReplaceAll(body, " ", "")
	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("invalid color format")
	}

	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSuffix(parts[i], "%"), 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color values")
		}
		if strings.HasSuffix(parts[i], "%") {
			v = v * 255 / 100
		}
		rgb[i] = uint8(clamp(v, 0, 255))
	}

	a := uint8(255)
	if len(parts) == 4 {
		v, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha value")
		}
		if cssAlpha {
			v *= 255
		}
		a = uint8(clamp(v, 0, 255))
	}

	// image/color expects premultiplied components.
	return color.RGBA{
		R: premul(rgb[0], a),
		G: premul(rgb[1], a),
		B: premul(rgb[2], a),
		A: a,
	}, nil
}

func premul(c, a uint8) uint8 {
	return uint8(uint32(c) * uint32(a) / 255)
}

func clamp(value, lo, hi float64) float64 {
	return math.Round(math.Max(lo, math.Min(hi, value)))
}

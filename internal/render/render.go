// Package render draws dot plots and enrichometers with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Common colours.
var (
	Black     = color.Black
	White     = color.White
	Red       = color.RGBA{R: 255, A: 255}
	Green     = color.RGBA{G: 128, A: 255}
	LightGray = color.Gray{Y: 191}
	LineBlue  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// ParseColor parses a colour name or a #rrggbb hex value. The empty string
// and "none" return nil.
func ParseColor(s string) (color.Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false":
		return nil, nil
	case "k", "black":
		return Black, nil
	case "w", "white":
		return White, nil
	case "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return LineBlue, nil
	case "gray", "grey":
		return LightGray, nil
	}

	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil && n == 3 {
		return color.RGBA{R: r, G: g, B: b, A: 255}, nil
	}
	return nil, fmt.Errorf("unknown colour %q", s)
}

// Save writes the plot to path; the image format follows the file
// extension (png, svg, pdf, eps, jpg, tif).
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

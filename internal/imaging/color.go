package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
//
// Hue separates reddish lesions from brown ones better than raw RGB does:
//   - Hue represents the color type (red, green, blue, etc.)
//   - Saturation represents color intensity (gray to vivid)
//   - Lightness represents brightness (black to white)
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorResult describes the mean color inside an annotation.
type ColorResult struct {
	Hex    string   `json:"hex"` // Hex format "#RRGGBB"
	RGB    RGBColor `json:"rgb"`
	HSL    HSLColor `json:"hsl"`
	Pixels int      `json:"pixels"` // Number of pixels averaged
}

// MeanColor averages the pixels of img whose centres lie inside c.
//
// Averaging happens in linear RGB so dark and light pixels weigh correctly.
// Alpha is ignored.
func MeanColor(img image.Image, c Circle) (*ColorResult, error) {
	region := CircleRegion(c, 0, img.Bounds())

	var sumR, sumG, sumB float64
	n := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if math.Hypot(float64(x)+0.5-c.CX, float64(y)+0.5-c.CY) > c.Radius {
				continue
			}
			col, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				// fully transparent
				continue
			}
			r, g, b := col.LinearRgb()
			sumR += r
			sumG += g
			sumB += b
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("no opaque pixels inside circle at (%.1f,%.1f) radius %.1f", c.CX, c.CY, c.Radius)
	}

	mean := colorful.LinearRgb(sumR/float64(n), sumG/float64(n), sumB/float64(n)).Clamped()
	r8, g8, b8 := mean.RGB255()
	h, s, l := mean.Hsl()

	return &ColorResult{
		Hex: mean.Hex(),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
		Pixels: n,
	}, nil
}

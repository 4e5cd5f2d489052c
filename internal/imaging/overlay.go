package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#RRGGBB" hex string into an opaque color.
func ParseColor(hex string) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Circle is an outlined circle in display pixel coordinates.
type Circle struct {
	CX     float64
	CY     float64
	Radius float64
}

// Bounds returns the circle's axis-aligned bounding box as x1, y1, x2, y2.
func (c Circle) Bounds() (x1, y1, x2, y2 float64) {
	return c.CX - c.Radius, c.CY - c.Radius, c.CX + c.Radius, c.CY + c.Radius
}

// Outline is a circle to draw with a stroke color and width.
type Outline struct {
	Circle Circle
	Color  color.Color
	Width  float64
}

// Compose copies base into a new RGBA image and strokes every outline onto it
// in order, so later outlines paint over earlier ones.
func Compose(base image.Image, outlines []Outline) *image.RGBA {
	bounds := base.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, base, bounds.Min, draw.Src)

	for _, o := range outlines {
		DrawCircle(result, o.Circle, o.Width, o.Color)
	}
	return result
}

// DrawCircle strokes c onto dst. The stroke is centred on the circle's edge
// and is width pixels wide. Pixels outside dst are skipped.
func DrawCircle(dst draw.Image, c Circle, width float64, col color.Color) {
	if width <= 0 {
		width = 1
	}
	half := width / 2
	bounds := dst.Bounds()

	x1, y1, x2, y2 := c.Bounds()
	minX := max(int(math.Floor(x1-half)), bounds.Min.X)
	minY := max(int(math.Floor(y1-half)), bounds.Min.Y)
	maxX := min(int(math.Ceil(x2+half)), bounds.Max.X-1)
	maxY := min(int(math.Ceil(y2+half)), bounds.Max.Y-1)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			// distance from the pixel centre to the circle centre
			d := math.Hypot(float64(x)+0.5-c.CX, float64(y)+0.5-c.CY)
			if math.Abs(d-c.Radius) <= half {
				dst.Set(x, y, col)
			}
		}
	}
}

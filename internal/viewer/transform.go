package viewer

import (
	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/imaging"
)

// Point is a position in display space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform maps image-pixel space onto display space. The axes are scaled
// independently because a fitted bitmap is truncated to whole pixels.
type Transform struct {
	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`
}

// NewTransform relates a displayed bitmap size to the recorded image size.
func NewTransform(displayWidth, displayHeight, recordedWidth, recordedHeight int) Transform {
	return Transform{
		ScaleX: float64(displayWidth) / float64(recordedWidth),
		ScaleY: float64(displayHeight) / float64(recordedHeight),
	}
}

// Apply returns the display-space circle for a. The radius uses the mean of
// the two scales.
func (t Transform) Apply(a *annotations.Annotation) imaging.Circle {
	return imaging.Circle{
		CX:     a.Coordinates.X * t.ScaleX,
		CY:     a.Coordinates.Y * t.ScaleY,
		Radius: a.Radius * (t.ScaleX + t.ScaleY) / 2,
	}
}

package viewer

import (
	"image"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/imaging"
)

// Shape is one annotation outline drawn on the frame.
type Shape struct {
	// ID is a canvas item id, unique for the session and increasing in draw
	// order.
	ID         int
	Annotation *annotations.Annotation
	Circle     imaging.Circle
	Selected   bool
}

// Contains reports whether p lies in the shape's closed bounding box.
func (s *Shape) Contains(p Point) bool {
	x1, y1, x2, y2 := s.Circle.Bounds()
	return x1 <= p.X && p.X <= x2 && y1 <= p.Y && p.Y <= y2
}

// Frame is what is currently on display: the scaled bitmap anchored at the
// origin and the annotation outlines over it, in draw order.
type Frame struct {
	Index     int
	Image     annotations.ImageRecord
	Bitmap    image.Image
	Transform Transform
	Shapes    []*Shape
}

// ScrollRegion is the scrollable area, exactly the displayed bitmap.
func (f *Frame) ScrollRegion() image.Rectangle {
	return image.Rect(0, 0, f.Bitmap.Bounds().Dx(), f.Bitmap.Bounds().Dy())
}

package viewer

import (
	"image"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/imaging"
)

// CloseUp is the selected annotation cut out of the full-resolution bitmap.
type CloseUp struct {
	Annotation *annotations.Annotation
	// Region is the cut-out rectangle in bitmap pixels.
	Region image.Rectangle
	Image  *image.NRGBA
	// Color is the mean color inside the annotation circle.
	Color *imaging.ColorResult
}

// CloseUp crops the selected annotation, padded by margin times its radius,
// from the original bitmap and resizes the crop by scale. Zoom does not
// affect it.
func (s *Session) CloseUp(margin, scale float64) (*CloseUp, error) {
	a := s.selected
	if a == nil || s.frame == nil {
		return nil, ErrNoSelection
	}
	rec := s.frame.Image
	bitmap, err := s.loadBitmap(rec)
	if err != nil {
		return nil, err
	}

	recW, recH := recordedSize(rec, bitmap)
	circle := NewTransform(bitmap.Bounds().Dx(), bitmap.Bounds().Dy(), recW, recH).Apply(a)
	circle.CX += float64(bitmap.Bounds().Min.X)
	circle.CY += float64(bitmap.Bounds().Min.Y)

	img, region, err := imaging.CropCircle(bitmap, circle, margin, scale)
	if err != nil {
		return nil, err
	}
	col, err := imaging.MeanColor(bitmap, circle)
	if err != nil {
		return nil, err
	}
	return &CloseUp{Annotation: a, Region: region, Image: img, Color: col}, nil
}

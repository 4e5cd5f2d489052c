package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// MaxCloseUpSide bounds the width and height of a resized close-up.
const MaxCloseUpSide = 8192

// ErrInvalidCloseUp means a close-up was asked for with a margin or scale
// that cannot produce an image.
var ErrInvalidCloseUp = errors.New("invalid close-up parameters")

// CircleRegion returns the pixel rectangle covering c plus margin times its
// radius on every side, clipped to bounds.
func CircleRegion(c Circle, margin float64, bounds image.Rectangle) image.Rectangle {
	pad := c.Radius * (1 + margin)
	// clip in float space so a huge pad never overflows the int conversion
	r := image.Rectangle{
		Min: image.Pt(
			int(math.Floor(math.Max(c.CX-pad, float64(bounds.Min.X)))),
			int(math.Floor(math.Max(c.CY-pad, float64(bounds.Min.Y)))),
		),
		Max: image.Pt(
			int(math.Ceil(math.Min(c.CX+pad, float64(bounds.Max.X)))),
			int(math.Ceil(math.Min(c.CY+pad, float64(bounds.Max.Y)))),
		),
	}
	return r.Intersect(bounds)
}

// CheckCloseUp validates margin and scale. margin must be finite and not
// negative; scale must be finite and not negative, 0 meaning native size.
func CheckCloseUp(margin, scale float64) error {
	if math.IsNaN(margin) || math.IsInf(margin, 0) || margin < 0 {
		return fmt.Errorf("%w: margin %v", ErrInvalidCloseUp, margin)
	}
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 0 {
		return fmt.Errorf("%w: scale %v", ErrInvalidCloseUp, scale)
	}
	return nil
}

// CropCircle extracts the region around c, as computed by CircleRegion, and
// resizes it by scale with the Lanczos filter. A scale of 0 or 1 leaves the
// crop at its native size. A resized side above MaxCloseUpSide is rejected
// with ErrInvalidCloseUp.
func CropCircle(img image.Image, c Circle, margin, scale float64) (*image.NRGBA, image.Rectangle, error) {
	if err := CheckCloseUp(margin, scale); err != nil {
		return nil, image.Rectangle{}, err
	}
	region := CircleRegion(c, margin, img.Bounds())
	if region.Empty() {
		return nil, region, fmt.Errorf("circle at (%.1f,%.1f) radius %.1f lies outside image bounds %v",
			c.CX, c.CY, c.Radius, img.Bounds())
	}

	if scale > 0 && scale != 1.0 {
		side := float64(max(region.Dx(), region.Dy())) * scale
		if side > MaxCloseUpSide {
			return nil, region, fmt.Errorf("%w: scale %v gives %.0f px, limit is %d",
				ErrInvalidCloseUp, scale, side, MaxCloseUpSide)
		}
	}

	cropped := imaging.Crop(img, region)
	if scale > 0 && scale != 1.0 {
		cropped = Scale(cropped, scale)
	}
	return cropped, region, nil
}

package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Fit scales img down with the Lanczos filter so that it fits inside
// maxWidth x maxHeight, preserving the aspect ratio. An image that already
// fits is returned as an unscaled copy; Fit never enlarges.
func Fit(img image.Image, maxWidth, maxHeight int) *image.NRGBA {
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
}

// Scale resizes img by factor with the Lanczos filter. Each side is
// truncated to whole pixels and never drops below one pixel.
func Scale(img image.Image, factor float64) *image.NRGBA {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == b.Dx() && h == b.Dy() {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// ScaleTo resizes img to exactly width x height with the Lanczos filter.
func ScaleTo(img image.Image, width, height int) *image.NRGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

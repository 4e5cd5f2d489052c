// Package imaging provides the bitmap operations behind the annotation viewer.
//
// It decodes and caches image files, fits them into the display box, resizes
// them for zoom, strokes annotation outlines onto a copy and encodes the
// result as PNG. It also cuts a single annotation out of a full-size bitmap
// and measures its mean color.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y downward. Circles use float coordinates; a pixel
// (x, y) is treated as covering the square whose centre is (x+0.5, y+0.5).
//
// # Resampling
//
// Fit, Scale and ScaleTo use the Lanczos filter from disintegration/imaging.
// Fit never enlarges: an image already inside the box is returned unscaled.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function is
// stateless and returns a new image, leaving its input untouched.
//
// # Error Handling
//
// Load wraps os errors, so errors.Is(err, os.ErrNotExist) identifies an image
// that is missing from the folder.
package imaging

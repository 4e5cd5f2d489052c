// Package viewer is the interaction controller of the review tool.
//
// A Session owns the current image index, the zoom level, the selected
// annotation and the frame on display. Front-ends translate their input into
// the closed set of events accepted by Session.Dispatch:
//
//	Click{Point}            select the annotation under a display point
//	Wheel{Delta}            zoom in (Delta > 0) or out
//	KeyLeft / KeyRight      previous / next image
//	ClassNameChosen{Value}  relabel the selection and save
//	FilePicked{Path}        open an annotation file
//	FolderPicked{Path}      open an images folder
//
// # Coordinate spaces
//
// Annotations are stored in image-pixel space, the size recorded in the
// annotation file. A frame is drawn in display space, the size of the bitmap
// actually shown. The two are related by a per-axis Transform:
//
//	scale_x = display_width  / recorded_width
//	scale_y = display_height / recorded_height
//
// A center maps to (x*scale_x, y*scale_y) and a radius to
// radius*(scale_x+scale_y)/2.
//
// # Rendering and zoom
//
// Showing an image fits it into the display box (800x600 by default) without
// ever enlarging it, and resets zoom to 1.0. Zoom then multiplies the ORIGINAL
// bitmap size, so the first wheel step jumps from the fitted size to about
// the full size. Setting zoom.base to "fitted" multiplies the fitted size
// instead.
//
// # Selection
//
// Clicking resets every outline, then tests the outlines from the last drawn
// to the first and selects the first whose bounding box contains the point.
// A click that hits nothing leaves nothing selected. Showing a different image
// or opening a new file clears the selection; zooming keeps it.
//
// # Errors
//
// Every failure leaves the frame on display, the index and the collection as
// they were. Dispatch turns each error into a notice for the reviewer.
package viewer

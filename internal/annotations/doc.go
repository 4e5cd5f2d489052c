// Package annotations owns the annotation collection under review and the file
// it was loaded from.
//
// The collection is a JSON document with at least two arrays:
//
//	{
//	  "images":      [{"id": 1, "file_name": "a.jpg", "width": 1000, "height": 500}],
//	  "annotations": [{"id": 7, "image_id": 1, "coordinates": [500, 250],
//	                   "radius": 50, "class_name": "acne"}]
//	}
//
// Missing "images" or "annotations" keys load as empty sequences. Every other
// key, at the top level or inside an image or annotation object, is kept
// verbatim and written back on save. The only field this package ever changes
// is an annotation's class_name.
//
// # Persistence
//
// Save rewrites the whole document in place, indented with four spaces. There
// is no backup and no batching: the viewer saves after every successful label
// edit.
//
// # Errors
//
// A document that is not well-formed JSON, or whose top level is not an
// object, produces a *ParseError. Read failures are returned wrapped but are
// not parse errors.
package annotations

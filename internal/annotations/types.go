package annotations

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// marshal is json.Marshal without HTML escaping, so strings already in the
// document are written back as they were read.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// object is a decoded JSON object whose values are kept undecoded so that
// fields this package does not understand survive a round trip.
type object map[string]json.RawMessage

func (o object) clone() object {
	if o == nil {
		return nil
	}
	out := make(object, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

func (o object) set(key string, v interface{}) error {
	b, err := marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	o[key] = b
	return nil
}

// Point is a center coordinate in image-pixel space, stored as [x, y].
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element [x, y] array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var xy []float64
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	if xy == nil {
		*p = Point{}
		return nil
	}
	if len(xy) != 2 {
		return fmt.Errorf("coordinates must have 2 elements, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// ImageRecord describes one source image as it was at annotation time.
// Width and Height are the authoritative pixel dimensions used to scale
// annotation coordinates onto the displayed bitmap.
type ImageRecord struct {
	ID       int64
	FileName string
	Width    int
	Height   int

	raw object
}

type imageFields struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// UnmarshalJSON decodes the known fields and keeps the whole object.
func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	var raw object
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f imageFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = ImageRecord{ID: f.ID, FileName: f.FileName, Width: f.Width, Height: f.Height, raw: raw}
	return nil
}

// MarshalJSON writes the record back unchanged. Records built in code, with no
// source object, are written from their fields.
func (r ImageRecord) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return marshal(map[string]json.RawMessage(r.raw))
	}
	return marshal(imageFields{ID: r.ID, FileName: r.FileName, Width: r.Width, Height: r.Height})
}

// Annotation is a labelled circular region on one image. Coordinates and
// Radius are in image-pixel space. ClassName is the only field ever edited.
type Annotation struct {
	ID          int64
	ImageID     int64
	Coordinates Point
	Radius      float64
	ClassName   string

	raw object
	// loadedClass is ClassName as decoded; class_name is only rewritten
	// once ClassName differs from it.
	loadedClass string
}

type annotationFields struct {
	ID          int64   `json:"id"`
	ImageID     int64   `json:"image_id"`
	Coordinates Point   `json:"coordinates"`
	Radius      float64 `json:"radius"`
	ClassName   string  `json:"class_name"`
}

// UnmarshalJSON decodes the known fields and keeps the whole object.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var raw object
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var f annotationFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Annotation{
		ID:          f.ID,
		ImageID:     f.ImageID,
		Coordinates: f.Coordinates,
		Radius:      f.Radius,
		ClassName:   f.ClassName,
		raw:         raw,
		loadedClass: f.ClassName,
	}
	return nil
}

// MarshalJSON writes the source object back. class_name is replaced only
// when it was edited, so a missing or null class_name stays as it was.
func (a Annotation) MarshalJSON() ([]byte, error) {
	if a.raw == nil {
		return marshal(annotationFields{
			ID:          a.ID,
			ImageID:     a.ImageID,
			Coordinates: a.Coordinates,
			Radius:      a.Radius,
			ClassName:   a.ClassName,
		})
	}
	if a.ClassName == a.loadedClass {
		return marshal(map[string]json.RawMessage(a.raw))
	}
	out := a.raw.clone()
	if err := out.set("class_name", a.ClassName); err != nil {
		return nil, err
	}
	return marshal(map[string]json.RawMessage(out))
}

// Collection is the whole annotation document. Annotations are held by
// pointer so a selection made by the viewer refers to the stored record.
type Collection struct {
	Images      []ImageRecord
	Annotations []*Annotation

	raw object
}

// UnmarshalJSON decodes images and annotations and keeps every other key.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var raw object
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("annotation document must be an object")
	}

	out := Collection{raw: raw}
	if b, ok := raw["images"]; ok {
		if err := json.Unmarshal(b, &out.Images); err != nil {
			return fmt.Errorf("images: %w", err)
		}
	}
	if b, ok := raw["annotations"]; ok {
		if err := json.Unmarshal(b, &out.Annotations); err != nil {
			return fmt.Errorf("annotations: %w", err)
		}
	}
	// a null element decodes to a nil pointer; drop it rather than crash later
	kept := out.Annotations[:0]
	for _, a := range out.Annotations {
		if a != nil {
			kept = append(kept, a)
		}
	}
	out.Annotations = kept

	*c = out
	return nil
}

// MarshalJSON writes the document back. The images and annotations keys are
// only added when they were present on load or are non-empty.
func (c Collection) MarshalJSON() ([]byte, error) {
	out := c.raw.clone()
	if out == nil {
		out = object{}
	}
	if _, ok := out["images"]; ok || len(c.Images) > 0 {
		images := c.Images
		if images == nil {
			images = []ImageRecord{}
		}
		if err := out.set("images", images); err != nil {
			return nil, err
		}
	}
	if _, ok := out["annotations"]; ok || len(c.Annotations) > 0 {
		anns := c.Annotations
		if anns == nil {
			anns = []*Annotation{}
		}
		if err := out.set("annotations", anns); err != nil {
			return nil, err
		}
	}
	return marshal(map[string]json.RawMessage(out))
}

// Image returns the record at index, or false when index is out of range.
func (c *Collection) Image(index int) (ImageRecord, bool) {
	if index < 0 || index >= len(c.Images) {
		return ImageRecord{}, false
	}
	return c.Images[index], true
}

// ImageByID looks up an image record by its id.
func (c *Collection) ImageByID(id int64) (ImageRecord, bool) {
	for _, img := range c.Images {
		if img.ID == id {
			return img, true
		}
	}
	return ImageRecord{}, false
}

// AnnotationsFor returns the annotations on imageID in document order.
func (c *Collection) AnnotationsFor(imageID int64) []*Annotation {
	var out []*Annotation
	for _, a := range c.Annotations {
		if a.ImageID == imageID {
			out = append(out, a)
		}
	}
	return out
}

package viewer

// State is a JSON-ready picture of the session for front-ends.
type State struct {
	SessionID       string       `json:"session_id"`
	AnnotationsFile string       `json:"annotations_file,omitempty"`
	ImagesFolder    string       `json:"images_folder,omitempty"`
	ImageCount      int          `json:"image_count"`
	Index           int          `json:"index"`
	Zoom            float64      `json:"zoom"`
	Image           *ImageState  `json:"image,omitempty"`
	Shapes          []ShapeState `json:"shapes"`
	Selected        *ShapeState  `json:"selected,omitempty"`
	Classes         []string     `json:"classes"`
	Status          string       `json:"status,omitempty"`
}

// ImageState describes the frame on display. Index can lag State.Index when
// the image at State.Index is missing from the folder.
type ImageState struct {
	Index         int       `json:"index"`
	ID            int64     `json:"id"`
	FileName      string    `json:"file_name"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	DisplayWidth  int       `json:"display_width"`
	DisplayHeight int       `json:"display_height"`
	Transform     Transform `json:"transform"`
}

// ShapeState describes one drawn outline.
type ShapeState struct {
	ShapeID      int     `json:"shape_id"`
	AnnotationID int64   `json:"annotation_id"`
	ClassName    string  `json:"class_name"`
	CX           float64 `json:"cx"`
	CY           float64 `json:"cy"`
	Radius       float64 `json:"radius"`
	Selected     bool    `json:"selected"`
}

// Snapshot captures the session.
func (s *Session) Snapshot() State {
	st := State{
		SessionID:    s.id,
		ImagesFolder: s.folder,
		Index:        s.index,
		Zoom:         s.zoom,
		Shapes:       []ShapeState{},
		Classes:      append([]string(nil), s.opts.Classes...),
		Status:       s.notifier.Status(),
	}
	if s.store.Loaded() {
		st.AnnotationsFile = s.store.Path()
		st.ImageCount = len(s.store.Collection().Images)
	}

	if f := s.frame; f != nil {
		st.Image = &ImageState{
			Index:         f.Index,
			ID:            f.Image.ID,
			FileName:      f.Image.FileName,
			Width:         f.Image.Width,
			Height:        f.Image.Height,
			DisplayWidth:  f.Bitmap.Bounds().Dx(),
			DisplayHeight: f.Bitmap.Bounds().Dy(),
			Transform:     f.Transform,
		}
		for _, sh := range f.Shapes {
			ss := ShapeState{
				ShapeID:      sh.ID,
				AnnotationID: sh.Annotation.ID,
				ClassName:    sh.Annotation.ClassName,
				CX:           sh.Circle.CX,
				CY:           sh.Circle.CY,
				Radius:       sh.Circle.Radius,
				Selected:     sh.Selected,
			}
			st.Shapes = append(st.Shapes, ss)
			if sh.Selected {
				sel := ss
				st.Selected = &sel
			}
		}
	}
	return st
}

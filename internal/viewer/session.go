package viewer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/config"
	"github.com/ironsheep/annotation-review/internal/imaging"
	"github.com/ironsheep/annotation-review/internal/notify"
)

// Session is one reviewer's view over one annotation file. It is not safe
// for concurrent use; front-ends serialise events.
type Session struct {
	id       string
	opts     Options
	store    *annotations.Store
	cache    *imaging.ImageCache
	notifier *notify.Notifier
	logger   *log.Entry

	folder   string
	index    int
	zoom     float64
	baseline image.Point
	selected *annotations.Annotation
	frame    *Frame
	shapeSeq int
}

// NewSession returns a session with nothing loaded.
func NewSession(opts Options, store *annotations.Store, cache *imaging.ImageCache, notifier *notify.Notifier) *Session {
	id := uuid.NewString()
	return &Session{
		id:       id,
		opts:     opts,
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   log.WithField("session", id),
		zoom:     1.0,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Index is the index of the image on display, or of the image that will be
// shown first.
func (s *Session) Index() int { return s.index }

// Zoom is the current zoom factor.
func (s *Session) Zoom() float64 { return s.zoom }

// Selected returns the selected annotation, or nil.
func (s *Session) Selected() *annotations.Annotation { return s.selected }

// Frame returns the frame on display, or nil before the first render.
func (s *Session) Frame() *Frame { return s.frame }

// Folder is the images folder, or "".
func (s *Session) Folder() string { return s.folder }

// Store exposes the annotation store.
func (s *Session) Store() *annotations.Store { return s.store }

// Notifier exposes the session's notifier.
func (s *Session) Notifier() *notify.Notifier { return s.notifier }

// Classes is the class vocabulary offered to the reviewer.
func (s *Session) Classes() annotations.Vocabulary { return s.opts.Classes }

// OpenAnnotations loads an annotation file, starts again at the first image
// and shows it. A file that fails to parse changes nothing.
func (s *Session) OpenAnnotations(path string) error {
	if err := s.store.Open(path); err != nil {
		return err
	}
	s.index = 0
	s.zoom = 1.0
	s.selected = nil
	s.frame = nil
	s.notifier.Info("JSON File Loaded Successfully")
	return s.Render(0)
}

// OpenFolder sets the folder images are resolved against and, when an
// annotation file is already open, shows the current image from it.
func (s *Session) OpenFolder(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open images folder: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("images folder %s is not a directory", path)
	}
	s.folder = path
	s.cache.Clear()
	s.notifier.Info("Images Folder Loaded Successfully")
	s.logger.WithField("folder", path).Info("Images folder opened")

	if s.store.Loaded() {
		return s.Render(s.index)
	}
	return nil
}

// Render shows the image at index fitted into the display box, with zoom
// reset to 1.0 and no selection. A negative index is ignored. On error the
// previous frame stays on display. The index is unchanged except when the
// image file is missing: then index still moves to it, so navigation can step
// past the gap.
func (s *Session) Render(index int) error {
	if index < 0 {
		return nil
	}
	if !s.store.Loaded() || s.folder == "" {
		return ErrPrerequisites
	}
	c := s.store.Collection()
	rec, ok := c.Image(index)
	if !ok {
		return fmt.Errorf("%w: index %d, %d images", ErrOutOfRange, index, len(c.Images))
	}

	// re-read from disk on every render; zoom and close-ups reuse the cache
	s.cache.Evict(s.bitmapPath(rec))
	bitmap, err := s.loadBitmap(rec)
	if err != nil {
		var missing *MissingFileError
		if errors.As(err, &missing) {
			s.index = index
		}
		return err
	}
	fitted := imaging.Fit(bitmap, s.opts.MaxWidth, s.opts.MaxHeight)

	s.index = index
	s.zoom = 1.0
	s.baseline = fitted.Bounds().Size()
	s.selected = nil
	s.show(index, rec, bitmap, fitted)

	s.logger.WithFields(log.Fields{
		"index":   index,
		"image":   rec.FileName,
		"display": fmt.Sprintf("%dx%d", s.baseline.X, s.baseline.Y),
		"cached":  s.cache.Len(),
	}).Debug("Image rendered")
	return nil
}

// show replaces the frame with scaled and redraws the annotations of rec.
func (s *Session) show(index int, rec annotations.ImageRecord, original, scaled image.Image) {
	s.frame = &Frame{Index: index, Image: rec, Bitmap: scaled}

	recW, recH := recordedSize(rec, original)
	t := NewTransform(scaled.Bounds().Dx(), scaled.Bounds().Dy(), recW, recH)
	s.RenderAnnotations(rec.ID, t.ScaleX, t.ScaleY)
}

// recordedSize is the image size annotation coordinates refer to. It falls
// back to the bitmap's own size when the record lacks one.
func recordedSize(rec annotations.ImageRecord, bitmap image.Image) (int, int) {
	if rec.Width <= 0 || rec.Height <= 0 {
		return bitmap.Bounds().Dx(), bitmap.Bounds().Dy()
	}
	return rec.Width, rec.Height
}

// RenderAnnotations clears the outlines on the frame and draws one per
// annotation of imageID, in document order. The selected annotation, if it is
// among them, stays highlighted.
func (s *Session) RenderAnnotations(imageID int64, scaleX, scaleY float64) {
	if s.frame == nil {
		return
	}
	t := Transform{ScaleX: scaleX, ScaleY: scaleY}
	s.frame.Transform = t
	s.frame.Shapes = nil

	for _, a := range s.store.Collection().AnnotationsFor(imageID) {
		s.shapeSeq++
		s.frame.Shapes = append(s.frame.Shapes, &Shape{
			ID:         s.shapeSeq,
			Annotation: a,
			Circle:     t.Apply(a),
			Selected:   a == s.selected,
		})
	}
}

// HitTest selects the topmost outline whose bounding box contains p and
// returns its annotation. Every outline is reset first, so a miss leaves
// nothing selected.
func (s *Session) HitTest(p Point) (*annotations.Annotation, bool) {
	s.selected = nil
	if s.frame == nil {
		return nil, false
	}
	for _, sh := range s.frame.Shapes {
		sh.Selected = false
	}

	// last drawn is on top
	for i := len(s.frame.Shapes) - 1; i >= 0; i-- {
		sh := s.frame.Shapes[i]
		if sh.Contains(p) {
			sh.Selected = true
			s.selected = sh.Annotation
			s.logger.WithFields(log.Fields{
				"annotation": sh.Annotation.ID,
				"class":      sh.Annotation.ClassName,
			}).Debug("Annotation selected")
			return sh.Annotation, true
		}
	}
	return nil, false
}

// SetZoom steps the zoom in when delta is positive and out otherwise, clamps
// it to the configured range and redraws the current image at the new size.
// Without a frame on display it does nothing.
func (s *Session) SetZoom(delta float64) error {
	if s.frame == nil {
		return nil
	}
	factor := s.opts.ZoomOut
	if delta > 0 {
		factor = s.opts.ZoomIn
	}
	zoom := math.Max(s.opts.ZoomMin, math.Min(s.opts.ZoomMax, s.zoom*factor))

	rec := s.frame.Image
	bitmap, err := s.loadBitmap(rec)
	if err != nil {
		return err
	}

	var scaled image.Image
	if s.opts.ZoomBase == config.ZoomBaseFitted {
		w := int(math.Round(float64(s.baseline.X) * zoom))
		h := int(math.Round(float64(s.baseline.Y) * zoom))
		scaled = imaging.ScaleTo(bitmap, w, h)
	} else {
		scaled = imaging.Scale(bitmap, zoom)
	}

	s.zoom = zoom
	s.show(s.frame.Index, rec, bitmap, scaled)
	return nil
}

// Advance moves step images forward (or back for a negative step) and shows
// the result. Moving before the first image does nothing; moving past the
// last reports ErrOutOfRange and keeps the current index, so Previous from
// there goes to the image before the one on display. A missing image is
// stepped onto and reported, and the next Advance goes on from it.
func (s *Session) Advance(step int) error {
	target := s.index + step
	if target < 0 {
		return nil
	}
	return s.Render(target)
}

// Next shows the following image.
func (s *Session) Next() error { return s.Advance(1) }

// Previous shows the preceding image.
func (s *Session) Previous() error { return s.Advance(-1) }

// ChangeClassName relabels the selected annotation and saves the file. When
// the save fails the old label is put back.
func (s *Session) ChangeClassName(value string) error {
	a := s.selected
	if a == nil {
		return ErrNoSelection
	}
	if value == "" {
		return annotations.ErrEmptyClassName
	}
	if !s.opts.Classes.Contains(value) {
		return fmt.Errorf("%w: %q", ErrUnknownClass, value)
	}

	previous := a.ClassName
	if err := s.store.SetClassName(a, value); err != nil {
		return err
	}
	if err := s.store.Save(); err != nil {
		a.ClassName = previous
		return err
	}

	s.logger.WithFields(log.Fields{
		"annotation": a.ID,
		"from":       previous,
		"to":         value,
	}).Info("Class name updated")
	s.notifier.Success("Class name updated successfully.")
	return nil
}

// Compose draws the frame with its outlines, selected ones in the selected
// color.
func (s *Session) Compose() (*image.RGBA, error) {
	if s.frame == nil {
		return nil, ErrNothingRendered
	}
	outlines := make([]imaging.Outline, 0, len(s.frame.Shapes))
	for _, sh := range s.frame.Shapes {
		c := s.opts.Unselected
		if sh.Selected {
			c = s.opts.Selected
		}
		outlines = append(outlines, imaging.Outline{Circle: sh.Circle, Color: c, Width: s.opts.OutlineWidth})
	}
	return imaging.Compose(s.frame.Bitmap, outlines), nil
}

// Export writes the composed frame to path as PNG.
func (s *Session) Export(path string) error {
	img, err := s.Compose()
	if err != nil {
		return err
	}
	if err := imaging.SavePNG(path, img); err != nil {
		return err
	}
	s.logger.WithField("path", path).Info("Frame exported")
	return nil
}

func (s *Session) bitmapPath(rec annotations.ImageRecord) string {
	return filepath.Join(s.folder, rec.FileName)
}

func (s *Session) loadBitmap(rec annotations.ImageRecord) (image.Image, error) {
	path := s.bitmapPath(rec)
	img, err := s.cache.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &MissingFileError{FileName: rec.FileName, Path: path}
	}
	return img, err
}

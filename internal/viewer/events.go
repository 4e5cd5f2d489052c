package viewer

import (
	"errors"
	"fmt"

	"github.com/ironsheep/annotation-review/internal/annotations"
)

// Event is one reviewer action. The set of variants is closed.
type Event interface {
	event()
}

// Click selects the annotation under Point.
type Click struct{ Point Point }

// Wheel zooms in for a positive Delta and out otherwise.
type Wheel struct{ Delta float64 }

// KeyLeft shows the previous image.
type KeyLeft struct{}

// KeyRight shows the next image.
type KeyRight struct{}

// ClassNameChosen relabels the selected annotation.
type ClassNameChosen struct{ Value string }

// FilePicked opens an annotation file.
type FilePicked struct{ Path string }

// FolderPicked opens an images folder.
type FolderPicked struct{ Path string }

func (Click) event()           {}
func (Wheel) event()           {}
func (KeyLeft) event()         {}
func (KeyRight) event()        {}
func (ClassNameChosen) event() {}
func (FilePicked) event()      {}
func (FolderPicked) event()    {}

// Dispatch applies ev. Any error is also turned into a notice for the
// reviewer before it is returned.
func (s *Session) Dispatch(ev Event) error {
	var err error
	switch e := ev.(type) {
	case Click:
		s.HitTest(e.Point)
	case Wheel:
		err = s.SetZoom(e.Delta)
	case KeyLeft:
		err = s.Previous()
	case KeyRight:
		err = s.Next()
	case ClassNameChosen:
		err = s.ChangeClassName(e.Value)
	case FilePicked:
		err = s.OpenAnnotations(e.Path)
	case FolderPicked:
		err = s.OpenFolder(e.Path)
	default:
		err = fmt.Errorf("unknown event %T", ev)
	}

	if err != nil {
		s.report(err)
	}
	return err
}

// report surfaces err the way the reviewer expects to see it.
func (s *Session) report(err error) {
	var missing *MissingFileError
	var parseErr *annotations.ParseError

	switch {
	case errors.Is(err, ErrOutOfRange):
		s.notifier.Info("No more images to display.")
	case errors.Is(err, ErrPrerequisites):
		s.notifier.Warning("Please load JSON file and images folder first.")
	case errors.As(err, &missing):
		s.notifier.Warning(fmt.Sprintf("Image %s not found in folder.", missing.FileName))
	case errors.Is(err, ErrNoSelection):
		s.notifier.Warning("Please select an annotation first.")
	case errors.Is(err, annotations.ErrEmptyClassName):
		s.notifier.Warning("Please enter a class name.")
	case errors.Is(err, ErrUnknownClass):
		s.notifier.Warning(fmt.Sprintf("Class name must be one of %v.", []string(s.opts.Classes)))
	case errors.As(err, &parseErr):
		s.notifier.Warning(fmt.Sprintf("Could not read annotation file: %v", parseErr.Err))
	default:
		s.notifier.Warning(err.Error())
	}
}

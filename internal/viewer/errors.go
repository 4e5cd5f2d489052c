package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrPrerequisites means the annotation file or the images folder is not
	// loaded yet.
	ErrPrerequisites = errors.New("annotation file and images folder must be loaded first")

	// ErrOutOfRange means navigation went past the last image.
	ErrOutOfRange = errors.New("no more images")

	// ErrMissingFile means an image named by the annotation file is not in
	// the images folder.
	ErrMissingFile = errors.New("image file not found")

	// ErrNoSelection means a label edit was attempted with nothing selected.
	ErrNoSelection = errors.New("no annotation selected")

	// ErrUnknownClass means a label outside the class vocabulary was chosen.
	ErrUnknownClass = errors.New("class name not in vocabulary")

	// ErrNothingRendered means an operation needs a frame on display.
	ErrNothingRendered = errors.New("no image rendered")
)

// MissingFileError names the image that could not be found.
type MissingFileError struct {
	FileName string
	Path     string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("image %s not found at %s", e.FileName, e.Path)
}

// Is lets errors.Is(err, ErrMissingFile) match.
func (e *MissingFileError) Is(target error) bool {
	return target == ErrMissingFile
}

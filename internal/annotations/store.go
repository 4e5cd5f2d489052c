package annotations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// ErrEmptyClassName is returned when a class name edit carries no value.
var ErrEmptyClassName = errors.New("class name must not be empty")

// ErrNotLoaded is returned by Save when no annotation file has been opened.
var ErrNotLoaded = errors.New("no annotation file loaded")

// ParseError reports an annotation file that is not a well-formed document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse annotation file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and parses the annotation file at path.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation file: %w", err)
	}

	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &c, nil
}

// Marshal renders the collection the way Save writes it: four space
// indentation, no HTML escaping, trailing newline.
func Marshal(c *Collection) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to encode annotations: %w", err)
	}
	return buf.Bytes(), nil
}

// Save overwrites path with the collection. The file keeps its permission
// bits when it already exists.
func Save(c *Collection, path string) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write annotation file: %w", err)
	}
	return nil
}

// Store pairs the loaded collection with the path it came from for the
// lifetime of a review session.
type Store struct {
	path       string
	collection *Collection
}

// NewStore returns an empty store. Nothing is loaded until Open succeeds.
func NewStore() *Store {
	return &Store{}
}

// Open loads path and makes it the active document. On failure the
// previously opened document, if any, stays active.
func (s *Store) Open(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	s.path = path
	s.collection = c

	log.WithFields(log.Fields{
		"path":        path,
		"images":      len(c.Images),
		"annotations": len(c.Annotations),
	}).Info("Annotation file loaded")
	return nil
}

// Loaded reports whether a document is active.
func (s *Store) Loaded() bool {
	return s.collection != nil
}

// Path returns the file the active document was loaded from.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the active document, or nil.
func (s *Store) Collection() *Collection {
	return s.collection
}

// SetClassName changes the class name of a in place. The caller saves.
func (s *Store) SetClassName(a *Annotation, value string) error {
	if value == "" {
		return ErrEmptyClassName
	}
	log.WithFields(log.Fields{
		"annotation": a.ID,
		"from":       a.ClassName,
		"to":         value,
	}).Debug("Class name changed")
	a.ClassName = value
	return nil
}

// Save writes the active document back to the path it was loaded from.
func (s *Store) Save() error {
	if s.collection == nil {
		return ErrNotLoaded
	}
	if err := Save(s.collection, s.path); err != nil {
		return err
	}
	log.WithField("path", s.path).Debug("Annotation file saved")
	return nil
}

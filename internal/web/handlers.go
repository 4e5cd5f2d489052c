package web

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/imaging"
	"github.com/ironsheep/annotation-review/internal/notify"
	"github.com/ironsheep/annotation-review/internal/viewer"
)

//go:embed static/index.html
var indexPage []byte

// Event types accepted by POST /api/v1/events.
const (
	EventClick    = "click"
	EventWheel    = "wheel"
	EventKeyLeft  = "key_left"
	EventKeyRight = "key_right"
	EventClass    = "class"
	EventFile     = "file"
	EventFolder   = "folder"
)

// EventInput is the body of POST /api/v1/events. Which fields matter depends
// on Type.
type EventInput struct {
	Type  string  `json:"type" binding:"required"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
	Value string  `json:"value"`
	Path  string  `json:"path"`
}

// Event converts the input into a viewer event.
func (in EventInput) Event() (viewer.Event, error) {
	switch in.Type {
	case EventClick:
		return viewer.Click{Point: viewer.Point{X: in.X, Y: in.Y}}, nil
	case EventWheel:
		return viewer.Wheel{Delta: in.Delta}, nil
	case EventKeyLeft:
		return viewer.KeyLeft{}, nil
	case EventKeyRight:
		return viewer.KeyRight{}, nil
	case EventClass:
		return viewer.ClassNameChosen{Value: in.Value}, nil
	case EventFile:
		return viewer.FilePicked{Path: in.Path}, nil
	case EventFolder:
		return viewer.FolderPicked{Path: in.Path}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", in.Type)
	}
}

// statusFor maps a dispatch error onto an HTTP status.
func statusFor(err error) int {
	var parseErr *annotations.ParseError
	switch {
	case errors.Is(err, viewer.ErrNoSelection),
		errors.Is(err, viewer.ErrUnknownClass),
		errors.Is(err, viewer.ErrPrerequisites),
		errors.Is(err, annotations.ErrEmptyClassName),
		errors.Is(err, imaging.ErrInvalidCloseUp):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrMissingFile), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrOutOfRange):
		return http.StatusConflict
	case errors.As(err, &parseErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) getState(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"data":    s.session.Snapshot(),
		"notices": drained(s.session.Notifier()),
	})
}

func (s *Server) getFrame(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	img, err := s.session.Compose()

	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	data, err := imaging.EncodePNG(img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", data)
}

// getSelection serves the close-up of the selected annotation. The mean
// color inside the circle is returned in the X-Mean-Color header.
func (s *Server) getSelection(c *gin.Context) {
	margin, err := strconv.ParseFloat(c.DefaultQuery("margin", "0.5"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "margin must be a number"})
		return
	}
	scale, err := strconv.ParseFloat(c.DefaultQuery("scale", "1"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scale must be a number"})
		return
	}

	if err := imaging.CheckCloseUp(margin, scale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cu, err := s.session.CloseUp(margin, scale)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	data, err := imaging.EncodePNG(cu.Image)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Mean-Color", cu.Color.Hex)
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) postEvent(c *gin.Context) {
	// Validate input
	var input EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := input.Event()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.session.Dispatch(ev)
	notices := drained(s.session.Notifier())
	if err != nil {
		message := err.Error()
		if len(notices) > 0 {
			message = notices[len(notices)-1].Message
		}
		c.JSON(statusFor(err), gin.H{
			"error":   message,
			"data":    s.session.Snapshot(),
			"notices": notices,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    s.session.Snapshot(),
		"notices": notices,
	})
}

func (s *Server) getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

// drained empties the notice queue, never returning nil so the JSON is [].
func drained(n *notify.Notifier) []notify.Notice {
	notices := n.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	return notices
}

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotation-review/internal/annotations"
	"github.com/ironsheep/annotation-review/internal/config"
	"github.com/ironsheep/annotation-review/internal/imaging"
	"github.com/ironsheep/annotation-review/internal/notify"
	"github.com/ironsheep/annotation-review/internal/viewer"
)

const document = `{
  "images": [
    {"id": 1, "file_name": "one.png", "width": 60, "height": 40},
    {"id": 2, "file_name": "two.png", "width": 60, "height": 40}
  ],
  "annotations": [
    {"id": 5, "image_id": 1, "coordinates": [30, 20], "radius": 6, "class_name": "scar"}
  ]
}`

type response struct {
	Error   string          `json:"error"`
	Data    viewer.State    `json:"data"`
	Notices []notify.Notice `json:"notices"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 200, 200, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// setup returns a router over a fresh session plus the annotation file and
// images folder it can open.
func setup(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(imageDir, 0o755))
	writeImage(t, filepath.Join(imageDir, "one.png"), 60, 40)
	writeImage(t, filepath.Join(imageDir, "two.png"), 60, 40)

	annPath := filepath.Join(dir, "annotations.json")
	require.NoError(t, os.WriteFile(annPath, []byte(document), 0o644))

	status := notify.NewStatusLine(nil, time.Minute, false)
	session := viewer.NewSession(viewer.DefaultOptions(), annotations.NewStore(), imaging.NewImageCache(), notify.New(status))
	srv := New(session, "v-test", config.Default().Server)
	return srv.Router(), annPath, imageDir
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func openAll(t *testing.T, r http.Handler, annPath, imageDir string) {
	t.Helper()
	w, _ := do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventFolder, Path: imageDir})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventFile, Path: annPath})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestVersion(t *testing.T) {
	r, _, _ := setup(t)
	w, _ := do(t, r, http.MethodGet, "/version", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "v-test"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestIndexPage(t *testing.T) {
	r, _, _ := setup(t)
	w, _ := do(t, r, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "/api/v1/events")
}

func TestState_Empty(t *testing.T) {
	r, _, _ := setup(t)
	w, resp := do(t, r, http.MethodGet, "/api/v1/state", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, resp.Data.Image)
	assert.Equal(t, []string{"acne", "scar", "freckle", "mole"}, resp.Data.Classes)
	assert.NotNil(t, resp.Notices)
}

func TestFrame_NothingRendered(t *testing.T) {
	r, _, _ := setup(t)
	w, _ := do(t, r, http.MethodGet, "/api/v1/frame.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFrame(t *testing.T) {
	r, annPath, imageDir := setup(t)
	openAll(t, r, annPath, imageDir)

	w, _ := do(t, r, http.MethodGet, "/api/v1/frame.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 40), img.Bounds())
}

func TestEvents_ReviewFlow(t *testing.T) {
	r, annPath, imageDir := setup(t)
	openAll(t, r, annPath, imageDir)

	w, resp := do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventClick, X: 31, Y: 19})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Data.Selected)
	assert.Equal(t, int64(5), resp.Data.Selected.AnnotationID)

	w, resp = do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventClass, Value: "acne"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Class name updated successfully.", resp.Data.Status)

	c, err := annotations.Load(annPath)
	require.NoError(t, err)
	assert.Equal(t, "acne", c.Annotations[0].ClassName)

	w, resp = do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventWheel, Delta: 120})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.1, resp.Data.Zoom, 1e-9)

	w, resp = do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventKeyRight})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, resp.Data.Index)

	w, resp = do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventKeyLeft})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Data.Index)
}

func TestEvents_ErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, r http.Handler, annPath, imageDir string)
		event   func(annPath, imageDir string) EventInput
		want    int
		message string
	}{
		{
			name:    "prerequisites",
			event:   func(string, string) EventInput { return EventInput{Type: EventKeyRight} },
			want:    http.StatusBadRequest,
			message: "Please load JSON file and images folder first.",
		},
		{
			name:    "no selection",
			prepare: openAll,
			event:   func(string, string) EventInput { return EventInput{Type: EventClass, Value: "mole"} },
			want:    http.StatusBadRequest,
			message: "Please select an annotation first.",
		},
		{
			name: "unknown class",
			prepare: func(t *testing.T, r http.Handler, annPath, imageDir string) {
				openAll(t, r, annPath, imageDir)
				do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventClick, X: 30, Y: 20})
			},
			event:   func(string, string) EventInput { return EventInput{Type: EventClass, Value: "wart"} },
			want:    http.StatusBadRequest,
			message: "Class name must be one of [acne scar freckle mole].",
		},
		{
			name: "out of range",
			prepare: func(t *testing.T, r http.Handler, annPath, imageDir string) {
				openAll(t, r, annPath, imageDir)
				do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventKeyRight})
			},
			event:   func(string, string) EventInput { return EventInput{Type: EventKeyRight} },
			want:    http.StatusConflict,
			message: "No more images to display.",
		},
		{
			name: "missing image file",
			prepare: func(t *testing.T, r http.Handler, annPath, imageDir string) {
				openAll(t, r, annPath, imageDir)
				require.NoError(t, os.Remove(filepath.Join(imageDir, "two.png")))
			},
			event:   func(string, string) EventInput { return EventInput{Type: EventKeyRight} },
			want:    http.StatusNotFound,
			message: "Image two.png not found in folder.",
		},
		{
			name: "parse error",
			event: func(annPath, _ string) EventInput {
				bad := filepath.Join(filepath.Dir(annPath), "bad.json")
				_ = os.WriteFile(bad, []byte("[1, 2"), 0o644)
				return EventInput{Type: EventFile, Path: bad}
			},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "folder not found",
			event: func(annPath, _ string) EventInput {
				return EventInput{Type: EventFolder, Path: filepath.Join(filepath.Dir(annPath), "nope")}
			},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, annPath, imageDir := setup(t)
			if tt.prepare != nil {
				tt.prepare(t, r, annPath, imageDir)
			}

			w, resp := do(t, r, http.MethodPost, "/api/v1/events", tt.event(annPath, imageDir))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, resp.Error)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error)
			}
		})
	}
}

func TestEvents_BadRequest(t *testing.T) {
	r, _, _ := setup(t)

	w, _ := do(t, r, http.MethodPost, "/api/v1/events", map[string]string{"type": "teleport"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/events", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{viewer.ErrNoSelection, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", viewer.ErrUnknownClass, "x"), http.StatusBadRequest},
		{annotations.ErrEmptyClassName, http.StatusBadRequest},
		{&viewer.MissingFileError{FileName: "a.png"}, http.StatusNotFound},
		{fmt.Errorf("%w: index 3", viewer.ErrOutOfRange), http.StatusConflict},
		{&annotations.ParseError{Path: "x.json", Err: errors.New("eof")}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestCORS(t *testing.T) {
	session := viewer.NewSession(viewer.DefaultOptions(), annotations.NewStore(), imaging.NewImageCache(),
		notify.New(notify.NewStatusLine(nil, time.Minute, false)))
	settings := config.Default().Server
	settings.AllowOrigins = []string{"http://example.test"}
	r := New(session, "v", settings).Router()

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("Origin", "http://example.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://example.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSelection(t *testing.T) {
	r, annPath, imageDir := setup(t)
	openAll(t, r, annPath, imageDir)

	w, _ := do(t, r, http.MethodGet, "/api/v1/selection.png", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	do(t, r, http.MethodPost, "/api/v1/events", EventInput{Type: EventClick, X: 30, Y: 20})

	w, _ = do(t, r, http.MethodGet, "/api/v1/selection.png?margin=1&scale=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#c8c8c8", w.Header().Get("X-Mean-Color"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())

	w, _ = do(t, r, http.MethodGet, "/api/v1/selection.png?scale=big", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, query := range []string{"scale=1e16", "scale=-1", "margin=-2", "scale=NaN", "margin=Inf"} {
		w, _ = do(t, r, http.MethodGet, "/api/v1/selection.png?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/state", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveredPanicReleasesSession(t *testing.T) {
	r := New(nil, "test", config.ServerSettings{}).Router()

	// both requests panic inside the handler; the second must not block
	for i := 0; i < 2; i++ {
		w, _ := do(t, r, http.MethodGet, "/api/v1/frame.png", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	}
}

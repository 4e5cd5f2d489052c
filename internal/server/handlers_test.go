package server

import (
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/annotation-review/internal/annotations"
)

const testDocument = `{
  "images": [
    {"id": 1, "file_name": "one.png", "width": 100, "height": 80},
    {"id": 2, "file_name": "two.png", "width": 100, "height": 80}
  ],
  "annotations": [
    {"id": 7, "image_id": 1, "coordinates": [50, 40], "radius": 10, "class_name": "acne"}
  ]
}`

// createTestImageFile writes a solid w x h PNG to path.
func createTestImageFile(t *testing.T, path string, width, height int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

// createTestWorkspace lays out an annotation file and an images folder and
// returns their paths.
func createTestWorkspace(t *testing.T) (annPath, imageDir string) {
	t.Helper()
	dir := t.TempDir()
	imageDir = filepath.Join(dir, "images")
	if err := os.Mkdir(imageDir, 0o755); err != nil {
		t.Fatalf("failed to create folder: %v", err)
	}
	createTestImageFile(t, filepath.Join(imageDir, "one.png"), 100, 80, color.RGBA{255, 255, 255, 255})
	createTestImageFile(t, filepath.Join(imageDir, "two.png"), 100, 80, color.RGBA{0, 0, 255, 255})

	annPath = filepath.Join(dir, "annotations.json")
	if err := os.WriteFile(annPath, []byte(testDocument), 0o644); err != nil {
		t.Fatalf("failed to write annotations: %v", err)
	}
	return annPath, imageDir
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params := map[string]interface{}{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeResult unmarshals the text content of a successful tool call.
func decodeResult(t *testing.T, resp *MCPResponse) ToolResult {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})

	var tr ToolResult
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &tr); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}
	return tr
}

// openWorkspace loads the folder and file, leaving image 0 on display.
func openWorkspace(t *testing.T, s *Server) (annPath, imageDir string) {
	t.Helper()
	annPath, imageDir = createTestWorkspace(t)
	decodeResult(t, callTool(t, s, "annotation_open_folder", map[string]interface{}{"path": imageDir}))
	decodeResult(t, callTool(t, s, "annotation_open_file", map[string]interface{}{"path": annPath}))
	return annPath, imageDir
}

func TestHandleToolsCall_OpenFileAndFolder(t *testing.T) {
	s := newTestServer()
	annPath, imageDir := createTestWorkspace(t)

	tr := decodeResult(t, callTool(t, s, "annotation_open_folder", map[string]interface{}{"path": imageDir}))
	if len(tr.Notices) != 1 || tr.Notices[0].Message != "Images Folder Loaded Successfully" {
		t.Errorf("notices: got %+v", tr.Notices)
	}

	tr = decodeResult(t, callTool(t, s, "annotation_open_file", map[string]interface{}{"path": annPath}))
	if tr.State.ImageCount != 2 {
		t.Errorf("ImageCount: got %d, want 2", tr.State.ImageCount)
	}
	if tr.State.Image == nil || tr.State.Image.FileName != "one.png" {
		t.Fatalf("Image: got %+v", tr.State.Image)
	}
	if len(tr.State.Shapes) != 1 {
		t.Errorf("Shapes: got %d, want 1", len(tr.State.Shapes))
	}
}

func TestHandleToolsCall_OpenFileBeforeFolder(t *testing.T) {
	s := newTestServer()
	annPath, _ := createTestWorkspace(t)

	resp := callTool(t, s, "annotation_open_file", map[string]interface{}{"path": annPath})
	if resp.Error == nil {
		t.Fatal("expected error without an images folder")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error.Code: got %d, want -32000", resp.Error.Code)
	}

	data, ok := resp.Error.Data.(ToolError)
	if !ok {
		t.Fatalf("Error.Data: got %T, want ToolError", resp.Error.Data)
	}
	if data.Message != "Please load JSON file and images folder first." {
		t.Errorf("Message: got %q", data.Message)
	}
	if len(data.Notices) != 2 {
		t.Errorf("Notices: got %d, want 2", len(data.Notices))
	}
}

func TestHandleToolsCall_MissingPath(t *testing.T) {
	s := newTestServer()
	for _, name := range []string{"annotation_open_file", "annotation_open_folder", "annotation_export_frame"} {
		resp := callTool(t, s, name, map[string]interface{}{})
		if resp.Error == nil {
			t.Errorf("%s: expected error for missing path", name)
		}
	}
}

func TestHandleToolsCall_ClickAndSetClass(t *testing.T) {
	s := newTestServer()
	annPath, _ := openWorkspace(t, s)

	tr := decodeResult(t, callTool(t, s, "annotation_click", map[string]interface{}{"x": 52, "y": 38}))
	if tr.State.Selected == nil || tr.State.Selected.AnnotationID != 7 {
		t.Fatalf("Selected: got %+v", tr.State.Selected)
	}

	tr = decodeResult(t, callTool(t, s, "annotation_set_class", map[string]interface{}{"class_name": "mole"}))
	if tr.State.Status != "Class name updated successfully." {
		t.Errorf("Status: got %q", tr.State.Status)
	}

	c, err := annotations.Load(annPath)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if c.Annotations[0].ClassName != "mole" {
		t.Errorf("ClassName: got %s, want mole", c.Annotations[0].ClassName)
	}
}

func TestHandleToolsCall_SetClassWithoutSelection(t *testing.T) {
	s := newTestServer()
	annPath, _ := openWorkspace(t, s)
	before, _ := os.ReadFile(annPath)

	resp := callTool(t, s, "annotation_set_class", map[string]interface{}{"class_name": "mole"})
	if resp.Error == nil {
		t.Fatal("expected error without a selection")
	}
	data := resp.Error.Data.(ToolError)
	if data.Message != "Please select an annotation first." {
		t.Errorf("Message: got %q", data.Message)
	}

	after, _ := os.ReadFile(annPath)
	if string(before) != string(after) {
		t.Error("annotation file changed")
	}
}

func TestHandleToolsCall_Navigation(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)

	tr := decodeResult(t, callTool(t, s, "annotation_next", nil))
	if tr.State.Index != 1 || tr.State.Image.FileName != "two.png" {
		t.Errorf("after next: index %d, image %+v", tr.State.Index, tr.State.Image)
	}

	resp := callTool(t, s, "annotation_next", nil)
	if resp.Error == nil {
		t.Fatal("expected error past the last image")
	}
	if msg := resp.Error.Data.(ToolError).Message; msg != "No more images to display." {
		t.Errorf("Message: got %q", msg)
	}

	tr = decodeResult(t, callTool(t, s, "annotation_previous", nil))
	if tr.State.Index != 0 {
		t.Errorf("after previous: index %d, want 0", tr.State.Index)
	}
}

func TestHandleToolsCall_Zoom(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)

	tr := decodeResult(t, callTool(t, s, "annotation_zoom", map[string]interface{}{"delta": 1}))
	if tr.State.Zoom < 1.09 || tr.State.Zoom > 1.11 {
		t.Errorf("Zoom: got %v, want 1.1", tr.State.Zoom)
	}
	if tr.State.Image.DisplayWidth != 110 {
		t.Errorf("DisplayWidth: got %d, want 110", tr.State.Image.DisplayWidth)
	}
}

func TestHandleToolsCall_ViewWithImage(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)

	resp := callTool(t, s, "annotation_view", map[string]interface{}{"include_image": true})
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 2 {
		t.Fatalf("content blocks: got %d, want 2", len(content))
	}
	if content[1]["type"] != "image" || content[1]["mimeType"] != "image/png" {
		t.Errorf("image block: got %v", content[1])
	}

	data, err := base64.StdEncoding.DecodeString(content[1]["data"].(string))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Errorf("frame size: got %v", img.Bounds())
	}
}

func TestHandleToolsCall_ViewWithoutFrame(t *testing.T) {
	s := newTestServer()

	tr := decodeResult(t, callTool(t, s, "annotation_view", nil))
	if tr.State.Image != nil {
		t.Errorf("Image: got %+v, want nil", tr.State.Image)
	}

	resp := callTool(t, s, "annotation_view", map[string]interface{}{"include_image": true})
	if resp.Error == nil {
		t.Error("expected error composing without a frame")
	}
}

func TestHandleToolsCall_ExportFrame(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)
	out := filepath.Join(t.TempDir(), "frame.png")

	tr := decodeResult(t, callTool(t, s, "annotation_export_frame", map[string]interface{}{"path": out}))
	if tr.Exported != out {
		t.Errorf("Exported: got %s, want %s", tr.Exported, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("exported file: %v", err)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "nonexistent_tool", nil)

	if resp.Error == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error.Code: got %d, want -32000", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid params")
	}
	if resp.Error.Code != -32602 {
		t.Errorf("Error.Code: got %d, want -32602", resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidArguments(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "annotation_click", map[string]interface{}{"x": "left"})

	if resp.Error == nil {
		t.Fatal("Expected error for invalid arguments")
	}
}

func TestHandleToolsCall_CloseUp(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)

	resp := callTool(t, s, "annotation_close_up", nil)
	if resp.Error == nil {
		t.Fatal("expected error without a selection")
	}

	callTool(t, s, "annotation_click", map[string]interface{}{"x": 50, "y": 40})
	resp = callTool(t, s, "annotation_close_up", map[string]interface{}{"margin": 0, "scale": 2})
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	content := resp.Result.(map[string]interface{})["content"].([]map[string]interface{})
	if len(content) != 2 {
		t.Fatalf("content blocks: got %d, want 2", len(content))
	}
	var cu CloseUpResult
	if err := json.Unmarshal([]byte(content[0]["text"].(string)), &cu); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if cu.AnnotationID != 7 {
		t.Errorf("AnnotationID: got %d, want 7", cu.AnnotationID)
	}
	if cu.Region != [4]int{40, 30, 60, 50} {
		t.Errorf("Region: got %v", cu.Region)
	}
	if cu.Width != 40 || cu.Height != 40 {
		t.Errorf("size: got %dx%d, want 40x40", cu.Width, cu.Height)
	}
	if cu.Color == nil || cu.Color.Hex != "#ffffff" {
		t.Errorf("mean color: got %+v", cu.Color)
	}
}

func TestHandleToolsCall_CloseUpInvalidScale(t *testing.T) {
	s := newTestServer()
	openWorkspace(t, s)
	callTool(t, s, "annotation_click", map[string]interface{}{"x": 50, "y": 40})

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"huge scale", map[string]interface{}{"scale": 1e16}},
		{"negative scale", map[string]interface{}{"scale": -2}},
		{"negative margin", map[string]interface{}{"margin": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, "annotation_close_up", tt.args)
			if resp.Error == nil {
				t.Fatal("expected error")
			}
			if resp.Error.Code != -32602 {
				t.Errorf("Error code: got %d, want -32602", resp.Error.Code)
			}
		})
	}

	// the session is still usable afterwards
	resp := callTool(t, s, "annotation_close_up", nil)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
}

func TestHandleToolsCall_PanicReleasesSession(t *testing.T) {
	s := New(nil, "test")

	for i := 0; i < 2; i++ {
		resp := callTool(t, s, "annotation_next", nil)
		if resp.Error == nil {
			t.Fatalf("call %d: expected error from a tool without a session", i)
		}
		if resp.Error.Code != -32000 {
			t.Errorf("call %d: Error code: got %d, want -32000", i, resp.Error.Code)
		}
	}
}

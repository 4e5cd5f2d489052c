package server

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ironsheep/annotation-review/internal/imaging"
	"github.com/ironsheep/annotation-review/internal/notify"
	"github.com/ironsheep/annotation-review/internal/viewer"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "annotation_click").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is what every session tool returns: the state after the call
// and the notices it raised.
type ToolResult struct {
	State    viewer.State    `json:"state"`
	Notices  []notify.Notice `json:"notices,omitempty"`
	Exported string          `json:"exported,omitempty"`

	// Frame is sent as an image content block, not inside the JSON text.
	Frame *imaging.EncodedImage `json:"-"`
}

// ToolError is the data of a -32000 error response. Message is what the
// reviewer would have been shown.
type ToolError struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Notices []notify.Notice `json:"notices,omitempty"`
	State   viewer.State    `json:"state"`
}

type dispatchError struct {
	err  error
	data ToolError
}

func (e *dispatchError) Error() string { return e.err.Error() }
func (e *dispatchError) Unwrap() error { return e.err }

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// A frame, when requested, follows as an image block. Tool execution errors
// return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.runTool(params.Name, params.Arguments)
	if err != nil {
		log.WithFields(log.Fields{
			"tool":  params.Name,
			"error": err,
		}).Debug("Tool failed")

		if errors.Is(err, imaging.ErrInvalidCloseUp) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		var de *dispatchError
		if errors.As(err, &de) {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", de.data)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": mustMarshalJSON(result),
		},
	}
	if frame := attachedImage(result); frame != nil {
		content = append(content, map[string]interface{}{
			"type":     "image",
			"data":     frame.ImageBase64,
			"mimeType": frame.MimeType,
		})
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": content,
		},
	}
}

// runTool runs one tool with the session locked. A panic in a tool is
// turned into an error so the stdio loop keeps serving.
func (s *Server) runTool(name string, args json.RawMessage) (result interface{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"tool":  name,
				"panic": r,
			}).Error("Tool panicked")
			result, err = nil, fmt.Errorf("tool %s failed: %v", name, r)
		}
	}()
	return s.executeTool(name, args)
}

// attachedImage returns the image a result carries outside its JSON, if any.
func attachedImage(result interface{}) *imaging.EncodedImage {
	switch r := result.(type) {
	case *ToolResult:
		return r.Frame
	case *CloseUpResult:
		return r.Frame
	}
	return nil
}

// executeTool dispatches tool execution to the appropriate handler function.
// The caller holds s.mu.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Loading
	case "annotation_open_file":
		return s.handleOpenFile(args)
	case "annotation_open_folder":
		return s.handleOpenFolder(args)

	// Interaction
	case "annotation_click":
		return s.handleClick(args)
	case "annotation_zoom":
		return s.handleZoom(args)
	case "annotation_next":
		return s.dispatch(viewer.KeyRight{})
	case "annotation_previous":
		return s.dispatch(viewer.KeyLeft{})
	case "annotation_set_class":
		return s.handleSetClass(args)

	// Inspection
	case "annotation_view":
		return s.handleView(args)
	case "annotation_export_frame":
		return s.handleExportFrame(args)
	case "annotation_close_up":
		return s.handleCloseUp(args)
	case "annotation_classes":
		return map[string]interface{}{"classes": s.session.Classes()}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// dispatch applies ev and reports the outcome. A failed event becomes a
// dispatchError carrying the notice the reviewer would have seen.
func (s *Server) dispatch(ev viewer.Event) (*ToolResult, error) {
	err := s.session.Dispatch(ev)
	notices := s.session.Notifier().Drain()
	if err != nil {
		data := ToolError{
			Message: err.Error(),
			Error:   err.Error(),
			Notices: notices,
			State:   s.session.Snapshot(),
		}
		if len(notices) > 0 {
			data.Message = notices[len(notices)-1].Message
		}
		return nil, &dispatchError{err: err, data: data}
	}
	return &ToolResult{State: s.session.Snapshot(), Notices: notices}, nil
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Loading Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleOpenFile(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.dispatch(viewer.FilePicked{Path: a.Path})
}

func (s *Server) handleOpenFolder(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.dispatch(viewer.FolderPicked{Path: a.Path})
}

// === Interaction Handlers ===

type clickArgs struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Server) handleClick(args json.RawMessage) (interface{}, error) {
	var a clickArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.dispatch(viewer.Click{Point: viewer.Point{X: a.X, Y: a.Y}})
}

type zoomArgs struct {
	Delta float64 `json:"delta"`
}

func (s *Server) handleZoom(args json.RawMessage) (interface{}, error) {
	var a zoomArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.dispatch(viewer.Wheel{Delta: a.Delta})
}

type setClassArgs struct {
	ClassName string `json:"class_name"`
}

func (s *Server) handleSetClass(args json.RawMessage) (interface{}, error) {
	var a setClassArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.dispatch(viewer.ClassNameChosen{Value: a.ClassName})
}

// === Inspection Handlers ===

type viewArgs struct {
	IncludeImage bool `json:"include_image"`
}

func (s *Server) handleView(args json.RawMessage) (interface{}, error) {
	var a viewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	result := &ToolResult{
		State:   s.session.Snapshot(),
		Notices: s.session.Notifier().Drain(),
	}
	if a.IncludeImage {
		img, err := s.session.Compose()
		if err != nil {
			return nil, err
		}
		result.Frame, err = imaging.EncodeBase64(img)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Server) handleExportFrame(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := s.session.Export(a.Path); err != nil {
		return nil, err
	}
	return &ToolResult{
		State:    s.session.Snapshot(),
		Notices:  s.session.Notifier().Drain(),
		Exported: a.Path,
	}, nil
}

// CloseUpResult describes the crop returned by annotation_close_up.
type CloseUpResult struct {
	AnnotationID int64                `json:"annotation_id"`
	ClassName    string               `json:"class_name"`
	Region       [4]int               `json:"region"` // x1, y1, x2, y2 in image pixels
	Width        int                  `json:"width"`
	Height       int                  `json:"height"`
	Color        *imaging.ColorResult `json:"mean_color"`

	Frame *imaging.EncodedImage `json:"-"`
}

type closeUpArgs struct {
	Margin *float64 `json:"margin"`
	Scale  float64  `json:"scale"`
}

func (s *Server) handleCloseUp(args json.RawMessage) (interface{}, error) {
	var a closeUpArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	margin := 0.5
	if a.Margin != nil {
		margin = *a.Margin
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if err := imaging.CheckCloseUp(margin, a.Scale); err != nil {
		return nil, err
	}

	cu, err := s.session.CloseUp(margin, a.Scale)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeBase64(cu.Image)
	if err != nil {
		return nil, err
	}
	return &CloseUpResult{
		AnnotationID: cu.Annotation.ID,
		ClassName:    cu.Annotation.ClassName,
		Region:       [4]int{cu.Region.Min.X, cu.Region.Min.Y, cu.Region.Max.X, cu.Region.Max.Y},
		Width:        encoded.Width,
		Height:       encoded.Height,
		Color:        cu.Color,
		Frame:        encoded,
	}, nil
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArguments() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Loading
		{
			Name:        "annotation_open_file",
			Description: "Open an annotation JSON file and show its first image. Fails with a notice if the images folder is not open yet; the file stays loaded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the annotation JSON file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "annotation_open_folder",
			Description: "Open the folder the annotation file's image names are resolved against. Shows the current image when a file is already open.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the images folder",
					},
				},
				"required": []string{"path"},
			},
		},

		// Interaction
		{
			Name:        "annotation_click",
			Description: "Click on the displayed frame. Selects the topmost annotation whose bounding box contains the point, or clears the selection on a miss.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate in displayed frame pixels",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate in displayed frame pixels",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "annotation_zoom",
			Description: "Zoom in by 10% for a positive delta, out by 10% otherwise. Zoom is clamped to the configured range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"delta": map[string]interface{}{
						"type":        "number",
						"description": "Wheel delta; only the sign matters",
					},
				},
				"required": []string{"delta"},
			},
		},
		{
			Name:        "annotation_next",
			Description: "Show the next image. Past the last image the current one stays on display.",
			InputSchema: noArguments(),
		},
		{
			Name:        "annotation_previous",
			Description: "Show the previous image. Does nothing on the first image.",
			InputSchema: noArguments(),
		},
		{
			Name:        "annotation_set_class",
			Description: "Change the class name of the selected annotation and save the file immediately.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"class_name": map[string]interface{}{
						"type":        "string",
						"description": "New class name; must be one of the configured classes",
					},
				},
				"required": []string{"class_name"},
			},
		},

		// Inspection
		{
			Name:        "annotation_view",
			Description: "Return the session state: current image, outlines in display coordinates, selection and status. Optionally includes the composed frame as a PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Attach the frame with outlines drawn. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "annotation_export_frame",
			Description: "Write the displayed frame with its outlines to a PNG file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the PNG to write",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "annotation_close_up",
			Description: "Cut the selected annotation out of the full-resolution image, independent of zoom, and report its mean color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"margin": map[string]interface{}{
						"type":        "number",
						"description": "Padding around the circle as a multiple of its radius. Default 0.5",
						"default":     0.5,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Resize factor for the crop (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
			},
		},
		{
			Name:        "annotation_classes",
			Description: "List the class names an annotation may be given.",
			InputSchema: noArguments(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// Package server implements the MCP (Model Context Protocol) front-end of the
// annotation reviewer.
//
// The server drives a single viewer.Session. Every tool call is translated
// into one viewer event, or into a read of the session, so an MCP client
// reviews annotations exactly as a person at the keyboard would.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Loading:
//   - annotation_open_file: Open the annotation JSON file
//   - annotation_open_folder: Open the images folder
//
// Interaction:
//   - annotation_click: Select the annotation under a point
//   - annotation_zoom: Zoom in or out one step
//   - annotation_next, annotation_previous: Page through images
//   - annotation_set_class: Relabel the selection and save
//
// Inspection:
//   - annotation_view: Session state, optionally with the composed frame
//   - annotation_export_frame: Write the composed frame to a PNG
//   - annotation_close_up: The selected annotation cut from the full-size image
//   - annotation_classes: The class vocabulary
//
// # Results
//
// Session tools return a ToolResult: the session snapshot after the call and
// the notices it raised. annotation_view with include_image adds an MCP image
// content block holding the frame as PNG.
//
// # Error Handling
//
// A failed event is returned as a JSON-RPC error with code -32000. Its data is
// a ToolError whose message is the notice the reviewer would have seen, for
// example "No more images to display.". Malformed tools/call params use the
// standard -32602 code.
//
// # Usage
//
//	srv := server.New(session, version)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server

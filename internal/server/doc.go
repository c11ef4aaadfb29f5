// Package server implements the MCP (Model Context Protocol) server for the
// page color picker.
//
// This package provides a JSON-RPC 2.0 server that exposes color conversion,
// image sampling and page color resolution through the MCP protocol, so an
// MCP client can ask "what color is at this point of this page".
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
// Requests are handled one at a time, in arrival order.
//
// # Available Tools
//
// Color Conversion:
//   - color_parse: Canonicalize any CSS color string
//   - color_convert: Convert between hex, RGB and HSL
//   - color_lighten: Raise HSL lightness by a percentage
//   - color_swatch: Render the picker's gradient swatch as PNG
//
// Image Files:
//   - image_sample_color: Get color at pixel
//   - image_sample_colors_multi: Sample multiple points
//   - image_loupe: Magnify the pixels around a point
//
// Pages:
//   - page_open: Load a page with the static or browser backend
//   - page_close: Release a page
//   - page_list: List open pages
//   - color_resolve_at: Resolve the color at a viewport position
//
// Picker Session:
//   - picker_start, picker_cancel: Session lifecycle
//   - picker_hover: Live preview (color, gradient, window position)
//   - picker_pick: Resolve, record in history and stop
//   - picker_key: Forward a key press (Escape cancels)
//   - picker_history: Recently picked colors
//
// # Backends
//
// The static backend parses HTML and CSS in process and lays elements out
// with absolute positioning. The browser backend drives headless Chrome
// through chromedp and reads the browser's own hit testing and computed
// styles. Both satisfy Document.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A position whose color cannot be determined is not an error: it resolves
// to white. A picker call cancelled mid-resolution returns
// {"cancelled": true}.
//
// # Usage
//
//	settings, _, err := config.Resolve("", os.Getenv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(settings)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

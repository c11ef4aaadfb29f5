package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

var (
	pageIDProp = stringProp("Page id returned by page_open")
	viewportX  = numberProp("Viewport X coordinate in CSS pixels")
	viewportY  = numberProp("Viewport Y coordinate in CSS pixels")
	colorProp  = stringProp("Color in any CSS syntax: #hex, rgb(), hsl() or a named color")
)

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Color Conversion
		{
			Name:        "color_parse",
			Description: "Parse a color string into hex, rgb and hsl. Unparseable input yields white. With page_id, named colors are resolved by that page.",
			InputSchema: objectSchema(map[string]interface{}{
				"value":   colorProp,
				"page_id": pageIDProp,
			}, "value"),
		},
		{
			Name:        "color_convert",
			Description: "Convert between color representations. Give exactly one of hex, rgb or hsl.",
			InputSchema: objectSchema(map[string]interface{}{
				"hex": stringProp("#rgb or #rrggbb"),
				"rgb": objectSchema(map[string]interface{}{
					"r": integerProp("Red 0-255"),
					"g": integerProp("Green 0-255"),
					"b": integerProp("Blue 0-255"),
				}, "r", "g", "b"),
				"hsl": objectSchema(map[string]interface{}{
					"h": integerProp("Hue in degrees"),
					"s": integerProp("Saturation 0-100"),
					"l": integerProp("Lightness 0-100"),
				}, "h", "s", "l"),
			}),
		},
		{
			Name:        "color_lighten",
			Description: "Move each channel of a color toward white by a percentage of the remaining distance.",
			InputSchema: objectSchema(map[string]interface{}{
				"color":   colorProp,
				"percent": numberProp("Percentage 0-100"),
			}, "color", "percent"),
		},
		{
			Name:        "color_swatch",
			Description: "Render the picker preview swatch for a color as a base64-encoded PNG: a 45 degree gradient from the color to a lightened copy.",
			InputSchema: objectSchema(map[string]interface{}{
				"color":   colorProp,
				"lighten": numberProp("Lightening of the gradient end in percent. Default 10"),
				"width":   integerProp("Width in pixels. Default 120"),
				"height":  integerProp("Height in pixels. Default 60"),
			}, "color"),
		},

		// Image Files
		{
			Name:        "image_sample_color",
			Description: "Get the exact color value at a specific pixel coordinate of an image file or URL.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Image file path, file:, data: or http(s) URL"),
				"x":    integerProp("X coordinate (0-based, from left)"),
				"y":    integerProp("Y coordinate (0-based, from top)"),
			}, "path", "x", "y"),
		},
		{
			Name:        "image_sample_colors_multi",
			Description: "Get color values at multiple pixel coordinates in a single call.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Image file path, file:, data: or http(s) URL"),
				"points": map[string]interface{}{
					"type": "array",
					"items": objectSchema(map[string]interface{}{
						"x":     integerProp("X coordinate"),
						"y":     integerProp("Y coordinate"),
						"label": stringProp("Optional label for this point"),
					}, "x", "y"),
					"description": "Points to sample",
				},
			}, "path", "points"),
		},
		{
			Name:        "image_loupe",
			Description: "Magnify the pixels around a coordinate of an image, returned as a base64-encoded PNG.",
			InputSchema: objectSchema(map[string]interface{}{
				"path":   stringProp("Image file path, file:, data: or http(s) URL"),
				"x":      integerProp("Center X coordinate"),
				"y":      integerProp("Center Y coordinate"),
				"radius": integerProp("Pixels on each side of the center. Default 5"),
				"scale":  integerProp("Magnification factor. Default 8"),
				"grid": map[string]interface{}{
					"type":        "boolean",
					"description": "Draw pixel boundaries and outline the center pixel. Default false",
				},
				"grid_color": stringProp("CSS color of the pixel grid. Default #808080"),
			}, "path", "x", "y"),
		},

		// Pages
		{
			Name:        "page_open",
			Description: "Open a page for color picking. Static HTML files and URLs use the built-in page model; backend \"browser\" loads the page in Chrome.",
			InputSchema: objectSchema(map[string]interface{}{
				"source": stringProp("HTML file path, file: or http(s) URL"),
				"backend": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"static", "browser"},
					"description": "Document backend. Default static",
				},
			}, "source"),
		},
		{
			Name:        "page_close",
			Description: "Close a page opened with page_open.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
			}, "page_id"),
		},
		{
			Name:        "page_list",
			Description: "List open pages and their picker state.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "color_resolve_at",
			Description: "Resolve the color a user sees at a viewport position, with the strategy that produced it.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
				"x":       viewportX,
				"y":       viewportY,
			}, "page_id", "x", "y"),
		},

		// Picker Session
		{
			Name:        "picker_start",
			Description: "Start a picking session on a page. Starting an active session does nothing.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
			}, "page_id"),
		},
		{
			Name:        "picker_hover",
			Description: "Preview the color under the pointer: the color, the swatch gradient and the preview window position.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
				"x":       viewportX,
				"y":       viewportY,
			}, "page_id", "x", "y"),
		},
		{
			Name:        "picker_pick",
			Description: "Pick the color under the pointer, record it in the history and end the session.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
				"x":       viewportX,
				"y":       viewportY,
			}, "page_id", "x", "y"),
		},
		{
			Name:        "picker_key",
			Description: "Send a key press to the picker. Escape cancels the session.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
				"key":     stringProp("Key name, e.g. Escape"),
			}, "page_id", "key"),
		},
		{
			Name:        "picker_cancel",
			Description: "Cancel the picking session and any resolution in progress.",
			InputSchema: objectSchema(map[string]interface{}{
				"page_id": pageIDProp,
			}, "page_id"),
		},
		{
			Name:        "picker_history",
			Description: "List recently picked colors, newest first.",
			InputSchema: objectSchema(map[string]interface{}{
				"clear": map[string]interface{}{
					"type":        "boolean",
					"description": "Forget the history after listing it",
				},
			}),
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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
	"github.com/ironsheep/color-picker-mcp/internal/page"
	"github.com/ironsheep/color-picker-mcp/internal/resolve"
)

// Document backends accepted by page_open.
const (
	BackendStatic  = "static"
	BackendBrowser = "browser"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "color_parse", "picker_pick").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A color that cannot be resolved is not an error; it resolves to white.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		logging.Logger().Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	switch name {
	// Color Conversion
	case "color_parse":
		return s.handleColorParse(args)
	case "color_convert":
		return s.handleColorConvert(args)
	case "color_lighten":
		return s.handleColorLighten(args)
	case "color_swatch":
		return s.handleColorSwatch(args)

	// Image Files
	case "image_sample_color":
		return s.handleImageSampleColor(ctx, args)
	case "image_sample_colors_multi":
		return s.handleImageSampleColorsMulti(ctx, args)
	case "image_loupe":
		return s.handleImageLoupe(ctx, args)

	// Pages
	case "page_open":
		return s.handlePageOpen(ctx, args)
	case "page_close":
		return s.handlePageClose(args)
	case "page_list":
		return s.handlePageList()
	case "color_resolve_at":
		return s.handleColorResolveAt(ctx, args)

	// Picker Session
	case "picker_start":
		return s.handlePickerStart(ctx, args)
	case "picker_hover":
		return s.handlePickerHover(args)
	case "picker_pick":
		return s.handlePickerPick(args)
	case "picker_key":
		return s.handlePickerKey(args)
	case "picker_cancel":
		return s.handlePickerCancel(args)
	case "picker_history":
		return s.handlePickerHistory(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
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

// === Color Conversion Handlers ===

type colorResult struct {
	Color colorspace.Color `json:"color"`
}

type colorParseArgs struct {
	Value  string `json:"value"`
	PageID string `json:"page_id"`
}

func (s *Server) handleColorParse(args json.RawMessage) (interface{}, error) {
	var a colorParseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	parser := colorspace.Parser{}
	if a.PageID != "" {
		p, err := s.page(a.PageID)
		if err != nil {
			return nil, err
		}
		if c, ok := p.doc.(colorspace.Computer); ok {
			parser.Computer = c
		}
	}
	return colorResult{Color: parser.Parse(a.Value)}, nil
}

type colorConvertArgs struct {
	Hex *string `json:"hex"`
	RGB *struct {
		R int `json:"r"`
		G int `json:"g"`
		B int `json:"b"`
	} `json:"rgb"`
	HSL *struct {
		H int `json:"h"`
		S int `json:"s"`
		L int `json:"l"`
	} `json:"hsl"`
}

func (s *Server) handleColorConvert(args json.RawMessage) (interface{}, error) {
	var a colorConvertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	given := 0
	for _, set := range []bool{a.Hex != nil, a.RGB != nil, a.HSL != nil} {
		if set {
			given++
		}
	}
	if given != 1 {
		return nil, errors.New("exactly one of hex, rgb or hsl is required")
	}

	switch {
	case a.Hex != nil:
		c, ok := colorspace.FromHex(*a.Hex)
		if !ok {
			return nil, fmt.Errorf("invalid hex color %q", *a.Hex)
		}
		return colorResult{Color: c}, nil
	case a.RGB != nil:
		for _, v := range []int{a.RGB.R, a.RGB.G, a.RGB.B} {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("rgb channel %d out of range 0-255", v)
			}
		}
		return colorResult{Color: colorspace.FromRGB(uint8(a.RGB.R), uint8(a.RGB.G), uint8(a.RGB.B))}, nil
	default:
		return colorResult{Color: colorspace.FromHSL(a.HSL.H, a.HSL.S, a.HSL.L)}, nil
	}
}

type colorLightenArgs struct {
	Color   string  `json:"color"`
	Percent float64 `json:"percent"`
}

func (s *Server) handleColorLighten(args json.RawMessage) (interface{}, error) {
	var a colorLightenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Percent < 0 || a.Percent > 100 {
		return nil, fmt.Errorf("percent %v out of range 0-100", a.Percent)
	}
	return colorResult{Color: colorspace.Lighten(colorspace.ParseColorString(a.Color), a.Percent)}, nil
}

type colorSwatchArgs struct {
	Color   string   `json:"color"`
	Lighten *float64 `json:"lighten"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
}

func (s *Server) handleColorSwatch(args json.RawMessage) (interface{}, error) {
	var a colorSwatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lighten := 10.0
	if a.Lighten != nil {
		lighten = *a.Lighten
	}
	if a.Width == 0 {
		a.Width = 120
	}
	if a.Height == 0 {
		a.Height = 60
	}
	c := colorspace.ParseColorString(a.Color)
	return imaging.Swatch(c, colorspace.Lighten(c, lighten), a.Width, a.Height)
}

// === Image File Handlers ===

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loader.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

type imageSampleColorsMultiArgs struct {
	Path   string                 `json:"path"`
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleImageSampleColorsMulti(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageSampleColorsMultiArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.loader.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColorsMulti(img, a.Points)
}

type imageLoupeArgs struct {
	Path      string `json:"path"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Radius    *int   `json:"radius"`
	Scale     int    `json:"scale"`
	Grid      bool   `json:"grid"`
	GridColor string `json:"grid_color"`
}

func (s *Server) handleImageLoupe(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoupeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	radius := 5
	if a.Radius != nil {
		radius = *a.Radius
	}
	if a.Scale == 0 {
		a.Scale = 8
	}
	img, err := s.loader.Load(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	if a.Grid {
		if a.GridColor == "" {
			a.GridColor = "#808080"
		}
		return imaging.GridLoupe(img, a.X, a.Y, radius, a.Scale, a.GridColor)
	}
	return imaging.Loupe(img, a.X, a.Y, radius, a.Scale)
}

// === Page Handlers ===

type pageInfo struct {
	PageID  string `json:"page_id"`
	Source  string `json:"source"`
	Backend string `json:"backend"`
	Origin  string `json:"origin"`
	Picker  string `json:"picker"`
}

func (p *openPage) info() pageInfo {
	return pageInfo{
		PageID:  p.id,
		Source:  p.source,
		Backend: p.backend,
		Origin:  p.doc.Origin(),
		Picker:  p.session.State().String(),
	}
}

// staticDocument adapts the in-memory page model to Document.
type staticDocument struct {
	*page.Document
}

func (staticDocument) Close() error { return nil }

type pageOpenArgs struct {
	Source  string `json:"source"`
	Backend string `json:"backend"`
}

func (s *Server) handlePageOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pageOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Source) == "" {
		return nil, errors.New("source is required")
	}

	doc, backend, err := s.openDocument(ctx, a.Source, a.Backend)
	if err != nil {
		return nil, err
	}
	a.Backend = backend

	session := resolve.NewSession(s.pipeline, doc)
	session.ViewportWidth = float64(s.settings.ViewportWidth)

	s.mu.Lock()
	s.nextID++
	p := &openPage{
		id:      fmt.Sprintf("page-%d", s.nextID),
		source:  a.Source,
		backend: a.Backend,
		doc:     doc,
		session: session,
	}
	s.pages[p.id] = p
	s.mu.Unlock()

	logging.Logger().Info("page registered", "page", p.id, "source", a.Source, "backend", a.Backend)
	return p.info(), nil
}

// openDocument loads source with the named backend ("" means static) and
// returns the canonical backend name.
func (s *Server) openDocument(ctx context.Context, source, backend string) (Document, string, error) {
	switch backend {
	case "", BackendStatic:
		d, err := page.Open(ctx, source, page.Options{
			Width:       float64(s.settings.ViewportWidth),
			Height:      float64(s.settings.ViewportHeight),
			Loader:      s.loader,
			Policy:      s.settings.Policy(),
			Concurrency: s.settings.Concurrency,
		})
		if err != nil {
			return nil, "", err
		}
		return staticDocument{d}, BackendStatic, nil
	case BackendBrowser:
		d, err := s.openBrowser(ctx, browserURL(source), s.settings)
		if err != nil {
			return nil, "", err
		}
		return d, BackendBrowser, nil
	}
	return nil, "", fmt.Errorf("unknown backend: %s", backend)
}

// ResolveSource opens source, resolves the color at pos and closes the
// page again. It backs one-shot lookups outside an MCP session.
func (s *Server) ResolveSource(ctx context.Context, source, backend string, pos dom.Position) (resolve.Resolution, error) {
	doc, _, err := s.openDocument(ctx, source, backend)
	if err != nil {
		return resolve.Resolution{}, err
	}
	defer func() {
		if err := doc.Close(); err != nil {
			logging.Logger().Warn("failed to close page", "source", source, "error", err)
		}
	}()
	return s.pipeline.ResolveAt(ctx, doc, pos), nil
}

// browserURL turns a file path into a file: URL.
func browserURL(src string) string {
	if strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return src
	}
	abs, err := filepath.Abs(src)
	if err != nil {
		return src
	}
	return "file://" + filepath.ToSlash(abs)
}

type pageIDArgs struct {
	PageID string `json:"page_id"`
}

func (s *Server) page(id string) (*openPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, fmt.Errorf("unknown page: %q", id)
	}
	return p, nil
}

func (s *Server) pageFromArgs(args json.RawMessage) (*openPage, error) {
	var a pageIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.page(a.PageID)
}

func (s *Server) handlePageClose(args json.RawMessage) (interface{}, error) {
	p, err := s.pageFromArgs(args)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.pages, p.id)
	s.mu.Unlock()

	p.session.Cancel()
	if err := p.doc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", p.id, err)
	}
	return map[string]interface{}{"page_id": p.id, "closed": true}, nil
}

func (s *Server) handlePageList() (interface{}, error) {
	s.mu.Lock()
	pages := make([]*openPage, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	sort.Slice(pages, func(i, j int) bool { return pages[i].id < pages[j].id })
	out := make([]pageInfo, len(pages))
	for i, p := range pages {
		out[i] = p.info()
	}
	return map[string]interface{}{"pages": out}, nil
}

type positionArgs struct {
	PageID string  `json:"page_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

func (a positionArgs) position() dom.Position { return dom.Position{X: a.X, Y: a.Y} }

func (s *Server) handleColorResolveAt(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a positionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.page(a.PageID)
	if err != nil {
		return nil, err
	}
	return s.pipeline.ResolveAt(ctx, p.doc, a.position(), p.session.Layers()...), nil
}

// === Picker Session Handlers ===

// cancelled is the result of a picker call whose resolution was cancelled.
var cancelled = map[string]interface{}{"cancelled": true}

func (s *Server) handlePickerStart(ctx context.Context, args json.RawMessage) (interface{}, error) {
	p, err := s.pageFromArgs(args)
	if err != nil {
		return nil, err
	}
	if err := p.session.Start(ctx); err != nil {
		return nil, err
	}
	return p.info(), nil
}

func (s *Server) handlePickerHover(args json.RawMessage) (interface{}, error) {
	var a positionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.page(a.PageID)
	if err != nil {
		return nil, err
	}
	preview, err := p.session.Hover(a.position())
	if errors.Is(err, context.Canceled) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}
	return preview, nil
}

func (s *Server) handlePickerPick(args json.RawMessage) (interface{}, error) {
	var a positionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.page(a.PageID)
	if err != nil {
		return nil, err
	}
	r, err := p.session.Pick(a.position())
	if errors.Is(err, context.Canceled) {
		return cancelled, nil
	}
	if err != nil {
		return nil, err
	}
	s.history.Add(r.Color)
	return r, nil
}

type pickerKeyArgs struct {
	PageID string `json:"page_id"`
	Key    string `json:"key"`
}

func (s *Server) handlePickerKey(args json.RawMessage) (interface{}, error) {
	var a pickerKeyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.page(a.PageID)
	if err != nil {
		return nil, err
	}
	handled := p.session.HandleKey(a.Key)
	return map[string]interface{}{"handled": handled, "picker": p.session.State().String()}, nil
}

func (s *Server) handlePickerCancel(args json.RawMessage) (interface{}, error) {
	p, err := s.pageFromArgs(args)
	if err != nil {
		return nil, err
	}
	p.session.Cancel()
	return p.info(), nil
}

type pickerHistoryArgs struct {
	Clear bool `json:"clear"`
}

func (s *Server) handlePickerHistory(args json.RawMessage) (interface{}, error) {
	var a pickerHistoryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	colors := s.history.Colors()
	if colors == nil {
		colors = []colorspace.Color{}
	}
	if a.Clear {
		s.history.Clear()
	}
	return map[string]interface{}{"colors": colors}, nil
}

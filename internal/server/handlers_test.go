package server

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/color-picker-mcp/internal/config"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/page"
	"github.com/ironsheep/color-picker-mcp/internal/resolve"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

const testPage = `<html><body style="background-color: rgb(1, 2, 3)">
<div id="card" style="left: 0; top: 0; width: 200px; height: 100px; background-color: #ff0000"></div>
<div id="label" style="left: 200px; top: 0; width: 200px; height: 100px; color: rgb(0, 0, 255)"></div>
</body></html>`

func createTestPage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	if err := os.WriteFile(path, []byte(testPage), 0o644); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}
	return path
}

// callTool runs a tools/call request and decodes the text content into out.
// It returns the JSON-RPC error, if any.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPError {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode %s result: %v", name, err)
		}
	}
	return nil
}

// mustCall is callTool that fails the test on a tool error.
func mustCall(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()
	if err := callTool(t, s, name, args, out); err != nil {
		t.Fatalf("%s failed: %s: %v", name, err.Message, err.Data)
	}
}

type colorOut struct {
	Hex string `json:"hex"`
	RGB string `json:"rgb"`
	HSL string `json:"hsl"`
}

type colorEnvelope struct {
	Color colorOut `json:"color"`
}

type resolutionOut struct {
	Color    colorOut `json:"color"`
	Strategy string   `json:"strategy"`
	Rule     string   `json:"rule"`
	Element  string   `json:"element"`
}

type pageOut struct {
	PageID  string `json:"page_id"`
	Source  string `json:"source"`
	Backend string `json:"backend"`
	Origin  string `json:"origin"`
	Picker  string `json:"picker"`
}

func openTestPage(t *testing.T, s *Server) pageOut {
	t.Helper()
	var p pageOut
	mustCall(t, s, "page_open", map[string]interface{}{"source": createTestPage(t)}, &p)
	return p
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: []byte(`"nope"`)})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("Expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	err := callTool(t, s, "image_ocr_full", map[string]interface{}{}, nil)
	if err == nil || err.Code != -32000 {
		t.Fatalf("Expected -32000, got %+v", err)
	}
}

func TestColorParse(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		value string
		want  colorOut
	}{
		{"rgb(10, 20, 30)", colorOut{"#0a141e", "rgb(10, 20, 30)", "hsl(210, 50%, 8%)"}},
		{"#f00", colorOut{"#ff0000", "rgb(255, 0, 0)", "hsl(0, 100%, 50%)"}},
		{"tomato", colorOut{"#ff6347", "rgb(255, 99, 71)", "hsl(9, 100%, 64%)"}},
		{"not a color", colorOut{"#ffffff", "rgb(255, 255, 255)", "hsl(0, 0%, 100%)"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var out colorEnvelope
			mustCall(t, s, "color_parse", map[string]interface{}{"value": tt.value}, &out)
			if out.Color != tt.want {
				t.Errorf("got %+v, want %+v", out.Color, tt.want)
			}
		})
	}

	if err := callTool(t, s, "color_parse", map[string]interface{}{"value": "red", "page_id": "page-99"}, nil); err == nil {
		t.Error("Expected error for unknown page")
	}
}

func TestColorConvert(t *testing.T) {
	s := newTestServer(t)

	var out colorEnvelope
	mustCall(t, s, "color_convert", map[string]interface{}{"hex": "#abc"}, &out)
	if out.Color.RGB != "rgb(170, 187, 204)" {
		t.Errorf("hex: got %s", out.Color.RGB)
	}

	mustCall(t, s, "color_convert", map[string]interface{}{"rgb": map[string]int{"r": 10, "g": 20, "b": 30}}, &out)
	if out.Color.Hex != "#0a141e" {
		t.Errorf("rgb: got %s", out.Color.Hex)
	}

	mustCall(t, s, "color_convert", map[string]interface{}{"hsl": map[string]int{"h": 120, "s": 100, "l": 50}}, &out)
	if out.Color.Hex != "#00ff00" {
		t.Errorf("hsl: got %s", out.Color.Hex)
	}

	bad := []map[string]interface{}{
		{},
		{"hex": "#abc", "hsl": map[string]int{"h": 0, "s": 0, "l": 0}},
		{"hex": "#abcd"},
		{"rgb": map[string]int{"r": 256, "g": 0, "b": 0}},
	}
	for _, args := range bad {
		if err := callTool(t, s, "color_convert", args, nil); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestColorLighten(t *testing.T) {
	s := newTestServer(t)

	var out colorEnvelope
	mustCall(t, s, "color_lighten", map[string]interface{}{"color": "#ff0000", "percent": 10}, &out)
	if out.Color.Hex != "#ff1919" {
		t.Errorf("got %s, want #ff1919", out.Color.Hex)
	}

	if err := callTool(t, s, "color_lighten", map[string]interface{}{"color": "red", "percent": 101}, nil); err == nil {
		t.Error("Expected error for percent > 100")
	}
}

func TestColorSwatch(t *testing.T) {
	s := newTestServer(t)

	var out struct {
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ImageBase64 string `json:"image_base64"`
		MimeType    string `json:"mime_type"`
	}
	mustCall(t, s, "color_swatch", map[string]interface{}{"color": "red"}, &out)
	if out.Width != 120 || out.Height != 60 {
		t.Errorf("dimensions: got %dx%d, want 120x60", out.Width, out.Height)
	}
	if out.MimeType != "image/png" || out.ImageBase64 == "" {
		t.Errorf("unexpected image: %s, %d bytes", out.MimeType, len(out.ImageBase64))
	}

	if err := callTool(t, s, "color_swatch", map[string]interface{}{"color": "red", "width": 5000}, nil); err == nil {
		t.Error("Expected error for oversized swatch")
	}
}

func TestImageSampleColor(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 100, 80, color.NRGBA{255, 128, 0, 255})

	var out struct {
		Hex   string `json:"hex"`
		Alpha uint8  `json:"alpha"`
	}
	mustCall(t, s, "image_sample_color", map[string]interface{}{"path": path, "x": 50, "y": 40}, &out)
	if out.Hex != "#ff8000" || out.Alpha != 255 {
		t.Errorf("got %+v", out)
	}

	if err := callTool(t, s, "image_sample_color", map[string]interface{}{"path": path, "x": 100, "y": 0}, nil); err == nil {
		t.Error("Expected error for out-of-bounds pixel")
	}
	if err := callTool(t, s, "image_sample_color", map[string]interface{}{"path": "/nonexistent.png", "x": 0, "y": 0}, nil); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestImageSampleColorsMulti(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 10, 10, color.NRGBA{0, 0, 255, 255})

	var out []struct {
		Label string `json:"label"`
		Color struct {
			Hex string `json:"hex"`
		} `json:"color"`
	}
	mustCall(t, s, "image_sample_colors_multi", map[string]interface{}{
		"path":   path,
		"points": []map[string]interface{}{{"x": 0, "y": 0, "label": "corner"}, {"x": 9, "y": 9}},
	}, &out)
	if len(out) != 2 || out[0].Label != "corner" || out[1].Color.Hex != "#0000ff" {
		t.Errorf("got %+v", out)
	}
}

func TestImageLoupe(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 100, 80, color.NRGBA{0, 255, 0, 255})

	var out struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	mustCall(t, s, "image_loupe", map[string]interface{}{"path": path, "x": 50, "y": 40}, &out)
	if out.Width != 88 || out.Height != 88 {
		t.Errorf("dimensions: got %dx%d, want 88x88", out.Width, out.Height)
	}

	mustCall(t, s, "image_loupe", map[string]interface{}{"path": path, "x": 0, "y": 0, "radius": 2, "scale": 4, "grid": true}, &out)
	if out.Width != 12 || out.Height != 12 {
		t.Errorf("grid dimensions: got %dx%d, want 12x12", out.Width, out.Height)
	}
}

func TestPageLifecycle(t *testing.T) {
	s := newTestServer(t)
	p := openTestPage(t, s)

	if p.PageID != "page-1" || p.Backend != BackendStatic || p.Origin != "file://" || p.Picker != "idle" {
		t.Errorf("unexpected page: %+v", p)
	}

	var r resolutionOut
	mustCall(t, s, "color_resolve_at", map[string]interface{}{"page_id": p.PageID, "x": 50, "y": 50}, &r)
	if r.Color.Hex != "#ff0000" || r.Strategy != "style-cascade" || r.Rule != "background-color" || r.Element != "div#card" {
		t.Errorf("card: got %+v", r)
	}

	mustCall(t, s, "color_resolve_at", map[string]interface{}{"page_id": p.PageID, "x": 250, "y": 50}, &r)
	if r.Color.Hex != "#0000ff" || r.Rule != "color" {
		t.Errorf("label: got %+v", r)
	}

	var list struct {
		Pages []pageOut `json:"pages"`
	}
	mustCall(t, s, "page_list", map[string]interface{}{}, &list)
	if len(list.Pages) != 1 || list.Pages[0].PageID != p.PageID {
		t.Errorf("page_list: got %+v", list)
	}

	mustCall(t, s, "page_close", map[string]interface{}{"page_id": p.PageID}, nil)
	if err := callTool(t, s, "color_resolve_at", map[string]interface{}{"page_id": p.PageID, "x": 1, "y": 1}, nil); err == nil {
		t.Error("Expected error for closed page")
	}
	if err := callTool(t, s, "page_close", map[string]interface{}{"page_id": p.PageID}, nil); err == nil {
		t.Error("Expected error closing twice")
	}
}

func TestPageOpen_Errors(t *testing.T) {
	s := newTestServer(t)

	cases := []map[string]interface{}{
		{},
		{"source": filepath.Join(t.TempDir(), "missing.html")},
		{"source": createTestPage(t), "backend": "webkit"},
	}
	for _, args := range cases {
		if err := callTool(t, s, "page_open", args, nil); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestPageOpen_Browser(t *testing.T) {
	var openedURL string
	opener := func(ctx context.Context, url string, _ config.Settings) (Document, error) {
		openedURL = url
		doc, err := page.Parse(ctx, strings.NewReader(testPage), "https://app.test/", page.Options{Width: 800, Height: 600})
		if err != nil {
			return nil, err
		}
		return staticDocument{doc}, nil
	}
	s := newTestServer(t, WithBrowserOpener(opener))

	var p pageOut
	mustCall(t, s, "page_open", map[string]interface{}{"source": "relative/index.html", "backend": "browser"}, &p)
	if p.Backend != BackendBrowser || p.Origin != "https://app.test" {
		t.Errorf("unexpected page: %+v", p)
	}
	if !strings.HasPrefix(openedURL, "file://") || !strings.HasSuffix(openedURL, "/relative/index.html") {
		t.Errorf("file path not turned into a URL: %s", openedURL)
	}

	mustCall(t, s, "page_open", map[string]interface{}{"source": "https://app.test/x", "backend": "browser"}, &p)
	if openedURL != "https://app.test/x" {
		t.Errorf("URL should pass through: %s", openedURL)
	}
}

func TestPickerFlow(t *testing.T) {
	s := newTestServer(t)
	p := openTestPage(t, s)
	id := map[string]interface{}{"page_id": p.PageID}
	at := func(x, y float64) map[string]interface{} {
		return map[string]interface{}{"page_id": p.PageID, "x": x, "y": y}
	}

	if err := callTool(t, s, "picker_hover", at(50, 50), nil); err == nil {
		t.Fatal("Expected error hovering before start")
	}

	var started pageOut
	mustCall(t, s, "picker_start", id, &started)
	if started.Picker != "active" {
		t.Errorf("picker state: got %s, want active", started.Picker)
	}
	mustCall(t, s, "picker_start", id, nil)

	var preview struct {
		resolutionOut
		Gradient string `json:"gradient"`
		Window   struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"window"`
	}
	mustCall(t, s, "picker_hover", at(50, 50), &preview)
	if preview.Color.Hex != "#ff0000" || preview.Element != "div#card" {
		t.Errorf("hover looked at the wrong element: %+v", preview.resolutionOut)
	}
	if preview.Gradient != "linear-gradient(45deg, #ff0000, #ff1919)" {
		t.Errorf("gradient: got %s", preview.Gradient)
	}
	if preview.Window.X != 75 || preview.Window.Y != 75 {
		t.Errorf("window: got %+v, want (75, 75)", preview.Window)
	}

	var r resolutionOut
	mustCall(t, s, "color_resolve_at", at(50, 50), &r)
	if r.Element != "div#card" {
		t.Errorf("resolve_at during a session should look through the overlay, got %s", r.Element)
	}

	mustCall(t, s, "picker_pick", at(250, 50), &r)
	if r.Color.Hex != "#0000ff" {
		t.Errorf("pick: got %+v", r)
	}
	if err := callTool(t, s, "picker_pick", at(250, 50), nil); err == nil {
		t.Error("Expected error picking after the session ended")
	}

	mustCall(t, s, "picker_start", id, nil)
	mustCall(t, s, "picker_pick", at(50, 50), &r)

	var history struct {
		Colors []colorOut `json:"colors"`
	}
	mustCall(t, s, "picker_history", map[string]interface{}{"clear": true}, &history)
	if len(history.Colors) != 2 || history.Colors[0].Hex != "#ff0000" || history.Colors[1].Hex != "#0000ff" {
		t.Errorf("history: got %+v", history.Colors)
	}
	mustCall(t, s, "picker_history", map[string]interface{}{}, &history)
	if len(history.Colors) != 0 {
		t.Errorf("history not cleared: %+v", history.Colors)
	}
}

func TestPickerKeyAndCancel(t *testing.T) {
	s := newTestServer(t)
	p := openTestPage(t, s)
	id := map[string]interface{}{"page_id": p.PageID}

	var key struct {
		Handled bool   `json:"handled"`
		Picker  string `json:"picker"`
	}
	mustCall(t, s, "picker_key", map[string]interface{}{"page_id": p.PageID, "key": "Escape"}, &key)
	if key.Handled {
		t.Error("Escape should not be handled while idle")
	}

	mustCall(t, s, "picker_start", id, nil)
	mustCall(t, s, "picker_key", map[string]interface{}{"page_id": p.PageID, "key": "Enter"}, &key)
	if key.Handled || key.Picker != "active" {
		t.Errorf("Enter: got %+v", key)
	}
	mustCall(t, s, "picker_key", map[string]interface{}{"page_id": p.PageID, "key": "Escape"}, &key)
	if !key.Handled || key.Picker != "idle" {
		t.Errorf("Escape: got %+v", key)
	}

	mustCall(t, s, "picker_start", id, nil)
	var cancelled pageOut
	mustCall(t, s, "picker_cancel", id, &cancelled)
	if cancelled.Picker != "idle" {
		t.Errorf("cancel: got %s", cancelled.Picker)
	}
}

func TestResolveSource(t *testing.T) {
	s := newTestServer(t)
	path := createTestPage(t)

	r, err := s.ResolveSource(context.Background(), path, "", dom.Position{X: 10, Y: 10})
	if err != nil {
		t.Fatalf("ResolveSource failed: %v", err)
	}
	if r.Color.Hex() != "#ff0000" || r.Strategy != resolve.StrategyCascade {
		t.Errorf("got %s via %s", r.Color.Hex(), r.Strategy)
	}

	r, err = s.ResolveSource(context.Background(), path, "", dom.Position{X: 10, Y: 500})
	if err != nil {
		t.Fatalf("ResolveSource failed: %v", err)
	}
	if r.Color.Hex() != "#010203" || r.Rule != "background-color" || r.Element != "body" {
		t.Errorf("body: got %+v", r)
	}

	if _, err := s.ResolveSource(context.Background(), path, "webkit", dom.Position{}); err == nil {
		t.Error("Expected error for unknown backend")
	}

	var list struct {
		Pages []pageOut `json:"pages"`
	}
	mustCall(t, s, "page_list", map[string]interface{}{}, &list)
	if len(list.Pages) != 0 {
		t.Errorf("one-shot resolution should not register a page: %+v", list.Pages)
	}
}

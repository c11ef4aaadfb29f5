package page

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
)

func parse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), strings.NewReader(src), "/srv/site", Options{Width: 400, Height: 300})
	require.NoError(t, err)
	return doc
}

func styleOf(t *testing.T, doc *Document, id, pseudo string) dom.Style {
	t.Helper()
	el := doc.ElementByID(id)
	require.NotNil(t, el, "element %q", id)
	s, ok := el.ComputedStyle(pseudo)
	require.True(t, ok)
	return s
}

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func dataURL(b []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(b)
}

func TestParse_Cascade(t *testing.T) {
	doc := parse(t, `<!doctype html>
<html><head><style>
  .card { background-color: red; color: #0a141e; }
  .card { background-color: blue; }
  #important { background-color: green !important; }
  #important { background-color: yellow; }
  .badge::before { background: hsl(120, 100%, 50%); }
  .shadow { box-shadow: 2px 2px 4px red; text-shadow: 1px 1px navy; }
  .bordered { border-left: 1px solid rgb(1, 2, 3); outline: 2px solid orange; }
  .bg { background: url(img/bg.png) no-repeat; }
  @media screen { .media { background-color: rgb(9, 9, 9); } }
</style></head>
<body>
  <div id="card" class="card"><span id="child">text</span></div>
  <div id="important" style="background-color: purple"></div>
  <div id="inline" class="card" style="background-color: rgba(255, 0, 0, 0.5)"></div>
  <div id="badge" class="badge"></div>
  <div id="shadow" class="shadow"></div>
  <div id="bordered" class="bordered"></div>
  <div id="bg" class="bg"></div>
  <div id="media" class="media"></div>
  <div id="plain"></div>
  <svg id="svg" style="fill: red"><path id="path"/></svg>
</body></html>`)

	assert.Equal(t, "rgb(0, 0, 255)", styleOf(t, doc, "card", "").Value("background-color"), "later rule wins")
	assert.Equal(t, "rgb(10, 20, 30)", styleOf(t, doc, "card", "").Value("color"))
	assert.Equal(t, "rgb(10, 20, 30)", styleOf(t, doc, "child", "").Value("color"), "color inherits")
	assert.Equal(t, transparentValue, styleOf(t, doc, "child", "").Value("background-color"), "background does not inherit")

	assert.Equal(t, "rgb(0, 128, 0)", styleOf(t, doc, "important", "").Value("background-color"), "!important beats inline")
	assert.Equal(t, "rgba(255, 0, 0, 0.5)", styleOf(t, doc, "inline", "").Value("background-color"), "inline beats sheet")

	assert.Equal(t, "rgb(0, 255, 0)", styleOf(t, doc, "badge", "::before").Value("background-color"))
	assert.Equal(t, transparentValue, styleOf(t, doc, "badge", "::after").Value("background-color"))
	assert.Equal(t, transparentValue, styleOf(t, doc, "badge", "").Value("background-color"))

	shadow := styleOf(t, doc, "shadow", "")
	assert.Equal(t, "2px 2px 4px rgb(255, 0, 0)", shadow.Value("box-shadow"))
	assert.Equal(t, "1px 1px rgb(0, 0, 128)", shadow.Value("text-shadow"))

	bordered := styleOf(t, doc, "bordered", "")
	assert.Equal(t, "rgb(1, 2, 3)", bordered.Value("border-left-color"))
	assert.Equal(t, "currentcolor", bordered.Value("border-top-color"))
	assert.Equal(t, "currentcolor currentcolor currentcolor rgb(1, 2, 3)", bordered.Value("border-color"))
	assert.Equal(t, "rgb(255, 165, 0)", bordered.Value("outline-color"))

	assert.Equal(t, `url("`+filepath.Join("/srv/site", "img", "bg.png")+`")`, styleOf(t, doc, "bg", "").Value("background-image"))
	assert.Equal(t, "rgb(9, 9, 9)", styleOf(t, doc, "media", "").Value("background-color"))

	plain := styleOf(t, doc, "plain", "")
	assert.Equal(t, "rgb(0, 0, 0)", plain.Value("color"))
	assert.Equal(t, "none", plain.Value("box-shadow"))
	assert.Equal(t, "none", plain.Value("stroke"))

	assert.Equal(t, "rgb(255, 0, 0)", styleOf(t, doc, "path", "").Value("fill"), "fill inherits into svg children")
}

func TestParse_SVGPresentationAttributes(t *testing.T) {
	doc := parse(t, `<style>#styled { fill: blue; }</style>
<svg><circle id="plain" fill="red" stroke="#00ff00"/><circle id="styled" fill="red"/></svg>`)

	assert.Equal(t, "rgb(255, 0, 0)", styleOf(t, doc, "plain", "").Value("fill"))
	assert.Equal(t, "rgb(0, 255, 0)", styleOf(t, doc, "plain", "").Value("stroke"))
	assert.Equal(t, "rgb(0, 0, 255)", styleOf(t, doc, "styled", "").Value("fill"), "stylesheet beats attribute")
}

func TestParse_InvalidColorIsDropped(t *testing.T) {
	doc := parse(t, `<div id="a" style="background-color: blue; background-color: notacolor"></div>`)
	assert.Equal(t, "rgb(0, 0, 255)", styleOf(t, doc, "a", "").Value("background-color"))
}

func TestParse_Keywords(t *testing.T) {
	doc := parse(t, `<style>
  #outer { color: red; background-color: blue; }
  #inner { color: green; background-color: inherit; }
  #reset { color: initial; }
  #current { color: currentcolor; border-top-color: currentColor; }
</style>
<div id="outer"><div id="inner"><div id="reset"></div><div id="current"></div></div></div>`)

	assert.Equal(t, "rgb(0, 0, 255)", styleOf(t, doc, "inner", "").Value("background-color"))
	assert.Equal(t, "rgb(0, 0, 0)", styleOf(t, doc, "reset", "").Value("color"))
	assert.Equal(t, "rgb(0, 128, 0)", styleOf(t, doc, "current", "").Value("color"))
	assert.Equal(t, "currentcolor", styleOf(t, doc, "current", "").Value("border-top-color"))
}

func TestLayout(t *testing.T) {
	doc := parse(t, `<body>
  <div id="box" style="left: 10px; top: 20px; width: 100px; height: 50px">
    <div id="nested" style="left: 5px; top: 5px; width: 50%; height: 10px"></div>
    <div id="fixed" style="position: fixed; left: 1px; top: 2px; width: 3px; height: 4px"></div>
    <div id="rest"></div>
  </div>
  <canvas id="canvas" width="40" height="30"></canvas>
  <svg id="svg" width="200" height="100" style="left: 100px; top: 100px">
    <circle id="circle" cx="50" cy="50" r="10"/>
    <rect id="rect" x="5" y="6" width="7" height="8"/>
  </svg>
</body>`)

	rect := func(id string) dom.Rect {
		el := doc.ElementByID(id)
		require.NotNil(t, el, id)
		return el.Rect()
	}
	assert.Equal(t, dom.Rect{Left: 10, Top: 20, Width: 100, Height: 50}, rect("box"))
	assert.Equal(t, dom.Rect{Left: 15, Top: 25, Width: 50, Height: 10}, rect("nested"))
	assert.Equal(t, dom.Rect{Left: 1, Top: 2, Width: 3, Height: 4}, rect("fixed"))
	assert.Equal(t, dom.Rect{Left: 10, Top: 20, Width: 100, Height: 50}, rect("rest"))
	assert.Equal(t, dom.Rect{Left: 0, Top: 0, Width: 40, Height: 30}, rect("canvas"))
	assert.Equal(t, dom.Rect{Left: 100, Top: 100, Width: 200, Height: 100}, rect("svg"))
	assert.Equal(t, dom.Rect{Left: 140, Top: 140, Width: 20, Height: 20}, rect("circle"))
	assert.Equal(t, dom.Rect{Left: 105, Top: 106, Width: 7, Height: 8}, rect("rect"))
}

func TestElementFromPoint(t *testing.T) {
	doc := parse(t, `<body>
  <div id="bottom" style="left: 0; top: 0; width: 100px; height: 100px"></div>
  <div id="top" style="left: 50px; top: 50px; width: 100px; height: 100px"></div>
  <div id="none" style="display: none; left: 0; top: 0; width: 20px; height: 20px"></div>
  <div id="hidden" style="visibility: hidden; left: 0; top: 0; width: 20px; height: 20px"></div>
  <div id="ghost" style="pointer-events: none; left: 0; top: 0; width: 20px; height: 20px"></div>
  <div id="wrapper" style="display: none"><div id="inside" style="left: 0; top: 0; width: 30px; height: 30px"></div></div>
</body>`)

	idAt := func(x, y float64) string {
		el := doc.ElementFromPoint(dom.Position{X: x, Y: y})
		if el == nil {
			return ""
		}
		return el.ID()
	}
	assert.Equal(t, "bottom", idAt(10, 10), "display none, visibility hidden and pointer-events none are skipped")
	assert.Equal(t, "top", idAt(60, 60), "later element wins")
	assert.Equal(t, "bottom", idAt(40, 60))
	assert.Equal(t, "body", doc.ElementFromPoint(dom.Position{X: 300, Y: 200}).Tag())
	assert.Nil(t, doc.ElementFromPoint(dom.Position{X: 500, Y: 10}), "outside the viewport")
}

func TestLayers(t *testing.T) {
	doc := parse(t, `<body><div id="target" style="width: 100px; height: 100px"></div></body>`)
	p := dom.Position{X: 10, Y: 10}

	overlay, err := doc.AttachLayer(dom.LayerSpec{ID: "overlay", PointerEvents: true})
	require.NoError(t, err)
	cursor, err := doc.AttachLayer(dom.LayerSpec{ID: "cursor"})
	require.NoError(t, err)

	assert.Equal(t, "overlay", doc.ElementFromPoint(p).ID(), "overlay is on top; cursor ignores pointer events")

	restore := overlay.Hide()
	assert.Equal(t, "target", doc.ElementFromPoint(p).ID())
	restore()
	assert.Equal(t, "overlay", doc.ElementFromPoint(p).ID())

	overlay.Remove()
	cursor.Remove()
	assert.Equal(t, "target", doc.ElementFromPoint(p).ID())
	assert.Nil(t, doc.ElementByID("overlay"))
}

func TestCanvas(t *testing.T) {
	doc := parse(t, `<body>
  <canvas id="filled" width="4" height="2" data-fill="rgb(255, 0, 0)"></canvas>
  <canvas id="blank" width="4" height="2" style="top: 10px"></canvas>
  <canvas id="webgl" data-context="webgl" style="top: 20px"></canvas>
  <canvas id="foreign" data-src="https://other.test/a.png" style="top: 30px"></canvas>
  <canvas id="drawn" width="2" height="2" data-src="`+dataURL(solidPNG(t, 1, 1, color.NRGBA{0, 0, 255, 255}))+`" style="top: 40px"></canvas>
</body>`)

	canvas := func(id string) dom.CanvasElement {
		el := doc.ElementByID(id)
		require.NotNil(t, el)
		cv, ok := el.(dom.CanvasElement)
		require.True(t, ok, "%s should be a canvas", id)
		return cv
	}

	ctx, err := canvas("filled").Context2D()
	require.NoError(t, err)
	px, err := ctx.PixelAt(3, 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, px)
	w, h := canvas("filled").BufferSize()
	assert.Equal(t, []int{4, 2}, []int{w, h})

	ctx, err = canvas("blank").Context2D()
	require.NoError(t, err)
	px, err = ctx.PixelAt(0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), px.A)

	_, err = canvas("webgl").Context2D()
	assert.ErrorIs(t, err, dom.ErrNoContext)

	ctx, err = canvas("foreign").Context2D()
	require.NoError(t, err)
	_, err = ctx.PixelAt(0, 0)
	assert.ErrorIs(t, err, dom.ErrTainted)

	ctx, err = canvas("drawn").Context2D()
	require.NoError(t, err)
	px, err = ctx.PixelAt(1, 1)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, px)
}

func TestOpen_FileWithImages(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "red.png"), solidPNG(t, 8, 4, color.NRGBA{255, 0, 0, 255}), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<body>
  <img id="logo" src="img/red.png">
  <img id="scaled" src="img/red.png" width="16" style="top: 50px">
  <img id="broken" src="img/missing.png" style="top: 100px">
</body>`), 0o644))

	doc, err := Open(context.Background(), filepath.Join(dir, "index.html"), Options{Loader: imaging.NewLoader(time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "file://", doc.Origin())
	assert.Equal(t, dir, doc.Base())

	logo, ok := doc.ElementByID("logo").(dom.ImageElement)
	require.True(t, ok)
	assert.True(t, logo.Complete())
	w, h := logo.NaturalSize()
	assert.Equal(t, []int{8, 4}, []int{w, h})
	assert.Equal(t, dom.Rect{Width: 8, Height: 4}, logo.Rect())
	assert.Equal(t, filepath.Join(dir, "img", "red.png"), logo.Source())
	bitmap, err := logo.Decode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, bitmap.Bounds().Dx())

	assert.Equal(t, dom.Rect{Top: 50, Width: 16, Height: 8}, doc.ElementByID("scaled").Rect(), "height follows aspect ratio")

	broken, ok := doc.ElementByID("broken").(dom.ImageElement)
	require.True(t, ok)
	assert.False(t, broken.Complete())
}

func TestOpen_HTTP(t *testing.T) {
	red := solidPNG(t, 2, 2, color.NRGBA{255, 0, 0, 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index.html":
			_, _ = w.Write([]byte(`<img id="logo" src="/static/red.png">`))
		case "/static/red.png":
			_, _ = w.Write(red)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	doc, err := Open(context.Background(), srv.URL+"/index.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, doc.Origin())

	logo, ok := doc.ElementByID("logo").(dom.ImageElement)
	require.True(t, ok)
	assert.True(t, logo.Complete())
	assert.Equal(t, srv.URL+"/static/red.png", logo.Source())

	_, err = Open(context.Background(), srv.URL+"/missing.html", Options{})
	assert.Error(t, err)
}

func TestOpen_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.html" {
			_, _ = w.Write([]byte(`<img src="/slow.png">`))
			return
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := Open(ctx, srv.URL+"/index.html", Options{Loader: imaging.NewLoader(10 * time.Second)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNode_Element(t *testing.T) {
	parent := NewNode("DIV", dom.Rect{Width: 10, Height: 10}, Style{"background-color": "rgb(1, 2, 3)"}).SetID("p")
	img := NewNode("img", dom.Rect{Width: 5, Height: 5}, Style{})
	img.SetImage("data:x", 1, 1, true, nil)
	parent.AppendChild(img)

	el := img.Element()
	assert.Equal(t, parent.Element(), el.Parent())
	assert.Equal(t, "div", el.Parent().Tag())
	assert.Nil(t, parent.Element().Parent())

	ie, ok := el.(dom.ImageElement)
	require.True(t, ok)
	_, err := ie.Decode(context.Background())
	assert.Error(t, err, "no bitmap")

	n, ok := NodeOf(el)
	require.True(t, ok)
	assert.Same(t, img, n)

	bare := NewNode("span", dom.Rect{}, nil)
	_, ok = bare.Element().ComputedStyle("")
	assert.False(t, ok)
	_, ok = bare.Element().ComputedStyle("::before")
	assert.False(t, ok)
}

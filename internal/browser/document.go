package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"sync"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

// DefaultEvalTimeout bounds each in-page evaluation.
const DefaultEvalTimeout = 5 * time.Second

// ErrClosed is returned by operations on a closed Document.
var ErrClosed = errors.New("browser document closed")

// Options configures Open.
type Options struct {
	// Width and Height size the viewport in CSS pixels.
	Width, Height int

	// ExecPath is the Chrome binary; "" lets chromedp find one.
	ExecPath string

	// Headless runs Chrome without a window.
	Headless bool

	// Loader decodes image elements and canvas snapshots. Nil means a
	// loader with the default timeout.
	Loader *imaging.Loader

	// EvalTimeout bounds each in-page evaluation. Zero means
	// DefaultEvalTimeout.
	EvalTimeout time.Duration
}

// Document is a page loaded in Chrome. It implements dom.Document,
// dom.ScreenSampler and colorspace.Computer. Methods are safe for
// concurrent use; evaluations are serialized.
type Document struct {
	url    string
	origin string
	loader *imaging.Loader

	evalTimeout time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// Open starts Chrome and navigates to url. ctx bounds the start and the
// navigation only; the browser lives until Close.
func Open(ctx context.Context, url string, opts Options) (*Document, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Width > 0 && opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	d := &Document{
		url:         url,
		loader:      opts.Loader,
		evalTimeout: opts.EvalTimeout,
		ctx:         browserCtx,
		cancel:      cancel,
	}
	if d.loader == nil {
		d.loader = imaging.NewLoader(imaging.DefaultLoadTimeout)
	}
	if d.evalTimeout <= 0 {
		d.evalTimeout = DefaultEvalTimeout
	}

	// The first Run starts the browser and must not carry a deadline, or
	// the browser would die with it.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	runCtx, stop := context.WithCancel(browserCtx)
	defer stop()
	unlink := context.AfterFunc(ctx, stop)
	defer unlink()

	var origin string
	actions := []chromedp.Action{}
	if opts.Width > 0 && opts.Height > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)))
	}
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.Evaluate(`location.origin`, &origin),
	)
	if err := chromedp.Run(runCtx, actions...); err != nil {
		cancel()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to load %s: %w", url, ctx.Err())
		}
		return nil, fmt.Errorf("failed to load %s: %w", url, err)
	}
	if origin == "null" {
		origin = ""
	}
	if origin == "" && strings.HasPrefix(url, "file:") {
		origin = "file://"
	}
	d.origin = origin

	logging.Logger().Info("browser page opened", "url", url, "origin", origin)
	return d, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.cancel()
	}
	return nil
}

// URL is the address the document was opened from.
func (d *Document) URL() string { return d.url }

// Origin implements dom.Document.
func (d *Document) Origin() string { return d.origin }

// run executes actions bounded by ctx and the evaluation timeout.
func (d *Document) run(ctx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	runCtx, cancel := context.WithTimeout(d.ctx, d.evalTimeout)
	defer cancel()
	if ctx != nil {
		unlink := context.AfterFunc(ctx, cancel)
		defer unlink()
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (d *Document) eval(ctx context.Context, script string, res any) error {
	return d.run(ctx, chromedp.Evaluate(script, res))
}

// ElementFromPoint implements dom.Document. The returned element and its
// ancestors are a snapshot taken at call time.
func (d *Document) ElementFromPoint(p dom.Position) dom.Element {
	var chain []snapshot
	script := fmt.Sprintf(snapshotScript, p.X, p.Y, snapshotDepth)
	if err := d.eval(context.Background(), script, &chain); err != nil {
		logging.Logger().Debug("element snapshot failed", "x", p.X, "y", p.Y, "error", err)
		return nil
	}
	return buildChain(d.ctx, chain, d.loader)
}

// ComputeColor implements colorspace.Computer by letting the page compute
// the value of a color property set to s.
func (d *Document) ComputeColor(s string) (string, bool) {
	var out string
	if err := d.eval(context.Background(), fmt.Sprintf(computeColorScript, jsString(s)), &out); err != nil {
		logging.Logger().Debug("color computation failed", "value", s, "error", err)
		return "", false
	}
	return out, out != ""
}

// SampleScreen implements dom.ScreenSampler with a 1x1 clipped screenshot.
func (d *Document) SampleScreen(ctx context.Context, p dom.Position) (color.NRGBA, error) {
	var buf []byte
	clip := &cdppage.Viewport{X: math.Floor(p.X), Y: math.Floor(p.Y), Width: 1, Height: 1, Scale: 1}
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = cdppage.CaptureScreenshot().
			WithFormat(cdppage.CaptureScreenshotFormatPng).
			WithClip(clip).
			Do(ctx)
		return err
	}))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("failed to capture screen: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return pixelAt(img, 0, 0), nil
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
}

// AttachLayer implements dom.Document.
func (d *Document) AttachLayer(spec dom.LayerSpec) (dom.Layer, error) {
	var ok bool
	if err := d.eval(context.Background(), fmt.Sprintf(attachLayerScript, jsString(spec.ID), spec.PointerEvents), &ok); err != nil {
		return nil, fmt.Errorf("failed to attach layer %s: %w", spec.ID, err)
	}
	return &layer{doc: d, id: spec.ID}, nil
}

type layer struct {
	doc *Document
	id  string
}

func (l *layer) Hide() func() {
	var prev string
	if err := l.doc.eval(context.Background(), fmt.Sprintf(hideLayerScript, jsString(l.id)), &prev); err != nil {
		logging.Logger().Debug("layer hide failed", "layer", l.id, "error", err)
		return func() {}
	}
	return func() {
		var ok bool
		if err := l.doc.eval(context.Background(), fmt.Sprintf(restoreLayerScript, jsString(l.id), jsString(prev)), &ok); err != nil {
			logging.Logger().Debug("layer restore failed", "layer", l.id, "error", err)
		}
	}
}

func (l *layer) Remove() {
	var ok bool
	if err := l.doc.eval(context.Background(), fmt.Sprintf(removeLayerScript, jsString(l.id)), &ok); err != nil {
		logging.Logger().Debug("layer remove failed", "layer", l.id, "error", err)
	}
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

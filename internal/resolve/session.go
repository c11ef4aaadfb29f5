package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

// Picker layer ids.
const (
	OverlayLayerID = "color-picking-overlay"
	CursorLayerID  = "color-picking-cursor"
	PreviewLayerID = "color-preview-window"
)

// Preview window geometry, relative to the pointer.
const (
	previewOffsetX = 25
	previewOffsetY = -90
	previewFlipX   = -145
	previewFlipY   = 25
	previewWidth   = 120
	previewLighten = 10
)

// ErrNotActive is returned by operations that need an active session.
var ErrNotActive = errors.New("picker is not active")

// State is a session's lifecycle state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Preview is what the picker shows while hovering.
type Preview struct {
	Resolution

	// Gradient is the preview swatch background.
	Gradient string `json:"gradient"`

	// Window is the top-left corner of the preview window, kept inside
	// the viewport's right and top edges.
	Window dom.Position `json:"window"`
}

// Session is one picking interaction on a document: idle → active → idle.
//
// Start attaches the picker layers, Hover previews, Pick resolves and
// stops, Cancel stops and aborts any in-flight resolution. A Session can
// be started again after it stops. Methods are safe for concurrent use;
// Cancel may be called while Hover or Pick is resolving.
type Session struct {
	pipeline *Pipeline
	doc      dom.Document

	// ViewportWidth keeps the preview window on screen. Zero disables
	// the right-edge flip.
	ViewportWidth float64

	mu     sync.Mutex
	state  State
	layers []dom.Layer
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession returns an idle session on doc.
func NewSession(p *Pipeline, doc dom.Document) *Session {
	return &Session{pipeline: p, doc: doc}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start attaches the overlay, cursor and preview layers and activates the
// session. Starting an active session does nothing.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Active {
		return nil
	}

	specs := []dom.LayerSpec{
		{ID: OverlayLayerID, PointerEvents: true},
		{ID: CursorLayerID},
		{ID: PreviewLayerID},
	}
	layers := make([]dom.Layer, 0, len(specs))
	for _, spec := range specs {
		l, err := s.doc.AttachLayer(spec)
		if err != nil {
			for _, attached := range layers {
				attached.Remove()
			}
			return fmt.Errorf("failed to attach %s: %w", spec.ID, err)
		}
		layers = append(layers, l)
	}

	s.layers = layers
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state = Active
	logging.Logger().Info("picker started")
	return nil
}

// snapshot returns what a resolution needs, or false when idle.
func (s *Session) snapshot() (context.Context, []dom.Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Active {
		return nil, nil, false
	}
	return s.ctx, s.layers, true
}

// resolve runs the pipeline with the session's context. Results of a
// resolution that was cancelled, even after it finished, are dropped.
func (s *Session) resolve(pos dom.Position) (Resolution, error) {
	ctx, layers, ok := s.snapshot()
	if !ok {
		return Resolution{}, ErrNotActive
	}
	r, ok := s.pipeline.Resolve(ctx, s.doc, pos, layers...)
	if !ok || ctx.Err() != nil {
		return Resolution{}, context.Canceled
	}
	return r, nil
}

// Hover resolves the color under pos for the live preview.
func (s *Session) Hover(pos dom.Position) (Preview, error) {
	r, err := s.resolve(pos)
	if err != nil {
		return Preview{}, err
	}
	lighter := colorspace.Lighten(r.Color, previewLighten)
	return Preview{
		Resolution: r,
		Gradient:   fmt.Sprintf("linear-gradient(45deg, %s, %s)", r.Color.Hex(), lighter.Hex()),
		Window:     s.previewWindow(pos),
	}, nil
}

func (s *Session) previewWindow(pos dom.Position) dom.Position {
	w := dom.Position{X: pos.X + previewOffsetX, Y: pos.Y + previewOffsetY}
	if s.ViewportWidth > 0 && w.X+previewWidth > s.ViewportWidth {
		w.X = pos.X + previewFlipX
	}
	if w.Y < 0 {
		w.Y = pos.Y + previewFlipY
	}
	return w
}

// Pick resolves the color under pos and stops the session. A pick that
// was cancelled returns context.Canceled and no color.
func (s *Session) Pick(pos dom.Position) (Resolution, error) {
	r, err := s.resolve(pos)
	if err != nil {
		return Resolution{}, err
	}
	s.Stop()
	logging.Logger().Info("color picked", "hex", r.Color.Hex(), "strategy", r.Strategy)
	return r, nil
}

// HandleKey reacts to a key press while active. Escape cancels the
// session; it reports whether the key was handled.
func (s *Session) HandleKey(key string) bool {
	if key != "Escape" || s.State() != Active {
		return false
	}
	s.Cancel()
	return true
}

// Cancel aborts any in-flight resolution and stops the session.
func (s *Session) Cancel() {
	if s.stop() {
		logging.Logger().Info("picker cancelled")
	}
}

// Stop detaches the picker layers and returns the session to idle.
func (s *Session) Stop() {
	if s.stop() {
		logging.Logger().Info("picker stopped")
	}
}

func (s *Session) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Active {
		return false
	}
	s.cancel()
	for _, l := range s.layers {
		l.Remove()
	}
	s.layers = nil
	s.state = Idle
	return true
}

// Layers returns the attached picker layers, or nil when idle.
func (s *Session) Layers() []dom.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dom.Layer(nil), s.layers...)
}

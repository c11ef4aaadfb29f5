package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/page"
)

const redPage = `<body><div id="red" style="width: 400px; height: 300px; background-color: red"></div></body>`

func layerIDs(doc *page.Document) []string {
	var ids []string
	for _, id := range []string{OverlayLayerID, CursorLayerID, PreviewLayerID} {
		if doc.ElementByID(id) != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func TestSession_StartAttachesLayers(t *testing.T) {
	doc := openPage(t, redPage)
	s := NewSession(NewPipeline(Options{}), doc)
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Active, s.State())
	assert.Equal(t, []string{OverlayLayerID, CursorLayerID, PreviewLayerID}, layerIDs(doc))

	require.NoError(t, s.Start(context.Background()), "starting twice is a no-op")
	assert.Len(t, layerIDs(doc), 3)

	s.Stop()
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, layerIDs(doc))
}

func TestSession_Hover(t *testing.T) {
	doc := openPage(t, redPage)
	s := NewSession(NewPipeline(Options{}), doc)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	p, err := s.Hover(dom.Position{X: 100, Y: 50})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", p.Color.Hex())
	assert.Equal(t, "div#red", p.Element, "picker layers are looked through")
	assert.Equal(t, "linear-gradient(45deg, #ff0000, #ff1919)", p.Gradient)
	assert.Equal(t, dom.Position{X: 125, Y: 75}, p.Window, "flipped below the pointer near the top")
	assert.Equal(t, Active, s.State(), "hover keeps the session active")
}

func TestSession_PreviewWindowFlipsAtRightEdge(t *testing.T) {
	doc := openPage(t, redPage)
	s := NewSession(NewPipeline(Options{}), doc)
	s.ViewportWidth = 400
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	p, err := s.Hover(dom.Position{X: 350, Y: 200})
	require.NoError(t, err)
	assert.Equal(t, dom.Position{X: 205, Y: 110}, p.Window)

	p, err = s.Hover(dom.Position{X: 100, Y: 200})
	require.NoError(t, err)
	assert.Equal(t, dom.Position{X: 125, Y: 110}, p.Window)
}

func TestSession_PickStops(t *testing.T) {
	doc := openPage(t, redPage)
	s := NewSession(NewPipeline(Options{}), doc)
	require.NoError(t, s.Start(context.Background()))

	r, err := s.Pick(dom.Position{X: 10, Y: 10})
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", r.Color.Hex())
	assert.Equal(t, StrategyCascade, r.Strategy)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, layerIDs(doc))

	_, err = s.Pick(dom.Position{X: 10, Y: 10})
	assert.ErrorIs(t, err, ErrNotActive)

	require.NoError(t, s.Start(context.Background()), "a stopped session can start again")
	s.Stop()
}

func TestSession_IdleOperations(t *testing.T) {
	s := NewSession(NewPipeline(Options{}), openPage(t, redPage))

	_, err := s.Hover(dom.Position{})
	assert.ErrorIs(t, err, ErrNotActive)
	_, err = s.Pick(dom.Position{})
	assert.ErrorIs(t, err, ErrNotActive)
	assert.False(t, s.HandleKey("Escape"))

	s.Cancel()
	s.Stop()
	assert.Equal(t, Idle, s.State())
}

func TestSession_EscapeCancels(t *testing.T) {
	doc := openPage(t, redPage)
	s := NewSession(NewPipeline(Options{}), doc)
	require.NoError(t, s.Start(context.Background()))

	assert.False(t, s.HandleKey("Enter"))
	assert.Equal(t, Active, s.State())

	assert.True(t, s.HandleKey("Escape"))
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, layerIDs(doc))
}

// cancellingDoc cancels the session in the middle of a lookup.
type cancellingDoc struct {
	*page.Document
	session *Session
}

func (d *cancellingDoc) ElementFromPoint(p dom.Position) dom.Element {
	d.session.Cancel()
	return d.Document.ElementFromPoint(p)
}

func TestSession_CancelDuringResolution(t *testing.T) {
	doc := &cancellingDoc{Document: openPage(t, redPage)}
	s := NewSession(NewPipeline(Options{}), doc)
	doc.session = s
	require.NoError(t, s.Start(context.Background()))

	_, err := s.Pick(dom.Position{X: 10, Y: 10})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Idle, s.State())
}

func TestSession_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(NewPipeline(Options{}), openPage(t, redPage))
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	cancel()
	_, err := s.Hover(dom.Position{X: 10, Y: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

// failingDoc refuses the second layer.
type failingDoc struct {
	*page.Document
	calls int
}

func (d *failingDoc) AttachLayer(spec dom.LayerSpec) (dom.Layer, error) {
	d.calls++
	if d.calls == 2 {
		return nil, errors.New("no room")
	}
	return d.Document.AttachLayer(spec)
}

func TestSession_StartRollsBack(t *testing.T) {
	doc := &failingDoc{Document: openPage(t, redPage)}
	s := NewSession(NewPipeline(Options{}), doc)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), CursorLayerID)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, layerIDs(doc.Document))
}

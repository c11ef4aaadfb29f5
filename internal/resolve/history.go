package resolve

import (
	"sync"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
)

// HistorySize is the number of picked colors remembered.
const HistorySize = 10

// History keeps the most recently picked colors, newest first, without
// duplicates.
type History struct {
	mu     sync.Mutex
	colors []colorspace.Color
}

// Add records c at the front, dropping an older entry with the same hex
// and anything beyond HistorySize.
func (h *History) Add(c colorspace.Color) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]colorspace.Color, 0, HistorySize)
	out = append(out, c)
	for _, old := range h.colors {
		if old.Hex() != c.Hex() && len(out) < HistorySize {
			out = append(out, old)
		}
	}
	h.colors = out
}

// Colors returns a copy of the history, newest first.
func (h *History) Colors() []colorspace.Color {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]colorspace.Color(nil), h.colors...)
}

// Clear forgets every color.
func (h *History) Clear() {
	h.mu.Lock()
	h.colors = nil
	h.mu.Unlock()
}

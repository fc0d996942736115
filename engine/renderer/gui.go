package renderer

import (
	"sync"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/resource"
)

// ClipRect is a pixel-space scissor rectangle applied to one GUI element's
// draws.
type ClipRect struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// GameElement is one world-space model drawn in the GUI pass: placement
// ghosts, hover previews, and similar overlays that live above the composed
// scene. Each element keeps its own draw descriptor so UI code can layer
// them in submission order and confine them to a panel's clip rectangle.
type GameElement struct {
	Model    resource.ID
	Instance common.Instance

	// Clip, when set, restricts the element's draws to the rectangle.
	Clip *ClipRect
}

// Gui collects the game elements to draw this frame. UI code re-submits its
// elements every frame; the renderer drains them when it builds the GUI
// batch, so anything not re-submitted simply stops being drawn.
//
// Add is safe to call from any goroutine.
type Gui struct {
	mu       sync.Mutex
	elements []GameElement
}

// NewGui returns an empty element collector.
func NewGui() *Gui {
	return &Gui{}
}

// Add queues one element for the next frame.
func (g *Gui) Add(e GameElement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.elements = append(g.elements, e)
}

// take drains the queued elements in submission order.
func (g *Gui) take() []GameElement {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := g.elements
	g.elements = nil
	return out
}

package resource

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ckiee/automancy/common"
)

// ID is an interned identifier for a registered resource: a model, tile type,
// or item type. IDs are stable for the lifetime of a Manager and are never
// invalidated mid-frame. The zero ID means "none".
type ID uint32

// IDNone is the absent identifier.
const IDNone ID = 0

// Mesh locates a model's geometry inside the shared vertex and index buffers
// uploaded once at startup.
type Mesh struct {
	// BaseVertex is added to every index when drawing this mesh.
	BaseVertex int32
	// FirstIndex is the offset into the shared index buffer.
	FirstIndex uint32
	// IndexCount is the number of indices to draw.
	IndexCount uint32
	// Part is the animation target this mesh binds to. Tracks whose Target
	// matches contribute to the mesh's per-frame animation transform.
	Part uint32
}

// Track is one keyframe track of a model's animation: ascending keyframe
// times with one output transform per keyframe, targeting a single part.
// Tracks are immutable after registration.
type Track struct {
	Target  uint32
	Inputs  []float32
	Outputs []mgl32.Mat4
}

// Duration returns the total looping duration of the track, which is the
// time of its last keyframe. Zero for an empty track.
func (t Track) Duration() float32 {
	if len(t.Inputs) == 0 {
		return 0
	}
	return t.Inputs[len(t.Inputs)-1]
}

// Tile is the render-relevant configuration of a tile type.
type Tile struct {
	// Model is the tile's configured model.
	Model ID
	// InactiveModel, when set, replaces Model for tiles with no resolved
	// facing direction.
	InactiveModel ID
	// DirectionColor tints the tile's direction arrow. Nil selects the
	// default (orange).
	DirectionColor *common.Color
}

// Item is the render-relevant configuration of an item type.
type Item struct {
	Model ID
}

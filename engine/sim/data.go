package sim

import (
	"time"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/resource"
)

// DataKey identifies one entry attached to a tile. Only the keys the
// renderer understands are declared here; the simulation may carry
// others, which the renderer ignores.
type DataKey string

const (
	// KeyDirection holds a Coord value pointing at a neighboring tile.
	KeyDirection DataKey = "direction"
	// KeyLink holds a Coord value with the offset from the tile to the
	// link's other endpoint.
	KeyLink DataKey = "link"
	// KeyItem holds an Id value naming the item a tile is holding.
	KeyItem DataKey = "item"
)

// Data is one typed value attached to a tile. The concrete types are
// CoordData, IdData and ColorData; nothing outside this package can add
// a new variant.
type Data interface {
	isData()
}

// CoordData wraps a tile coordinate value.
type CoordData struct {
	Coord common.TileCoord
}

// IdData wraps a resource identifier value.
type IdData struct {
	Id resource.ID
}

// ColorData wraps a color value.
type ColorData struct {
	Color common.Color
}

func (CoordData) isData() {}
func (IdData) isData()    {}
func (ColorData) isData() {}

// DataMap is the per-tile key/value store the renderer reads extra
// draw information out of. A nil map behaves like an empty one.
type DataMap map[DataKey]Data

// Coord returns the coordinate stored under key, if the entry exists
// and holds a coordinate.
func (m DataMap) Coord(key DataKey) (common.TileCoord, bool) {
	d, ok := m[key].(CoordData)
	return d.Coord, ok
}

// Id returns the resource identifier stored under key, if the entry
// exists and holds an identifier.
func (m DataMap) Id(key DataKey) (resource.ID, bool) {
	d, ok := m[key].(IdData)
	return d.Id, ok
}

// Color returns the color stored under key, if the entry exists and
// holds a color.
func (m DataMap) Color(key DataKey) (common.Color, bool) {
	d, ok := m[key].(ColorData)
	return d.Color, ok
}

// RenderUnit is what the simulation hands the renderer for one visible
// tile: which model to draw, the base instance, and an optional model
// override that replaces the tile's regular model (an inactive machine,
// for example).
type RenderUnit struct {
	// Tile is the tile kind the unit was built from, used to resolve
	// per-tile render configuration like the direction-arrow color.
	Tile          resource.ID
	Model         resource.ID
	Instance      common.Instance
	ModelOverride resource.ID
}

// ResolvedModel returns the override when one is set, the base model
// otherwise.
func (u RenderUnit) ResolvedModel() resource.ID {
	if u.ModelOverride != resource.IDNone {
		return u.ModelOverride
	}
	return u.Model
}

// TransactionPair keys recorded transactions by their endpoints.
type TransactionPair struct {
	Source common.TileCoord
	Dest   common.TileCoord
}

// TransactionRecord is one item movement between two tiles, stamped at
// the moment the simulation committed it.
type TransactionRecord struct {
	Stamp time.Time
	Item  resource.ID
}

// TransactionRecords maps endpoint pairs to the transactions recorded
// between them, oldest first.
type TransactionRecords map[TransactionPair][]TransactionRecord

// TransactionAnimationSpeed is how long a recorded transaction takes to
// travel from its source tile to its destination on screen. Records
// older than this are dropped from query results.
const TransactionAnimationSpeed = 500 * time.Millisecond

package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/resource"
)

// ErrClosed is returned from every call made against a game whose
// mailbox has already shut down.
var ErrClosed = errors.New("sim: game is closed")

// Client is the query surface the renderer talks to. Every call is safe
// from any goroutine and never observes a half-applied mutation.
type Client interface {
	// AllData returns the data map of every tile that has one.
	//
	// Parameters:
	//   - ctx: context.Context used to abandon the request.
	//
	// Returns:
	//   - map[common.TileCoord]DataMap: per-tile data, keyed by coordinate.
	//   - error: ctx error or ErrClosed.
	AllData(ctx context.Context) (map[common.TileCoord]DataMap, error)

	// AllRenderUnits returns a render unit for every placed tile inside
	// the culling range.
	//
	// Parameters:
	//   - ctx: context.Context used to abandon the request.
	//   - culling: common.CullingRange bounding the visible area.
	//
	// Returns:
	//   - map[common.TileCoord]RenderUnit: drawable state per visible tile.
	//   - error: ctx error or ErrClosed.
	AllRenderUnits(ctx context.Context, culling common.CullingRange) (map[common.TileCoord]RenderUnit, error)

	// RecordedTransactions returns the item movements recorded within the
	// last TransactionAnimationSpeed, oldest first per endpoint pair.
	//
	// Parameters:
	//   - ctx: context.Context used to abandon the request.
	//
	// Returns:
	//   - TransactionRecords: the still-animating transactions.
	//   - error: ctx error or ErrClosed.
	RecordedTransactions(ctx context.Context) (TransactionRecords, error)
}

// Game is the full simulation surface: the renderer queries plus the
// mutations gameplay code drives it with. All calls funnel through one
// mailbox goroutine, so the state never needs a lock.
type Game interface {
	Client

	// PlaceTile puts a tile of the given kind at coord, replacing
	// whatever was there.
	PlaceTile(ctx context.Context, coord common.TileCoord, tile resource.ID) error

	// RemoveTile clears coord, dropping its data map with it.
	RemoveTile(ctx context.Context, coord common.TileCoord) error

	// SetData attaches one data entry to the tile at coord. Setting data
	// on an empty coordinate is an error.
	SetData(ctx context.Context, coord common.TileCoord, key DataKey, data Data) error

	// SetInactive marks or unmarks the tile at coord as inactive, which
	// makes the renderer draw its inactive model when it has one.
	SetInactive(ctx context.Context, coord common.TileCoord, inactive bool) error

	// RecordTransaction stamps an item movement between two tiles so the
	// renderer can animate it.
	RecordTransaction(ctx context.Context, source, dest common.TileCoord, item resource.ID) error

	// Close shuts the mailbox down. Calls made after Close return
	// ErrClosed.
	Close()
}

type placedTile struct {
	tile     resource.ID
	data     DataMap
	inactive bool
}

type game struct {
	res       resource.Manager
	logger    *zap.Logger
	now       func() time.Time
	mailbox   chan func(*gameState)
	done      chan struct{}
	closeOnce sync.Once
}

var _ Game = &game{}

type gameState struct {
	tiles        map[common.TileCoord]placedTile
	transactions TransactionRecords
}

// NewGame starts the simulation mailbox and returns its handle.
//
// Parameters:
//   - res: resource.Manager used to resolve tile kinds to models.
//   - options: optional GameOption values adjusting the defaults.
//
// Returns:
//   - Game: the running simulation.
func NewGame(res resource.Manager, options ...GameOption) Game {
	g := &game{
		res:     res,
		logger:  zap.NewNop(),
		now:     time.Now,
		mailbox: make(chan func(*gameState), 64),
		done:    make(chan struct{}),
	}
	for _, opt := range options {
		opt(g)
	}
	go g.run()
	return g
}

func (g *game) run() {
	state := &gameState{
		tiles:        make(map[common.TileCoord]placedTile),
		transactions: make(TransactionRecords),
	}
	for {
		select {
		case fn := <-g.mailbox:
			fn(state)
		case <-g.done:
			return
		}
	}
}

// call runs fn on the mailbox goroutine and waits for it to finish.
func (g *game) call(ctx context.Context, fn func(*gameState)) error {
	// Checked up front so calls made after Close always fail, even while
	// the mailbox buffer still has room.
	select {
	case <-g.done:
		return ErrClosed
	default:
	}

	ran := make(chan struct{})
	wrapped := func(s *gameState) {
		fn(s)
		close(ran)
	}
	select {
	case <-g.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case g.mailbox <- wrapped:
	}
	select {
	case <-ran:
		return nil
	case <-g.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *game) AllData(ctx context.Context) (map[common.TileCoord]DataMap, error) {
	var out map[common.TileCoord]DataMap
	err := g.call(ctx, func(s *gameState) {
		out = make(map[common.TileCoord]DataMap, len(s.tiles))
		for coord, placed := range s.tiles {
			if len(placed.data) == 0 {
				continue
			}
			copied := make(DataMap, len(placed.data))
			for k, v := range placed.data {
				copied[k] = v
			}
			out[coord] = copied
		}
	})
	return out, err
}

func (g *game) AllRenderUnits(ctx context.Context, culling common.CullingRange) (map[common.TileCoord]RenderUnit, error) {
	var out map[common.TileCoord]RenderUnit
	err := g.call(ctx, func(s *gameState) {
		out = make(map[common.TileCoord]RenderUnit)
		for coord, placed := range s.tiles {
			if !culling.Contains(coord) {
				continue
			}
			out[coord] = g.renderUnit(coord, placed)
		}
	})
	return out, err
}

func (g *game) renderUnit(coord common.TileCoord, placed placedTile) RenderUnit {
	unit := RenderUnit{
		Tile:  placed.tile,
		Model: g.res.TileModelOrMissing(placed.tile),
	}
	if placed.inactive {
		if tile, ok := g.res.Tile(placed.tile); ok && tile.InactiveModel != resource.IDNone {
			unit.ModelOverride = tile.InactiveModel
		}
	}
	pos := common.HexGridLayout.WorldPos(coord)
	unit.Instance = common.NewInstance().WithModelMatrix(
		mgl32.Translate3D(pos[0], pos[1], common.Far),
	)
	return unit
}

func (g *game) RecordedTransactions(ctx context.Context) (TransactionRecords, error) {
	var out TransactionRecords
	err := g.call(ctx, func(s *gameState) {
		cutoff := g.now().Add(-TransactionAnimationSpeed)
		out = make(TransactionRecords, len(s.transactions))
		for pair, records := range s.transactions {
			live := records
			for len(live) > 0 && live[0].Stamp.Before(cutoff) {
				live = live[1:]
			}
			if len(live) == 0 {
				delete(s.transactions, pair)
				continue
			}
			s.transactions[pair] = live
			copied := make([]TransactionRecord, len(live))
			copy(copied, live)
			out[pair] = copied
		}
	})
	return out, err
}

func (g *game) PlaceTile(ctx context.Context, coord common.TileCoord, tile resource.ID) error {
	return g.call(ctx, func(s *gameState) {
		s.tiles[coord] = placedTile{tile: tile, data: make(DataMap)}
		g.logger.Debug("tile placed",
			zap.Int32("q", coord.Q),
			zap.Int32("r", coord.R),
			zap.Uint32("tile", uint32(tile)),
		)
	})
}

func (g *game) RemoveTile(ctx context.Context, coord common.TileCoord) error {
	return g.call(ctx, func(s *gameState) {
		delete(s.tiles, coord)
	})
}

func (g *game) SetData(ctx context.Context, coord common.TileCoord, key DataKey, data Data) error {
	var missing bool
	err := g.call(ctx, func(s *gameState) {
		placed, ok := s.tiles[coord]
		if !ok {
			missing = true
			return
		}
		placed.data[key] = data
		s.tiles[coord] = placed
	})
	if err != nil {
		return err
	}
	if missing {
		return errors.New("sim: no tile at coordinate")
	}
	return nil
}

func (g *game) SetInactive(ctx context.Context, coord common.TileCoord, inactive bool) error {
	return g.call(ctx, func(s *gameState) {
		placed, ok := s.tiles[coord]
		if !ok {
			return
		}
		placed.inactive = inactive
		s.tiles[coord] = placed
	})
}

func (g *game) RecordTransaction(ctx context.Context, source, dest common.TileCoord, item resource.ID) error {
	return g.call(ctx, func(s *gameState) {
		pair := TransactionPair{Source: source, Dest: dest}
		s.transactions[pair] = append(s.transactions[pair], TransactionRecord{
			Stamp: g.now(),
			Item:  item,
		})
	})
}

func (g *game) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
	})
}

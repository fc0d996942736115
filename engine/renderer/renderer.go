package renderer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/animation"
	"github.com/ckiee/automancy/engine/batch"
	"github.com/ckiee/automancy/engine/camera"
	"github.com/ckiee/automancy/engine/profiler"
	"github.com/ckiee/automancy/engine/resource"
	"github.com/ckiee/automancy/engine/sim"
)

// gameSnapshot pairs the visible render units with every tile's data map,
// fetched in one request so both describe the same simulation step. The
// culling range the units were fetched with rides along for the backfill
// walk.
type gameSnapshot struct {
	units   map[common.TileCoord]sim.RenderUnit
	data    map[common.TileCoord]sim.DataMap
	culling common.CullingRange
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	res     resource.Manager
	client  sim.Client
	cam     camera.Camera
	backend FrameBackend

	logger *zap.Logger
	prof   *profiler.Profiler
	pool   worker.DynamicWorkerPool

	gameCache *snapshotCache[gameSnapshot]
	txCache   *snapshotCache[sim.TransactionRecords]

	gui  *Gui
	sink ScreenshotSink

	// tintMu guards tints, which any goroutine may set between frames.
	tintMu sync.Mutex
	tints  map[common.TileCoord]common.Color

	now   func() time.Time
	start time.Time

	updateInterval time.Duration
	cullingPadding int32
	fetchTimeout   time.Duration

	// Last window size reported through Resize. The backend never adopts a
	// zero dimension, so this is what marks a minimized window.
	windowWidth  int
	windowHeight int

	// Game batch carry-over state, owned by the render thread.
	haveGame     bool
	lastGame     batch.DrawData[struct{}]
	lastBatch    time.Time
	pendingTints map[common.TileCoord]common.Color

	taskID int
}

// Renderer composes the game's frames: it keeps an asynchronously refreshed
// view of the simulation, batches it into instanced draw data at the update
// rate, rebuilds the frame-rate decorations every frame, and hands the
// result to a FrameBackend for GPU submission.
//
// Render must be called from a single goroutine. Tint and GUI submission are
// safe from anywhere.
type Renderer interface {
	// Render composes and presents one frame.
	//
	// A frame is skipped without error when the window is minimized, the
	// surface has a zero dimension, or no simulation snapshot has arrived
	// yet. Queued tile tints are still drained on skipped frames and
	// applied at the next batch recompute.
	//
	// Parameters:
	//   - screenshotting: capture the composed frame and hand it to the
	//     screenshot sink
	//
	// Returns:
	//   - error: surface or device failure from the backend
	Render(screenshotting bool) error

	// Resize propagates a new surface size to the backend and the camera.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetTileTint queues a color offset for one tile, applied at the next
	// batch recompute and kept until the tile's next tint. Setting the
	// zero color clears the tint.
	//
	// Parameters:
	//   - coord: the tile to tint
	//   - color: the color offset
	SetTileTint(coord common.TileCoord, color common.Color)

	// Gui returns the collector UI code submits world-space elements to.
	//
	// Returns:
	//   - *Gui: the element collector
	Gui() *Gui

	// Release frees the backend's GPU resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer driving the given backend.
//
// Parameters:
//   - backend: the FrameBackend frames are submitted to
//   - res: the resource manager models and tiles resolve through
//   - client: the simulation query surface
//   - cam: the camera
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified options
func NewRenderer(backend FrameBackend, res resource.Manager, client sim.Client, cam camera.Camera, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		res:            res,
		client:         client,
		cam:            cam,
		backend:        backend,
		logger:         zap.NewNop(),
		gui:            NewGui(),
		tints:          make(map[common.TileCoord]common.Color),
		pendingTints:   make(map[common.TileCoord]common.Color),
		now:            time.Now,
		updateInterval: time.Second / 60,
		cullingPadding: 2,
		fetchTimeout:   time.Second,
	}
	for _, opt := range options {
		opt(r)
	}
	r.start = r.now()

	w, h := backend.Size()
	r.windowWidth, r.windowHeight = int(w), int(h)

	if r.pool == nil {
		r.pool = worker.NewDynamicWorkerPool(2, 64, time.Second)
	}

	r.gameCache = newSnapshotCache(r.pool, r.fetchTimeout, r.logger, func(ctx context.Context) (*gameSnapshot, error) {
		culling := r.paddedCulling()
		units, err := r.client.AllRenderUnits(ctx, culling)
		if err != nil {
			return nil, err
		}
		data, err := r.client.AllData(ctx)
		if err != nil {
			return nil, err
		}
		return &gameSnapshot{units: units, data: data, culling: culling}, nil
	})
	r.txCache = newSnapshotCache(r.pool, r.fetchTimeout, r.logger, func(ctx context.Context) (*sim.TransactionRecords, error) {
		records, err := r.client.RecordedTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return &records, nil
	})

	return r
}

func (r *renderer) Gui() *Gui {
	return r.gui
}

func (r *renderer) SetTileTint(coord common.TileCoord, color common.Color) {
	r.tintMu.Lock()
	defer r.tintMu.Unlock()
	r.tints[coord] = color
}

func (r *renderer) Resize(width, height int) {
	r.windowWidth, r.windowHeight = width, height
	if width <= 0 || height <= 0 {
		return
	}
	r.backend.Resize(uint32(width), uint32(height))
	r.cam.SetAspect(float32(width) / float32(height))
}

func (r *renderer) Release() {
	r.backend.Release()
}

func (r *renderer) Render(screenshotting bool) error {
	// Tints drain every frame, including frames that end up skipped, and
	// merge into the set applied at the next batch recompute.
	for coord, color := range r.takeTints() {
		r.pendingTints[coord] = color
	}

	if r.windowWidth <= 0 || r.windowHeight <= 0 {
		return nil
	}
	if w, h := r.backend.Size(); w == 0 || h == 0 {
		return nil
	}

	// Schedule snapshot refreshes; no-ops while a fetch is pending.
	r.gameCache.Refresh()
	r.txCache.Refresh()

	snap := r.gameCache.Latest()
	if snap == nil {
		return nil
	}

	now := r.now()
	elapsed := float32(now.Sub(r.start).Seconds())
	anims := animation.NewMap()

	if !r.haveGame || now.Sub(r.lastBatch) >= r.updateInterval {
		batchStart := now
		r.lastGame = r.buildGame(snap, anims, elapsed)
		r.haveGame = true
		r.lastBatch = now
		if r.prof != nil {
			r.prof.Stage("batch", r.now().Sub(batchStart))
		}
	}

	gui, guiClips := r.buildGui(anims, elapsed)
	frame := &Frame{
		Uniform:    camera.NewGPUCameraUniform(r.cam),
		Game:       r.lastGame,
		Extra:      r.buildExtra(snap, anims, elapsed, now),
		Gui:        gui,
		GuiClips:   guiClips,
		Screenshot: screenshotting,
	}

	encodeStart := r.now()
	shot, err := r.backend.RenderFrame(frame)
	if err != nil {
		return fmt.Errorf("renderer: frame: %w", err)
	}
	if r.prof != nil {
		r.prof.Stage("encode", r.now().Sub(encodeStart))
	}

	if shot != nil && r.sink != nil {
		r.taskID++
		sink := r.sink
		r.pool.SubmitTask(worker.Task{
			ID: r.taskID,
			Do: func() (any, error) {
				if err := sink.Write(shot); err != nil {
					r.logger.Error("screenshot write failed", zap.Error(err))
				}
				return nil, nil
			},
		})
	}
	return nil
}

func (r *renderer) takeTints() map[common.TileCoord]common.Color {
	r.tintMu.Lock()
	defer r.tintMu.Unlock()
	out := r.tints
	r.tints = make(map[common.TileCoord]common.Color)
	return out
}

// paddedCulling widens the camera's visible bound by the configured padding
// so fetches cover tiles that scroll in before the next snapshot lands.
func (r *renderer) paddedCulling() common.CullingRange {
	culling := r.cam.CullingRange()
	culling.Radius += r.cullingPadding
	return culling
}

// buildGame batches the tile pass: every hex inside the snapshot's culling
// range gets exactly one instance, using the simulation's render unit when
// the tile exists and the none-tile model as backfill when it does not.
// Tiles whose data map resolves a facing direction rotate toward it, and
// every instance is lit from the camera's position. Pending tints apply
// here and are consumed. Instances are ordered back-to-front from the
// camera before batching; the stable batch sort keeps that order within
// each model run.
func (r *renderer) buildGame(snap *gameSnapshot, anims *animation.Map, elapsed float32) batch.DrawData[struct{}] {
	noneModel := r.res.TileModelOrMissing(r.res.NoneTile())

	var camPos mgl32.Vec3
	if ctrl := r.cam.Controller(); ctrl != nil {
		x, y, z := ctrl.Position()
		camPos = mgl32.Vec3{x, y, z}
	}

	queued := make([]batch.Queued[struct{}], 0, snap.culling.Count())
	snap.culling.Each(func(coord common.TileCoord) {
		var model resource.ID
		var inst common.Instance
		if unit, ok := snap.units[coord]; ok {
			model = unit.ResolvedModel()
			inst = unit.Instance
			if target, ok := snap.data[coord].Coord(sim.KeyDirection); ok {
				if deg, valid := common.TileDirectionToAngle(target); valid {
					inst = inst.AddModelMatrix(mgl32.HomogRotate3DZ(mgl32.DegToRad(deg)))
				}
			}
		} else {
			model = noneModel
			pos := common.HexGridLayout.WorldPos(coord)
			inst = common.NewInstance().WithModelMatrix(
				mgl32.Translate3D(pos[0], pos[1], common.Far),
			)
		}
		if tint, ok := r.pendingTints[coord]; ok {
			inst = inst.WithColorOffset(tint)
		}
		inst = inst.WithLightPos(camPos, 1)
		anims.Sample(r.res, model, elapsed)
		queued = append(queued, batch.Queued[struct{}]{Instance: inst, Model: model})
	})
	clear(r.pendingTints)

	r.sortBackToFront(queued)
	return batch.Batch(r.res, queued, anims)
}

// sortBackToFront stable-sorts instances by descending distance from the
// camera's ground position, so overlapping blended geometry composes
// correctly within each model run.
func (r *renderer) sortBackToFront(queued []batch.Queued[struct{}]) {
	var camX, camY float32
	if ctrl := r.cam.Controller(); ctrl != nil {
		camX, camY, _ = ctrl.Position()
	}
	dist := func(q batch.Queued[struct{}]) float64 {
		m := q.Instance.ModelMatrix
		dx := float64(m[12] - camX)
		dy := float64(m[13] - camY)
		return dx*dx + dy*dy
	}
	sort.SliceStable(queued, func(i, j int) bool {
		return dist(queued[i]) > dist(queued[j])
	})
}

// buildExtra batches the decoration pass, rebuilt every frame: in-flight
// transactions interpolated along their endpoints, link lines, item icons,
// and direction arrows derived from the tile data maps.
func (r *renderer) buildExtra(snap *gameSnapshot, anims *animation.Map, elapsed float32, now time.Time) batch.DrawData[struct{}] {
	var queued []batch.Queued[struct{}]
	add := func(model resource.ID, inst common.Instance) {
		anims.Sample(r.res, model, elapsed)
		queued = append(queued, batch.Queued[struct{}]{Instance: inst, Model: model})
	}

	if txs := r.txCache.Latest(); txs != nil {
		for pair, records := range *txs {
			src := common.HexGridLayout.WorldPos(pair.Source)
			dst := common.HexGridLayout.WorldPos(pair.Dest)
			theta := common.DirectionToAngle(mgl32.Vec2{dst[0] - src[0], dst[1] - src[1]})

			for _, rec := range records {
				age := now.Sub(rec.Stamp)
				if age < 0 || age > sim.TransactionAnimationSpeed {
					continue
				}
				t := float32(age) / float32(sim.TransactionAnimationSpeed)
				pos := common.HexGridLayout.LerpWorldPos(pair.Source, pair.Dest, t)

				add(r.res.ItemModelOrMissing(rec.Item), common.NewInstance().WithModelMatrix(
					mgl32.Translate3D(pos[0], pos[1], common.Far+0.025).
						Mul4(mgl32.HomogRotate3DZ(theta)).
						Mul4(mgl32.Scale3D(0.3, 0.3, 0.3)),
				))
			}
		}
	}

	for coord, dm := range snap.data {
		if !snap.culling.Contains(coord) {
			continue
		}
		pos := common.HexGridLayout.WorldPos(coord)

		if link, ok := dm.Coord(sim.KeyLink); ok {
			other := common.HexGridLayout.WorldPos(coord.Add(link))
			add(r.res.CubeModel(), common.NewInstance().
				WithModelMatrix(common.MakeLine(pos, other, common.Far)).
				WithColorOffset(common.ColorRed))
		}

		if item, ok := dm.Id(sim.KeyItem); ok {
			add(r.res.ItemModelOrMissing(item), common.NewInstance().WithModelMatrix(
				mgl32.Translate3D(pos[0], pos[1], 0.1).
					Mul4(mgl32.Scale3D(0.25, 0.25, 0.25)),
			))
		}

		if target, ok := dm.Coord(sim.KeyDirection); ok {
			deg, valid := common.TileDirectionToAngle(target)
			if !valid {
				continue
			}
			theta := mgl32.DegToRad(deg) + float32(5*math.Pi/6)
			color := common.ColorOrange
			if unit, ok := snap.units[coord]; ok {
				color = r.res.DirectionColor(unit.Tile)
			}
			add(r.res.CubeModel(), common.NewInstance().
				WithModelMatrix(
					mgl32.Translate3D(pos[0], pos[1], common.Far+0.025).
						Mul4(mgl32.HomogRotate3DZ(theta)).
						Mul4(mgl32.Translate3D(0, 0.5, 0)).
						Mul4(mgl32.Scale3D(0.1, float32(common.Sqrt3), common.LineDepth)),
				).
				WithColorOffset(color))
		}
	}

	return batch.Batch(r.res, queued, anims)
}

// buildGui batches the drained GUI elements, keyed by submission index so
// every element keeps its own draw descriptor, and collects the clip
// rectangle of each clipped element under the same index.
func (r *renderer) buildGui(anims *animation.Map, elapsed float32) (batch.DrawData[int], map[int]ClipRect) {
	elements := r.gui.take()
	if len(elements) == 0 {
		return batch.DrawData[int]{}, nil
	}
	queued := make([]batch.Queued[int], len(elements))
	var clips map[int]ClipRect
	for i, e := range elements {
		anims.Sample(r.res, e.Model, elapsed)
		queued[i] = batch.Queued[int]{Instance: e.Instance, Model: e.Model, Key: i}
		if e.Clip != nil {
			if clips == nil {
				clips = make(map[int]ClipRect)
			}
			clips[i] = *e.Clip
		}
	}
	return batch.Batch(r.res, queued, anims), clips
}

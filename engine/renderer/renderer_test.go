package renderer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/camera"
	"github.com/ckiee/automancy/engine/resource"
	"github.com/ckiee/automancy/engine/sim"
)

// fakeBackend records the frames handed to it instead of touching a GPU.
type fakeBackend struct {
	mu     sync.Mutex
	width  uint32
	height uint32
	frames []Frame
	shot   *ScreenshotData
	mode   PresentMode
}

var _ FrameBackend = &fakeBackend{}

func (b *fakeBackend) Size() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *fakeBackend) Resize(width, height uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
}

func (b *fakeBackend) SetPresentMode(mode PresentMode) { b.mode = mode }

func (b *fakeBackend) RenderFrame(frame *Frame) (*ScreenshotData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, *frame)
	if frame.Screenshot {
		return b.shot, nil
	}
	return nil, nil
}

func (b *fakeBackend) Release() {}

func (b *fakeBackend) frameCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func (b *fakeBackend) frame(i int) Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames[i]
}

// fakeClient serves canned simulation state.
type fakeClient struct {
	mu    sync.Mutex
	units map[common.TileCoord]sim.RenderUnit
	data  map[common.TileCoord]sim.DataMap
	txs   sim.TransactionRecords
}

var _ sim.Client = &fakeClient{}

func (c *fakeClient) AllData(ctx context.Context) (map[common.TileCoord]sim.DataMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, nil
}

func (c *fakeClient) AllRenderUnits(ctx context.Context, culling common.CullingRange) (map[common.TileCoord]sim.RenderUnit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[common.TileCoord]sim.RenderUnit)
	for coord, unit := range c.units {
		if culling.Contains(coord) {
			out[coord] = unit
		}
	}
	return out, nil
}

func (c *fakeClient) RecordedTransactions(ctx context.Context) (sim.TransactionRecords, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txs, nil
}

// memorySink collects screenshot writes.
type memorySink struct {
	mu    sync.Mutex
	shots []*ScreenshotData
}

func (s *memorySink) Write(data *ScreenshotData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots = append(s.shots, data)
	return nil
}

func (s *memorySink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shots)
}

func rendererFixtureManager() resource.Manager {
	return resource.NewManager(
		resource.WithModel(resource.NameMissing, resource.Mesh{IndexCount: 3}),
		resource.WithModel(resource.NameCube, resource.Mesh{IndexCount: 36}),
		resource.WithModel("model/none", resource.Mesh{IndexCount: 18}),
		resource.WithModel("model/machine", resource.Mesh{IndexCount: 24}),
		resource.WithModel("model/item", resource.Mesh{IndexCount: 12}),
		resource.WithTileNamed(resource.NameNone, "model/none", "", nil),
		resource.WithTileNamed("tile/machine", "model/machine", "", nil),
		resource.WithItemNamed("item/thing", "model/item"),
	)
}

type rendererFixture struct {
	rend    Renderer
	backend *fakeBackend
	client  *fakeClient
	res     resource.Manager
	cam     camera.Camera
	sink    *memorySink
	clock   *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRendererFixture(t *testing.T, options ...RendererBuilderOption) *rendererFixture {
	t.Helper()

	f := &rendererFixture{
		backend: &fakeBackend{width: 800, height: 600},
		client:  &fakeClient{},
		res:     rendererFixtureManager(),
		sink:    &memorySink{},
		clock:   &fakeClock{now: time.Unix(5000, 0)},
	}

	ctrl := camera.NewCameraController()
	f.cam = camera.NewCamera(
		camera.WithAspect(800.0/600.0),
		camera.WithController(ctrl),
	)
	f.cam.Update()

	opts := append([]RendererBuilderOption{
		withTestDefaults(f),
	}, options...)
	f.rend = NewRenderer(f.backend, f.res, f.client, f.cam, opts...)
	return f
}

// withTestDefaults bundles the fixture's clock and sink.
func withTestDefaults(f *rendererFixture) RendererBuilderOption {
	return func(r *renderer) {
		WithClock(f.clock.Now)(r)
		WithScreenshotSink(f.sink)(r)
		WithCullingPadding(0)(r)
	}
}

// renderUntilFrame pumps Render until the async snapshot lands and the
// backend has received at least n frames.
func (f *rendererFixture) renderUntilFrame(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		require.NoError(t, f.rend.Render(false))
		return f.backend.frameCount() >= n
	}, 2*time.Second, time.Millisecond)
}

// expectedCulling mirrors the renderer's padded fetch bound.
func (f *rendererFixture) expectedCulling(padding int32) common.CullingRange {
	c := f.cam.CullingRange()
	c.Radius += padding
	return c
}

func TestRenderSkipsZeroSizeSurface(t *testing.T) {
	f := newRendererFixture(t)
	f.backend.Resize(0, 0)

	require.NoError(t, f.rend.Render(false))
	assert.Equal(t, 0, f.backend.frameCount())
}

func TestRenderBackfillsEmptyHexes(t *testing.T) {
	f := newRendererFixture(t)
	f.renderUntilFrame(t, 1)

	frame := f.frameLast()
	culling := f.expectedCulling(0)

	// One instance per visible hex: all backfill, merged into one draw of
	// the none-tile's model.
	require.Len(t, frame.Game.Instances, culling.Count())
	require.Len(t, frame.Game.Draws, 1)
	noneModel := f.res.TileModelOrMissing(f.res.NoneTile())
	assert.Equal(t, noneModel, frame.Game.Draws[0].Model)
	assert.Equal(t, uint32(culling.Count()), frame.Game.Draws[0].Args.InstanceCount)
}

func (f *rendererFixture) frameLast() Frame {
	return f.backend.frame(f.backend.frameCount() - 1)
}

func TestRenderPlacedTileUsesItsModel(t *testing.T) {
	f := newRendererFixture(t)

	machineModel, _ := f.res.Lookup("model/machine")
	machineTile, _ := f.res.Lookup("tile/machine")
	coord := common.TileCoord{Q: 1, R: 0}
	pos := common.HexGridLayout.WorldPos(coord)
	f.client.units = map[common.TileCoord]sim.RenderUnit{
		coord: {
			Tile:  machineTile,
			Model: machineModel,
			Instance: common.NewInstance().WithModelMatrix(
				mgl32.Translate3D(pos[0], pos[1], 0),
			),
		},
	}

	f.renderUntilFrame(t, 1)
	frame := f.frameLast()

	models := make(map[resource.ID]uint32)
	for _, draw := range frame.Game.Draws {
		models[draw.Model] += draw.Args.InstanceCount
	}
	assert.Equal(t, uint32(1), models[machineModel])
	culling := f.expectedCulling(0)
	assert.Equal(t, uint32(culling.Count()), models[machineModel]+models[f.res.TileModelOrMissing(f.res.NoneTile())])
}

func TestTileFacingRotationApplied(t *testing.T) {
	f := newRendererFixture(t)

	machineModel, _ := f.res.Lookup("model/machine")
	machineTile, _ := f.res.Lookup("tile/machine")
	coord := common.TileCoord{Q: 1, R: 0}
	pos := common.HexGridLayout.WorldPos(coord)
	base := mgl32.Translate3D(pos[0], pos[1], 0)
	dir := common.TileCoord{Q: 0, R: -1}

	f.client.units = map[common.TileCoord]sim.RenderUnit{
		coord: {
			Tile:     machineTile,
			Model:    machineModel,
			Instance: common.NewInstance().WithModelMatrix(base),
		},
	}
	f.client.data = map[common.TileCoord]sim.DataMap{
		coord: {sim.KeyDirection: sim.CoordData{Coord: dir}},
	}

	f.renderUntilFrame(t, 1)
	frame := f.frameLast()

	deg, ok := common.TileDirectionToAngle(dir)
	require.True(t, ok)
	want := base.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(deg)))

	found := false
	for _, inst := range frame.Game.Instances {
		m := frame.Game.MatrixData[inst.MatrixIndex]
		if approx(m[12], pos[0]) && approx(m[13], pos[1]) {
			for i := range want {
				assert.InDelta(t, want[i], m[i], 1e-4)
			}
			found = true
		}
	}
	require.True(t, found, "facing tile instance not found in batch")
}

func TestInstancesLitFromCamera(t *testing.T) {
	f := newRendererFixture(t)
	f.renderUntilFrame(t, 1)
	frame := f.frameLast()

	x, y, z := f.cam.Controller().Position()
	want := [4]float32{x, y, z, 1}
	require.NotEmpty(t, frame.Game.Instances)
	for _, inst := range frame.Game.Instances {
		assert.Equal(t, want, inst.LightPos)
	}
}

func TestMinimizedWindowSkipsFrames(t *testing.T) {
	f := newRendererFixture(t)
	f.renderUntilFrame(t, 1)
	n := f.backend.frameCount()

	// A zero-size Resize marks the window minimized; the backend keeps
	// its last size but no frames are issued.
	f.rend.Resize(0, 0)
	require.NoError(t, f.rend.Render(false))
	assert.Equal(t, n, f.backend.frameCount())
	w, h := f.backend.Size()
	assert.Equal(t, uint32(800), w)
	assert.Equal(t, uint32(600), h)

	// Restoring the window resumes rendering.
	f.rend.Resize(800, 600)
	require.NoError(t, f.rend.Render(false))
	assert.Equal(t, n+1, f.backend.frameCount())
}

func TestTintAppliedAtRecompute(t *testing.T) {
	f := newRendererFixture(t, WithUpdateRate(10))

	coord := common.TileCoord{Q: 0, R: 0}
	tint := common.Color{0.5, 0, 0, 0}
	f.rend.SetTileTint(coord, tint)

	f.renderUntilFrame(t, 1)
	frame := f.frameLast()

	pos := common.HexGridLayout.WorldPos(coord)
	found := false
	for _, inst := range frame.Game.Instances {
		m := frame.Game.MatrixData[inst.MatrixIndex]
		if m[12] == pos[0] && m[13] == pos[1] {
			assert.Equal(t, tint, inst.ColorOffset)
			found = true
		}
	}
	assert.True(t, found, "tinted tile instance not found in batch")
}

func TestBatchCarriedOverBetweenRecomputes(t *testing.T) {
	f := newRendererFixture(t, WithUpdateRate(10)) // 100ms interval

	f.renderUntilFrame(t, 1)

	// A tint queued now must not show up until the interval elapses.
	coord := common.TileCoord{Q: 0, R: 0}
	tint := common.Color{0, 0.5, 0, 0}
	f.rend.SetTileTint(coord, tint)

	f.clock.Advance(10 * time.Millisecond)
	require.NoError(t, f.rend.Render(false))
	frame := f.frameLast()
	assert.False(t, tintPresent(frame, coord, tint), "tint applied before the update interval elapsed")

	f.clock.Advance(100 * time.Millisecond)
	require.NoError(t, f.rend.Render(false))
	frame = f.frameLast()
	assert.True(t, tintPresent(frame, coord, tint), "tint missing after recompute")
}

func tintPresent(frame Frame, coord common.TileCoord, tint common.Color) bool {
	pos := common.HexGridLayout.WorldPos(coord)
	for _, inst := range frame.Game.Instances {
		m := frame.Game.MatrixData[inst.MatrixIndex]
		if m[12] == pos[0] && m[13] == pos[1] && inst.ColorOffset == tint {
			return true
		}
	}
	return false
}

func TestTransactionInterpolation(t *testing.T) {
	f := newRendererFixture(t)

	item, _ := f.res.Lookup("item/thing")
	src := common.TileCoord{Q: -1, R: 0}
	dst := common.TileCoord{Q: 1, R: 0}
	pair := sim.TransactionPair{Source: src, Dest: dst}

	// Halfway through the animation window at the fixture clock's time.
	stamp := f.clock.Now().Add(-sim.TransactionAnimationSpeed / 2)
	f.client.mu.Lock()
	f.client.txs = sim.TransactionRecords{
		pair: {{Stamp: stamp, Item: item}},
	}
	f.client.mu.Unlock()

	f.renderUntilFrame(t, 1)

	// The tx snapshot lands asynchronously; pump frames until the item
	// instance appears in the extra batch.
	itemModel, _ := f.res.Lookup("model/item")
	mid := common.HexGridLayout.LerpWorldPos(src, dst, 0.5)
	require.Eventually(t, func() bool {
		require.NoError(t, f.rend.Render(false))
		frame := f.frameLast()
		for _, draw := range frame.Extra.Draws {
			if draw.Model != itemModel {
				continue
			}
			for _, inst := range frame.Extra.Instances {
				m := frame.Extra.MatrixData[inst.MatrixIndex]
				if approx(m[12], mid[0]) && approx(m[13], mid[1]) {
					return true
				}
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)
}

func approx(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}

func TestGuiElementsBatchedPerElement(t *testing.T) {
	f := newRendererFixture(t)
	f.renderUntilFrame(t, 1)

	machineModel, _ := f.res.Lookup("model/machine")
	clip := ClipRect{X: 10, Y: 20, Width: 100, Height: 50}
	f.rend.Gui().Add(GameElement{Model: machineModel, Instance: common.NewInstance()})
	f.rend.Gui().Add(GameElement{Model: machineModel, Instance: common.NewInstance(), Clip: &clip})

	require.NoError(t, f.rend.Render(false))
	frame := f.frameLast()

	// Same model, but every element keeps its own descriptor.
	require.Len(t, frame.Gui.Draws, 2)
	assert.Equal(t, 0, frame.Gui.Draws[0].Key)
	assert.Equal(t, 1, frame.Gui.Draws[1].Key)
	require.Contains(t, frame.GuiClips, 1)
	assert.Equal(t, clip, frame.GuiClips[1])
	assert.NotContains(t, frame.GuiClips, 0)

	// Elements are drained: the next frame draws no GUI.
	require.NoError(t, f.rend.Render(false))
	assert.Empty(t, f.frameLast().Gui.Draws)
}

func TestScreenshotRoutedToSink(t *testing.T) {
	f := newRendererFixture(t)
	f.backend.shot = &ScreenshotData{Width: 4, Height: 4, Pixels: make([]byte, 64)}

	f.renderUntilFrame(t, 1)
	require.NoError(t, f.rend.Render(true))

	require.Eventually(t, func() bool {
		return f.sink.count() == 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, uint32(4), f.sink.shots[0].Width)

	// Frames without the capture flag produce no writes.
	require.NoError(t, f.rend.Render(false))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, f.sink.count())
}

func TestResizePropagates(t *testing.T) {
	f := newRendererFixture(t)

	f.rend.Resize(1000, 500)
	w, h := f.backend.Size()
	assert.Equal(t, uint32(1000), w)
	assert.Equal(t, uint32(500), h)
	assert.InDelta(t, 2.0, f.cam.Aspect(), 1e-5)

	// Nonsense dimensions are ignored.
	f.rend.Resize(0, -1)
	w, h = f.backend.Size()
	assert.Equal(t, uint32(1000), w)
	assert.Equal(t, uint32(500), h)
}

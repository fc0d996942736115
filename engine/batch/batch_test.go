package batch

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/animation"
	"github.com/ckiee/automancy/engine/resource"
)

func testManager() (resource.Manager, resource.ID, resource.ID) {
	var hexID, cubeID resource.ID
	res := resource.NewManager(
		resource.WithModel(resource.NameMissing, resource.Mesh{IndexCount: 3}),
		resource.WithModel("model/hex", resource.Mesh{BaseVertex: 10, FirstIndex: 20, IndexCount: 12}),
		resource.WithModel("model/cube", resource.Mesh{BaseVertex: 40, FirstIndex: 60, IndexCount: 36}),
	)
	hexID, _ = res.Lookup("model/hex")
	cubeID, _ = res.Lookup("model/cube")
	return res, hexID, cubeID
}

func queuedAt(model resource.ID, x float32) Queued[struct{}] {
	return Queued[struct{}]{
		Model:    model,
		Instance: common.NewInstance().WithModelMatrix(mgl32.Translate3D(x, 0, 0)),
	}
}

func TestBatchEmpty(t *testing.T) {
	res, _, _ := testManager()
	data := Batch[struct{}](res, nil, animation.NewMap())

	assert.Empty(t, data.Instances)
	assert.Empty(t, data.MatrixData)
	assert.Empty(t, data.Draws)
	assert.Equal(t, uint32(0), data.DrawCount())
	assert.Nil(t, data.InstanceBytes())
	assert.Nil(t, data.IndirectBytes())
}

func TestBatchGroupsByModel(t *testing.T) {
	res, hexID, cubeID := testManager()

	queued := []Queued[struct{}]{
		queuedAt(cubeID, 0),
		queuedAt(hexID, 1),
		queuedAt(cubeID, 2),
		queuedAt(hexID, 3),
		queuedAt(hexID, 4),
	}
	data := Batch(res, queued, animation.NewMap())

	require.Len(t, data.Instances, 5)
	require.Len(t, data.MatrixData, 5)
	require.Len(t, data.Draws, 2)

	// Models sort ascending by ID, so hex (interned first) draws first.
	hexDraw, cubeDraw := data.Draws[0], data.Draws[1]
	require.Equal(t, hexID, hexDraw.Model)
	require.Equal(t, cubeID, cubeDraw.Model)

	assert.Equal(t, uint32(3), hexDraw.Args.InstanceCount)
	assert.Equal(t, uint32(0), hexDraw.Args.FirstInstance)
	assert.Equal(t, uint32(12), hexDraw.Args.IndexCount)
	assert.Equal(t, uint32(20), hexDraw.Args.FirstIndex)
	assert.Equal(t, int32(10), hexDraw.Args.BaseVertex)

	assert.Equal(t, uint32(2), cubeDraw.Args.InstanceCount)
	assert.Equal(t, uint32(3), cubeDraw.Args.FirstInstance)
	assert.Equal(t, uint32(36), cubeDraw.Args.IndexCount)
}

func TestBatchStableWithinRun(t *testing.T) {
	res, hexID, cubeID := testManager()

	// Interleaved input; within each model run the original relative
	// order must survive.
	queued := []Queued[struct{}]{
		queuedAt(hexID, 1),
		queuedAt(cubeID, 10),
		queuedAt(hexID, 2),
		queuedAt(cubeID, 20),
		queuedAt(hexID, 3),
	}
	data := Batch(res, queued, animation.NewMap())

	require.Len(t, data.MatrixData, 5)
	for i, wantX := range []float32{1, 2, 3, 10, 20} {
		inst := data.Instances[i]
		matrix := data.MatrixData[inst.MatrixIndex]
		assert.Equal(t, wantX, matrix[12], "instance %d", i)
	}
}

func TestBatchDeterministic(t *testing.T) {
	res, hexID, cubeID := testManager()

	queued := []Queued[struct{}]{
		queuedAt(cubeID, 5),
		queuedAt(hexID, 1),
		queuedAt(cubeID, 3),
	}
	a := Batch(res, queued, animation.NewMap())
	b := Batch(res, queued, animation.NewMap())

	assert.Equal(t, a.InstanceBytes(), b.InstanceBytes())
	assert.Equal(t, a.MatrixBytes(), b.MatrixBytes())
	assert.Equal(t, a.IndirectBytes(), b.IndirectBytes())
	assert.Equal(t, a.Draws, b.Draws)
}

func TestBatchSplitsRunsByKey(t *testing.T) {
	res, hexID, _ := testManager()

	queued := []Queued[int]{
		{Model: hexID, Key: 0, Instance: common.NewInstance()},
		{Model: hexID, Key: 1, Instance: common.NewInstance()},
		{Model: hexID, Key: 1, Instance: common.NewInstance()},
	}
	data := Batch(res, queued, animation.NewMap())

	require.Len(t, data.Draws, 2)
	assert.Equal(t, 0, data.Draws[0].Key)
	assert.Equal(t, uint32(1), data.Draws[0].Args.InstanceCount)
	assert.Equal(t, 1, data.Draws[1].Key)
	assert.Equal(t, uint32(2), data.Draws[1].Args.InstanceCount)
}

func TestBatchMissingModelFallback(t *testing.T) {
	res, _, _ := testManager()
	unknown := resource.ID(9999)

	data := Batch(res, []Queued[struct{}]{queuedAt(unknown, 0)}, animation.NewMap())

	require.Len(t, data.Draws, 1)
	missing := res.MeshOrMissing(unknown)
	assert.Equal(t, missing.IndexCount, data.Draws[0].Args.IndexCount)
}

func TestBatchAppliesAnimation(t *testing.T) {
	lift := mgl32.Translate3D(0, 0, 2)
	res := resource.NewManager(
		resource.WithModel(resource.NameMissing, resource.Mesh{IndexCount: 3}),
		resource.WithModel("model/anim", resource.Mesh{IndexCount: 6, Part: 1}),
		resource.WithAnimation("model/anim", resource.Track{
			Target:  1,
			Inputs:  []float32{1},
			Outputs: []mgl32.Mat4{lift},
		}),
	)
	animID, _ := res.Lookup("model/anim")

	anims := animation.NewMap()
	require.True(t, anims.Sample(res, animID, 0))

	base := mgl32.Translate3D(3, 0, 0)
	data := Batch(res, []Queued[struct{}]{{
		Model:    animID,
		Instance: common.NewInstance().WithModelMatrix(base),
	}}, anims)

	require.Len(t, data.MatrixData, 1)
	assert.Equal(t, base.Mul4(lift), data.MatrixData[0])
}

func TestBatchInstanceBytesLayout(t *testing.T) {
	res, hexID, _ := testManager()

	data := Batch(res, []Queued[struct{}]{queuedAt(hexID, 0)}, animation.NewMap())

	// 48 bytes per instance, 64 per matrix, 20 per indirect descriptor.
	assert.Len(t, data.InstanceBytes(), 48)
	assert.Len(t, data.MatrixBytes(), 64)
	assert.Len(t, data.IndirectBytes(), 20)
}

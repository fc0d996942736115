// Package batch groups per-tile draw instances by model into packed GPU
// instance buffers and indirect draw descriptors.
package batch

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/animation"
	"github.com/ckiee/automancy/engine/resource"
)

// GPUInstance is the per-instance vertex buffer layout consumed by the game
// vertex shader. MatrixIndex addresses the shared matrix-data storage buffer.
// Field order and padding match the WGSL declaration; do not reorder.
type GPUInstance struct {
	ColorOffset common.Color
	LightPos    [4]float32
	MatrixIndex uint32

	_pad [3]uint32
}

// IndirectArgs is the wgpu DrawIndexedIndirect argument layout: 20 bytes,
// consumed directly by the GPU from the indirect buffer.
type IndirectArgs struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Queued is one instance awaiting batching, tagged with a group key. The
// key travels with the emitted draw so callers that need to draw subsets
// later (the GUI path filters by element index) can find them; a run of
// instances only merges into one descriptor when model and key both match.
// Tile batching uses struct{} keys, which makes runs purely model-based.
type Queued[K comparable] struct {
	Instance common.Instance
	Model    resource.ID
	Key      K
}

// Draw is one indirect draw descriptor covering a run of instances that
// share a model.
type Draw[K comparable] struct {
	Args  IndirectArgs
	Model resource.ID
	Key   K
}

// DrawData is the render-ready output of one batching pass: a packed
// instance buffer, a parallel matrix-data buffer addressed by instance
// index, and one indirect descriptor per model run. Built fresh per batch
// and immutable afterwards.
type DrawData[K comparable] struct {
	Instances  []GPUInstance
	MatrixData []mgl32.Mat4
	Draws      []Draw[K]
}

// Batch stable-sorts the queued instances by model and emits one indirect
// draw descriptor per maximal run of identical models, covering that run's
// slice of the packed instance buffer and the model's mesh ranges. Ties in
// the sort preserve the original relative order, so the packed position of
// an instance is deterministic for identical input: the same input always
// yields byte-identical buffers and descriptor order.
//
// Each instance's matrix-data entry is its model transform multiplied by the
// composed animation transform of its mesh's part, identity when the model
// is not animated. Models with no registered mesh use the missing-model
// fallback mesh.
//
// An empty input produces empty buffers and zero draws.
func Batch[K comparable](res resource.Manager, queued []Queued[K], anims *animation.Map) DrawData[K] {
	if len(queued) == 0 {
		return DrawData[K]{}
	}

	sorted := make([]Queued[K], len(queued))
	copy(sorted, queued)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Model < sorted[j].Model
	})

	data := DrawData[K]{
		Instances:  make([]GPUInstance, 0, len(sorted)),
		MatrixData: make([]mgl32.Mat4, 0, len(sorted)),
	}

	runStart := 0
	for i := 0; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Model == sorted[runStart].Model && sorted[i].Key == sorted[runStart].Key {
			continue
		}

		model := sorted[runStart].Model
		mesh := res.MeshOrMissing(model)

		for _, q := range sorted[runStart:i] {
			matrix := q.Instance.ModelMatrix
			if anim, ok := anims.Part(model, mesh.Part); ok {
				matrix = matrix.Mul4(anim)
			}

			data.Instances = append(data.Instances, GPUInstance{
				ColorOffset: q.Instance.ColorOffset,
				LightPos:    q.Instance.LightPos,
				MatrixIndex: uint32(len(data.MatrixData)),
			})
			data.MatrixData = append(data.MatrixData, matrix)
		}

		data.Draws = append(data.Draws, Draw[K]{
			Args: IndirectArgs{
				IndexCount:    mesh.IndexCount,
				InstanceCount: uint32(i - runStart),
				FirstIndex:    mesh.FirstIndex,
				BaseVertex:    mesh.BaseVertex,
				FirstInstance: uint32(runStart),
			},
			Model: model,
			Key:   sorted[runStart].Key,
		})

		runStart = i
	}

	return data
}

// DrawCount returns the number of indirect draw descriptors.
func (d *DrawData[K]) DrawCount() uint32 {
	return uint32(len(d.Draws))
}

// InstanceBytes returns the packed instance buffer ready for GPU upload.
func (d *DrawData[K]) InstanceBytes() []byte {
	return common.SliceToBytes(d.Instances)
}

// MatrixBytes returns the matrix-data storage buffer ready for GPU upload.
func (d *DrawData[K]) MatrixBytes() []byte {
	return common.SliceToBytes(d.MatrixData)
}

// IndirectBytes returns the concatenated DrawIndexedIndirect arguments of
// every descriptor, in emission order, ready for GPU upload.
func (d *DrawData[K]) IndirectBytes() []byte {
	args := make([]IndirectArgs, len(d.Draws))
	for i, draw := range d.Draws {
		args[i] = draw.Args
	}
	return common.SliceToBytes(args)
}

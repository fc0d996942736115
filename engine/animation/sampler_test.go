package animation

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/engine/resource"
)

func trackManager(tracks ...resource.Track) (resource.Manager, resource.ID) {
	opts := []resource.ManagerBuilderOption{
		resource.WithModel(resource.NameMissing, resource.Mesh{IndexCount: 3}),
		resource.WithModel("model/anim", resource.Mesh{IndexCount: 6, Part: 1}),
	}
	for _, track := range tracks {
		opts = append(opts, resource.WithAnimation("model/anim", track))
	}
	res := resource.NewManager(opts...)
	id, _ := res.Lookup("model/anim")
	return res, id
}

func translations(xs ...float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(xs))
	for i, x := range xs {
		out[i] = mgl32.Translate3D(x, 0, 0)
	}
	return out
}

func TestSampleStepped(t *testing.T) {
	res, id := trackManager(resource.Track{
		Target:  1,
		Inputs:  []float32{0.5, 1.0, 2.0},
		Outputs: translations(10, 20, 30),
	})

	tests := []struct {
		name    string
		elapsed float32
		wantX   float32
	}{
		{"before first keyframe", 0.1, 10},
		{"exactly on a keyframe", 1.0, 20},
		{"between keyframes steps forward", 1.2, 30},
		{"at duration wraps to start", 2.0, 10},
		{"past duration wraps", 2.6, 20},
		{"far past duration wraps", 4.1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMap()
			require.True(t, m.Sample(res, id, tt.elapsed))

			got, ok := m.Part(id, 1)
			require.True(t, ok)
			assert.Equal(t, tt.wantX, got[12])
		})
	}
}

func TestSampleComposesTracksInRegistrationOrder(t *testing.T) {
	translate := mgl32.Translate3D(1, 0, 0)
	scale := mgl32.Scale3D(2, 2, 2)

	res, id := trackManager(
		resource.Track{Target: 1, Inputs: []float32{1}, Outputs: []mgl32.Mat4{translate}},
		resource.Track{Target: 1, Inputs: []float32{1}, Outputs: []mgl32.Mat4{scale}},
	)

	m := NewMap()
	require.True(t, m.Sample(res, id, 0))

	got, ok := m.Part(id, 1)
	require.True(t, ok)
	assert.Equal(t, translate.Mul4(scale), got)
}

func TestSampleUnanimatedModel(t *testing.T) {
	res, _ := trackManager()
	plainID, _ := res.Lookup(resource.NameMissing)

	m := NewMap()
	assert.False(t, m.Sample(res, plainID, 0))

	_, ok := m.Part(plainID, 0)
	assert.False(t, ok)

	// Repeat lookups hit the negative cache, not the resource query.
	assert.False(t, m.Sample(res, plainID, 5))
}

func TestSampleCachesFirstEvaluation(t *testing.T) {
	res, id := trackManager(resource.Track{
		Target:  1,
		Inputs:  []float32{1, 2},
		Outputs: translations(10, 20),
	})

	m := NewMap()
	require.True(t, m.Sample(res, id, 0.5))
	first, _ := m.Part(id, 1)

	// A later Sample with a different time must not re-evaluate within
	// the same frame map.
	require.True(t, m.Sample(res, id, 1.5))
	second, _ := m.Part(id, 1)
	assert.Equal(t, first, second)
}

func TestPartUntrackedTarget(t *testing.T) {
	res, id := trackManager(resource.Track{
		Target:  1,
		Inputs:  []float32{1},
		Outputs: translations(10),
	})

	m := NewMap()
	require.True(t, m.Sample(res, id, 0))

	_, ok := m.Part(id, 7)
	assert.False(t, ok)
}

func TestPartUnsampledModel(t *testing.T) {
	m := NewMap()
	got, ok := m.Part(resource.ID(42), 0)
	assert.False(t, ok)
	assert.Equal(t, mgl32.Ident4(), got)
}

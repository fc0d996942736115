// Package animation samples model keyframe tracks into per-frame transform
// maps consumed by the instance batcher.
package animation

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ckiee/automancy/engine/resource"
)

// Map caches sampled animation transforms for the lifetime of one frame.
// The first Sample call for a model evaluates every track of that model at
// the given elapsed time; later calls within the same frame hit the cache,
// including for models that turned out to have no animation. A Map must not
// be shared between frames: discard it once the frame's batches are built.
//
// Map is not safe for concurrent use; the render thread owns it.
type Map struct {
	// samples maps model → part → composed transform. A present nil entry
	// marks a model known to have no animation, so it is not re-resolved.
	samples map[resource.ID]map[uint32]mgl32.Mat4
}

// NewMap returns an empty per-frame animation map.
func NewMap() *Map {
	return &Map{samples: make(map[resource.ID]map[uint32]mgl32.Mat4)}
}

// Sample evaluates the model's animation tracks at elapsed seconds and
// caches the per-part composed transforms. Sampling is stepped: for each
// track the elapsed time is wrapped modulo the track duration and the first
// keyframe at or after the wrapped time is taken outright, with no
// interpolation between neighboring keyframes. Tracks targeting the same
// part compose by matrix multiplication in registration order.
//
// Returns whether the model has any animation. Models without tracks are
// recorded so repeated lookups skip the resource query.
func (m *Map) Sample(res resource.Manager, model resource.ID, elapsed float32) bool {
	if parts, ok := m.samples[model]; ok {
		return parts != nil
	}

	tracks := res.Animations(model)
	if len(tracks) == 0 {
		m.samples[model] = nil
		return false
	}

	parts := make(map[uint32]mgl32.Mat4, len(tracks))
	for _, track := range tracks {
		if len(track.Inputs) == 0 {
			continue
		}
		out := sampleStepped(track, elapsed)

		if acc, ok := parts[track.Target]; ok {
			parts[track.Target] = acc.Mul4(out)
		} else {
			parts[track.Target] = out
		}
	}

	m.samples[model] = parts
	return true
}

// Part returns the composed transform sampled for one part of a model.
// The second result is false when the model has no animation, the part is
// untracked, or the model was never sampled this frame.
func (m *Map) Part(model resource.ID, part uint32) (mgl32.Mat4, bool) {
	parts := m.samples[model]
	if parts == nil {
		return mgl32.Ident4(), false
	}
	t, ok := parts[part]
	if !ok {
		return mgl32.Ident4(), false
	}
	return t, true
}

// sampleStepped picks the track's output at the first keyframe whose time is
// at or after elapsed wrapped into the track's looping duration.
func sampleStepped(track resource.Track, elapsed float32) mgl32.Mat4 {
	duration := track.Duration()
	wrapped := float32(math.Mod(float64(elapsed), float64(duration)))
	if wrapped < 0 {
		wrapped += duration
	}

	// Partition point over ascending keyframe times: index of the first
	// input >= wrapped. wrapped < duration, so index is always in range.
	index := sort.Search(len(track.Inputs), func(i int) bool {
		return track.Inputs[i] >= wrapped
	})
	if index == len(track.Inputs) {
		index = len(track.Inputs) - 1
	}
	return track.Outputs[index]
}

package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileCoordArithmetic(t *testing.T) {
	a := TileCoord{Q: 2, R: -1}
	b := TileCoord{Q: -1, R: 3}

	assert.Equal(t, TileCoord{Q: 1, R: 2}, a.Add(b))
	assert.Equal(t, TileCoord{Q: 3, R: -4}, a.Sub(b))
	assert.Equal(t, TileCoord{Q: -2, R: 1}, a.Neg())
}

func TestTileCoordDistance(t *testing.T) {
	origin := TileCoord{}

	assert.Equal(t, int32(0), origin.Distance(origin))

	// Each of the six unit directions is one step away.
	for _, dir := range HexDirections {
		assert.Equal(t, int32(1), origin.Distance(dir), "direction %+v", dir)
	}

	// Diagonal through two axes still counts hex steps, not Chebyshev.
	assert.Equal(t, int32(2), origin.Distance(TileCoord{Q: 1, R: 1}))
	assert.Equal(t, int32(3), origin.Distance(TileCoord{Q: 3, R: -2}))
}

func TestCullingRangeContains(t *testing.T) {
	r := CullingRange{Center: TileCoord{Q: 1, R: 0}, Radius: 2}

	assert.True(t, r.Contains(TileCoord{Q: 1, R: 0}))
	assert.True(t, r.Contains(TileCoord{Q: 3, R: 0}))
	assert.False(t, r.Contains(TileCoord{Q: 4, R: 0}))
}

func TestCullingRangeEach(t *testing.T) {
	r := CullingRange{Center: TileCoord{Q: -2, R: 5}, Radius: 3}

	var visited []TileCoord
	r.Each(func(c TileCoord) {
		visited = append(visited, c)
	})

	require.Len(t, visited, r.Count())

	seen := make(map[TileCoord]bool, len(visited))
	for _, c := range visited {
		assert.True(t, r.Contains(c), "visited coordinate %+v outside range", c)
		assert.False(t, seen[c], "coordinate %+v visited twice", c)
		seen[c] = true
	}
}

func TestCullingRangeCount(t *testing.T) {
	for radius, want := range map[int32]int{0: 1, 1: 7, 2: 19, 3: 37} {
		r := CullingRange{Radius: radius}
		assert.Equal(t, want, r.Count(), "radius %d", radius)
	}
}

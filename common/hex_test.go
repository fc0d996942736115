package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexLayoutWorldPos(t *testing.T) {
	l := HexGridLayout

	origin := l.WorldPos(TileCoord{})
	assert.Equal(t, mgl32.Vec2{0, 0}, origin)

	east := l.WorldPos(TileCoord{Q: 1, R: 0})
	assert.InDelta(t, Sqrt3, east[0], 1e-5)
	assert.InDelta(t, 0, east[1], 1e-5)

	southEast := l.WorldPos(TileCoord{Q: 0, R: 1})
	assert.InDelta(t, Sqrt3/2, southEast[0], 1e-5)
	assert.InDelta(t, 1.5, southEast[1], 1e-5)
}

func TestHexLayoutLerpWorldPos(t *testing.T) {
	l := HexGridLayout
	a := TileCoord{Q: 0, R: 0}
	b := TileCoord{Q: 2, R: 0}

	assert.Equal(t, l.WorldPos(a), l.LerpWorldPos(a, b, 0))
	assert.Equal(t, l.WorldPos(b), l.LerpWorldPos(a, b, 1))

	mid := l.LerpWorldPos(a, b, 0.5)
	assert.InDelta(t, Sqrt3, mid[0], 1e-5)
	assert.InDelta(t, 0, mid[1], 1e-5)
}

func TestTileFromWorldRoundTrip(t *testing.T) {
	l := HexGridLayout
	coords := []TileCoord{
		{Q: 0, R: 0},
		{Q: 5, R: -2},
		{Q: -7, R: 3},
		{Q: 1, R: 1},
		{Q: -4, R: -4},
	}
	for _, c := range coords {
		got := l.TileFromWorld(l.WorldPos(c))
		assert.Equal(t, c, got, "center of %+v must resolve to itself", c)
	}
}

func TestTileFromWorldOffCenter(t *testing.T) {
	l := HexGridLayout
	c := TileCoord{Q: 2, R: -1}
	p := l.WorldPos(c)

	// Points well inside the hex area still resolve to the same hex.
	for _, off := range []mgl32.Vec2{{0.3, 0}, {-0.3, 0}, {0, 0.4}, {0.2, -0.3}} {
		got := l.TileFromWorld(mgl32.Vec2{p[0] + off[0], p[1] + off[1]})
		assert.Equal(t, c, got, "offset %+v", off)
	}
}

func TestTileDirectionToAngle(t *testing.T) {
	for i, dir := range HexDirections {
		deg, ok := TileDirectionToAngle(dir)
		require.True(t, ok)
		assert.InDelta(t, float32(i)*60, deg, 1e-5)
	}

	_, ok := TileDirectionToAngle(TileCoord{Q: 2, R: 0})
	assert.False(t, ok, "non-unit offsets have no facing")
	_, ok = TileDirectionToAngle(TileCoord{})
	assert.False(t, ok, "the zero offset has no facing")
}

func TestMakeLine(t *testing.T) {
	a := mgl32.Vec2{0, 0}
	b := mgl32.Vec2{4, 0}
	m := MakeLine(a, b, 0.5)

	// The cube model spans [-1, 1]; its endpoints must land on a and b.
	left := mgl32.TransformCoordinate(mgl32.Vec3{-1, 0, 0}, m)
	right := mgl32.TransformCoordinate(mgl32.Vec3{1, 0, 0}, m)
	assert.InDelta(t, 0, left.X(), 1e-4)
	assert.InDelta(t, 4, right.X(), 1e-4)
	assert.InDelta(t, 0.5, left.Z(), 1e-4)
	assert.InDelta(t, 0.5, right.Z(), 1e-4)
}

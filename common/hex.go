package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sqrt3 is the horizontal spacing factor of a pointy-top hex layout.
const Sqrt3 = 1.7320508075688772

// Far is the depth at which flat tile geometry sits in world space.
// Decorations render slightly above it so they are never z-fought by tiles.
const Far float32 = 0.0

// LineDepth is the z thickness used for link lines and direction arrows.
const LineDepth float32 = 0.075

// HexLayout converts axial hex coordinates to world positions.
// Size is the circumradius of one hex in world units.
type HexLayout struct {
	Size float32
}

// HexGridLayout is the layout used by the game world: unit-sized pointy-top
// hexes centered on the origin.
var HexGridLayout = HexLayout{Size: 1}

// WorldPos returns the world-space center of the given hex.
func (l HexLayout) WorldPos(c TileCoord) mgl32.Vec2 {
	q := float32(c.Q)
	r := float32(c.R)
	return mgl32.Vec2{
		l.Size * (Sqrt3*q + Sqrt3/2*r),
		l.Size * (3.0 / 2.0 * r),
	}
}

// LerpWorldPos returns the linear interpolation between the world positions
// of two hexes at parameter t in [0, 1].
func (l HexLayout) LerpWorldPos(a, b TileCoord, t float32) mgl32.Vec2 {
	pa := l.WorldPos(a)
	pb := l.WorldPos(b)
	return mgl32.Vec2{
		pa[0] + (pb[0]-pa[0])*t,
		pa[1] + (pb[1]-pa[1])*t,
	}
}

// TileFromWorld returns the hex whose area contains the world point p.
func (l HexLayout) TileFromWorld(p mgl32.Vec2) TileCoord {
	q := float64((p[0]*Sqrt3/3 - p[1]/3) / l.Size)
	r := float64(p[1] * 2 / 3 / l.Size)

	// Cube rounding keeps q + r + s = 0 after snapping to integers.
	s := -q - r
	rq := math.Round(q)
	rr := math.Round(r)
	rs := math.Round(s)
	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)
	if dq > dr && dq > ds {
		rq = -rr - rs
	} else if dr > ds {
		rr = -rq - rs
	}
	return TileCoord{Q: int32(rq), R: int32(rr)}
}

// DirectionToAngle returns the angle in radians of a world-space direction
// vector, measured counter-clockwise from +X.
func DirectionToAngle(d mgl32.Vec2) float32 {
	return float32(math.Atan2(float64(d.Y()), float64(d.X())))
}

// TileDirectionToAngle resolves a facing target expressed as a unit axial
// offset to an angle in degrees. Returns false when the offset is not one of
// the six hex directions, in which case the tile has no defined facing.
func TileDirectionToAngle(d TileCoord) (float32, bool) {
	for i, dir := range HexDirections {
		if d == dir {
			return float32(i) * 60.0, true
		}
	}
	return 0, false
}

// MakeLine builds a model matrix that stretches the cube model, which spans
// [-1, 1] on every axis, into a thin line between two world points at depth z.
func MakeLine(a, b mgl32.Vec2, z float32) mgl32.Mat4 {
	mid := mgl32.Vec2{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	d := mgl32.Vec2{b[0] - a[0], b[1] - a[1]}
	length := float32(math.Hypot(float64(d[0]), float64(d[1])))
	theta := DirectionToAngle(d)

	return mgl32.Translate3D(mid[0], mid[1], z).
		Mul4(mgl32.HomogRotate3DZ(theta)).
		Mul4(mgl32.Scale3D(length/2, 0.1, LineDepth))
}

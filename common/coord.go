package common

// TileCoord is an axial hex-grid coordinate.
// Q grows to the east, R to the south-east (pointy-top orientation).
type TileCoord struct {
	Q int32
	R int32
}

// Add returns the component-wise sum of two coordinates.
func (c TileCoord) Add(o TileCoord) TileCoord {
	return TileCoord{Q: c.Q + o.Q, R: c.R + o.R}
}

// Sub returns the component-wise difference of two coordinates.
func (c TileCoord) Sub(o TileCoord) TileCoord {
	return TileCoord{Q: c.Q - o.Q, R: c.R - o.R}
}

// Neg returns the coordinate with both components negated.
func (c TileCoord) Neg() TileCoord {
	return TileCoord{Q: -c.Q, R: -c.R}
}

// Distance returns the hex-grid distance between two coordinates.
func (c TileCoord) Distance(o TileCoord) int32 {
	d := c.Sub(o)
	return (abs32(d.Q) + abs32(d.R) + abs32(d.Q+d.R)) / 2
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// HexDirections lists the six unit axial offsets, counter-clockwise starting
// from east. The index of a direction is used to resolve tile facing angles.
var HexDirections = [6]TileCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// CullingRange bounds simulation queries to the coordinates currently visible
// to the camera: every hex within Radius of Center.
type CullingRange struct {
	Center TileCoord
	Radius int32
}

// Contains reports whether the coordinate lies inside the range.
func (r CullingRange) Contains(c TileCoord) bool {
	return r.Center.Distance(c) <= r.Radius
}

// Each calls fn for every coordinate in the range, in a deterministic
// (row-major over axial q/r) order.
func (r CullingRange) Each(fn func(TileCoord)) {
	for q := -r.Radius; q <= r.Radius; q++ {
		lo := max(-r.Radius, -q-r.Radius)
		hi := min(r.Radius, -q+r.Radius)
		for s := lo; s <= hi; s++ {
			fn(TileCoord{Q: r.Center.Q + q, R: r.Center.R + s})
		}
	}
}

// Count returns the number of coordinates in the range.
func (r CullingRange) Count() int {
	n := int64(r.Radius)
	return int(3*n*(n+1) + 1)
}

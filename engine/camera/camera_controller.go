package camera

// CameraController defines the interface for camera control systems.
// Controllers own positional state (position, target). Camera reads from the
// controller and computes view/projection matrices. The single implementation
// is a planar controller: it hovers over the z=0 tile plane, pans across it,
// and zooms by changing its height, with velocity carried between ticks so
// input feels weighty instead of stepping.
type CameraController interface {
	// Position returns the camera's world-space position. The z component
	// is the height above the tile plane and doubles as the zoom level.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns the look-at point, which sits directly below the
	// camera on the tile plane.
	//
	// Returns:
	//   - x, y, z: world-space target position
	Target() (x, y, z float32)

	// SetPosition places the camera over a point on the tile plane,
	// cancelling any pan velocity.
	//
	// Parameters:
	//   - x, y: world-space coordinates on the tile plane
	SetPosition(x, y float32)

	// Pan adds pan velocity along the tile plane. The applied speed scales
	// with the current height so screen-space drag feel is constant across
	// zoom levels.
	//
	// Parameters:
	//   - dx, dy: pan input scaled by PanSpeed
	Pan(dx, dy float32)

	// Zoom adds zoom velocity. Positive delta moves the camera away from
	// the plane; the resulting height is clamped to min/max bounds during
	// Tick.
	//
	// Parameters:
	//   - delta: zoom input scaled by ZoomSpeed
	Zoom(delta float32)

	// Tick integrates accumulated velocities over the elapsed time and
	// decays them. Should be called once per frame.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Tick(dt float32)

	// Height returns the current height above the tile plane.
	//
	// Returns:
	//   - float32: height in world units
	Height() float32

	// MinHeight returns the minimum allowed height.
	//
	// Returns:
	//   - float32: minimum zoom distance
	MinHeight() float32

	// MaxHeight returns the maximum allowed height.
	//
	// Returns:
	//   - float32: maximum zoom distance
	MaxHeight() float32

	// PanSpeed returns the pan speed multiplier.
	//
	// Returns:
	//   - float32: multiplier for pan input
	PanSpeed() float32

	// ZoomSpeed returns the zoom speed multiplier.
	//
	// Returns:
	//   - float32: multiplier for zoom input
	ZoomSpeed() float32
}

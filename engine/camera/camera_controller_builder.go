package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithStartPosition sets the initial position over the tile plane.
//
// Parameters:
//   - x: X coordinate on the tile plane
//   - y: Y coordinate on the tile plane
//
// Returns:
//   - CameraControllerOption: functional option to set the start position
func WithStartPosition(x, y float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position[0] = x
		cc.position[1] = y
	}
}

// WithHeight sets the initial height above the tile plane.
//
// Parameters:
//   - height: height in world units
//
// Returns:
//   - CameraControllerOption: functional option to set the height
func WithHeight(height float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.height = height
	}
}

// WithHeightBounds sets the minimum and maximum height above the tile plane.
//
// Parameters:
//   - min: minimum zoom distance
//   - max: maximum zoom distance
//
// Returns:
//   - CameraControllerOption: functional option to set height bounds
func WithHeightBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minHeight = min
		cc.maxHeight = max
	}
}

// WithPanSpeed sets the pan speed multiplier.
//
// Parameters:
//   - speed: multiplier for pan input
//
// Returns:
//   - CameraControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
//
// Parameters:
//   - speed: multiplier for zoom input
//
// Returns:
//   - CameraControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithDamping sets the fraction of pan/zoom velocity surviving one second
// of decay. Values closer to zero stop the camera faster.
//
// Parameters:
//   - damping: survival fraction in (0, 1)
//
// Returns:
//   - CameraControllerOption: functional option to set damping
func WithDamping(damping float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if damping > 0 && damping < 1 {
			cc.damping = damping
		}
	}
}

package camera

import (
	"math"
	"sync"
)

// cameraControllerImpl is the single implementation of CameraController.
// Pan and zoom inputs accumulate into velocities which Tick integrates and
// decays exponentially, so releasing an input lets the camera glide to rest
// instead of stopping dead.
type cameraControllerImpl struct {
	mu *sync.Mutex

	// Position over the tile plane; height is the z component.
	position [2]float32
	height   float32

	panVel  [2]float32
	zoomVel float32

	minHeight float32
	maxHeight float32

	panSpeed  float32
	zoomSpeed float32

	// Fraction of velocity surviving one second of decay.
	damping float32
}

// Compile-time interface compliance check
var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new planar camera controller with sensible
// defaults for a hex-grid map view.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:     &sync.Mutex{},
		height: 6.0,

		minHeight: 1.5,
		maxHeight: 12.0,

		panSpeed:  1.0,
		zoomSpeed: 0.65,
		damping:   0.0025,
	}

	for _, option := range options {
		option(cc)
	}

	cc.clampHeight()
	return cc
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.height
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], 0
}

func (cc *cameraControllerImpl) SetPosition(x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position[0] = x
	cc.position[1] = y
	cc.panVel = [2]float32{}
}

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	scale := cc.panSpeed * cc.height
	cc.panVel[0] += dx * scale
	cc.panVel[1] += dy * scale
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.zoomVel += delta * cc.zoomSpeed
}

func (cc *cameraControllerImpl) Tick(dt float32) {
	if dt <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.position[0] += cc.panVel[0] * dt
	cc.position[1] += cc.panVel[1] * dt
	cc.height += cc.zoomVel * dt
	cc.clampHeight()

	decay := float32(math.Pow(float64(cc.damping), float64(dt)))
	cc.panVel[0] *= decay
	cc.panVel[1] *= decay
	cc.zoomVel *= decay
}

func (cc *cameraControllerImpl) Height() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.height
}

func (cc *cameraControllerImpl) MinHeight() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minHeight
}

func (cc *cameraControllerImpl) MaxHeight() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maxHeight
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}

// clampHeight bounds the height and kills zoom velocity at the stops.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) clampHeight() {
	if cc.height < cc.minHeight {
		cc.height = cc.minHeight
		cc.zoomVel = 0
	}
	if cc.height > cc.maxHeight {
		cc.height = cc.maxHeight
		cc.zoomVel = 0
	}
}

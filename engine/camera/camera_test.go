package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckiee/automancy/common"
)

func TestControllerPanIntegration(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.SetPosition(0, 0)

	ctrl.Pan(1, 0)
	ctrl.Tick(0.1)

	x, y, _ := ctrl.Position()
	assert.Greater(t, x, float32(0), "pan right must move the camera east")
	assert.Equal(t, float32(0), y)

	// Velocity decays; with no further input the camera settles.
	for i := 0; i < 200; i++ {
		ctrl.Tick(0.1)
	}
	settledX, _, _ := ctrl.Position()
	ctrl.Tick(0.1)
	finalX, _, _ := ctrl.Position()
	assert.InDelta(t, settledX, finalX, 1e-3)
}

func TestControllerPanScalesWithHeight(t *testing.T) {
	low := NewCameraController(WithHeight(2))
	high := NewCameraController(WithHeight(10))

	low.Pan(1, 0)
	low.Tick(0.1)
	high.Pan(1, 0)
	high.Tick(0.1)

	lowX, _, _ := low.Position()
	highX, _, _ := high.Position()
	assert.Greater(t, highX, lowX, "the same drag covers more ground when zoomed out")
}

func TestControllerZoomClamped(t *testing.T) {
	ctrl := NewCameraController()

	for i := 0; i < 100; i++ {
		ctrl.Zoom(10)
		ctrl.Tick(0.1)
	}
	assert.Equal(t, ctrl.MaxHeight(), ctrl.Height())

	for i := 0; i < 100; i++ {
		ctrl.Zoom(-10)
		ctrl.Tick(0.1)
	}
	assert.Equal(t, ctrl.MinHeight(), ctrl.Height())
}

func TestControllerSetPositionCancelsVelocity(t *testing.T) {
	ctrl := NewCameraController()
	ctrl.Pan(5, 5)
	ctrl.SetPosition(3, 4)
	ctrl.Tick(0.5)

	x, y, _ := ctrl.Position()
	assert.Equal(t, float32(3), x)
	assert.Equal(t, float32(4), y)
}

func TestCameraMatricesFollowController(t *testing.T) {
	ctrl := NewCameraController(WithStartPosition(2, 3))
	cam := NewCamera(WithAspect(16.0/9.0), WithController(ctrl))
	cam.Update()

	view := cam.ViewMatrix()
	// The view matrix maps the camera position to the origin.
	x, y, z := ctrl.Position()
	eye := mgl32.TransformCoordinate(mgl32.Vec3{x, y, z}, view)
	assert.InDelta(t, 0, eye.Len(), 1e-4)

	vp := cam.ViewProjectionMatrix()
	assert.Equal(t, cam.ProjectionMatrix().Mul4(view), vp)
}

func TestCameraUpdateTracksControllerMovement(t *testing.T) {
	ctrl := NewCameraController(WithStartPosition(0, 0))
	cam := NewCamera(WithController(ctrl))
	cam.Update()
	before := cam.ViewMatrix()

	ctrl.SetPosition(5, 0)
	cam.Update()
	assert.NotEqual(t, before, cam.ViewMatrix())
}

func TestCullingRangeCentersOnCamera(t *testing.T) {
	target := common.TileCoord{Q: 4, R: -2}
	pos := common.HexGridLayout.WorldPos(target)
	ctrl := NewCameraController(WithStartPosition(pos[0], pos[1]))
	cam := NewCamera(WithController(ctrl))

	r := cam.CullingRange()
	assert.Equal(t, target, r.Center)
	assert.Greater(t, r.Radius, int32(0))
}

func TestCullingRangeGrowsWithHeight(t *testing.T) {
	low := NewCamera(WithController(NewCameraController(WithHeight(2))))
	high := NewCamera(WithController(NewCameraController(WithHeight(12))))

	assert.Greater(t, high.CullingRange().Radius, low.CullingRange().Radius)
}

func TestCullingRangeCoversVisibleExtent(t *testing.T) {
	ctrl := NewCameraController(WithHeight(6))
	cam := NewCamera(WithAspect(2), WithController(ctrl))

	r := cam.CullingRange()

	// The radius must cover the wider half extent of the visible plane.
	halfH := 6 * math.Tan(float64(cam.Fov())/2)
	halfW := halfH * 2
	minRadius := int32(math.Ceil(halfW / common.Sqrt3))
	assert.GreaterOrEqual(t, r.Radius, minRadius)
}

func TestCullingRangeWithoutController(t *testing.T) {
	cam := NewCamera()
	r := cam.CullingRange()
	assert.Equal(t, common.CullingRange{}, r)
}

func TestGPUCameraUniformMarshal(t *testing.T) {
	ctrl := NewCameraController(WithStartPosition(1, 2))
	cam := NewCamera(WithController(ctrl))
	cam.Update()

	u := NewGPUCameraUniform(cam)
	raw := u.Marshal()
	require.Len(t, raw, 80)
}

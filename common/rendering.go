package common

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA color.
type Color [4]float32

// Common palette entries used by decorative instances.
var (
	ColorRed         = Color{1, 0, 0, 1}
	ColorOrange      = Color{1, 0.65, 0, 1}
	ColorWhite       = Color{1, 1, 1, 1}
	ColorTransparent = Color{0, 0, 0, 0}
)

// Instance describes one positioned occurrence of a model: a world transform,
// an optional color offset added in the shader, and an optional light
// position. Instances are value types; the With* methods return modified
// copies so a queued instance is never mutated after batching.
type Instance struct {
	ModelMatrix mgl32.Mat4
	ColorOffset Color
	LightPos    mgl32.Vec4
}

// NewInstance returns an instance with an identity transform and no color
// offset.
func NewInstance() Instance {
	return Instance{ModelMatrix: mgl32.Ident4()}
}

// WithModelMatrix returns a copy with the transform replaced.
func (i Instance) WithModelMatrix(m mgl32.Mat4) Instance {
	i.ModelMatrix = m
	return i
}

// AddModelMatrix returns a copy with m multiplied onto the right of the
// current transform.
func (i Instance) AddModelMatrix(m mgl32.Mat4) Instance {
	i.ModelMatrix = i.ModelMatrix.Mul4(m)
	return i
}

// WithColorOffset returns a copy with the color offset replaced.
func (i Instance) WithColorOffset(c Color) Instance {
	i.ColorOffset = c
	return i
}

// WithLightPos returns a copy lit from pos. Intensity defaults to 1 when
// zero is passed.
func (i Instance) WithLightPos(pos mgl32.Vec3, intensity float32) Instance {
	if intensity == 0 {
		intensity = 1
	}
	i.LightPos = mgl32.Vec4{pos.X(), pos.Y(), pos.Z(), intensity}
	return i
}

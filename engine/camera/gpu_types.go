package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform
// buffer consumed by the game and decoration passes.
// Size: 80 bytes (std430 / WGSL aligned).
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32  // offset 64: world-space camera position (vec3<f32>)
	_pad           float32     // offset 76: padding to 80 bytes
}

// NewGPUCameraUniform captures the camera's current matrices into the GPU
// layout.
//
// Parameters:
//   - cam: the camera to capture
//
// Returns:
//   - GPUCameraUniform: the uniform ready for upload
func NewGPUCameraUniform(cam Camera) GPUCameraUniform {
	var g GPUCameraUniform
	vp := cam.ViewProjectionMatrix()
	copy(g.ViewProj[:], vp[:])
	if ctrl := cam.Controller(); ctrl != nil {
		x, y, z := ctrl.Position()
		g.CameraPosition = [3]float32{x, y, z}
	}
	return g
}

// NewGPUCameraUniformFromMatrix builds the uniform from an explicit matrix,
// used by screen-space passes that bypass the camera.
//
// Parameters:
//   - viewProj: the combined view-projection matrix
//   - pos: world-space camera position
//
// Returns:
//   - GPUCameraUniform: the uniform ready for upload
func NewGPUCameraUniformFromMatrix(viewProj mgl32.Mat4, pos mgl32.Vec3) GPUCameraUniform {
	var g GPUCameraUniform
	copy(g.ViewProj[:], viewProj[:])
	g.CameraPosition = [3]float32{pos[0], pos[1], pos[2]}
	return g
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable
// for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	binary.LittleEndian.PutUint32(buf[76:], 0) // _pad
	return buf
}

package renderer

import (
	"github.com/ckiee/automancy/engine/batch"
	"github.com/ckiee/automancy/engine/camera"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8
)

// Frame is everything the backend needs to compose one presented frame: the
// camera uniform plus the batched draw data of each instanced pass. The
// renderer owns the frame; the backend only reads it during RenderFrame.
type Frame struct {
	// Uniform is the camera state bound to the world-space passes.
	Uniform camera.GPUCameraUniform

	// Game is the batched tile geometry. Carried over between batch
	// recomputes, so consecutive frames may hand the backend the same data.
	Game batch.DrawData[struct{}]

	// Extra is the batched decoration geometry (in-flight transactions,
	// link lines, direction arrows, item icons), rebuilt every frame.
	Extra batch.DrawData[struct{}]

	// Gui is the batched world-space GUI geometry, keyed by element index
	// so each element's draws stay separate descriptors.
	Gui batch.DrawData[int]

	// GuiClips holds the scissor rectangle of each clipped GUI element,
	// keyed by the same element index as Gui's descriptors. Elements absent
	// from the map draw across the full surface.
	GuiClips map[int]ClipRect

	// Screenshot requests a CPU copy of the composed frame after present.
	Screenshot bool
}

// ScreenshotData is the CPU copy of one composed frame: tightly packed RGBA
// rows with the alpha channel forced opaque.
type ScreenshotData struct {
	Width  uint32
	Height uint32
	Pixels []byte
}

// FrameBackend is the GPU side of the renderer. It owns the surface, the
// intermediate pass targets, the pipelines, and the grow-only draw buffers,
// and turns a Frame into a presented image. Implementations are not safe for
// concurrent use; the render thread owns the backend.
type FrameBackend interface {
	// Size returns the currently configured surface size in pixels.
	//
	// Returns:
	//   - width: surface width in pixels
	//   - height: surface height in pixels
	Size() (width, height uint32)

	// Resize reconfigures the surface and recreates every size-dependent
	// pass target. A zero dimension is ignored.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height uint32)

	// SetPresentMode sets the surface present mode. Takes effect on the
	// next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RenderFrame uploads the frame's draw data, runs the full pass
	// sequence, and presents. When frame.Screenshot is set the composed
	// output is also read back into the returned ScreenshotData; otherwise
	// the first result is nil.
	//
	// Surface errors (lost, outdated, out of memory) propagate to the
	// caller; nothing is presented in that case. An acquired surface
	// texture whose size does not match the configured size renders
	// nothing and returns nil.
	//
	// Parameters:
	//   - frame: the frame to compose
	//
	// Returns:
	//   - *ScreenshotData: the frame's pixels when requested, nil otherwise
	//   - error: surface acquisition or device failure
	RenderFrame(frame *Frame) (*ScreenshotData, error)

	// Release frees every GPU resource the backend holds. The backend is
	// unusable afterwards.
	Release()
}

package renderer

import (
	_ "embed"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/ckiee/automancy/common"
	"github.com/ckiee/automancy/engine/batch"
	"github.com/ckiee/automancy/engine/renderer/pipeline"
)

//go:embed assets/world.wgsl
var worldShaderSource string

//go:embed assets/fullscreen.wgsl
var fullscreenShaderSource string

//go:embed assets/combine.wgsl
var combineShaderSource string

const (
	// wgpu copy alignment rules: texture-to-buffer row strides align to 256
	// bytes, buffer sizes to 4.
	copyBytesPerRowAlignment = 256
	copyBufferAlignment      = 4

	// DrawIndexedIndirect argument block size in the indirect buffer.
	indirectArgsSize = 20

	// Vertex layout: position vec3, color vec4, normal vec3.
	vertexStride = 40

	// batch.GPUInstance layout: color offset vec4, light vec4, matrix
	// index u32, padded.
	instanceStride = 48
)

const (
	pipelineWorld      = "world"
	pipelineGui        = "gui"
	pipelinePost       = "post"
	pipelineFXAA       = "fxaa"
	pipelineCombine    = "combine"
	pipelinePresent    = "present"
	pipelineScreenshot = "screenshot"
)

// intermediateFormat is the format of every offscreen pass target. The
// surface keeps its adapter-preferred format; only the present pipeline
// targets it.
const intermediateFormat = wgpu.TextureFormatRGBA8Unorm

// passTarget is one offscreen color target and its render/sample view.
type passTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *passTarget) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// growBuffer is a grow-only GPU buffer rewritten every upload. Growing
// releases and recreates the buffer; it never shrinks, so steady-state
// frames reuse the same allocation.
type growBuffer struct {
	label  string
	usage  wgpu.BufferUsage
	buffer *wgpu.Buffer
	size   uint64
}

// write uploads data, growing the buffer first when it does not fit.
// Returns whether the underlying buffer was recreated.
func (g *growBuffer) write(device *wgpu.Device, queue *wgpu.Queue, data []byte) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}
	need := common.Align(uint64(len(data)), copyBufferAlignment)

	recreated := false
	if g.buffer == nil || need > g.size {
		if g.buffer != nil {
			g.buffer.Release()
		}
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: g.label,
			Size:  need,
			Usage: g.usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return false, fmt.Errorf("creating %s: %w", g.label, err)
		}
		g.buffer = buf
		g.size = need
		recreated = true
	}

	queue.WriteBuffer(g.buffer, 0, data)
	return recreated, nil
}

func (g *growBuffer) release() {
	if g.buffer != nil {
		g.buffer.Release()
		g.buffer = nil
		g.size = 0
	}
}

// drawGroup is the per-pass trio of draw buffers plus the world bind group
// that addresses the group's matrix storage.
type drawGroup struct {
	instances growBuffer
	matrices  growBuffer
	indirect  growBuffer
	bindGroup *wgpu.BindGroup
	drawCount uint32
}

func (d *drawGroup) release() {
	if d.bindGroup != nil {
		d.bindGroup.Release()
		d.bindGroup = nil
	}
	d.instances.release()
	d.matrices.release()
	d.indirect.release()
}

// wgpuFrameBackendImpl is the WebGPU implementation of FrameBackend. It
// owns the device, the fixed pass pipelines, the offscreen targets, and the
// grow-only draw buffers of each instanced pass.
type wgpuFrameBackendImpl struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	guiSamples    uint32

	width  uint32
	height uint32

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	cameraBuffer *wgpu.Buffer

	linearSampler *wgpu.Sampler

	worldLayout   *wgpu.BindGroupLayout
	blitLayout    *wgpu.BindGroupLayout
	combineLayout *wgpu.BindGroupLayout

	pipelines map[string]pipeline.Pipeline

	game  drawGroup
	extra drawGroup
	gui   drawGroup

	// Size-dependent targets, rebuilt on Resize.
	gameTarget       passTarget
	postTarget       passTarget
	aaTarget         passTarget
	guiMSAATarget    passTarget
	guiTarget        passTarget
	combinedTarget   passTarget
	screenshotTarget passTarget

	depthTexture    *wgpu.Texture
	depthView       *wgpu.TextureView
	guiDepthTexture *wgpu.Texture
	guiDepthView    *wgpu.TextureView

	postBind    *wgpu.BindGroup
	fxaaBind    *wgpu.BindGroup
	combineBind *wgpu.BindGroup
	presentBind *wgpu.BindGroup
}

var _ FrameBackend = &wgpuFrameBackendImpl{}

// NewWGPUFrameBackend creates the GPU side of the renderer: device setup,
// the fixed pass pipelines, the shared mesh buffers, and the initial
// surface configuration. The calling goroutine is locked to its OS thread
// for the lifetime of the backend.
//
// Parameters:
//   - surfaceDescriptor: the platform surface from the window layer
//   - vertexData: the shared mesh vertex buffer contents
//   - indexData: the shared mesh index buffer contents (uint32 indices)
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//   - guiSamples: MSAA sample count of the GUI pass target
//   - mode: the initial present mode
//
// Returns:
//   - FrameBackend: the configured backend
//   - error: adapter, device, or pipeline creation failure
func NewWGPUFrameBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, vertexData, indexData []byte, width, height uint32, guiSamples MSAASampleCount, mode PresentMode) (FrameBackend, error) {
	runtime.LockOSThread()

	b := &wgpuFrameBackendImpl{
		instance:   wgpu.CreateInstance(nil),
		guiSamples: uint32(guiSamples),
		pipelines:  make(map[string]pipeline.Pipeline),
	}
	b.SetPresentMode(mode)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting adapter: %w", err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.initStaticResources(vertexData, indexData); err != nil {
		return nil, err
	}
	if err := b.initPipelines(); err != nil {
		return nil, err
	}

	b.Resize(width, height)
	return b, nil
}

func (b *wgpuFrameBackendImpl) initStaticResources(vertexData, indexData []byte) error {
	var err error

	b.vertexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Mesh Vertex Buffer",
		Size:  common.Align(uint64(len(vertexData)), copyBufferAlignment),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating vertex buffer: %w", err)
	}
	b.queue.WriteBuffer(b.vertexBuffer, 0, vertexData)

	b.indexBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Mesh Index Buffer",
		Size:  common.Align(uint64(len(indexData)), copyBufferAlignment),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating index buffer: %w", err)
	}
	b.queue.WriteBuffer(b.indexBuffer, 0, indexData)

	b.cameraBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Camera Uniform Buffer",
		Size:  80,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("creating camera buffer: %w", err)
	}

	b.linearSampler, err = b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:        "Layer Sampler",
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("creating sampler: %w", err)
	}

	b.worldLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "World Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 80,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating world layout: %w", err)
	}

	b.blitLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Blit Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating blit layout: %w", err)
	}

	b.combineLayout, err = b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Combine Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating combine layout: %w", err)
	}

	return nil
}

func (b *wgpuFrameBackendImpl) initPipelines() error {
	meshLayout := wgpu.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 28, ShaderLocation: 2},
		},
	}
	instanceLayout := wgpu.VertexBufferLayout{
		ArrayStride: instanceStride,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 4},
			{Format: wgpu.VertexFormatUint32, Offset: 32, ShaderLocation: 5},
		},
	}

	worldPipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "World Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.worldLayout},
	})
	if err != nil {
		return fmt.Errorf("creating world pipeline layout: %w", err)
	}
	blitPipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Blit Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.blitLayout},
	})
	if err != nil {
		return fmt.Errorf("creating blit pipeline layout: %w", err)
	}
	combinePipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Combine Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.combineLayout},
	})
	if err != nil {
		return fmt.Errorf("creating combine pipeline layout: %w", err)
	}

	descriptions := []struct {
		p      pipeline.Pipeline
		layout *wgpu.PipelineLayout
		depth  bool
	}{
		{
			p: pipeline.NewPipeline(pipelineWorld,
				pipeline.WithShaderSource(worldShaderSource),
				pipeline.WithVertexBuffers(meshLayout, instanceLayout),
				pipeline.WithTargetFormat(intermediateFormat),
				pipeline.WithDepthTestEnabled(true),
				pipeline.WithDepthWriteEnabled(true),
				pipeline.WithBlendEnabled(true),
			),
			layout: worldPipelineLayout,
			depth:  true,
		},
		{
			p: pipeline.NewPipeline(pipelineGui,
				pipeline.WithShaderSource(worldShaderSource),
				pipeline.WithVertexBuffers(meshLayout, instanceLayout),
				pipeline.WithTargetFormat(intermediateFormat),
				pipeline.WithDepthTestEnabled(true),
				pipeline.WithDepthWriteEnabled(true),
				pipeline.WithBlendEnabled(true),
				pipeline.WithSampleCount(b.guiSamples),
			),
			layout: worldPipelineLayout,
			depth:  true,
		},
		{
			p: pipeline.NewPipeline(pipelinePost,
				pipeline.WithShaderSource(fullscreenShaderSource),
				pipeline.WithEntryPoints("vs_main", "fs_post"),
				pipeline.WithTargetFormat(intermediateFormat),
			),
			layout: blitPipelineLayout,
		},
		{
			p: pipeline.NewPipeline(pipelineFXAA,
				pipeline.WithShaderSource(fullscreenShaderSource),
				pipeline.WithEntryPoints("vs_main", "fs_fxaa"),
				pipeline.WithTargetFormat(intermediateFormat),
			),
			layout: blitPipelineLayout,
		},
		{
			p: pipeline.NewPipeline(pipelineCombine,
				pipeline.WithShaderSource(combineShaderSource),
				pipeline.WithTargetFormat(intermediateFormat),
			),
			layout: combinePipelineLayout,
		},
		{
			p: pipeline.NewPipeline(pipelinePresent,
				pipeline.WithShaderSource(fullscreenShaderSource),
				pipeline.WithEntryPoints("vs_main", "fs_present"),
				pipeline.WithTargetFormat(b.surfaceFormat),
			),
			layout: blitPipelineLayout,
		},
		{
			p: pipeline.NewPipeline(pipelineScreenshot,
				pipeline.WithShaderSource(fullscreenShaderSource),
				pipeline.WithEntryPoints("vs_main", "fs_present"),
				pipeline.WithTargetFormat(intermediateFormat),
			),
			layout: blitPipelineLayout,
		},
	}

	for _, desc := range descriptions {
		if err := b.realizePipeline(desc.p, desc.layout, desc.depth); err != nil {
			return err
		}
		b.pipelines[desc.p.PipelineKey()] = desc.p
	}
	return nil
}

// realizePipeline creates the wgpu render pipeline described by p and
// stores it back on the description.
func (b *wgpuFrameBackendImpl) realizePipeline(p pipeline.Pipeline, layout *wgpu.PipelineLayout, withDepth bool) error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: p.PipelineKey(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: p.Source(),
		},
	})
	if err != nil {
		return fmt.Errorf("creating %s shader module: %w", p.PipelineKey(), err)
	}

	target := wgpu.ColorTargetState{
		Format:    p.TargetFormat(),
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	var depthState *wgpu.DepthStencilState
	if withDepth {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthState = &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.VertexEntry(),
			Buffers:    p.VertexBuffers(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.FragmentEntry(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: p.SampleCount(),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthState,
	})
	if err != nil {
		return fmt.Errorf("creating %s pipeline: %w", p.PipelineKey(), err)
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuFrameBackendImpl) Size() (uint32, uint32) {
	return b.width, b.height
}

func (b *wgpuFrameBackendImpl) SetPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuFrameBackendImpl) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       width,
		Height:      height,
		PresentMode: b.presentMode,
		AlphaMode:   wgpu.CompositeAlphaModeAuto,
	})

	b.releaseTargets()

	b.gameTarget = b.createTarget("Game Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1, width, height)
	b.postTarget = b.createTarget("Post Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1, width, height)
	b.aaTarget = b.createTarget("AA Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1, width, height)
	b.guiTarget = b.createTarget("GUI Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1, width, height)
	if b.guiSamples > 1 {
		b.guiMSAATarget = b.createTarget("GUI MSAA Target", intermediateFormat, wgpu.TextureUsageRenderAttachment, b.guiSamples, width, height)
	}
	b.combinedTarget = b.createTarget("Combined Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, 1, width, height)
	b.screenshotTarget = b.createTarget("Screenshot Target", intermediateFormat, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageCopySrc, 1, width, height)

	b.depthTexture, b.depthView = b.createDepth("Depth Texture", 1, width, height)
	b.guiDepthTexture, b.guiDepthView = b.createDepth("GUI Depth Texture", b.guiSamples, width, height)

	b.postBind = b.createBlitBind("Post Bind Group", b.gameTarget.view)
	b.fxaaBind = b.createBlitBind("FXAA Bind Group", b.postTarget.view)
	b.presentBind = b.createBlitBind("Present Bind Group", b.combinedTarget.view)
	b.combineBind = b.createCombineBind()

	b.width = width
	b.height = height
}

func (b *wgpuFrameBackendImpl) createTarget(label string, format wgpu.TextureFormat, usage wgpu.TextureUsage, samples, width, height uint32) passTarget {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		panic(fmt.Sprintf("creating %s: %v", label, err))
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(fmt.Sprintf("creating %s view: %v", label, err))
	}
	return passTarget{texture: tex, view: view}
}

func (b *wgpuFrameBackendImpl) createDepth(label string, samples, width, height uint32) (*wgpu.Texture, *wgpu.TextureView) {
	target := b.createTarget(label, wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageRenderAttachment, samples, width, height)
	return target.texture, target.view
}

func (b *wgpuFrameBackendImpl) createBlitBind(label string, view *wgpu.TextureView) *wgpu.BindGroup {
	bind, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: b.blitLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.linearSampler},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("creating %s: %v", label, err))
	}
	return bind
}

func (b *wgpuFrameBackendImpl) createCombineBind() *wgpu.BindGroup {
	bind, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Combine Bind Group",
		Layout: b.combineLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: b.aaTarget.view},
			{Binding: 1, TextureView: b.guiTarget.view},
			{Binding: 2, Sampler: b.linearSampler},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("creating combine bind group: %v", err))
	}
	return bind
}

func (b *wgpuFrameBackendImpl) releaseTargets() {
	for _, bind := range []**wgpu.BindGroup{&b.postBind, &b.fxaaBind, &b.combineBind, &b.presentBind} {
		if *bind != nil {
			(*bind).Release()
			*bind = nil
		}
	}
	b.gameTarget.release()
	b.postTarget.release()
	b.aaTarget.release()
	b.guiMSAATarget.release()
	b.guiTarget.release()
	b.combinedTarget.release()
	b.screenshotTarget.release()
	for _, pair := range []struct {
		tex  **wgpu.Texture
		view **wgpu.TextureView
	}{
		{&b.depthTexture, &b.depthView},
		{&b.guiDepthTexture, &b.guiDepthView},
	} {
		if *pair.view != nil {
			(*pair.view).Release()
			*pair.view = nil
		}
		if *pair.tex != nil {
			(*pair.tex).Release()
			*pair.tex = nil
		}
	}
}

// uploadGroup pushes one pass's draw data into its grow-only buffers and
// refreshes the world bind group when the matrix buffer moved.
func uploadGroup[K comparable](b *wgpuFrameBackendImpl, group *drawGroup, data *batch.DrawData[K], label string) error {
	group.drawCount = data.DrawCount()
	if group.drawCount == 0 {
		return nil
	}

	if group.instances.label == "" {
		group.instances = growBuffer{label: label + " Instance Buffer", usage: wgpu.BufferUsageVertex}
		group.matrices = growBuffer{label: label + " Matrix Buffer", usage: wgpu.BufferUsageStorage}
		group.indirect = growBuffer{label: label + " Indirect Buffer", usage: wgpu.BufferUsageIndirect}
	}

	if _, err := group.instances.write(b.device, b.queue, data.InstanceBytes()); err != nil {
		return err
	}
	matricesGrew, err := group.matrices.write(b.device, b.queue, data.MatrixBytes())
	if err != nil {
		return err
	}
	if _, err := group.indirect.write(b.device, b.queue, data.IndirectBytes()); err != nil {
		return err
	}

	if matricesGrew || group.bindGroup == nil {
		if group.bindGroup != nil {
			group.bindGroup.Release()
		}
		group.bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  label + " Bind Group",
			Layout: b.worldLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: b.cameraBuffer, Offset: 0, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: group.matrices.buffer, Offset: 0, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			return fmt.Errorf("creating %s bind group: %w", label, err)
		}
	}
	return nil
}

func (b *wgpuFrameBackendImpl) RenderFrame(frame *Frame) (*ScreenshotData, error) {
	uniform := frame.Uniform
	b.queue.WriteBuffer(b.cameraBuffer, 0, uniform.Marshal())

	if err := uploadGroup(b, &b.extra, &frame.Extra, "Extra"); err != nil {
		return nil, err
	}
	if err := uploadGroup(b, &b.game, &frame.Game, "Game"); err != nil {
		return nil, err
	}
	if err := uploadGroup(b, &b.gui, &frame.Gui, "GUI"); err != nil {
		return nil, err
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquiring surface: %w", err)
	}
	// During a resize the acquired texture can still have the old size
	// while the pass targets already have the new one. Nothing to draw
	// this frame; the next acquire matches.
	if surfaceTexture.GetWidth() != b.width || surfaceTexture.GetHeight() != b.height {
		surfaceTexture.Release()
		return nil, nil
	}
	surfaceView, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("creating surface view: %w", err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		surfaceView.Release()
		surfaceTexture.Release()
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	// Decoration pass clears the scene layer; the tile pass loads it, so
	// decorations composited at depths above the tile plane survive.
	b.worldPass(encoder, b.gameTarget.view, nil, b.depthView, wgpu.LoadOpClear, &b.extra)
	b.worldPass(encoder, b.gameTarget.view, nil, b.depthView, wgpu.LoadOpLoad, &b.game)

	b.blitPass(encoder, pipelinePost, b.postBind, b.postTarget.view)
	b.blitPass(encoder, pipelineFXAA, b.fxaaBind, b.aaTarget.view)

	guiView := b.guiTarget.view
	var guiResolve *wgpu.TextureView
	if b.guiSamples > 1 {
		guiView = b.guiMSAATarget.view
		guiResolve = b.guiTarget.view
	}
	b.guiPass(encoder, guiView, guiResolve, frame)

	b.combinePass(encoder)
	b.blitPass(encoder, pipelinePresent, b.presentBind, surfaceView)

	var staging *wgpu.Buffer
	var paddedRow uint32
	if frame.Screenshot {
		b.blitPass(encoder, pipelineScreenshot, b.presentBind, b.screenshotTarget.view)

		paddedRow = uint32(common.Align(uint64(b.width)*4, copyBytesPerRowAlignment))
		staging, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Screenshot Staging Buffer",
			Size:  uint64(paddedRow) * uint64(b.height),
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			encoder.Release()
			surfaceView.Release()
			surfaceTexture.Release()
			return nil, fmt.Errorf("creating screenshot staging buffer: %w", err)
		}
		encoder.CopyTextureToBuffer(
			&wgpu.ImageCopyTexture{
				Texture:  b.screenshotTarget.texture,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			&wgpu.ImageCopyBuffer{
				Buffer: staging,
				Layout: wgpu.TextureDataLayout{
					Offset:       0,
					BytesPerRow:  paddedRow,
					RowsPerImage: b.height,
				},
			},
			&wgpu.Extent3D{
				Width:              b.width,
				Height:             b.height,
				DepthOrArrayLayers: 1,
			},
		)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		surfaceView.Release()
		surfaceTexture.Release()
		if staging != nil {
			staging.Release()
		}
		return nil, fmt.Errorf("finishing encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	b.surface.Present()
	surfaceView.Release()
	surfaceTexture.Release()

	if staging == nil {
		return nil, nil
	}
	defer staging.Release()
	return b.readbackScreenshot(staging, paddedRow)
}

// readbackScreenshot blocks until the staging buffer is mapped, then
// repacks the padded rows into a tight RGBA image.
func (b *wgpuFrameBackendImpl) readbackScreenshot(staging *wgpu.Buffer, paddedRow uint32) (*ScreenshotData, error) {
	size := uint64(paddedRow) * uint64(b.height)

	done := false
	var status wgpu.BufferMapAsyncStatus
	err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	if err != nil {
		return nil, fmt.Errorf("mapping screenshot buffer: %w", err)
	}
	for !done {
		b.device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("mapping screenshot buffer: status %d", status)
	}

	mapped := staging.GetMappedRange(0, uint(size))
	pixels := stripRowPadding(mapped, paddedRow, b.width, b.height)
	staging.Unmap()

	return &ScreenshotData{
		Width:  b.width,
		Height: b.height,
		Pixels: pixels,
	}, nil
}

// worldPass encodes one instanced pass into the scene layer.
func (b *wgpuFrameBackendImpl) worldPass(encoder *wgpu.CommandEncoder, view, resolve *wgpu.TextureView, depth *wgpu.TextureView, loadOp wgpu.LoadOp, group *drawGroup) {
	depthLoadOp := wgpu.LoadOpClear
	if loadOp == wgpu.LoadOpLoad {
		depthLoadOp = wgpu.LoadOpLoad
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          view,
				ResolveTarget: resolve,
				LoadOp:        loadOp,
				StoreOp:       wgpu.StoreOpStore,
				ClearValue:    wgpu.Color{R: 0.05, G: 0.05, B: 0.05, A: 1.0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     depthLoadOp,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	b.drawWorld(pass, pipelineWorld, group)
	pass.End()
}

// guiPass encodes the GUI element pass into its own transparent layer.
// Clipped elements draw under their scissor rectangle; everything else draws
// across the full surface.
func (b *wgpuFrameBackendImpl) guiPass(encoder *wgpu.CommandEncoder, view, resolve *wgpu.TextureView, frame *Frame) {
	storeOp := wgpu.StoreOpStore
	if resolve != nil {
		storeOp = wgpu.StoreOpDiscard
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          view,
				ResolveTarget: resolve,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    wgpu.Color{},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.guiDepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	b.drawGui(pass, frame)
	pass.End()
}

// drawGui issues the GUI pass's indirect draws, switching the scissor
// rectangle per element as the descriptor keys dictate.
func (b *wgpuFrameBackendImpl) drawGui(pass *wgpu.RenderPassEncoder, frame *Frame) {
	group := &b.gui
	if group.drawCount == 0 {
		return
	}
	pass.SetPipeline(b.pipelines[pipelineGui].Pipeline())
	pass.SetBindGroup(0, group.bindGroup, nil)
	pass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, group.instances.buffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(b.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)

	clipped := false
	for i, draw := range frame.Gui.Draws {
		if clip, ok := frame.GuiClips[draw.Key]; ok {
			pass.SetScissorRect(clip.X, clip.Y, clip.Width, clip.Height)
			clipped = true
		} else if clipped {
			pass.SetScissorRect(0, 0, b.width, b.height)
			clipped = false
		}
		pass.DrawIndexedIndirect(group.indirect.buffer, uint64(i)*indirectArgsSize)
	}
}

// drawWorld binds one pass's buffers and issues its indirect draws, one
// DrawIndexedIndirect per descriptor at consecutive argument offsets.
func (b *wgpuFrameBackendImpl) drawWorld(pass *wgpu.RenderPassEncoder, pipelineKey string, group *drawGroup) {
	if group.drawCount == 0 {
		return
	}
	pass.SetPipeline(b.pipelines[pipelineKey].Pipeline())
	pass.SetBindGroup(0, group.bindGroup, nil)
	pass.SetVertexBuffer(0, b.vertexBuffer, 0, wgpu.WholeSize)
	pass.SetVertexBuffer(1, group.instances.buffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(b.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	for i := uint32(0); i < group.drawCount; i++ {
		pass.DrawIndexedIndirect(group.indirect.buffer, uint64(i)*indirectArgsSize)
	}
}

// blitPass encodes one fullscreen-triangle pass.
func (b *wgpuFrameBackendImpl) blitPass(encoder *wgpu.CommandEncoder, pipelineKey string, bind *wgpu.BindGroup, target *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       target,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	pass.SetPipeline(b.pipelines[pipelineKey].Pipeline())
	pass.SetBindGroup(0, bind, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

// combinePass composites the antialiased scene layer with the GUI layer.
func (b *wgpuFrameBackendImpl) combinePass(encoder *wgpu.CommandEncoder) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.combinedTarget.view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	pass.SetPipeline(b.pipelines[pipelineCombine].Pipeline())
	pass.SetBindGroup(0, b.combineBind, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

func (b *wgpuFrameBackendImpl) Release() {
	b.releaseTargets()
	b.game.release()
	b.extra.release()
	b.gui.release()

	for _, res := range []interface{ Release() }{
		b.vertexBuffer, b.indexBuffer, b.cameraBuffer,
		b.linearSampler,
		b.worldLayout, b.blitLayout, b.combineLayout,
	} {
		if res != nil {
			res.Release()
		}
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

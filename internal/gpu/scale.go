package gpu

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/tlbanken/gb"
)

// readbackTimeout bounds the fence wait in RenderToImage.
const readbackTimeout = 5 * time.Second

// ScalePipeline stretches the console screen across the output surface.
//
// The vertex stage generates a full-screen quad from a constant table, so
// the draw call binds no vertex buffer. The fragment stage resolves each
// covered output pixel to one source pixel via the screen storage buffer.
//
// Bindings:
//
//	group(0) binding(0)  uniform   output resolution (2 x u32)
//	group(1) binding(0)  storage   screen pixels (vec4<f32> per pixel, read-only)
//	group(1) binding(1)  uniform   source resolution (2 x u32)
//
// The host uploads the output resolution on resize (UpdateResolution) and
// the screen contents once per emulated frame (UploadFrame). Both buffers
// must be unchanged while a recorded draw is in flight; that discipline is
// the host's frame boundary, not enforced here.
type ScalePipeline struct {
	device hal.Device
	queue  hal.Queue

	// GPU objects, created once in New and released by Destroy.
	shader           hal.ShaderModule
	resolutionLayout hal.BindGroupLayout
	screenLayout     hal.BindGroupLayout
	pipeLayout       hal.PipelineLayout
	pipeline         hal.RenderPipeline

	resolutionBuf hal.Buffer
	sourceResBuf  hal.Buffer
	screenBuf     hal.Buffer

	resolutionBind hal.BindGroup
	screenBind     hal.BindGroup

	// sourceRes is fixed at creation; the screen buffer layout depends on it.
	sourceRes gb.Resolution

	// outputRes tracks the last uploaded output resolution.
	outputRes gb.Resolution

	// frame is the staging area for packed screen pixels, reused per frame.
	frame []byte

	// format is the color target format of the output surface.
	format gputypes.TextureFormat
}

// ScaleConfig configures a ScalePipeline.
type ScaleConfig struct {
	// SourceRes is the logical screen resolution. Must be non-zero and
	// constant for the pipeline's lifetime.
	SourceRes gb.Resolution

	// OutputRes is the initial output surface resolution. Must be non-zero;
	// updated later via UpdateResolution.
	OutputRes gb.Resolution

	// Format is the color format of the surface the pipeline renders to.
	// Zero value selects BGRA8Unorm.
	Format gputypes.TextureFormat
}

// NewScalePipeline creates the scaling pipeline and its GPU resources.
// The device and queue come from the host and stay owned by it.
func NewScalePipeline(device hal.Device, queue hal.Queue, cfg ScaleConfig) (*ScalePipeline, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: device and queue are required")
	}
	if cfg.SourceRes.IsZero() {
		return nil, fmt.Errorf("%w: source %s", gb.ErrZeroResolution, cfg.SourceRes)
	}
	if cfg.OutputRes.IsZero() {
		return nil, fmt.Errorf("%w: output %s", gb.ErrZeroResolution, cfg.OutputRes)
	}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatBGRA8Unorm
	}

	p := &ScalePipeline{
		device:    device,
		queue:     queue,
		sourceRes: cfg.SourceRes,
		format:    cfg.Format,
		frame:     make([]byte, cfg.SourceRes.PixelCount()*screenPixelStride),
	}

	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createBuffers(cfg.OutputRes); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createBindGroups(); err != nil {
		p.Destroy()
		return nil, err
	}

	gb.Logger().Info("scale pipeline created",
		"source", cfg.SourceRes.String(), "output", cfg.OutputRes.String())
	return p, nil
}

// createPipeline compiles the shader and creates layouts and the render
// pipeline.
func (p *ScalePipeline) createPipeline() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "scale_shader",
		Source: hal.ShaderSource{WGSL: scaleShaderSource},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile scale shader: %w", err)
	}
	p.shader = shader

	// group(0): output resolution uniform, fragment-visible.
	resolutionLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "scale_resolution_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolution layout: %w", err)
	}
	p.resolutionLayout = resolutionLayout

	// group(1): screen storage + source resolution uniform.
	screenLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "scale_screen_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create screen layout: %w", err)
	}
	p.screenLayout = screenLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "scale_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.resolutionLayout, p.screenLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "scale_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			// The quad comes from a constant table in the shader.
			Buffers: nil,
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     nil, // replace
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create scale pipeline: %w", err)
	}
	p.pipeline = pipeline

	return nil
}

// createBuffers allocates the two resolution uniforms and the screen
// storage buffer, and uploads their initial contents.
func (p *ScalePipeline) createBuffers(outputRes gb.Resolution) error {
	resolutionBuf, err := p.createAndUpload("scale_resolution",
		makeResolutionUniform(outputRes),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.resolutionBuf = resolutionBuf
	p.outputRes = outputRes

	sourceResBuf, err := p.createAndUpload("scale_source_resolution",
		makeResolutionUniform(p.sourceRes),
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.sourceResBuf = sourceResBuf

	screenBuf, err := p.createAndUpload("scale_screen", p.frame,
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	p.screenBuf = screenBuf

	return nil
}

// createBindGroups binds the buffers to the two layouts.
func (p *ScalePipeline) createBindGroups() error {
	resolutionBind, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "scale_resolution_bind",
		Layout: p.resolutionLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.resolutionBuf.NativeHandle(), Offset: 0, Size: resolutionUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolution bind group: %w", err)
	}
	p.resolutionBind = resolutionBind

	screenBind, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "scale_screen_bind",
		Layout: p.screenLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.screenBuf.NativeHandle(), Offset: 0, Size: uint64(len(p.frame)),
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: p.sourceResBuf.NativeHandle(), Offset: 0, Size: resolutionUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create screen bind group: %w", err)
	}
	p.screenBind = screenBind

	return nil
}

// createAndUpload creates a GPU buffer and writes data into it.
func (p *ScalePipeline) createAndUpload(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	p.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// SourceResolution returns the fixed logical screen resolution.
func (p *ScalePipeline) SourceResolution() gb.Resolution {
	return p.sourceRes
}

// OutputResolution returns the last uploaded output resolution.
func (p *ScalePipeline) OutputResolution() gb.Resolution {
	return p.outputRes
}

// UpdateResolution uploads a new output resolution. Call on window resize,
// before the next frame's draw is recorded. Dimensions are clamped to at
// least 1 pixel so the fragment stage never divides by zero.
func (p *ScalePipeline) UpdateResolution(out gb.Resolution) {
	if out.Width == 0 {
		out.Width = 1
	}
	if out.Height == 0 {
		out.Height = 1
	}
	p.outputRes = out
	p.queue.WriteBuffer(p.resolutionBuf, 0, makeResolutionUniform(out))
	gb.Logger().Debug("output resolution updated", "output", out.String())
}

// UploadFrame packs the screen and writes it to the storage buffer.
// The screen's resolution must equal the pipeline's source resolution;
// anything else is a caller contract violation.
func (p *ScalePipeline) UploadFrame(s *gb.Screen) error {
	if s.Resolution() != p.sourceRes {
		return fmt.Errorf("gpu: screen resolution %s does not match pipeline source %s",
			s.Resolution(), p.sourceRes)
	}
	packScreen(s.Pixels(), p.frame)
	p.queue.WriteBuffer(p.screenBuf, 0, p.frame)
	return nil
}

// RecordDraw records the scaling draw into an existing render pass:
// six vertices, one instance, no vertex buffer.
func (p *ScalePipeline) RecordDraw(rp hal.RenderPassEncoder) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.resolutionBind, nil)
	rp.SetBindGroup(1, p.screenBind, nil)
	rp.Draw(gb.QuadVertexCount, 1, 0, 0)
}

// RenderToImage renders one frame offscreen and reads the result back as
// an opaque image. Used for headless verification; the interactive path
// records into the host's surface pass via RecordDraw instead.
func (p *ScalePipeline) RenderToImage(s *gb.Screen) (*image.RGBA, error) {
	if err := p.UploadFrame(s); err != nil {
		return nil, err
	}

	w, h := p.outputRes.Width, p.outputRes.Height
	size := hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}

	target, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "scale_target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        p.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create target texture: %w", err)
	}
	defer p.device.DestroyTexture(target)

	view, err := p.device.CreateTextureView(target, &hal.TextureViewDescriptor{
		Label:         "scale_target_view",
		Format:        p.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create target view: %w", err)
	}
	defer p.device.DestroyTextureView(view)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "scale_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("scale_frame"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "scale_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	p.RecordDraw(rp)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	pixelBufSize := uint64(w) * uint64(h) * 4
	staging, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "scale_staging",
		Size:  pixelBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer p.device.DestroyBuffer(staging)

	encoder.CopyTextureToBuffer(target, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: target, MipLevel: 0},
		Size:         size,
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("gpu: create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := p.device.Wait(fence, 1, readbackTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("gpu: wait for frame: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, pixelBufSize)
	if err := p.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}

	return readbackImage(readback, int(w), int(h), p.format)
}

// readbackImage converts readback bytes to an opaque image.RGBA, with the
// channel order chosen by the surface format.
func readbackImage(data []byte, w, h int, format gputypes.TextureFormat) (*image.RGBA, error) {
	var ri, bi int
	switch format {
	case gputypes.TextureFormatBGRA8Unorm:
		ri, bi = 2, 0
	case gputypes.TextureFormatRGBA8Unorm:
		ri, bi = 0, 2
	default:
		return nil, fmt.Errorf("gpu: unsupported readback format %v", format)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(data); i += 4 {
		x := (i / 4) % w
		y := (i / 4) / w
		img.SetRGBA(x, y, color.RGBA{R: data[i+ri], G: data[i+1], B: data[i+bi], A: 0xFF})
	}
	return img, nil
}

// Destroy releases all GPU resources in reverse creation order. Safe to
// call multiple times.
func (p *ScalePipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.screenBind != nil {
		p.device.DestroyBindGroup(p.screenBind)
		p.screenBind = nil
	}
	if p.resolutionBind != nil {
		p.device.DestroyBindGroup(p.resolutionBind)
		p.resolutionBind = nil
	}
	if p.screenBuf != nil {
		p.device.DestroyBuffer(p.screenBuf)
		p.screenBuf = nil
	}
	if p.sourceResBuf != nil {
		p.device.DestroyBuffer(p.sourceResBuf)
		p.sourceResBuf = nil
	}
	if p.resolutionBuf != nil {
		p.device.DestroyBuffer(p.resolutionBuf)
		p.resolutionBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.screenLayout != nil {
		p.device.DestroyBindGroupLayout(p.screenLayout)
		p.screenLayout = nil
	}
	if p.resolutionLayout != nil {
		p.device.DestroyBindGroupLayout(p.resolutionLayout)
		p.resolutionLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

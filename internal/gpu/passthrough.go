package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/tlbanken/gb"
)

// PassthroughPipeline draws externally prepared screen-space vertices.
//
// Positions arrive in output pixels (uint32x2) with pre-resolved colors
// (float32x3); the vertex stage remaps them linearly to clip space and the
// fragment stage emits the color opaque and unmodified. The screen storage
// buffer is not involved. Used for debug overlays and the tessellated
// per-pixel quad path (gb.PixelQuads).
type PassthroughPipeline struct {
	device hal.Device
	queue  hal.Queue

	shader           hal.ShaderModule
	resolutionLayout hal.BindGroupLayout
	pipeLayout       hal.PipelineLayout
	pipeline         hal.RenderPipeline

	resolutionBuf  hal.Buffer
	resolutionBind hal.BindGroup

	outputRes gb.Resolution
	format    gputypes.TextureFormat

	// vertBuf is the per-frame vertex buffer, grown on demand.
	vertBuf     hal.Buffer
	vertBufSize uint64
}

// NewPassthroughPipeline creates the pass-through pipeline. The initial
// output resolution must be non-zero.
func NewPassthroughPipeline(device hal.Device, queue hal.Queue, out gb.Resolution, format gputypes.TextureFormat) (*PassthroughPipeline, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("gpu: device and queue are required")
	}
	if out.IsZero() {
		return nil, fmt.Errorf("%w: output %s", gb.ErrZeroResolution, out)
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}

	p := &PassthroughPipeline{
		device:    device,
		queue:     queue,
		outputRes: out,
		format:    format,
	}
	if err := p.createPipeline(); err != nil {
		p.Destroy()
		return nil, err
	}
	if err := p.createResolution(out); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

// createPipeline compiles the shader and creates layouts and the render
// pipeline with the (uint32x2, float32x3) vertex layout.
func (p *PassthroughPipeline) createPipeline() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "passthrough_shader",
		Source: hal.ShaderSource{WGSL: passthroughShaderSource},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile passthrough shader: %w", err)
	}
	p.shader = shader

	resolutionLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "passthrough_resolution_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolution layout: %w", err)
	}
	p.resolutionLayout = resolutionLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "passthrough_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.resolutionLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "passthrough_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    passthroughVertexLayout(),
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
		return fmt.Errorf("gpu: create passthrough pipeline: %w", err)
	}
	p.pipeline = pipeline

	return nil
}

// createResolution allocates and binds the resolution uniform.
func (p *PassthroughPipeline) createResolution(out gb.Resolution) error {
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "passthrough_resolution",
		Size:  resolutionUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolution buffer: %w", err)
	}
	p.resolutionBuf = buf
	p.queue.WriteBuffer(buf, 0, makeResolutionUniform(out))

	bind, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "passthrough_resolution_bind",
		Layout: p.resolutionLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: resolutionUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create resolution bind group: %w", err)
	}
	p.resolutionBind = bind

	return nil
}

// passthroughVertexLayout returns the vertex buffer layout:
// uint32x2 position at location 0, float32x3 color at location 1.
func passthroughVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: passthroughVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatUint32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x3, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

// OutputResolution returns the last uploaded output resolution.
func (p *PassthroughPipeline) OutputResolution() gb.Resolution {
	return p.outputRes
}

// UpdateResolution uploads a new output resolution, clamped to >= 1 pixel
// per axis.
func (p *PassthroughPipeline) UpdateResolution(out gb.Resolution) {
	if out.Width == 0 {
		out.Width = 1
	}
	if out.Height == 0 {
		out.Height = 1
	}
	p.outputRes = out
	p.queue.WriteBuffer(p.resolutionBuf, 0, makeResolutionUniform(out))
}

// RecordDraw uploads the vertices and records their draw into an existing
// render pass. The vertex count is len(verts); callers supply whole
// triangles (a multiple of 3).
func (p *PassthroughPipeline) RecordDraw(rp hal.RenderPassEncoder, verts []gb.Vertex) error {
	if len(verts) == 0 {
		return nil
	}
	data := packVertices(verts)
	if err := p.ensureVertexBuffer(uint64(len(data))); err != nil {
		return err
	}
	p.queue.WriteBuffer(p.vertBuf, 0, data)

	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.resolutionBind, nil)
	rp.SetVertexBuffer(0, p.vertBuf, 0)
	rp.Draw(uint32(len(verts)), 1, 0, 0)
	return nil
}

// ensureVertexBuffer grows the vertex buffer to hold at least size bytes.
func (p *PassthroughPipeline) ensureVertexBuffer(size uint64) error {
	if p.vertBuf != nil && p.vertBufSize >= size {
		return nil
	}
	if p.vertBuf != nil {
		p.device.DestroyBuffer(p.vertBuf)
		p.vertBuf = nil
		p.vertBufSize = 0
	}
	buf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "passthrough_verts",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create vertex buffer: %w", err)
	}
	p.vertBuf = buf
	p.vertBufSize = size
	return nil
}

// Destroy releases all GPU resources in reverse creation order. Safe to
// call multiple times.
func (p *PassthroughPipeline) Destroy() {
	if p.device == nil {
		return
	}
	if p.vertBuf != nil {
		p.device.DestroyBuffer(p.vertBuf)
		p.vertBuf = nil
		p.vertBufSize = 0
	}
	if p.resolutionBind != nil {
		p.device.DestroyBindGroup(p.resolutionBind)
		p.resolutionBind = nil
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
	if p.resolutionLayout != nil {
		p.device.DestroyBindGroupLayout(p.resolutionLayout)
		p.resolutionLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/tlbanken/gb"
	"github.com/tlbanken/gb/internal/gpu"
)

// Pipeline identifies which render pipeline a draw goes through.
type Pipeline int

const (
	// PipelineScaling is the main path: full-screen quad, nearest-neighbor
	// resolution of the console screen.
	PipelineScaling Pipeline = iota

	// PipelinePassthrough draws pre-transformed screen-space vertices with
	// pre-resolved colors, bypassing the screen entirely.
	PipelinePassthrough
)

// String returns the pipeline name.
func (p Pipeline) String() string {
	switch p {
	case PipelineScaling:
		return "Scaling"
	case PipelinePassthrough:
		return "Passthrough"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Config configures a Video presenter.
type Config struct {
	// OutputRes is the initial output surface size in pixels. Zero
	// dimensions are clamped to 1.
	OutputRes gb.Resolution

	// SourceRes is the logical console resolution. Zero value selects
	// gb.ScreenResolution (160x144).
	SourceRes gb.Resolution

	// Format is the surface color format. Zero value selects BGRA8Unorm.
	Format gputypes.TextureFormat
}

// Video owns the console screen and both render pipelines, and presents
// frames into render passes provided by the host.
//
// The per-frame sequence, driven by the host's event loop:
//
//	video.SetPixel(...)   // emulation core, many times
//	video.Frame(rp)       // once per output frame, inside the host's pass
//	video.Tick()          // frame accounting
//
// Video is not safe for concurrent use; the host's frame loop is the
// single driver.
type Video struct {
	screen      *gb.Screen
	scale       *gpu.ScalePipeline
	passthrough *gpu.PassthroughPipeline
	fps         *gb.FPS

	// uploadedGen is the screen generation last written to the storage
	// buffer, valid only when synced is true. Frame compares it against
	// the screen so unchanged frames skip the upload, no matter whether
	// the writes went through Video.SetPixel or the screen directly.
	uploadedGen uint64
	synced      bool
}

// NewVideo creates a presenter with its GPU resources on the host's
// device and queue.
func NewVideo(device hal.Device, queue hal.Queue, cfg Config) (*Video, error) {
	if cfg.SourceRes.IsZero() {
		cfg.SourceRes = gb.ScreenResolution
	}
	if cfg.OutputRes.Width == 0 {
		cfg.OutputRes.Width = 1
	}
	if cfg.OutputRes.Height == 0 {
		cfg.OutputRes.Height = 1
	}

	screen, err := gb.NewScreenSize(cfg.SourceRes)
	if err != nil {
		return nil, err
	}

	scale, err := gpu.NewScalePipeline(device, queue, gpu.ScaleConfig{
		SourceRes: cfg.SourceRes,
		OutputRes: cfg.OutputRes,
		Format:    cfg.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create scaling pipeline: %w", err)
	}

	passthrough, err := gpu.NewPassthroughPipeline(device, queue, cfg.OutputRes, cfg.Format)
	if err != nil {
		scale.Destroy()
		return nil, fmt.Errorf("render: create passthrough pipeline: %w", err)
	}

	return &Video{
		screen:      screen,
		scale:       scale,
		passthrough: passthrough,
		fps:         gb.NewFPS(),
	}, nil
}

// Screen returns the console screen the emulation core writes into.
func (v *Video) Screen() *gb.Screen {
	return v.screen
}

// SetPixel sets one logical screen pixel.
func (v *Video) SetPixel(pos gb.Pos, col gb.Color) {
	v.screen.SetPixel(pos, col)
}

// Resize updates both pipelines' output resolution. Call when the window
// size changes, before the next frame is recorded. Dimensions are clamped
// to at least 1 pixel.
func (v *Video) Resize(out gb.Resolution) {
	v.scale.UpdateResolution(out)
	v.passthrough.UpdateResolution(out)
	gb.Logger().Info("video resized", "output", v.scale.OutputResolution().String())
}

// OutputResolution returns the current output surface resolution.
func (v *Video) OutputResolution() gb.Resolution {
	return v.scale.OutputResolution()
}

// Frame uploads the screen if it changed and records the scaling draw
// into the host's render pass.
func (v *Video) Frame(rp hal.RenderPassEncoder) error {
	if err := v.syncFrame(); err != nil {
		return err
	}
	v.scale.RecordDraw(rp)
	return nil
}

// needsUpload reports whether the screen has changed since the storage
// buffer was last written.
func (v *Video) needsUpload() bool {
	return !v.synced || v.screen.Generation() != v.uploadedGen
}

// syncFrame brings the storage buffer up to date with the screen.
func (v *Video) syncFrame() error {
	if !v.needsUpload() {
		return nil
	}
	gen := v.screen.Generation()
	if err := v.scale.UploadFrame(v.screen); err != nil {
		return fmt.Errorf("render: upload frame: %w", err)
	}
	v.uploadedGen = gen
	v.synced = true
	return nil
}

// Overlay records a pass-through draw of pre-transformed vertices into
// the host's render pass. Record it after Frame so the overlay lands on
// top of the scaled screen.
func (v *Video) Overlay(rp hal.RenderPassEncoder, verts []gb.Vertex) error {
	if err := v.passthrough.RecordDraw(rp, verts); err != nil {
		return fmt.Errorf("render: overlay: %w", err)
	}
	return nil
}

// RenderToImage renders the current screen offscreen at the output
// resolution and reads it back. Headless/verification path.
func (v *Video) RenderToImage() (*image.RGBA, error) {
	gen := v.screen.Generation()
	img, err := v.scale.RenderToImage(v.screen)
	if err != nil {
		return nil, fmt.Errorf("render: render to image: %w", err)
	}
	v.uploadedGen = gen
	v.synced = true
	return img, nil
}

// Tick records one presented frame for the FPS counter.
func (v *Video) Tick() {
	v.fps.Tick()
}

// FPS returns the most recent one-second frame count.
func (v *Video) FPS() uint32 {
	return v.fps.Rate()
}

// Destroy releases the GPU resources of both pipelines. Safe to call
// multiple times.
func (v *Video) Destroy() {
	if v.passthrough != nil {
		v.passthrough.Destroy()
	}
	if v.scale != nil {
		v.scale.Destroy()
	}
}

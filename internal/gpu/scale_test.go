//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/tlbanken/gb"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func testScaleConfig() ScaleConfig {
	return ScaleConfig{
		SourceRes: gb.ScreenResolution,
		OutputRes: gb.Resolution{Width: 640, Height: 576},
	}
}

func TestNewScalePipeline(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewScalePipeline(device, queue, testScaleConfig())
	if err != nil {
		t.Fatalf("NewScalePipeline() = %v", err)
	}
	defer p.Destroy()

	if got := p.SourceResolution(); got != gb.ScreenResolution {
		t.Errorf("SourceResolution() = %s, want %s", got, gb.ScreenResolution)
	}
	if got := p.OutputResolution(); got != (gb.Resolution{Width: 640, Height: 576}) {
		t.Errorf("OutputResolution() = %s, want 640x576", got)
	}
	if p.pipeline == nil {
		t.Error("pipeline not created")
	}
	if p.screenBuf == nil || p.resolutionBuf == nil || p.sourceResBuf == nil {
		t.Error("buffers not created")
	}
	if len(p.frame) != gb.ScreenResolution.PixelCount()*screenPixelStride {
		t.Errorf("frame staging size = %d, want %d",
			len(p.frame), gb.ScreenResolution.PixelCount()*screenPixelStride)
	}
}

func TestNewScalePipelineValidation(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name string
		cfg  ScaleConfig
	}{
		{"zero source", ScaleConfig{OutputRes: gb.Resolution{Width: 640, Height: 576}}},
		{"zero output", ScaleConfig{SourceRes: gb.ScreenResolution}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScalePipeline(device, queue, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NewScalePipeline(nil, nil, testScaleConfig()); err == nil {
		t.Error("expected error for nil device")
	}
}

func TestScalePipelineUpdateResolution(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewScalePipeline(device, queue, testScaleConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	p.UpdateResolution(gb.Resolution{Width: 1280, Height: 1152})
	if got := p.OutputResolution(); got != (gb.Resolution{Width: 1280, Height: 1152}) {
		t.Errorf("OutputResolution() = %s, want 1280x1152", got)
	}

	// Zero dimensions clamp to 1 instead of reaching the shader.
	p.UpdateResolution(gb.Resolution{})
	if got := p.OutputResolution(); got != (gb.Resolution{Width: 1, Height: 1}) {
		t.Errorf("OutputResolution() after zero resize = %s, want 1x1", got)
	}
}

func TestScalePipelineUploadFrame(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewScalePipeline(device, queue, testScaleConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	s := gb.NewScreen()
	s.SetPixel(gb.Pos{X: 0, Y: 0}, gb.Color{R: 1})
	if err := p.UploadFrame(s); err != nil {
		t.Fatalf("UploadFrame() = %v", err)
	}

	wrong, err := gb.NewScreenSize(gb.Resolution{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.UploadFrame(wrong); err == nil {
		t.Error("expected error for mismatched screen resolution")
	}
}

func TestReadbackImage(t *testing.T) {
	// Two pixels, intended as pure red then pure blue.
	tests := []struct {
		name   string
		format gputypes.TextureFormat
		data   []byte
	}{
		{
			name:   "bgra",
			format: gputypes.TextureFormatBGRA8Unorm,
			data: []byte{
				0x00, 0x00, 0xFF, 0xFF,
				0xFF, 0x00, 0x00, 0xFF,
			},
		},
		{
			name:   "rgba",
			format: gputypes.TextureFormatRGBA8Unorm,
			data: []byte{
				0xFF, 0x00, 0x00, 0xFF,
				0x00, 0x00, 0xFF, 0xFF,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := readbackImage(tt.data, 2, 1, tt.format)
			if err != nil {
				t.Fatalf("readbackImage() = %v", err)
			}
			if got := img.RGBAAt(0, 0); got.R != 0xFF || got.G != 0 || got.B != 0 || got.A != 0xFF {
				t.Errorf("pixel 0 = %v, want opaque red", got)
			}
			if got := img.RGBAAt(1, 0); got.R != 0 || got.B != 0xFF || got.A != 0xFF {
				t.Errorf("pixel 1 = %v, want opaque blue", got)
			}
		})
	}
}

func TestReadbackImageUnsupportedFormat(t *testing.T) {
	if _, err := readbackImage(make([]byte, 4), 1, 1, gputypes.TextureFormatUndefined); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestScalePipelineDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewScalePipeline(device, queue, testScaleConfig())
	if err != nil {
		t.Fatal(err)
	}
	p.Destroy()
	p.Destroy()
	if p.pipeline != nil || p.screenBuf != nil {
		t.Error("resources not cleared after Destroy")
	}
}

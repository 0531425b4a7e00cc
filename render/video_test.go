//go:build !nogpu

package render

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/tlbanken/gb"
)

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

func TestNewVideoDefaults(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 640, Height: 576},
	})
	if err != nil {
		t.Fatalf("NewVideo() = %v", err)
	}
	defer v.Destroy()

	// Zero SourceRes selects the standard screen.
	if got := v.Screen().Resolution(); got != gb.ScreenResolution {
		t.Errorf("screen resolution = %s, want %s", got, gb.ScreenResolution)
	}
	if got := v.OutputResolution(); got != (gb.Resolution{Width: 640, Height: 576}) {
		t.Errorf("OutputResolution() = %s, want 640x576", got)
	}
}

func TestNewVideoClampsOutput(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{})
	if err != nil {
		t.Fatalf("NewVideo() = %v", err)
	}
	defer v.Destroy()

	if got := v.OutputResolution(); got != (gb.Resolution{Width: 1, Height: 1}) {
		t.Errorf("OutputResolution() = %s, want 1x1", got)
	}
}

func TestVideoSetPixel(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 320, Height: 288},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Destroy()

	want := gb.Color{R: 0.5, G: 1}
	v.SetPixel(gb.Pos{X: 12, Y: 34}, want)
	if got := v.Screen().At(gb.Pos{X: 12, Y: 34}); got != want {
		t.Errorf("At(12,34) = %v, want %v", got, want)
	}
	if !v.needsUpload() {
		t.Error("screen change not detected after SetPixel")
	}
}

func TestVideoDetectsDirectScreenWrites(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 320, Height: 288},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Destroy()

	// A fresh presenter has never uploaded.
	if !v.needsUpload() {
		t.Fatal("fresh presenter should need an upload")
	}
	if err := v.syncFrame(); err != nil {
		t.Fatalf("syncFrame() = %v", err)
	}
	if v.needsUpload() {
		t.Fatal("still stale after syncFrame")
	}

	// The emulation core writes through the screen directly, not through
	// Video.SetPixel. The next frame must re-upload regardless.
	v.Screen().SetPixel(gb.Pos{X: 80, Y: 72}, gb.Color{B: 1})
	if !v.needsUpload() {
		t.Fatal("direct screen write not detected")
	}
	if err := v.syncFrame(); err != nil {
		t.Fatalf("syncFrame() = %v", err)
	}
	if v.needsUpload() {
		t.Error("stale after re-sync")
	}

	// Clear counts as a change too.
	v.Screen().Clear(gb.Color{})
	if !v.needsUpload() {
		t.Error("Clear not detected")
	}
}

func TestVideoResize(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 320, Height: 288},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Destroy()

	v.Resize(gb.Resolution{Width: 1280, Height: 1152})
	if got := v.OutputResolution(); got != (gb.Resolution{Width: 1280, Height: 1152}) {
		t.Errorf("OutputResolution() = %s, want 1280x1152", got)
	}

	v.Resize(gb.Resolution{})
	if got := v.OutputResolution(); got != (gb.Resolution{Width: 1, Height: 1}) {
		t.Errorf("OutputResolution() after zero resize = %s, want 1x1", got)
	}
}

func TestVideoFPS(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 320, Height: 288},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Destroy()

	if got := v.FPS(); got != 0 {
		t.Errorf("FPS() = %d before any full second, want 0", got)
	}
	v.Tick()
	if got := v.FPS(); got != 0 {
		t.Errorf("FPS() = %d before any full second, want 0", got)
	}
}

func TestVideoDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	v, err := NewVideo(device, queue, Config{
		OutputRes: gb.Resolution{Width: 320, Height: 288},
	})
	if err != nil {
		t.Fatal(err)
	}
	v.Destroy()
	v.Destroy()
}

func TestPipelineString(t *testing.T) {
	tests := []struct {
		p    Pipeline
		want string
	}{
		{PipelineScaling, "Scaling"},
		{PipelinePassthrough, "Passthrough"},
		{Pipeline(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("Pipeline(%d).String() = %q, want %q", int(tt.p), got, tt.want)
		}
	}
}

func TestNullDeviceHandle(t *testing.T) {
	var h DeviceHandle = NullDeviceHandle{}
	if h.Device() != nil || h.Queue() != nil || h.Adapter() != nil {
		t.Error("null handle must return nil GPU objects")
	}
	if got := h.SurfaceFormat(); got != gputypes.TextureFormatUndefined {
		t.Errorf("SurfaceFormat() = %v, want undefined", got)
	}
}

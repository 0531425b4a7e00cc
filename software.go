package gb

import (
	"fmt"
	"image"
)

// SoftwareScaler presents a Screen on the CPU. It runs the same
// nearest-neighbor resolution as the GPU fragment stage, once per output
// pixel, sampling at pixel centers the way the rasterizer does.
//
// Intended for headless use, golden tests, and hosts without a GPU.
type SoftwareScaler struct {
	out Resolution
}

// NewSoftwareScaler creates a scaler for the given output resolution.
// Returns an error if either dimension is zero.
func NewSoftwareScaler(out Resolution) (*SoftwareScaler, error) {
	if out.IsZero() {
		return nil, fmt.Errorf("%w: output %s", ErrZeroResolution, out)
	}
	return &SoftwareScaler{out: out}, nil
}

// Resize changes the output resolution. Dimensions are clamped to at
// least 1 pixel, mirroring the window-size clamp the GPU path applies
// before uniform upload.
func (sc *SoftwareScaler) Resize(out Resolution) {
	if out.Width == 0 {
		out.Width = 1
	}
	if out.Height == 0 {
		out.Height = 1
	}
	sc.out = out
}

// Resolution returns the current output resolution.
func (sc *SoftwareScaler) Resolution() Resolution {
	return sc.out
}

// Present renders the screen into a new opaque image.RGBA at the output
// resolution.
func (sc *SoftwareScaler) Present(s *Screen) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(sc.out.Width), int(sc.out.Height)))
	sc.PresentInto(s, img)
	return img
}

// PresentInto renders the screen into dst, which must be at least the
// output resolution. Reuses dst's allocation across frames.
func (sc *SoftwareScaler) PresentInto(s *Screen, dst *image.RGBA) {
	for y := uint32(0); y < sc.out.Height; y++ {
		fy := float32(y) + 0.5
		for x := uint32(0); x < sc.out.Width; x++ {
			fx := float32(x) + 0.5
			dst.SetRGBA(int(x), int(y), toRGBA(s.Resolve(fx, fy, sc.out)))
		}
	}
}

package gb

import (
	"errors"
	"fmt"
)

// ErrZeroResolution is returned by constructors that receive a resolution
// with a zero dimension. Resize paths clamp instead of erroring.
var ErrZeroResolution = errors.New("gb: resolution must be non-zero")

// Resolution is a width/height pair in pixels.
//
// It is used both for the output surface (window size) and for the logical
// source screen. Both components must be greater than zero wherever a
// Resolution crosses an API boundary; constructors and Resize methods
// enforce this.
type Resolution struct {
	Width  uint32
	Height uint32
}

// PixelCount returns Width * Height.
func (r Resolution) PixelCount() int {
	return int(r.Width) * int(r.Height)
}

// IsZero reports whether either dimension is zero.
func (r Resolution) IsZero() bool {
	return r.Width == 0 || r.Height == 0
}

// String returns the resolution as "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Pos is a pixel position with the origin at the top-left corner.
type Pos struct {
	X uint32
	Y uint32
}

// Color is a normalized RGB color. Each channel is in [0, 1].
//
// Alpha is not stored: the screen is fully opaque, and both fragment
// stages force alpha to 1 on output.
type Color struct {
	R float32
	G float32
	B float32
}

// NewColor returns a Color with each channel clamped to [0, 1].
func NewColor(r, g, b float32) Color {
	return Color{R: clamp01(r), G: clamp01(g), B: clamp01(b)}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vertex is a single pass-through pipeline vertex: a screen-space pixel
// position and a pre-resolved color. Matches the GPU vertex layout
// (uint32x2 position at location 0, float32x3 color at location 1).
type Vertex struct {
	Pos Pos
	Col Color
}

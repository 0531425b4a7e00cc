package gb

import (
	"fmt"
	"image"
	"image/color"
)

// ScreenResolution is the logical resolution of the handheld's LCD.
var ScreenResolution = Resolution{Width: 160, Height: 144}

// pixelClear is the color a fresh screen is filled with.
var pixelClear = Color{R: 1, G: 0, B: 0}

// Screen is the virtual framebuffer produced by the emulation core.
//
// Pixels are stored row-major (index = y*width + x) with the origin at the
// top-left, one Color per logical pixel. The emulation core overwrites the
// screen wholesale each emulated frame; the rendering side only reads it.
// The slice length is tied to the resolution by construction, so a
// length/resolution mismatch is unrepresentable.
//
// Screen is not safe for concurrent use. The host's frame boundary is the
// synchronization point between the writing core and the reading renderer.
type Screen struct {
	res    Resolution
	pixels []Color

	// gen counts mutations through SetPixel and Clear. Renderers compare
	// it against the generation they last uploaded to skip redundant
	// buffer writes.
	gen uint64
}

// NewScreen creates a screen at the standard 160x144 resolution.
func NewScreen() *Screen {
	s, _ := NewScreenSize(ScreenResolution)
	return s
}

// NewScreenSize creates a screen with a custom logical resolution.
// Returns an error if either dimension is zero.
func NewScreenSize(res Resolution) (*Screen, error) {
	if res.IsZero() {
		return nil, fmt.Errorf("%w: screen %s", ErrZeroResolution, res)
	}
	s := &Screen{
		res:    res,
		pixels: make([]Color, res.PixelCount()),
	}
	s.Clear(pixelClear)
	return s, nil
}

// Resolution returns the screen's logical resolution.
func (s *Screen) Resolution() Resolution {
	return s.res
}

// SetPixel sets the color of one logical pixel. Positions outside the
// screen are ignored, matching the behavior of image.RGBA.Set.
func (s *Screen) SetPixel(pos Pos, col Color) {
	if pos.X >= s.res.Width || pos.Y >= s.res.Height {
		return
	}
	s.pixels[PixelIndex(pos.X, pos.Y, s.res)] = col
	s.gen++
}

// At returns the color of one logical pixel. Positions outside the screen
// return the zero Color.
func (s *Screen) At(pos Pos) Color {
	if pos.X >= s.res.Width || pos.Y >= s.res.Height {
		return Color{}
	}
	return s.pixels[PixelIndex(pos.X, pos.Y, s.res)]
}

// Clear fills the whole screen with one color.
func (s *Screen) Clear(col Color) {
	for i := range s.pixels {
		s.pixels[i] = col
	}
	s.gen++
}

// Generation returns the screen's mutation counter. It increments on every
// SetPixel and Clear, so two equal readings mean the screen content has
// not changed between them.
func (s *Screen) Generation() uint64 {
	return s.gen
}

// Pixels returns the backing pixel slice in row-major order.
//
// The slice is shared with the screen, not copied; the renderer reads it
// directly when packing the GPU storage buffer. It is a read view: writing
// through it bypasses the generation counter, so mutations must go through
// SetPixel or Clear. Callers must not mutate the screen while a draw
// referencing it is in flight.
func (s *Screen) Pixels() []Color {
	return s.pixels
}

// Image converts the screen to an image.RGBA at 1:1 scale, fully opaque.
func (s *Screen) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(s.res.Width), int(s.res.Height)))
	for y := uint32(0); y < s.res.Height; y++ {
		for x := uint32(0); x < s.res.Width; x++ {
			img.SetRGBA(int(x), int(y), toRGBA(s.pixels[PixelIndex(x, y, s.res)]))
		}
	}
	return img
}

// toRGBA converts a normalized Color to an 8-bit opaque RGBA value.
func toRGBA(c Color) color.RGBA {
	return color.RGBA{
		R: channelByte(c.R),
		G: channelByte(c.G),
		B: channelByte(c.B),
		A: 0xFF,
	}
}

// channelByte clamps a normalized channel to [0,1] and quantizes to 8 bits.
func channelByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xFF
	}
	return uint8(v*255 + 0.5)
}

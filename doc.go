// Package gb presents the fixed-resolution screen of a Game Boy style
// handheld console (160x144 logical pixels) on an arbitrarily sized
// output surface.
//
// # Overview
//
// The emulation core writes one frame's worth of pixels into a [Screen].
// Each output frame, the screen is stretched to the output surface with
// nearest-neighbor sampling: every covered output pixel is mapped back to
// exactly one source pixel and takes its color unchanged. No interpolation
// is performed between neighboring source pixels; the blocky look is the
// point.
//
// Two presentation paths are available:
//
//   - A WebGPU render pipeline (render.Video) that draws a full-screen
//     quad with no vertex buffer and resolves each fragment against the
//     screen's storage buffer on the GPU.
//   - A pure-Go path ([SoftwareScaler]) that performs the same resolution
//     on the CPU into an image.RGBA, for headless use and testing.
//
// Both paths share the same coordinate mapping, defined by [SourcePixel]
// and [PixelIndex]. A secondary pass-through pipeline draws externally
// prepared screen-space vertices (debug overlays) without any scaling.
//
// # Host responsibilities
//
// Window creation, GPU device and surface setup, and the event loop belong
// to the host application. The render package receives the device from the
// host; this module never creates one. The host must also keep the screen
// unchanged while a draw referencing it is in flight (single writer, then
// frame barrier).
//
// Logging is silent by default; call [SetLogger] to enable it.
package gb

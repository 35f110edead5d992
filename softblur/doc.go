// Package softblur implements the dual-filter blur on the CPU.
//
// It mirrors the GPU blur pyramid: the source is downsampled through a
// chain of half-resolution levels with a 5-tap kernel, then upsampled
// back with an 8-tap tent kernel. The half and double scaling steps use
// golang.org/x/image/draw; the kernel taps sample bilinearly with
// clamp-to-edge, matching the GPU sampler.
//
// The package serves two roles:
//   - Reference implementation for tests, since its output can be
//     inspected pixel by pixel without a GPU.
//   - Software fallback when no usable device is present.
//
// Noise and saturation are composite-time effects applied by the GPU
// path when the blurred texture is drawn; they are ignored here.
//
// Operations are not safe for concurrent use of a single Pyramid.
package softblur

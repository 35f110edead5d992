//go:build !nogpu

// Package gpu implements the GPU side of the backdrop effect pipeline.
//
// This is an internal package used by the backdrop library for rendering
// blur and x-ray effects. It talks directly to the gogpu/wgpu HAL (zero
// CGO), which supports Vulkan, Metal, and DX12 backends depending on the
// platform.
//
// # Architecture Overview
//
// The package is built around four pieces:
//
//   - Context: wraps a HAL device and queue, owns the lazily compiled
//     pipelines and a shared 1x1 white texture. Every texture remembers
//     the Context it was created on, and mixing resources across
//     contexts is a hard error.
//   - SharedTexture: a reference-counted color texture plus its view.
//     The reference count is what makes cached blur results safe to
//     hand out: a texture that is retained outside its owner is
//     detected and the owner rebuilds instead of overwriting it.
//   - Pyramid: the dual-filter blur ladder. Prepare sizes the texture
//     chain for a source, Render encodes the downsample and upsample
//     passes into a frame.
//   - Frame: one command encoder worth of work. All render passes,
//     texture barriers, and transient uniform buffers for a frame go
//     through it; End submits and blocks on a fence.
//
// # Blur Algorithm
//
// Blurring uses the dual-filter ("dual Kawase") approach: each
// downsample pass halves the resolution with a 5-tap kernel, each
// upsample pass doubles it with an 8-tap tent kernel. The chain holds
// passes+1 textures where index 0 is the full-resolution output and
// index i is the source size halved i times. A few passes over the
// shrinking chain approximate a very wide Gaussian at a fraction of the
// cost.
//
// # Compositing
//
// A single composite pipeline draws textured quads with the effect
// uniforms: per-corner rounded rectangle clipping, saturation
// adjustment, film grain noise, and an underlay color for translucent
// backdrops. Solid fills reuse the same pipeline by sampling the shared
// white texture with a multiply color.
//
// # Requirements
//
//   - gogpu/wgpu module (github.com/gogpu/wgpu)
//   - A GPU that supports Vulkan, Metal, or DX12 (for actual GPU
//     rendering; the noop backend is used in tests)
//
// # Thread Safety
//
// Context and SharedTexture reference counts are safe for concurrent
// use. A Frame is single-threaded: encode and submit from one goroutine.
package gpu

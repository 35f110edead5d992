// Package backdrop provides background-effect rendering for GoGPU-based
// compositors.
//
// # Overview
//
// backdrop turns arbitrary on-screen content into blurred or "x-ray"
// (see-through-with-effects) textures for surfaces that request blur,
// saturation, noise, or translucency. It owns the hard parts of that job:
// GPU texture lifetimes across frames, the multi-pass dual-Kawase blur
// algorithm, damage-aware caching that avoids redundant GPU work, and
// staying correct when the rendering context is recreated (GPU reset,
// output hot-plug).
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/backdrop"
//	    "github.com/gogpu/backdrop/render"
//	)
//
//	dev, err := render.OpenDevice()
//	if err != nil { ... }
//	defer dev.Close()
//
//	target, err := render.NewTarget(dev, 800, 600, 1)
//	if err != nil { ... }
//	defer target.Release()
//
//	buf := render.NewEffectBuffer()
//	buf.SetSize(800, 600, 1)
//	buf.SetBlurConfig(backdrop.NewBlurConfig(backdrop.WithPasses(3)))
//	defer buf.Destroy()
//
//	frame, err := dev.BeginFrame(target)
//	if err != nil { ... }
//	buf.Elements().Push(content)
//	if _, err := buf.Prepare(frame, true); err != nil { ... }
//	tex, err := buf.Render(frame, true)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Parameters, BlurConfig, Color, Rect, Region
//   - render: Device, Frame, EffectBuffer, BlurElement, Xray, damage tracking
//   - internal/gpu: texture pyramid, pipelines, WGSL shaders (gogpu/wgpu hal)
//   - softblur: CPU reference implementation of the blur chain
//
// # Coordinate System
//
// Logical coordinates are float64 with origin (0,0) at top-left, X right,
// Y down. Physical (pixel) coordinates are logical multiplied by a
// per-output scale factor and rounded outward.
//
// # Error Handling
//
// GPU errors never panic. Each component boundary logs the failure and
// degrades to "effect not rendered this frame"; the affected element is
// simply omitted and retried when the next frame prepares it again.
package backdrop

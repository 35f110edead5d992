// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package render draws background effects behind compositor surfaces:
// frosted-glass blur, noise, desaturation and see-through x-ray
// compositing, with damage tracking so effects re-render only when
// their sources change.
//
// # Key Principle
//
// The package RECEIVES a GPU device from the host compositor, it does
// NOT create its own. The compositor owns the device and queue for its
// whole output pipeline; this package is injected with them and shares
// textures zero-copy with the rest of the frame. OpenDevice exists for
// standalone tools and tests only.
//
// # Core Types
//
//   - DeviceHandle: GPU device access provided by the host
//   - Device, Target, Frame: device wiring, output texture, one frame
//   - Element: drawable unit with identity and a commit counter
//   - DamageTracker: diffs element lists into changed regions
//   - EffectBuffer: offscreen scene with a cached blurred copy
//   - BlurElement: captures the framebuffer behind a surface and blurs it
//   - Xray: draws surfaces as see-through views of shared buffers
//
// # Usage
//
// Per frame, the compositor collects effect elements through the
// dispatch entry point and draws them back to front:
//
//	f, err := dev.BeginFrame(target)
//	if err != nil {
//	    return err
//	}
//
//	var elements []render.Element
//	render.RenderBackgroundEffect(f, params, xray, blur, func(el render.Element) {
//	    elements = append(elements, el)
//	})
//
//	f.Clear(backdrop.Black)
//	f.Render(elements)
//	return f.End()
//
// Shared buffers are filled once and reused by every surface:
//
//	xray := render.NewXray()
//	xray.Background.SetSize(1920, 1080, 1)
//	xray.Backdrop.SetSize(1920, 1080, 1)
//	xray.Background.Elements().Push(wallpaper)
//
// # Architecture
//
//	              Host compositor
//	                     │
//	                     ▼
//	       RenderBackgroundEffect(params)
//	             │                │
//	             ▼                ▼
//	        BlurElement          Xray
//	      (capture behind    (sample shared
//	        the surface)    effect buffers)
//	             │                │
//	             │          EffectBuffer
//	             │         (damage-tracked
//	             │          offscreen scene)
//	             └───────┬────────┘
//	                     ▼
//	            internal/gpu pyramid
//	           (dual Kawase down/up)
//
// # Thread Safety
//
// Devices, frames and buffers are NOT thread-safe. Drive the whole
// pipeline from the compositor's render goroutine, or add external
// synchronization.
//
// # References
//
//   - Marius Bjørge, "Bandwidth-Efficient Rendering" (dual Kawase
//     blur), SIGGRAPH 2015
//   - KDE KWin blur effect: https://invent.kde.org/plasma/kwin
package render

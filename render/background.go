// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import "github.com/gogpu/backdrop"

// RenderBackgroundEffect renders the background effect of one surface,
// routing between the x-ray path and the capture blur path, and hands
// the produced elements to push in back-to-front order.
//
// Invisible surfaces produce nothing. Surfaces that do not clip to
// their window geometry are normalized first so the effect covers the
// whole element rect with square corners. On the x-ray path the corner
// radius is fitted to the window geometry before emitting; the blur
// element applies the radius it was configured with and only consults
// params for visibility and effect strength.
func RenderBackgroundEffect(
	f *Frame,
	params backdrop.Parameters,
	xray *Xray,
	blur *BlurElement,
	push func(Element),
) {
	if !params.IsVisible() {
		return
	}
	params = params.Normalized()

	if params.Xray {
		if xray == nil {
			return
		}
		params.CornerRadius = params.CornerRadius.Fit(
			params.WindowGeometry.W, params.WindowGeometry.H,
		)
		xray.Render(f, params, push)
		return
	}

	if blur == nil {
		return
	}
	if el, ok := blur.Render(f, params); ok {
		push(el)
	}
}

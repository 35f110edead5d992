// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"fmt"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// BlurElement blurs the framebuffer content behind a surface.
//
// The element is a cloneable handle: the compositor keeps one template
// per surface and each frame derives a configured copy via Render to
// push into its element list. Clones share the capture texture, the
// pyramid, and the cached result through an inner cell, so per-frame
// clones cost nothing on the GPU.
//
// Because the element samples the framebuffer it is drawn into, it
// reports IsFramebufferEffect and relies on the frame to call Capture
// once everything beneath it has been drawn.
type BlurElement struct {
	id           uint64
	commit       uint64
	geo          backdrop.Rect
	windowGeo    backdrop.Rect
	cornerRadius backdrop.CornerRadius
	scale        float64
	config       backdrop.BlurConfig

	// inner is shared between all clones of this element.
	inner *blurInner
}

var _ FramebufferEffect = (*BlurElement)(nil)

// blurInner holds the GPU state shared by the clones. A nil capture
// texture means the state has not been created yet.
type blurInner struct {
	capture *gpu.SharedTexture
	pyramid *gpu.Pyramid
	blurred *gpu.SharedTexture
	ctxID   uint64
}

func (in *blurInner) reset() {
	if in.blurred != nil {
		in.blurred.Release()
		in.blurred = nil
	}
	if in.capture != nil {
		in.capture.Release()
		in.capture = nil
	}
	if in.pyramid != nil {
		in.pyramid.Destroy()
		in.pyramid = nil
	}
	in.ctxID = 0
}

// NewBlurElement creates a blur template with the default
// configuration. The template itself is never drawn; push the clones
// returned by Render.
func NewBlurElement() *BlurElement {
	return &BlurElement{
		id:     NewElementID(),
		scale:  1,
		config: backdrop.DefaultBlurConfig(),
		inner:  &blurInner{},
	}
}

// SetBlurConfig changes the blur configuration. The cached result is
// invalidated and the element damaged.
func (b *BlurElement) SetBlurConfig(cfg backdrop.BlurConfig) {
	if b.config == cfg {
		return
	}

	b.config = cfg

	if b.inner.blurred != nil {
		b.inner.blurred.Release()
		b.inner.blurred = nil
	}

	b.commit++
}

// Update records the output scale and the wanted corner radius for the
// next frame. The radius is fit to the window geometry during Render.
func (b *BlurElement) Update(scale float64, cornerRadius backdrop.CornerRadius) {
	if b.scale == scale && b.cornerRadius == cornerRadius {
		return
	}

	b.scale = scale
	b.cornerRadius = cornerRadius

	b.commit++
}

// Render derives the clone to push for this frame. It merges the
// effect parameters into the element's configuration, fits the corner
// radius, and makes sure the capture texture and pyramid exist for the
// current geometry.
//
// The second return value is false when blurring is unsupported, most
// likely because the pipelines failed to compile, or when GPU state
// could not be created. The caller should then fall back to drawing
// the surface without the effect.
func (b *BlurElement) Render(f *Frame, params backdrop.Parameters) (*BlurElement, bool) {
	elem := *b
	e := &elem

	e.config.Disabled = e.config.Disabled || !params.Blur
	if e.config.Disabled || params.Noise != nil {
		e.config.Noise = 0
		if params.Noise != nil {
			e.config.Noise = *params.Noise
		}
	}
	if e.config.Disabled || params.Saturation != nil {
		e.config.Saturation = 1.5
		if params.Saturation != nil {
			e.config.Saturation = *params.Saturation
		}
	}

	e.geo = params.Geometry
	e.windowGeo = params.WindowGeometry
	e.cornerRadius = e.cornerRadius.Fit(params.WindowGeometry.W, params.WindowGeometry.H)

	ctx := f.gpu.Context()
	if _, err := ctx.Pipelines(); err != nil {
		// Missing blur pipelines; let the caller fall back.
		return nil, false
	}

	w, h := e.geo.Size().ToPhysical(e.scale)
	in := e.inner
	if in.capture != nil {
		switch {
		case in.capture.Width() != w || in.capture.Height() != h:
			slogger().Info("recreating capture texture due to size mismatch", "id", e.id)
			in.reset()
		case in.ctxID != ctx.ID():
			slogger().Debug("recreating capture texture", "id", e.id, "reason", "renderer id changed")
			in.reset()
		}
	}

	if in.capture == nil {
		texture, err := gpu.NewTexture(ctx, w, h, fmt.Sprintf("blur_capture_%d", e.id))
		if err != nil {
			slogger().Warn("creating blur capture texture failed", "error", err)
			return nil, false
		}
		in.capture = texture
		in.pyramid = gpu.NewPyramid(ctx)
		in.ctxID = ctx.ID()
		slogger().Info("created blur capture texture", "id", e.id, "width", w, "height", h)
	}

	if in.blurred == nil {
		// Size the pyramid with the template configuration; the merged
		// one only differs in noise and saturation, which do not affect
		// the chain.
		if err := in.pyramid.Prepare(in.capture, b.config); err != nil {
			slogger().Warn("preparing blur textures failed", "error", err)
			return nil, false
		}
	}

	return e, true
}

// ID implements Element.
func (b *BlurElement) ID() uint64 { return b.id }

// CommitCounter implements Element.
func (b *BlurElement) CommitCounter() uint64 { return b.commit }

// Geometry implements Element.
func (b *BlurElement) Geometry() backdrop.Rect {
	return b.geo.Scaled(b.scale)
}

// IsFramebufferEffect implements Element.
func (b *BlurElement) IsFramebufferEffect() bool { return true }

// Capture implements FramebufferEffect. It copies the element's region
// of the current render attachment into the capture texture and runs
// the blur, or passes the capture through unblurred when the effect is
// disabled. A blur failure leaves the cache empty, which makes Draw
// skip the element this frame.
func (b *BlurElement) Capture(f *Frame) error {
	in := b.inner
	if in.capture == nil {
		return nil
	}

	if in.blurred != nil {
		in.blurred.Release()
		in.blurred = nil
	}

	region := b.geo.Scaled(b.scale)
	if w, h := b.geo.Size().ToPhysical(b.scale); in.capture.Width() != w || in.capture.Height() != h {
		slogger().Debug("capture size mismatch, blur will look wrong",
			"id", b.id, "width", in.capture.Width(), "height", in.capture.Height())
	}

	opts := gpu.DefaultCompositeOptions()
	opts.DstRect = backdrop.NewRect(0, 0, float64(in.capture.Width()), float64(in.capture.Height()))
	opts.SrcRect = region
	if err := f.gpu.DrawTexture(in.capture, f.dst, &opts, true); err != nil {
		return err
	}

	if b.config.Disabled {
		in.blurred = in.capture.Retain()
		return nil
	}

	blurred, err := in.pyramid.Render(f.gpu, in.capture, b.config)
	if err != nil {
		slogger().Warn("rendering blur failed", "error", err)
		return nil
	}
	in.blurred = blurred
	return nil
}

// Draw implements Element. It silently skips when no capture happened
// this frame.
func (b *BlurElement) Draw(f *Frame) error {
	in := b.inner
	if in.capture == nil || in.blurred == nil {
		return nil
	}

	opts := gpu.DefaultCompositeOptions()
	opts.DstRect = b.geo.Scaled(b.scale)
	opts.SrcRect = backdrop.NewRect(0, 0, float64(in.blurred.Width()), float64(in.blurred.Height()))
	opts.CornerRadius = b.cornerRadius
	// TODO: compute InputToGeo when geo does not match windowGeo.
	opts.GeoSize = b.windowGeo.Size()
	opts.Scale = b.scale
	opts.Noise = b.config.Noise
	opts.Saturation = b.config.Saturation
	return f.gpu.DrawTexture(f.dst, in.blurred, &opts, false)
}

// Destroy releases the GPU state shared by the element's clones.
func (b *BlurElement) Destroy() {
	b.inner.reset()
}

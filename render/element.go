// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"sync/atomic"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// Element is one item in a frame's element list. Elements are drawn in
// slice order, earlier elements beneath later ones.
type Element interface {
	// ID identifies the element across frames for damage tracking.
	ID() uint64

	// CommitCounter increases whenever the element's content changes.
	// It never decreases.
	CommitCounter() uint64

	// Geometry is the destination rectangle in device pixels.
	Geometry() backdrop.Rect

	// IsFramebufferEffect reports whether the element samples the
	// framebuffer it is drawn into. Frame.Render invokes Capture on
	// such elements before drawing them.
	IsFramebufferEffect() bool

	// Draw renders the element into the frame's current target.
	Draw(f *Frame) error
}

// FramebufferEffect is implemented by elements that need a copy of the
// framebuffer contents beneath them, such as blur.
type FramebufferEffect interface {
	Element

	// Capture copies the framebuffer region the element covers. It runs
	// after everything beneath the element has been drawn and before
	// the element's own Draw.
	Capture(f *Frame) error
}

var nextElementID atomic.Uint64

// NewElementID returns a unique ID for a render element.
func NewElementID() uint64 { return nextElementID.Add(1) }

// SolidElement fills a rectangle with a single color. It draws through
// the shared white texture so that solid fills and texture draws go
// through the same pipeline.
type SolidElement struct {
	id     uint64
	commit uint64
	geo    backdrop.Rect
	color  backdrop.Color
}

var _ Element = (*SolidElement)(nil)

// NewSolidElement creates a solid fill covering geo, in device pixels.
func NewSolidElement(geo backdrop.Rect, c backdrop.Color) *SolidElement {
	return &SolidElement{id: NewElementID(), geo: geo, color: c}
}

// ID implements Element.
func (e *SolidElement) ID() uint64 { return e.id }

// CommitCounter implements Element.
func (e *SolidElement) CommitCounter() uint64 { return e.commit }

// Geometry implements Element.
func (e *SolidElement) Geometry() backdrop.Rect { return e.geo }

// IsFramebufferEffect implements Element.
func (e *SolidElement) IsFramebufferEffect() bool { return false }

// SetGeometry moves or resizes the fill.
func (e *SolidElement) SetGeometry(geo backdrop.Rect) {
	if e.geo == geo {
		return
	}
	e.geo = geo
	e.commit++
}

// SetColor changes the fill color.
func (e *SolidElement) SetColor(c backdrop.Color) {
	if e.color == c {
		return
	}
	e.color = c
	e.commit++
}

// Draw implements Element.
func (e *SolidElement) Draw(f *Frame) error {
	white, err := f.gpu.Context().WhiteTexture()
	if err != nil {
		return err
	}
	opts := gpu.DefaultCompositeOptions()
	opts.DstRect = e.geo
	opts.SrcRect = backdrop.NewRect(0, 0, 1, 1)
	opts.MultColor = e.color
	return f.gpu.DrawTexture(f.dst, white, &opts, false)
}

// TextureElement draws a render target's texture at a given position.
type TextureElement struct {
	id     uint64
	commit uint64
	geo    backdrop.Rect
	src    backdrop.Rect
	target *Target
	alpha  float64
}

var _ Element = (*TextureElement)(nil)

// NewTextureElement draws the whole of target into geo, in device
// pixels. The target is borrowed; the caller keeps ownership.
func NewTextureElement(target *Target, geo backdrop.Rect) *TextureElement {
	return &TextureElement{
		id:     NewElementID(),
		geo:    geo,
		src:    target.Bounds(),
		target: target,
		alpha:  1,
	}
}

// ID implements Element.
func (e *TextureElement) ID() uint64 { return e.id }

// CommitCounter implements Element.
func (e *TextureElement) CommitCounter() uint64 { return e.commit }

// Geometry implements Element.
func (e *TextureElement) Geometry() backdrop.Rect { return e.geo }

// IsFramebufferEffect implements Element.
func (e *TextureElement) IsFramebufferEffect() bool { return false }

// SetGeometry moves or resizes the element.
func (e *TextureElement) SetGeometry(geo backdrop.Rect) {
	if e.geo == geo {
		return
	}
	e.geo = geo
	e.commit++
}

// SetSrc restricts drawing to a region of the source texture, in
// texture pixels.
func (e *TextureElement) SetSrc(src backdrop.Rect) {
	if e.src == src {
		return
	}
	e.src = src
	e.commit++
}

// SetAlpha sets the opacity the texture is drawn with.
func (e *TextureElement) SetAlpha(alpha float64) {
	if e.alpha == alpha {
		return
	}
	e.alpha = alpha
	e.commit++
}

// MarkChanged records that the target's contents changed, so damage
// tracking picks the element up. The texture itself carries no commit
// information.
func (e *TextureElement) MarkChanged() { e.commit++ }

// Draw implements Element.
func (e *TextureElement) Draw(f *Frame) error {
	opts := gpu.DefaultCompositeOptions()
	opts.DstRect = e.geo
	opts.SrcRect = e.src
	opts.Alpha = e.alpha
	return f.gpu.DrawTexture(f.dst, e.target.tex, &opts, false)
}

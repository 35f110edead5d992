// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// ElementStore accumulates an effect buffer's content elements for the
// next render. Storage is reused across frames.
type ElementStore struct {
	list []Element
}

// Push appends an element. Earlier elements are drawn beneath later
// ones.
func (s *ElementStore) Push(e Element) {
	s.list = append(s.list, e)
}

// Len returns the number of pushed elements.
func (s *ElementStore) Len() int { return len(s.list) }

// offscreen is the GPU state of an effect buffer. It is recreated
// whenever the texture it holds no longer matches the buffer.
type offscreen struct {
	texture *gpu.SharedTexture
	ctxID   uint64
	scale   float64
	damage  *DamageTracker

	// blurred caches the blur output until the original changes. The
	// cache owns a retained reference to the pyramid's output texture;
	// releasing it before the next pyramid prepare is what keeps the
	// pyramid from rebuilding its chain every frame.
	blurred *gpu.SharedTexture
}

var nextEffectBufferID atomic.Uint64

// EffectBuffer renders a set of elements into an offscreen texture and
// lazily maintains a blurred version of it.
//
// The buffer persists across frames. Between frames, callers update
// the wanted size, blur configuration, and content elements; Prepare
// then re-renders only when the content actually changed, tracked by
// element IDs and commit counters. The blurred texture is computed at
// most once per change of the original.
//
// A monotonic commit counter increases exactly when the buffer's
// observable output changes, so emitted elements that share the buffer
// damage correctly.
type EffectBuffer struct {
	id            uint64
	width, height int
	scale         float64
	config        backdrop.BlurConfig

	store ElementStore
	fresh bool

	offscreen *offscreen
	pyramid   *gpu.Pyramid

	commit uint64
}

// NewEffectBuffer creates an empty buffer with the default blur
// configuration. Call SetSize before the first Prepare.
func NewEffectBuffer() *EffectBuffer {
	return &EffectBuffer{
		id:     nextEffectBufferID.Add(1),
		scale:  1,
		config: backdrop.DefaultBlurConfig(),
	}
}

// ID identifies the buffer. Elements emitted for this buffer share the
// ID so damage tracking treats them as one source.
func (b *EffectBuffer) ID() uint64 { return b.id }

// CommitCounter returns the monotonic change counter.
func (b *EffectBuffer) CommitCounter() uint64 { return b.commit }

// BlurConfig returns the current blur configuration.
func (b *EffectBuffer) BlurConfig() backdrop.BlurConfig { return b.config }

// Scale returns the buffer's scale factor in device pixels per logical
// unit.
func (b *EffectBuffer) Scale() float64 { return b.scale }

// Size returns the buffer size in device pixels.
func (b *EffectBuffer) Size() (width, height int) {
	return b.width, b.height
}

// LogicalSize returns the buffer size in logical coordinates.
func (b *EffectBuffer) LogicalSize() backdrop.Size {
	return backdrop.Size{
		W: float64(b.width) / b.scale,
		H: float64(b.height) / b.scale,
	}
}

// SetSize records the wanted buffer size in device pixels. The texture
// is reallocated lazily during the next Prepare.
func (b *EffectBuffer) SetSize(width, height int, scale float64) {
	b.width = width
	b.height = height
	b.scale = scale
}

// SetBlurConfig changes the blur configuration. An existing blurred
// result is invalidated, since noise, saturation, and blur strength all
// change the output.
func (b *EffectBuffer) SetBlurConfig(cfg backdrop.BlurConfig) {
	if b.config == cfg {
		return
	}

	b.config = cfg

	if b.offscreen != nil && b.offscreen.blurred != nil {
		b.offscreen.blurred.Release()
		b.offscreen.blurred = nil
		b.commit++
	}
}

// Elements returns the store for this frame's content elements and
// marks the buffer as pending re-render. Without a call to Elements
// the next Prepare keeps the previous contents as is.
func (b *EffectBuffer) Elements() *ElementStore {
	b.fresh = true
	return &b.store
}

// Prepare brings the offscreen texture up to date and, when wantBlur is
// set and blurring is not disabled, readies the blur pyramid. It
// reports whether the blur will actually be applied; pass the result to
// Render. On error the effect should be skipped for this frame.
func (b *EffectBuffer) Prepare(f *Frame, wantBlur bool) (applied bool, err error) {
	if err := b.prepareOffscreen(f); err != nil {
		return false, fmt.Errorf("preparing offscreen: %w", err)
	}

	applied = wantBlur && !b.config.Disabled
	if applied {
		if err := b.prepareBlur(f); err != nil {
			return false, fmt.Errorf("preparing blur: %w", err)
		}
	}

	return applied, nil
}

func (b *EffectBuffer) prepareOffscreen(f *Frame) error {
	ctx := f.gpu.Context()

	if b.width <= 0 || b.height <= 0 {
		return fmt.Errorf("effect buffer has no size")
	}

	// Check if we need to create or recreate the texture.
	reason := ""
	if off := b.offscreen; off != nil {
		switch {
		case off.texture.Width() != b.width || off.texture.Height() != b.height:
			reason = fmt.Sprintf("size changed from %dx%d to %dx%d",
				off.texture.Width(), off.texture.Height(), b.width, b.height)
		case !off.texture.Unique():
			reason = "not unique"
		case off.ctxID != ctx.ID():
			reason = "renderer id changed"
		}
		if reason != "" {
			b.releaseOffscreen()
		}
	} else {
		reason = "first render"
	}

	if b.offscreen == nil {
		slogger().Debug("creating new offscreen texture", "buffer", b.id, "reason", reason)

		texture, err := gpu.NewTexture(ctx, b.width, b.height, fmt.Sprintf("effect_buffer_%d", b.id))
		if err != nil {
			return err
		}
		b.offscreen = &offscreen{
			texture: texture,
			ctxID:   ctx.ID(),
			scale:   b.scale,
			damage:  NewDamageTracker(b.width, b.height, b.scale),
		}
	}
	off := b.offscreen

	// Recreate the damage tracker if the scale changes. Size changes
	// already recreate the whole offscreen state.
	if off.scale != b.scale {
		off.scale = b.scale

		slogger().Debug("recreating damage tracker due to scale change", "buffer", b.id)
		off.damage = NewDamageTracker(b.width, b.height, b.scale)

		b.commit++
		if off.blurred != nil {
			off.blurred.Release()
			off.blurred = nil
		}
	}

	// Render the elements if any.
	if !b.fresh {
		// No redrawing necessary.
		return nil
	}
	b.fresh = false

	damage := off.damage.Damage(b.store.list)
	if len(damage) > 0 {
		if err := b.renderElements(f, off.texture); err != nil {
			b.clearStore()
			return fmt.Errorf("rendering elements: %w", err)
		}

		b.commit++

		// Original texture changed; reset the blurred texture.
		if off.blurred != nil {
			off.blurred.Release()
			off.blurred = nil
		}
	}

	b.clearStore()
	return nil
}

// renderElements redraws the whole offscreen texture from the pushed
// elements, restoring the frame's render attachment afterwards.
func (b *EffectBuffer) renderElements(f *Frame, dst *gpu.SharedTexture) error {
	prev := f.setTarget(dst)
	defer f.setTarget(prev)

	f.Clear(backdrop.Transparent)
	for _, e := range b.store.list {
		if err := e.Draw(f); err != nil {
			return err
		}
	}
	return nil
}

// clearStore empties the element list but keeps its storage for the
// next frame.
func (b *EffectBuffer) clearStore() {
	clear(b.store.list)
	b.store.list = b.store.list[:0]
}

func (b *EffectBuffer) prepareBlur(f *Frame) error {
	off := b.offscreen
	if off == nil {
		return fmt.Errorf("missing offscreen")
	}
	if off.blurred != nil {
		// Already rendered.
		return nil
	}

	ctx := f.gpu.Context()
	if _, err := ctx.Pipelines(); err != nil {
		return fmt.Errorf("blur pipelines unavailable: %w", err)
	}

	if b.pyramid != nil && b.pyramid.Context() != ctx {
		slogger().Debug("recreating blur: renderer changed", "buffer", b.id)
		b.pyramid.Destroy()
		b.pyramid = nil
	}
	if b.pyramid == nil {
		b.pyramid = gpu.NewPyramid(ctx)
	}

	if off.ctxID != ctx.ID() {
		return fmt.Errorf("wrong renderer context id")
	}

	return b.pyramid.Prepare(off.texture, b.config)
}

// Render returns the texture an emitted element should draw: the plain
// offscreen texture when blur is false, otherwise the blurred version,
// computed on first use after a change. Pass the applied value returned
// by Prepare. The returned texture is borrowed; the buffer keeps
// ownership.
func (b *EffectBuffer) Render(f *Frame, blur bool) (*gpu.SharedTexture, error) {
	off := b.offscreen
	if off == nil {
		return nil, fmt.Errorf("offscreen is missing")
	}

	if !blur {
		return off.texture, nil
	}

	if off.blurred != nil {
		return off.blurred, nil
	}

	if b.pyramid == nil {
		return nil, fmt.Errorf("blur is missing")
	}
	blurred, err := b.pyramid.Render(f.gpu, off.texture, b.config)
	if err != nil {
		return nil, fmt.Errorf("rendering blur: %w", err)
	}
	off.blurred = blurred
	return off.blurred, nil
}

// Destroy releases all GPU resources held by the buffer.
func (b *EffectBuffer) Destroy() {
	b.releaseOffscreen()
	if b.pyramid != nil {
		b.pyramid.Destroy()
		b.pyramid = nil
	}
}

func (b *EffectBuffer) releaseOffscreen() {
	off := b.offscreen
	if off == nil {
		return
	}
	if off.blurred != nil {
		off.blurred.Release()
		off.blurred = nil
	}
	off.texture.Release()
	b.offscreen = nil
}

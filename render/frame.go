// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"fmt"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// Frame is one frame's worth of rendering into a target.
//
// All drawing within the frame goes to a current render attachment,
// which starts out as the frame's target. Multi-step operations that
// render into intermediate textures, such as effect buffers, switch the
// attachment and restore it on every exit path, so element draws always
// land where the caller expects.
//
// A Frame is single-threaded. Exactly one of End or Abort must be
// called.
type Frame struct {
	gpu    *gpu.Frame
	target *Target
	dst    *gpu.SharedTexture
}

// BeginFrame starts encoding a frame targeting the given target.
func (d *Device) BeginFrame(target *Target) (*Frame, error) {
	if d.ctx == nil {
		return nil, fmt.Errorf("render: device is closed")
	}
	if target.tex.Context() != d.ctx {
		return nil, fmt.Errorf("render: target belongs to a different device: %w", gpu.ErrWrongContext)
	}
	gf, err := gpu.BeginFrame(d.ctx, "effect_frame")
	if err != nil {
		return nil, err
	}
	return &Frame{gpu: gf, target: target, dst: target.tex}, nil
}

// Target returns the target the frame was started with.
func (f *Frame) Target() *Target { return f.target }

// Scale returns the target's scale factor in device pixels per logical
// unit.
func (f *Frame) Scale() float64 { return f.target.scale }

// setTarget redirects subsequent draws to the given texture and returns
// the previous attachment so the caller can restore it.
func (f *Frame) setTarget(t *gpu.SharedTexture) *gpu.SharedTexture {
	prev := f.dst
	f.dst = t
	return prev
}

// Clear fills the current render attachment with the given color.
func (f *Frame) Clear(c backdrop.Color) {
	f.gpu.Clear(f.dst, c)
}

// Render draws the elements in slice order, earlier elements beneath
// later ones. Elements that sample the framebuffer have their Capture
// invoked first, at the point where everything beneath them is already
// drawn. Per-element failures are logged and the element skipped, so a
// broken effect degrades to not being rendered rather than killing the
// frame.
func (f *Frame) Render(elements []Element) {
	for _, e := range elements {
		if fe, ok := e.(FramebufferEffect); ok && e.IsFramebufferEffect() {
			if err := fe.Capture(f); err != nil {
				slogger().Warn("framebuffer capture failed", "id", e.ID(), "error", err)
			}
		}
		if err := e.Draw(f); err != nil {
			slogger().Warn("element draw failed", "id", e.ID(), "error", err)
		}
	}
}

// End submits the encoded work and blocks until the GPU completes it.
func (f *Frame) End() error {
	return f.gpu.End()
}

// Abort discards the encoded work.
func (f *Frame) Abort() {
	f.gpu.Abort()
}

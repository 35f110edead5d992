// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// Target is a GPU texture the frame renders into.
//
// The texture dimensions are in device pixels; the scale factor relates
// them to logical coordinates. Targets are long-lived: create one per
// output and reuse it across frames. Release frees the texture.
type Target struct {
	tex   *gpu.SharedTexture
	scale float64
}

// NewTarget creates an offscreen render target of the given size in
// device pixels.
func NewTarget(d *Device, width, height int, scale float64) (*Target, error) {
	if d.ctx == nil {
		return nil, fmt.Errorf("render: device is closed")
	}
	tex, err := gpu.NewTexture(d.ctx, width, height, "render_target")
	if err != nil {
		return nil, err
	}
	return &Target{tex: tex, scale: scale}, nil
}

// Width returns the target width in device pixels.
func (t *Target) Width() int { return t.tex.Width() }

// Height returns the target height in device pixels.
func (t *Target) Height() int { return t.tex.Height() }

// Scale returns the number of device pixels per logical unit.
func (t *Target) Scale() float64 { return t.scale }

// Bounds returns the full target rectangle in device pixels.
func (t *Target) Bounds() backdrop.Rect {
	return backdrop.NewRect(0, 0, float64(t.tex.Width()), float64(t.tex.Height()))
}

// ReadImage copies the target contents back to the CPU. This blocks
// until the GPU is idle, so it is meant for tests, screenshots, and
// offscreen tools rather than the frame loop.
func (t *Target) ReadImage() (*image.RGBA, error) {
	pix, err := gpu.ReadTexture(t.tex.Context(), t.tex)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, t.tex.Width(), t.tex.Height()))
	copy(img.Pix, pix)
	return img, nil
}

// Release frees the underlying texture. The target must not be used
// afterwards.
func (t *Target) Release() {
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

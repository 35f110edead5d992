// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/gpu"
)

// Workspace is one region of backdrop space served by the background
// buffer.
type Workspace struct {
	// Region is the workspace rectangle in backdrop coordinates. Its
	// size relative to the buffer's logical size determines the
	// workspace's own zoom level.
	Region backdrop.Rect

	// Color is composited beneath the workspace's translucent
	// background content.
	Color backdrop.Color
}

// Xray renders surfaces as see-through: instead of blurring the
// content captured behind a surface, emitted elements sample shared
// effect buffers holding the workspace background and the backdrop, so
// the surface appears to cut through everything above them.
//
// The background buffer holds per-workspace content and may serve
// several workspaces at different zoom levels at once; the backdrop
// buffer covers backdrop space one to one. Both are shared by pointer
// with the emitted elements, so a blur prepared once per frame is
// reused by every element drawn from it.
type Xray struct {
	Background *EffectBuffer
	Backdrop   *EffectBuffer

	// BackdropColor is composited beneath the backdrop content.
	BackdropColor backdrop.Color

	// Workspaces lists the regions the background buffer serves.
	Workspaces []Workspace
}

// NewXray creates an x-ray compositor with empty buffers. Size the
// buffers and fill their elements before rendering.
func NewXray() *Xray {
	return &Xray{
		Background:    NewEffectBuffer(),
		Backdrop:      NewEffectBuffer(),
		BackdropColor: backdrop.Transparent,
	}
}

// Render prepares the shared buffers and emits the elements replacing
// one surface's content: per workspace intersecting the surface, one
// cropped element sampling the background buffer, then a single
// element sampling the backdrop buffer underneath. A surface
// straddling two workspaces gets two clipped background elements.
//
// Buffer preparation failures are logged and the affected elements
// skipped for this frame.
func (x *Xray) Render(f *Frame, params backdrop.Parameters, push func(Element)) {
	geoInBackdrop := backdrop.RectAt(
		params.PosInBackdrop,
		params.Geometry.Size().Scaled(params.Zoom),
	)
	winPosInBackdrop := params.PosInBackdrop.Add(
		params.WindowGeometry.Pos().Sub(params.Geometry.Pos()).Mul(params.Zoom),
	)
	winGeoInBackdrop := backdrop.RectAt(
		winPosInBackdrop,
		params.WindowGeometry.Size().Scaled(params.Zoom),
	)

	x.renderBackground(f, params, geoInBackdrop, winPosInBackdrop, push)

	// TODO: when the background fully covers the geometry with a fully
	// opaque color, the backdrop element could be skipped.
	x.renderBackdrop(f, params, geoInBackdrop, winGeoInBackdrop, push)
}

func (x *Xray) renderBackground(
	f *Frame,
	params backdrop.Parameters,
	geoInBackdrop backdrop.Rect,
	winPosInBackdrop backdrop.Point,
	push func(Element),
) {
	bg := x.Background

	prev := bg.CommitCounter()
	blur, err := bg.Prepare(f, params.Blur)
	if err != nil {
		slogger().Warn("preparing background buffer failed", "error", err)
		return
	}
	if bg.CommitCounter() != prev {
		slogger().Debug("background damaged")
	}

	noise, saturation := effectDefaults(params, bg.BlurConfig(), blur)

	geoSize := params.WindowGeometry.Size()
	bufSize := bg.LogicalSize()

	for _, ws := range x.Workspaces {
		// This can differ from params.Zoom for surfaces that do not
		// scale with workspaces.
		wsZoomX := ws.Region.W / bufSize.W
		wsZoomY := ws.Region.H / bufSize.H

		crop := ws.Region.Intersect(geoInBackdrop)
		if crop.IsEmpty() {
			continue
		}

		src := backdrop.NewRect(
			(crop.X-ws.Region.X)/wsZoomX,
			(crop.Y-ws.Region.Y)/wsZoomY,
			crop.W/wsZoomX,
			crop.H/wsZoomY,
		).Scaled(bg.Scale())

		posAgainstBuf := backdrop.Pt(
			(winPosInBackdrop.X-ws.Region.X)/wsZoomX,
			(winPosInBackdrop.Y-ws.Region.Y)/wsZoomY,
		)
		inputToGeo := backdrop.Scale(wsZoomX/params.Zoom, wsZoomY/params.Zoom).
			Multiply(backdrop.Scale(bufSize.W/geoSize.W, bufSize.H/geoSize.H)).
			Multiply(backdrop.Translate(-posAgainstBuf.X/bufSize.W, -posAgainstBuf.Y/bufSize.H))

		geometry := backdrop.NewRect(
			(crop.X-params.PosInBackdrop.X)/params.Zoom,
			(crop.Y-params.PosInBackdrop.Y)/params.Zoom,
			crop.W/params.Zoom,
			crop.H/params.Zoom,
		).Offset(params.Geometry.X, params.Geometry.Y)

		push(&XrayElement{
			buffer:       bg,
			blur:         blur,
			geometry:     geometry,
			src:          src,
			inputToGeo:   inputToGeo,
			geoSize:      geoSize,
			cornerRadius: params.CornerRadius,
			scale:        params.Scale,
			noise:        noise,
			saturation:   saturation,
			bgColor:      ws.Color,
		})
	}
}

func (x *Xray) renderBackdrop(
	f *Frame,
	params backdrop.Parameters,
	geoInBackdrop backdrop.Rect,
	winGeoInBackdrop backdrop.Rect,
	push func(Element),
) {
	bd := x.Backdrop

	prev := bd.CommitCounter()
	blur, err := bd.Prepare(f, params.Blur)
	if err != nil {
		slogger().Warn("preparing backdrop buffer failed", "error", err)
		return
	}
	if bd.CommitCounter() != prev {
		slogger().Debug("backdrop damaged")
	}

	noise, saturation := effectDefaults(params, bd.BlurConfig(), blur)

	src := geoInBackdrop.Scaled(bd.Scale())

	geoSize := winGeoInBackdrop.Size()
	bufSize := bd.LogicalSize()
	inputToGeo := backdrop.Scale(bufSize.W/geoSize.W, bufSize.H/geoSize.H).
		Multiply(backdrop.Translate(-winGeoInBackdrop.X/bufSize.W, -winGeoInBackdrop.Y/bufSize.H))

	push(&XrayElement{
		buffer:       bd,
		blur:         blur,
		geometry:     params.Geometry,
		src:          src,
		inputToGeo:   inputToGeo,
		geoSize:      geoSize,
		cornerRadius: params.CornerRadius.Scaled(params.Zoom),
		scale:        params.Scale,
		noise:        noise,
		saturation:   saturation,
		bgColor:      x.BackdropColor,
	})
}

// effectDefaults resolves the noise and saturation of an emitted
// element: explicit parameter overrides win, otherwise the blur
// config's values apply when blurred and neutral values when not.
func effectDefaults(params backdrop.Parameters, cfg backdrop.BlurConfig, blurred bool) (noise, saturation float64) {
	noise = 0
	saturation = 1
	if blurred {
		noise = cfg.Noise
		saturation = cfg.Saturation
	}
	if params.Noise != nil {
		noise = *params.Noise
	}
	if params.Saturation != nil {
		saturation = *params.Saturation
	}
	return noise, saturation
}

// Destroy releases the GPU resources of both buffers.
func (x *Xray) Destroy() {
	x.Background.Destroy()
	x.Backdrop.Destroy()
}

// XrayElement draws a region of a shared effect buffer in place of a
// surface's content. Elements emitted from the same buffer share its
// ID and commit counter, so damage tracking treats them as views of
// one source.
type XrayElement struct {
	buffer       *EffectBuffer
	blur         bool
	geometry     backdrop.Rect // logical coordinates
	src          backdrop.Rect // buffer device pixels
	inputToGeo   backdrop.Matrix
	geoSize      backdrop.Size
	cornerRadius backdrop.CornerRadius
	scale        float64
	noise        float64
	saturation   float64
	bgColor      backdrop.Color
}

var _ Element = (*XrayElement)(nil)

// ID implements Element.
func (e *XrayElement) ID() uint64 { return e.buffer.ID() }

// CommitCounter implements Element.
func (e *XrayElement) CommitCounter() uint64 { return e.buffer.CommitCounter() }

// Geometry implements Element.
func (e *XrayElement) Geometry() backdrop.Rect {
	return e.geometry.Scaled(e.scale)
}

// IsFramebufferEffect implements Element.
func (e *XrayElement) IsFramebufferEffect() bool { return false }

// Draw implements Element. The blurred texture was prepared when the
// element was emitted; failures here are logged and the element
// skipped.
func (e *XrayElement) Draw(f *Frame) error {
	texture, err := e.buffer.Render(f, e.blur)
	if err != nil {
		slogger().Warn("rendering effect buffer failed", "error", err)
		return nil
	}

	opts := gpu.DefaultCompositeOptions()
	opts.DstRect = e.geometry.Scaled(e.scale)
	opts.SrcRect = e.src
	opts.BgColor = e.bgColor
	opts.CornerRadius = e.cornerRadius
	opts.GeoSize = e.geoSize
	opts.InputToGeo = e.inputToGeo
	opts.Scale = e.scale
	opts.Noise = e.noise
	opts.Saturation = e.saturation
	return f.gpu.DrawTexture(f.dst, texture, &opts, false)
}

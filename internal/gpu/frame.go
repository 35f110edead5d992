//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"honnef.co/go/safeish"

	"github.com/gogpu/backdrop"
)

// Frame wraps one command encoder worth of GPU work. Render passes,
// texture barriers, and the transient uniform buffers and bind groups
// they need are accumulated on the frame; End submits everything in one
// command buffer and blocks until the GPU is done.
//
// A Frame is single-threaded. Exactly one of End or Abort must be
// called.
type Frame struct {
	ctx     *Context
	encoder hal.CommandEncoder

	// Transient resources destroyed after the submit completes.
	// Uniform buffers cannot be reused within a frame because
	// WriteBuffer stages data for the next submit, so each pass gets
	// its own small buffer.
	buffers []hal.Buffer
	groups  []hal.BindGroup

	finished bool
}

// CompositeOptions controls a single composite draw.
type CompositeOptions struct {
	// DstRect is the destination rectangle in target pixels.
	DstRect backdrop.Rect
	// SrcRect is the sampled region in source texture pixels.
	SrcRect backdrop.Rect
	// MultColor is multiplied into every sample. Solid fills use the
	// shared white texture with the fill color here.
	MultColor backdrop.Color
	// BgColor is composited underneath translucent content.
	BgColor backdrop.Color
	// CornerRadius and GeoSize describe the rounded geometry rectangle
	// the draw is clipped to, in logical coordinates. A zero GeoSize
	// disables clipping.
	CornerRadius backdrop.CornerRadius
	GeoSize      backdrop.Size
	// InputToGeo maps normalized source texture coordinates to
	// normalized geometry coordinates for the clip test.
	InputToGeo backdrop.Matrix
	// Scale is the output scale factor, used to size antialiasing.
	Scale float64
	// Noise is the film grain strength. Zero disables it.
	Noise float64
	// Saturation of 1 leaves colors unchanged.
	Saturation float64
	// Alpha multiplies the final output.
	Alpha float64
}

// DefaultCompositeOptions returns options that draw the source
// unchanged: white multiply color, neutral saturation, no noise, no
// clipping, full alpha.
func DefaultCompositeOptions() CompositeOptions {
	return CompositeOptions{
		MultColor:  backdrop.White,
		InputToGeo: backdrop.Identity(),
		Scale:      1,
		Saturation: 1,
		Alpha:      1,
	}
}

// BeginFrame creates a command encoder and starts encoding.
func BeginFrame(ctx *Context, label string) (*Frame, error) {
	encoder, err := ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}
	return &Frame{ctx: ctx, encoder: encoder}, nil
}

// Context returns the context the frame encodes on.
func (f *Frame) Context() *Context { return f.ctx }

// transition emits a barrier moving the texture to the given usage, if
// it is not already there. This is a no-op on Metal, GLES, software,
// and noop backends but required for Vulkan and DX12 layout tracking.
func (f *Frame) transition(t *SharedTexture, usage gputypes.TextureUsage) {
	if t.usage == usage {
		return
	}
	f.encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: t.usage,
			NewUsage: usage,
		},
	}})
	t.usage = usage
}

// newUniformBuffer creates a transient uniform buffer, uploads data to
// it, and schedules it for destruction after the frame completes.
func (f *Frame) newUniformBuffer(label string, data []byte) (hal.Buffer, error) {
	buf, err := f.ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create uniform buffer: %w", err)
	}
	f.buffers = append(f.buffers, buf)
	f.ctx.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// newBindGroup creates a transient bind group over a uniform buffer and
// a source texture, using the shared layout and sampler.
func (f *Frame) newBindGroup(buf hal.Buffer, size uint64, src *SharedTexture) (hal.BindGroup, error) {
	p, err := f.ctx.Pipelines()
	if err != nil {
		return nil, err
	}
	bg, err := f.ctx.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "effect_bind_group",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: buf.NativeHandle(),
					Offset: 0,
					Size:   size,
				},
			},
			{
				Binding: 1,
				Resource: gputypes.TextureViewBinding{
					TextureView: gputypes.TextureViewHandle(src.view.NativeHandle()),
				},
			},
			{
				Binding: 2,
				Resource: gputypes.SamplerBinding{
					Sampler: gputypes.SamplerHandle(p.sampler.NativeHandle()),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group: %w", err)
	}
	f.groups = append(f.groups, bg)
	return bg, nil
}

// Clear runs a render pass that clears the destination to the given
// premultiplied color.
func (f *Frame) Clear(dst *SharedTexture, c backdrop.Color) {
	f.transition(dst, gputypes.TextureUsageRenderAttachment)
	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "effect_clear_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A},
		}},
	})
	rp.End()
}

// DrawTexture draws a region of src into a rectangle of dst through
// the composite pipeline. When clear is set the destination is cleared
// to transparent first, otherwise the draw blends over the existing
// contents.
func (f *Frame) DrawTexture(dst, src *SharedTexture, opts *CompositeOptions, clear bool) error {
	p, err := f.ctx.Pipelines()
	if err != nil {
		return err
	}

	u := compositeUniforms{
		DstRect:      rectToVec4(opts.DstRect),
		SrcRect:      normalizeRect(opts.SrcRect, src.width, src.height),
		MultColor:    colorToVec4(opts.MultColor),
		BgColor:      colorToVec4(opts.BgColor),
		CornerRadius: cornerRadiusToVec4(opts.CornerRadius),
		GeoSize:      [2]float32{float32(opts.GeoSize.W), float32(opts.GeoSize.H)},
		TargetSize:   [2]float32{float32(dst.width), float32(dst.height)},
		Scale:        float32(opts.Scale),
		Noise:        float32(opts.Noise),
		Saturation:   float32(opts.Saturation),
		Alpha:        float32(opts.Alpha),
		InputToGeo:   packMat3x3(opts.InputToGeo),
	}

	buf, err := f.newUniformBuffer("composite_uniforms", safeish.AsBytes(&u))
	if err != nil {
		return err
	}
	bg, err := f.newBindGroup(buf, compositeUniformSize, src)
	if err != nil {
		return err
	}

	f.transition(src, gputypes.TextureUsageTextureBinding)
	f.transition(dst, gputypes.TextureUsageRenderAttachment)

	loadOp := gputypes.LoadOpLoad
	if clear {
		loadOp = gputypes.LoadOpClear
	}
	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "composite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.SetPipeline(p.composite)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	return nil
}

// kawasePass runs one blur pass from src into dst covering the whole
// destination texture. The pass replaces the destination contents, so
// it always clears.
func (f *Frame) kawasePass(pipeline hal.RenderPipeline, dst, src *SharedTexture, halfPixel [2]float32, offset float32) error {
	u := blurUniforms{
		HalfPixel: halfPixel,
		Offset:    offset,
	}
	buf, err := f.newUniformBuffer("blur_uniforms", safeish.AsBytes(&u))
	if err != nil {
		return err
	}
	bg, err := f.newBindGroup(buf, blurUniformSize, src)
	if err != nil {
		return err
	}

	f.transition(src, gputypes.TextureUsageTextureBinding)
	f.transition(dst, gputypes.TextureUsageRenderAttachment)

	rp := f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "blur_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       dst.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	return nil
}

// End finishes encoding, submits the command buffer, and blocks until
// the GPU signals completion. Transient resources are destroyed before
// returning.
func (f *Frame) End() error {
	if f.finished {
		return fmt.Errorf("gpu: frame already finished")
	}
	f.finished = true
	defer f.cleanup()

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer f.ctx.device.FreeCommandBuffer(cmdBuf)

	fence, err := f.ctx.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer f.ctx.device.DestroyFence(fence)

	if err := f.ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := f.ctx.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("gpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	return nil
}

// Abort discards any encoded work and destroys transient resources.
func (f *Frame) Abort() {
	if f.finished {
		return
	}
	f.finished = true
	f.encoder.DiscardEncoding()
	f.cleanup()
}

// cleanup destroys transient bind groups and buffers. Bind groups go
// first since they reference the buffers.
func (f *Frame) cleanup() {
	for _, bg := range f.groups {
		f.ctx.device.DestroyBindGroup(bg)
	}
	f.groups = nil
	for _, buf := range f.buffers {
		f.ctx.device.DestroyBuffer(buf)
	}
	f.buffers = nil
}

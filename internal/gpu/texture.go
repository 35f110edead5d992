//go:build !nogpu

package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// textureFormat is the color format used by every effect texture and
// render target in this package.
const textureFormat = gputypes.TextureFormatBGRA8Unorm

// SharedTexture is a reference-counted color texture plus its default
// 2D view.
//
// The count starts at one for the creator. Retain adds a reference for
// a cached or handed-out copy, Release drops one and destroys the GPU
// resources when the count reaches zero. Unique reports whether the
// creator holds the only reference, which is how texture owners detect
// that a previously returned result is still alive somewhere and must
// not be overwritten in place.
type SharedTexture struct {
	ctx    *Context
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	label  string

	refs atomic.Int32

	// usage tracks the current layout for barrier purposes.
	// Only touched while encoding a frame.
	usage gputypes.TextureUsage
}

// NewTexture creates a texture that can be rendered to, sampled, and
// copied. This covers every intermediate surface the effect pipeline
// needs: offscreen buffers, blur chain levels, and capture targets.
func NewTexture(ctx *Context, width, height int, label string) (*SharedTexture, error) {
	return newTextureWithUsage(ctx, width, height, label,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|
			gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst,
		gputypes.TextureUsageRenderAttachment)
}

func newTextureWithUsage(ctx *Context, width, height int, label string, usage, initial gputypes.TextureUsage) (*SharedTexture, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("gpu: invalid texture size %dx%d", width, height)
	}

	tex, err := ctx.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        textureFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: creating texture %q: %w", label, err)
	}

	view, err := ctx.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label,
		Format:        textureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		ctx.device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: creating texture view %q: %w", label, err)
	}

	t := &SharedTexture{
		ctx:    ctx,
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		label:  label,
		usage:  initial,
	}
	t.refs.Store(1)
	return t, nil
}

// Context returns the context the texture was created on.
func (t *SharedTexture) Context() *Context { return t.ctx }

// Texture returns the underlying HAL texture.
func (t *SharedTexture) Texture() hal.Texture { return t.tex }

// View returns the default 2D view of the texture.
func (t *SharedTexture) View() hal.TextureView { return t.view }

// Width returns the texture width in pixels.
func (t *SharedTexture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *SharedTexture) Height() int { return t.height }

// Label returns the debug label the texture was created with.
func (t *SharedTexture) Label() string { return t.label }

// Retain adds a reference and returns the texture for chaining.
func (t *SharedTexture) Retain() *SharedTexture {
	t.refs.Add(1)
	return t
}

// Release drops a reference. When the last reference is released the
// view and texture are destroyed on the owning context's device.
func (t *SharedTexture) Release() {
	n := t.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		panic("gpu: texture released more times than retained")
	}
	t.ctx.device.DestroyTextureView(t.view)
	t.ctx.device.DestroyTexture(t.tex)
}

// Unique reports whether exactly one reference to the texture exists.
func (t *SharedTexture) Unique() bool {
	return t.refs.Load() == 1
}

//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// nextContextID mints process-unique context identifiers.
var nextContextID atomic.Uint64

// Context wraps a HAL device and queue together with the resources the
// effect pipeline shares across frames: the compiled pipelines and a
// 1x1 white texture used for solid fills.
//
// Textures remember the Context they were created on. Operations that
// mix textures from different contexts fail instead of producing
// garbage, mirroring how GL texture sharing breaks across contexts.
//
// The Context does not own the device: Destroy releases the pipelines
// and shared textures but leaves the device and queue to the caller.
type Context struct {
	id     uint64
	device hal.Device
	queue  hal.Queue

	mu           sync.Mutex
	pipelines    *Pipelines
	pipelinesErr error
	white        *SharedTexture
}

// NewContext wraps an already opened device and queue.
func NewContext(device hal.Device, queue hal.Queue) *Context {
	return &Context{
		id:     nextContextID.Add(1),
		device: device,
		queue:  queue,
	}
}

// ID returns the unique identifier of this context.
func (c *Context) ID() uint64 { return c.id }

// Device returns the underlying HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the underlying HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Pipelines returns the compiled effect pipelines, creating them on
// first use. Compilation failures are sticky: once shader compilation
// fails, every later call returns the same error and callers are
// expected to skip the effect rather than retry.
func (c *Context) Pipelines() (*Pipelines, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pipelines != nil {
		return c.pipelines, nil
	}
	if c.pipelinesErr != nil {
		return nil, c.pipelinesErr
	}

	p, err := newPipelines(c.device)
	if err != nil {
		c.pipelinesErr = fmt.Errorf("gpu: creating pipelines: %w", err)
		return nil, c.pipelinesErr
	}
	c.pipelines = p
	return p, nil
}

// WhiteTexture returns the shared 1x1 opaque white texture, creating
// and uploading it on first use. Solid color fills sample it with a
// multiply color so they can go through the regular composite pipeline.
//
// The returned texture is owned by the context. Do not Release it.
func (c *Context) WhiteTexture() (*SharedTexture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.white != nil {
		return c.white, nil
	}

	tex, err := newTextureWithUsage(c, 1, 1, "effect white",
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst,
		gputypes.TextureUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("gpu: creating white texture: %w", err)
	}

	// One opaque white pixel. The byte order is the same in BGRA and
	// RGBA so no swizzle is needed.
	c.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  tex.tex,
			MipLevel: 0,
		},
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  4,
			RowsPerImage: 1,
		},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	)

	c.white = tex
	return tex, nil
}

// Destroy releases the pipelines and shared textures owned by the
// context. The device and queue are left untouched.
func (c *Context) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pipelines != nil {
		c.pipelines.Destroy(c.device)
		c.pipelines = nil
	}
	if c.white != nil {
		c.white.Release()
		c.white = nil
	}
}

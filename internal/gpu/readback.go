//go:build !nogpu

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ReadTexture copies a texture back to the CPU and returns tightly
// packed RGBA bytes, row by row. It submits its own command buffer and
// blocks until the copy completes, so it is meant for testing and
// capture paths rather than the frame loop.
func ReadTexture(ctx *Context, t *SharedTexture) ([]byte, error) {
	if t.ctx != ctx {
		return nil, fmt.Errorf("gpu: reading texture: %w", ErrWrongContext)
	}

	w := uint32(t.width)
	h := uint32(t.height)

	// WebGPU (and DX12) requires BytesPerRow aligned to 256 bytes.
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + 255) &^ 255
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := ctx.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer ctx.device.DestroyBuffer(staging)

	encoder, err := ctx.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("texture_readback"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	// Move the texture to the copy source layout for the transfer and
	// back afterwards so the next frame finds it where it expects.
	prevUsage := t.usage
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: prevUsage,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  alignedBytesPerRow,
			RowsPerImage: h,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
		},
		Size: hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: prevUsage,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer ctx.device.FreeCommandBuffer(cmdBuf)

	fence, err := ctx.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("gpu: create fence: %w", err)
	}
	defer ctx.device.DestroyFence(fence)

	if err := ctx.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := ctx.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("gpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := ctx.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}

	// Strip row padding (if any) and convert BGRA to RGBA.
	out := make([]byte, int(bytesPerRow)*int(h))
	if alignedBytesPerRow == bytesPerRow {
		convertBGRAToRGBA(readback, out, t.width*t.height)
	} else {
		tight := make([]byte, len(out))
		for row := uint32(0); row < h; row++ {
			srcOff := int(row) * int(alignedBytesPerRow)
			dstOff := int(row) * int(bytesPerRow)
			copy(tight[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
		}
		convertBGRAToRGBA(tight, out, t.width*t.height)
	}
	return out, nil
}

// convertBGRAToRGBA swizzles pixel data between the GPU texture format
// and the byte order image.RGBA expects.
func convertBGRAToRGBA(src, dst []byte, pixels int) {
	for i := 0; i < pixels; i++ {
		o := i * 4
		dst[o] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o]
		dst[o+3] = src[o+3]
	}
}

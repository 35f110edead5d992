//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/backdrop"
)

// Errors returned by Pyramid operations.
var (
	// ErrWrongContext is returned when a texture from one context is
	// used with a pyramid or frame from another.
	ErrWrongContext = errors.New("gpu: resource belongs to a different context")

	// ErrOutputRetained is returned when the full-resolution output
	// texture still has an outside reference and cannot be rendered
	// into. Callers should release their cached result and prepare
	// again.
	ErrOutputRetained = errors.New("gpu: blur output texture has a retained reference")
)

// Pyramid is the texture ladder for dual-filter blurring. After
// Prepare, the chain holds passes+1 textures: index 0 matches the
// source size and serves as the final output, and each following level
// halves the previous one down to a minimum of one pixel.
//
// Prepare is incremental. Growing the pass count appends smaller
// levels, shrinking it drops the tail, and the chain is only rebuilt
// from scratch when the source size changes or when the output texture
// from a previous Render is still retained by a caller.
type Pyramid struct {
	ctx   *Context
	chain []*SharedTexture
}

// NewPyramid creates an empty pyramid on the given context.
func NewPyramid(ctx *Context) *Pyramid {
	return &Pyramid{ctx: ctx}
}

// Context returns the context the pyramid's textures belong to.
func (p *Pyramid) Context() *Context { return p.ctx }

// Levels returns the current chain textures, full resolution first.
// The pyramid keeps ownership.
func (p *Pyramid) Levels() []*SharedTexture { return p.chain }

// Prepare sizes the texture chain for blurring the given source with
// the given config. It creates only the levels that are missing and
// releases levels beyond the configured pass count.
func (p *Pyramid) Prepare(source *SharedTexture, cfg backdrop.BlurConfig) error {
	if source.ctx != p.ctx {
		return fmt.Errorf("gpu: preparing blur: %w", ErrWrongContext)
	}

	passes := cfg.ClampedPasses()

	if len(p.chain) > 0 {
		out := p.chain[0]
		if out.width != source.width || out.height != source.height {
			slogger().Debug("recreating blur textures",
				"reason", "output size changed",
				"old_width", out.width, "old_height", out.height,
				"new_width", source.width, "new_height", source.height)
			p.releaseChain()
		} else if !out.Unique() {
			slogger().Debug("recreating blur textures",
				"reason", "output retained elsewhere")
			p.releaseChain()
		}
	}

	w, h := source.width, source.height
	for i := 0; i <= passes; i++ {
		if i >= len(p.chain) {
			tex, err := NewTexture(p.ctx, w, h, fmt.Sprintf("blur level %d", i))
			if err != nil {
				return fmt.Errorf("gpu: creating blur level %d: %w", i, err)
			}
			p.chain = append(p.chain, tex)
		}
		w = max(1, w/2)
		h = max(1, h/2)
	}

	for len(p.chain) > passes+1 {
		last := len(p.chain) - 1
		p.chain[last].Release()
		p.chain = p.chain[:last]
	}

	return nil
}

// Render encodes the blur passes for source into the frame and returns
// the full-resolution result. The caller owns one reference to the
// returned texture and must Release it when the cached result is
// invalidated; holding on to it makes the next Prepare rebuild the
// chain instead of overwriting the texture in place.
//
// The chain must have been prepared for this source and config.
func (p *Pyramid) Render(f *Frame, source *SharedTexture, cfg backdrop.BlurConfig) (*SharedTexture, error) {
	if source.ctx != p.ctx {
		return nil, fmt.Errorf("gpu: rendering blur: %w", ErrWrongContext)
	}
	if f.ctx != p.ctx {
		return nil, fmt.Errorf("gpu: rendering blur: %w", ErrWrongContext)
	}

	passes := cfg.ClampedPasses()
	if len(p.chain) != passes+1 {
		return nil, fmt.Errorf("gpu: wrong blur chain length: expected %d, got %d", passes+1, len(p.chain))
	}

	out := p.chain[0]
	if out.width != source.width || out.height != source.height {
		return nil, fmt.Errorf("gpu: blur output size %dx%d does not match source %dx%d",
			out.width, out.height, source.width, source.height)
	}
	if !out.Unique() {
		return nil, ErrOutputRetained
	}

	pl, err := f.ctx.Pipelines()
	if err != nil {
		return nil, err
	}
	offset := float32(cfg.Offset)

	// Downsample: source feeds level 1, then each level feeds the
	// next. Level 0 is skipped on the way down; it only receives the
	// final upsample. The half pixel is half of a destination pixel.
	src := source
	for i := 1; i <= passes; i++ {
		dst := p.chain[i]
		hp := [2]float32{0.5 / float32(dst.width), 0.5 / float32(dst.height)}
		if err := f.kawasePass(pl.down, dst, src, hp, offset); err != nil {
			return nil, fmt.Errorf("gpu: blur downsample pass %d: %w", i, err)
		}
		src = dst
	}

	// Upsample back up the chain into level 0. The half pixel is half
	// of a source pixel.
	for i := passes; i >= 1; i-- {
		srcLevel := p.chain[i]
		dst := p.chain[i-1]
		hp := [2]float32{0.5 / float32(srcLevel.width), 0.5 / float32(srcLevel.height)}
		if err := f.kawasePass(pl.up, dst, srcLevel, hp, offset); err != nil {
			return nil, fmt.Errorf("gpu: blur upsample pass %d: %w", i, err)
		}
	}

	return out.Retain(), nil
}

// Destroy releases every texture in the chain.
func (p *Pyramid) Destroy() {
	p.releaseChain()
}

func (p *Pyramid) releaseChain() {
	for _, t := range p.chain {
		t.Release()
	}
	p.chain = nil
}

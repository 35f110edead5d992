package softblur

import (
	"image"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/internal/parallel"
)

// Pyramid holds the intermediate levels of the dual-filter blur and
// reuses them across calls. The zero value is ready to use.
type Pyramid struct {
	levels  []*image.RGBA
	scratch *image.RGBA
}

// Render blurs src according to cfg and returns the result at the
// source size. The returned image is owned by the pyramid and remains
// valid until the next Render call; use Blur for an independently
// owned copy.
//
// A disabled configuration passes the source through unblurred. An
// empty source yields an empty image.
func (p *Pyramid) Render(src image.Image, cfg backdrop.BlurConfig) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}

	if cfg.Disabled {
		p.prepare(w, h, 0)
		xdraw.Copy(p.levels[0], image.Point{}, src, sb, xdraw.Src, nil)
		return p.levels[0]
	}

	passes := cfg.ClampedPasses()
	p.prepare(w, h, passes)
	xdraw.Copy(p.levels[0], image.Point{}, src, sb, xdraw.Src, nil)

	// The tap radius is half a destination pixel scaled by the
	// configured offset, on both the way down and the way up.
	radius := cfg.Offset / 2

	for i := 1; i <= passes; i++ {
		p.downsample(p.levels[i], p.levels[i-1], radius)
	}
	for i := passes; i >= 1; i-- {
		p.upsample(p.levels[i-1], p.levels[i], radius)
	}
	return p.levels[0]
}

// Levels reports the number of pyramid levels held from the last
// Render call.
func (p *Pyramid) Levels() int {
	return len(p.levels)
}

// Blur is a convenience wrapper around Pyramid.Render that returns an
// image the caller owns.
func Blur(src image.Image, cfg backdrop.BlurConfig) *image.RGBA {
	var p Pyramid
	return p.Render(src, cfg)
}

// prepare sizes the level chain for a source of w by h pixels. Level
// zero matches the source and every further level halves the previous
// one, clamping at one pixel. Existing levels are reused when the
// source size is unchanged.
func (p *Pyramid) prepare(w, h, passes int) {
	if len(p.levels) > 0 {
		b := p.levels[0].Bounds()
		if b.Dx() != w || b.Dy() != h {
			p.levels = p.levels[:0]
		}
	}

	lw, lh := w, h
	for i := 0; i <= passes; i++ {
		if i >= len(p.levels) {
			p.levels = append(p.levels, image.NewRGBA(image.Rect(0, 0, lw, lh)))
		}
		lw, lh = max(1, lw/2), max(1, lh/2)
	}
	if len(p.levels) > passes+1 {
		p.levels = p.levels[:passes+1]
	}

	if p.scratch == nil || p.scratch.Bounds().Dx() < w || p.scratch.Bounds().Dy() < h {
		p.scratch = image.NewRGBA(image.Rect(0, 0, w, h))
	}
}

// scratchFor returns a w by h view of the shared scratch image.
func (p *Pyramid) scratchFor(w, h int) *image.RGBA {
	return p.scratch.SubImage(image.Rect(0, 0, w, h)).(*image.RGBA)
}

// downsample halves src into dst: a bilinear half-scale followed by
// the 5-tap kernel at the destination resolution.
func (p *Pyramid) downsample(dst, src *image.RGBA, radius float64) {
	b := dst.Bounds()
	half := p.scratchFor(b.Dx(), b.Dy())
	xdraw.BiLinear.Scale(half, half.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	kawaseDown(dst, half, radius)
}

// upsample doubles src into dst: a bilinear double-scale followed by
// the 8-tap tent kernel at the destination resolution.
func (p *Pyramid) upsample(dst, src *image.RGBA, radius float64) {
	b := dst.Bounds()
	doubled := p.scratchFor(b.Dx(), b.Dy())
	xdraw.BiLinear.Scale(doubled, doubled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	kawaseUp(dst, doubled, radius)
}

// Kernel rows are independent of each other, so large images run on a
// shared worker pool. The pool is created on first use and lives for
// the process.
var (
	rowPoolOnce sync.Once
	rowPool     *parallel.WorkerPool
)

// minRowBand is the smallest number of rows worth handing to a worker.
const minRowBand = 64

func forRows(b image.Rectangle, fn func(y0, y1 int)) {
	if b.Dy() < 2*minRowBand {
		fn(b.Min.Y, b.Max.Y)
		return
	}
	rowPoolOnce.Do(func() { rowPool = parallel.NewWorkerPool(0) })
	rowPool.For(b.Min.Y, b.Max.Y, minRowBand, fn)
}

// kawaseDown applies the downsample kernel: the center sample weighted
// 4 plus the four diagonal neighbors at the tap radius, normalized
// by 8. dst and src must have equal bounds.
func kawaseDown(dst, src *image.RGBA, radius float64) {
	b := dst.Bounds()
	forRows(b, func(y0, y1 int) {
		kawaseDownRows(dst, src, radius, y0, y1)
	})
}

func kawaseDownRows(dst, src *image.RGBA, radius float64, y0, y1 int) {
	b := dst.Bounds()
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cx := float64(x-b.Min.X) + 0.5
			cy := float64(y-b.Min.Y) + 0.5

			r, g, bl, a := sampleBilinear(src, cx, cy)
			r, g, bl, a = r*4, g*4, bl*4, a*4

			for _, d := range [4][2]float64{
				{-radius, -radius},
				{radius, radius},
				{radius, -radius},
				{-radius, radius},
			} {
				tr, tg, tb, ta := sampleBilinear(src, cx+d[0], cy+d[1])
				r += tr
				g += tg
				bl += tb
				a += ta
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = clampUint8(r / 8)
			dst.Pix[i+1] = clampUint8(g / 8)
			dst.Pix[i+2] = clampUint8(bl / 8)
			dst.Pix[i+3] = clampUint8(a / 8)
		}
	}
}

// kawaseUp applies the upsample kernel: four edge samples at twice the
// tap radius weighted 1 and four diagonal samples at the tap radius
// weighted 2, normalized by 12. dst and src must have equal bounds.
func kawaseUp(dst, src *image.RGBA, radius float64) {
	b := dst.Bounds()
	forRows(b, func(y0, y1 int) {
		kawaseUpRows(dst, src, radius, y0, y1)
	})
}

func kawaseUpRows(dst, src *image.RGBA, radius float64, y0, y1 int) {
	taps := [8][3]float64{
		{-2 * radius, 0, 1},
		{-radius, radius, 2},
		{0, 2 * radius, 1},
		{radius, radius, 2},
		{2 * radius, 0, 1},
		{radius, -radius, 2},
		{0, -2 * radius, 1},
		{-radius, -radius, 2},
	}

	b := dst.Bounds()
	for y := y0; y < y1; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cx := float64(x-b.Min.X) + 0.5
			cy := float64(y-b.Min.Y) + 0.5

			var r, g, bl, a float32
			for _, tap := range taps {
				tr, tg, tb, ta := sampleBilinear(src, cx+tap[0], cy+tap[1])
				w := float32(tap[2])
				r += tr * w
				g += tg * w
				bl += tb * w
				a += ta * w
			}

			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = clampUint8(r / 12)
			dst.Pix[i+1] = clampUint8(g / 12)
			dst.Pix[i+2] = clampUint8(bl / 12)
			dst.Pix[i+3] = clampUint8(a / 12)
		}
	}
}

// sampleBilinear samples img at the continuous position (fx, fy),
// where pixel centers sit at half-integer coordinates relative to the
// image bounds. Coordinates outside the image clamp to the edge.
func sampleBilinear(img *image.RGBA, fx, fy float64) (r, g, b, a float32) {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	tx := fx - 0.5
	ty := fy - 0.5
	x0 := int(math.Floor(tx))
	y0 := int(math.Floor(ty))
	fracX := float32(tx - float64(x0))
	fracY := float32(ty - float64(y0))

	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	x0 = clampInt(x0, 0, w-1)
	y0 = clampInt(y0, 0, h-1)

	i00 := img.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y0)
	i10 := img.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y0)
	i01 := img.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y1)
	i11 := img.PixOffset(bounds.Min.X+x1, bounds.Min.Y+y1)

	w00 := (1 - fracX) * (1 - fracY)
	w10 := fracX * (1 - fracY)
	w01 := (1 - fracX) * fracY
	w11 := fracX * fracY

	pix := img.Pix
	r = float32(pix[i00+0])*w00 + float32(pix[i10+0])*w10 + float32(pix[i01+0])*w01 + float32(pix[i11+0])*w11
	g = float32(pix[i00+1])*w00 + float32(pix[i10+1])*w10 + float32(pix[i01+1])*w01 + float32(pix[i11+1])*w11
	b = float32(pix[i00+2])*w00 + float32(pix[i10+2])*w10 + float32(pix[i01+2])*w01 + float32(pix[i11+2])*w11
	a = float32(pix[i00+3])*w00 + float32(pix[i10+3])*w10 + float32(pix[i01+3])*w01 + float32(pix[i11+3])*w11
	return r, g, b, a
}

// clampInt clamps v to [minVal, maxVal].
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampUint8 clamps a float32 to [0, 255] and rounds to the nearest
// uint8.
func clampUint8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

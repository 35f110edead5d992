package softblur

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/backdrop"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// squareImage returns a w by h image filled with bg and a centered
// side by side square of fg.
func squareImage(w, h, side int, bg, fg color.RGBA) *image.RGBA {
	img := solidImage(w, h, bg)
	x0 := (w - side) / 2
	y0 := (h - side) / 2
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			img.SetRGBA(x, y, fg)
		}
	}
	return img
}

// splitImage returns a w by h image with the left half filled with
// left and the right half with right.
func splitImage(w, h int, left, right color.RGBA) *image.RGBA {
	img := solidImage(w, h, left)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			img.SetRGBA(x, y, right)
		}
	}
	return img
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestBlurUniformStaysUniform(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
	}{
		{"opaque orange", color.RGBA{R: 200, G: 120, B: 40, A: 255}},
		{"premultiplied half red", color.RGBA{R: 100, A: 128}},
		{"black", color.RGBA{A: 255}},
	}

	cfg := backdrop.NewBlurConfig(backdrop.WithPasses(3))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Blur(solidImage(32, 32, tt.c), cfg)

			// Each scale or kernel stage can round by one count, so
			// allow a small drift.
			for y := 0; y < 32; y++ {
				for x := 0; x < 32; x++ {
					got := out.RGBAAt(x, y)
					if absDiff(got.R, tt.c.R) > 4 || absDiff(got.G, tt.c.G) > 4 ||
						absDiff(got.B, tt.c.B) > 4 || absDiff(got.A, tt.c.A) > 4 {
						t.Errorf("pixel (%d,%d) = %+v, want ~%+v", x, y, got, tt.c)
						return
					}
				}
			}
		})
	}
}

func TestBlurDisabledPassesThrough(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8(x + y), A: 255})
		}
	}

	out := Blur(src, backdrop.NewBlurConfig(backdrop.WithDisabled(true)))

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if out.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) changed: got %+v, want %+v", x, y, out.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}

	// The pass-through is a copy, not a view of the source.
	out.SetRGBA(0, 0, color.RGBA{R: 9, A: 255})
	if src.RGBAAt(0, 0).R == 9 {
		t.Error("mutating the output must not affect the source")
	}
}

func TestBlurSpreadsAndAttenuates(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	src := squareImage(32, 32, 8, black, white)

	out := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(2), backdrop.WithOffset(4)))

	center := out.RGBAAt(16, 16)
	if center.R >= 255 {
		t.Errorf("center = %d, want attenuated below 255", center.R)
	}

	// Energy must leak outside the original square.
	outside := out.RGBAAt(24, 16)
	if outside.R == 0 {
		t.Error("blur should spread beyond the square boundary")
	}
}

func TestBlurMorePassesSpreadWider(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	src := squareImage(32, 32, 8, black, white)

	shallow := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(1), backdrop.WithOffset(4)))
	deep := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(3), backdrop.WithOffset(4)))

	if c1, c3 := shallow.RGBAAt(16, 16).R, deep.RGBAAt(16, 16).R; c3 >= c1 {
		t.Errorf("center: passes=3 gives %d, passes=1 gives %d, want deeper blur dimmer", c3, c1)
	}
	if f1, f3 := shallow.RGBAAt(26, 16).R, deep.RGBAAt(26, 16).R; f3 < f1 {
		t.Errorf("far pixel: passes=3 gives %d, passes=1 gives %d, want deeper blur wider", f3, f1)
	}
}

func TestBlurOffsetControlsSpread(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	src := squareImage(32, 32, 8, black, white)

	narrow := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(1), backdrop.WithOffset(2)))
	wide := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(1), backdrop.WithOffset(10)))

	if n, w := narrow.RGBAAt(16, 16).R, wide.RGBAAt(16, 16).R; w >= n {
		t.Errorf("center: offset=10 gives %d, offset=2 gives %d, want wider offset dimmer", w, n)
	}
}

func TestBlurSoftensEdge(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	src := splitImage(64, 64, black, white)

	out := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(2), backdrop.WithOffset(4)))

	seam := out.RGBAAt(31, 32)
	if seam.R < 20 || seam.R > 235 {
		t.Errorf("seam pixel = %d, want intermediate gray", seam.R)
	}
	left := out.RGBAAt(0, 32)
	right := out.RGBAAt(63, 32)
	if left.R >= right.R {
		t.Errorf("edge ordering lost: left %d, right %d", left.R, right.R)
	}
	if left.R > 100 {
		t.Errorf("left edge = %d, want mostly dark", left.R)
	}
	if right.R < 155 {
		t.Errorf("right edge = %d, want mostly bright", right.R)
	}
}

func TestKawaseDownKernel(t *testing.T) {
	// Uniform 80 with a 160 center. The kernel takes the center
	// weighted 4 plus the four diagonals at the tap radius, divided
	// by 8: (4*160 + 4*80) / 8 = 120.
	src := solidImage(3, 3, color.RGBA{R: 80, G: 80, B: 80, A: 255})
	src.SetRGBA(1, 1, color.RGBA{R: 160, G: 160, B: 160, A: 255})
	dst := image.NewRGBA(image.Rect(0, 0, 3, 3))

	kawaseDown(dst, src, 1)

	if got := dst.RGBAAt(1, 1).R; got != 120 {
		t.Errorf("center = %d, want 120", got)
	}
}

func TestKawaseUpKernel(t *testing.T) {
	// Uniform 60 with a 180 center at (2,2). The tent kernel has no
	// center tap: four edges at twice the radius weighted 1 and four
	// diagonals at the radius weighted 2, divided by 12. At the
	// center every tap lands on 60, so the 180 vanishes: 720/12 = 60.
	// At (1,1) one diagonal lands on the 180: (4*60 + 2*(180+3*60))
	// / 12 = 80.
	src := solidImage(5, 5, color.RGBA{R: 60, G: 60, B: 60, A: 255})
	src.SetRGBA(2, 2, color.RGBA{R: 180, G: 180, B: 180, A: 255})
	dst := image.NewRGBA(image.Rect(0, 0, 5, 5))

	kawaseUp(dst, src, 1)

	if got := dst.RGBAAt(2, 2).R; got != 60 {
		t.Errorf("center = %d, want 60", got)
	}
	if got := dst.RGBAAt(1, 1).R; got != 80 {
		t.Errorf("neighbor = %d, want 80", got)
	}
}

func TestPyramidReusesLevels(t *testing.T) {
	var p Pyramid
	cfg := backdrop.NewBlurConfig(backdrop.WithPasses(3))
	src := solidImage(64, 64, color.RGBA{R: 50, G: 50, B: 50, A: 255})

	first := p.Render(src, cfg)
	if p.Levels() != 4 {
		t.Fatalf("Levels() = %d, want 4", p.Levels())
	}

	// Same size reuses the chain, and the output is the pyramid's own
	// level zero.
	second := p.Render(src, cfg)
	if first != second {
		t.Error("same-size render should reuse level zero")
	}

	p.Render(src, backdrop.NewBlurConfig(backdrop.WithPasses(2)))
	if p.Levels() != 3 {
		t.Errorf("Levels() after fewer passes = %d, want 3", p.Levels())
	}

	p.Render(solidImage(32, 32, color.RGBA{A: 255}), cfg)
	if got := p.levels[0].Bounds(); got.Dx() != 32 || got.Dy() != 32 {
		t.Errorf("level zero = %dx%d after resize, want 32x32", got.Dx(), got.Dy())
	}
}

func TestBlurReturnsIndependentImages(t *testing.T) {
	src := solidImage(16, 16, color.RGBA{R: 90, G: 90, B: 90, A: 255})
	cfg := backdrop.DefaultBlurConfig()

	a := Blur(src, cfg)
	b := Blur(src, cfg)
	if a == b {
		t.Error("Blur should return a fresh image per call")
	}
}

func TestBlurLargeImageMatchesSmallBehavior(t *testing.T) {
	// 300 rows crosses the parallel-row threshold, so this covers the
	// worker-pool path. Uniformity must hold regardless of how rows
	// are banded.
	c := color.RGBA{R: 40, G: 140, B: 220, A: 255}
	out := Blur(solidImage(256, 300, c), backdrop.NewBlurConfig(backdrop.WithPasses(3)))

	for _, pt := range []image.Point{{0, 0}, {255, 0}, {128, 150}, {0, 299}, {255, 299}} {
		got := out.RGBAAt(pt.X, pt.Y)
		if absDiff(got.R, c.R) > 4 || absDiff(got.G, c.G) > 4 ||
			absDiff(got.B, c.B) > 4 || absDiff(got.A, c.A) > 4 {
			t.Errorf("pixel %v = %+v, want ~%+v", pt, got, c)
		}
	}
}

func TestBlurTinySources(t *testing.T) {
	cfg := backdrop.NewBlurConfig(backdrop.WithPasses(8))
	c := color.RGBA{R: 77, G: 33, B: 11, A: 255}

	for _, size := range []int{0, 1, 2, 3} {
		out := Blur(solidImage(size, size, c), cfg)
		if got := out.Bounds(); got.Dx() != size || got.Dy() != size {
			t.Fatalf("size %d: output %dx%d, want %dx%d", size, got.Dx(), got.Dy(), size, size)
		}
		if size == 0 {
			continue
		}
		got := out.RGBAAt(0, 0)
		if absDiff(got.R, c.R) > 4 || absDiff(got.A, c.A) > 4 {
			t.Errorf("size %d: pixel = %+v, want ~%+v", size, got, c)
		}
	}
}

func TestBlurSubImageSource(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	parent := solidImage(32, 32, color.RGBA{R: 255, A: 255})
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			parent.SetRGBA(x, y, blue)
		}
	}

	src := parent.SubImage(image.Rect(8, 8, 24, 24))
	out := Blur(src, backdrop.NewBlurConfig(backdrop.WithPasses(1), backdrop.WithOffset(0)))

	if got := out.Bounds(); got.Min != (image.Point{}) || got.Dx() != 16 || got.Dy() != 16 {
		t.Fatalf("output bounds = %v, want 16x16 at origin", got)
	}

	// The uniform blue region must come through without bleeding in
	// the surrounding red of the parent image.
	for _, pt := range []image.Point{{0, 0}, {15, 0}, {0, 15}, {15, 15}, {8, 8}} {
		got := out.RGBAAt(pt.X, pt.Y)
		if got.R > 4 || got.B < 250 {
			t.Errorf("pixel %v = %+v, want blue", pt, got)
		}
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		v, min, max, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		if got := clampInt(tt.v, tt.min, tt.max); got != tt.want {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestClampUint8(t *testing.T) {
	tests := []struct {
		v    float32
		want uint8
	}{
		{0, 0},
		{127.4, 127},
		{127.5, 128},
		{255, 255},
		{-10, 0},
		{300, 255},
	}

	for _, tt := range tests {
		if got := clampUint8(tt.v); got != tt.want {
			t.Errorf("clampUint8(%v) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func BenchmarkPyramidRender(b *testing.B) {
	sizes := []struct {
		name string
		w, h int
	}{
		{"256x256", 256, 256},
		{"1024x1024", 1024, 1024},
	}

	for _, size := range sizes {
		for _, passes := range []int{2, 4} {
			name := fmt.Sprintf("%s_p%d", size.name, passes)
			b.Run(name, func(b *testing.B) {
				src := solidImage(size.w, size.h, color.RGBA{R: 120, G: 80, B: 40, A: 255})
				cfg := backdrop.NewBlurConfig(backdrop.WithPasses(passes))
				var p Pyramid

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					p.Render(src, cfg)
				}
			})
		}
	}
}

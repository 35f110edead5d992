// Command backdropdemo renders the background-effect pipeline
// offscreen and writes the result to a PNG file. It opens a standalone
// Vulkan device when one is available and falls back to the CPU
// reference blur otherwise.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/backdrop"
	"github.com/gogpu/backdrop/render"
	"github.com/gogpu/backdrop/softblur"
)

func main() {
	var (
		width    = flag.Int("width", 800, "image width")
		height   = flag.Int("height", 600, "image height")
		output   = flag.String("output", "backdrop.png", "output file")
		passes   = flag.Int("passes", 3, "blur downsampling passes")
		offset   = flag.Float64("offset", 5, "blur sample offset in texels")
		noise    = flag.Float64("noise", 0, "film grain strength")
		radius   = flag.Float64("radius", 24, "window corner radius")
		software = flag.Bool("software", false, "render on the CPU without a GPU device")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		backdrop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := backdrop.NewBlurConfig(
		backdrop.WithPasses(*passes),
		backdrop.WithOffset(*offset),
		backdrop.WithNoise(*noise),
	)

	img, err := renderDemo(*width, *height, cfg, *radius, *software)
	if err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Demo saved to %s (%dx%d)\n", *output, *width, *height)
}

func renderDemo(w, h int, cfg backdrop.BlurConfig, radius float64, software bool) (*image.RGBA, error) {
	if !software {
		dev, err := render.OpenDevice()
		if err == nil {
			defer dev.Close()
			return renderGPU(dev, w, h, cfg, radius)
		}
		log.Printf("No GPU device (%v), falling back to software rendering", err)
	}
	return renderSoftware(w, h, cfg), nil
}

// renderGPU draws the scene into an offscreen target, blurs the window
// region through the regular per-frame dispatch, and reads the result
// back.
func renderGPU(dev *render.Device, w, h int, cfg backdrop.BlurConfig, radius float64) (*image.RGBA, error) {
	target, err := render.NewTarget(dev, w, h, 1)
	if err != nil {
		return nil, err
	}
	defer target.Release()

	blur := render.NewBlurElement()
	defer blur.Destroy()
	blur.SetBlurConfig(cfg)
	blur.Update(1, backdrop.CornerRadius{
		TopLeft: radius, TopRight: radius,
		BottomRight: radius, BottomLeft: radius,
	})

	f, err := dev.BeginFrame(target)
	if err != nil {
		return nil, err
	}
	f.Clear(backdrop.RGB(0, 0, 0))

	scene := buildScene(w, h)
	elements := make([]render.Element, 0, len(scene)+1)
	for _, s := range scene {
		elements = append(elements, render.NewSolidElement(s.geo, s.col))
	}

	win := windowRect(w, h)
	params := backdrop.Parameters{
		Geometry:       win,
		WindowGeometry: win,
		Zoom:           1,
		Scale:          1,
		Blur:           true,
		ClipToGeometry: true,
	}
	render.RenderBackgroundEffect(f, params, nil, blur, func(e render.Element) {
		elements = append(elements, e)
	})

	f.Render(elements)
	if err := f.End(); err != nil {
		return nil, err
	}
	return target.ReadImage()
}

// renderSoftware draws the same scene on the CPU and blurs the window
// region with the reference pyramid. Corner rounding and grain are GPU
// composite effects and are skipped here.
func renderSoftware(w, h int, cfg backdrop.BlurConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for _, s := range buildScene(w, h) {
		fillRect(img, s.geo, s.col)
	}

	win := windowRect(w, h)
	region := image.Rect(int(win.X), int(win.Y), int(win.X+win.W), int(win.Y+win.H))
	blurred := softblur.Blur(img.SubImage(region), cfg)
	draw.Draw(img, region, blurred, image.Point{}, draw.Src)
	return img
}

type sceneRect struct {
	geo backdrop.Rect
	col backdrop.Color
}

// buildScene returns the demo content: a vertical gradient approximated
// with horizontal bands, plus accent squares for the blur to smear.
func buildScene(w, h int) []sceneRect {
	fw, fh := float64(w), float64(h)
	var scene []sceneRect

	const bands = 32
	for i := 0; i < bands; i++ {
		t := float64(i) / bands
		scene = append(scene, sceneRect{
			geo: backdrop.NewRect(0, fh*t, fw, fh/bands+1),
			col: backdrop.RGB(0.06+0.04*t, 0.10+0.30*t, 0.25+0.20*t),
		})
	}

	side := fh * 0.25
	for i, col := range []backdrop.Color{
		backdrop.RGB(0.90, 0.25, 0.20),
		backdrop.RGB(0.15, 0.75, 0.35),
		backdrop.RGB(0.95, 0.75, 0.10),
	} {
		x := fw*0.15 + float64(i)*side*1.3
		scene = append(scene, sceneRect{
			geo: backdrop.NewRect(x, fh*0.18, side, side),
			col: col,
		})
	}
	return scene
}

// windowRect returns the region that gets the blurred-window treatment.
func windowRect(w, h int) backdrop.Rect {
	fw, fh := float64(w), float64(h)
	return backdrop.NewRect(fw*0.25, fh*0.32, fw*0.5, fh*0.5)
}

func fillRect(img *image.RGBA, geo backdrop.Rect, col backdrop.Color) {
	c := toRGBA(col)
	b := img.Bounds()
	x0 := max(int(geo.X), b.Min.X)
	y0 := max(int(geo.Y), b.Min.Y)
	x1 := min(int(geo.X+geo.W), b.Max.X)
	y1 := min(int(geo.Y+geo.H), b.Max.Y)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func toRGBA(c backdrop.Color) color.RGBA {
	return color.RGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

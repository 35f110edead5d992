package backdrop

// BlurConfig holds the parameters of the dual-filter blur.
//
// The zero value disables blurring entirely; use DefaultBlurConfig or
// NewBlurConfig to obtain a usable configuration.
//
// Example:
//
//	// Default blur
//	cfg := backdrop.DefaultBlurConfig()
//
//	// Stronger blur with film grain
//	cfg := backdrop.NewBlurConfig(
//	    backdrop.WithPasses(5),
//	    backdrop.WithNoise(0.02),
//	)
type BlurConfig struct {
	// Passes is the number of downsampling iterations. Each pass halves
	// the working resolution, so blur strength grows exponentially.
	// Values outside [1, 31] are clamped at render time.
	Passes int

	// Offset is the sample offset in texels applied at each pass.
	// Larger offsets widen the blur at the cost of visible artifacts.
	Offset float64

	// Noise is the strength of the film-grain dither applied on top of
	// the blurred image, in [0, 1]. Zero disables it.
	Noise float64

	// Saturation adjusts color saturation of the blurred image.
	// 1 leaves colors unchanged; values above 1 compensate for the
	// washed-out look of heavy blur.
	Saturation float64

	// Disabled turns the blur off while keeping the configuration
	// around, so toggling does not lose the tuned values.
	Disabled bool
}

// BlurOption configures a BlurConfig during creation.
type BlurOption func(*BlurConfig)

// DefaultBlurConfig returns the default blur configuration.
func DefaultBlurConfig() BlurConfig {
	return BlurConfig{
		Passes:     3,
		Offset:     5,
		Noise:      0,
		Saturation: 1.5,
	}
}

// NewBlurConfig creates a BlurConfig starting from the defaults.
func NewBlurConfig(opts ...BlurOption) BlurConfig {
	cfg := DefaultBlurConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPasses sets the number of downsampling iterations.
func WithPasses(n int) BlurOption {
	return func(c *BlurConfig) {
		c.Passes = n
	}
}

// WithOffset sets the per-pass sample offset in texels.
func WithOffset(o float64) BlurOption {
	return func(c *BlurConfig) {
		c.Offset = o
	}
}

// WithNoise sets the film-grain dither strength.
func WithNoise(n float64) BlurOption {
	return func(c *BlurConfig) {
		c.Noise = n
	}
}

// WithSaturation sets the saturation adjustment.
func WithSaturation(s float64) BlurOption {
	return func(c *BlurConfig) {
		c.Saturation = s
	}
}

// WithDisabled sets whether the blur is turned off.
func WithDisabled(disabled bool) BlurOption {
	return func(c *BlurConfig) {
		c.Disabled = disabled
	}
}

// maxBlurPasses bounds the downsampling chain. Each pass halves the
// resolution, so 31 passes exhausts any 32-bit texture dimension.
const maxBlurPasses = 31

// ClampedPasses returns Passes restricted to the supported [1, 31]
// range.
func (c BlurConfig) ClampedPasses() int {
	if c.Passes < 1 {
		return 1
	}
	if c.Passes > maxBlurPasses {
		return maxBlurPasses
	}
	return c.Passes
}

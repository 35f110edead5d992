package backdrop

// Parameters describes the background-effect configuration for a single
// surface. Layout code recomputes it every frame and passes it by value
// into the renderer; it carries no GPU state.
type Parameters struct {
	// Geometry is the effect region in local coordinates.
	Geometry Rect

	// WindowGeometry is the visible content region, used for corner
	// radius fitting and clipping. It may be smaller than Geometry
	// when the surface draws decorations outside its visible bounds.
	WindowGeometry Rect

	// PosInBackdrop locates the surface within the shared backdrop
	// coordinate space.
	PosInBackdrop Point

	// Zoom is the zoom factor between backdrop coordinates and
	// geometry.
	Zoom float64

	// CornerRadius rounds the corners of the effect region.
	CornerRadius CornerRadius

	// Scale is the output scale factor in device pixels per logical
	// unit.
	Scale float64

	// Xray requests the see-through effect sampling the shared
	// backdrop buffers.
	Xray bool

	// Blur requests blurring of the captured content.
	Blur bool

	// Noise optionally overrides the blur configuration's film-grain
	// strength. Nil means use the configured default.
	Noise *float64

	// Saturation optionally overrides the blur configuration's
	// saturation adjustment. Nil means use the configured default.
	Saturation *float64

	// ClipToGeometry clips the effect to WindowGeometry and applies
	// the corner radius. When false the effect covers all of Geometry
	// unclipped.
	ClipToGeometry bool
}

// Float64 returns a pointer to v, for the optional override fields.
func Float64(v float64) *float64 {
	return &v
}

// IsVisible reports whether the parameters request any observable
// effect. Callers must skip all GPU work when it returns false.
func (p Parameters) IsVisible() bool {
	return p.Xray ||
		p.Blur ||
		(p.Noise != nil && *p.Noise > 0) ||
		(p.Saturation != nil && *p.Saturation != 1)
}

// Normalized resolves the clipping flag: when ClipToGeometry is false,
// the window geometry is widened to the full effect region and the
// corner radius dropped, which effectively prevents any clipping.
func (p Parameters) Normalized() Parameters {
	if !p.ClipToGeometry {
		p.WindowGeometry = p.Geometry
		p.CornerRadius = CornerRadius{}
	}
	return p
}

package backdrop

import "sync"

// RegionKind describes what part of a surface requests blurring.
type RegionKind int

const (
	// RegionNone requests no blurring. This is the zero value.
	RegionNone RegionKind = iota

	// RegionWholeSurface blurs behind the entire surface.
	RegionWholeSurface

	// RegionRects blurs behind an explicit list of rectangles.
	RegionRects
)

// RegionOp is the set operation a rectangle applies to a region.
type RegionOp int

const (
	// RegionAdd includes the rectangle in the region.
	RegionAdd RegionOp = iota

	// RegionSubtract excludes the rectangle from the region.
	RegionSubtract
)

// RegionRect is one rectangle of an explicit blur region.
type RegionRect struct {
	Op   RegionOp
	Rect Rect
}

// Region is a per-surface blur region as declared by a client.
// The zero value requests no blurring.
type Region struct {
	Kind  RegionKind
	Rects []RegionRect
}

// RegionOf builds an explicit blur region from rectangles. An empty
// list means the whole surface, matching the convention of the KDE
// blur protocol.
func RegionOf(rects ...RegionRect) Region {
	if len(rects) == 0 {
		return Region{Kind: RegionWholeSurface}
	}
	return Region{Kind: RegionRects, Rects: rects}
}

// Resolve computes the blur geometry for a surface occupying
// surfaceGeo, in the same coordinate space as surfaceGeo. The second
// return value reports whether any blurring applies.
//
// For explicit regions, only the first added rectangle is honored,
// clamped to the surface bounds. Combining multiple rectangles is a
// known limitation.
func (r Region) Resolve(surfaceGeo Rect) (Rect, bool) {
	switch r.Kind {
	case RegionWholeSurface:
		return surfaceGeo, true
	case RegionRects:
		for _, rr := range r.Rects {
			if rr.Op != RegionAdd {
				continue
			}
			rect := rr.Rect.Intersect(NewRect(0, 0, surfaceGeo.W, surfaceGeo.H))
			if rect.IsEmpty() {
				return Rect{}, false
			}
			return rect.Offset(surfaceGeo.X, surfaceGeo.Y), true
		}
		return Rect{}, false
	default:
		return Rect{}, false
	}
}

// SurfaceBlurState tracks the double-buffered blur region of one
// surface. Protocol dispatch stages a pending region; Commit makes it
// current atomically with the surface's own commit, so a frame never
// observes a half-applied region.
//
// SurfaceBlurState is safe for concurrent use, since protocol requests
// may arrive from outside the render thread.
type SurfaceBlurState struct {
	mu      sync.Mutex
	pending Region
	current Region
}

// SetPending stages a region to be applied on the next Commit.
func (s *SurfaceBlurState) SetPending(r Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = r
}

// Unset stages the removal of the blur region.
func (s *SurfaceBlurState) Unset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = Region{}
}

// Commit applies the pending region. The pending value is retained, so
// repeated commits without intervening requests are idempotent.
func (s *SurfaceBlurState) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.pending
}

// Current returns the committed blur region.
func (s *SurfaceBlurState) Current() Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import "github.com/gogpu/backdrop"

// maxDamageRects is the threshold after which tracking collapses to a
// full redraw. When more than this many rects accumulate, it's more
// efficient to redraw everything.
const maxDamageRects = 16

// damageItem is the per-element state remembered between renders.
type damageItem struct {
	id     uint64
	commit uint64
	bounds backdrop.Rect
}

// DamageTracker diffs successive element lists rendered into one
// target and reports which regions changed.
//
// Elements are matched across frames by ID. An element whose commit
// counter or bounds changed damages both its old and new bounds; added
// and removed elements damage their bounds. The first comparison after
// creation reports the whole target as damaged.
type DamageTracker struct {
	width, height int
	scale         float64

	prev      []damageItem
	prevValid bool
}

// NewDamageTracker creates a tracker for a target of the given size in
// device pixels.
func NewDamageTracker(width, height int, scale float64) *DamageTracker {
	return &DamageTracker{width: width, height: height, scale: scale}
}

// Size returns the tracked target size in device pixels.
func (t *DamageTracker) Size() (width, height int) {
	return t.width, t.height
}

// Scale returns the scale factor the tracker was created with.
func (t *DamageTracker) Scale() float64 { return t.scale }

// Damage compares the element list against the previously rendered one
// and returns the changed regions, clipped to the target bounds. An
// empty result means nothing needs redrawing. The list is recorded as
// the new baseline.
func (t *DamageTracker) Damage(elements []Element) []backdrop.Rect {
	full := backdrop.NewRect(0, 0, float64(t.width), float64(t.height))

	curr := make([]damageItem, 0, len(elements))
	for _, e := range elements {
		curr = append(curr, damageItem{
			id:     e.ID(),
			commit: e.CommitCounter(),
			bounds: e.Geometry(),
		})
	}

	if !t.prevValid {
		t.prev = curr
		t.prevValid = true
		return []backdrop.Rect{full}
	}

	prevByID := make(map[uint64]damageItem, len(t.prev))
	for _, item := range t.prev {
		prevByID[item.id] = item
	}

	var damage []backdrop.Rect
	add := func(r backdrop.Rect) {
		r = r.Intersect(full)
		if !r.IsEmpty() {
			damage = append(damage, r)
		}
	}

	seen := make(map[uint64]bool, len(curr))
	for _, item := range curr {
		seen[item.id] = true
		old, ok := prevByID[item.id]
		switch {
		case !ok:
			add(item.bounds)
		case old.commit != item.commit || old.bounds != item.bounds:
			if old.bounds != item.bounds {
				add(old.bounds)
			}
			add(item.bounds)
		}
	}
	for _, old := range t.prev {
		if !seen[old.id] {
			add(old.bounds)
		}
	}

	t.prev = curr

	if len(damage) > maxDamageRects {
		return []backdrop.Rect{full}
	}
	return damage
}

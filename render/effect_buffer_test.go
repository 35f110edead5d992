// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"strings"
	"testing"

	"github.com/gogpu/backdrop"
)

// prepareBuffer runs one Prepare inside its own frame and returns the
// applied flag.
func prepareBuffer(t *testing.T, dev *Device, target *Target, b *EffectBuffer, wantBlur bool) bool {
	t.Helper()
	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	applied, err := b.Prepare(f, wantBlur)
	if err != nil {
		f.Abort()
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return applied
}

func TestEffectBufferRequiresSize(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	defer f.Abort()

	if _, err := b.Prepare(f, false); err == nil {
		t.Error("expected Prepare to fail without a size")
	}
}

func TestEffectBufferFirstRender(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)
	b.Elements().Push(NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.White))

	if applied := prepareBuffer(t, dev, target, b, false); applied {
		t.Error("applied should be false when blur is not wanted")
	}
	if b.CommitCounter() != 1 {
		t.Errorf("commit after first render = %d, want 1", b.CommitCounter())
	}

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	tex, err := b.Render(f, false)
	if err != nil {
		f.Abort()
		t.Fatalf("Render failed: %v", err)
	}
	if tex.Width() != 64 || tex.Height() != 64 {
		t.Errorf("texture size = %dx%d, want 64x64", tex.Width(), tex.Height())
	}
	if !tex.Unique() {
		t.Error("returned texture should be borrowed, not retained")
	}
	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

func TestEffectBufferLogicalSize(t *testing.T) {
	b := NewEffectBuffer()
	b.SetSize(128, 64, 2)

	if got := b.LogicalSize(); got.W != 64 || got.H != 32 {
		t.Errorf("LogicalSize() = %v, want 64x32", got)
	}
	if w, h := b.Size(); w != 128 || h != 64 {
		t.Errorf("Size() = %dx%d, want 128x64", w, h)
	}
}

func TestEffectBufferSkipsUnchangedContent(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)

	el := NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.White)
	b.Elements().Push(el)
	prepareBuffer(t, dev, target, b, false)

	// Same elements again: no damage, no commit bump.
	b.Elements().Push(el)
	prepareBuffer(t, dev, target, b, false)
	if b.CommitCounter() != 1 {
		t.Errorf("commit after unchanged render = %d, want 1", b.CommitCounter())
	}

	// Not touching Elements keeps the contents entirely.
	prepareBuffer(t, dev, target, b, false)
	if b.CommitCounter() != 1 {
		t.Errorf("commit after untouched prepare = %d, want 1", b.CommitCounter())
	}

	// A content change damages.
	el.SetColor(backdrop.Black)
	b.Elements().Push(el)
	prepareBuffer(t, dev, target, b, false)
	if b.CommitCounter() != 2 {
		t.Errorf("commit after content change = %d, want 2", b.CommitCounter())
	}

	// Clearing the content is a change too.
	b.Elements()
	prepareBuffer(t, dev, target, b, false)
	if b.CommitCounter() != 3 {
		t.Errorf("commit after clearing = %d, want 3", b.CommitCounter())
	}
}

func TestEffectBufferAppliedFlag(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)

	if applied := prepareBuffer(t, dev, target, b, true); !applied {
		t.Error("applied should be true when blur is wanted and enabled")
	}

	cfg := b.BlurConfig()
	cfg.Disabled = true
	b.SetBlurConfig(cfg)
	if applied := prepareBuffer(t, dev, target, b, true); applied {
		t.Error("applied should be false when blur is disabled")
	}
}

func TestEffectBufferBlurCaching(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)
	el := NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.White)
	b.Elements().Push(el)

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if _, err := b.Prepare(f, true); err != nil {
		f.Abort()
		t.Fatalf("Prepare failed: %v", err)
	}
	first, err := b.Render(f, true)
	if err != nil {
		f.Abort()
		t.Fatalf("Render failed: %v", err)
	}
	second, err := b.Render(f, true)
	if err != nil {
		f.Abort()
		t.Fatalf("second Render failed: %v", err)
	}
	if first != second {
		t.Error("expected the cached blurred texture on the second Render")
	}
	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	// A content change drops the cache; the next Render fills it again.
	el.SetColor(backdrop.Black)
	b.Elements().Push(el)
	prepareBuffer(t, dev, target, b, true)
	if b.offscreen.blurred != nil {
		t.Error("content change should drop the cached blurred texture")
	}
}

func TestEffectBufferSetBlurConfigInvalidation(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()

	// Without a cached result a config change is not damage.
	cfg := b.BlurConfig()
	cfg.Passes = 4
	b.SetBlurConfig(cfg)
	if b.CommitCounter() != 0 {
		t.Errorf("commit = %d, want 0 without a cached result", b.CommitCounter())
	}

	// Build up a cached blurred texture.
	b.SetSize(64, 64, 1)
	b.Elements().Push(NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.White))
	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if _, err := b.Prepare(f, true); err != nil {
		f.Abort()
		t.Fatalf("Prepare failed: %v", err)
	}
	if _, err := b.Render(f, true); err != nil {
		f.Abort()
		t.Fatalf("Render failed: %v", err)
	}
	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
	commit := b.CommitCounter()

	// Setting the same config is a no-op.
	b.SetBlurConfig(cfg)
	if b.CommitCounter() != commit {
		t.Error("unchanged config should not damage")
	}

	// A different config drops the cache and damages.
	cfg.Offset = 10
	b.SetBlurConfig(cfg)
	if b.CommitCounter() != commit+1 {
		t.Errorf("commit = %d, want %d after config change", b.CommitCounter(), commit+1)
	}
	if b.offscreen.blurred != nil {
		t.Error("cached blurred texture should be dropped on config change")
	}
}

func TestEffectBufferRecreatesOnResize(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)
	b.Elements().Push(NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.White))
	prepareBuffer(t, dev, target, b, false)

	old := b.offscreen.texture
	commit := b.CommitCounter()

	// Resizing recreates the texture. Without new contents nothing is
	// rendered into it, so the buffer does not claim damage yet.
	b.SetSize(128, 32, 1)
	prepareBuffer(t, dev, target, b, false)

	if b.offscreen.texture == old {
		t.Error("expected a new texture after resize")
	}
	if w, h := b.offscreen.texture.Width(), b.offscreen.texture.Height(); w != 128 || h != 32 {
		t.Errorf("texture size = %dx%d, want 128x32", w, h)
	}
	if b.CommitCounter() != commit {
		t.Errorf("commit = %d, want unchanged %d after bare resize", b.CommitCounter(), commit)
	}

	// The fresh damage tracker reports full damage on the next content
	// render.
	b.Elements().Push(NewSolidElement(backdrop.NewRect(0, 0, 32, 32), backdrop.Black))
	prepareBuffer(t, dev, target, b, false)
	if b.CommitCounter() != commit+1 {
		t.Errorf("commit = %d, want %d after re-render", b.CommitCounter(), commit+1)
	}
}

func TestEffectBufferRecreatesWhenRetained(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)
	prepareBuffer(t, dev, target, b, false)

	// Simulate an external consumer holding on to the texture.
	kept := b.offscreen.texture.Retain()

	prepareBuffer(t, dev, target, b, false)
	if b.offscreen.texture == kept {
		t.Error("expected a new texture while the old one is retained")
	}
	kept.Release()

	// Unique again: no further recreation.
	tex := b.offscreen.texture
	prepareBuffer(t, dev, target, b, false)
	if b.offscreen.texture != tex {
		t.Error("expected the texture to be reused once unique")
	}
}

func TestEffectBufferScaleChange(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()
	b.SetSize(64, 64, 1)
	prepareBuffer(t, dev, target, b, false)

	tex := b.offscreen.texture
	commit := b.CommitCounter()

	// Same pixel size, new scale: the texture survives but the content
	// meaning changed, so the buffer damages.
	b.SetSize(64, 64, 2)
	prepareBuffer(t, dev, target, b, false)

	if b.offscreen.texture != tex {
		t.Error("scale change should not recreate the texture")
	}
	if b.CommitCounter() != commit+1 {
		t.Errorf("commit = %d, want %d after scale change", b.CommitCounter(), commit+1)
	}
	if b.offscreen.damage.Scale() != 2 {
		t.Errorf("damage tracker scale = %v, want 2", b.offscreen.damage.Scale())
	}
	if got := b.LogicalSize(); got.W != 32 || got.H != 32 {
		t.Errorf("LogicalSize() = %v, want 32x32", got)
	}
}

func TestEffectBufferRenderErrors(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	defer b.Destroy()

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	defer f.Abort()

	if _, err := b.Render(f, false); err == nil || !strings.Contains(err.Error(), "offscreen is missing") {
		t.Errorf("Render before Prepare: err = %v, want offscreen is missing", err)
	}

	b.SetSize(64, 64, 1)
	if _, err := b.Prepare(f, false); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if _, err := b.Render(f, true); err == nil || !strings.Contains(err.Error(), "blur is missing") {
		t.Errorf("blurred Render without blur Prepare: err = %v, want blur is missing", err)
	}
}

func TestEffectBufferIDsAreUnique(t *testing.T) {
	a := NewEffectBuffer()
	b := NewEffectBuffer()
	if a.ID() == b.ID() {
		t.Errorf("expected distinct buffer IDs, both are %d", a.ID())
	}
}

func TestEffectBufferDestroyIdempotent(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	b := NewEffectBuffer()
	b.SetSize(64, 64, 1)
	prepareBuffer(t, dev, target, b, true)

	b.Destroy()
	b.Destroy()

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	defer f.Abort()
	if _, err := b.Render(f, false); err == nil {
		t.Error("expected Render to fail after Destroy")
	}
}

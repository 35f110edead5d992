// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package render

import (
	"testing"

	"github.com/gogpu/backdrop"
)

func TestNewElementIDUnique(t *testing.T) {
	a := NewElementID()
	b := NewElementID()
	if a == b {
		t.Errorf("expected distinct element IDs, both are %d", a)
	}
}

func TestSolidElementCommit(t *testing.T) {
	e := NewSolidElement(backdrop.NewRect(0, 0, 10, 10), backdrop.Black)

	if e.CommitCounter() != 0 {
		t.Errorf("fresh element commit = %d, want 0", e.CommitCounter())
	}
	if e.IsFramebufferEffect() {
		t.Error("solid element should not be a framebuffer effect")
	}

	// Setting the same values must not damage the element.
	e.SetGeometry(backdrop.NewRect(0, 0, 10, 10))
	e.SetColor(backdrop.Black)
	if e.CommitCounter() != 0 {
		t.Errorf("no-op setters bumped commit to %d", e.CommitCounter())
	}

	e.SetGeometry(backdrop.NewRect(5, 5, 10, 10))
	if e.CommitCounter() != 1 {
		t.Errorf("commit after move = %d, want 1", e.CommitCounter())
	}
	if e.Geometry() != backdrop.NewRect(5, 5, 10, 10) {
		t.Errorf("Geometry() = %v after move", e.Geometry())
	}

	e.SetColor(backdrop.White)
	if e.CommitCounter() != 2 {
		t.Errorf("commit after recolor = %d, want 2", e.CommitCounter())
	}
}

func TestTextureElementCommit(t *testing.T) {
	dev := createNoopDevice(t)
	target, err := NewTarget(dev, 32, 32, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	e := NewTextureElement(target, backdrop.NewRect(0, 0, 32, 32))

	if e.Geometry() != backdrop.NewRect(0, 0, 32, 32) {
		t.Errorf("Geometry() = %v", e.Geometry())
	}

	before := e.CommitCounter()
	e.SetSrc(backdrop.NewRect(0, 0, 16, 16))
	e.SetAlpha(0.5)
	e.MarkChanged()
	if got := e.CommitCounter(); got != before+3 {
		t.Errorf("commit = %d, want %d", got, before+3)
	}

	// Unchanged values are no-ops.
	e.SetSrc(backdrop.NewRect(0, 0, 16, 16))
	e.SetAlpha(0.5)
	e.SetGeometry(backdrop.NewRect(0, 0, 32, 32))
	if got := e.CommitCounter(); got != before+3 {
		t.Errorf("no-op setters bumped commit to %d", got)
	}
}

func TestElementDrawEncodes(t *testing.T) {
	dev := createNoopDevice(t)

	target, err := NewTarget(dev, 64, 64, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	src, err := NewTarget(dev, 16, 16, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer src.Release()

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}

	f.Clear(backdrop.Transparent)
	f.Render([]Element{
		NewSolidElement(backdrop.NewRect(0, 0, 64, 64), backdrop.RGB(0.2, 0.2, 0.2)),
		NewTextureElement(src, backdrop.NewRect(10, 10, 32, 32)),
	})

	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package render

import (
	"testing"

	"github.com/gogpu/backdrop"
)

func TestNewTarget(t *testing.T) {
	dev := createNoopDevice(t)

	tests := []struct {
		name   string
		width  int
		height int
		scale  float64
	}{
		{"small", 100, 100, 1},
		{"medium", 800, 600, 1},
		{"hidpi", 1920, 1080, 2},
		{"fractional", 1280, 720, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := NewTarget(dev, tt.width, tt.height, tt.scale)
			if err != nil {
				t.Fatalf("NewTarget failed: %v", err)
			}
			defer target.Release()

			if target.Width() != tt.width {
				t.Errorf("Width() = %d, want %d", target.Width(), tt.width)
			}
			if target.Height() != tt.height {
				t.Errorf("Height() = %d, want %d", target.Height(), tt.height)
			}
			if target.Scale() != tt.scale {
				t.Errorf("Scale() = %v, want %v", target.Scale(), tt.scale)
			}
			want := backdrop.NewRect(0, 0, float64(tt.width), float64(tt.height))
			if target.Bounds() != want {
				t.Errorf("Bounds() = %v, want %v", target.Bounds(), want)
			}
		})
	}
}

func TestTargetReadImage(t *testing.T) {
	dev := createNoopDevice(t)

	target, err := NewTarget(dev, 64, 48, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	img, err := target.ReadImage()
	if err != nil {
		t.Fatalf("ReadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("image bounds = %v, want 64x48", img.Bounds())
	}
	if len(img.Pix) != 64*48*4 {
		t.Errorf("len(Pix) = %d, want %d", len(img.Pix), 64*48*4)
	}
}

func TestTargetFrameRoundTrip(t *testing.T) {
	dev := createNoopDevice(t)

	target, err := NewTarget(dev, 128, 128, 1)
	if err != nil {
		t.Fatalf("NewTarget failed: %v", err)
	}
	defer target.Release()

	f, err := dev.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if f.Target() != target {
		t.Error("Target() should return the frame's target")
	}
	if f.Scale() != 1 {
		t.Errorf("Scale() = %v, want 1", f.Scale())
	}

	f.Clear(backdrop.Black)
	if err := f.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package render

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/backdrop/internal/gpu"
)

// DeviceHandle provides GPU device access from a host application.
//
// The effect pipeline normally RECEIVES a device from the compositor
// rather than creating its own, so textures and pipelines share one GPU
// context with the rest of the stack. DeviceHandle is an alias for
// gpucontext.DeviceProvider, keeping full compatibility with the
// gpucontext ecosystem; hosts that already expose a provider pass it to
// NewDevice directly.
//
// For standalone use (tools, tests, the demo binary), OpenDevice
// creates an owned Vulkan device instead.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Useful as a placeholder where no GPU is available. NewDevice rejects
// it, since it exposes no HAL types.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// Device owns the GPU context the effect pipeline renders with.
//
// A Device either borrows its HAL device from a host application
// (NewDevice, NewDeviceFromHAL) or owns a standalone one (OpenDevice).
// Close releases the context and, for owned devices, destroys the
// underlying HAL device and instance.
type Device struct {
	instance hal.Instance // non-nil only for standalone devices
	device   hal.Device
	queue    hal.Queue
	ctx      *gpu.Context

	externalDevice bool // true when using a shared device (don't destroy on Close)
}

// NewDevice wraps a GPU device shared by a host application. The handle
// must also implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue, which gogpu device providers do.
func NewDevice(handle DeviceHandle) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := handle.(halProvider)
	if !ok {
		return nil, fmt.Errorf("render: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("render: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("render: provider HalQueue is not hal.Queue")
	}

	return &Device{
		device:         device,
		queue:          queue,
		ctx:            gpu.NewContext(device, queue),
		externalDevice: true,
	}, nil
}

// NewDeviceFromHAL wraps raw HAL handles without taking ownership.
func NewDeviceFromHAL(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:         device,
		queue:          queue,
		ctx:            gpu.NewContext(device, queue),
		externalDevice: true,
	}
}

// OpenDevice creates a standalone Vulkan device for offscreen
// rendering. This is the fallback path when no host application
// provides a shared device.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("render: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("render: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("render: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("render: open device: %w", err)
	}

	slogger().Info("GPU device opened (standalone)", "adapter", selected.Info.Name)
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		ctx:      gpu.NewContext(openDev.Device, openDev.Queue),
	}, nil
}

// Close releases the GPU context and, for standalone devices, the
// underlying HAL device and instance.
func (d *Device) Close() {
	if d.ctx != nil {
		d.ctx.Destroy()
		d.ctx = nil
	}
	if !d.externalDevice {
		if d.device != nil {
			d.device.Destroy()
			d.device = nil
		}
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	} else {
		// Don't destroy shared resources -- we don't own them.
		d.device = nil
		d.instance = nil
	}
	d.queue = nil
}

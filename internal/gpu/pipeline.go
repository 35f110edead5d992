//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources for the effect pipelines.

//go:embed shaders/blur_down.wgsl
var blurDownSource string

//go:embed shaders/blur_up.wgsl
var blurUpSource string

//go:embed shaders/composite.wgsl
var compositeSource string

// Pipelines holds the compiled render pipelines shared by every effect
// on a context: the two dual-filter blur passes and the composite pass.
//
// All three pipelines use the same bind group shape: one uniform buffer
// at binding 0, the source texture at binding 1, and a linear
// clamp-to-edge sampler at binding 2. The blur pipelines write without
// blending since each pass fully replaces its destination level, while
// the composite pipeline blends premultiplied over the target.
type Pipelines struct {
	downModule      hal.ShaderModule
	upModule        hal.ShaderModule
	compositeModule hal.ShaderModule

	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	sampler        hal.Sampler

	down      hal.RenderPipeline
	up        hal.RenderPipeline
	composite hal.RenderPipeline
}

// newPipelines compiles the shaders and creates the blur and composite
// pipelines on the given device.
func newPipelines(device hal.Device) (p *Pipelines, err error) { //nolint:funlen // GPU pipeline descriptors are inherently verbose
	p = &Pipelines{}
	defer func() {
		if err != nil {
			p.Destroy(device)
		}
	}()

	// Compile shaders.
	if p.downModule, err = compileShader(device, "blur_down_shader", blurDownSource); err != nil {
		return nil, err
	}
	if p.upModule, err = compileShader(device, "blur_up_shader", blurUpSource); err != nil {
		return nil, err
	}
	if p.compositeModule, err = compileShader(device, "composite_shader", compositeSource); err != nil {
		return nil, err
	}

	// One bind group layout serves all three pipelines: uniforms,
	// source texture, sampler.
	p.bindLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "effect_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type: gputypes.BufferBindingTypeUniform,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group layout: %w", err)
	}

	p.pipelineLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "effect_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	// Linear filtering is what makes the dual-filter kernels work: the
	// half pixel offsets deliberately land between texels.
	p.sampler, err = device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "effect_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	makePipeline := func(label string, module hal.ShaderModule, blend *gputypes.BlendState) (hal.RenderPipeline, error) {
		return device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  label,
			Layout: p.pipelineLayout,
			Vertex: hal.VertexState{
				Module:     module,
				EntryPoint: "vs_main",
			},
			Fragment: &hal.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets: []gputypes.ColorTargetState{{
					Format:    textureFormat,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				}},
			},
			Primitive: gputypes.PrimitiveState{
				Topology: gputypes.PrimitiveTopologyTriangleList,
				CullMode: gputypes.CullModeNone,
			},
			Multisample: gputypes.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
	}

	if p.down, err = makePipeline("blur_down_pipeline", p.downModule, nil); err != nil {
		return nil, fmt.Errorf("create blur down pipeline: %w", err)
	}
	if p.up, err = makePipeline("blur_up_pipeline", p.upModule, nil); err != nil {
		return nil, fmt.Errorf("create blur up pipeline: %w", err)
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	if p.composite, err = makePipeline("composite_pipeline", p.compositeModule, &premulBlend); err != nil {
		return nil, fmt.Errorf("create composite pipeline: %w", err)
	}

	return p, nil
}

// Destroy releases all pipeline resources in reverse creation order.
// Safe to call on a partially constructed value.
func (p *Pipelines) Destroy(device hal.Device) {
	if p.composite != nil {
		device.DestroyRenderPipeline(p.composite)
		p.composite = nil
	}
	if p.up != nil {
		device.DestroyRenderPipeline(p.up)
		p.up = nil
	}
	if p.down != nil {
		device.DestroyRenderPipeline(p.down)
		p.down = nil
	}
	if p.sampler != nil {
		device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipelineLayout != nil {
		device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.compositeModule != nil {
		device.DestroyShaderModule(p.compositeModule)
		p.compositeModule = nil
	}
	if p.upModule != nil {
		device.DestroyShaderModule(p.upModule)
		p.upModule = nil
	}
	if p.downModule != nil {
		device.DestroyShaderModule(p.downModule)
		p.downModule = nil
	}
}

//go:build !nogpu

package gpu

import (
	"github.com/gogpu/backdrop"
)

// blurUniformSize is the byte size of the blur pass uniform buffer.
// Layout: half_pixel (vec2<f32>) + offset (f32) + padding (f32) = 16 bytes.
const blurUniformSize = 16

// blurUniforms matches BlurUniforms in blur_down.wgsl and blur_up.wgsl.
type blurUniforms struct {
	HalfPixel [2]float32
	Offset    float32
	_         float32
}

// compositeUniformSize is the byte size of the composite uniform buffer.
// Layout: five vec4<f32> + two vec2<f32> + four f32 + mat3x3<f32> = 160 bytes.
const compositeUniformSize = 160

// compositeUniforms matches Uniforms in composite.wgsl. Field order and
// padding must stay in sync with the shader struct.
type compositeUniforms struct {
	DstRect      [4]float32
	SrcRect      [4]float32
	MultColor    [4]float32
	BgColor      [4]float32
	CornerRadius [4]float32
	GeoSize      [2]float32
	TargetSize   [2]float32
	Scale        float32
	Noise        float32
	Saturation   float32
	Alpha        float32
	InputToGeo   [12]float32
}

// packMat3x3 converts an affine matrix to the WGSL mat3x3<f32> uniform
// layout: three column vectors, each padded to 16 bytes.
func packMat3x3(m backdrop.Matrix) [12]float32 {
	return [12]float32{
		float32(m.A), float32(m.D), 0, 0,
		float32(m.B), float32(m.E), 0, 0,
		float32(m.C), float32(m.F), 1, 0,
	}
}

// colorToVec4 converts a straight-alpha color to the premultiplied
// vec4<f32> form the composite shader works in.
func colorToVec4(c backdrop.Color) [4]float32 {
	p := c.Premultiply()
	return [4]float32{float32(p.R), float32(p.G), float32(p.B), float32(p.A)}
}

// rectToVec4 packs a rectangle as (x, y, w, h).
func rectToVec4(r backdrop.Rect) [4]float32 {
	return [4]float32{float32(r.X), float32(r.Y), float32(r.W), float32(r.H)}
}

// normalizeRect converts a rectangle in texture pixels to texture
// coordinates in the 0..1 range.
func normalizeRect(r backdrop.Rect, texWidth, texHeight int) [4]float32 {
	w := float64(texWidth)
	h := float64(texHeight)
	return [4]float32{
		float32(r.X / w),
		float32(r.Y / h),
		float32(r.W / w),
		float32(r.H / h),
	}
}

// cornerRadiusToVec4 packs the per-corner radii as
// (top-left, top-right, bottom-right, bottom-left).
func cornerRadiusToVec4(r backdrop.CornerRadius) [4]float32 {
	return [4]float32{
		float32(r.TopLeft),
		float32(r.TopRight),
		float32(r.BottomRight),
		float32(r.BottomLeft),
	}
}

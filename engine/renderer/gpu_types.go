package renderer

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/cogentcore/webgpu/wgpu"
)

// SpriteShaderSource is the WGSL program used for every mesh: a viewport uniform in group 0,
// the mesh texture and sampler in group 1.
//
//go:embed assets/sprite.wgsl
var SpriteShaderSource string

// GPUViewport is the uniform that maps pixel coordinates to clip space.
// Matches the WGSL Viewport struct layout exactly (16 bytes).
type GPUViewport struct {
	Extent [2]float32 // offset 0: draw list width and height in pixels
	_      [2]float32 // offset 8: padding to 16 bytes
}

// Size returns the size of the GPUViewport struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUViewport) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the viewport for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUViewport) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(g)...)
}

// vertexStride is the byte size of one drawlist.Vertex on the GPU: position, uv, unorm8x4 color.
const vertexStride = 20

// drawlist.Vertex is uploaded as-is, so its memory layout must be the GPU layout.
var _ [vertexStride]byte = [unsafe.Sizeof(drawlist.Vertex{})]byte{}

// spriteVertexLayout describes the packed vertex format written by appendVertices.
func spriteVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: vertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			{Format: wgpu.VertexFormatUnorm8x4, Offset: 16, ShaderLocation: 2},
		},
	}
}

// appendVertices packs vertices onto dst in the spriteVertexLayout format.
//
// Parameters:
//   - dst: the buffer to grow
//   - vs: the vertices to pack
//
// Returns:
//   - []byte: dst with len(vs)*vertexStride bytes appended
func appendVertices(dst []byte, vs []drawlist.Vertex) []byte {
	return append(dst, common.SliceToBytes(vs)...)
}

// appendIndices packs uint32 indices onto dst.
func appendIndices(dst []byte, is []uint32) []byte {
	return append(dst, common.SliceToBytes(is)...)
}

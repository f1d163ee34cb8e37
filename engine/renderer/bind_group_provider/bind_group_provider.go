package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources owned by this provider. They are populated by the Renderer.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup *wgpu.BindGroup
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// texture is the GPU texture behind textureView, or nil for buffer-only providers.
	texture     *wgpu.Texture
	textureView *wgpu.TextureView
	sampler     *wgpu.Sampler

	// The following fields are used by the frame geometry provider, whose buffers are rewritten every frame and grown on demand.

	vertexBuffer   *wgpu.Buffer
	vertexCapacity uint64
	indexBuffer    *wgpu.Buffer
	indexCapacity  uint64
}

// BindGroupProvider groups the GPU resources bound together for a draw: a bind group plus the
// buffers, texture and sampler it references. The Renderer keeps one provider for the viewport
// uniform, one for the streamed frame geometry and one per texture.
type BindGroupProvider interface {
	// Release releases every GPU resource held by this provider. Calling it twice is safe.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// SetBindGroup sets the bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the new bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the buffer at the given binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores a buffer at the given binding, releasing any buffer already there.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// TextureView returns the sampled texture view, or nil.
	TextureView() *wgpu.TextureView

	// SetTexture stores a texture and its view, releasing the previous pair.
	//
	// Parameters:
	//   - tex: the texture
	//   - view: a view of tex
	SetTexture(tex *wgpu.Texture, view *wgpu.TextureView)

	// Sampler returns the sampler, or nil.
	Sampler() *wgpu.Sampler

	// SetSampler stores the sampler, releasing the previous one.
	SetSampler(s *wgpu.Sampler)

	// VertexBuffer returns the vertex buffer and its size in bytes.
	VertexBuffer() (*wgpu.Buffer, uint64)

	// SetVertexBuffer replaces the vertex buffer.
	//
	// Parameters:
	//   - buf: the new buffer
	//   - capacity: its size in bytes
	SetVertexBuffer(buf *wgpu.Buffer, capacity uint64)

	// IndexBuffer returns the index buffer and its size in bytes.
	IndexBuffer() (*wgpu.Buffer, uint64)

	// SetIndexBuffer replaces the index buffer.
	//
	// Parameters:
	//   - buf: the new buffer
	//   - capacity: its size in bytes
	SetIndexBuffer(buf *wgpu.Buffer, capacity uint64)
}

var _ BindGroupProvider = &bindGroupProvider{}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for binding, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	if p.textureView != nil {
		p.textureView.Release()
		p.textureView = nil
	}
	if p.texture != nil {
		p.texture.Release()
		p.texture = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	p.SetVertexBuffer(nil, 0)
	p.SetIndexBuffer(nil, 0)
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) TextureView() *wgpu.TextureView {
	return p.textureView
}

func (p *bindGroupProvider) SetTexture(tex *wgpu.Texture, view *wgpu.TextureView) {
	if p.textureView != nil && p.textureView != view {
		p.textureView.Release()
	}
	if p.texture != nil && p.texture != tex {
		p.texture.Release()
	}
	p.texture, p.textureView = tex, view
}

func (p *bindGroupProvider) Sampler() *wgpu.Sampler {
	return p.sampler
}

func (p *bindGroupProvider) SetSampler(s *wgpu.Sampler) {
	if p.sampler != nil && p.sampler != s {
		p.sampler.Release()
	}
	p.sampler = s
}

func (p *bindGroupProvider) VertexBuffer() (*wgpu.Buffer, uint64) {
	return p.vertexBuffer, p.vertexCapacity
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, capacity uint64) {
	if p.vertexBuffer != nil && p.vertexBuffer != buf {
		p.vertexBuffer.Release()
	}
	p.vertexBuffer, p.vertexCapacity = buf, capacity
}

func (p *bindGroupProvider) IndexBuffer() (*wgpu.Buffer, uint64) {
	return p.indexBuffer, p.indexCapacity
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer, capacity uint64) {
	if p.indexBuffer != nil && p.indexBuffer != buf {
		p.indexBuffer.Release()
	}
	p.indexBuffer, p.indexCapacity = buf, capacity
}

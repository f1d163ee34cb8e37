package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderKeepsLabel(t *testing.T) {
	p := NewBindGroupProvider("hero.png")
	assert.Equal(t, "hero.png", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView())
	assert.Nil(t, p.Sampler())
}

func TestOptionsAttachResources(t *testing.T) {
	p := NewBindGroupProvider("Viewport", WithBuffer(0, nil), WithSampler(nil))
	impl := p.(*bindGroupProvider)
	_, ok := impl.buffers[0]
	assert.True(t, ok)
}

func TestStreamedBufferCapacity(t *testing.T) {
	p := NewBindGroupProvider("Frame Geometry")
	p.SetVertexBuffer(nil, 4096)
	p.SetIndexBuffer(nil, 1024)

	_, vcap := p.VertexBuffer()
	_, icap := p.IndexBuffer()
	assert.Equal(t, uint64(4096), vcap)
	assert.Equal(t, uint64(1024), icap)

	p.Release()
	_, vcap = p.VertexBuffer()
	_, icap = p.IndexBuffer()
	assert.Zero(t, vcap)
	assert.Zero(t, icap)
}

func TestReleaseTwice(t *testing.T) {
	p := NewBindGroupProvider("empty")
	assert.NotPanics(t, func() {
		p.Release()
		p.Release()
	})
}

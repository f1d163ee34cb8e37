package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer sets a buffer for a specific binding index. The provider takes ownership of it.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf *wgpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithSampler sets the sampler for this provider. The provider takes ownership of it.
//
// Parameters:
//   - s: the sampler
//
// Returns:
//   - BindGroupProviderOption: a function that sets the sampler
func WithSampler(s *wgpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.sampler = s
	}
}

// NewBindGroupProvider creates an empty provider. GPU resources are attached by the Renderer.
//
// Parameters:
//   - label: the debug label used for every resource created for this provider
//   - options: functional options applied in order
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

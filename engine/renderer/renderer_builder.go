package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, MSAA is off.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff or MSAA4x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithLogger sets the logger used for surface events.
func WithLogger(logger logging.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = logger
	}
}

// NewRenderer creates the WebGPU device for a window surface, configures the surface and
// registers the sprite pipeline. The calling goroutine is locked to its OS thread and must be
// the one that renders.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: functional options applied in order
//
// Returns:
//   - Renderer: the ready renderer
//   - error: an error if the adapter, device, surface or pipeline could not be created
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: BackendTypeWGPU,
	}
	for _, opt := range options {
		opt(r)
	}
	r.logger = logging.OrNoOp(r.logger)

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}
	if msaa != MSAAOff && msaa != MSAA4x {
		return nil, fmt.Errorf("unsupported msaa sample count %d", msaa)
	}

	backend, err := newWGPURendererBackend(surfaceDescriptor, r.forceFallbackAdapter, msaa)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	// ConfigureSurface resolves the surface format the pipeline targets, so it needs a size
	// even when the window starts minimized.
	r.width, r.height = max(width, 1), max(height, 1)
	if err := r.backend.ConfigureSurface(r.width, r.height); err != nil {
		r.backend.Release()
		return nil, err
	}
	r.width, r.height = width, height
	if err := r.backend.RegisterSpritePipeline(); err != nil {
		r.backend.Release()
		return nil, err
	}

	r.viewport = bind_group_provider.NewBindGroupProvider("Viewport")
	if err := r.backend.InitViewport(r.viewport); err != nil {
		r.viewport.Release()
		r.backend.Release()
		return nil, fmt.Errorf("failed to create viewport uniform: %w", err)
	}
	r.geometry = bind_group_provider.NewBindGroupProvider("Frame Geometry")

	white, err := r.createTexture(common.TextureStagingData{
		Label:  "White",
		Pixels: []byte{255, 255, 255, 255},
		Width:  1,
		Height: 1,
	})
	if err != nil {
		r.viewport.Release()
		r.backend.Release()
		return nil, err
	}
	r.white = white

	r.logger.Info("renderer ready", "width", width, "height", height, "msaa", uint32(msaa))
	return r, nil
}

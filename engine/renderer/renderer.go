package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer/bind_group_provider"
)

// ErrForeignTexture is returned by Render when a mesh carries a texture another renderer created.
var ErrForeignTexture = errors.New("texture was not created by this renderer")

// ErrReleased is returned after Release.
var ErrReleased = errors.New("renderer released")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	logger      logging.Logger

	width, height int

	viewport bind_group_provider.BindGroupProvider
	geometry bind_group_provider.BindGroupProvider
	white    *texture

	// Per-frame staging, reused across frames
	vertexBytes []byte
	indexBytes  []byte
	batches     []batch

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount

	released bool
}

// batch is one DrawBatch call: a run of indices drawn with a single texture.
type batch struct {
	texture    *texture
	firstIndex uint32
	indexCount uint32
	baseVertex int32
}

// Renderer draws drawlist frames to a window surface through WebGPU. Every mesh goes through one
// textured pipeline; meshes without a texture sample a 1x1 white texture.
//
// All methods must be called from the goroutine that created the Renderer.
type Renderer interface {
	drawlist.Renderer

	// Resize reconfigures the surface. Zero sizes (a minimized window) are remembered and
	// frames are skipped until a real size arrives.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Resize(width, height int) error

	// Size returns the current surface size.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	Size() (int, int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	SetPresentMode(mode PresentMode) error

	// Release destroys the white texture, the streamed buffers and the GPU device. Textures
	// created by the Renderer must be released first.
	Release()
}

var _ Renderer = &renderer{}

func (r *renderer) CreateTexture(data common.TextureStagingData) (drawlist.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil, ErrReleased
	}
	return r.createTexture(data)
}

func (r *renderer) createTexture(data common.TextureStagingData) (*texture, error) {
	if data.Width == 0 || data.Height == 0 || len(data.Pixels) < int(data.Width*data.Height*4) {
		return nil, fmt.Errorf("texture %s: invalid staging data %dx%d with %d bytes", data.Label, data.Width, data.Height, len(data.Pixels))
	}
	provider := bind_group_provider.NewBindGroupProvider(data.Label)
	if err := r.backend.InitTexture(provider, data); err != nil {
		provider.Release()
		return nil, fmt.Errorf("failed to create texture %s: %w", data.Label, err)
	}
	return &texture{
		owner:    r,
		provider: provider,
		label:    data.Label,
		width:    data.Width,
		height:   data.Height,
	}, nil
}

func (r *renderer) Render(list *drawlist.DrawList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if r.width <= 0 || r.height <= 0 || list == nil {
		return nil
	}
	if err := r.stage(list); err != nil {
		return err
	}

	var viewport GPUViewport
	viewport.Extent = [2]float32{list.Width, list.Height}
	if viewport.Extent[0] <= 0 || viewport.Extent[1] <= 0 {
		viewport.Extent = [2]float32{float32(r.width), float32(r.height)}
	}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: r.viewport, Binding: 0, Offset: 0, Data: viewport.Marshal()},
	})
	if err := r.backend.UploadGeometry(r.geometry, r.vertexBytes, r.indexBytes); err != nil {
		return fmt.Errorf("failed to upload frame geometry: %w", err)
	}

	if err := r.backend.BeginFrame(list.Clear); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	for _, b := range r.batches {
		r.backend.DrawBatch(r.viewport, b.texture.provider, r.geometry, b.indexCount, b.firstIndex, b.baseVertex)
	}
	if err := r.backend.EndFrame(); err != nil {
		return err
	}
	r.backend.Present()
	return nil
}

// stage packs every mesh of the list into the shared vertex and index staging buffers and
// records one batch per mesh. Indices stay mesh-local; baseVertex offsets them.
func (r *renderer) stage(list *drawlist.DrawList) error {
	r.vertexBytes = r.vertexBytes[:0]
	r.indexBytes = r.indexBytes[:0]
	r.batches = r.batches[:0]

	var vertices, indices uint32
	for _, m := range list.Meshes() {
		tex := r.white
		if m.Texture != nil {
			t, ok := m.Texture.(*texture)
			if !ok || t.owner != r {
				return fmt.Errorf("%w: %s", ErrForeignTexture, m.Texture.Label())
			}
			if t.provider == nil {
				continue
			}
			tex = t
		}
		r.batches = append(r.batches, batch{
			texture:    tex,
			firstIndex: indices,
			indexCount: uint32(len(m.Indices)),
			baseVertex: int32(vertices),
		})
		r.vertexBytes = appendVertices(r.vertexBytes, m.Vertices)
		r.indexBytes = appendIndices(r.indexBytes, m.Indices)
		vertices += uint32(len(m.Vertices))
		indices += uint32(len(m.Indices))
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.width, r.height = width, height
	if r.released || width <= 0 || height <= 0 {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("failed to configure surface %dx%d: %w", width, height, err)
	}
	r.logger.Debug("surface configured", "width", width, "height", height)
	return nil
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) error {
	r.mu.Lock()
	r.backend.SetPresentMode(mode)
	w, h := r.width, r.height
	r.mu.Unlock()
	return r.Resize(w, h)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	if r.white != nil {
		r.white.provider.Release()
	}
	if r.geometry != nil {
		r.geometry.Release()
	}
	if r.viewport != nil {
		r.viewport.Release()
	}
	r.backend.Release()
}

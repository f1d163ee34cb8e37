package renderer

import (
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer/bind_group_provider"
)

// texture is the drawlist.Texture handed out by CreateTexture. Its provider owns the GPU
// texture, view, sampler and bind group.
type texture struct {
	owner    *renderer
	provider bind_group_provider.BindGroupProvider
	label    string
	width    uint32
	height   uint32
}

var _ drawlist.Texture = &texture{}

func (t *texture) Label() string  { return t.label }
func (t *texture) Width() uint32  { return t.width }
func (t *texture) Height() uint32 { return t.height }

// Release frees the GPU resources. Released textures are skipped by Render.
func (t *texture) Release() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.provider == nil {
		return
	}
	t.provider.Release()
	t.provider = nil
}

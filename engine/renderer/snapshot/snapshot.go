// Package snapshot renders draw lists on the CPU into a gg pixmap. It needs no window or GPU and
// backs the snapshot command and renderer-facing tests.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/gogpu/gg"
)

// ErrForeignTexture is returned by Render when a mesh carries a texture another renderer created.
var ErrForeignTexture = errors.New("texture was not created by this renderer")

// Renderer is a drawlist.Renderer that paints into memory.
//
// Solid single-colored triangles and quads are filled through gg's anti-aliased rasterizer.
// Textured and per-vertex-colored triangles are rasterized here with nearest sampling and
// premultiplied source-over blending, matching the GPU sprite shader.
type Renderer struct {
	mu     sync.Mutex
	logger logging.Logger

	pixmap *gg.Pixmap
	ctx    *gg.Context
	frames int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer creates a renderer with an initial canvas size. Render resizes the canvas to each
// draw list's size.
//
// Parameters:
//   - width: the canvas width in pixels
//   - height: the canvas height in pixels
//   - options: functional options
//
// Returns:
//   - *Renderer: the renderer
func NewRenderer(width, height int, options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		opt(r)
	}
	r.logger = logging.OrNoOp(r.logger)
	r.resize(max(width, 1), max(height, 1))
	return r
}

var _ drawlist.Renderer = &Renderer{}

func (r *Renderer) resize(width, height int) {
	if r.ctx != nil {
		if r.pixmap.Width() == width && r.pixmap.Height() == height {
			return
		}
		_ = r.ctx.Close()
	}
	r.pixmap = gg.NewPixmap(width, height)
	r.ctx = gg.NewContext(width, height, gg.WithPixmap(r.pixmap))
}

// CreateTexture keeps a private copy of the pixels.
func (r *Renderer) CreateTexture(data common.TextureStagingData) (drawlist.Texture, error) {
	if data.Width == 0 || data.Height == 0 || len(data.Pixels) < int(data.Width*data.Height*4) {
		return nil, fmt.Errorf("texture %s: invalid staging data %dx%d with %d bytes", data.Label, data.Width, data.Height, len(data.Pixels))
	}
	return &texture{
		owner:  r,
		label:  data.Label,
		width:  data.Width,
		height: data.Height,
		pixels: append([]byte(nil), data.Pixels[:data.Width*data.Height*4]...),
	}, nil
}

// Render clears the canvas to list.Clear and paints every mesh in order.
func (r *Renderer) Render(list *drawlist.DrawList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if list == nil {
		return nil
	}
	w, h := int(math.Round(float64(list.Width))), int(math.Round(float64(list.Height)))
	if w <= 0 || h <= 0 {
		return nil
	}
	r.resize(w, h)
	r.ctx.ClearWithColor(straight(list.Clear))

	for _, m := range list.Meshes() {
		var tex *texture
		if m.Texture != nil {
			t, ok := m.Texture.(*texture)
			if !ok || t.owner != r {
				return fmt.Errorf("%w: %s", ErrForeignTexture, m.Texture.Label())
			}
			if t.pixels == nil {
				continue
			}
			tex = t
		}
		if err := r.paintMesh(m, tex); err != nil {
			return err
		}
	}
	r.frames++
	return nil
}

func (r *Renderer) paintMesh(m *drawlist.Mesh, tex *texture) error {
	idx := m.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		a, b, c := m.Vertices[idx[i]], m.Vertices[idx[i+1]], m.Vertices[idx[i+2]]
		if tex == nil && a.Color == b.Color && b.Color == c.Color {
			// A quad emitted by AppendQuad is two triangles (0,1,2) (0,2,3); fill it whole so
			// the shared diagonal leaves no anti-aliasing seam.
			if i+5 < len(idx) && idx[i+3] == idx[i] && idx[i+4] == idx[i+2] {
				d := m.Vertices[idx[i+5]]
				if d.Color == a.Color {
					if err := r.fillPolygon(a.Color, a, b, c, d); err != nil {
						return err
					}
					i += 3
					continue
				}
			}
			if err := r.fillPolygon(a.Color, a, b, c); err != nil {
				return err
			}
			continue
		}
		r.rasterize(a, b, c, tex)
	}
	return nil
}

func (r *Renderer) fillPolygon(c drawlist.Color, vs ...drawlist.Vertex) error {
	if c[3] == 0 {
		return nil
	}
	col := straight(c)
	r.ctx.SetRGBA(col.R, col.G, col.B, col.A)
	r.ctx.MoveTo(float64(vs[0].X), float64(vs[0].Y))
	for _, v := range vs[1:] {
		r.ctx.LineTo(float64(v.X), float64(v.Y))
	}
	r.ctx.ClosePath()
	return r.ctx.Fill()
}

// Image returns a copy of the last rendered frame.
func (r *Renderer) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx.Image()
}

// SavePNG writes the last rendered frame.
//
// Parameters:
//   - path: the output file
//
// Returns:
//   - error: an error if the file could not be written
func (r *Renderer) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ctx.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", path, err)
	}
	r.logger.Info("snapshot written", "path", path, "width", r.pixmap.Width(), "height", r.pixmap.Height())
	return nil
}

// Frames returns how many frames have been rendered.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Release frees the canvas.
func (r *Renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		_ = r.ctx.Close()
	}
}

// straight converts a premultiplied byte color to gg's straight-alpha float color.
func straight(c drawlist.Color) gg.RGBA {
	if c[3] == 0 {
		return gg.Transparent
	}
	a := float64(c[3]) / 255
	return gg.RGBA{
		R: common.Clamp(float64(c[0])/255/a, 0, 1),
		G: common.Clamp(float64(c[1])/255/a, 0, 1),
		B: common.Clamp(float64(c[2])/255/a, 0, 1),
		A: a,
	}
}

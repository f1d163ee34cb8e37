// Package drawlist holds the renderer-neutral output of a frame: textured triangle meshes
// in screen space, grouped into background, character and overlay layers.
package drawlist

import (
	"github.com/Carmen-Shannon/aefr-go/common"
)

// Texture is a GPU (or CPU) image created by a Renderer.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Release()
}

// Renderer turns draw lists into pixels. Textures must be created and released on the
// goroutine that calls Render.
type Renderer interface {
	// CreateTexture uploads decoded RGBA pixels.
	CreateTexture(data common.TextureStagingData) (Texture, error)
	// Render draws one frame.
	Render(list *DrawList) error
}

// Color is a premultiplied RGBA byte quadruple.
type Color [4]uint8

var (
	White       = Color{255, 255, 255, 255}
	Transparent = Color{}
)

// ColorFromFloats scales components in [0, 1] to bytes, clamping out of range values.
func ColorFromFloats(r, g, b, a float32) Color {
	return Color{toByte(r), toByte(g), toByte(b), toByte(a)}
}

// Premultiply converts a straight-alpha color to premultiplied form.
func Premultiply(r, g, b, a uint8) Color {
	return Color{
		uint8(uint16(r) * uint16(a) / 255),
		uint8(uint16(g) * uint16(a) / 255),
		uint8(uint16(b) * uint16(a) / 255),
		a,
	}
}

func toByte(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1)*255 + 0.5)
}

// Vertex is a screen-space position, texture coordinate and color.
type Vertex struct {
	X, Y  float32
	U, V  float32
	Color Color
}

// Rect is an axis aligned rectangle.
type Rect struct {
	X, Y, W, H float32
}

// UnitRect spans the whole texture.
var UnitRect = Rect{W: 1, H: 1}

// CoverRect scales an image to cover a viewport while keeping its aspect ratio, centered.
//
// Parameters:
//   - imgW, imgH: the image size in pixels
//   - viewW, viewH: the viewport size
//
// Returns:
//   - Rect: the destination rectangle, which may extend past the viewport
func CoverRect(imgW, imgH, viewW, viewH float32) Rect {
	if imgW <= 0 || imgH <= 0 {
		return Rect{W: viewW, H: viewH}
	}
	scale := max(viewW/imgW, viewH/imgH)
	w, h := imgW*scale, imgH*scale
	return Rect{X: (viewW - w) / 2, Y: (viewH - h) / 2, W: w, H: h}
}

// Mesh is an indexed triangle list drawn with one texture. A nil Texture draws solid colors.
type Mesh struct {
	Texture  Texture
	Vertices []Vertex
	Indices  []uint32
}

// Reset empties the mesh while keeping its backing storage.
func (m *Mesh) Reset() {
	m.Texture = nil
	m.Vertices = m.Vertices[:0]
	m.Indices = m.Indices[:0]
}

// Empty reports whether the mesh has no triangles.
func (m *Mesh) Empty() bool {
	return len(m.Indices) == 0
}

// AppendQuad adds a rectangle with per-corner colors given top-left, top-right,
// bottom-right, bottom-left.
func (m *Mesh) AppendQuad(r, uv Rect, tl, tr, br, bl Color) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{X: r.X, Y: r.Y, U: uv.X, V: uv.Y, Color: tl},
		Vertex{X: r.X + r.W, Y: r.Y, U: uv.X + uv.W, V: uv.Y, Color: tr},
		Vertex{X: r.X + r.W, Y: r.Y + r.H, U: uv.X + uv.W, V: uv.Y + uv.H, Color: br},
		Vertex{X: r.X, Y: r.Y + r.H, U: uv.X, V: uv.Y + uv.H, Color: bl},
	)
	m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
}

// AppendRect adds a single-colored rectangle.
func (m *Mesh) AppendRect(r, uv Rect, c Color) {
	m.AppendQuad(r, uv, c, c, c, c)
}

// AppendTriangle adds one solid triangle.
func (m *Mesh) AppendTriangle(x0, y0, x1, y1, x2, y2 float32, c Color) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices,
		Vertex{X: x0, Y: y0, Color: c},
		Vertex{X: x1, Y: y1, Color: c},
		Vertex{X: x2, Y: y2, Color: c},
	)
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// DrawList is one frame's geometry in paint order: background, characters, overlay.
type DrawList struct {
	Width      float32
	Height     float32
	Clear      Color
	Background *Mesh
	Characters []*Mesh
	Overlay    []*Mesh
}

// Reset prepares the list for a new frame of the given size.
func (d *DrawList) Reset(width, height float32) {
	d.Width, d.Height = width, height
	d.Clear = Color{0, 0, 0, 255}
	d.Background = nil
	d.Characters = d.Characters[:0]
	d.Overlay = d.Overlay[:0]
}

// Meshes returns every non-empty mesh in paint order.
func (d *DrawList) Meshes() []*Mesh {
	out := make([]*Mesh, 0, 1+len(d.Characters)+len(d.Overlay))
	if d.Background != nil && !d.Background.Empty() {
		out = append(out, d.Background)
	}
	for _, m := range d.Characters {
		if !m.Empty() {
			out = append(out, m)
		}
	}
	for _, m := range d.Overlay {
		if !m.Empty() {
			out = append(out, m)
		}
	}
	return out
}

// Stats summarizes a draw list for profiling.
type Stats struct {
	Meshes   int
	Vertices int
	Indices  int
}

// Stats counts meshes, vertices and indices across all layers.
func (d *DrawList) Stats() Stats {
	var s Stats
	for _, m := range d.Meshes() {
		s.Meshes++
		s.Vertices += len(m.Vertices)
		s.Indices += len(m.Indices)
	}
	return s
}

// Arena hands out reusable meshes. It grows to the largest frame seen and never shrinks.
// An Arena belongs to a single goroutine.
type Arena struct {
	meshes []*Mesh
	used   int
}

// Reset returns every mesh to the arena.
func (a *Arena) Reset() {
	a.used = 0
}

// Next returns an empty mesh.
func (a *Arena) Next() *Mesh {
	if a.used == len(a.meshes) {
		a.meshes = append(a.meshes, &Mesh{})
	}
	m := a.meshes[a.used]
	a.used++
	m.Reset()
	return m
}

// Cap returns the number of meshes the arena owns.
func (a *Arena) Cap() int {
	return len(a.meshes)
}

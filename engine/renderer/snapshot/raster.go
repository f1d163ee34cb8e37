package snapshot

import (
	"math"

	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
)

// texture is the drawlist.Texture handed out by CreateTexture.
type texture struct {
	owner  *Renderer
	label  string
	width  uint32
	height uint32
	pixels []byte // straight RGBA
}

func (t *texture) Label() string  { return t.label }
func (t *texture) Width() uint32  { return t.width }
func (t *texture) Height() uint32 { return t.height }
func (t *texture) Release()       { t.pixels = nil }

// sample returns the premultiplied texel nearest to (u, v), clamped to the edges.
func (t *texture) sample(u, v float32) [4]float32 {
	x := int(math.Floor(float64(u * float32(t.width))))
	y := int(math.Floor(float64(v * float32(t.height))))
	x = min(max(x, 0), int(t.width)-1)
	y = min(max(y, 0), int(t.height)-1)
	i := (y*int(t.width) + x) * 4
	a := float32(t.pixels[i+3]) / 255
	return [4]float32{
		float32(t.pixels[i]) / 255 * a,
		float32(t.pixels[i+1]) / 255 * a,
		float32(t.pixels[i+2]) / 255 * a,
		a,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns reports whether a pixel center lying exactly on edge a->b belongs to this triangle.
// Opposite traversals of a shared edge give opposite answers, so no pixel is painted twice.
func owns(ax, ay, bx, by float32) bool {
	dy, dx := by-ay, bx-ax
	return dy > 0 || (dy == 0 && dx < 0)
}

// rasterize paints one triangle at pixel centers, interpolating uv and color barycentrically.
// A nil texture paints the interpolated color alone.
func (r *Renderer) rasterize(a, b, c drawlist.Vertex, tex *texture) {
	area := edge(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}

	w, h := r.pixmap.Width(), r.pixmap.Height()
	minX := max(int(math.Floor(float64(min(a.X, b.X, c.X)))), 0)
	maxX := min(int(math.Ceil(float64(max(a.X, b.X, c.X)))), w-1)
	minY := max(int(math.Floor(float64(min(a.Y, b.Y, c.Y)))), 0)
	maxY := min(int(math.Ceil(float64(max(a.Y, b.Y, c.Y)))), h-1)

	ownBC, ownCA, ownAB := owns(b.X, b.Y, c.X, c.Y), owns(c.X, c.Y, a.X, a.Y), owns(a.X, a.Y, b.X, b.Y)
	data := r.pixmap.Data()
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(b.X, b.Y, c.X, c.Y, px, py)
			w1 := edge(c.X, c.Y, a.X, a.Y, px, py)
			w2 := edge(a.X, a.Y, b.X, b.Y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 ||
				(w0 == 0 && !ownBC) || (w1 == 0 && !ownCA) || (w2 == 0 && !ownAB) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area

			var src [4]float32
			for k := range src {
				src[k] = (float32(a.Color[k])*l0 + float32(b.Color[k])*l1 + float32(c.Color[k])*l2) / 255
			}
			if tex != nil {
				t := tex.sample(a.U*l0+b.U*l1+c.U*l2, a.V*l0+b.V*l1+c.V*l2)
				for k := range src {
					src[k] *= t[k]
				}
			}
			blend(data[(y*w+x)*4:], src)
		}
	}
}

// blend composites a premultiplied source over the destination pixel.
func blend(dst []byte, src [4]float32) {
	if src[3] <= 0 && src[0] <= 0 && src[1] <= 0 && src[2] <= 0 {
		return
	}
	inv := 1 - src[3]
	for k := range 4 {
		v := src[k]*255 + float32(dst[k])*inv
		dst[k] = uint8(min(max(v+0.5, 0), 255))
	}
}

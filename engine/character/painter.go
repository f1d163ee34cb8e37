package character

import (
	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// Painter converts posed characters into screen-space meshes. Its world vertex scratch
// buffer grows to the largest attachment seen and is reused across frames, so a Painter
// belongs to a single goroutine.
type Painter struct {
	world []float32
}

// NewPainter creates a painter with a small preallocated scratch buffer.
func NewPainter() *Painter {
	return &Painter{world: make([]float32, 0, 1024)}
}

// Paint appends a character's visible attachments to out in draw order. Characters
// without a texture produce nothing.
//
// Parameters:
//   - c: the posed character
//   - out: the mesh to append to; its texture is set to the character's texture
//
// Returns:
//   - int: the number of vertices appended
func (p *Painter) Paint(c Character, out *drawlist.Mesh) int {
	tex := c.Texture()
	if tex == nil {
		return 0
	}
	out.Texture = tex

	pose := c.Pose()
	posX, posY, scale := c.Layout()
	start := len(out.Vertices)

	for _, slot := range pose.DrawOrder {
		switch a := slot.Attachment.(type) {
		case *skeleton.RegionAttachment:
			world := p.scratch(8)
			a.ComputeWorldVertices(slot.Bone, world)
			p.push(out, world, a.UVs[:], skeleton.RegionIndices[:], vertexColor(slot, a.Color), posX, posY, scale)
		case *skeleton.MeshAttachment:
			world := p.scratch(a.WorldLength)
			a.ComputeWorldVertices(slot, pose.Bones, world)
			p.push(out, world, a.UVs, a.Triangles, vertexColor(slot, a.Color), posX, posY, scale)
		}
	}
	return len(out.Vertices) - start
}

func (p *Painter) scratch(n int) []float32 {
	if cap(p.world) < n {
		p.world = make([]float32, n)
	}
	p.world = p.world[:n]
	return p.world
}

// vertexColor combines the slot and attachment tints into the premultiplied color the
// renderer's (one, one minus source alpha) blend expects. Additive slots keep their
// premultiplied rgb but zero the alpha so nothing behind them is darkened. Multiply and
// screen need their own blend state and draw as normal.
func vertexColor(slot *skeleton.Slot, attachment skeleton.Color) drawlist.Color {
	tint := slot.Color.Mul(attachment)
	color := drawlist.Premultiply(channel(tint.R), channel(tint.G), channel(tint.B), channel(tint.A))
	if slot.Data.Blend == skeleton.BlendAdditive {
		color[3] = 0
	}
	return color
}

func (p *Painter) push(out *drawlist.Mesh, world, uvs []float32, tris []uint32, color drawlist.Color, posX, posY, scale float32) {
	count := min(len(uvs), len(world)) / 2
	base := uint32(len(out.Vertices))

	for i := 0; i < count; i++ {
		out.Vertices = append(out.Vertices, drawlist.Vertex{
			X:     world[i*2]*scale + posX,
			Y:     -world[i*2+1]*scale + posY,
			U:     uvs[i*2],
			V:     uvs[i*2+1],
			Color: color,
		})
	}
	for _, idx := range tris {
		out.Indices = append(out.Indices, base+idx)
	}
}

// channel truncates a [0, 1] component to a byte.
func channel(v float32) uint8 {
	return uint8(common.Clamp(v, 0, 1) * 255)
}

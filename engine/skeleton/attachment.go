package skeleton

import (
	"fmt"

	"github.com/Carmen-Shannon/aefr-go/common"
)

// Attachment is something a slot can display.
type Attachment interface {
	AttachmentName() string
}

// RegionAttachment is a textured quad bound to a single bone.
// Offsets and UVs are computed once when the attachment is built.
type RegionAttachment struct {
	Name     string
	Path     string
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	Width    float32
	Height   float32
	Color    Color
	Region   *AtlasRegion

	// Offset holds BL, UL, UR, BR corners in bone space as x,y pairs.
	Offset [8]float32
	// UVs holds the texture coordinates of the same corners.
	UVs [8]float32
}

// AttachmentName returns the attachment's skin name.
func (r *RegionAttachment) AttachmentName() string { return r.Name }

// RegionIndices is the triangle list for a region quad.
var RegionIndices = [6]uint32{0, 1, 2, 2, 3, 0}

// Bind resolves the attachment's atlas region and computes its corner offsets and UVs.
//
// Parameters:
//   - atlas: the atlas holding the region named by Path (or Name when Path is empty)
//
// Returns:
//   - error: error if the region does not exist
func (r *RegionAttachment) Bind(atlas *Atlas) error {
	key := common.Coalesce(r.Path, r.Name)
	region := atlas.FindRegion(key)
	if region == nil {
		return fmt.Errorf("region %q not found in atlas", key)
	}
	r.Region = region
	r.updateOffset()
	r.updateUVs()
	return nil
}

func (r *RegionAttachment) updateOffset() {
	reg := r.Region
	origW := common.Coalesce(reg.OriginalWidth, float32(reg.Width))
	origH := common.Coalesce(reg.OriginalHeight, float32(reg.Height))

	regionScaleX := r.Width / origW * r.ScaleX
	regionScaleY := r.Height / origH * r.ScaleY
	localX := -r.Width/2*r.ScaleX + reg.OffsetX*regionScaleX
	localY := -r.Height/2*r.ScaleY + reg.OffsetY*regionScaleY
	localX2 := localX + float32(reg.Width)*regionScaleX
	localY2 := localY + float32(reg.Height)*regionScaleY

	sin, cos := common.SinCos(r.Rotation)
	localXCos := localX*cos + r.X
	localXSin := localX * sin
	localYCos := localY*cos + r.Y
	localYSin := localY * sin
	localX2Cos := localX2*cos + r.X
	localX2Sin := localX2 * sin
	localY2Cos := localY2*cos + r.Y
	localY2Sin := localY2 * sin

	r.Offset = [8]float32{
		localXCos - localYSin, localYCos + localXSin, // BL
		localXCos - localY2Sin, localY2Cos + localXSin, // UL
		localX2Cos - localY2Sin, localY2Cos + localX2Sin, // UR
		localX2Cos - localYSin, localYCos + localX2Sin, // BR
	}
}

func (r *RegionAttachment) updateUVs() {
	reg := r.Region
	u, v, u2, v2 := reg.U, reg.V, reg.U2, reg.V2
	if reg.Rotated() {
		r.UVs = [8]float32{u2, v, u2, v2, u, v2, u, v}
		return
	}
	r.UVs = [8]float32{u, v2, u, v, u2, v, u2, v2}
}

// ComputeWorldVertices transforms the corner offsets by the bone's world transform.
//
// Parameters:
//   - bone: the bone the owning slot is attached to
//   - out: destination slice with room for 8 floats
func (r *RegionAttachment) ComputeWorldVertices(bone *Bone, out []float32) {
	for i := 0; i < 8; i += 2 {
		ox, oy := r.Offset[i], r.Offset[i+1]
		out[i] = ox*bone.A + oy*bone.B + bone.WorldX
		out[i+1] = ox*bone.C + oy*bone.D + bone.WorldY
	}
}

// MeshAttachment is a triangulated textured polygon that may be weighted to several bones.
//
// Unweighted meshes store x,y pairs in Vertices and leave Bones nil. Weighted meshes store
// per-vertex influence counts and bone indices in Bones and x,y,weight triplets in Vertices.
type MeshAttachment struct {
	Name        string
	Path        string
	Color       Color
	Region      *AtlasRegion
	Bones       []int
	Vertices    []float32
	RegionUVs   []float32
	UVs         []float32
	Triangles   []uint32
	HullLength  int
	WorldLength int
}

// AttachmentName returns the attachment's skin name.
func (m *MeshAttachment) AttachmentName() string { return m.Name }

// Weighted reports whether the mesh is bound to more than one bone.
func (m *MeshAttachment) Weighted() bool { return m.Bones != nil }

// VertexCount returns the number of world vertices the mesh produces.
func (m *MeshAttachment) VertexCount() int { return m.WorldLength / 2 }

// DeformLength returns the number of floats in one deform frame: a position per vertex
// when unweighted, an offset per bone influence when weighted.
func (m *MeshAttachment) DeformLength() int {
	if m.Weighted() {
		return len(m.Vertices) / 3 * 2
	}
	return len(m.Vertices)
}

// Bind resolves the mesh's atlas region and maps its region UVs onto the page.
//
// Parameters:
//   - atlas: the atlas holding the region named by Path (or Name when Path is empty)
//
// Returns:
//   - error: error if the region does not exist
func (m *MeshAttachment) Bind(atlas *Atlas) error {
	key := common.Coalesce(m.Path, m.Name)
	region := atlas.FindRegion(key)
	if region == nil {
		return fmt.Errorf("region %q not found in atlas", key)
	}
	m.Region = region
	m.updateUVs()
	return nil
}

func (m *MeshAttachment) updateUVs() {
	reg := m.Region
	if cap(m.UVs) < len(m.RegionUVs) {
		m.UVs = make([]float32, len(m.RegionUVs))
	}
	m.UVs = m.UVs[:len(m.RegionUVs)]
	u, v := reg.U, reg.V
	w, h := reg.U2-reg.U, reg.V2-reg.V
	for i := 0; i+1 < len(m.RegionUVs); i += 2 {
		if reg.Rotated() {
			m.UVs[i] = u + m.RegionUVs[i+1]*w
			m.UVs[i+1] = v + h - m.RegionUVs[i]*h
			continue
		}
		m.UVs[i] = u + m.RegionUVs[i]*w
		m.UVs[i+1] = v + m.RegionUVs[i+1]*h
	}
}

// ComputeWorldVertices writes the mesh's world positions as x,y pairs.
// A non-empty deform replaces unweighted vertices and offsets weighted ones.
//
// Parameters:
//   - slot: the slot displaying the mesh
//   - bones: the pose's bones, indexed as in the definition
//   - out: destination slice with room for WorldLength floats
func (m *MeshAttachment) ComputeWorldVertices(slot *Slot, bones []*Bone, out []float32) {
	deform := slot.Deform
	if !m.Weighted() {
		verts := m.Vertices
		if len(deform) == len(verts) {
			verts = deform
		}
		bone := slot.Bone
		for i := 0; i+1 < len(verts) && i+1 < len(out); i += 2 {
			vx, vy := verts[i], verts[i+1]
			out[i] = vx*bone.A + vy*bone.B + bone.WorldX
			out[i+1] = vx*bone.C + vy*bone.D + bone.WorldY
		}
		return
	}

	useDeform := len(deform) > 0
	v, b, f := 0, 0, 0
	for w := 0; w+1 < m.WorldLength && w+1 < len(out); w += 2 {
		var wx, wy float32
		n := m.Bones[v]
		v++
		n += v
		for ; v < n; v++ {
			bone := bones[m.Bones[v]]
			vx, vy, weight := m.Vertices[b], m.Vertices[b+1], m.Vertices[b+2]
			if useDeform && f+1 < len(deform) {
				vx += deform[f]
				vy += deform[f+1]
			}
			wx += (vx*bone.A + vy*bone.B + bone.WorldX) * weight
			wy += (vx*bone.C + vy*bone.D + bone.WorldY) * weight
			b += 3
			f += 2
		}
		out[w] = wx
		out[w+1] = wy
	}
}

// SetVertices parses the packed vertex array used by skeleton files into the mesh's
// weighted or unweighted representation.
//
// Parameters:
//   - raw: either x,y pairs (unweighted) or [count, (bone, x, y, weight)*] runs
//   - uvCount: the number of region UV floats, two per vertex
//
// Returns:
//   - error: error if a weighted run is truncated or the runs do not cover every UV pair
func (m *MeshAttachment) SetVertices(raw []float32, uvCount int) error {
	m.WorldLength = uvCount
	if len(raw) == uvCount {
		m.Bones = nil
		m.Vertices = append(m.Vertices[:0], raw...)
		return nil
	}
	bones := make([]int, 0, uvCount*3)
	weights := make([]float32, 0, uvCount*3*3)
	runs := 0
	for i := 0; i < len(raw); runs++ {
		count := int(raw[i])
		i++
		if count < 0 || i+count*4 > len(raw) {
			return fmt.Errorf("mesh %q: weighted vertex run truncated at %d", m.Name, i)
		}
		bones = append(bones, count)
		for end := i + count*4; i < end; i += 4 {
			bones = append(bones, int(raw[i]))
			weights = append(weights, raw[i+1], raw[i+2], raw[i+3])
		}
	}
	if runs != uvCount/2 {
		return fmt.Errorf("mesh %q: %d weighted vertices for %d uvs", m.Name, runs, uvCount/2)
	}
	m.Bones = bones
	m.Vertices = weights
	return nil
}

// validate checks that every index the mesh stores stays inside its vertex arrays and the
// skeleton's bones, so ComputeWorldVertices and the painter never read out of range.
func (m *MeshAttachment) validate(boneCount int) error {
	if len(m.RegionUVs)%2 != 0 || m.WorldLength != len(m.RegionUVs) {
		return fmt.Errorf("mesh %q: %d uv floats for %d world floats", m.Name, len(m.RegionUVs), m.WorldLength)
	}
	if m.Region != nil && len(m.UVs) != len(m.RegionUVs) {
		return fmt.Errorf("mesh %q: %d page uvs for %d region uvs", m.Name, len(m.UVs), len(m.RegionUVs))
	}
	if len(m.Triangles)%3 != 0 {
		return fmt.Errorf("mesh %q: %d triangle indices is not a multiple of 3", m.Name, len(m.Triangles))
	}
	vertices := uint32(m.VertexCount())
	for _, idx := range m.Triangles {
		if idx >= vertices {
			return fmt.Errorf("mesh %q: triangle index %d out of range for %d vertices", m.Name, idx, vertices)
		}
	}

	if !m.Weighted() {
		if len(m.Vertices) != m.WorldLength {
			return fmt.Errorf("mesh %q: %d vertex floats for %d world floats", m.Name, len(m.Vertices), m.WorldLength)
		}
		return nil
	}
	runs, weights := 0, 0
	for v := 0; v < len(m.Bones); runs++ {
		n := m.Bones[v]
		v++
		if n < 0 || v+n > len(m.Bones) {
			return fmt.Errorf("mesh %q: weighted vertex %d truncated", m.Name, runs)
		}
		for end := v + n; v < end; v++ {
			if b := m.Bones[v]; b < 0 || b >= boneCount {
				return fmt.Errorf("mesh %q: weighted vertex %d references missing bone %d", m.Name, runs, b)
			}
		}
		weights += n
	}
	if runs != int(vertices) {
		return fmt.Errorf("mesh %q: %d weighted vertices for %d world vertices", m.Name, runs, vertices)
	}
	if weights*3 != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d weight floats for %d influences", m.Name, len(m.Vertices), weights)
	}
	return nil
}

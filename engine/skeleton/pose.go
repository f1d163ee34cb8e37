package skeleton

import (
	"math"

	"github.com/Carmen-Shannon/aefr-go/common"
)

// Bone is the mutable, per-pose state of a BoneData.
// A, B, C, D and WorldX, WorldY form the bone's world affine transform.
type Bone struct {
	Data   *BoneData
	Parent *Bone

	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32

	A, B, C, D     float32
	WorldX, WorldY float32
}

// SetToSetupPose restores the bone's local transform from its data.
func (b *Bone) SetToSetupPose() {
	d := b.Data
	b.X, b.Y = d.X, d.Y
	b.Rotation = d.Rotation
	b.ScaleX, b.ScaleY = d.ScaleX, d.ScaleY
	b.ShearX, b.ShearY = d.ShearX, d.ShearY
}

// UpdateWorldTransform composes the bone's local transform with its parent's world transform,
// taking on only the parts of the parent transform its inherit mode allows. The parent must
// already be up to date.
func (b *Bone) UpdateWorldTransform() {
	p := b.Parent
	if p == nil {
		b.A, b.B, b.C, b.D = b.local(b.Rotation)
		b.WorldX, b.WorldY = b.X, b.Y
		return
	}
	pa, pb, pc, pd := p.A, p.B, p.C, p.D
	b.WorldX = pa*b.X + pb*b.Y + p.WorldX
	b.WorldY = pc*b.X + pd*b.Y + p.WorldY

	switch b.Data.Inherit {
	case InheritOnlyTranslation:
		b.A, b.B, b.C, b.D = b.local(b.Rotation)
	case InheritNoRotationOrReflection:
		var prx float32
		if s := pa*pa + pc*pc; s > 1e-4 {
			s = abs(pa*pd-pb*pc) / s
			pb = pc * s
			pd = pa * s
			prx = atan2Deg(pc, pa)
		} else {
			pa, pc = 0, 0
			prx = 90 - atan2Deg(pd, pb)
		}
		la, lb, lc, ld := b.local(b.Rotation - prx)
		b.A = pa*la - pb*lc
		b.B = pa*lb - pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
	case InheritNoScale, InheritNoScaleOrReflection:
		sin, cos := common.SinCos(b.Rotation)
		za := pa*cos + pb*sin
		zc := pc*cos + pd*sin
		s := float32(math.Hypot(float64(za), float64(zc)))
		if s > 1e-5 {
			s = 1 / s
		}
		za *= s
		zc *= s
		s = float32(math.Hypot(float64(za), float64(zc)))
		if b.Data.Inherit == InheritNoScale && pa*pd-pb*pc < 0 {
			s = -s
		}
		sinR, cosR := common.SinCos(90 + atan2Deg(zc, za))
		zb := cosR * s
		zd := sinR * s
		la, lb, lc, ld := b.local(0)
		b.A = za*la + zb*lc
		b.B = za*lb + zb*ld
		b.C = zc*la + zd*lc
		b.D = zc*lb + zd*ld
	default:
		la, lb, lc, ld := b.local(b.Rotation)
		b.A = pa*la + pb*lc
		b.B = pa*lb + pb*ld
		b.C = pc*la + pd*lc
		b.D = pc*lb + pd*ld
	}
}

// local returns the bone's 2x2 local matrix for the given rotation with its shear and
// scale applied.
func (b *Bone) local(rotation float32) (la, lb, lc, ld float32) {
	sinX, cosX := common.SinCos(rotation + b.ShearX)
	sinY, cosY := common.SinCos(rotation + 90 + b.ShearY)
	return cosX * b.ScaleX, cosY * b.ScaleY, sinX * b.ScaleX, sinY * b.ScaleY
}

func atan2Deg(y, x float32) float32 {
	return float32(math.Atan2(float64(y), float64(x)) * 180 / math.Pi)
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// Slot is the mutable, per-pose state of a SlotData.
type Slot struct {
	Data       *SlotData
	Bone       *Bone
	Color      Color
	Attachment Attachment
	Deform     []float32
}

// SetAttachment changes the displayed attachment and clears any deform when it changes.
func (s *Slot) SetAttachment(a Attachment) {
	if s.Attachment == a {
		return
	}
	s.Attachment = a
	s.Deform = s.Deform[:0]
}

// Pose is one character's instance of a Definition: current bone transforms, slot
// state and draw order.
type Pose struct {
	Def       *Definition
	Bones     []*Bone
	Slots     []*Slot
	DrawOrder []*Slot
	Skin      *Skin
}

// NewPose creates a pose in the definition's setup pose.
//
// Parameters:
//   - def: the validated skeleton definition
//
// Returns:
//   - *Pose: a pose with world transforms computed
func NewPose(def *Definition) *Pose {
	p := &Pose{
		Def:       def,
		Bones:     make([]*Bone, len(def.Bones)),
		Slots:     make([]*Slot, len(def.Slots)),
		DrawOrder: make([]*Slot, len(def.Slots)),
		Skin:      def.Default,
	}
	for i, bd := range def.Bones {
		b := &Bone{Data: bd}
		if bd.Parent >= 0 {
			b.Parent = p.Bones[bd.Parent]
		}
		p.Bones[i] = b
	}
	for i, sd := range def.Slots {
		p.Slots[i] = &Slot{Data: sd, Bone: p.Bones[sd.Bone]}
	}
	p.SetToSetupPose()
	p.UpdateWorldTransform()
	return p
}

// SetSkin switches the active skin. Unknown names leave the current skin in place.
//
// Returns:
//   - bool: true if the skin exists
func (p *Pose) SetSkin(name string) bool {
	s := p.Def.FindSkin(name)
	if s == nil {
		return false
	}
	p.Skin = s
	p.SetSlotsToSetupPose()
	return true
}

// Attachment looks up an attachment in the active skin, then in the default skin.
func (p *Pose) Attachment(slot int, name string) Attachment {
	if name == "" {
		return nil
	}
	if a := p.Skin.Attachment(slot, name); a != nil {
		return a
	}
	if p.Skin != p.Def.Default {
		return p.Def.Default.Attachment(slot, name)
	}
	return nil
}

// SetToSetupPose resets every bone and slot to the setup pose.
func (p *Pose) SetToSetupPose() {
	p.SetBonesToSetupPose()
	p.SetSlotsToSetupPose()
}

// SetBonesToSetupPose resets every bone's local transform.
func (p *Pose) SetBonesToSetupPose() {
	for _, b := range p.Bones {
		b.SetToSetupPose()
	}
}

// SetSlotsToSetupPose resets slot colors, attachments, deforms and the draw order.
func (p *Pose) SetSlotsToSetupPose() {
	copy(p.DrawOrder, p.Slots)
	for _, s := range p.Slots {
		s.Color = s.Data.Color
		s.Attachment = p.Attachment(s.Data.Index, s.Data.Attachment)
		s.Deform = s.Deform[:0]
	}
}

// UpdateWorldTransform recomputes every bone's world transform in parent-first order.
func (p *Pose) UpdateWorldTransform() {
	for _, b := range p.Bones {
		b.UpdateWorldTransform()
	}
}

// FindBone returns the pose bone with the given name, or nil.
func (p *Pose) FindBone(name string) *Bone {
	if d := p.Def.FindBone(name); d != nil {
		return p.Bones[d.Index]
	}
	return nil
}

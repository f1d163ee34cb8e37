// Package skeleton is a small 2D skeletal animation runtime: immutable definitions parsed
// from skeleton files, per-character poses derived from them, and single-track playback.
package skeleton

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// White is the neutral tint.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Mul multiplies two colors channel-wise.
func (c Color) Mul(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// Lerp interpolates between c and o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// ParseColor parses an "rrggbbaa" or "rrggbb" hex string.
//
// Parameters:
//   - hex: the hex color, with or without a leading '#'
//
// Returns:
//   - Color: the parsed color
//   - error: error if the string is not 6 or 8 hex digits
func ParseColor(hex string) (Color, error) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return White, fmt.Errorf("invalid color %q", hex)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return White, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return Color{
		R: float32((v>>24)&0xff) / 255,
		G: float32((v>>16)&0xff) / 255,
		B: float32((v>>8)&0xff) / 255,
		A: float32(v&0xff) / 255,
	}, nil
}

// BlendMode selects how a slot's pixels combine with what is already drawn.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

// Definition is the immutable template shared by every character built from one skeleton file.
// Bones are ordered so that every parent precedes its children.
type Definition struct {
	Name       string
	Version    string
	Bones      []*BoneData
	Slots      []*SlotData
	Skins      []*Skin
	Default    *Skin
	Animations []*Animation
}

// FindBone returns the bone with the given name, or nil.
func (d *Definition) FindBone(name string) *BoneData {
	for _, b := range d.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// FindSlot returns the slot with the given name, or nil.
func (d *Definition) FindSlot(name string) *SlotData {
	for _, s := range d.Slots {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindSkin returns the skin with the given name, or nil.
func (d *Definition) FindSkin(name string) *Skin {
	for _, s := range d.Skins {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindAnimation returns the clip with the given name, or nil.
func (d *Definition) FindAnimation(name string) *Animation {
	for _, a := range d.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AnimationNames lists clip names in definition order.
func (d *Definition) AnimationNames() []string {
	names := make([]string, len(d.Animations))
	for i, a := range d.Animations {
		names[i] = a.Name
	}
	return names
}

// Validate checks the structural invariants the pose code relies on.
//
// Returns:
//   - error: error describing the first broken invariant
func (d *Definition) Validate() error {
	for i, b := range d.Bones {
		if b.Index != i {
			return fmt.Errorf("bone %q has index %d, want %d", b.Name, b.Index, i)
		}
		if b.Parent >= i {
			return fmt.Errorf("bone %q is declared before its parent", b.Name)
		}
	}
	for i, s := range d.Slots {
		if s.Index != i {
			return fmt.Errorf("slot %q has index %d, want %d", s.Name, s.Index, i)
		}
		if s.Bone < 0 || s.Bone >= len(d.Bones) {
			return fmt.Errorf("slot %q references missing bone %d", s.Name, s.Bone)
		}
	}
	for _, s := range d.Skins {
		for key, a := range s.attachments {
			if key.slot < 0 || key.slot >= len(d.Slots) {
				return fmt.Errorf("skin %q: attachment %q references missing slot %d", s.Name, key.name, key.slot)
			}
			if m, ok := a.(*MeshAttachment); ok {
				if err := m.validate(len(d.Bones)); err != nil {
					return fmt.Errorf("skin %q slot %q: %w", s.Name, d.Slots[key.slot].Name, err)
				}
			}
		}
	}
	for _, a := range d.Animations {
		for _, tl := range a.Timelines {
			if err := tl.validate(d); err != nil {
				return fmt.Errorf("animation %q: %w", a.Name, err)
			}
		}
	}
	return nil
}

// Inherit selects which parts of its parent's world transform a bone takes on.
type Inherit uint8

const (
	InheritNormal Inherit = iota
	InheritOnlyTranslation
	InheritNoRotationOrReflection
	InheritNoScale
	InheritNoScaleOrReflection
)

var inheritNames = map[string]Inherit{
	"normal":                 InheritNormal,
	"onlyTranslation":        InheritOnlyTranslation,
	"noRotationOrReflection": InheritNoRotationOrReflection,
	"noScale":                InheritNoScale,
	"noScaleOrReflection":    InheritNoScaleOrReflection,
}

// ParseInherit maps the name used by skeleton files to an Inherit mode. An empty name
// is InheritNormal.
//
// Parameters:
//   - name: the mode name, e.g. "noScale"
//
// Returns:
//   - Inherit: the mode
//   - error: error if the name is unknown
func ParseInherit(name string) (Inherit, error) {
	if name == "" {
		return InheritNormal, nil
	}
	mode, ok := inheritNames[name]
	if !ok {
		return InheritNormal, fmt.Errorf("unknown inherit mode %q", name)
	}
	return mode, nil
}

// BoneData is the setup-pose description of one bone.
// Parent is the index of the parent bone, or -1 for the root.
type BoneData struct {
	Index    int
	Name     string
	Parent   int
	Length   float32
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32
	Inherit  Inherit
}

// SlotData is the setup-pose description of one slot. Blend is honoured by the painter.
type SlotData struct {
	Index      int
	Name       string
	Bone       int
	Color      Color
	Attachment string
	Blend      BlendMode
}

type skinKey struct {
	slot int
	name string
}

// Skin maps (slot, attachment name) pairs to attachments.
type Skin struct {
	Name        string
	attachments map[skinKey]Attachment
}

// NewSkin creates an empty skin.
func NewSkin(name string) *Skin {
	return &Skin{Name: name, attachments: make(map[skinKey]Attachment)}
}

// SetAttachment registers an attachment for a slot under the given name.
func (s *Skin) SetAttachment(slot int, name string, a Attachment) {
	s.attachments[skinKey{slot: slot, name: name}] = a
}

// Attachment returns the attachment registered for a slot and name, or nil.
func (s *Skin) Attachment(slot int, name string) Attachment {
	if s == nil {
		return nil
	}
	return s.attachments[skinKey{slot: slot, name: name}]
}

// Len returns the number of attachments in the skin.
func (s *Skin) Len() int {
	return len(s.attachments)
}

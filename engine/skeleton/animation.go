package skeleton

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/aefr-go/common"
)

// Animation is a named clip made of keyframed timelines.
type Animation struct {
	Name      string
	Duration  float32
	Timelines []Timeline
}

// NewAnimation builds a clip whose duration is the last keyframe time across its timelines.
func NewAnimation(name string, timelines []Timeline) *Animation {
	a := &Animation{Name: name, Timelines: timelines}
	for _, tl := range timelines {
		a.Duration = max(a.Duration, tl.Duration())
	}
	return a
}

// Apply poses p at the given clip time. Timelines write over the current pose, so callers
// reset to the setup pose first.
func (a *Animation) Apply(p *Pose, time float32) {
	for _, tl := range a.Timelines {
		tl.Apply(p, time)
	}
}

// Timeline animates one property of a pose over time.
type Timeline interface {
	// Apply writes the timeline's value at time into p.
	Apply(p *Pose, time float32)
	// Duration is the time of the last keyframe.
	Duration() float32

	validate(d *Definition) error
}

// frameIndex returns the last keyframe at or before t, or -1 when t precedes the first one.
func frameIndex(times []float32, t float32) int {
	return sort.Search(len(times), func(i int) bool { return times[i] > t }) - 1
}

// segment returns the keyframe index and eased progress towards the next keyframe.
// ok is false before the first keyframe.
func segment(times []float32, curves []Curve, t float32) (i int, percent float32, ok bool) {
	i = frameIndex(times, t)
	if i < 0 {
		return 0, 0, false
	}
	if i >= len(times)-1 {
		return len(times) - 1, 0, true
	}
	span := times[i+1] - times[i]
	if span <= 0 {
		return i, 0, true
	}
	c := Linear
	if i < len(curves) {
		c = curves[i]
	}
	return i, c.Apply(common.Clamp((t-times[i])/span, 0, 1)), true
}

func lastTime(times []float32) float32 {
	if len(times) == 0 {
		return 0
	}
	return times[len(times)-1]
}

func checkBone(d *Definition, bone int) error {
	if bone < 0 || bone >= len(d.Bones) {
		return fmt.Errorf("timeline references missing bone %d", bone)
	}
	return nil
}

func checkSlot(d *Definition, slot int) error {
	if slot < 0 || slot >= len(d.Slots) {
		return fmt.Errorf("timeline references missing slot %d", slot)
	}
	return nil
}

// RotateTimeline keys a bone's rotation relative to its setup rotation.
// Shortest makes interpolation take the shorter way around the circle.
type RotateTimeline struct {
	Bone     int
	Times    []float32
	Angles   []float32
	Curves   []Curve
	Shortest bool
}

func (t *RotateTimeline) Apply(p *Pose, time float32) {
	i, pct, ok := segment(t.Times, t.Curves, time)
	if !ok {
		return
	}
	r := t.Angles[i]
	if i < len(t.Times)-1 {
		delta := t.Angles[i+1] - r
		if t.Shortest {
			delta = common.WrapDegrees(delta)
		}
		r += delta * pct
	}
	b := p.Bones[t.Bone]
	b.Rotation = b.Data.Rotation + r
}

func (t *RotateTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *RotateTimeline) validate(d *Definition) error {
	if len(t.Angles) != len(t.Times) {
		return fmt.Errorf("rotate timeline has %d angles for %d frames", len(t.Angles), len(t.Times))
	}
	return checkBone(d, t.Bone)
}

// TransformKind selects which bone property a TransformTimeline drives.
type TransformKind uint8

const (
	// TransformTranslate adds the keyed offset to the setup position.
	TransformTranslate TransformKind = iota
	// TransformScale multiplies the setup scale by the keyed factor.
	TransformScale
	// TransformShear adds the keyed angles to the setup shear.
	TransformShear
)

// TransformAxis limits a TransformTimeline to one component of its property.
type TransformAxis uint8

const (
	// AxisBoth keys X and Y together.
	AxisBoth TransformAxis = iota
	// AxisX keys only X; Y may be left empty.
	AxisX
	// AxisY keys only Y; X may be left empty.
	AxisY
)

// TransformTimeline keys a two-component bone property, or one component of it when
// Axis is set.
type TransformTimeline struct {
	Kind   TransformKind
	Axis   TransformAxis
	Bone   int
	Times  []float32
	X, Y   []float32
	Curves []Curve
}

func (t *TransformTimeline) Apply(p *Pose, time float32) {
	i, pct, ok := segment(t.Times, t.Curves, time)
	if !ok {
		return
	}
	b := p.Bones[t.Bone]
	if t.Axis != AxisY {
		x := keyValue(t.X, i, pct)
		switch t.Kind {
		case TransformTranslate:
			b.X = b.Data.X + x
		case TransformScale:
			b.ScaleX = b.Data.ScaleX * x
		case TransformShear:
			b.ShearX = b.Data.ShearX + x
		}
	}
	if t.Axis != AxisX {
		y := keyValue(t.Y, i, pct)
		switch t.Kind {
		case TransformTranslate:
			b.Y = b.Data.Y + y
		case TransformScale:
			b.ScaleY = b.Data.ScaleY * y
		case TransformShear:
			b.ShearY = b.Data.ShearY + y
		}
	}
}

func (t *TransformTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *TransformTimeline) validate(d *Definition) error {
	if t.Axis != AxisY && len(t.X) != len(t.Times) {
		return fmt.Errorf("transform timeline has %d x keys for %d frames", len(t.X), len(t.Times))
	}
	if t.Axis != AxisX && len(t.Y) != len(t.Times) {
		return fmt.Errorf("transform timeline has %d y keys for %d frames", len(t.Y), len(t.Times))
	}
	return checkBone(d, t.Bone)
}

// keyValue interpolates values between keyframe i and the next one.
func keyValue(values []float32, i int, pct float32) float32 {
	v := values[i]
	if i < len(values)-1 {
		v = common.Lerp(v, values[i+1], pct)
	}
	return v
}

// ColorChannels selects which components of a slot's tint a ColorTimeline drives.
type ColorChannels uint8

const (
	ChannelsRGBA ColorChannels = iota
	ChannelsRGB
	ChannelsAlpha
)

// ColorTimeline keys a slot's tint. Components outside Channels keep their current value.
type ColorTimeline struct {
	Slot     int
	Channels ColorChannels
	Times    []float32
	Colors   []Color
	Curves   []Curve
}

func (t *ColorTimeline) Apply(p *Pose, time float32) {
	i, pct, ok := segment(t.Times, t.Curves, time)
	if !ok {
		return
	}
	c := t.Colors[i]
	if i < len(t.Times)-1 {
		c = c.Lerp(t.Colors[i+1], pct)
	}
	s := p.Slots[t.Slot]
	switch t.Channels {
	case ChannelsRGB:
		c.A = s.Color.A
	case ChannelsAlpha:
		c = Color{R: s.Color.R, G: s.Color.G, B: s.Color.B, A: c.A}
	}
	s.Color = c
}

func (t *ColorTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *ColorTimeline) validate(d *Definition) error {
	if len(t.Colors) != len(t.Times) {
		return fmt.Errorf("color timeline has %d colors for %d frames", len(t.Colors), len(t.Times))
	}
	return checkSlot(d, t.Slot)
}

// AttachmentTimeline keys which attachment a slot shows. An empty name hides the slot.
type AttachmentTimeline struct {
	Slot  int
	Times []float32
	Names []string
}

func (t *AttachmentTimeline) Apply(p *Pose, time float32) {
	i := frameIndex(t.Times, time)
	if i < 0 {
		return
	}
	s := p.Slots[t.Slot]
	s.SetAttachment(p.Attachment(t.Slot, t.Names[i]))
}

func (t *AttachmentTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *AttachmentTimeline) validate(d *Definition) error {
	if len(t.Names) != len(t.Times) {
		return fmt.Errorf("attachment timeline has %d names for %d frames", len(t.Names), len(t.Times))
	}
	return checkSlot(d, t.Slot)
}

// DrawOrderTimeline keys the slot draw order. A nil order restores the setup order.
type DrawOrderTimeline struct {
	Times  []float32
	Orders [][]int
}

func (t *DrawOrderTimeline) Apply(p *Pose, time float32) {
	i := frameIndex(t.Times, time)
	if i < 0 {
		return
	}
	order := t.Orders[i]
	if order == nil {
		copy(p.DrawOrder, p.Slots)
		return
	}
	for j, slot := range order {
		p.DrawOrder[j] = p.Slots[slot]
	}
}

func (t *DrawOrderTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *DrawOrderTimeline) validate(d *Definition) error {
	if len(t.Orders) != len(t.Times) {
		return fmt.Errorf("draw order timeline has %d orders for %d frames", len(t.Orders), len(t.Times))
	}
	for _, order := range t.Orders {
		if order == nil {
			continue
		}
		if len(order) != len(d.Slots) {
			return fmt.Errorf("draw order lists %d slots, skeleton has %d", len(order), len(d.Slots))
		}
		for _, s := range order {
			if err := checkSlot(d, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeformTimeline keys mesh vertex positions for one slot and attachment.
// Frames of unweighted meshes hold absolute positions; weighted frames hold offsets.
type DeformTimeline struct {
	Slot       int
	Attachment Attachment
	Times      []float32
	Vertices   [][]float32
	Curves     []Curve
}

func (t *DeformTimeline) Apply(p *Pose, time float32) {
	s := p.Slots[t.Slot]
	if s.Attachment != t.Attachment {
		return
	}
	i, pct, ok := segment(t.Times, t.Curves, time)
	if !ok {
		return
	}
	prev := t.Vertices[i]
	if cap(s.Deform) < len(prev) {
		s.Deform = make([]float32, len(prev))
	}
	s.Deform = s.Deform[:len(prev)]
	if i >= len(t.Times)-1 {
		copy(s.Deform, prev)
		return
	}
	next := t.Vertices[i+1]
	for j := range s.Deform {
		s.Deform[j] = prev[j] + (next[j]-prev[j])*pct
	}
}

func (t *DeformTimeline) Duration() float32 { return lastTime(t.Times) }

func (t *DeformTimeline) validate(d *Definition) error {
	if len(t.Vertices) != len(t.Times) {
		return fmt.Errorf("deform timeline has %d frames of vertices for %d frames", len(t.Vertices), len(t.Times))
	}
	for _, v := range t.Vertices {
		if len(v) != len(t.Vertices[0]) {
			return fmt.Errorf("deform timeline frames differ in length")
		}
	}
	if m, ok := t.Attachment.(*MeshAttachment); ok && len(t.Vertices) > 0 {
		if want := m.DeformLength(); len(t.Vertices[0]) != want {
			return fmt.Errorf("deform timeline for mesh %q has %d values per frame, want %d", m.Name, len(t.Vertices[0]), want)
		}
	}
	return checkSlot(d, t.Slot)
}

package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when a skeleton document is not well-formed JSON.
var ErrInvalidJSON = errors.New("skeleton document is not valid JSON")

// errLegacyLayout marks a construct that only exists in the Spine 3 layout. Decoding in the
// Spine 4 layout stops at the first one so the Spine 3 decoder can take over.
var errLegacyLayout = errors.New("spine 3 layout")

type spineLayout int

const (
	layoutSpine4 spineLayout = iota
	layoutSpine3
)

func (l spineLayout) String() string {
	if l == layoutSpine3 {
		return "spine 3"
	}
	return "spine 4"
}

// spineJSONBackend decodes Spine JSON exports. Spine 4.x documents are read in the 4.x
// layout; documents that declare a 3.x or 2.x version, or fail in the 4.x layout, are
// read in the 3.x layout.
type spineJSONBackend struct{}

var _ skeletonBackend = spineJSONBackend{}

func (spineJSONBackend) Extension() string { return ".json" }

func (spineJSONBackend) Decode(data []byte, atlas *skeleton.Atlas) (*skeleton.Definition, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	version := root.Get("skeleton.spine").Str
	if strings.HasPrefix(version, "3.") || strings.HasPrefix(version, "2.") {
		return decodeSpine(root, atlas, layoutSpine3)
	}

	def, err4 := decodeSpine(root, atlas, layoutSpine4)
	if err4 == nil {
		return def, nil
	}
	def, err3 := decodeSpine(root, atlas, layoutSpine3)
	if err3 == nil {
		return def, nil
	}
	return nil, errors.Join(fmt.Errorf("%s: %w", layoutSpine4, err4), fmt.Errorf("%s: %w", layoutSpine3, err3))
}

type binder interface {
	Bind(atlas *skeleton.Atlas) error
}

type linkedMesh struct {
	mesh   *skeleton.MeshAttachment
	slot   int
	skin   string
	parent string
}

type spineDecoder struct {
	layout spineLayout
	atlas  *skeleton.Atlas
	def    *skeleton.Definition
	bound  []binder
	linked []linkedMesh
}

func decodeSpine(root gjson.Result, atlas *skeleton.Atlas, layout spineLayout) (*skeleton.Definition, error) {
	d := &spineDecoder{
		layout: layout,
		atlas:  atlas,
		def: &skeleton.Definition{
			Name:    root.Get("skeleton.hash").Str,
			Version: root.Get("skeleton.spine").Str,
		},
	}
	if err := d.bones(root.Get("bones")); err != nil {
		return nil, err
	}
	if err := d.slots(root.Get("slots")); err != nil {
		return nil, err
	}
	if err := d.skins(root.Get("skins")); err != nil {
		return nil, err
	}
	if err := d.resolveLinked(); err != nil {
		return nil, err
	}
	for _, b := range d.bound {
		if err := b.Bind(atlas); err != nil {
			return nil, err
		}
	}
	err := forEach(root.Get("animations"), func(name, value gjson.Result) error {
		anim, err := d.animation(name.Str, value)
		if err != nil {
			return fmt.Errorf("animation %q: %w", name.Str, err)
		}
		d.def.Animations = append(d.def.Animations, anim)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.def, nil
}

func (d *spineDecoder) bones(bones gjson.Result) error {
	err := forEach(bones, func(_, b gjson.Result) error {
		name := b.Get("name").Str
		if name == "" {
			return errors.New("bone without a name")
		}
		parent := -1
		if p := b.Get("parent"); p.Exists() {
			pd := d.def.FindBone(p.Str)
			if pd == nil {
				return fmt.Errorf("bone %q: parent %q not found", name, p.Str)
			}
			parent = pd.Index
		}
		// Spine 4.2 renamed the bone's "transform" key to "inherit".
		inherit, err := skeleton.ParseInherit(str(b, "inherit", b.Get("transform").Str))
		if err != nil {
			return fmt.Errorf("bone %q: %w", name, err)
		}
		d.def.Bones = append(d.def.Bones, &skeleton.BoneData{
			Index:    len(d.def.Bones),
			Name:     name,
			Parent:   parent,
			Length:   num(b, "length", 0),
			X:        num(b, "x", 0),
			Y:        num(b, "y", 0),
			Rotation: num(b, "rotation", 0),
			ScaleX:   num(b, "scaleX", 1),
			ScaleY:   num(b, "scaleY", 1),
			ShearX:   num(b, "shearX", 0),
			ShearY:   num(b, "shearY", 0),
			Inherit:  inherit,
		})
		return nil
	})
	if err != nil {
		return err
	}
	if len(d.def.Bones) == 0 {
		return errors.New("skeleton has no bones")
	}
	return nil
}

func (d *spineDecoder) slots(slots gjson.Result) error {
	return forEach(slots, func(_, s gjson.Result) error {
		name := s.Get("name").Str
		bone := d.def.FindBone(s.Get("bone").Str)
		if bone == nil {
			return fmt.Errorf("slot %q: bone %q not found", name, s.Get("bone").Str)
		}
		color, err := skeleton.ParseColor(str(s, "color", "FFFFFFFF"))
		if err != nil {
			return fmt.Errorf("slot %q: %w", name, err)
		}
		d.def.Slots = append(d.def.Slots, &skeleton.SlotData{
			Index:      len(d.def.Slots),
			Name:       name,
			Bone:       bone.Index,
			Color:      color,
			Attachment: s.Get("attachment").Str,
			Blend:      parseBlend(s.Get("blend").Str),
		})
		return nil
	})
}

func parseBlend(s string) skeleton.BlendMode {
	switch s {
	case "additive":
		return skeleton.BlendAdditive
	case "multiply":
		return skeleton.BlendMultiply
	case "screen":
		return skeleton.BlendScreen
	}
	return skeleton.BlendNormal
}

func (d *spineDecoder) skins(skins gjson.Result) error {
	switch {
	case skins.IsArray():
		return forEach(skins, func(_, s gjson.Result) error {
			return d.skin(s.Get("name").Str, s.Get("attachments"))
		})
	case skins.IsObject():
		if d.layout == layoutSpine4 {
			return fmt.Errorf("%w: skins keyed by name", errLegacyLayout)
		}
		return forEach(skins, func(name, s gjson.Result) error {
			return d.skin(name.Str, s)
		})
	}
	return nil
}

func (d *spineDecoder) skin(name string, attachments gjson.Result) error {
	skin := skeleton.NewSkin(name)
	err := forEach(attachments, func(slotName, entries gjson.Result) error {
		slot := d.def.FindSlot(slotName.Str)
		if slot == nil {
			return fmt.Errorf("skin %q: slot %q not found", name, slotName.Str)
		}
		return forEach(entries, func(key, value gjson.Result) error {
			att, err := d.attachment(slot.Index, key.Str, value)
			if err != nil {
				return fmt.Errorf("skin %q slot %q attachment %q: %w", name, slotName.Str, key.Str, err)
			}
			if att != nil {
				skin.SetAttachment(slot.Index, key.Str, att)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}
	d.def.Skins = append(d.def.Skins, skin)
	if name == "default" {
		d.def.Default = skin
	}
	return nil
}

// attachment builds a region or mesh attachment. Other attachment types (bounding boxes,
// paths, points, clipping) are not drawn and return nil.
func (d *spineDecoder) attachment(slot int, key string, a gjson.Result) (skeleton.Attachment, error) {
	name := str(a, "name", key)
	path := str(a, "path", name)
	color, err := skeleton.ParseColor(str(a, "color", "FFFFFFFF"))
	if err != nil {
		return nil, err
	}

	switch str(a, "type", "region") {
	case "region":
		r := &skeleton.RegionAttachment{
			Name:     name,
			Path:     path,
			X:        num(a, "x", 0),
			Y:        num(a, "y", 0),
			Rotation: num(a, "rotation", 0),
			ScaleX:   num(a, "scaleX", 1),
			ScaleY:   num(a, "scaleY", 1),
			Width:    num(a, "width", 32),
			Height:   num(a, "height", 32),
			Color:    color,
		}
		d.bound = append(d.bound, r)
		return r, nil

	case "mesh", "skinnedmesh", "weightedmesh":
		m := &skeleton.MeshAttachment{
			Name:       name,
			Path:       path,
			Color:      color,
			RegionUVs:  floats(a.Get("uvs")),
			Triangles:  indices(a.Get("triangles")),
			HullLength: int(a.Get("hull").Int()),
		}
		if len(m.RegionUVs) == 0 || len(m.RegionUVs)%2 != 0 {
			return nil, fmt.Errorf("mesh has %d uv floats", len(m.RegionUVs))
		}
		if err := m.SetVertices(floats(a.Get("vertices")), len(m.RegionUVs)); err != nil {
			return nil, err
		}
		d.bound = append(d.bound, m)
		return m, nil

	case "linkedmesh":
		m := &skeleton.MeshAttachment{Name: name, Path: path, Color: color}
		d.linked = append(d.linked, linkedMesh{
			mesh:   m,
			slot:   slot,
			skin:   str(a, "skin", "default"),
			parent: a.Get("parent").Str,
		})
		d.bound = append(d.bound, m)
		return m, nil
	}
	return nil, nil
}

// resolveLinked copies geometry from each linked mesh's parent once every skin is known.
func (d *spineDecoder) resolveLinked() error {
	for _, l := range d.linked {
		parent, ok := d.def.FindSkin(l.skin).Attachment(l.slot, l.parent).(*skeleton.MeshAttachment)
		if !ok {
			return fmt.Errorf("linked mesh %q: parent mesh %q not found in skin %q", l.mesh.Name, l.parent, l.skin)
		}
		l.mesh.Bones = parent.Bones
		l.mesh.Vertices = parent.Vertices
		l.mesh.RegionUVs = parent.RegionUVs
		l.mesh.Triangles = parent.Triangles
		l.mesh.HullLength = parent.HullLength
		l.mesh.WorldLength = parent.WorldLength
	}
	return nil
}

func (d *spineDecoder) animation(name string, a gjson.Result) (*skeleton.Animation, error) {
	var timelines []skeleton.Timeline
	add := func(tl skeleton.Timeline, err error) error {
		if err != nil {
			return err
		}
		if tl != nil {
			timelines = append(timelines, tl)
		}
		return nil
	}

	err := forEach(a.Get("bones"), func(boneName, props gjson.Result) error {
		bone := d.def.FindBone(boneName.Str)
		if bone == nil {
			return fmt.Errorf("bone %q not found", boneName.Str)
		}
		return forEach(props, func(kind, frames gjson.Result) error {
			switch kind.Str {
			case "rotate":
				return add(d.rotate(bone.Index, frames))
			case "translate":
				return add(d.transform(skeleton.TransformTranslate, bone.Index, frames, 0))
			case "scale":
				return add(d.transform(skeleton.TransformScale, bone.Index, frames, 1))
			case "shear":
				return add(d.transform(skeleton.TransformShear, bone.Index, frames, 0))
			case "translatex":
				return add(d.transformAxis(skeleton.TransformTranslate, skeleton.AxisX, bone.Index, frames, 0))
			case "translatey":
				return add(d.transformAxis(skeleton.TransformTranslate, skeleton.AxisY, bone.Index, frames, 0))
			case "scalex":
				return add(d.transformAxis(skeleton.TransformScale, skeleton.AxisX, bone.Index, frames, 1))
			case "scaley":
				return add(d.transformAxis(skeleton.TransformScale, skeleton.AxisY, bone.Index, frames, 1))
			case "shearx":
				return add(d.transformAxis(skeleton.TransformShear, skeleton.AxisX, bone.Index, frames, 0))
			case "sheary":
				return add(d.transformAxis(skeleton.TransformShear, skeleton.AxisY, bone.Index, frames, 0))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	err = forEach(a.Get("slots"), func(slotName, props gjson.Result) error {
		slot := d.def.FindSlot(slotName.Str)
		if slot == nil {
			return fmt.Errorf("slot %q not found", slotName.Str)
		}
		return forEach(props, func(kind, frames gjson.Result) error {
			switch kind.Str {
			case "attachment":
				return add(attachmentTimeline(slot.Index, frames), nil)
			case "rgba":
				return add(d.color(slot, frames, "color", skeleton.ChannelsRGBA))
			case "rgb":
				return add(d.color(slot, frames, "color", skeleton.ChannelsRGB))
			case "rgba2":
				return add(d.color(slot, frames, "light", skeleton.ChannelsRGBA))
			case "rgb2":
				return add(d.color(slot, frames, "light", skeleton.ChannelsRGB))
			case "alpha":
				return add(d.alpha(slot, frames))
			case "color":
				if d.layout == layoutSpine4 {
					return fmt.Errorf("%w: slot color timeline", errLegacyLayout)
				}
				return add(d.color(slot, frames, "color", skeleton.ChannelsRGBA))
			case "twoColor":
				return add(d.color(slot, frames, "light", skeleton.ChannelsRGBA))
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Spine 3 and 4.0 keep deforms in their own section; 4.1 nests them under attachments.
	err = forEach(a.Get("deform"), func(skin, slots gjson.Result) error {
		return forEach(slots, func(slot, atts gjson.Result) error {
			return forEach(atts, func(att, frames gjson.Result) error {
				return add(d.deform(skin.Str, slot.Str, att.Str, frames))
			})
		})
	})
	if err != nil {
		return nil, err
	}
	err = forEach(a.Get("attachments"), func(skin, slots gjson.Result) error {
		return forEach(slots, func(slot, atts gjson.Result) error {
			return forEach(atts, func(att, kinds gjson.Result) error {
				if frames := kinds.Get("deform"); frames.Exists() {
					return add(d.deform(skin.Str, slot.Str, att.Str, frames))
				}
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	order := a.Get("drawOrder")
	if !order.Exists() {
		order = a.Get("draworder")
	}
	if order.Exists() {
		if err := add(d.drawOrder(order)); err != nil {
			return nil, err
		}
	}
	return skeleton.NewAnimation(name, timelines), nil
}

func (d *spineDecoder) rotate(bone int, frames gjson.Result) (skeleton.Timeline, error) {
	key := "value"
	if d.layout == layoutSpine3 {
		key = "angle"
	}
	tl := &skeleton.RotateTimeline{Bone: bone, Shortest: d.layout == layoutSpine3}
	keys := frames.Array()
	for _, f := range keys {
		if d.layout == layoutSpine4 && f.Get("angle").Exists() {
			return nil, fmt.Errorf("%w: rotate angle key", errLegacyLayout)
		}
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.Angles = append(tl.Angles, num(f, key, 0))
	}
	if len(keys) == 0 {
		return nil, nil
	}
	curves, err := d.curves(keys, tl.Times, tl.Angles)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

func (d *spineDecoder) transform(kind skeleton.TransformKind, bone int, frames gjson.Result, def float32) (skeleton.Timeline, error) {
	tl := &skeleton.TransformTimeline{Kind: kind, Bone: bone}
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}
	for _, f := range keys {
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.X = append(tl.X, num(f, "x", def))
		tl.Y = append(tl.Y, num(f, "y", def))
	}
	curves, err := d.curves(keys, tl.Times, tl.X)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

// transformAxis reads a 4.1 single component timeline, whose frames key "value".
func (d *spineDecoder) transformAxis(kind skeleton.TransformKind, axis skeleton.TransformAxis, bone int, frames gjson.Result, def float32) (skeleton.Timeline, error) {
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}
	tl := &skeleton.TransformTimeline{Kind: kind, Axis: axis, Bone: bone}
	values := make([]float32, 0, len(keys))
	for _, f := range keys {
		tl.Times = append(tl.Times, num(f, "time", 0))
		values = append(values, num(f, "value", def))
	}
	if axis == skeleton.AxisX {
		tl.X = values
	} else {
		tl.Y = values
	}
	curves, err := d.curves(keys, tl.Times, values)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

// color reads tint frames from key. Two color frames keep their light color in "light";
// the dark color is not rendered.
func (d *spineDecoder) color(slot *skeleton.SlotData, frames gjson.Result, key string, channels skeleton.ColorChannels) (skeleton.Timeline, error) {
	tl := &skeleton.ColorTimeline{Slot: slot.Index, Channels: channels}
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}
	reds := make([]float32, 0, len(keys))
	for _, f := range keys {
		c, err := skeleton.ParseColor(str(f, key, "FFFFFFFF"))
		if err != nil {
			return nil, fmt.Errorf("slot %q: %w", slot.Name, err)
		}
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.Colors = append(tl.Colors, c)
		reds = append(reds, c.R)
	}
	curves, err := d.curves(keys, tl.Times, reds)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

func (d *spineDecoder) alpha(slot *skeleton.SlotData, frames gjson.Result) (skeleton.Timeline, error) {
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}
	tl := &skeleton.ColorTimeline{Slot: slot.Index, Channels: skeleton.ChannelsAlpha}
	alphas := make([]float32, 0, len(keys))
	for _, f := range keys {
		a := num(f, "value", 1)
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.Colors = append(tl.Colors, skeleton.Color{A: a})
		alphas = append(alphas, a)
	}
	curves, err := d.curves(keys, tl.Times, alphas)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

func attachmentTimeline(slot int, frames gjson.Result) skeleton.Timeline {
	keys := frames.Array()
	if len(keys) == 0 {
		return nil
	}
	tl := &skeleton.AttachmentTimeline{Slot: slot}
	for _, f := range keys {
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.Names = append(tl.Names, f.Get("name").Str)
	}
	return tl
}

func (d *spineDecoder) drawOrder(frames gjson.Result) (skeleton.Timeline, error) {
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}
	tl := &skeleton.DrawOrderTimeline{}
	for _, f := range keys {
		tl.Times = append(tl.Times, num(f, "time", 0))
		offsets := f.Get("offsets")
		if !offsets.Exists() {
			tl.Orders = append(tl.Orders, nil)
			continue
		}
		order, err := d.applyOffsets(offsets.Array())
		if err != nil {
			return nil, err
		}
		tl.Orders = append(tl.Orders, order)
	}
	return tl, nil
}

// applyOffsets resolves the named slot moves of one draw order key.
func (d *spineDecoder) applyOffsets(offsets []gjson.Result) ([]int, error) {
	moves := make([]slotMove, 0, len(offsets))
	for _, o := range offsets {
		slot := d.def.FindSlot(o.Get("slot").Str)
		if slot == nil {
			return nil, fmt.Errorf("draw order: slot %q not found", o.Get("slot").Str)
		}
		moves = append(moves, slotMove{slot: slot.Index, offset: int(o.Get("offset").Int())})
	}
	return orderFromMoves(len(d.def.Slots), moves)
}

type slotMove struct {
	slot   int
	offset int
}

// orderFromMoves turns a list of slot moves into a full draw order. Slots that are not moved
// fill the remaining positions in setup order.
func orderFromMoves(n int, moves []slotMove) ([]int, error) {
	order := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	unchanged := make([]int, 0, n)
	original := 0
	for _, m := range moves {
		if m.slot < original || m.slot >= n {
			return nil, fmt.Errorf("draw order: slot %d listed out of order", m.slot)
		}
		for ; original < m.slot; original++ {
			unchanged = append(unchanged, original)
		}
		target := original + m.offset
		if target < 0 || target >= n || order[target] != -1 {
			return nil, fmt.Errorf("draw order: slot %d moved to invalid position %d", m.slot, target)
		}
		order[target] = original
		original++
	}
	for ; original < n; original++ {
		unchanged = append(unchanged, original)
	}
	u := len(unchanged)
	for i := n - 1; i >= 0; i-- {
		if order[i] != -1 {
			continue
		}
		u--
		if u < 0 {
			return nil, errors.New("draw order: offsets overlap")
		}
		order[i] = unchanged[u]
	}
	return order, nil
}

// deform expands sparse deform frames to full vertex arrays. Frames of unweighted meshes
// become absolute positions by adding the setup vertices.
func (d *spineDecoder) deform(skinName, slotName, attName string, frames gjson.Result) (skeleton.Timeline, error) {
	skin := d.def.FindSkin(skinName)
	slot := d.def.FindSlot(slotName)
	if skin == nil || slot == nil {
		return nil, fmt.Errorf("deform: skin %q slot %q not found", skinName, slotName)
	}
	mesh, ok := skin.Attachment(slot.Index, attName).(*skeleton.MeshAttachment)
	if !ok {
		return nil, nil
	}
	keys := frames.Array()
	if len(keys) == 0 {
		return nil, nil
	}

	length := mesh.DeformLength()
	tl := &skeleton.DeformTimeline{Slot: slot.Index, Attachment: mesh}
	for _, f := range keys {
		verts := make([]float32, length)
		raw := floats(f.Get("vertices"))
		start := int(f.Get("offset").Int())
		if start < 0 || start+len(raw) > length {
			return nil, fmt.Errorf("deform %q: %d vertices at offset %d exceed %d", attName, len(raw), start, length)
		}
		copy(verts[start:], raw)
		if !mesh.Weighted() {
			for i := range verts {
				verts[i] += mesh.Vertices[i]
			}
		}
		tl.Times = append(tl.Times, num(f, "time", 0))
		tl.Vertices = append(tl.Vertices, verts)
	}
	curves, err := d.curves(keys, tl.Times, nil)
	if err != nil {
		return nil, err
	}
	tl.Curves = curves
	return tl, nil
}

// curves reads the segment curve stored on every keyframe but the last.
//
// Spine 3 stores bezier control points already normalized, either as a four element array
// or as curve plus c2, c3 and c4. Spine 4 stores absolute (time, value) control points for
// every channel; the first channel is normalized against values, or against 0..1 when
// values is nil.
func (d *spineDecoder) curves(keys []gjson.Result, times, values []float32) ([]skeleton.Curve, error) {
	if len(keys) < 2 {
		return nil, nil
	}
	out := make([]skeleton.Curve, len(keys)-1)
	for i := range out {
		c := keys[i].Get("curve")
		switch {
		case !c.Exists():
			out[i] = skeleton.Linear
		case c.Type == gjson.String:
			out[i] = skeleton.Linear
			if c.Str == "stepped" {
				out[i] = skeleton.Stepped
			}
		case d.layout == layoutSpine3 && c.Type == gjson.Number:
			out[i] = skeleton.NewBezier(float32(c.Float()), num(keys[i], "c2", 0), num(keys[i], "c3", 1), num(keys[i], "c4", 1))
		case d.layout == layoutSpine4 && c.Type == gjson.Number:
			return nil, fmt.Errorf("%w: scalar curve", errLegacyLayout)
		case c.IsArray():
			v := floats(c)
			if len(v) < 4 {
				return nil, fmt.Errorf("curve at key %d has %d values", i, len(v))
			}
			if d.layout == layoutSpine3 {
				out[i] = skeleton.NewBezier(v[0], v[1], v[2], v[3])
				continue
			}
			v0, v1 := float32(0), float32(1)
			if values != nil {
				v0, v1 = values[i], values[i+1]
			}
			out[i] = normalizedBezier(v[:4], times[i], times[i+1], v0, v1)
		default:
			return nil, fmt.Errorf("curve at key %d is malformed", i)
		}
	}
	return out, nil
}

func normalizedBezier(cp []float32, t0, t1, v0, v1 float32) skeleton.Curve {
	span := t1 - t0
	if span <= 0 {
		return skeleton.Linear
	}
	cx1 := (cp[0] - t0) / span
	cx2 := (cp[2] - t0) / span
	cy1, cy2 := cx1, cx2
	if rng := v1 - v0; rng != 0 {
		cy1 = (cp[1] - v0) / rng
		cy2 = (cp[3] - v0) / rng
	}
	return skeleton.NewBezier(cx1, cy1, cx2, cy2)
}

// forEach visits the members of an object or array in document order and stops at the
// first error.
func forEach(r gjson.Result, fn func(key, value gjson.Result) error) error {
	var err error
	r.ForEach(func(key, value gjson.Result) bool {
		err = fn(key, value)
		return err == nil
	})
	return err
}

func num(r gjson.Result, key string, def float32) float32 {
	v := r.Get(key)
	if v.Type != gjson.Number {
		return def
	}
	return float32(v.Float())
}

func str(r gjson.Result, key, def string) string {
	v := r.Get(key)
	if v.Type != gjson.String {
		return def
	}
	return v.Str
}

func floats(r gjson.Result) []float32 {
	arr := r.Array()
	out := make([]float32, len(arr))
	for i, v := range arr {
		out[i] = float32(v.Float())
	}
	return out
}

func indices(r gjson.Result) []uint32 {
	arr := r.Array()
	out := make([]uint32, len(arr))
	for i, v := range arr {
		out[i] = uint32(v.Uint())
	}
	return out
}

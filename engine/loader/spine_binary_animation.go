package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// Slot timeline tags. 3.8 only knows attachment, color and two color, which share the
// first three values with 4.x attachment, rgba and rgb.
const (
	slotAttachment byte = iota
	slotRGBA
	slotRGB
	slotRGBA2
	slotRGB2
	slotAlpha
)

// 3.8 slot timeline tags that differ from 4.x.
const (
	slotColor38    = slotRGBA
	slotTwoColor38 = slotRGB
)

// 4.x bone timeline tags.
const (
	boneRotate byte = iota
	boneTranslate
	boneTranslateX
	boneTranslateY
	boneScale
	boneScaleX
	boneScaleY
	boneShear
	boneShearX
	boneShearY
)

// 3.8 bone timeline tags.
const (
	boneRotate38 byte = iota
	boneTranslate38
	boneScale38
	boneShear38
)

// 4.1 attachment timeline tags.
const (
	attachmentDeform byte = iota
	attachmentSequence
)

// Path constraint timeline tags.
const (
	pathPosition byte = iota
	pathSpacing
	pathMix
)

// curveFrames holds the keys of one 4.x curve timeline, one value slice per channel.
type curveFrames struct {
	times  []float32
	values [][]float32
	curves []skeleton.Curve
}

// curve4 reads the segment curve between two 4.x keys. Bezier segments store four control
// values per channel; only the first channel is kept and normalized.
func (d *spineBinaryDecoder) curve4(t0, t1, v0, v1 float32, channels int) skeleton.Curve {
	r := d.r
	switch r.byte() {
	case binaryCurveStepped:
		return skeleton.Stepped
	case binaryCurveBezier:
		cp := r.floats(4)
		r.skip((channels - 1) * 4 * 4)
		if r.err != nil {
			return skeleton.Linear
		}
		return normalizedBezier(cp, t0, t1, v0, v1)
	}
	return skeleton.Linear
}

// frames4 reads a 4.x curve timeline whose keys are a time followed by channels floats.
// extra bytes follow every key's values.
func (d *spineBinaryDecoder) frames4(frames, channels, extra int) curveFrames {
	r := d.r
	out := curveFrames{values: make([][]float32, channels)}
	time := r.float()
	cur := r.floats(channels)
	for f := 0; r.err == nil; f++ {
		r.skip(extra)
		out.times = append(out.times, time)
		for c := range cur {
			out.values[c] = append(out.values[c], cur[c])
		}
		if f >= frames-1 {
			break
		}
		next := r.float()
		values := r.floats(channels)
		if r.err != nil {
			break
		}
		out.curves = append(out.curves, d.curve4(time, next, cur[0], values[0], channels))
		time, cur = next, values
	}
	return out
}

// colorFrames4 reads a 4.x slot color timeline whose keys hold size color bytes.
func (d *spineBinaryDecoder) colorFrames4(slot, frames, size int) *skeleton.ColorTimeline {
	r := d.r
	tl := &skeleton.ColorTimeline{Slot: slot, Channels: skeleton.ChannelsRGBA}
	switch size {
	case 3, 6:
		tl.Channels = skeleton.ChannelsRGB
	case 1:
		tl.Channels = skeleton.ChannelsAlpha
	}
	read := func() (skeleton.Color, float32) {
		b := make([]float32, size)
		for i := range b {
			b[i] = float32(r.byte()) / 255
		}
		switch size {
		case 1:
			return skeleton.Color{A: b[0]}, b[0]
		case 3, 6:
			return skeleton.Color{R: b[0], G: b[1], B: b[2], A: 1}, b[0]
		}
		return skeleton.Color{R: b[0], G: b[1], B: b[2], A: b[3]}, b[0]
	}

	time := r.float()
	c, v := read()
	for f := 0; r.err == nil; f++ {
		tl.Times = append(tl.Times, time)
		tl.Colors = append(tl.Colors, c)
		if f >= frames-1 {
			break
		}
		next := r.float()
		nc, nv := read()
		tl.Curves = append(tl.Curves, d.curve4(time, next, v, nv, size))
		time, c, v = next, nc, nv
	}
	return tl
}

func (d *spineBinaryDecoder) attachmentFrames(slot, frames int) *skeleton.AttachmentTimeline {
	tl := &skeleton.AttachmentTimeline{Slot: slot}
	for range frames {
		tl.Times = append(tl.Times, d.r.float())
		name, _ := d.ref()
		tl.Names = append(tl.Names, name)
	}
	return tl
}

// deformFrames reads sparse deform keys. Unweighted frames become absolute positions by
// adding the setup vertices. Keys for attachments that are not drawn are read and dropped.
func (d *spineBinaryDecoder) deformFrames(skin *skeleton.Skin, slot int, name string, frames int, curve func(t0, t1 float32) skeleton.Curve) (skeleton.Timeline, error) {
	r := d.r
	mesh, _ := skin.Attachment(slot, name).(*skeleton.MeshAttachment)
	length := 0
	if mesh != nil {
		length = mesh.DeformLength()
	}
	tl := &skeleton.DeformTimeline{Slot: slot, Attachment: mesh}

	time := r.float()
	for f := 0; r.err == nil; f++ {
		verts := make([]float32, length)
		if end := r.count(); end > 0 {
			start := int(r.varint(false))
			if mesh != nil && (start < 0 || start+end > length) {
				return nil, fmt.Errorf("deform %q: %d vertices at offset %d exceed %d", name, end, start, length)
			}
			for i := range end {
				v := r.float()
				if mesh != nil {
					verts[start+i] = v
				}
			}
		}
		if mesh != nil && !mesh.Weighted() {
			for i := range verts {
				verts[i] += mesh.Vertices[i]
			}
		}
		tl.Times = append(tl.Times, time)
		tl.Vertices = append(tl.Vertices, verts)
		if f >= frames-1 {
			break
		}
		next := r.float()
		tl.Curves = append(tl.Curves, curve(time, next))
		time = next
	}
	if mesh == nil {
		return nil, nil
	}
	return tl, nil
}

func (d *spineBinaryDecoder) drawOrderFrames() (skeleton.Timeline, error) {
	r := d.r
	n := r.count()
	if n == 0 {
		return nil, nil
	}
	tl := &skeleton.DrawOrderTimeline{}
	for range n {
		tl.Times = append(tl.Times, r.float())
		var moves []slotMove
		for range r.count() {
			slot := int(r.varint(false))
			moves = append(moves, slotMove{slot: slot, offset: int(r.varint(false))})
		}
		if r.err != nil {
			return nil, nil
		}
		if moves == nil {
			tl.Orders = append(tl.Orders, nil)
			continue
		}
		order, err := orderFromMoves(len(d.def.Slots), moves)
		if err != nil {
			return nil, err
		}
		tl.Orders = append(tl.Orders, order)
	}
	return tl, nil
}

// skipEventFrames consumes the event timeline; events are not dispatched.
func (d *spineBinaryDecoder) skipEventFrames() {
	r := d.r
	for range r.count() {
		r.skip(4) // time
		event := r.index(len(d.eventAudio), "event")
		r.varint(true) // int
		r.skip(4)      // float
		if r.bool() {
			r.str()
		}
		if r.err == nil && d.eventAudio[event] {
			r.skip(8) // volume, balance
		}
	}
}

func (d *spineBinaryDecoder) animation4() ([]skeleton.Timeline, error) {
	r := d.r
	var timelines []skeleton.Timeline
	add := func(tl skeleton.Timeline) {
		if tl != nil && r.err == nil {
			timelines = append(timelines, tl)
		}
	}
	r.varint(false) // timeline count hint

	for range r.count() {
		slot := r.index(len(d.def.Slots), "slot")
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			if kind == slotAttachment {
				add(d.attachmentFrames(slot, frames))
				continue
			}
			r.varint(false) // bezier count
			switch kind {
			case slotRGBA:
				add(d.colorFrames4(slot, frames, 4))
			case slotRGB:
				add(d.colorFrames4(slot, frames, 3))
			case slotRGBA2:
				add(d.colorFrames4(slot, frames, 7))
			case slotRGB2:
				add(d.colorFrames4(slot, frames, 6))
			case slotAlpha:
				add(d.colorFrames4(slot, frames, 1))
			default:
				return nil, fmt.Errorf("unknown slot timeline type %d", kind)
			}
		}
	}

	for range r.count() {
		bone := r.index(len(d.def.Bones), "bone")
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			r.varint(false) // bezier count
			tl, err := d.boneFrames4(bone, kind, frames)
			if err != nil {
				return nil, err
			}
			add(tl)
		}
	}

	for range r.count() { // IK: mix and softness, then bend direction, compress and stretch
		r.varint(false)
		frames := r.count()
		r.varint(false)
		d.frames4(frames, 2, 3)
	}
	for range r.count() { // transform constraints
		r.varint(false)
		frames := r.count()
		r.varint(false)
		d.frames4(frames, 6, 0)
	}
	for range r.count() { // path constraints
		r.varint(false)
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			r.varint(false)
			if kind == pathMix {
				d.frames4(frames, 3, 0)
			} else {
				d.frames4(frames, 1, 0)
			}
		}
	}

	for range r.count() {
		skin := d.skinAt()
		for range r.count() {
			slot := r.index(len(d.def.Slots), "slot")
			for range r.count() {
				name, _ := d.ref()
				kind := attachmentDeform
				if d.format == binarySpine41 {
					kind = r.byte()
				}
				frames := r.count()
				switch kind {
				case attachmentDeform:
					r.varint(false) // bezier count
					tl, err := d.deformFrames(skin, slot, name, frames, func(t0, t1 float32) skeleton.Curve {
						return d.curve4(t0, t1, 0, 1, 1)
					})
					if err != nil {
						return nil, err
					}
					add(tl)
				case attachmentSequence:
					r.skip(frames * 12) // time, mode and index, delay
				default:
					return nil, fmt.Errorf("unknown attachment timeline type %d", kind)
				}
			}
		}
	}

	tl, err := d.drawOrderFrames()
	if err != nil {
		return nil, err
	}
	add(tl)
	d.skipEventFrames()
	return timelines, nil
}

// skinAt reads a skin index. Indices count the default skin only when the file has one.
func (d *spineBinaryDecoder) skinAt() *skeleton.Skin {
	i := d.r.index(len(d.def.Skins), "skin")
	if d.r.err != nil {
		return nil
	}
	return d.def.Skins[i]
}

func (d *spineBinaryDecoder) boneFrames4(bone int, kind byte, frames int) (skeleton.Timeline, error) {
	single := func(k skeleton.TransformKind, axis skeleton.TransformAxis) skeleton.Timeline {
		f := d.frames4(frames, 1, 0)
		tl := &skeleton.TransformTimeline{Kind: k, Axis: axis, Bone: bone, Times: f.times, Curves: f.curves}
		if axis == skeleton.AxisX {
			tl.X = f.values[0]
		} else {
			tl.Y = f.values[0]
		}
		return tl
	}
	double := func(k skeleton.TransformKind) skeleton.Timeline {
		f := d.frames4(frames, 2, 0)
		return &skeleton.TransformTimeline{Kind: k, Bone: bone, Times: f.times, X: f.values[0], Y: f.values[1], Curves: f.curves}
	}

	switch kind {
	case boneRotate:
		f := d.frames4(frames, 1, 0)
		return &skeleton.RotateTimeline{Bone: bone, Times: f.times, Angles: f.values[0], Curves: f.curves}, nil
	case boneTranslate:
		return double(skeleton.TransformTranslate), nil
	case boneTranslateX:
		return single(skeleton.TransformTranslate, skeleton.AxisX), nil
	case boneTranslateY:
		return single(skeleton.TransformTranslate, skeleton.AxisY), nil
	case boneScale:
		return double(skeleton.TransformScale), nil
	case boneScaleX:
		return single(skeleton.TransformScale, skeleton.AxisX), nil
	case boneScaleY:
		return single(skeleton.TransformScale, skeleton.AxisY), nil
	case boneShear:
		return double(skeleton.TransformShear), nil
	case boneShearX:
		return single(skeleton.TransformShear, skeleton.AxisX), nil
	case boneShearY:
		return single(skeleton.TransformShear, skeleton.AxisY), nil
	}
	return nil, fmt.Errorf("unknown bone timeline type %d", kind)
}

// curve38 reads a 3.8 segment curve, whose bezier control points are already normalized.
func (d *spineBinaryDecoder) curve38() skeleton.Curve {
	r := d.r
	switch r.byte() {
	case binaryCurveStepped:
		return skeleton.Stepped
	case binaryCurveBezier:
		cp := r.floats(4)
		if r.err != nil {
			return skeleton.Linear
		}
		return skeleton.NewBezier(cp[0], cp[1], cp[2], cp[3])
	}
	return skeleton.Linear
}

// frames38 reads a 3.8 timeline whose keys are a time, channels floats and extra bytes,
// with a curve after every key but the last.
func (d *spineBinaryDecoder) frames38(frames, channels, extra int) curveFrames {
	r := d.r
	out := curveFrames{values: make([][]float32, channels)}
	for f := 0; f < frames && r.err == nil; f++ {
		out.times = append(out.times, r.float())
		for c := range channels {
			out.values[c] = append(out.values[c], r.float())
		}
		r.skip(extra)
		if f < frames-1 {
			out.curves = append(out.curves, d.curve38())
		}
	}
	return out
}

func (d *spineBinaryDecoder) animation38() ([]skeleton.Timeline, error) {
	r := d.r
	var timelines []skeleton.Timeline
	add := func(tl skeleton.Timeline) {
		if tl != nil && r.err == nil {
			timelines = append(timelines, tl)
		}
	}

	for range r.count() {
		slot := r.index(len(d.def.Slots), "slot")
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			switch kind {
			case slotAttachment:
				add(d.attachmentFrames(slot, frames))
			case slotColor38, slotTwoColor38:
				tl := &skeleton.ColorTimeline{Slot: slot}
				for f := 0; f < frames && r.err == nil; f++ {
					tl.Times = append(tl.Times, r.float())
					tl.Colors = append(tl.Colors, r.color())
					if kind == slotTwoColor38 {
						r.int32() // dark color
					}
					if f < frames-1 {
						tl.Curves = append(tl.Curves, d.curve38())
					}
				}
				add(tl)
			default:
				return nil, fmt.Errorf("unknown slot timeline type %d", kind)
			}
		}
	}

	for range r.count() {
		bone := r.index(len(d.def.Bones), "bone")
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			var k skeleton.TransformKind
			switch kind {
			case boneRotate38:
				f := d.frames38(frames, 1, 0)
				add(&skeleton.RotateTimeline{Bone: bone, Times: f.times, Angles: f.values[0], Curves: f.curves, Shortest: true})
				continue
			case boneTranslate38:
				k = skeleton.TransformTranslate
			case boneScale38:
				k = skeleton.TransformScale
			case boneShear38:
				k = skeleton.TransformShear
			default:
				return nil, fmt.Errorf("unknown bone timeline type %d", kind)
			}
			f := d.frames38(frames, 2, 0)
			add(&skeleton.TransformTimeline{Kind: k, Bone: bone, Times: f.times, X: f.values[0], Y: f.values[1], Curves: f.curves})
		}
	}

	for range r.count() { // IK: mix and softness, then bend direction, compress and stretch
		r.varint(false)
		d.frames38(r.count(), 2, 3)
	}
	for range r.count() { // transform constraints
		r.varint(false)
		d.frames38(r.count(), 4, 0)
	}
	for range r.count() { // path constraints
		r.varint(false)
		for range r.count() {
			kind := r.byte()
			frames := r.count()
			if kind == pathMix {
				d.frames38(frames, 2, 0)
			} else {
				d.frames38(frames, 1, 0)
			}
		}
	}

	for range r.count() {
		skin := d.skinAt()
		for range r.count() {
			slot := r.index(len(d.def.Slots), "slot")
			for range r.count() {
				name, _ := d.ref()
				frames := r.count()
				tl, err := d.deformFrames38(skin, slot, name, frames)
				if err != nil {
					return nil, err
				}
				add(tl)
			}
		}
	}

	tl, err := d.drawOrderFrames()
	if err != nil {
		return nil, err
	}
	add(tl)
	d.skipEventFrames()
	return timelines, nil
}

// deformFrames38 reads 3.8 deform keys, which carry their curve after the vertices
// instead of between key times.
func (d *spineBinaryDecoder) deformFrames38(skin *skeleton.Skin, slot int, name string, frames int) (skeleton.Timeline, error) {
	r := d.r
	mesh, _ := skin.Attachment(slot, name).(*skeleton.MeshAttachment)
	length := 0
	if mesh != nil {
		length = mesh.DeformLength()
	}
	tl := &skeleton.DeformTimeline{Slot: slot, Attachment: mesh}
	for f := 0; f < frames && r.err == nil; f++ {
		time := r.float()
		verts := make([]float32, length)
		if end := r.count(); end > 0 {
			start := int(r.varint(false))
			if mesh != nil && (start < 0 || start+end > length) {
				return nil, fmt.Errorf("deform %q: %d vertices at offset %d exceed %d", name, end, start, length)
			}
			for i := range end {
				v := r.float()
				if mesh != nil {
					verts[start+i] = v
				}
			}
		}
		if mesh != nil && !mesh.Weighted() {
			for i := range verts {
				verts[i] += mesh.Vertices[i]
			}
		}
		tl.Times = append(tl.Times, time)
		tl.Vertices = append(tl.Vertices, verts)
		if f < frames-1 {
			tl.Curves = append(tl.Curves, d.curve38())
		}
	}
	if mesh == nil {
		return nil, nil
	}
	return tl, nil
}

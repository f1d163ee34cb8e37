package loader

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// ErrNotSpineBinary is returned for .skel data that is not a Spine 3.8, 4.0 or 4.1 binary
// export.
var ErrNotSpineBinary = errors.New("not a supported Spine binary skeleton")

type binaryFormat int

const (
	binarySpine38 binaryFormat = iota
	binarySpine40
	binarySpine41
)

// Attachment type tags.
const (
	binaryRegion byte = iota
	binaryBoundingBox
	binaryMesh
	binaryLinkedMesh
	binaryPath
	binaryPoint
	binaryClipping
)

// Curve type tags.
const (
	binaryCurveLinear byte = iota
	binaryCurveStepped
	binaryCurveBezier
)

// spineBinaryBackend decodes native Spine binary exports. Constraint, event and sequence
// data is read to keep the stream aligned and then dropped, as the renderer has no use
// for it.
type spineBinaryBackend struct{}

var _ skeletonBackend = spineBinaryBackend{}

func (spineBinaryBackend) Extension() string { return ".skel" }

func (spineBinaryBackend) Decode(data []byte, atlas *skeleton.Atlas) (*skeleton.Definition, error) {
	if bytes.HasPrefix(data, []byte(binaryMagic)) {
		return nil, fmt.Errorf("%w: data is a skeleton container", ErrNotSpineBinary)
	}
	r, format, version, err := readBinaryHeader(data)
	if err != nil {
		return nil, err
	}
	d := &spineBinaryDecoder{
		spineDecoder: &spineDecoder{
			layout: layoutSpine4,
			atlas:  atlas,
			def:    &skeleton.Definition{Version: version},
		},
		r:      r,
		format: format,
	}
	if format == binarySpine38 {
		d.layout = layoutSpine3
	}
	if err := d.decode(); err != nil {
		return nil, fmt.Errorf("spine %s binary: %w", version, err)
	}
	return d.def, nil
}

// readBinaryHeader detects the format from the version string. 4.x files open with an
// 8 byte hash, 3.8 files with a hash string.
func readBinaryHeader(data []byte) (*binaryReader, binaryFormat, string, error) {
	r := newBinaryReader(data)
	r.int64()
	version, _ := r.str()
	if r.err == nil {
		switch {
		case strings.HasPrefix(version, "4.0"):
			return r, binarySpine40, version, nil
		case strings.HasPrefix(version, "4.1"):
			return r, binarySpine41, version, nil
		}
	}

	legacy := newBinaryReader(data)
	legacy.str()
	if v, _ := legacy.str(); legacy.err == nil && strings.HasPrefix(v, "3.8") {
		return legacy, binarySpine38, v, nil
	} else if legacy.err == nil && isVersion(v) {
		version = v
	}
	if r.err == nil && isVersion(version) {
		return nil, 0, "", fmt.Errorf("%w: version %s", ErrNotSpineBinary, version)
	}
	return nil, 0, "", ErrNotSpineBinary
}

func isVersion(v string) bool {
	return len(v) >= 3 && v[0] >= '2' && v[0] <= '9' && v[1] == '.'
}

type spineBinaryDecoder struct {
	*spineDecoder
	r            *binaryReader
	format       binaryFormat
	nonessential bool
	strings      []string
	eventAudio   []bool
}

func (d *spineBinaryDecoder) decode() error {
	r := d.r
	r.skip(16) // x, y, width, height
	d.nonessential = r.bool()
	if d.nonessential {
		r.skip(4) // fps
		r.str()   // images path
		r.str()   // audio path
	}
	for range r.count() {
		s, _ := r.str()
		d.strings = append(d.strings, s)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"bones", d.bones},
		{"slots", d.slots},
		{"constraints", d.constraints},
		{"skins", d.skins},
		{"linked meshes", d.resolveLinked},
		{"atlas", d.bind},
		{"events", d.events},
		{"animations", d.animations},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		if r.err != nil {
			return fmt.Errorf("%s: %w", step.name, r.err)
		}
	}
	return nil
}

// ref reads a string table reference; zero is the null string.
func (d *spineBinaryDecoder) ref() (string, bool) {
	i := d.r.varint(false)
	if d.r.err != nil || i == 0 {
		return "", false
	}
	if i < 0 || int(i) > len(d.strings) {
		d.r.fail(fmt.Errorf("string reference %d out of range", i))
		return "", false
	}
	return d.strings[i-1], true
}

func (d *spineBinaryDecoder) bind() error {
	for _, b := range d.bound {
		if err := b.Bind(d.atlas); err != nil {
			return err
		}
	}
	return nil
}

func (d *spineBinaryDecoder) bones() error {
	r := d.r
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		name, _ := r.str()
		parent := -1
		if i > 0 {
			parent = r.index(i, "parent bone")
		}
		b := &skeleton.BoneData{Index: i, Name: name, Parent: parent}
		b.Rotation = r.float()
		b.X = r.float()
		b.Y = r.float()
		b.ScaleX = r.float()
		b.ScaleY = r.float()
		b.ShearX = r.float()
		b.ShearY = r.float()
		b.Length = r.float()
		mode := r.index(int(skeleton.InheritNoScaleOrReflection)+1, "inherit mode")
		b.Inherit = skeleton.Inherit(mode)
		r.bool() // skin required
		if d.nonessential {
			r.int32() // editor color
		}
		d.def.Bones = append(d.def.Bones, b)
	}
	if r.err == nil && len(d.def.Bones) == 0 {
		return errors.New("skeleton has no bones")
	}
	return nil
}

func (d *spineBinaryDecoder) slots() error {
	r := d.r
	n := r.count()
	for i := 0; i < n && r.err == nil; i++ {
		name, _ := r.str()
		s := &skeleton.SlotData{Index: i, Name: name}
		s.Bone = r.index(len(d.def.Bones), "slot bone")
		s.Color = r.color()
		r.int32() // dark color
		s.Attachment, _ = d.ref()
		s.Blend = skeleton.BlendMode(r.index(int(skeleton.BlendScreen)+1, "blend mode"))
		d.def.Slots = append(d.def.Slots, s)
	}
	return nil
}

// constraints skips IK, transform and path constraints.
func (d *spineBinaryDecoder) constraints() error {
	r := d.r
	skipHeader := func() {
		r.str()         // name
		r.varint(false) // order
		r.bool()        // skin required
		for range r.count() {
			r.varint(false) // bone
		}
		r.varint(false) // target
	}
	for range r.count() {
		skipHeader()
		r.skip(8) // mix, softness
		r.skip(4) // bend direction, compress, stretch, uniform
	}
	for range r.count() {
		skipHeader()
		r.skip(2)     // local, relative
		r.skip(6 * 4) // offsets
		if d.format == binarySpine38 {
			r.skip(4 * 4)
		} else {
			r.skip(6 * 4)
		}
	}
	for range r.count() {
		skipHeader()
		r.varint(false) // position mode
		r.varint(false) // spacing mode
		r.varint(false) // rotate mode
		r.skip(3 * 4)   // offset rotation, position, spacing
		if d.format == binarySpine38 {
			r.skip(2 * 4)
		} else {
			r.skip(3 * 4)
		}
	}
	return nil
}

func (d *spineBinaryDecoder) skins() error {
	r := d.r
	if err := d.skin(true); err != nil {
		return err
	}
	for range r.count() {
		if err := d.skin(false); err != nil {
			return err
		}
		if r.err != nil {
			break
		}
	}
	return nil
}

// skin reads one skin. The default skin has no name or constraint lists and is omitted
// entirely when it holds no attachments.
func (d *spineBinaryDecoder) skin(isDefault bool) error {
	r := d.r
	var (
		skin      *skeleton.Skin
		slotCount int
	)
	if isDefault {
		slotCount = r.count()
		if slotCount == 0 {
			return nil
		}
		skin = skeleton.NewSkin("default")
	} else {
		name, _ := d.ref()
		skin = skeleton.NewSkin(name)
		for range 4 { // bones, IK, transform and path constraints
			for range r.count() {
				r.varint(false)
			}
		}
		slotCount = r.count()
	}

	for range slotCount {
		slot := r.index(len(d.def.Slots), "skin slot")
		for range r.count() {
			key, _ := d.ref()
			att, err := d.attachment(slot, key)
			if err != nil {
				return fmt.Errorf("skin %q slot %d attachment %q: %w", skin.Name, slot, key, err)
			}
			if att != nil {
				skin.SetAttachment(slot, key, att)
			}
			if r.err != nil {
				return nil
			}
		}
	}
	d.def.Skins = append(d.def.Skins, skin)
	if isDefault {
		d.def.Default = skin
	}
	return nil
}

// attachment reads one attachment. Only regions and meshes are kept; the other types are
// consumed and return nil.
func (d *spineBinaryDecoder) attachment(slot int, key string) (skeleton.Attachment, error) {
	r := d.r
	name, ok := d.ref()
	if !ok {
		name = key
	}
	kind := r.byte()
	switch kind {
	case binaryRegion:
		path, ok := d.ref()
		if !ok {
			path = name
		}
		a := &skeleton.RegionAttachment{Name: name, Path: path}
		a.Rotation = r.float()
		a.X = r.float()
		a.Y = r.float()
		a.ScaleX = r.float()
		a.ScaleY = r.float()
		a.Width = r.float()
		a.Height = r.float()
		a.Color = r.color()
		d.sequence()
		d.bound = append(d.bound, a)
		return a, nil

	case binaryMesh:
		path, ok := d.ref()
		if !ok {
			path = name
		}
		color := r.color()
		vertexCount := r.count()
		uvs := r.floats(vertexCount * 2)
		triangles := d.shorts()
		raw := d.vertices(vertexCount)
		hull := int(r.varint(false))
		d.sequence()
		if d.nonessential {
			d.shorts() // edges
			r.skip(8)  // width, height
		}
		if r.err != nil {
			return nil, nil
		}
		m := &skeleton.MeshAttachment{
			Name:       name,
			Path:       path,
			Color:      color,
			RegionUVs:  uvs,
			Triangles:  triangles,
			HullLength: hull,
		}
		if err := m.SetVertices(raw, len(uvs)); err != nil {
			return nil, err
		}
		d.bound = append(d.bound, m)
		return m, nil

	case binaryLinkedMesh:
		path, ok := d.ref()
		if !ok {
			path = name
		}
		color := r.color()
		skinName, ok := d.ref()
		if !ok {
			skinName = "default"
		}
		parent, _ := d.ref()
		r.bool() // inherit timelines
		d.sequence()
		if d.nonessential {
			r.skip(8) // width, height
		}
		m := &skeleton.MeshAttachment{Name: name, Path: path, Color: color}
		d.linked = append(d.linked, linkedMesh{mesh: m, slot: slot, skin: skinName, parent: parent})
		d.bound = append(d.bound, m)
		return m, nil

	case binaryBoundingBox:
		d.vertices(r.count())
		d.editorColor()
	case binaryPath:
		r.skip(2) // closed, constant speed
		n := r.count()
		d.vertices(n)
		r.skip(n / 3 * 4) // lengths
		d.editorColor()
	case binaryPoint:
		r.skip(3 * 4) // rotation, x, y
		d.editorColor()
	case binaryClipping:
		r.varint(false) // end slot
		d.vertices(r.count())
		d.editorColor()
	default:
		return nil, fmt.Errorf("unknown attachment type %d", kind)
	}
	return nil, nil
}

func (d *spineBinaryDecoder) editorColor() {
	if d.nonessential {
		d.r.int32()
	}
}

// sequence skips the 4.1 texture sequence block.
func (d *spineBinaryDecoder) sequence() {
	if d.format != binarySpine41 {
		return
	}
	if d.r.bool() {
		for range 4 { // count, start, digits, setup index
			d.r.varint(false)
		}
	}
}

func (d *spineBinaryDecoder) shorts() []uint32 {
	n := d.r.count()
	out := make([]uint32, 0, n)
	for range n {
		out = append(out, uint32(d.r.short()))
	}
	return out
}

// vertices reads a vertex block into the packed layout MeshAttachment.SetVertices takes.
func (d *spineBinaryDecoder) vertices(count int) []float32 {
	r := d.r
	if !r.bool() {
		return r.floats(count * 2)
	}
	raw := make([]float32, 0, count*5)
	for i := 0; i < count && r.err == nil; i++ {
		bones := r.count()
		raw = append(raw, float32(bones))
		for range bones {
			raw = append(raw, float32(r.varint(false)), r.float(), r.float(), r.float())
		}
	}
	return raw
}

func (d *spineBinaryDecoder) events() error {
	r := d.r
	for range r.count() {
		d.ref()        // name
		r.varint(true) // int
		r.skip(4)      // float
		r.str()        // string
		_, audio := r.str()
		if audio {
			r.skip(8) // volume, balance
		}
		d.eventAudio = append(d.eventAudio, audio)
	}
	return nil
}

func (d *spineBinaryDecoder) animations() error {
	r := d.r
	for range r.count() {
		name, _ := r.str()
		var (
			timelines []skeleton.Timeline
			err       error
		)
		if d.format == binarySpine38 {
			timelines, err = d.animation38()
		} else {
			timelines, err = d.animation4()
		}
		if err == nil {
			err = r.err
		}
		if err != nil {
			return fmt.Errorf("animation %q: %w", name, err)
		}
		d.def.Animations = append(d.def.Animations, skeleton.NewAnimation(name, timelines))
	}
	return nil
}

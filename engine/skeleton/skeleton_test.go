package skeleton

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAtlas() *Atlas {
	page := &AtlasPage{Name: "page.png", Width: 200, Height: 100}
	body := &AtlasRegion{Name: "body", Page: page, X: 0, Y: 0, Width: 100, Height: 50, OriginalWidth: 100, OriginalHeight: 50}
	body.ComputeUVs()
	cape := &AtlasRegion{Name: "cape", Page: page, X: 100, Y: 0, Width: 100, Height: 100, OriginalWidth: 100, OriginalHeight: 100}
	cape.ComputeUVs()
	return &Atlas{Pages: []*AtlasPage{page}, Regions: []*AtlasRegion{body, cape}}
}

// testDefinition builds root -> arm with a region on root and a mesh on arm.
func testDefinition(t *testing.T) *Definition {
	t.Helper()
	atlas := testAtlas()

	def := &Definition{
		Name: "test",
		Bones: []*BoneData{
			{Index: 0, Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Index: 1, Name: "arm", Parent: 0, X: 10, ScaleX: 1, ScaleY: 1},
		},
		Slots: []*SlotData{
			{Index: 0, Name: "body", Bone: 0, Color: White, Attachment: "body"},
			{Index: 1, Name: "cape", Bone: 1, Color: White, Attachment: "cape"},
		},
	}

	region := &RegionAttachment{Name: "body", ScaleX: 1, ScaleY: 1, Width: 100, Height: 50, Color: White}
	require.NoError(t, region.Bind(atlas))

	mesh := &MeshAttachment{Name: "cape", Color: White, RegionUVs: []float32{0, 1, 0, 0, 1, 0}, Triangles: []uint32{0, 1, 2}}
	require.NoError(t, mesh.SetVertices([]float32{0, 0, 0, 10, 10, 10}, 6))
	require.NoError(t, mesh.Bind(atlas))

	skin := NewSkin("default")
	skin.SetAttachment(0, "body", region)
	skin.SetAttachment(1, "cape", mesh)
	def.Skins = []*Skin{skin}
	def.Default = skin
	return def
}

func TestBoneWorldTransform(t *testing.T) {
	def := testDefinition(t)
	def.Bones[0].Rotation = 90
	p := NewPose(def)

	arm := p.FindBone("arm")
	require.NotNil(t, arm)
	assert.InDelta(t, 0, arm.WorldX, 1e-4)
	assert.InDelta(t, 10, arm.WorldY, 1e-4)
	assert.InDelta(t, 0, arm.A, 1e-4)
	assert.InDelta(t, 1, arm.C, 1e-4)
}

func TestRegionAttachmentCorners(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)

	region, ok := p.Slots[0].Attachment.(*RegionAttachment)
	require.True(t, ok)
	assert.Equal(t, [8]float32{0, 0.5, 0, 0, 0.5, 0, 0.5, 0.5}, region.UVs)

	out := make([]float32, 8)
	region.ComputeWorldVertices(p.Slots[0].Bone, out)
	want := []float32{-50, -25, -50, 25, 50, 25, 50, -25}
	for i := range want {
		assert.InDelta(t, want[i], out[i], 1e-4, "component %d", i)
	}
}

func TestRegionAttachmentRotatedUVs(t *testing.T) {
	page := &AtlasPage{Width: 100, Height: 100}
	reg := &AtlasRegion{Name: "r", Page: page, Width: 20, Height: 40, Degrees: 90}
	reg.ComputeUVs()
	assert.InDelta(t, 0.4, reg.U2, 1e-6)
	assert.InDelta(t, 0.2, reg.V2, 1e-6)

	a := &RegionAttachment{Name: "r", ScaleX: 1, ScaleY: 1, Width: 20, Height: 40}
	require.NoError(t, a.Bind(&Atlas{Regions: []*AtlasRegion{reg}}))
	assert.Equal(t, [8]float32{reg.U2, reg.V, reg.U2, reg.V2, reg.U, reg.V2, reg.U, reg.V}, a.UVs)
}

func TestRegionBindMissing(t *testing.T) {
	a := &RegionAttachment{Name: "ghost"}
	assert.Error(t, a.Bind(testAtlas()))
}

func TestMeshWorldVertices(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)
	slot := p.Slots[1]

	mesh := slot.Attachment.(*MeshAttachment)
	assert.False(t, mesh.Weighted())
	assert.Equal(t, 3, mesh.VertexCount())
	assert.Equal(t, []float32{0.5, 1, 0.5, 0, 1, 0}, mesh.UVs)

	out := make([]float32, 6)
	mesh.ComputeWorldVertices(slot, p.Bones, out)
	want := []float32{10, 0, 10, 10, 20, 10}
	for i := range want {
		assert.InDelta(t, want[i], out[i], 1e-4, "component %d", i)
	}
}

func TestWeightedMesh(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)

	mesh := &MeshAttachment{Name: "w"}
	raw := []float32{
		2, 0, 0, 0, 0.5, 1, 0, 0, 0.5,
		1, 1, 0, 4, 1,
	}
	require.NoError(t, mesh.SetVertices(raw, 4))
	assert.True(t, mesh.Weighted())
	assert.Equal(t, []int{2, 0, 1, 1, 1}, mesh.Bones)

	slot := &Slot{Bone: p.Bones[0]}
	out := make([]float32, 4)
	mesh.ComputeWorldVertices(slot, p.Bones, out)
	assert.InDelta(t, 5, out[0], 1e-4)
	assert.InDelta(t, 0, out[1], 1e-4)
	assert.InDelta(t, 10, out[2], 1e-4)
	assert.InDelta(t, 4, out[3], 1e-4)

	slot.Deform = []float32{1, 1, 0, 0, 0, 0}
	mesh.ComputeWorldVertices(slot, p.Bones, out)
	assert.InDelta(t, 5.5, out[0], 1e-4)
	assert.InDelta(t, 0.5, out[1], 1e-4)
}

func TestWeightedMeshTruncated(t *testing.T) {
	mesh := &MeshAttachment{Name: "bad"}
	assert.Error(t, mesh.SetVertices([]float32{3, 0, 1, 1}, 2))
}

func TestCurves(t *testing.T) {
	assert.Equal(t, float32(0.25), Linear.Apply(0.25))
	assert.Equal(t, float32(0), Stepped.Apply(0.9))

	linearish := NewBezier(1.0/3, 1.0/3, 2.0/3, 2.0/3)
	assert.InDelta(t, 0.5, linearish.Apply(0.5), 1e-3)

	easeIn := NewBezier(0.9, 0, 1, 0.1)
	assert.Less(t, easeIn.Apply(0.5), float32(0.2))
	assert.Equal(t, float32(1), easeIn.Apply(1))
}

func TestTrackLoopingAndClamping(t *testing.T) {
	clip := NewAnimation("idle", []Timeline{
		&RotateTimeline{Bone: 0, Times: []float32{0, 2}, Angles: []float32{0, 90}},
	})
	assert.Equal(t, float32(2), clip.Duration)

	loop := NewTrack(clip, true)
	loop.Advance(2.5)
	assert.InDelta(t, 0.5, loop.AnimationTime(), 1e-5)
	assert.False(t, loop.Complete())

	once := NewTrack(clip, false)
	once.Advance(2.5)
	assert.Equal(t, float32(2), once.AnimationTime())
	assert.True(t, once.Complete())

	once.Advance(-1)
	assert.Equal(t, float32(2.5), once.Time)
}

func TestLoopingTrackTimeStaysWithinClip(t *testing.T) {
	clip := NewAnimation("idle", []Timeline{
		&RotateTimeline{Bone: 0, Times: []float32{0, 2}, Angles: []float32{0, 90}},
	})
	loop := NewTrack(clip, true)
	for i := 0; i < 100000; i++ {
		loop.Advance(1.0 / 60)
		require.Less(t, loop.Time, clip.Duration)
	}
	assert.GreaterOrEqual(t, loop.Time, float32(0))
	assert.InDelta(t, math.Mod(100000.0/60, 2), loop.AnimationTime(), 0.05)
}

func TestTimelinesApply(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)

	red := Color{R: 1, A: 1}
	clip := NewAnimation("walk", []Timeline{
		&RotateTimeline{Bone: 1, Times: []float32{0, 1}, Angles: []float32{0, 90}},
		&TransformTimeline{Kind: TransformTranslate, Bone: 0, Times: []float32{0, 1}, X: []float32{0, 10}, Y: []float32{0, 0}},
		&TransformTimeline{Kind: TransformScale, Bone: 0, Times: []float32{0}, X: []float32{2}, Y: []float32{3}},
		&ColorTimeline{Slot: 0, Times: []float32{0, 1}, Colors: []Color{White, red}, Curves: []Curve{Stepped}},
		&AttachmentTimeline{Slot: 1, Times: []float32{0.5}, Names: []string{""}},
		&DrawOrderTimeline{Times: []float32{0}, Orders: [][]int{{1, 0}}},
	})
	require.NoError(t, (&Definition{Bones: def.Bones, Slots: def.Slots, Animations: []*Animation{clip}}).Validate())

	clip.Apply(p, 0.5)
	assert.InDelta(t, 45, p.Bones[1].Rotation, 1e-4)
	assert.InDelta(t, 5, p.Bones[0].X, 1e-4)
	assert.Equal(t, float32(2), p.Bones[0].ScaleX)
	assert.Equal(t, float32(3), p.Bones[0].ScaleY)
	assert.Equal(t, White, p.Slots[0].Color)
	assert.Nil(t, p.Slots[1].Attachment)
	assert.Equal(t, "cape", p.DrawOrder[0].Data.Name)

	p.SetToSetupPose()
	assert.NotNil(t, p.Slots[1].Attachment)
	assert.Equal(t, "body", p.DrawOrder[0].Data.Name)
	assert.Equal(t, float32(0), p.Bones[1].Rotation)
}

func TestShortestRotation(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)

	tl := &RotateTimeline{Bone: 0, Times: []float32{0, 1}, Angles: []float32{170, -170}, Shortest: true}
	tl.Apply(p, 0.5)
	assert.InDelta(t, 180, p.Bones[0].Rotation, 1e-3)

	tl.Shortest = false
	tl.Apply(p, 0.5)
	assert.InDelta(t, 0, p.Bones[0].Rotation, 1e-3)
}

func TestDeformTimeline(t *testing.T) {
	def := testDefinition(t)
	p := NewPose(def)
	mesh := p.Slots[1].Attachment

	tl := &DeformTimeline{
		Slot:       1,
		Attachment: mesh,
		Times:      []float32{0, 1},
		Vertices:   [][]float32{{0, 0, 0, 10, 10, 10}, {0, 0, 0, 20, 20, 20}},
	}
	tl.Apply(p, 0.5)
	assert.Equal(t, []float32{0, 0, 0, 15, 15, 15}, p.Slots[1].Deform)

	p.Slots[1].SetAttachment(nil)
	assert.Empty(t, p.Slots[1].Deform)
}

func TestInheritModes(t *testing.T) {
	tests := []struct {
		name       string
		parent     BoneData
		inherit    Inherit
		a, b, c, d float32
		x, y       float32
	}{
		{
			name:    "normal takes on parent scale",
			parent:  BoneData{ScaleX: 2, ScaleY: 2},
			inherit: InheritNormal,
			a:       2, b: 0, c: 0, d: 2,
			x: 20, y: 0,
		},
		{
			name:    "no scale keeps unit axes",
			parent:  BoneData{ScaleX: 2, ScaleY: 2},
			inherit: InheritNoScale,
			a:       1, b: 0, c: 0, d: 1,
			x: 20, y: 0,
		},
		{
			name:    "no scale or reflection turns a mirrored parent into a rotation",
			parent:  BoneData{ScaleX: -2, ScaleY: 2},
			inherit: InheritNoScaleOrReflection,
			a:       -1, b: 0, c: 0, d: -1,
			x: -20, y: 0,
		},
		{
			name:    "only translation ignores parent rotation",
			parent:  BoneData{Rotation: 90, ScaleX: 1, ScaleY: 1},
			inherit: InheritOnlyTranslation,
			a:       1, b: 0, c: 0, d: 1,
			x: 0, y: 10,
		},
		{
			name:    "no rotation or reflection ignores parent rotation",
			parent:  BoneData{Rotation: 90, ScaleX: 1, ScaleY: 1},
			inherit: InheritNoRotationOrReflection,
			a:       1, b: 0, c: 0, d: 1,
			x: 0, y: 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := tt.parent
			parent.Index, parent.Name, parent.Parent = 0, "root", -1
			child := BoneData{Index: 1, Name: "child", Parent: 0, X: 10, ScaleX: 1, ScaleY: 1, Inherit: tt.inherit}
			p := NewPose(&Definition{Bones: []*BoneData{&parent, &child}})

			got := p.Bones[1]
			want := []float32{tt.a, tt.b, tt.c, tt.d, tt.x, tt.y}
			have := []float32{got.A, got.B, got.C, got.D, got.WorldX, got.WorldY}
			for i := range want {
				assert.InDelta(t, want[i], have[i], 1e-4, "component %d", i)
			}
		})
	}
}

func TestParseInherit(t *testing.T) {
	mode, err := ParseInherit("noScaleOrReflection")
	require.NoError(t, err)
	assert.Equal(t, InheritNoScaleOrReflection, mode)

	mode, err = ParseInherit("")
	require.NoError(t, err)
	assert.Equal(t, InheritNormal, mode)

	_, err = ParseInherit("sideways")
	assert.Error(t, err)
}

func TestValidateRejectsMalformedMeshes(t *testing.T) {
	tests := []struct {
		name  string
		build func(m *MeshAttachment)
		want  string
	}{
		{
			name: "triangle index past the last vertex",
			build: func(m *MeshAttachment) {
				m.Triangles = []uint32{0, 1, 2, 2, 3, 9}
			},
			want: "triangle index 9",
		},
		{
			name: "partial triangle",
			build: func(m *MeshAttachment) {
				m.Triangles = []uint32{0, 1}
			},
			want: "multiple of 3",
		},
		{
			name: "weighted vertex on a missing bone",
			build: func(m *MeshAttachment) {
				m.Bones = []int{1, 0, 1, 7, 1, 1, 1, 0}
				m.Vertices = make([]float32, 4*3)
			},
			want: "missing bone 7",
		},
		{
			name: "unweighted vertex count differs from uvs",
			build: func(m *MeshAttachment) {
				m.Vertices = m.Vertices[:6]
			},
			want: "vertex floats",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition(t)
			mesh := &MeshAttachment{Name: "quad", Path: "cape", Color: White, RegionUVs: []float32{0, 0, 1, 0, 1, 1, 0, 1}, Triangles: []uint32{0, 1, 2, 2, 3, 0}}
			require.NoError(t, mesh.SetVertices([]float32{0, 0, 1, 0, 1, 1, 0, 1}, 8))
			require.NoError(t, mesh.Bind(testAtlas()))
			def.Default.SetAttachment(1, "quad", mesh)
			require.NoError(t, def.Validate())

			tt.build(mesh)
			err := def.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
			assert.ErrorContains(t, err, `slot "cape"`)
		})
	}
}

func TestSetVerticesRejectsRunCountMismatch(t *testing.T) {
	mesh := &MeshAttachment{Name: "short"}
	raw := []float32{1, 0, 0, 0, 1}
	err := mesh.SetVertices(raw, 4)
	require.Error(t, err)
	assert.ErrorContains(t, err, "1 weighted vertices for 2 uvs")
}

func TestValidateRejectsMismatchedDeform(t *testing.T) {
	def := testDefinition(t)
	mesh := def.Default.Attachment(1, "cape")
	def.Animations = []*Animation{NewAnimation("wobble", []Timeline{
		&DeformTimeline{Slot: 1, Attachment: mesh, Times: []float32{0}, Vertices: [][]float32{{1, 2}}},
	})}
	assert.ErrorContains(t, def.Validate(), "2 values per frame, want 6")
}

func TestValidateRejectsChildBeforeParent(t *testing.T) {
	def := &Definition{Bones: []*BoneData{{Index: 0, Name: "child", Parent: 0}}}
	assert.Error(t, def.Validate())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("ff000080")
	require.NoError(t, err)
	assert.Equal(t, float32(1), c.R)
	assert.InDelta(t, 0.5, c.A, 0.01)

	c, err = ParseColor("00ff00")
	require.NoError(t, err)
	assert.Equal(t, float32(1), c.A)

	_, err = ParseColor("zz")
	assert.Error(t, err)
}

package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spine4Doc = `{
  "skeleton": {"hash": "hero", "spine": "4.1.24"},
  "bones": [
    {"name": "root"},
    {"name": "body", "parent": "root", "y": 10, "rotation": 90, "scaleX": 2, "transform": "noScale"}
  ],
  "slots": [
    {"name": "body", "bone": "body", "attachment": "body"},
    {"name": "face", "bone": "body", "attachment": "face", "color": "ffffff80", "blend": "additive"}
  ],
  "skins": [{"name": "default", "attachments": {
    "body": {"body": {"width": 20, "height": 10}},
    "face": {
      "face": {"type": "mesh", "uvs": [0,0, 1,0, 1,1, 0,1], "triangles": [0,1,2, 2,3,0],
               "vertices": [-5,-5, 5,-5, 5,5, -5,5], "hull": 4},
      "face_alt": {"type": "linkedmesh", "parent": "face", "path": "body"},
      "hitbox": {"type": "boundingbox", "vertexCount": 3, "vertices": [0,0, 1,0, 0,1]}
    }
  }}],
  "animations": {
    "Idle_01": {
      "bones": {"body": {
        "rotate": [{"value": 0, "curve": [0.25, 0, 0.75, 10]}, {"time": 1, "value": 10}],
        "translate": [{"x": 1, "y": 2}]
      }},
      "slots": {"face": {"rgba": [{"color": "ff0000ff"}, {"time": 0.5, "color": "00ff00ff"}]}},
      "attachments": {"default": {"face": {"face": {"deform": [
        {"time": 0},
        {"time": 1, "offset": 2, "vertices": [1, 1]}
      ]}}}},
      "drawOrder": [{"time": 0.5, "offsets": [{"slot": "body", "offset": 1}]}, {"time": 0.75}]
    },
    "Attack": {"slots": {"body": {"attachment": [{"time": 0.2, "name": null}]}}}
  }
}`

const spine3Doc = `{
  "skeleton": {"spine": "3.7.94"},
  "bones": [{"name": "root"}],
  "slots": [{"name": "body", "bone": "root", "attachment": "body", "color": "ffffff80"}],
  "skins": {"default": {"body": {"body": {"width": 20, "height": 10}}}},
  "animations": {
    "Idle": {
      "bones": {"root": {
        "rotate": [{"time": 0, "angle": 350, "curve": [0.25, 0, 0.75, 1]}, {"time": 1, "angle": 10}],
        "translate": [{"time": 0, "x": 1, "curve": 0.25, "c3": 0.75}, {"time": 1, "x": 2}]
      }},
      "slots": {"body": {
        "color": [{"time": 0, "color": "ffffffff", "curve": "stepped"}, {"time": 1, "color": "000000ff"}],
        "rgb": [{"time": 0, "color": "ff0000"}]
      }}
    }
  }
}`

func testAtlas(t *testing.T) *skeleton.Atlas {
	t.Helper()
	atlas, err := ParseAtlas(strings.NewReader(legacyAtlas))
	require.NoError(t, err)
	return atlas
}

func TestDecodeSpine4(t *testing.T) {
	def, err := spineJSONBackend{}.Decode([]byte(spine4Doc), testAtlas(t))
	require.NoError(t, err)
	require.NoError(t, def.Validate())

	assert.Equal(t, "hero", def.Name)
	assert.Equal(t, []string{"Idle_01", "Attack"}, def.AnimationNames(), "clips keep document order")

	body := def.FindBone("body")
	assert.Equal(t, 0, body.Parent)
	assert.Equal(t, skeleton.InheritNoScale, body.Inherit)
	assert.Equal(t, float32(2), body.ScaleX)
	assert.Equal(t, float32(1), body.ScaleY)

	face := def.FindSlot("face")
	assert.Equal(t, skeleton.BlendAdditive, face.Blend)
	assert.InDelta(t, 128.0/255, face.Color.A, 1e-6)

	mesh, ok := def.Default.Attachment(face.Index, "face").(*skeleton.MeshAttachment)
	require.True(t, ok)
	assert.False(t, mesh.Weighted())
	assert.Equal(t, 4, mesh.VertexCount())
	assert.NotNil(t, mesh.Region)

	linked, ok := def.Default.Attachment(face.Index, "face_alt").(*skeleton.MeshAttachment)
	require.True(t, ok)
	assert.Equal(t, mesh.Triangles, linked.Triangles)
	assert.Equal(t, "body", linked.Region.Name)
	assert.Nil(t, def.Default.Attachment(face.Index, "hitbox"), "unsupported attachment types are skipped")

	idle := def.FindAnimation("Idle_01")
	assert.Equal(t, float32(1), idle.Duration)
	var (
		rotate    *skeleton.RotateTimeline
		deform    *skeleton.DeformTimeline
		drawOrder *skeleton.DrawOrderTimeline
		color     *skeleton.ColorTimeline
	)
	for _, tl := range idle.Timelines {
		switch v := tl.(type) {
		case *skeleton.RotateTimeline:
			rotate = v
		case *skeleton.DeformTimeline:
			deform = v
		case *skeleton.DrawOrderTimeline:
			drawOrder = v
		case *skeleton.ColorTimeline:
			color = v
		}
	}
	require.NotNil(t, rotate)
	assert.False(t, rotate.Shortest)
	assert.Equal(t, skeleton.NewBezier(0.25, 0, 0.75, 1), rotate.Curves[0], "absolute control points are normalized")

	require.NotNil(t, color)
	assert.Equal(t, skeleton.Color{R: 1, A: 1}, color.Colors[0])

	require.NotNil(t, deform)
	assert.Same(t, mesh, deform.Attachment)
	assert.Equal(t, []float32{-5, -5, 5, -5, 5, 5, -5, 5}, deform.Vertices[0])
	assert.Equal(t, []float32{-5, -5, 6, -4, 5, 5, -5, 5}, deform.Vertices[1])

	require.NotNil(t, drawOrder)
	assert.Equal(t, [][]int{{1, 0}, nil}, drawOrder.Orders)

	attack := def.FindAnimation("Attack")
	require.Len(t, attack.Timelines, 1)
	assert.Equal(t, []string{""}, attack.Timelines[0].(*skeleton.AttachmentTimeline).Names)
}

func TestDecodeSpine3ByVersion(t *testing.T) {
	def, err := spineJSONBackend{}.Decode([]byte(spine3Doc), testAtlas(t))
	require.NoError(t, err)
	checkSpine3(t, def)
}

func TestDecodeFallsBackToSpine3Layout(t *testing.T) {
	doc := strings.Replace(spine3Doc, `"spine": "3.7.94"`, `"hash": "legacy"`, 1)
	def, err := spineJSONBackend{}.Decode([]byte(doc), testAtlas(t))
	require.NoError(t, err)
	checkSpine3(t, def)
}

func checkSpine3(t *testing.T, def *skeleton.Definition) {
	t.Helper()
	require.NoError(t, def.Validate())
	idle := def.FindAnimation("Idle")
	require.NotNil(t, idle)
	require.Len(t, idle.Timelines, 4)

	rotate := idle.Timelines[0].(*skeleton.RotateTimeline)
	assert.True(t, rotate.Shortest)
	assert.Equal(t, []float32{350, 10}, rotate.Angles)
	assert.Equal(t, skeleton.NewBezier(0.25, 0, 0.75, 1), rotate.Curves[0])

	translate := idle.Timelines[1].(*skeleton.TransformTimeline)
	assert.Equal(t, []float32{0, 0}, translate.Y)
	assert.Equal(t, skeleton.NewBezier(0.25, 0, 0.75, 1), translate.Curves[0])

	color := idle.Timelines[2].(*skeleton.ColorTimeline)
	assert.Equal(t, skeleton.Stepped, color.Curves[0])

	rgb := idle.Timelines[3].(*skeleton.ColorTimeline)
	assert.Equal(t, skeleton.ChannelsRGB, rgb.Channels)
	pose := skeleton.NewPose(def)
	rgb.Apply(pose, 0)
	assert.Equal(t, float32(1), pose.Slots[0].Color.R)
	assert.Equal(t, float32(0), pose.Slots[0].Color.G)
	assert.InDelta(t, 128.0/255, pose.Slots[0].Color.A, 1e-6, "rgb keys keep the slot alpha")
}

func TestDecodeSingleAxisAndAlphaTimelines(t *testing.T) {
	doc := `{
  "skeleton": {"spine": "4.1.24"},
  "bones": [{"name": "root", "x": 3, "scaleY": 2}],
  "slots": [{"name": "body", "bone": "root", "attachment": "body", "color": "ff8000ff"}],
  "skins": [{"name": "default", "attachments": {"body": {"body": {"width": 20, "height": 10}}}}],
  "animations": {"Bob": {
    "bones": {"root": {
      "translatex": [{"value": 0}, {"time": 1, "value": 10}],
      "scaley": [{"value": 3}]
    }},
    "slots": {"body": {"alpha": [{"value": 1}, {"time": 1, "value": 0}]}}
  }}
}`
	def, err := spineJSONBackend{}.Decode([]byte(doc), testAtlas(t))
	require.NoError(t, err)
	require.NoError(t, def.Validate())

	bob := def.FindAnimation("Bob")
	require.Len(t, bob.Timelines, 3)
	translate := bob.Timelines[0].(*skeleton.TransformTimeline)
	assert.Equal(t, skeleton.AxisX, translate.Axis)
	assert.Empty(t, translate.Y)

	pose := skeleton.NewPose(def)
	bob.Apply(pose, 0.5)
	root := pose.Bones[0]
	assert.InDelta(t, 8, root.X, 1e-5)
	assert.Equal(t, float32(0), root.Y, "the y axis is left alone")
	assert.Equal(t, float32(1), root.ScaleX)
	assert.Equal(t, float32(6), root.ScaleY)

	c := pose.Slots[0].Color
	assert.Equal(t, float32(1), c.R, "alpha keys leave the tint alone")
	assert.InDelta(t, 128.0/255, c.G, 1e-6)
	assert.InDelta(t, 0.5, c.A, 1e-5)
}

func TestDecodeReportsBothLayouts(t *testing.T) {
	doc := `{"bones": [{"name": "root"}], "slots": [{"name": "s", "bone": "missing"}]}`
	_, err := spineJSONBackend{}.Decode([]byte(doc), testAtlas(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "spine 4")
	assert.ErrorContains(t, err, "spine 3")

	_, err = spineJSONBackend{}.Decode([]byte(`{"bones": [`), testAtlas(t))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = spineJSONBackend{}.Decode([]byte(`{"bones": []}`), testAtlas(t))
	assert.ErrorContains(t, err, "no bones")
}

func TestDecodeMissingRegion(t *testing.T) {
	doc := strings.Replace(spine4Doc, `"body": {"body": {"width": 20, "height": 10}}`, `"body": {"body": {"path": "nowhere"}}`, 1)
	_, err := spineJSONBackend{}.Decode([]byte(doc), testAtlas(t))
	assert.ErrorContains(t, err, `"nowhere"`)
}

func TestBinaryContainer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeBinarySkeleton(&buf, []byte(spine4Doc)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte(binaryMagic)))

	def, err := containerBackend{}.Decode(buf.Bytes(), testAtlas(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Idle_01", "Attack"}, def.AnimationNames())

	_, err = containerBackend{}.Decode([]byte("spine native binary"), testAtlas(t))
	assert.ErrorIs(t, err, ErrNotContainer)

	bad := append([]byte(nil), buf.Bytes()...)
	bad[len(binaryMagic)+1] = 9
	_, err = containerBackend{}.Decode(bad, testAtlas(t))
	assert.ErrorIs(t, err, ErrNotContainer)

	assert.ErrorIs(t, EncodeBinarySkeleton(&buf, []byte("{")), ErrInvalidJSON)
}

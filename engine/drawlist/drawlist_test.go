package drawlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverRect(t *testing.T) {
	r := CoverRect(1000, 500, 1280, 720)
	assert.InDelta(t, 1440, r.W, 1e-3)
	assert.InDelta(t, 720, r.H, 1e-3)
	assert.InDelta(t, -80, r.X, 1e-3)
	assert.InDelta(t, 0, r.Y, 1e-3)

	r = CoverRect(100, 400, 400, 400)
	assert.InDelta(t, 400, r.W, 1e-3)
	assert.InDelta(t, 1600, r.H, 1e-3)
	assert.InDelta(t, -600, r.Y, 1e-3)
}

func TestAppendQuadIndexesFromRunningCount(t *testing.T) {
	var m Mesh
	m.AppendRect(Rect{W: 10, H: 10}, UnitRect, White)
	m.AppendRect(Rect{X: 10, W: 10, H: 10}, UnitRect, White)

	require.Len(t, m.Vertices, 8)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}, m.Indices)
	assert.Equal(t, float32(20), m.Vertices[5].X)
	assert.Equal(t, float32(1), m.Vertices[6].U)
}

func TestColorConversions(t *testing.T) {
	assert.Equal(t, Color{255, 128, 0, 255}, ColorFromFloats(1, 0.5, -1, 2))
	assert.Equal(t, Color{99, 0, 0, 127}, Premultiply(200, 0, 0, 127))
}

func TestArenaReusesMeshes(t *testing.T) {
	var a Arena
	m1 := a.Next()
	m1.AppendTriangle(0, 0, 1, 0, 0, 1, White)
	a.Next()
	assert.Equal(t, 2, a.Cap())

	a.Reset()
	again := a.Next()
	assert.Same(t, m1, again)
	assert.True(t, again.Empty())
	assert.GreaterOrEqual(t, cap(again.Vertices), 3)
	assert.Equal(t, 2, a.Cap())
}

func TestDrawListStatsSkipsEmpty(t *testing.T) {
	var d DrawList
	d.Reset(1280, 720)

	var bg, empty, char Mesh
	bg.AppendRect(Rect{W: 1280, H: 720}, UnitRect, White)
	char.AppendTriangle(0, 0, 1, 0, 0, 1, White)
	d.Background = &bg
	d.Characters = append(d.Characters, &empty, &char)

	s := d.Stats()
	assert.Equal(t, Stats{Meshes: 2, Vertices: 7, Indices: 9}, s)
	assert.Equal(t, []*Mesh{&bg, &char}, d.Meshes())
}

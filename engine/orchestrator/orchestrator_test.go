package orchestrator

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
	"github.com/Carmen-Shannon/aefr-go/engine/scene"
	"github.com/Carmen-Shannon/aefr-go/engine/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroAtlas = `hero.png
size: 64,32
format: RGBA8888
filter: Linear,Linear
repeat: none
body
  rotate: false
  xy: 0, 0
  size: 20, 10
  orig: 20, 10
  offset: 0, 0
  index: -1
`

const heroSkeleton = `{
  "skeleton": {"spine": "4.1.24"},
  "bones": [{"name": "root"}],
  "slots": [{"name": "body", "bone": "root", "attachment": "body"}],
  "skins": [{"name": "default", "attachments": {"body": {"body": {"width": 20, "height": 10}}}}],
  "animations": {
    "idle": {"bones": {"root": {"rotate": [{"value": 0}, {"time": 1, "value": 90}]}}},
    "wave": {"bones": {"root": {"translate": [{"x": 5, "y": 0}]}}}
  }
}`

type fakeTexture struct {
	label    string
	w, h     uint32
	released int
}

func (f *fakeTexture) Label() string  { return f.label }
func (f *fakeTexture) Width() uint32  { return f.w }
func (f *fakeTexture) Height() uint32 { return f.h }
func (f *fakeTexture) Release()       { f.released++ }

type fakeRenderer struct {
	mu      sync.Mutex
	created []*fakeTexture
	fail    bool
}

func (r *fakeRenderer) CreateTexture(data common.TextureStagingData) (drawlist.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errors.New("device lost")
	}
	tex := &fakeTexture{label: data.Label, w: data.Width, h: data.Height}
	r.created = append(r.created, tex)
	return tex, nil
}

func (r *fakeRenderer) Render(*drawlist.DrawList) error { return nil }

func (r *fakeRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

type fakePlayer struct {
	mu      sync.Mutex
	bgm     string
	effects []string
	stops   int
}

var _ audio.Player = &fakePlayer{}

func (p *fakePlayer) PlayBgm(name string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bgm = name
	return nil
}

func (p *fakePlayer) PlaySe(name string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.effects = append(p.effects, name)
	return nil
}

func (p *fakePlayer) StopBgm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bgm = ""
	p.stops++
}

func (p *fakePlayer) Bgm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bgm
}

func (p *fakePlayer) Enabled() bool { return true }
func (p *fakePlayer) Close()        {}

type fakeCharacter struct {
	character.Character
	released int
}

func (f *fakeCharacter) Release() { f.released++ }

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeHero lays out a one-bone character under dir/name and returns its atlas path.
func writeHero(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writePNG(t, filepath.Join(dir, "hero.png"), 64, 32)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.atlas"), []byte(heroAtlas), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.json"), []byte(heroSkeleton), 0o644))
	return filepath.Join(dir, "hero.atlas")
}

func newTestOrchestrator(t *testing.T, options ...OrchestratorBuilderOption) (*orchestrator, *fakeRenderer, *fakePlayer) {
	t.Helper()
	r := &fakeRenderer{}
	p := &fakePlayer{}
	base := []OrchestratorBuilderOption{WithPlayer(p), WithScheduler(scheduler.NewScheduler(scheduler.WithWorkers(2)))}
	o, err := NewOrchestrator(r, append(base, options...)...)
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o.(*orchestrator), r, p
}

// frameUntil runs frames until cond holds or the test times out.
func frameUntil(t *testing.T, o Orchestrator, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, err := o.Frame(0.016, 1280, 720)
		return err == nil && cond()
	}, 5*time.Second, 5*time.Millisecond)
}

// settle runs frames until the loader is idle, then one more to drain its last results.
func settle(t *testing.T, o Orchestrator) {
	t.Helper()
	frameUntil(t, o, func() bool { return o.Loader().Pending() == 0 })
	_, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
}

func hasLog(s scene.Scene, prefix string) bool {
	return slices.ContainsFunc(s.Logs(), func(l string) bool { return strings.HasPrefix(l, prefix) })
}

func TestNewOrchestratorRequiresRenderer(t *testing.T) {
	_, err := NewOrchestrator(nil)
	assert.ErrorIs(t, err, ErrNoRenderer)
}

func TestLoadPopulatesSlotAndDraws(t *testing.T) {
	o, r, _ := newTestOrchestrator(t)
	path := writeHero(t, "a")

	o.Bus().Send(bus.RequestLoad{Slot: 1, Path: path})
	frameUntil(t, o, func() bool { return o.Scene().Character(1) != nil })

	assert.Equal(t, path, o.Scene().SlotPath(1))
	require.NotNil(t, o.Scene().Current().CharPaths[1])
	assert.Equal(t, path, *o.Scene().Current().CharPaths[1])
	assert.Equal(t, 1, r.count())
	assert.True(t, hasLog(o.Scene(), "[load] "+path))
	assert.True(t, hasLog(o.Scene(), "[load] slot 1 ready"))

	list, err := o.Frame(1, 1280, 720)
	require.NoError(t, err)
	require.Len(t, list.Characters, 1)
	assert.Len(t, list.Characters[0].Vertices, 4)
	assert.Len(t, list.Characters[0].Indices, 6)

	x, y, scale := o.Scene().Character(1).Layout()
	assert.InDelta(t, 1280*(0.15+0.175), x, 1e-3)
	assert.InDelta(t, 750, y, 1e-3)
	assert.InDelta(t, 0.45, scale, 1e-6)

	_, err = o.Frame(0, 1280, 360)
	require.NoError(t, err)
	_, _, scale = o.Scene().Character(1).Layout()
	assert.InDelta(t, 0.225, scale, 1e-6, "scale follows the viewport height")
}

func TestSameSlotDoubleLoadKeepsLatest(t *testing.T) {
	o, r, _ := newTestOrchestrator(t)
	first, second := writeHero(t, "first"), writeHero(t, "second")

	o.Bus().Send(bus.RequestLoad{Slot: 0, Path: first})
	o.Bus().Send(bus.RequestLoad{Slot: 0, Path: second})
	frameUntil(t, o, func() bool { return o.Scene().Character(0) != nil })
	settle(t, o)

	assert.Equal(t, second, o.Scene().SlotPath(0))
	assert.Equal(t, []int{0}, o.Scene().Populated())
	assert.Equal(t, 1, r.count(), "the superseded result never reaches the renderer")
}

func TestRemoveSupersedesInFlightLoad(t *testing.T) {
	o, r, _ := newTestOrchestrator(t)
	path := writeHero(t, "a")

	o.Bus().Send(bus.RequestLoad{Slot: 3, Path: path})
	o.Bus().Send(bus.RemoveCharacter{Slot: 3})
	settle(t, o)

	assert.Nil(t, o.Scene().Character(3))
	assert.Nil(t, o.Scene().Current().CharPaths[3])
	assert.Zero(t, r.count())
}

func TestSetAnimationRecordsClip(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	path := writeHero(t, "a")

	o.Bus().Send(bus.RequestLoad{Slot: 2, Path: path})
	frameUntil(t, o, func() bool { return o.Scene().Character(2) != nil })
	assert.Equal(t, "idle", o.Scene().Character(2).CurrentAnimation())

	o.Bus().Send(bus.SetAnimation{Slot: 2, Clip: "wave", Loop: false})
	o.Bus().Send(bus.SetAnimation{Slot: 2, Clip: "dance", Loop: true})
	o.Bus().Send(bus.SetAnimation{Slot: 4, Clip: "wave", Loop: true})
	_, err := o.Frame(0.016, 1280, 720)
	require.NoError(t, err)

	c := o.Scene().Character(2)
	assert.Equal(t, "wave", c.CurrentAnimation())
	assert.False(t, c.Looping())
	require.NotNil(t, o.Scene().Current().CharAnims[2])
	assert.Equal(t, "wave", *o.Scene().Current().CharAnims[2])
	assert.True(t, hasLog(o.Scene(), `[error] slot 2 has no clip "dance"`))
	assert.True(t, hasLog(o.Scene(), "[error] slot 4 is empty"))
}

func TestDialogueOverlayAndTypewriter(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	list, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
	require.Len(t, list.Overlay, 1)
	assert.Len(t, list.Overlay[0].Vertices, 15, "the startup line is finished, so the indicator shows")

	o.Bus().Send(bus.Dialogue{Name: "Arona", Affiliation: "Schale", Content: "hello"})
	list, err = o.Frame(0.031, 1280, 720)
	require.NoError(t, err)
	assert.Len(t, list.Overlay[0].Vertices, 12)
	assert.Equal(t, "h", o.Scene().VisibleText())
	assert.Equal(t, "Arona", o.Scene().Current().SpeakerName)

	o.Bus().Send(bus.SkipTypewriter{})
	list, err = o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.Equal(t, "hello", o.Scene().VisibleText())
	assert.Len(t, list.Overlay[0].Vertices, 15)

	o.Bus().Send(bus.ToggleDialogue{})
	list, err = o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.Empty(t, list.Overlay)
	o.Bus().Send(bus.ToggleDialogue{})
	list, err = o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.Len(t, list.Overlay, 1)

	box := LayoutDialogueBox(1280, 720, false, 0)
	assert.InDelta(t, 720*0.28, box.Height, 1e-3)
	assert.InDelta(t, 720-box.Height+box.Height*0.30, box.Separator, 1e-3)
	assert.InDelta(t, 102.4, box.Padding, 1e-3)
	assert.InDelta(t, 100, LayoutDialogueBox(640, 360, false, 0).Padding, 1e-6)
}

func TestBackgroundIsCoverScaled(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 200, 100)

	o.Bus().Send(bus.LoadBackground{Path: path})
	frameUntil(t, o, func() bool { return o.Scene().Background() != nil })

	require.NotNil(t, o.Scene().Current().BgPath)
	assert.Equal(t, path, *o.Scene().Current().BgPath)

	list, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
	require.NotNil(t, list.Background)
	v := list.Background.Vertices
	assert.InDelta(t, -80, v[0].X, 1e-3)
	assert.InDelta(t, 0, v[0].Y, 1e-3)
	assert.InDelta(t, 1360, v[2].X, 1e-3)
	assert.InDelta(t, 720, v[2].Y, 1e-3)
}

func TestTextureFailureLeavesSlotEmpty(t *testing.T) {
	o, r, _ := newTestOrchestrator(t)
	r.fail = true
	o.Bus().Send(bus.RequestLoad{Slot: 0, Path: writeHero(t, "a")})
	frameUntil(t, o, func() bool { return hasLog(o.Scene(), "[error] texture") })
	assert.Nil(t, o.Scene().Character(0))
}

func TestStaleLoadSuccessIsReleased(t *testing.T) {
	o, r, _ := newTestOrchestrator(t)
	c := &fakeCharacter{}
	o.HandleLoadSuccess(bus.LoadSuccess{Slot: 0, Generation: 99, Character: c})
	assert.Equal(t, 1, c.released)
	assert.Zero(t, r.count())
	assert.Nil(t, o.Scene().Character(0))
}

func TestNavigationAppliesScene(t *testing.T) {
	path := writeHero(t, "a")
	anim := "wave"
	script := &scenario.Scenario{Scenes: []scenario.Scene{
		{DialogueContent: "empty stage"},
		{DialogueContent: "hero", CharPaths: [scenario.SlotCount]*string{2: &path}, CharAnims: [scenario.SlotCount]*string{2: &anim}},
	}}
	o, _, _ := newTestOrchestrator(t, WithScene(scene.NewScene(scene.WithScenario(script))))

	o.Bus().Send(bus.NextScene{})
	frameUntil(t, o, func() bool { return o.Scene().Character(2) != nil })
	assert.Equal(t, 1, o.Scene().Index())
	assert.Equal(t, "hero", o.Scene().VisibleText())
	assert.Equal(t, "wave", o.Scene().Character(2).CurrentAnimation(), "the recorded clip is applied on arrival")
	assert.True(t, hasLog(o.Scene(), "[scene] 2/2"))

	o.Bus().Send(bus.PrevScene{})
	_, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.Nil(t, o.Scene().Character(2))
	assert.NotNil(t, o.Scene().Scenario().Scenes[1].CharPaths[2], "leaving a scene keeps its record")
}

func TestNavigationWithoutApply(t *testing.T) {
	path := writeHero(t, "a")
	script := &scenario.Scenario{Scenes: []scenario.Scene{
		{},
		{CharPaths: [scenario.SlotCount]*string{0: &path}},
	}}
	o, _, _ := newTestOrchestrator(t, WithApplyOnNavigate(false), WithScene(scene.NewScene(scene.WithScenario(script))))

	o.Bus().Send(bus.JumpScene{Index: 2})
	settle(t, o)
	assert.Equal(t, 1, o.Scene().Index())
	assert.Nil(t, o.Scene().Character(0))
}

func TestSceneEditing(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	o.Bus().Send(bus.DeleteScene{})
	o.Bus().Send(bus.InsertScene{})
	_, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.True(t, hasLog(o.Scene(), "[scene] cannot delete the only scene"))
	assert.Equal(t, 2, o.Scene().Scenario().Len())
	assert.Equal(t, 1, o.Scene().Index())
	assert.Equal(t, scenario.StartupSpeaker, o.Scene().Current().SpeakerName)
	assert.Empty(t, o.Scene().Current().DialogueContent)

	path := filepath.Join(t.TempDir(), "script.yaml")
	o.Bus().Send(bus.SaveScenario{Path: path})
	frameUntil(t, o, func() bool { return hasLog(o.Scene(), "[scenario] saved 2 scenes") })

	o.Bus().Send(bus.DeleteScene{})
	o.Bus().Send(bus.OpenScenario{Path: path})
	frameUntil(t, o, func() bool { return hasLog(o.Scene(), "[scenario] opened") })
	assert.Equal(t, 2, o.Scene().Scenario().Len())
	assert.Equal(t, 0, o.Scene().Index())
}

func TestAudioCommands(t *testing.T) {
	o, _, p := newTestOrchestrator(t)
	dir := t.TempDir()
	theme := filepath.Join(dir, "theme.ogg")
	click := filepath.Join(dir, "click.wav")
	require.NoError(t, os.WriteFile(theme, []byte("OggS"), 0o644))
	require.NoError(t, os.WriteFile(click, []byte("RIFF"), 0o644))

	o.Bus().Send(bus.PlayBgm{Path: theme})
	o.Bus().Send(bus.PlaySe{Path: click})
	frameUntil(t, o, func() bool { return p.Bgm() == theme })
	settle(t, o)

	require.NotNil(t, o.Scene().Current().BgmPath)
	assert.Equal(t, theme, *o.Scene().Current().BgmPath)
	p.mu.Lock()
	assert.Equal(t, []string{click}, p.effects)
	p.mu.Unlock()

	o.Bus().Send(bus.StopBgm{})
	_, err := o.Frame(0, 1280, 720)
	require.NoError(t, err)
	assert.Empty(t, p.Bgm())

	// music that arrives after a stop is stale
	o.HandleAudioReady(bus.AudioReady{Path: theme, Loop: true, Generation: 1})
	assert.Empty(t, p.Bgm())
}

func TestCloseReleasesTextures(t *testing.T) {
	r := &fakeRenderer{}
	o, err := NewOrchestrator(r, WithPlayer(&fakePlayer{}))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bg.png")
	writePNG(t, path, 8, 8)

	o.Bus().Send(bus.LoadBackground{Path: path})
	frameUntil(t, o, func() bool { return o.Scene().Background() != nil })
	o.Close()
	o.Close()

	require.Equal(t, 1, r.count())
	assert.Equal(t, 1, r.created[0].released)
	assert.False(t, o.Bus().Send(bus.StopBgm{}), "the bus is closed")
}

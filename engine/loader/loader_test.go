package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	cmds []bus.Command
}

func (r *recorder) Send(cmd bus.Command) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds = append(r.cmds, cmd)
	return true
}

func commandsOf[T bus.Command](r *recorder) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, c := range r.cmds {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// writeCharacter lays out hero.atlas, hero.png and hero.json in a temp dir and returns the atlas path.
func writeCharacter(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "hero.png"), 64, 32)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.atlas"), []byte(legacyAtlas), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.json"), []byte(spine4Doc), 0o644))
	return filepath.Join(dir, "hero.atlas")
}

func newTestLoader(t *testing.T, options ...LoaderBuilderOption) (*loader, *recorder) {
	t.Helper()
	rec := &recorder{}
	l := NewLoader(rec, options...).(*loader)
	t.Cleanup(l.Close)
	return l, rec
}

func TestLoadCharacter(t *testing.T) {
	path := writeCharacter(t)
	l, _ := newTestLoader(t, WithMaxTextureSize(32))

	res, err := l.LoadCharacter(path)
	require.NoError(t, err)
	assert.Equal(t, "hero.png", res.PageName)
	assert.Equal(t, []string{"Idle_01", "Attack"}, res.Clips)
	assert.Equal(t, "Idle_01", res.Character.CurrentAnimation())
	assert.True(t, res.Character.Looping())
	assert.Equal(t, uint32(32), res.Image.Width, "page is downscaled to the texture limit")
	assert.Equal(t, uint32(16), res.Image.Height)
}

func TestLoadCharacterFillsMissingPageSize(t *testing.T) {
	path := writeCharacter(t)
	noSize := bytes.Replace([]byte(legacyAtlas), []byte("size: 64,32\n"), nil, 1)
	require.NoError(t, os.WriteFile(path, noSize, 0o644))
	l, _ := newTestLoader(t)

	res, err := l.LoadCharacter(path)
	require.NoError(t, err)
	region, ok := res.Definition.Default.Attachment(0, "body").(*skeleton.RegionAttachment)
	require.True(t, ok)
	assert.InDelta(t, 20.0/64, region.Region.U2, 1e-6, "page size comes from the image")
}

func TestLoadCharacterSkeletonFallthrough(t *testing.T) {
	path := writeCharacter(t)
	dir := filepath.Dir(path)
	// Rewrites within one timestamp tick would otherwise hit the cache.
	l, _ := newTestLoader(t, WithDefinitionCache(false))

	// An unreadable .skel falls through to .json.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.skel"), []byte("native spine binary"), 0o644))
	_, err := l.LoadCharacter(path)
	require.NoError(t, err)

	// A native Spine binary wins over a broken .json.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.skel"), spine41Skel(nil), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.json"), []byte("{"), 0o644))
	res, err := l.LoadCharacter(path)
	require.NoError(t, err)
	assert.Equal(t, "4.1.24", res.Definition.Version)

	// So does a valid container.
	var buf bytes.Buffer
	require.NoError(t, EncodeBinarySkeleton(&buf, []byte(spine4Doc)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.skel"), buf.Bytes(), 0o644))
	_, err = l.LoadCharacter(path)
	require.NoError(t, err)

	// All broken reports every backend.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.skel"), []byte("junk"), 0o644))
	_, err = l.LoadCharacter(path)
	assert.ErrorIs(t, err, ErrNotSpineBinary)
	assert.ErrorIs(t, err, ErrNotContainer)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	require.NoError(t, os.Remove(filepath.Join(dir, "hero.skel")))
	require.NoError(t, os.Remove(filepath.Join(dir, "hero.json")))
	_, err = l.LoadCharacter(path)
	assert.ErrorIs(t, err, ErrMissingSkeleton)
}

func TestLoadCharacterRejectsMalformedMesh(t *testing.T) {
	path := writeCharacter(t)
	doc := strings.Replace(spine4Doc, "[0,1,2, 2,3,0]", "[0,1,2, 2,3,9]", 1)
	require.NotEqual(t, spine4Doc, doc)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "hero.json"), []byte(doc), 0o644))
	l, _ := newTestLoader(t)

	_, err := l.LoadCharacter(path)
	assert.ErrorContains(t, err, "triangle index 9")
}

func TestLoadCharacterMissingFiles(t *testing.T) {
	l, _ := newTestLoader(t)
	_, err := l.LoadCharacter(filepath.Join(t.TempDir(), "nope.atlas"))
	assert.ErrorContains(t, err, "open atlas")

	path := writeCharacter(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "hero.png")))
	_, err = l.LoadCharacter(path)
	assert.ErrorContains(t, err, "hero.png")
}

func TestDefinitionCache(t *testing.T) {
	path := writeCharacter(t)
	l, _ := newTestLoader(t)

	first, err := l.LoadCharacter(path)
	require.NoError(t, err)
	second, err := l.LoadCharacter(path)
	require.NoError(t, err)
	assert.Same(t, first.Definition, second.Definition)
	assert.NotSame(t, first.Character, second.Character, "characters never share pose state")

	later := time.Now().Add(time.Hour)
	jsonPath := filepath.Join(filepath.Dir(path), "hero.json")
	require.NoError(t, os.Chtimes(jsonPath, later, later))
	third, err := l.LoadCharacter(path)
	require.NoError(t, err)
	assert.NotSame(t, first.Definition, third.Definition)

	uncached, _ := newTestLoader(t, WithDefinitionCache(false))
	a, err := uncached.LoadCharacter(path)
	require.NoError(t, err)
	b, err := uncached.LoadCharacter(path)
	require.NoError(t, err)
	assert.NotSame(t, a.Definition, b.Definition)
}

func TestRequestLoadLatestWins(t *testing.T) {
	path := writeCharacter(t)
	l, rec := newTestLoader(t)

	first := l.RequestLoad(2, path)
	second := l.RequestLoad(2, path)
	assert.Greater(t, second, first)
	assert.False(t, l.IsCurrent(SlotKey(2), first))
	assert.True(t, l.IsCurrent(SlotKey(2), second))

	require.Eventually(t, func() bool {
		for _, s := range commandsOf[bus.LoadSuccess](rec) {
			if s.Generation == second {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)

	for _, s := range commandsOf[bus.LoadSuccess](rec) {
		assert.Equal(t, 2, s.Slot)
		assert.NotEmpty(t, s.RequestID)
		assert.Equal(t, "hero.png", s.PageName)
	}
	require.Eventually(t, func() bool { return l.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestSupersedeDropsInFlightLoad(t *testing.T) {
	l, _ := newTestLoader(t)
	gen := l.RequestLoad(1, filepath.Join(t.TempDir(), "missing.atlas"))
	next := l.Supersede(SlotKey(1))
	assert.Equal(t, gen+1, next)
	assert.False(t, l.IsCurrent(SlotKey(1), gen))
	assert.True(t, l.IsCurrent(SlotKey(0), 0), "untouched keys start at generation 0")
}

func TestRequestFailureLogs(t *testing.T) {
	l, rec := newTestLoader(t)
	l.RequestLoad(0, filepath.Join(t.TempDir(), "missing.atlas"))
	require.Eventually(t, func() bool { return len(commandsOf[bus.Log](rec)) == 1 }, 5*time.Second, 5*time.Millisecond)
	msg := commandsOf[bus.Log](rec)[0].Message
	assert.Contains(t, msg, "[error] load")
	assert.Contains(t, msg, "missing.atlas")
	assert.Empty(t, commandsOf[bus.LoadSuccess](rec))
}

func TestRequestBackgroundAndAudio(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "room.png")
	writePNG(t, bg, 8, 4)
	music := filepath.Join(dir, "theme.ogg")
	require.NoError(t, os.WriteFile(music, []byte("OggS"), 0o644))
	l, rec := newTestLoader(t)

	bgGen := l.RequestBackground(bg)
	bgmGen := l.RequestAudio(music, true)
	seGen := l.RequestAudio(music, false)
	assert.Equal(t, uint64(1), bgGen)
	assert.Equal(t, uint64(1), bgmGen)
	assert.Zero(t, seGen)

	require.Eventually(t, func() bool {
		return len(commandsOf[bus.LoadBackgroundSuccess](rec)) == 1 && len(commandsOf[bus.AudioReady](rec)) == 2
	}, 5*time.Second, 5*time.Millisecond)

	img := commandsOf[bus.LoadBackgroundSuccess](rec)[0]
	assert.Equal(t, bgGen, img.Generation)
	assert.Equal(t, uint32(8), img.Image.Width)
	for _, a := range commandsOf[bus.AudioReady](rec) {
		assert.Equal(t, []byte("OggS"), a.Data)
		if a.Loop {
			assert.Equal(t, bgmGen, a.Generation)
		} else {
			assert.Zero(t, a.Generation)
		}
	}
}

func TestScenarioRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.yaml")
	l, rec := newTestLoader(t)

	s := scenario.New()
	l.SaveScenario(path, s)
	s.Scenes[0].SpeakerName = "changed after save"
	require.Eventually(t, func() bool { return len(commandsOf[bus.Log](rec)) == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Contains(t, commandsOf[bus.Log](rec)[0].Message, "[scenario] saved 1 scenes")

	l.RequestScenario(path)
	require.Eventually(t, func() bool { return len(commandsOf[bus.ScenarioLoaded](rec)) == 1 }, 5*time.Second, 5*time.Millisecond)
	loaded := commandsOf[bus.ScenarioLoaded](rec)[0]
	assert.Equal(t, path, loaded.Path)
	assert.Equal(t, scenario.New(), loaded.Scenario, "the saved copy was taken before the caller mutated it")
}

func TestQueueFullRejects(t *testing.T) {
	l, rec := newTestLoader(t, WithWorkers(1), WithQueueSize(1))
	release := make(chan struct{})
	started := make(chan struct{})

	require.True(t, l.submit("blocker", func() {
		close(started)
		<-release
	}))
	<-started
	assert.Equal(t, 1, l.Pending())
	assert.False(t, l.submit("overflow", func() {}))

	logs := commandsOf[bus.Log](rec)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "dropped overflow")

	close(release)
	require.Eventually(t, func() bool { return l.Pending() == 0 }, time.Second, time.Millisecond)
	assert.True(t, l.submit("after", func() {}))
}

func TestCloseRejectsNewWork(t *testing.T) {
	rec := &recorder{}
	l := NewLoader(rec).(*loader)
	l.Close()
	l.Close()
	assert.False(t, l.submit("late", func() {}))
	assert.Empty(t, commandsOf[bus.Log](rec))
}

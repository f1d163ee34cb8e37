package engine

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/orchestrator"
	"github.com/Carmen-Shannon/aefr-go/engine/renderer/snapshot"
	"github.com/Carmen-Shannon/aefr-go/engine/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (*engine, *snapshot.Renderer) {
	t.Helper()
	r := snapshot.NewRenderer(320, 180)
	o, err := orchestrator.NewOrchestrator(r,
		orchestrator.WithPlayer(audio.NewNoOp()),
		orchestrator.WithScheduler(scheduler.NewScheduler(scheduler.WithWorkers(1))),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		o.Close()
		r.Release()
	})

	base := []EngineBuilderOption{WithRenderer(r), WithOrchestrator(o), WithSize(320, 180)}
	e, err := NewEngine(append(base, options...)...)
	require.NoError(t, err)
	return e.(*engine), r
}

func TestNewEngineRequiresStage(t *testing.T) {
	_, err := NewEngine()
	assert.ErrorIs(t, err, ErrNoRenderer)

	_, err = NewEngine(WithRenderer(snapshot.NewRenderer(1, 1)))
	assert.ErrorIs(t, err, ErrNoOrchestrator)
}

func TestKeysNavigateScenes(t *testing.T) {
	e, _ := newTestEngine(t)
	sc := e.orchestrator.Scene()

	e.handleKey(common.KeyInsert)
	e.handleKey(common.KeyInsert)
	e.renderFrame(0)
	require.Equal(t, 3, sc.Scenario().Len())
	assert.Equal(t, 2, sc.Index())

	e.handleKey(common.KeyLeft)
	e.handleScroll(1)
	e.renderFrame(0)
	assert.Equal(t, 0, sc.Index())

	e.handleKey(common.KeyRight)
	e.renderFrame(0)
	assert.Equal(t, 1, sc.Index())

	e.handleKey(common.KeyDelete)
	e.renderFrame(0)
	assert.Equal(t, 2, sc.Scenario().Len())

	e.handleKey(common.KeyH)
	e.renderFrame(0)
	assert.False(t, sc.DialogueVisible())
}

func TestAdvanceSkipsTypewriterFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	sc := e.orchestrator.Scene()

	e.handleKey(common.KeyInsert)
	e.handleKey(common.KeyLeft)
	e.renderFrame(0)
	require.Equal(t, 0, sc.Index())

	e.orchestrator.Bus().Send(bus.Dialogue{Name: "Arona", Affiliation: "Schale", Content: "a long line of text"})
	e.renderFrame(0.01)
	require.True(t, e.typing.Load())

	e.handleKey(common.KeySpace)
	e.renderFrame(0)
	assert.Equal(t, 0, sc.Index(), "the first press only reveals the line")
	assert.Equal(t, "a long line of text", sc.VisibleText())
	assert.False(t, e.typing.Load())

	e.handleKey(common.KeyEnter)
	e.renderFrame(0)
	assert.Equal(t, 1, sc.Index())
}

func TestQuickSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quick.yaml")
	e, _ := newTestEngine(t, WithQuickSavePath(path))

	e.handleKey(common.KeyF5)
	e.renderFrame(0)
	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQuickSaveWithoutPathLogs(t *testing.T) {
	e, _ := newTestEngine(t)
	e.handleKey(common.KeyF9)
	e.renderFrame(0)
	logs := e.orchestrator.Scene().Logs()
	assert.Contains(t, logs[len(logs)-1], "no quick save path")
}

func TestDropCommand(t *testing.T) {
	assert.Equal(t, bus.OpenScenario{Path: "story.YAML"}, dropCommand("story.YAML"))
	assert.Equal(t, bus.OpenScenario{Path: "story.json"}, dropCommand("story.json"))
	assert.Equal(t, bus.LoadBackground{Path: "bg/room.webp"}, dropCommand("bg/room.webp"))
	assert.Equal(t, bus.PlayBgm{Path: "theme.ogg"}, dropCommand("theme.ogg"))
	assert.IsType(t, bus.Log{}, dropCommand("hero.atlas"))
}

func TestRenderFrameFollowsResize(t *testing.T) {
	e, r := newTestEngine(t)
	e.renderFrame(0)
	assert.Equal(t, image.Rect(0, 0, 320, 180), r.Image().Bounds())

	e.resize(200, 100)
	e.renderFrame(0)
	assert.Equal(t, image.Rect(0, 0, 200, 100), r.Image().Bounds())

	e.resize(0, 0)
	e.renderFrame(0)
	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, 2, r.Frames(), "minimized frames draw nothing")
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	e, r := newTestEngine(t, WithRenderFrameLimit(240), WithProfiling(true, time.Millisecond))

	done := make(chan struct{})
	go func() {
		e.Run()
		close(done)
	}()
	assert.Eventually(t, func() bool { return r.Frames() > 2 }, 2*time.Second, 5*time.Millisecond)

	e.Quit()
	e.Quit()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestFrameDuration(t *testing.T) {
	assert.Zero(t, frameDuration(0))
	assert.Equal(t, 16666666*time.Nanosecond, frameDuration(60))
}

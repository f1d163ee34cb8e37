package scene

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCharacter struct {
	character.Character
	released int
}

func (f *fakeCharacter) Release() { f.released++ }

type fakeTexture struct {
	released int
}

func (f *fakeTexture) Label() string  { return "bg" }
func (f *fakeTexture) Width() uint32  { return 1280 }
func (f *fakeTexture) Height() uint32 { return 720 }
func (f *fakeTexture) Release()       { f.released++ }

func TestTypewriterRevealsOneRunePerInterval(t *testing.T) {
	tw := NewTypewriter(0.03)
	tw.Restart("你好ab")
	assert.Equal(t, "", tw.Text())
	assert.False(t, tw.Done())

	assert.False(t, tw.Advance(0.02))
	assert.True(t, tw.Advance(0.02))
	assert.Equal(t, "你", tw.Text())

	tw.Advance(0.065)
	assert.Equal(t, "你好a", tw.Text())

	tw.Advance(10)
	assert.True(t, tw.Done())
	assert.Equal(t, 4, tw.Visible())
	assert.False(t, tw.Advance(1), "a finished line stays put")

	tw.Reveal("xyz")
	assert.Equal(t, "xyz", tw.Text())
	tw.Restart("")
	assert.True(t, tw.Done(), "empty text is immediately done")
}

func TestTypewriterDefaultsInterval(t *testing.T) {
	tw := NewTypewriter(0)
	tw.Restart("ab")
	tw.Advance(DefaultTypewriterInterval)
	assert.Equal(t, "a", tw.Text())
}

func TestLogRingDropsOldest(t *testing.T) {
	r := NewLogRing(3)
	assert.Equal(t, "", r.Last())
	for i := range 5 {
		r.Push(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, r.Lines())
	assert.Equal(t, "line 4", r.Last())
}

func TestNewSceneDefaults(t *testing.T) {
	s := NewScene()
	assert.Equal(t, []string{ReadyMessage}, s.Logs())
	assert.True(t, s.DialogueVisible())
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, scenario.StartupSpeaker, s.Current().SpeakerName)
	assert.Equal(t, scenario.StartupText, s.VisibleText(), "the startup line is shown in full")
	assert.Empty(t, s.Populated())
}

func TestSlots(t *testing.T) {
	s := NewScene()
	a, b := &fakeCharacter{}, &fakeCharacter{}

	require.True(t, s.SetCharacter(2, a, "chars/a.atlas"))
	assert.Equal(t, []int{2}, s.Populated())
	assert.Equal(t, "chars/a.atlas", s.SlotPath(2))
	assert.Same(t, a, s.Character(2))

	require.True(t, s.SetCharacter(2, b, "chars/b.atlas"))
	assert.Equal(t, 1, a.released, "a replaced character is released")
	assert.Equal(t, "chars/b.atlas", s.SlotPath(2))

	s.ClearSlot(2)
	assert.Equal(t, 1, b.released)
	assert.Nil(t, s.Character(2))
	assert.Empty(t, s.SlotPath(2))

	stray := &fakeCharacter{}
	assert.False(t, s.SetCharacter(SlotCount, stray, "x"))
	assert.Equal(t, 1, stray.released, "an out-of-range character is not leaked")
	assert.Nil(t, s.Character(-1))
	s.ClearSlot(99)
}

func TestBackground(t *testing.T) {
	s := NewScene()
	first, second := &fakeTexture{}, &fakeTexture{}
	s.SetBackground(first, "bg/1.png")
	s.SetBackground(second, "bg/2.png")
	assert.Equal(t, 1, first.released)
	assert.Same(t, second, s.Background())
	assert.Equal(t, "bg/2.png", s.BackgroundPath())

	c := &fakeCharacter{}
	s.SetCharacter(0, c, "a")
	s.Release()
	assert.Equal(t, 1, second.released)
	assert.Equal(t, 1, c.released)
	assert.Nil(t, s.Background())
}

func TestDialogueWritesCurrentScene(t *testing.T) {
	s := NewScene()
	s.SetDialogue("Arona", "Schale", "hello")
	cur := s.Current()
	assert.Equal(t, "Arona", cur.SpeakerName)
	assert.Equal(t, "Schale", cur.SpeakerAff)
	assert.Equal(t, "hello", cur.DialogueContent)
	assert.Equal(t, "", s.VisibleText())
	assert.False(t, s.TypewriterDone())

	s.AdvanceTypewriter(0.031)
	assert.Equal(t, "h", s.VisibleText())

	s.SetDialogueVisible(false)
	s.AdvanceTypewriter(1)
	assert.Equal(t, "h", s.VisibleText(), "a hidden box does not type")

	s.SkipTypewriter()
	assert.Equal(t, "hello", s.VisibleText())
	assert.True(t, s.TypewriterDone())
}

func TestNavigationRevealsWholeLine(t *testing.T) {
	script := &scenario.Scenario{Scenes: []scenario.Scene{
		{DialogueContent: "one"},
		{DialogueContent: "two"},
	}}
	s := NewScene(WithScenario(script), WithLogCapacity(10), WithTypewriterInterval(0.5))
	s.SetDialogue("", "", "typed")
	s.SetIndex(1)
	assert.Equal(t, "two", s.VisibleText())
	s.SetIndex(7)
	assert.Equal(t, 1, s.Index())
	s.SetIndex(-3)
	assert.Equal(t, 0, s.Index())
	assert.Equal(t, "typed", s.VisibleText())

	s.SetScenario(&scenario.Scenario{})
	assert.Equal(t, 1, s.Scenario().Len(), "an empty scenario falls back to the startup one")
	assert.Equal(t, scenario.StartupText, s.VisibleText())
}

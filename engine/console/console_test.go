package console

import (
	"testing"

	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValid(t *testing.T) {
	cases := map[string]bus.Command{
		`LOAD 2 "C:/My Files/hoshino.atlas"`: bus.RequestLoad{Slot: 2, Path: "C:/My Files/hoshino.atlas"},
		`load 0 chars/a.atlas`:               bus.RequestLoad{Slot: 0, Path: "chars/a.atlas"},
		`ANIM 1 Idle_01`:                     bus.SetAnimation{Slot: 1, Clip: "Idle_01", Loop: true},
		`anim 1 Attack TRUE`:                 bus.SetAnimation{Slot: 1, Clip: "Attack", Loop: true},
		`anim 4 Attack false`:                bus.SetAnimation{Slot: 4, Clip: "Attack", Loop: false},
		`anim 4 Attack nope`:                 bus.SetAnimation{Slot: 4, Clip: "Attack", Loop: false},
		`BGM "music/theme.ogg"`:              bus.PlayBgm{Path: "music/theme.ogg"},
		`se click.wav`:                       bus.PlaySe{Path: "click.wav"},
		`Stop`:                               bus.StopBgm{},
		`BG bg/room 1.png`:                   bus.LoadBackground{Path: "bg/room 1.png"},
		`REMOVE 3`:                           bus.RemoveCharacter{Slot: 3},
		`next`:                               bus.NextScene{},
		`PREV`:                               bus.PrevScene{},
		`insert`:                             bus.InsertScene{},
		`delete`:                             bus.DeleteScene{},
		`skip`:                               bus.SkipTypewriter{},
		`HIDE`:                               bus.ToggleDialogue{},
		`JUMP 3`:                             bus.JumpScene{Index: 3},
		`SAVE out/story.yaml`:                bus.SaveScenario{Path: "out/story.yaml"},
		`open "story.json"`:                  bus.OpenScenario{Path: "story.json"},
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseTalkKeepsSpacing(t *testing.T) {
	got, err := Parse("TALK Hoshino| Abydos |Hello, sensei")
	require.NoError(t, err)
	assert.Equal(t, bus.Dialogue{Name: "Hoshino", Affiliation: " Abydos ", Content: "Hello, sensei"}, got)

	_, err = Parse("TALK a|b")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Parse("TALK a|b|c|d")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("DANCE 1")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	for _, in := range []string{
		"LOAD 5 a.atlas",
		"LOAD -1 a.atlas",
		"LOAD x a.atlas",
		"LOAD 1",
		"ANIM 1",
		"ANIM 9 idle",
		"BGM",
		`BG ""`,
		"STOP now",
		"JUMP 0",
		"JUMP two",
		"REMOVE",
	} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrMalformed, in)
	}
}

func TestHelpMentionsEveryKeyword(t *testing.T) {
	for _, kw := range []string{"LOAD", "ANIM", "REMOVE", "BG", "BGM", "SE", "STOP", "TALK", "NEXT", "PREV", "INSERT", "DELETE", "SKIP", "JUMP", "SAVE", "OPEN"} {
		assert.Contains(t, Help, kw)
	}
}

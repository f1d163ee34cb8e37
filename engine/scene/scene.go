// Package scene holds the live stage state owned by the frame goroutine: the five character
// slots, the background texture, the open scenario with its cursor, the dialogue typewriter
// and the console log.
package scene

import (
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
)

// SlotCount is the number of character positions on stage.
const SlotCount = scenario.SlotCount

// ReadyMessage is the first console line.
const ReadyMessage = "[system] editor ready."

// Scene is the mutable stage. It is not safe for concurrent use; only the frame goroutine
// touches it, and worker goroutines reach it through the command bus.
type Scene interface {
	// Character returns the character in slot, or nil when the slot is empty or out of range.
	Character(slot int) character.Character

	// SetCharacter places c in slot. Any previous occupant is released.
	//
	// Parameters:
	//   - slot: 0-based slot index
	//   - c: the loaded character
	//   - path: the atlas path it was loaded from
	//
	// Returns:
	//   - bool: false when slot is out of range, in which case c is released
	SetCharacter(slot int, c character.Character, path string) bool

	// ClearSlot releases and removes the character in slot.
	ClearSlot(slot int)

	// SlotPath returns the atlas path of the character in slot, or "".
	SlotPath(slot int) string

	// Populated returns the indices of occupied slots in ascending order.
	Populated() []int

	// Background returns the background texture, or nil.
	Background() drawlist.Texture

	// BackgroundPath returns the path of the displayed background, or "".
	BackgroundPath() string

	// SetBackground replaces the background texture, releasing the previous one.
	SetBackground(tex drawlist.Texture, path string)

	// Scenario returns the open scenario.
	Scenario() *scenario.Scenario

	// SetScenario replaces the open scenario and moves the cursor to its first scene.
	SetScenario(s *scenario.Scenario)

	// Index returns the 0-based index of the current scene.
	Index() int

	// SetIndex moves the cursor, clamped to the scenario, and reveals the scene's whole line.
	SetIndex(i int)

	// Current returns the current scene. Edits through the pointer are kept.
	Current() *scenario.Scene

	// SetDialogue writes one line of dialogue into the current scene and restarts the
	// typewriter on it.
	SetDialogue(name, affiliation, content string)

	// RevealDialogue re-reads the current scene's line and shows it in full.
	RevealDialogue()

	// DialogueVisible reports whether the dialogue box is drawn.
	DialogueVisible() bool

	// SetDialogueVisible shows or hides the dialogue box.
	SetDialogueVisible(visible bool)

	// VisibleText returns the revealed part of the current line.
	VisibleText() string

	// TypewriterDone reports whether the current line is fully revealed.
	TypewriterDone() bool

	// AdvanceTypewriter reveals more of the current line. Hidden dialogue does not advance.
	AdvanceTypewriter(dt float32)

	// SkipTypewriter reveals the rest of the current line.
	SkipTypewriter()

	// Log appends a line to the console log.
	Log(msg string)

	// Logs returns the console log, oldest first.
	Logs() []string

	// Release frees every texture the scene holds.
	Release()
}

type scene struct {
	slots     [SlotCount]character.Character
	slotPaths [SlotCount]string

	background     drawlist.Texture
	backgroundPath string

	script *scenario.Scenario
	index  int

	typewriter      *Typewriter
	dialogueVisible bool

	logs *LogRing
}

var _ Scene = &scene{}

func (s *scene) inRange(slot int) bool {
	return slot >= 0 && slot < SlotCount
}

func (s *scene) Character(slot int) character.Character {
	if !s.inRange(slot) {
		return nil
	}
	return s.slots[slot]
}

func (s *scene) SetCharacter(slot int, c character.Character, path string) bool {
	if !s.inRange(slot) {
		if c != nil {
			c.Release()
		}
		return false
	}
	s.ClearSlot(slot)
	s.slots[slot] = c
	s.slotPaths[slot] = path
	return true
}

func (s *scene) ClearSlot(slot int) {
	if !s.inRange(slot) {
		return
	}
	if c := s.slots[slot]; c != nil {
		c.Release()
	}
	s.slots[slot] = nil
	s.slotPaths[slot] = ""
}

func (s *scene) SlotPath(slot int) string {
	if !s.inRange(slot) {
		return ""
	}
	return s.slotPaths[slot]
}

func (s *scene) Populated() []int {
	out := make([]int, 0, SlotCount)
	for i, c := range s.slots {
		if c != nil {
			out = append(out, i)
		}
	}
	return out
}

func (s *scene) Background() drawlist.Texture {
	return s.background
}

func (s *scene) BackgroundPath() string {
	return s.backgroundPath
}

func (s *scene) SetBackground(tex drawlist.Texture, path string) {
	if s.background != nil && s.background != tex {
		s.background.Release()
	}
	s.background = tex
	s.backgroundPath = path
}

func (s *scene) Scenario() *scenario.Scenario {
	return s.script
}

func (s *scene) SetScenario(sc *scenario.Scenario) {
	if sc.Validate() != nil {
		sc = scenario.New()
	}
	s.script = sc
	s.SetIndex(0)
}

func (s *scene) Index() int {
	return s.index
}

func (s *scene) SetIndex(i int) {
	s.index = max(0, min(i, s.script.Len()-1))
	s.RevealDialogue()
}

func (s *scene) Current() *scenario.Scene {
	return s.script.Scene(s.index)
}

func (s *scene) SetDialogue(name, affiliation, content string) {
	cur := s.Current()
	cur.SpeakerName = name
	cur.SpeakerAff = affiliation
	cur.DialogueContent = content
	s.typewriter.Restart(content)
}

func (s *scene) RevealDialogue() {
	s.typewriter.Reveal(s.Current().DialogueContent)
}

func (s *scene) DialogueVisible() bool {
	return s.dialogueVisible
}

func (s *scene) SetDialogueVisible(visible bool) {
	s.dialogueVisible = visible
}

func (s *scene) VisibleText() string {
	return s.typewriter.Text()
}

func (s *scene) TypewriterDone() bool {
	return s.typewriter.Done()
}

func (s *scene) AdvanceTypewriter(dt float32) {
	if !s.dialogueVisible {
		return
	}
	s.typewriter.Advance(dt)
}

func (s *scene) SkipTypewriter() {
	s.typewriter.Finish()
}

func (s *scene) Log(msg string) {
	s.logs.Push(msg)
}

func (s *scene) Logs() []string {
	return s.logs.Lines()
}

func (s *scene) Release() {
	for i := range s.slots {
		s.ClearSlot(i)
	}
	s.SetBackground(nil, "")
}

// Package scenario holds the editable script: an ordered list of scenes, each recording
// the stage (background, music, characters) and one line of dialogue.
package scenario

import (
	"errors"
	"fmt"
)

// SlotCount is the number of character positions on stage.
const SlotCount = 5

// Startup scene content shown before any scenario is opened.
const (
	StartupSpeaker     = "OxidizedSchale"
	StartupAffiliation = "AEFR Contributors"
	StartupText        = "AEFR 已启动\n正在等待指令......"
)

// ErrNoScenes is returned when decoding a scenario without any scene.
var ErrNoScenes = errors.New("scenario: no scenes")

// Scene is one step of the script. Nil paths mean "nothing recorded".
type Scene struct {
	BgPath          *string            `json:"bg_path" yaml:"bg_path"`
	BgmPath         *string            `json:"bgm_path" yaml:"bgm_path"`
	CharPaths       [SlotCount]*string `json:"char_paths" yaml:"char_paths"`
	CharAnims       [SlotCount]*string `json:"char_anims" yaml:"char_anims"`
	SpeakerName     string             `json:"speaker_name" yaml:"speaker_name"`
	SpeakerAff      string             `json:"speaker_aff" yaml:"speaker_aff"`
	DialogueContent string             `json:"dialogue_content" yaml:"dialogue_content"`
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	out := s
	out.BgPath = clonePtr(s.BgPath)
	out.BgmPath = clonePtr(s.BgmPath)
	for i := range s.CharPaths {
		out.CharPaths[i] = clonePtr(s.CharPaths[i])
		out.CharAnims[i] = clonePtr(s.CharAnims[i])
	}
	return out
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Scenario is the ordered list of scenes.
type Scenario struct {
	Scenes []Scene `json:"scenes" yaml:"scenes"`
}

// New returns the startup scenario: one scene with the startup greeting.
func New() *Scenario {
	return &Scenario{Scenes: []Scene{{
		SpeakerName:     StartupSpeaker,
		SpeakerAff:      StartupAffiliation,
		DialogueContent: StartupText,
	}}}
}

// Clone returns a deep copy of the scenario.
func (s *Scenario) Clone() *Scenario {
	out := &Scenario{Scenes: make([]Scene, len(s.Scenes))}
	for i, sc := range s.Scenes {
		out.Scenes[i] = sc.Clone()
	}
	return out
}

// Len returns the number of scenes.
func (s *Scenario) Len() int {
	return len(s.Scenes)
}

// Validate checks that the scenario has at least one scene.
func (s *Scenario) Validate() error {
	if s == nil || len(s.Scenes) == 0 {
		return ErrNoScenes
	}
	return nil
}

// Scene returns a pointer to scene i, clamped to the valid range.
func (s *Scenario) Scene(i int) *Scene {
	return &s.Scenes[s.clamp(i)]
}

func (s *Scenario) clamp(i int) int {
	return max(0, min(i, len(s.Scenes)-1))
}

// Next returns the index after cur, staying on the last scene.
func (s *Scenario) Next(cur int) int {
	return s.clamp(cur + 1)
}

// Prev returns the index before cur, staying on the first scene.
func (s *Scenario) Prev(cur int) int {
	return s.clamp(cur - 1)
}

// Jump converts a 1-based scene number into an index, clamped to the valid range.
func (s *Scenario) Jump(number int) int {
	return s.clamp(number - 1)
}

// Insert clones scene cur, clears the clone's dialogue text, places it after cur and
// returns its index.
func (s *Scenario) Insert(cur int) int {
	cur = s.clamp(cur)
	clone := s.Scenes[cur].Clone()
	clone.DialogueContent = ""
	s.Scenes = append(s.Scenes, Scene{})
	copy(s.Scenes[cur+2:], s.Scenes[cur+1:])
	s.Scenes[cur+1] = clone
	return cur + 1
}

// Delete removes scene cur unless it is the only scene, and returns the new current index.
func (s *Scenario) Delete(cur int) int {
	cur = s.clamp(cur)
	if len(s.Scenes) <= 1 {
		return cur
	}
	s.Scenes = append(s.Scenes[:cur], s.Scenes[cur+1:]...)
	return s.clamp(cur)
}

// String summarizes the scenario for logs.
func (s *Scenario) String() string {
	return fmt.Sprintf("scenario(%d scenes)", len(s.Scenes))
}

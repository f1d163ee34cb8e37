package bus

import (
	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
)

// Category partitions commands by the subsystem that handles them.
type Category int

const (
	CategoryScene Category = iota
	CategoryResource
	CategoryAudio
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryScene:
		return "scene"
	case CategoryResource:
		return "resource"
	case CategoryAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Command is a message sent to the frame goroutine. The set of commands is closed: only
// types in this package implement it.
type Command interface {
	Category() Category
	dispatch(h Handler)
}

// SceneHandler handles commands that mutate scene state directly.
type SceneHandler interface {
	HandleDialogue(Dialogue)
	HandleSetAnimation(SetAnimation)
	HandleRemoveCharacter(RemoveCharacter)
	HandleLog(Log)
	HandleNextScene(NextScene)
	HandlePrevScene(PrevScene)
	HandleInsertScene(InsertScene)
	HandleDeleteScene(DeleteScene)
	HandleJumpScene(JumpScene)
	HandleSkipTypewriter(SkipTypewriter)
	HandleToggleDialogue(ToggleDialogue)
}

// ResourceHandler handles load requests and their results.
type ResourceHandler interface {
	HandleRequestLoad(RequestLoad)
	HandleLoadSuccess(LoadSuccess)
	HandleLoadBackground(LoadBackground)
	HandleLoadBackgroundSuccess(LoadBackgroundSuccess)
	HandleSaveScenario(SaveScenario)
	HandleOpenScenario(OpenScenario)
	HandleScenarioLoaded(ScenarioLoaded)
}

// AudioHandler handles playback commands.
type AudioHandler interface {
	HandlePlayBgm(PlayBgm)
	HandlePlaySe(PlaySe)
	HandleAudioReady(AudioReady)
	HandleStopBgm(StopBgm)
}

// Handler must handle every command. Adding a command adds a method here, so every
// consumer fails to compile until it handles the new variant.
type Handler interface {
	SceneHandler
	ResourceHandler
	AudioHandler
}

// Dialogue replaces the current scene's speaker and text.
type Dialogue struct {
	Name        string
	Affiliation string
	Content     string
}

// SetAnimation switches a slot's clip. Unknown clips are ignored.
type SetAnimation struct {
	Slot int
	Clip string
	Loop bool
}

// RemoveCharacter clears a slot and supersedes any load in flight for it.
type RemoveCharacter struct {
	Slot int
}

// Log appends a line to the console log.
type Log struct {
	Message string
}

// NextScene moves the scenario cursor forward.
type NextScene struct{}

// PrevScene moves the scenario cursor back.
type PrevScene struct{}

// InsertScene clones the current scene after it and moves to the clone.
type InsertScene struct{}

// DeleteScene removes the current scene unless it is the last one.
type DeleteScene struct{}

// JumpScene moves the cursor to a 1-based scene number.
type JumpScene struct {
	Index int
}

// SkipTypewriter reveals the whole dialogue text.
type SkipTypewriter struct{}

// ToggleDialogue shows or hides the dialogue box.
type ToggleDialogue struct{}

// RequestLoad asks for a character to be loaded into a slot.
type RequestLoad struct {
	Slot int
	Path string
}

// LoadSuccess carries a loaded character and its page image back to the frame goroutine.
type LoadSuccess struct {
	Slot       int
	Path       string
	Generation uint64
	RequestID  string
	Character  character.Character
	Image      common.TextureStagingData
	PageName   string
	Clips      []string
}

// LoadBackground asks for a background image.
type LoadBackground struct {
	Path string
}

// LoadBackgroundSuccess carries a decoded background image.
type LoadBackgroundSuccess struct {
	Path       string
	Generation uint64
	Image      common.TextureStagingData
}

// SaveScenario writes the scenario to a file.
type SaveScenario struct {
	Path string
}

// OpenScenario reads a scenario file.
type OpenScenario struct {
	Path string
}

// ScenarioLoaded carries a scenario read from disk.
type ScenarioLoaded struct {
	Path     string
	Scenario *scenario.Scenario
}

// PlayBgm starts looping background music, replacing any current track.
type PlayBgm struct {
	Path string
}

// PlaySe plays a one-shot sound effect.
type PlaySe struct {
	Path string
}

// AudioReady carries audio file bytes read off the frame goroutine.
type AudioReady struct {
	Path       string
	Data       []byte
	Loop       bool
	Generation uint64
}

// StopBgm stops the background music.
type StopBgm struct{}

func (Dialogue) Category() Category        { return CategoryScene }
func (SetAnimation) Category() Category    { return CategoryScene }
func (RemoveCharacter) Category() Category { return CategoryScene }
func (Log) Category() Category             { return CategoryScene }
func (NextScene) Category() Category       { return CategoryScene }
func (PrevScene) Category() Category       { return CategoryScene }
func (InsertScene) Category() Category     { return CategoryScene }
func (DeleteScene) Category() Category     { return CategoryScene }
func (JumpScene) Category() Category       { return CategoryScene }
func (SkipTypewriter) Category() Category  { return CategoryScene }
func (ToggleDialogue) Category() Category  { return CategoryScene }

func (RequestLoad) Category() Category           { return CategoryResource }
func (LoadSuccess) Category() Category           { return CategoryResource }
func (LoadBackground) Category() Category        { return CategoryResource }
func (LoadBackgroundSuccess) Category() Category { return CategoryResource }
func (SaveScenario) Category() Category          { return CategoryResource }
func (OpenScenario) Category() Category          { return CategoryResource }
func (ScenarioLoaded) Category() Category        { return CategoryResource }

func (PlayBgm) Category() Category    { return CategoryAudio }
func (PlaySe) Category() Category     { return CategoryAudio }
func (AudioReady) Category() Category { return CategoryAudio }
func (StopBgm) Category() Category    { return CategoryAudio }

func (c Dialogue) dispatch(h Handler)        { h.HandleDialogue(c) }
func (c SetAnimation) dispatch(h Handler)    { h.HandleSetAnimation(c) }
func (c RemoveCharacter) dispatch(h Handler) { h.HandleRemoveCharacter(c) }
func (c Log) dispatch(h Handler)             { h.HandleLog(c) }
func (c NextScene) dispatch(h Handler)       { h.HandleNextScene(c) }
func (c PrevScene) dispatch(h Handler)       { h.HandlePrevScene(c) }
func (c InsertScene) dispatch(h Handler)     { h.HandleInsertScene(c) }
func (c DeleteScene) dispatch(h Handler)     { h.HandleDeleteScene(c) }
func (c JumpScene) dispatch(h Handler)       { h.HandleJumpScene(c) }
func (c SkipTypewriter) dispatch(h Handler)  { h.HandleSkipTypewriter(c) }
func (c ToggleDialogue) dispatch(h Handler)  { h.HandleToggleDialogue(c) }

func (c RequestLoad) dispatch(h Handler)           { h.HandleRequestLoad(c) }
func (c LoadSuccess) dispatch(h Handler)           { h.HandleLoadSuccess(c) }
func (c LoadBackground) dispatch(h Handler)        { h.HandleLoadBackground(c) }
func (c LoadBackgroundSuccess) dispatch(h Handler) { h.HandleLoadBackgroundSuccess(c) }
func (c SaveScenario) dispatch(h Handler)          { h.HandleSaveScenario(c) }
func (c OpenScenario) dispatch(h Handler)          { h.HandleOpenScenario(c) }
func (c ScenarioLoaded) dispatch(h Handler)        { h.HandleScenarioLoaded(c) }

func (c PlayBgm) dispatch(h Handler)    { h.HandlePlayBgm(c) }
func (c PlaySe) dispatch(h Handler)     { h.HandlePlaySe(c) }
func (c AudioReady) dispatch(h Handler) { h.HandleAudioReady(c) }
func (c StopBgm) dispatch(h Handler)    { h.HandleStopBgm(c) }

// Dispatch routes one command to its handler method.
func Dispatch(c Command, h Handler) {
	c.dispatch(h)
}

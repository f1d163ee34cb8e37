package scene

import "github.com/Carmen-Shannon/aefr-go/engine/scenario"

// SceneBuilderOption configures NewScene.
type SceneBuilderOption func(*scene)

// WithScenario opens s instead of the startup scenario.
func WithScenario(s *scenario.Scenario) SceneBuilderOption {
	return func(sc *scene) {
		sc.script = s
	}
}

// WithLogCapacity sets how many console lines are kept.
func WithLogCapacity(n int) SceneBuilderOption {
	return func(sc *scene) {
		sc.logs = NewLogRing(n)
	}
}

// WithTypewriterInterval sets the seconds between two revealed runes.
func WithTypewriterInterval(seconds float32) SceneBuilderOption {
	return func(sc *scene) {
		sc.typewriter = NewTypewriter(seconds)
	}
}

// NewScene creates an empty stage showing the first scene of its scenario, with the
// dialogue box visible and the ready line in the console.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Scene: the new stage
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{dialogueVisible: true}
	for _, option := range options {
		option(s)
	}
	if s.logs == nil {
		s.logs = NewLogRing(DefaultLogCapacity)
	}
	if s.typewriter == nil {
		s.typewriter = NewTypewriter(DefaultTypewriterInterval)
	}
	if s.script == nil {
		s.script = scenario.New()
	}
	s.SetScenario(s.script)
	s.logs.Push(ReadyMessage)
	return s
}

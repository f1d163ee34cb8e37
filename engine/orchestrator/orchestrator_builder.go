package orchestrator

import (
	"errors"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/loader"
	"github.com/Carmen-Shannon/aefr-go/engine/scene"
	"github.com/Carmen-Shannon/aefr-go/engine/scheduler"
)

// ErrNoRenderer is returned by NewOrchestrator without a renderer.
var ErrNoRenderer = errors.New("orchestrator: renderer is required")

// OrchestratorBuilderOption configures NewOrchestrator.
type OrchestratorBuilderOption func(*orchestrator)

// WithBus sets the command bus. Without it a new bus is created.
func WithBus(b bus.Bus) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.bus = b
	}
}

// WithLoader sets the resource loader. It must send to the orchestrator's bus.
func WithLoader(l loader.Loader) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.loader = l
	}
}

// WithLoaderOptions configures the loader NewOrchestrator creates when WithLoader is not given.
func WithLoaderOptions(options ...loader.LoaderBuilderOption) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.loaderOptions = append(o.loaderOptions, options...)
	}
}

// WithScheduler sets the pool that runs character updates.
func WithScheduler(s scheduler.Scheduler) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.scheduler = s
	}
}

// WithPlayer sets the audio player. Without it audio is silent.
func WithPlayer(p audio.Player) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.player = p
	}
}

// WithScene sets the initial stage.
func WithScene(s scene.Scene) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.scene = s
	}
}

// WithApplyOnNavigate turns scene application on scenario navigation on or off.
func WithApplyOnNavigate(apply bool) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.applyOnNavigate = apply
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) OrchestratorBuilderOption {
	return func(o *orchestrator) {
		o.logger = l
	}
}

// NewOrchestrator wires a stage around r. Missing subsystems get defaults: a new bus, a
// loader sending to it, a scheduler sized to the machine, the silent player and the
// startup scene. The orchestrator owns all of them and Close shuts them down.
//
// Parameters:
//   - r: the renderer that creates textures
//   - options: builder options
//
// Returns:
//   - Orchestrator: the wired orchestrator
//   - error: ErrNoRenderer if r is nil
func NewOrchestrator(r drawlist.Renderer, options ...OrchestratorBuilderOption) (Orchestrator, error) {
	if r == nil {
		return nil, ErrNoRenderer
	}
	o := &orchestrator{
		renderer:        r,
		applyOnNavigate: true,
		painter:         character.NewPainter(),
	}
	for _, option := range options {
		option(o)
	}
	o.logger = logging.OrNoOp(o.logger)

	if o.bus == nil {
		o.bus = bus.NewBus()
	}
	if o.loader == nil {
		opts := append([]loader.LoaderBuilderOption{loader.WithLogger(o.logger)}, o.loaderOptions...)
		o.loader = loader.NewLoader(o.bus, opts...)
	}
	if o.scheduler == nil {
		o.scheduler = scheduler.NewScheduler(scheduler.WithLogger(o.logger))
	}
	if o.player == nil {
		o.player = audio.NewNoOp()
	}
	if o.scene == nil {
		o.scene = scene.NewScene()
	}
	o.active = make([]character.Character, 0, scene.SlotCount)
	return o, nil
}

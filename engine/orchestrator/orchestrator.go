// Package orchestrator runs one frame of the stage: it drains the command bus into the
// scene, updates every character on the scheduler and builds the draw list.
package orchestrator

import (
	"fmt"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/audio"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/loader"
	"github.com/Carmen-Shannon/aefr-go/engine/scene"
	"github.com/Carmen-Shannon/aefr-go/engine/scheduler"
)

// Layout constants at the 720 pixel reference height.
const (
	BaseHeight   float32 = 720
	slotOriginX  float32 = 0.15
	slotSpacingX float32 = 0.175
	slotDropY    float32 = 30
)

// Orchestrator owns the scene and every subsystem that feeds it. All methods belong to
// the frame goroutine; other goroutines talk to it through the bus.
type Orchestrator interface {
	bus.Handler

	// Frame advances the stage by elapsed seconds and returns the frame to draw. The draw
	// list is reused by the next call.
	//
	// Parameters:
	//   - elapsed: seconds since the previous frame, clamped to character.MaxDelta
	//   - width, height: the viewport size in pixels
	//
	// Returns:
	//   - *drawlist.DrawList: the frame geometry
	//   - error: error if a character update panicked; the list is still usable
	Frame(elapsed, width, height float32) (*drawlist.DrawList, error)

	// Scene exposes the stage state.
	Scene() scene.Scene

	// Bus returns the command bus the orchestrator drains.
	Bus() bus.Bus

	// Loader returns the resource loader.
	Loader() loader.Loader

	// Close stops the loader, the scheduler and the audio player and releases every texture.
	Close()
}

type orchestrator struct {
	bus       bus.Bus
	loader    loader.Loader
	scheduler scheduler.Scheduler
	renderer  drawlist.Renderer
	player    audio.Player
	scene     scene.Scene
	logger    logging.Logger

	applyOnNavigate bool
	loaderOptions   []loader.LoaderBuilderOption

	// targets are the paths last requested per key, loaded or still in flight.
	slotTargets [scene.SlotCount]string
	bgTarget    string
	bgmTarget   string

	painter *character.Painter
	arena   drawlist.Arena
	list    drawlist.DrawList
	active  []character.Character
	clock   float32
	closed  bool
}

var _ Orchestrator = &orchestrator{}

func (o *orchestrator) Scene() scene.Scene {
	return o.scene
}

func (o *orchestrator) Bus() bus.Bus {
	return o.bus
}

func (o *orchestrator) Loader() loader.Loader {
	return o.loader
}

func (o *orchestrator) Frame(elapsed, width, height float32) (*drawlist.DrawList, error) {
	o.bus.Drain(o)

	dt := common.Clamp(elapsed, 0, character.MaxDelta)
	o.clock += dt

	o.active = o.active[:0]
	scaleFactor := height / BaseHeight
	for _, i := range o.scene.Populated() {
		c := o.scene.Character(i)
		c.SetLayout(
			width*(slotOriginX+float32(i)*slotSpacingX),
			height+slotDropY*scaleFactor,
			character.DefaultScale*scaleFactor,
		)
		o.active = append(o.active, c)
	}

	err := o.scheduler.RunParallel(len(o.active), func(i int) {
		o.active[i].UpdateParallel(dt)
	})
	if err != nil {
		o.logger.Error("character update failed", "error", err)
		err = fmt.Errorf("frame update: %w", err)
	}

	o.build(width, height)
	o.scene.AdvanceTypewriter(dt)
	return &o.list, err
}

func (o *orchestrator) build(width, height float32) {
	o.arena.Reset()
	o.list.Reset(width, height)

	if bg := o.scene.Background(); bg != nil {
		m := o.arena.Next()
		m.Texture = bg
		dst := drawlist.CoverRect(float32(bg.Width()), float32(bg.Height()), width, height)
		m.AppendRect(dst, drawlist.UnitRect, drawlist.White)
		o.list.Background = m
	}

	for _, c := range o.active {
		m := o.arena.Next()
		o.painter.Paint(c, m)
		o.list.Characters = append(o.list.Characters, m)
	}

	if o.scene.DialogueVisible() {
		m := o.arena.Next()
		box := LayoutDialogueBox(width, height, o.scene.TypewriterDone(), o.clock)
		box.Append(m, width, height)
		o.list.Overlay = append(o.list.Overlay, m)
	}
}

func (o *orchestrator) Close() {
	if o.closed {
		return
	}
	o.closed = true
	o.bus.Close()
	o.loader.Close()
	o.scheduler.Close()
	o.player.Close()
	// results that arrived during shutdown still own characters
	o.bus.Drain(discard{})
	o.scene.Release()
}

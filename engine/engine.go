package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/orchestrator"
	"github.com/Carmen-Shannon/aefr-go/engine/profiler"
	"github.com/Carmen-Shannon/aefr-go/engine/window"
)

var (
	// ErrNoRenderer is returned by NewEngine when no renderer was given.
	ErrNoRenderer = errors.New("engine needs a renderer")
	// ErrNoOrchestrator is returned by NewEngine when no orchestrator was given.
	ErrNoOrchestrator = errors.New("engine needs an orchestrator")
)

// resizer is implemented by renderers that own a presentation surface.
type resizer interface {
	Resize(width, height int) error
}

// engine implements the Engine interface.
// Coordinates the window thread, the render goroutine and shutdown.
type engine struct {
	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window       window.Window
	renderer     drawlist.Renderer
	orchestrator orchestrator.Orchestrator
	logger       logging.Logger

	profiler         *profiler.Profiler
	profilerInterval time.Duration
	profilingEnabled atomic.Bool

	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	quickSavePath string

	// width and height are written by the window thread and read by the render goroutine.
	width  atomic.Int32
	height atomic.Int32
	// surfaceW and surfaceH are the size the renderer was last resized to.
	surfaceW, surfaceH int

	// typing mirrors whether the dialogue is still being revealed, so input can choose
	// between skipping the typewriter and advancing the scene.
	typing atomic.Bool

	frames  atomic.Uint64
	lastErr string
}

// Engine drives the stage: it owns the render loop and turns window input into bus commands.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	Window() window.Window

	// Orchestrator returns the stage the engine renders.
	Orchestrator() orchestrator.Orchestrator

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers a function called after each rendered frame on the render goroutine.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns how many frames have been rendered.
	Frames() uint64

	// Run starts the render goroutine and, with a window, runs its message loop.
	// Blocks until the window closes or Quit is called, then waits for the render goroutine.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// With a window, its input and resize callbacks are bound to the stage.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoRenderer or ErrNoOrchestrator if a required part is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		quitChannel: make(chan struct{}),
	}
	e.width.Store(1280)
	e.height.Store(720)

	for _, opt := range options {
		opt(e)
	}
	e.logger = logging.OrNoOp(e.logger)

	if e.renderer == nil {
		return nil, ErrNoRenderer
	}
	if e.orchestrator == nil {
		return nil, ErrNoOrchestrator
	}
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger), profiler.WithInterval(e.profilerInterval))

	if e.window != nil {
		e.resize(e.window.Width(), e.window.Height())
		e.window.SetResizeCallback(e.resize)
		e.window.SetKeyDownCallback(e.handleKey)
		e.window.SetClickCallback(func(_, _ int32) { e.advance() })
		e.window.SetScrollCallback(e.handleScroll)
		e.window.SetDropCallback(e.handleDrop)
		// Quit from another goroutine ends the message loop on the window thread.
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				if err := e.window.Close(); err != nil {
					e.logger.Warn("window close failed", "error", err)
				}
			default:
			}
		})
	}
	if s, ok := e.renderer.(interface{ Size() (int, int) }); ok {
		e.surfaceW, e.surfaceH = s.Size()
	}
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Orchestrator() orchestrator.Orchestrator {
	return e.orchestrator
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the render and quit goroutines, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleRender()
	go e.handleQuit()
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// It is the only goroutine that touches the orchestrator, so the stage and every texture stay on
// one OS thread. Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", r)
			e.signalQuit()
		}
	}()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.renderFrame(dt)

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// renderFrame advances the stage and submits it. Render errors are logged once until the next
// successful frame.
func (e *engine) renderFrame(dt float32) {
	w, h := int(e.width.Load()), int(e.height.Load())
	if w != e.surfaceW || h != e.surfaceH {
		if r, ok := e.renderer.(resizer); ok {
			if err := r.Resize(w, h); err != nil {
				e.logger.Error("resize failed", "width", w, "height", h, "error", err)
			}
		}
		e.surfaceW, e.surfaceH = w, h
	}

	list, err := e.orchestrator.Frame(dt, float32(w), float32(h))
	if err != nil {
		e.logger.Warn("frame update failed", "error", err)
	}
	e.typing.Store(!e.orchestrator.Scene().TypewriterDone())

	if err := e.renderer.Render(list); err != nil {
		if msg := err.Error(); msg != e.lastErr {
			e.logger.Error("render failed", "error", err)
			e.lastErr = msg
		}
	} else {
		e.lastErr = ""
		e.frames.Add(1)
	}

	if e.profilingEnabled.Load() {
		e.profiler.Tick(list.Stats())
	}
	if e.renderCallback != nil {
		e.renderCallback(dt)
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) resize(width, height int) {
	e.width.Store(int32(width))
	e.height.Store(int32(height))
}

func (e *engine) send(cmd bus.Command) {
	if !e.orchestrator.Bus().Send(cmd) {
		e.logger.Debug("input dropped, bus closed", "command", fmt.Sprintf("%T", cmd))
	}
}

// advance finishes the current line, or moves to the next scene once it is fully shown.
func (e *engine) advance() {
	if e.typing.Load() {
		e.send(bus.SkipTypewriter{})
		return
	}
	e.send(bus.NextScene{})
}

func (e *engine) handleKey(keyCode uint32) {
	switch keyCode {
	case common.KeyRight, common.KeySpace, common.KeyEnter:
		e.advance()
	case common.KeyLeft:
		e.send(bus.PrevScene{})
	case common.KeyInsert:
		e.send(bus.InsertScene{})
	case common.KeyDelete:
		e.send(bus.DeleteScene{})
	case common.KeyH:
		e.send(bus.ToggleDialogue{})
	case common.KeyF5, common.KeyF9:
		if e.quickSavePath == "" {
			e.send(bus.Log{Message: "[scenario] no quick save path configured"})
			return
		}
		if keyCode == common.KeyF5 {
			e.send(bus.SaveScenario{Path: e.quickSavePath})
		} else {
			e.send(bus.OpenScenario{Path: e.quickSavePath})
		}
	}
}

// handleScroll pages through scenes: wheel up goes back, wheel down advances.
func (e *engine) handleScroll(delta float32) {
	switch {
	case delta > 0:
		e.send(bus.PrevScene{})
	case delta < 0:
		e.advance()
	}
}

func (e *engine) handleDrop(paths []string) {
	for _, p := range paths {
		e.send(dropCommand(p))
	}
}

// dropCommand picks what a dropped file means from its extension.
func dropCommand(path string) bus.Command {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return bus.OpenScenario{Path: path}
	case ".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tif", ".tiff":
		return bus.LoadBackground{Path: path}
	case ".mp3", ".wav", ".ogg", ".flac":
		return bus.PlayBgm{Path: path}
	default:
		return bus.Log{Message: fmt.Sprintf("[drop] unsupported file %s", filepath.Base(path))}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

package engine

import (
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
	"github.com/Carmen-Shannon/aefr-go/engine/orchestrator"
	"github.com/Carmen-Shannon/aefr-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//   - interval: how often a report is logged (non-positive keeps 1 second)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool, interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
		e.profilerInterval = interval
	}
}

// WithWindow sets the window the engine presents to and reads input from.
// Without one the engine runs headless until Quit.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer draw lists are submitted to. Renderers with a Resize method
// are resized on the render goroutine when the window changes size.
//
// Parameters:
//   - r: the renderer, which must be the one the orchestrator creates textures with
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r drawlist.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithOrchestrator sets the stage to render.
func WithOrchestrator(o orchestrator.Orchestrator) EngineBuilderOption {
	return func(e *engine) {
		e.orchestrator = o
	}
}

// WithSize sets the viewport size used until a window reports its own.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSize(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.resize(width, height)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}

// WithQuickSavePath sets the scenario file F5 saves to and F9 opens.
func WithQuickSavePath(path string) EngineBuilderOption {
	return func(e *engine) {
		e.quickSavePath = path
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
	}
}

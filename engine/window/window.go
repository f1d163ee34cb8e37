package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling for the stage.
// Callbacks run on the goroutine that calls ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code, see common.Key*
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetClickCallback sets the callback for left mouse button presses.
	//
	// Parameters:
	//   - callback: function receiving the cursor x, y position
	SetClickCallback(callback func(x, y int32))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SetDropCallback sets the callback for files dropped onto the window.
	//
	// Parameters:
	//   - callback: function receiving the dropped paths
	SetDropCallback(callback func(paths []string))

	// SetTitle replaces the title bar text.
	SetTitle(title string)

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still open.
	IsRunning() bool

	// Close destroys the window and releases platform resources. Calling it twice is a no-op.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title string

	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	// width and height track the framebuffer, which differs from the window size on high-DPI displays.
	width  int
	height int

	logger logging.Logger

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)
	onClick   func(x, y int32)
	onScroll  func(delta float32)
	onDrop    func(paths []string)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a Window with the specified options.
// Applies default values first, then each option in order. Must be called from the main
// goroutine with the OS thread locked.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if the size limits are inconsistent or the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "AEFR",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  640,
		minHeight: 360,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	w.logger = logging.OrNoOp(w.logger)

	if w.minWidth > w.maxWidth || w.minHeight > w.maxHeight {
		return nil, fmt.Errorf("window size limits %dx%d exceed %dx%d", w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)
	}
	w.width = clampSize(w.width, w.minWidth, w.maxWidth)
	w.height = clampSize(w.height, w.minHeight, w.maxHeight)

	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	w.logger.Info("window created", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

func clampSize(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetClickCallback(callback func(x, y int32)) {
	w.onClick = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetDropCallback(callback func(paths []string)) {
	w.onDrop = callback
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

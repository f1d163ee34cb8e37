package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyH     = 72 // H key (ASCII), hides the dialogue box
	KeySpace = 32 // Spacebar (ASCII)

	KeyEsc    = 256 // Escape key (GLFW)
	KeyEnter  = 257 // Enter key (GLFW)
	KeyInsert = 260 // Insert key (GLFW)
	KeyDelete = 261 // Delete key (GLFW)
	KeyRight  = 262 // Right arrow (GLFW)
	KeyLeft   = 263 // Left arrow (GLFW)

	KeyF5 = 294 // F5 (GLFW), quick save
	KeyF9 = 298 // F9 (GLFW), quick open
)

package loader

import (
	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
)

// skeletonBackend defines the interface for decoding one skeleton file format.
// Concrete implementations (spineBinaryBackend, containerBackend, spineJSONBackend) handle
// format-specific details.
type skeletonBackend interface {
	// Extension returns the file extension the backend reads, including the dot.
	Extension() string

	// Decode builds a skeleton definition from raw file data and binds its attachments to
	// the atlas regions.
	//
	// Parameters:
	//   - data: the file contents
	//   - atlas: the atlas the skeleton's attachments refer to
	//
	// Returns:
	//   - *skeleton.Definition: the decoded definition
	//   - error: error if the data is malformed or refers to missing regions
	Decode(data []byte, atlas *skeleton.Atlas) (*skeleton.Definition, error)
}

// defaultBackends lists the skeleton formats in the order they are tried. Both binary
// backends read .skel; a native export is tried before the container.
func defaultBackends() []skeletonBackend {
	return []skeletonBackend{spineBinaryBackend{}, containerBackend{}, spineJSONBackend{}}
}

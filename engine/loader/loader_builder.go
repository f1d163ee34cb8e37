package loader

import (
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/automation/tools/worker"
)

const (
	// DefaultWorkers is the number of loader workers.
	DefaultWorkers = 4
	// DefaultQueueSize is the number of jobs that may be queued or running at once.
	DefaultQueueSize = 64

	idleTimeout = 5 * time.Second
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers is an option builder that sets the number of loader workers.
//
// Parameters:
//   - n: the worker count; values below 1 keep the default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize is an option builder that bounds the number of outstanding jobs.
//
// Parameters:
//   - n: the queue size; values below 1 keep the default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the queue option to a loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithMaxTextureSize is an option builder that downscales decoded images larger than size.
//
// Parameters:
//   - size: the largest width or height in pixels, 0 for no limit
//
// Returns:
//   - LoaderBuilderOption: a function that applies the texture size option to a loader
func WithMaxTextureSize(size uint32) LoaderBuilderOption {
	return func(l *loader) {
		l.maxTextureSize = size
	}
}

// WithDefinitionCache is an option builder that turns the skeleton definition cache on or off.
//
// Parameters:
//   - enabled: whether decoded definitions are reused while their files are unchanged
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithDefinitionCache(enabled bool) LoaderBuilderOption {
	return func(l *loader) {
		l.cacheDefinitions = enabled
	}
}

// WithLogger is an option builder that sets the Logger used by the Loader.
func WithLogger(logger logging.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader that reports results through sender.
//
// Parameters:
//   - sender: where results and failures are sent
//   - options: builder options
//
// Returns:
//   - Loader: the started loader
func NewLoader(sender bus.Sender, options ...LoaderBuilderOption) Loader {
	l := &loader{
		cache:            make(map[string]cachedDefinition),
		cacheDefinitions: true,
		workers:          DefaultWorkers,
		queueSize:        DefaultQueueSize,
		backends:         defaultBackends(),
		gens:             newGenerations(),
		sender:           sender,
	}
	for _, option := range options {
		option(l)
	}
	l.logger = logging.OrNoOp(l.logger)
	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, idleTimeout)
	l.logger.Debug("loader started", "workers", l.workers, "queue", l.queueSize)
	return l
}

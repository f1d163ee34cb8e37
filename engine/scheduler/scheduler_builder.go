package scheduler

import (
	"runtime"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/automation/tools/worker"
)

// SchedulerBuilderOption configures a scheduler at construction.
type SchedulerBuilderOption func(*scheduler)

// WithWorkers fixes the pool size. Zero or less keeps the automatic size.
func WithWorkers(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogicalCores sizes the pool as if the machine had n logical cores.
func WithLogicalCores(n int) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.workers = WorkerCount(n)
	}
}

// WithLogger sets the logger used to report recovered panics.
func WithLogger(l logging.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a scheduler sized by WorkerCount(runtime.NumCPU()) unless an
// option overrides it.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Scheduler: the started scheduler
func NewScheduler(options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		workers: WorkerCount(runtime.NumCPU()),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = logging.OrNoOp(s.logger)

	// The pool is created after options so WithWorkers can override the default.
	s.pool = worker.NewDynamicWorkerPool(s.workers, poolQueueSize, idleTimeout)
	s.logger.Debug("scheduler started", "workers", s.workers)
	return s
}

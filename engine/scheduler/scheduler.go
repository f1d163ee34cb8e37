// Package scheduler runs per-frame fork-join work on a bounded pool that leaves headroom
// for the frame and audio goroutines.
package scheduler

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/automation/tools/worker"
)

// ErrClosed is returned by RunParallel after Close.
var ErrClosed = errors.New("scheduler: closed")

// WorkerCount returns the pool size for a machine with the given number of logical cores:
// two cores are left for the frame and audio goroutines, and at least one worker is used.
//
// Parameters:
//   - cores: the number of logical cores
//
// Returns:
//   - int: cores-2 when cores > 2, otherwise 1
func WorkerCount(cores int) int {
	if cores > 2 {
		return cores - 2
	}
	return 1
}

// Scheduler fans a batch of independent units of work out to its workers and waits for
// all of them.
type Scheduler interface {
	// Workers returns the pool size.
	Workers() int
	// RunParallel calls fn(i) for every i in [0, n) on the pool and blocks until all calls
	// return. Panics in fn are recovered and reported in the returned error; every other
	// unit still runs.
	//
	// Parameters:
	//   - n: the number of units
	//   - fn: the work for one unit; calls must touch disjoint state
	//
	// Returns:
	//   - error: nil, ErrClosed, or the joined panics of failing units
	RunParallel(n int, fn func(i int)) error
	// Close stops the pool. RunParallel fails afterwards.
	Close()
}

type scheduler struct {
	pool    worker.DynamicWorkerPool
	workers int
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
	taskID atomic.Int64
}

var _ Scheduler = &scheduler{}

func (s *scheduler) Workers() int {
	return s.workers
}

func (s *scheduler) RunParallel(n int, fn func(i int)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if n <= 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		panics []error
	)
	wg.Add(n)
	for i := 0; i < n; i++ {
		unit := i
		s.pool.SubmitTask(worker.Task{
			ID: int(s.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err := fmt.Errorf("unit %d panicked: %v", unit, r)
						s.logger.Error("scheduler task panicked", "unit", unit, "panic", r, "stack", string(debug.Stack()))
						errMu.Lock()
						panics = append(panics, err)
						errMu.Unlock()
					}
				}()
				fn(unit)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if len(panics) > 0 {
		return fmt.Errorf("scheduler: %w", errors.Join(panics...))
	}
	return nil
}

func (s *scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pool.Stop()
}

// poolQueueSize bounds queued units; SubmitTask blocks the caller when it is full.
const poolQueueSize = 64

// idleTimeout is passed to the pool for idle worker reaping.
const idleTimeout = 1 * time.Second

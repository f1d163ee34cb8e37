package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/drawlist"
)

// Report is one interval's worth of frame and memory statistics.
type Report struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64

	// AvgVertices and AvgMeshes are per-frame means of the submitted draw lists.
	AvgMeshes   float64
	AvgVertices float64
}

// Profiler tracks frame rate, draw list size and memory statistics.
// Logs a Report at a configurable interval. A Profiler belongs to the frame goroutine.
type Profiler struct {
	logger         logging.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount  int
	meshSum     int
	vertexSum   int
	lastTime    time.Time
	memStats    runtime.MemStats
	lastGCCount uint32
	lastAlloc   uint64
	last        Report
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithInterval sets how often a report is logged. Non-positive values keep the 1 second default.
func WithInterval(d time.Duration) Option {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(logger logging.Logger) Option {
	return func(p *Profiler) {
		p.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...Option) *Profiler {
	p := &Profiler{
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.logger = logging.OrNoOp(p.logger)
	p.lastTime = p.now()
	return p
}

// Tick should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed: FPS, mean draw list size,
// heap usage, allocation rate, GC count and pause times, total memory.
//
// Parameters:
//   - stats: the size of the frame's draw list
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats drawlist.Stats) bool {
	p.frameCount++
	p.meshSum += stats.Meshes
	p.vertexSum += stats.Vertices

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows (tracks churn), Sys is the process footprint.
	r := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		AvgMeshes:   float64(p.meshSum) / float64(p.frameCount),
		AvgVertices: float64(p.vertexSum) / float64(p.frameCount),
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Info("profile",
		"fps", r.FPS,
		"meshes", r.AvgMeshes,
		"vertices", r.AvgVertices,
		"heap_mb", r.HeapMB,
		"alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_last_us", r.LastPauseUs,
		"gc_max_us", r.MaxPauseUs,
		"sys_mb", r.SysMB,
	)

	p.last = r
	p.frameCount = 0
	p.meshSum = 0
	p.vertexSum = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged report.
func (p *Profiler) Last() Report {
	return p.last
}

package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common"
	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/Carmen-Shannon/aefr-go/engine/bus"
	"github.com/Carmen-Shannon/aefr-go/engine/character"
	"github.com/Carmen-Shannon/aefr-go/engine/scenario"
	"github.com/Carmen-Shannon/aefr-go/engine/skeleton"
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
)

// ErrMissingSkeleton is returned when neither <stem>.skel nor <stem>.json exists next to an atlas.
var ErrMissingSkeleton = errors.New("missing .skel or .json")

// LoadedCharacter is everything one character load produces. It is plain owned data that
// can cross to the frame goroutine.
type LoadedCharacter struct {
	Definition *skeleton.Definition
	Character  character.Character
	Image      common.TextureStagingData
	PageName   string
	Clips      []string
}

type cachedDefinition struct {
	skelModTime  time.Time
	atlasModTime time.Time
	def          *skeleton.Definition
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu    sync.RWMutex
	cache map[string]cachedDefinition

	cacheDefinitions bool
	maxTextureSize   uint32
	workers          int
	queueSize        int

	backends []skeletonBackend
	gens     *generations
	sender   bus.Sender
	logger   logging.Logger

	pool    worker.DynamicWorkerPool
	stateMu sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	pending atomic.Int64
	taskID  atomic.Int64
}

// Loader defines the public-facing interface for reading characters, backgrounds, audio and
// scenario files off the frame goroutine. Requests return immediately; results and failures
// come back as bus commands, tagged with the generation of their target so the receiver
// can drop results that a newer request has superseded.
type Loader interface {
	// RequestLoad queues a character load for a slot and supersedes any earlier one.
	// Emits bus.LoadSuccess, or bus.Log on failure.
	//
	// Parameters:
	//   - slot: the target slot
	//   - path: the atlas path; the skeleton is found next to it
	//
	// Returns:
	//   - uint64: the generation of the request
	RequestLoad(slot int, path string) uint64

	// RequestBackground queues a background image decode. Emits bus.LoadBackgroundSuccess.
	//
	// Parameters:
	//   - path: the image path
	//
	// Returns:
	//   - uint64: the generation of the request
	RequestBackground(path string) uint64

	// RequestAudio queues an audio file read. Emits bus.AudioReady. Looping requests are
	// background music and supersede each other; one-shot effects never do.
	//
	// Parameters:
	//   - path: the audio file path
	//   - loop: true for background music
	//
	// Returns:
	//   - uint64: the generation of a music request, 0 for effects
	RequestAudio(path string, loop bool) uint64

	// RequestScenario queues a scenario file read. Emits bus.ScenarioLoaded.
	//
	// Parameters:
	//   - path: the scenario file, JSON or YAML by extension
	RequestScenario(path string)

	// SaveScenario queues a write of a copy of the scenario.
	//
	// Parameters:
	//   - path: the destination, JSON or YAML by extension
	//   - snapshot: the scenario to write; it is copied before the call returns
	SaveScenario(path string, snapshot *scenario.Scenario)

	// LoadCharacter runs the character pipeline synchronously: atlas, page image,
	// skeleton (.skel then .json) and a character playing its first clip.
	//
	// Parameters:
	//   - path: the atlas path
	//
	// Returns:
	//   - *LoadedCharacter: the built character and its page pixels
	//   - error: error if any stage fails
	LoadCharacter(path string) (*LoadedCharacter, error)

	// IsCurrent reports whether gen is still the latest request for key.
	IsCurrent(key string, gen uint64) bool

	// Supersede invalidates every outstanding request for key.
	//
	// Returns:
	//   - uint64: the new generation
	Supersede(key string) uint64

	// Pending returns the number of queued and running jobs.
	Pending() int

	// Close waits for running jobs and stops the workers. Queued jobs that have not
	// started are skipped.
	Close()
}

var _ Loader = &loader{}

func (l *loader) RequestLoad(slot int, path string) uint64 {
	key := SlotKey(slot)
	gen := l.gens.next(key)
	requestID := uuid.NewString()
	l.submit("load "+path, func() {
		if !l.gens.isCurrent(key, gen) {
			l.logger.Debug("skipping superseded load", "slot", slot, "path", path, "request", requestID)
			return
		}
		start := time.Now()
		res, err := l.LoadCharacter(path)
		if err != nil {
			l.fail("load", path, err)
			return
		}
		l.logger.Info("character loaded", "slot", slot, "path", path, "request", requestID,
			"clips", len(res.Clips), "elapsed", time.Since(start))
		l.sender.Send(bus.LoadSuccess{
			Slot:       slot,
			Path:       path,
			Generation: gen,
			RequestID:  requestID,
			Character:  res.Character,
			Image:      res.Image,
			PageName:   res.PageName,
			Clips:      res.Clips,
		})
	})
	return gen
}

func (l *loader) RequestBackground(path string) uint64 {
	gen := l.gens.next(KeyBackground)
	l.submit("background "+path, func() {
		if !l.gens.isCurrent(KeyBackground, gen) {
			l.logger.Debug("skipping superseded background", "path", path)
			return
		}
		img, err := common.DecodeImageFile(path)
		if err != nil {
			l.fail("background", path, err)
			return
		}
		l.sender.Send(bus.LoadBackgroundSuccess{Path: path, Generation: gen, Image: img.Fit(l.maxTextureSize)})
	})
	return gen
}

func (l *loader) RequestAudio(path string, loop bool) uint64 {
	var gen uint64
	if loop {
		gen = l.gens.next(KeyBgm)
	}
	l.submit("audio "+path, func() {
		if loop && !l.gens.isCurrent(KeyBgm, gen) {
			l.logger.Debug("skipping superseded music", "path", path)
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			l.fail("audio", path, err)
			return
		}
		l.sender.Send(bus.AudioReady{Path: path, Data: data, Loop: loop, Generation: gen})
	})
	return gen
}

func (l *loader) RequestScenario(path string) {
	l.submit("scenario "+path, func() {
		s, err := scenario.Load(path)
		if err != nil {
			l.fail("open scenario", path, err)
			return
		}
		l.sender.Send(bus.ScenarioLoaded{Path: path, Scenario: s})
	})
}

func (l *loader) SaveScenario(path string, snapshot *scenario.Scenario) {
	if snapshot == nil {
		return
	}
	s := snapshot.Clone()
	l.submit("save "+path, func() {
		if err := scenario.Save(path, s); err != nil {
			l.fail("save scenario", path, err)
			return
		}
		l.sender.Send(bus.Log{Message: fmt.Sprintf("[scenario] saved %d scenes to %s", s.Len(), path)})
	})
}

func (l *loader) LoadCharacter(path string) (*LoadedCharacter, error) {
	atlasInfo, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open atlas %s: %w", path, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read atlas %s: %w", path, err)
	}
	atlas, err := ParseAtlas(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse atlas %s: %w", path, err)
	}

	page := atlas.Pages[0]
	img, err := common.DecodeImageFile(filepath.Join(filepath.Dir(path), page.Name))
	if err != nil {
		return nil, err
	}
	if page.Width == 0 || page.Height == 0 {
		page.Width, page.Height = int(img.Width), int(img.Height)
		atlas.ComputeUVs()
	}

	def, err := l.loadDefinition(path, atlas, atlasInfo.ModTime())
	if err != nil {
		return nil, err
	}
	ch, err := character.NewCharacter(def)
	if err != nil {
		return nil, err
	}
	return &LoadedCharacter{
		Definition: def,
		Character:  ch,
		Image:      img.Fit(l.maxTextureSize),
		PageName:   page.Name,
		Clips:      def.AnimationNames(),
	}, nil
}

// loadDefinition tries every backend's file next to the atlas in order. A file that fails
// to decode falls through to the next one.
func (l *loader) loadDefinition(atlasPath string, atlas *skeleton.Atlas, atlasModTime time.Time) (*skeleton.Definition, error) {
	stem := strings.TrimSuffix(atlasPath, filepath.Ext(atlasPath))
	var (
		errs  []error
		found bool
	)
	for _, b := range l.backends {
		path := stem + b.Extension()
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		found = true

		if def, ok := l.cached(path, info.ModTime(), atlasModTime); ok {
			return def, nil
		}
		def, err := l.decode(b, path, atlas)
		if err != nil {
			l.logger.Debug("skeleton decode failed", "path", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		l.store(path, info.ModTime(), atlasModTime, def)
		return def, nil
	}
	if !found && len(errs) == 0 {
		return nil, ErrMissingSkeleton
	}
	return nil, errors.Join(errs...)
}

func (l *loader) decode(b skeletonBackend, path string, atlas *skeleton.Atlas) (*skeleton.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := b.Decode(data, atlas)
	if err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func (l *loader) cached(path string, skelModTime, atlasModTime time.Time) (*skeleton.Definition, bool) {
	if !l.cacheDefinitions {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.cache[path]
	if !ok || !entry.skelModTime.Equal(skelModTime) || !entry.atlasModTime.Equal(atlasModTime) {
		return nil, false
	}
	return entry.def, true
}

func (l *loader) store(path string, skelModTime, atlasModTime time.Time, def *skeleton.Definition) {
	if !l.cacheDefinitions {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[path] = cachedDefinition{skelModTime: skelModTime, atlasModTime: atlasModTime, def: def}
}

func (l *loader) IsCurrent(key string, gen uint64) bool {
	return l.gens.isCurrent(key, gen)
}

func (l *loader) Supersede(key string) uint64 {
	return l.gens.next(key)
}

func (l *loader) Pending() int {
	return int(l.pending.Load())
}

func (l *loader) Close() {
	l.stateMu.Lock()
	if l.closed {
		l.stateMu.Unlock()
		return
	}
	l.closed = true
	l.stateMu.Unlock()

	l.wg.Wait()
	l.pool.Stop()
	l.logger.Debug("loader stopped")
}

// submit queues a job unless the queue is full. A full queue rejects the job with a Log
// command so the caller never blocks.
func (l *loader) submit(name string, job func()) bool {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if l.closed {
		l.logger.Warn("request after close", "job", name)
		return false
	}
	if l.pending.Add(1) > int64(l.queueSize) {
		l.pending.Add(-1)
		l.logger.Warn("loader queue full", "job", name, "queue", l.queueSize)
		l.sender.Send(bus.Log{Message: fmt.Sprintf("[error] loader busy, dropped %s", name)})
		return false
	}

	l.wg.Add(1)
	l.pool.SubmitTask(worker.Task{
		ID:      int(l.taskID.Add(1)),
		Payload: name,
		Do: func() (any, error) {
			defer l.wg.Done()
			defer l.pending.Add(-1)
			defer func() {
				if r := recover(); r != nil {
					l.logger.Error("loader job panicked", "job", name, "panic", r, "stack", string(debug.Stack()))
					l.sender.Send(bus.Log{Message: fmt.Sprintf("[error] %s: %v", name, r)})
				}
			}()
			if l.isClosed() {
				return nil, nil
			}
			job()
			return nil, nil
		},
	})
	return true
}

func (l *loader) isClosed() bool {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.closed
}

func (l *loader) fail(op, path string, err error) {
	l.logger.Warn("loader job failed", "op", op, "path", path, "error", err)
	l.sender.Send(bus.Log{Message: fmt.Sprintf("[error] %s %s: %v", op, path, err)})
}

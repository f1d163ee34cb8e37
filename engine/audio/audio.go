// Package audio plays looping background music and one-shot sound effects. Only the
// play/stop contract is exposed; decoding and mixing are done by beep.
package audio

import (
	"sync"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
)

// Player plays encoded audio handed over by the loader. All methods are safe to call from
// the frame goroutine and never block on the device.
type Player interface {
	// PlayBgm replaces the current background music and loops the new track.
	//
	// Parameters:
	//   - name: the source path, used for format detection and reporting
	//   - data: the encoded file contents
	//
	// Returns:
	//   - error: error if the data cannot be decoded; the current music keeps playing
	PlayBgm(name string, data []byte) error

	// PlaySe plays a sound effect once, mixed over the music.
	//
	// Parameters:
	//   - name: the source path
	//   - data: the encoded file contents
	//
	// Returns:
	//   - error: error if the data cannot be decoded
	PlaySe(name string, data []byte) error

	// StopBgm stops the background music. Sound effects keep playing.
	StopBgm()

	// Bgm returns the name of the playing music, or "".
	Bgm() string

	// Enabled reports whether a device is attached. A disabled player accepts every call
	// and plays nothing.
	Enabled() bool

	// Close stops all playback and releases the device.
	Close()
}

// noOpPlayer stands in when audio is disabled or the device failed to open.
type noOpPlayer struct {
	mu  sync.Mutex
	bgm string
}

var _ Player = &noOpPlayer{}

// NewNoOp returns a Player that plays nothing.
func NewNoOp() Player {
	return &noOpPlayer{}
}

// PlayBgm still validates the data so a bad file is reported the same way with or without a device.
func (p *noOpPlayer) PlayBgm(name string, data []byte) error {
	if _, err := formatOf(name, data); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bgm = name
	return nil
}

func (p *noOpPlayer) PlaySe(name string, data []byte) error {
	_, err := formatOf(name, data)
	return err
}

func (p *noOpPlayer) StopBgm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bgm = ""
}

func (p *noOpPlayer) Bgm() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bgm
}

func (p *noOpPlayer) Enabled() bool { return false }

func (p *noOpPlayer) Close() {}

// disabled logs why audio is off and returns the no-op player.
func disabled(logger logging.Logger, reason string, args ...any) Player {
	logger.Warn("audio disabled: "+reason, args...)
	return NewNoOp()
}

package audio

import (
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

const (
	// DefaultSampleRate is the device rate used when none is configured.
	DefaultSampleRate = 44100
	// DefaultBuffer is the speaker buffer length used when none is configured.
	DefaultBuffer = 100 * time.Millisecond
)

type playerOptions struct {
	enabled    bool
	sampleRate int
	buffer     time.Duration
	logger     logging.Logger
}

// AudioBuilderOption configures NewPlayer.
type AudioBuilderOption func(*playerOptions)

// WithEnabled turns the device on or off. A disabled player is the no-op player.
func WithEnabled(enabled bool) AudioBuilderOption {
	return func(o *playerOptions) {
		o.enabled = enabled
	}
}

// WithSampleRate sets the device sample rate in Hz. Tracks at other rates are resampled.
func WithSampleRate(hz int) AudioBuilderOption {
	return func(o *playerOptions) {
		if hz > 0 {
			o.sampleRate = hz
		}
	}
}

// WithBuffer sets the speaker buffer length. Longer buffers trade latency for fewer underruns.
func WithBuffer(d time.Duration) AudioBuilderOption {
	return func(o *playerOptions) {
		if d > 0 {
			o.buffer = d
		}
	}
}

// WithLogger sets the logger used for playback events and device failures.
func WithLogger(l logging.Logger) AudioBuilderOption {
	return func(o *playerOptions) {
		o.logger = l
	}
}

// NewPlayer opens the default output device. When audio is disabled or the device cannot be
// opened, the returned player is the no-op player, so callers never handle device errors.
//
// Parameters:
//   - options: builder options
//
// Returns:
//   - Player: the device-backed player, or the no-op player
func NewPlayer(options ...AudioBuilderOption) Player {
	o := playerOptions{enabled: true, sampleRate: DefaultSampleRate, buffer: DefaultBuffer}
	for _, option := range options {
		option(&o)
	}
	logger := logging.OrNoOp(o.logger)
	if !o.enabled {
		return disabled(logger, "turned off in config")
	}

	rate := beep.SampleRate(o.sampleRate)
	if err := speaker.Init(rate, rate.N(o.buffer)); err != nil {
		return disabled(logger, "speaker init failed", "error", err)
	}
	logger.Info("audio device opened", "sample_rate", o.sampleRate, "buffer", o.buffer)
	return &beepPlayer{rate: rate, logger: logger}
}

// Package config holds the runtime settings of the renderer: window, rendering, loader,
// scheduler, audio, logging, scenario and profiling.
package config

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/aefr-go/common/logging"
)

// Config is the complete configuration. Every field has a yaml key and an AEFR_ environment
// variable; see DefaultConfig for the values used when neither is set.
type Config struct {
	Window    WindowConfig    `yaml:"window" envPrefix:"WINDOW_"`
	Render    RenderConfig    `yaml:"render" envPrefix:"RENDER_"`
	Loader    LoaderConfig    `yaml:"loader" envPrefix:"LOADER_"`
	Scheduler SchedulerConfig `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	Audio     AudioConfig     `yaml:"audio" envPrefix:"AUDIO_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Scenario  ScenarioConfig  `yaml:"scenario" envPrefix:"SCENARIO_"`
	Profiling ProfilingConfig `yaml:"profiling" envPrefix:"PROFILING_"`
}

// WindowConfig sizes and titles the window.
type WindowConfig struct {
	Title  string `yaml:"title" env:"TITLE"`
	Width  int    `yaml:"width" env:"WIDTH"`
	Height int    `yaml:"height" env:"HEIGHT"`
}

// RenderConfig controls the GPU renderer.
type RenderConfig struct {
	VSync         bool `yaml:"vsync" env:"VSYNC"`
	FrameLimit    int  `yaml:"frame_limit" env:"FRAME_LIMIT"`
	ForceSoftware bool `yaml:"force_software" env:"FORCE_SOFTWARE"`
	// MSAA is the sample count, 1 or 4.
	MSAA           int    `yaml:"msaa" env:"MSAA"`
	MaxTextureSize uint32 `yaml:"max_texture_size" env:"MAX_TEXTURE_SIZE"`
}

// LoaderConfig sizes the resource loader.
type LoaderConfig struct {
	Workers          int  `yaml:"workers" env:"WORKERS"`
	QueueSize        int  `yaml:"queue_size" env:"QUEUE_SIZE"`
	CacheDefinitions bool `yaml:"cache_definitions" env:"CACHE_DEFINITIONS"`
}

// SchedulerConfig sizes the animation scheduler. Zero workers sizes it to the machine.
type SchedulerConfig struct {
	Workers int `yaml:"workers" env:"WORKERS"`
}

// AudioConfig controls the output device.
type AudioConfig struct {
	Enabled    bool `yaml:"enabled" env:"ENABLED"`
	SampleRate int  `yaml:"sample_rate" env:"SAMPLE_RATE"`
	BufferMS   int  `yaml:"buffer_ms" env:"BUFFER_MS"`
}

// Buffer returns the speaker buffer length.
func (a AudioConfig) Buffer() time.Duration {
	return time.Duration(a.BufferMS) * time.Millisecond
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Logger builds the logger described by the config, writing to stderr.
func (l LogConfig) Logger() (logging.Logger, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLogLevel, err)
	}
	return logging.New(logging.Config{Level: level, Format: l.Format}), nil
}

// ScenarioConfig selects the scenario opened at startup.
type ScenarioConfig struct {
	Path            string `yaml:"path" env:"PATH"`
	ApplyOnNavigate bool   `yaml:"apply_on_navigate" env:"APPLY_ON_NAVIGATE"`
}

// ProfilingConfig controls the frame profiler.
type ProfilingConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// DefaultConfig returns the configuration used when no file or environment override is given.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "AEFR",
			Width:  1280,
			Height: 720,
		},
		Render: RenderConfig{
			VSync:          true,
			FrameLimit:     0,
			MSAA:           1,
			MaxTextureSize: 4096,
		},
		Loader: LoaderConfig{
			Workers:          4,
			QueueSize:        64,
			CacheDefinitions: true,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			BufferMS:   100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scenario: ScenarioConfig{
			ApplyOnNavigate: true,
		},
		Profiling: ProfilingConfig{
			Interval: 5 * time.Second,
		},
	}
}

// Validate checks every section and returns the first violation.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return ErrInvalidWindowSize
	}
	if c.Render.FrameLimit < 0 {
		return ErrInvalidFrameLimit
	}
	if c.Render.MSAA != 1 && c.Render.MSAA != 4 {
		return ErrInvalidMSAA
	}
	if c.Render.MaxTextureSize < 64 {
		return ErrInvalidTextureSize
	}
	if c.Loader.Workers <= 0 {
		return ErrInvalidLoaderWorkers
	}
	if c.Loader.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	if c.Scheduler.Workers < 0 {
		return ErrInvalidSchedWorkers
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		return ErrInvalidSampleRate
	}
	if c.Audio.BufferMS <= 0 {
		return ErrInvalidAudioBuffer
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return ErrInvalidLogLevel
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ErrInvalidLogFormat
	}
	if c.Profiling.Enabled && c.Profiling.Interval <= 0 {
		return ErrInvalidProfiling
	}
	return nil
}

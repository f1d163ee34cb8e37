package config

import "errors"

// Validation errors
var (
	ErrInvalidWindowSize    = errors.New("invalid window size")
	ErrInvalidFrameLimit    = errors.New("invalid frame limit")
	ErrInvalidMSAA          = errors.New("invalid msaa sample count")
	ErrInvalidTextureSize   = errors.New("invalid max texture size")
	ErrInvalidLoaderWorkers = errors.New("invalid loader worker count")
	ErrInvalidQueueSize     = errors.New("invalid loader queue size")
	ErrInvalidSchedWorkers  = errors.New("invalid scheduler worker count")
	ErrInvalidSampleRate    = errors.New("invalid audio sample rate")
	ErrInvalidAudioBuffer   = errors.New("invalid audio buffer length")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrInvalidLogFormat     = errors.New("invalid log format")
	ErrInvalidProfiling     = errors.New("invalid profiling interval")
)

// Loading errors
var (
	ErrConfigParse = errors.New("configuration parse error")
	ErrEnvironment = errors.New("environment variable error")
)

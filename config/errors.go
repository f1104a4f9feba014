package config

import "errors"

// Validation errors
var (
	ErrInvalidTargetFPS  = errors.New("target fps must be in [1, 1000]")
	ErrInvalidGridSize   = errors.New("grid size must be in [4, 200]")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidSampleRate = errors.New("audio sample rate must be positive")
	ErrInvalidVolume     = errors.New("audio volume must be in [0, 1]")
)

// Loading errors
var (
	ErrConfigParse = errors.New("configuration parse error")
)

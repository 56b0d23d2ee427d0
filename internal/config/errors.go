package config

import "errors"

// ErrLoadConfig wraps failures reading the config file or environment.
// ErrInvalidConfig wraps values rejected by validation.
var (
	ErrLoadConfig    = errors.New("loading scout config")
	ErrInvalidConfig = errors.New("invalid scout config")
)

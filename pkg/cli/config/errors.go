package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrUnknownConfigKey  = goerr.New("unknown configuration key")
	ErrInvalidLogLevel   = goerr.New("invalid log level")
	ErrInvalidLogFormat  = goerr.New("invalid log format")
	ErrInvalidBackend    = goerr.New("invalid repository backend")
	ErrInvalidAudioStore = goerr.New("invalid audio store")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ConfigKeyKey  = "config_key"
	BackendKey    = "backend"
)

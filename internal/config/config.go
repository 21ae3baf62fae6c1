// Package config loads service settings from MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix for every setting.
const Prefix = "MUDRA"

// Config validation errors
var (
	ErrInvalidListenAddr      = errors.New("listen_addr cannot be empty")
	ErrInvalidPassThreshold   = errors.New("pass_threshold must be within [0, 1]")
	ErrInvalidMaxBodyBytes    = errors.New("max_body_bytes must be positive")
	ErrInvalidLogFormat       = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel        = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidTimeout         = errors.New("timeouts must be positive")
	ErrInvalidCameraSource    = errors.New("camera_source cannot be empty")
	ErrInvalidMotionThreshold = errors.New("motion_threshold must be within (0, 100]")
)

// Config holds every runtime setting of the service.
type Config struct {
	ListenAddr      string        `envconfig:"LISTEN_ADDR" default:":8000"`
	ModelPath       string        `envconfig:"MODEL_PATH" default:"models/asl_model.onnx"`
	DictionaryPath  string        `envconfig:"DICTIONARY_PATH" default:"models/sign_dictionary.npz"`
	ORTLibraryPath  string        `envconfig:"ORT_LIBRARY_PATH"`
	MediaPipeScript string        `envconfig:"MEDIAPIPE_SCRIPT"`
	EnableFrames    bool          `envconfig:"ENABLE_FRAMES" default:"false"`
	PassThreshold   float64       `envconfig:"PASS_THRESHOLD" default:"0.75"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	OTLPEndpoint    string        `envconfig:"OTLP_ENDPOINT"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CameraSource    string        `envconfig:"CAMERA_SOURCE" default:"0"`
	MotionThreshold float64       `envconfig:"MOTION_THRESHOLD" default:"1.0"`
}

// Load reads the optional dotenv files, then the environment. Variables that
// are already set win over dotenv values.
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return ErrInvalidListenAddr
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return ErrInvalidPassThreshold
	}
	if c.MaxBodyBytes <= 0 {
		return ErrInvalidMaxBodyBytes
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return ErrInvalidLogFormat
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warn" && c.LogLevel != "error" {
		return ErrInvalidLogLevel
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CameraSource == "" {
		return ErrInvalidCameraSource
	}
	if c.MotionThreshold <= 0 || c.MotionThreshold > 100 {
		return ErrInvalidMotionThreshold
	}
	return nil
}

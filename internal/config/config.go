package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// FACE_QUIZ_API_URL maps to api.url, FACE_QUIZ_CAMERA_COMMAND to camera.command.
const EnvPrefix = "FACE_QUIZ_"

type Config struct {
	API     APIConfig     `koanf:"api"`
	Session SessionConfig `koanf:"session"`
	Camera  CameraConfig  `koanf:"camera"`
	Web     WebConfig     `koanf:"web"`
	Log     LogConfig     `koanf:"log"`
}

type APIConfig struct {
	URL        string        `koanf:"url"`         // base origin of the quiz API (e.g., http://localhost:8000)
	Timeout    time.Duration `koanf:"timeout"`     // per-request timeout
	RateLimit  int           `koanf:"rate_limit"`  // max requests per RateWindow, 0 disables limiting
	RateWindow time.Duration `koanf:"rate_window"` // window for RateLimit
	CaptureDir string        `koanf:"capture_dir"` // directory to save API responses for testing
}

type SessionConfig struct {
	Path string `koanf:"path"` // YAML state file holding the access token
}

type CameraConfig struct {
	Source  string `koanf:"source"`  // image file or directory of frames
	Command string `koanf:"command"` // capture command writing one image to stdout, wins over Source
	Width   int    `koanf:"width"`   // frame width when the source reports no size
	Height  int    `koanf:"height"`  // frame height when the source reports no size
	Quality int    `koanf:"quality"` // JPEG quality 1-100
}

type WebConfig struct {
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	SessionSecret string `koanf:"session_secret"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // trace, debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

// Addr returns host:port for the web shell listener.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DefaultDir returns the per-user directory for config and state files.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".face-quiz"
	}
	return filepath.Join(home, ".face-quiz")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:        "http://localhost:8000",
			Timeout:    30 * time.Second,
			RateLimit:  100,
			RateWindow: time.Minute,
		},
		Session: SessionConfig{
			Path: filepath.Join(DefaultDir(), "session.yaml"),
		},
		Camera: CameraConfig{
			Width:   640,
			Height:  480,
			Quality: 90,
		},
		Web: WebConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envKey maps FACE_QUIZ_API_RATE_LIMIT to api.rate_limit. Only the first
// underscore separates the section from the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Load builds the configuration from defaults, the optional YAML file at path
// and FACE_QUIZ_* environment variables, in that order of precedence.
// An empty path means DefaultPath; a missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("could not load config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not access config file %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.API.URL = strings.TrimRight(cfg.API.URL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late and obscurely.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required (set %sAPI_URL)", EnvPrefix)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %d", c.API.RateLimit)
	}
	if c.API.RateLimit > 0 && c.API.RateWindow <= 0 {
		return fmt.Errorf("api.rate_window must be positive when api.rate_limit is set")
	}
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		return fmt.Errorf("camera.quality must be between 1 and 100, got %d", c.Camera.Quality)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera.width and camera.height must be positive")
	}
	return nil
}

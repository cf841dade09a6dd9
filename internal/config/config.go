// Package config loads the daemon configuration from a YAML file, applying
// defaults for anything left unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Logging controls log output.
type Logging struct {
	// Level is one of trace, debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is console or json.
	Format string `yaml:"format"`
}

// Storage locates the photo directory and its index database.
type Storage struct {
	Directory string `yaml:"directory"`
	Database  string `yaml:"database"`
}

// Camera holds capture defaults.
type Camera struct {
	// DefaultID is the camera opened when a client does not pick one.
	DefaultID int `yaml:"default_id"`
	// PreviewWidth and PreviewHeight set the negotiated preview size.
	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`
	// Fake substitutes a synthetic camera backend for real V4L2 devices.
	Fake bool `yaml:"fake"`
}

// Config is the full daemon configuration.
type Config struct {
	Logging Logging `yaml:"logging"`
	Storage Storage `yaml:"storage"`
	Camera  Camera  `yaml:"camera"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Storage: Storage{
			Directory: filepath.Join(dataDir, "photos"),
			Database:  filepath.Join(dataDir, "photos.db"),
		},
		Camera: Camera{
			DefaultID:     0,
			PreviewWidth:  1280,
			PreviewHeight: 720,
		},
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "camerad")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "camerad"
	}
	return filepath.Join(home, ".local", "share", "camerad")
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a malformed or invalid one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}

	if c.Storage.Directory == "" {
		return fmt.Errorf("storage directory must be set")
	}
	if c.Storage.Database == "" {
		return fmt.Errorf("storage database must be set")
	}

	if c.Camera.DefaultID < 0 {
		return fmt.Errorf("default camera id must not be negative")
	}
	if c.Camera.PreviewWidth <= 0 || c.Camera.PreviewHeight <= 0 {
		return fmt.Errorf("preview size must be positive")
	}
	return nil
}

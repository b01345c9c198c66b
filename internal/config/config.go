package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xaitan80/fileserve/internal/contenttype"
	"github.com/xaitan80/fileserve/internal/log"
)

// Config is the on-disk configuration of the file server.
type Config struct {
	// The TCP address to listen on.
	Addr string `yaml:"addr,omitempty"`
	// The directory to serve. Empty means the working directory at startup.
	Root string `yaml:"root,omitempty"`
	// How many bytes of a request are read; the rest is ignored.
	ReadBufferSize int `yaml:"read_buffer_size,omitempty"`
	// How many connections are handled at once.
	MaxConnections int `yaml:"max_connections,omitempty"`
	// How file content types are resolved: "extension" or "sniff".
	ContentTypes string `yaml:"content_types,omitempty"`
	// Whether files advertise "Accept-Ranges: bytes".
	AcceptRanges bool `yaml:"accept_ranges"`
	// Whether files are sent with "Content-Disposition: inline".
	InlineDisposition bool `yaml:"inline_disposition,omitempty"`
	// Minimum log level: "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level,omitempty"`
	// Whether to enable verbose logging. Overrides LogLevel.
	Verbose bool `yaml:"verbose,omitempty"`
	// Whether to log in JSON.
	JSONLogs bool `yaml:"json_logs,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Addr:           "127.0.0.1:5500",
		ReadBufferSize: 1024,
		MaxConnections: 64,
		ContentTypes:   "extension",
		AcceptRanges:   true,
		LogLevel:       "info",
	}
}

// Load reads the YAML file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("read_buffer_size must be positive, got %d", c.ReadBufferSize)
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", c.MaxConnections)
	}
	if _, ok := contenttype.ForName(c.ContentTypes); !ok {
		return fmt.Errorf("unknown content_types strategy %q", c.ContentTypes)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

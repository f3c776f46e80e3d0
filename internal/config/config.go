// Package config holds the persistent settings of the ota command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatXLSX    = "xlsx"
)

// Config controls exports, batch runs and comparisons.
type Config struct {
	// Export settings
	Format     string `yaml:"format"`      // json, msgpack or xlsx (default: json)
	Pretty     bool   `yaml:"pretty"`      // Indent JSON output (default: true)
	IncludeRaw bool   `yaml:"include_raw"` // Embed every stream in exports (default: false)

	// Batch settings
	Workers int  `yaml:"workers"` // Files processed at once (default: number of CPUs)
	Strict  bool `yaml:"strict"`  // Treat warnings as failures (default: false)

	// Comparison filters
	OnlyStreams string   `yaml:"only_streams"` // If set, only compare streams matching this regex
	IgnoreKeys  []string `yaml:"ignore_keys"`  // Parameter keys skipped by compare and learn

	streamRegex *regexp.Regexp
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() *Config {
	return &Config{
		Format:  FormatJSON,
		Pretty:  true,
		Workers: runtime.NumCPU(),
		IgnoreKeys: []string{
			"UNIQUEID",
			"INDEXINSHEET",
		},
	}
}

// Validate checks the configuration for errors and compiles any regex patterns.
func (c *Config) Validate() error {
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case "":
		c.Format = FormatJSON
	case FormatJSON, FormatMsgpack, FormatXLSX:
	default:
		return fmt.Errorf("unknown export format %q", c.Format)
	}

	if c.Workers < 1 {
		c.Workers = 1
	}

	c.streamRegex = nil
	if c.OnlyStreams != "" {
		regex, err := regexp.Compile(c.OnlyStreams)
		if err != nil {
			return fmt.Errorf("invalid only_streams pattern: %w", err)
		}
		c.streamRegex = regex
	}
	return nil
}

// ShouldCompareStream returns true if the stream at path passes the
// OnlyStreams filter.
func (c *Config) ShouldCompareStream(path string) bool {
	if c.streamRegex == nil {
		return true
	}
	return c.streamRegex.MatchString(path)
}

// IsIgnoredKey reports whether key is listed in IgnoreKeys.
func (c *Config) IsIgnoredKey(key string) bool {
	for _, k := range c.IgnoreKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Path returns the location of the config file.
func Path() (string, error) {
	if dir := os.Getenv("APPDATA"); dir != "" {
		// Windows: use %APPDATA%\OpenTraceAltium
		return filepath.Join(dir, "OpenTraceAltium", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	// Linux/macOS: use ~/.config/opentracealtium
	return filepath.Join(homeDir, ".config", "opentracealtium", "config.yaml"), nil
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Package config holds console runner settings read from a YAML file and command line flags.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config holds runner settings. Zero values are replaced by defaults.
type Config struct {
	LogLevel        string         `yaml:"log_level"`
	LogFormat       string         `yaml:"log_format"`
	SegmentKeywords []string       `yaml:"segment_keywords"`
	Keywords        []string       `yaml:"keywords"`
	ExtensionDirs   []string       `yaml:"extension_dirs"`
	StorePath       string         `yaml:"store"`
	Segment         string         `yaml:"segment"`
	Actor           string         `yaml:"actor"`
	Location        string         `yaml:"location"`
	Values          map[string]any `yaml:"values"`
}

// Default returns settings used when no config file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads YAML settings from filename on top of defaults.
func Load(filename string) (*Config, error) {
	src, e := os.ReadFile(filename)
	if e != nil {
		return nil, e
	}

	c, e := Parse(src)
	if e != nil {
		return nil, fmt.Errorf("%s: %w", filename, e)
	}
	return c, nil
}

// Parse reads YAML settings on top of defaults and validates the result.
func Parse(src []byte) (*Config, error) {
	c := Default()
	e := yaml.UnmarshalStrict(src, c)
	if e != nil {
		return nil, e
	}

	c.normalize()
	return c, c.Validate()
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat)
	}

	for _, kw := range c.SegmentKeywords {
		if kw == "" {
			return fmt.Errorf("empty segment keyword")
		}
	}
	return nil
}

// NewLogger creates a logger writing to w. Unknown level means info, unknown format means text.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Logger creates a logger using configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return NewLogger(c.LogLevel, c.LogFormat, w)
}

// Package config loads notelog's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/notelog/internal/ir"
)

// Config holds the settings shared by the CLI and the library.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is text or json.
	LogFormat string `yaml:"log_format"`

	// DefaultTool is the raw tool name new notebooks start with.
	DefaultTool string `yaml:"default_tool"`

	// Library is the path of the SQLite notebook library.
	Library string `yaml:"library"`

	// EraserRadius is the hit radius of the eraser tool, in canvas units.
	EraserRadius float64 `yaml:"eraser_radius"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "text",
		DefaultTool:  ir.ToolIdle.String(),
		Library:      "notelog.db",
		EraserRadius: 4,
	}
}

// Load reads the config file at path over the defaults.
// A missing file yields Default(). Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	if _, err := ir.ParseTool(c.DefaultTool); err != nil {
		errs = append(errs, fmt.Errorf("default_tool: %w", err))
	}
	if c.Library == "" {
		errs = append(errs, errors.New("library is required"))
	}
	if c.EraserRadius <= 0 {
		errs = append(errs, fmt.Errorf("eraser_radius must be positive, got %v", c.EraserRadius))
	}
	return errors.Join(errs...)
}

// Tool returns DefaultTool parsed; idle if it does not parse.
func (c Config) Tool() ir.Tool {
	t, err := ir.ParseTool(c.DefaultTool)
	if err != nil {
		return ir.ToolIdle
	}
	return t
}

// Level returns LogLevel as a slog level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
}

// Logger builds a logger writing to w in the configured format and level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Package config loads the host configuration: a YAML file overlaid with
// ESCORE_* variables from the environment or a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working
// directory.
const DefaultFileName = "escore.yaml"

// Config holds the settings of a host session.
type Config struct {
	// Strict evaluates every script as strict mode code.
	Strict bool `yaml:"strict"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// Prelude lists scripts evaluated before the main script.
	Prelude []string `yaml:"prelude,omitempty"`
	// MaxJobRounds bounds how many rounds the job queue is drained for
	// after each evaluation.
	MaxJobRounds int        `yaml:"max_job_rounds"`
	REPL         REPLConfig `yaml:"repl"`
}

type REPLConfig struct {
	Prompt  string `yaml:"prompt"`
	History int    `yaml:"history"`
}

func Default() *Config {
	return &Config{
		LogLevel:     "warn",
		MaxJobRounds: 10000,
		REPL: REPLConfig{
			Prompt:  "> ",
			History: 100,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	if err := cfg.decode(file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads YAML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(r); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays ESCORE_STRICT, ESCORE_LOG_LEVEL and ESCORE_PRELUDE.
// Values in the process environment win over those in the .env file at
// dotenvPath; a missing .env file is ignored.
func (c *Config) ApplyEnv(dotenvPath string) error {
	dotenv := map[string]string{}
	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			dotenv = values
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("config: read %s: %w", dotenvPath, err)
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	if v, ok := lookup("ESCORE_STRICT"); ok && v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: ESCORE_STRICT: %w", err)
		}
		c.Strict = strict
	}
	if v, ok := lookup("ESCORE_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup("ESCORE_PRELUDE"); ok {
		c.Prelude = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Prelude = append(c.Prelude, p)
			}
		}
	}
	return c.Validate()
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MaxJobRounds < 0 {
		return fmt.Errorf("max_job_rounds must not be negative, got %d", c.MaxJobRounds)
	}
	if c.REPL.History < 0 {
		return fmt.Errorf("repl.history must not be negative, got %d", c.REPL.History)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// NewLogger builds a text logger at the configured level writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.SlogLevel()}))
}

// Save writes the configuration as YAML with two-space indentation.
func (c *Config) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("config: encoder close: %w", err)
	}
	return nil
}

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Strict {
		t.Error("expected sloppy mode by default")
	}
	if cfg.SlogLevel() != slog.LevelWarn {
		t.Errorf("expected warn level, got %v", cfg.SlogLevel())
	}
	if cfg.REPL.Prompt != "> " {
		t.Errorf("expected prompt %q, got %q", "> ", cfg.REPL.Prompt)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if cfg.MaxJobRounds != Default().MaxJobRounds {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	data := "strict: true\nlog_level: debug\nprelude:\n  - lib.js\nrepl:\n  prompt: \"js> \"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Strict {
		t.Error("expected strict from the file")
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", cfg.SlogLevel())
	}
	if len(cfg.Prelude) != 1 || cfg.Prelude[0] != "lib.js" {
		t.Errorf("expected prelude [lib.js], got %v", cfg.Prelude)
	}
	if cfg.REPL.Prompt != "js> " {
		t.Errorf("expected prompt from the file, got %q", cfg.REPL.Prompt)
	}
	if cfg.REPL.History != 100 {
		t.Errorf("expected the default history to be kept, got %d", cfg.REPL.History)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "stict: true\n"},
		{"bad log level", "log_level: loud\n"},
		{"negative rounds", "max_job_rounds: -1\n"},
		{"wrong type", "strict: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.yaml)); err == nil {
				t.Errorf("expected an error for %q", tt.yaml)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("expected an empty document to be accepted, got %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("ESCORE_LOG_LEVEL=info\nESCORE_PRELUDE=a.js, b.js\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ESCORE_STRICT", "true")
	t.Setenv("ESCORE_LOG_LEVEL", "ERROR")

	cfg := Default()
	if err := cfg.ApplyEnv(dotenv); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Strict {
		t.Error("expected ESCORE_STRICT to apply")
	}
	if cfg.SlogLevel() != slog.LevelError {
		t.Errorf("expected the process environment to win, got %v", cfg.SlogLevel())
	}
	if len(cfg.Prelude) != 2 || cfg.Prelude[1] != "b.js" {
		t.Errorf("expected prelude from .env, got %v", cfg.Prelude)
	}
}

func TestApplyEnvMissingDotenv(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("expected a missing .env to be ignored, got %v", err)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("ESCORE_STRICT", "maybe")
	if err := Default().ApplyEnv(""); err == nil {
		t.Error("expected an error for a non-boolean ESCORE_STRICT")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Strict = true
	cfg.Prelude = []string{"x.js"}

	var buf bytes.Buffer
	if err := cfg.Save(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "repl:\n  prompt:") {
		t.Errorf("expected two-space indentation, got:\n%s", buf.String())
	}
	loaded, err := Parse(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded.Strict || len(loaded.Prelude) != 1 || loaded.Prelude[0] != "x.js" {
		t.Errorf("expected saved values back, got %+v", loaded)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "info"
	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected only the info record, got %q", buf.String())
	}
}

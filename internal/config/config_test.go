package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Server.Address != "http://127.0.0.1:8080" {
		t.Fatalf("Server.Address = %q, want %q", cfg.Server.Address, "http://127.0.0.1:8080")
	}
	if cfg.Generation.Temperature != nil || cfg.Generation.RepetitionPenalty != nil {
		t.Fatalf("Generation = %#v, want unset parameters", cfg.Generation)
	}
	if cfg.TUI.Theme != "dark" {
		t.Fatalf("TUI.Theme = %q, want %q", cfg.TUI.Theme, "dark")
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
}

func TestLoadFromFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[server]
address = "http://file.example:8080"

[generation]
temperature = 0.4
repetition_penalty = 1.2

[state]
file = "/tmp/file-state.json"

[tui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("PARLEY_SERVER_ADDRESS", "http://env.example:9090")
	t.Setenv("PARLEY_TEMPERATURE", "0.9")
	t.Setenv("PARLEY_STATE_FILE", "/tmp/env-state.json")
	t.Setenv("PARLEY_LOG_LEVEL", "debug")

	cfg, err := Load(LoadOptions{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != "http://env.example:9090" {
		t.Fatalf("Server.Address = %q, want env override", cfg.Server.Address)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0.9 {
		t.Fatalf("Temperature = %v, want env override 0.9", cfg.Generation.Temperature)
	}
	// Not overridden by env: the file value stands.
	if cfg.Generation.RepetitionPenalty == nil || *cfg.Generation.RepetitionPenalty != 1.2 {
		t.Fatalf("RepetitionPenalty = %v, want file value 1.2", cfg.Generation.RepetitionPenalty)
	}
	if cfg.State.File != "/tmp/env-state.json" {
		t.Fatalf("State.File = %q, want env override", cfg.State.File)
	}
	if cfg.TUI.Theme != "light" {
		t.Fatalf("TUI.Theme = %q, want file value light", cfg.TUI.Theme)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want env override debug", cfg.Log.Level)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Address != "http://127.0.0.1:8080" {
		t.Fatalf("Server.Address = %q, want default", cfg.Server.Address)
	}
}

func TestLoadRejectsMalformedEnvNumber(t *testing.T) {
	t.Setenv("PARLEY_TEMPERATURE", "warm")

	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.toml")})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsOutOfRangeGeneration(t *testing.T) {
	t.Setenv("PARLEY_REPETITION_PENALTY", "3.5")

	_, err := Load(LoadOptions{Path: filepath.Join(t.TempDir(), "missing.toml")})
	if err == nil {
		t.Fatalf("Load() error = nil, want range validation failure")
	}
}

func TestPreferencesDerivation(t *testing.T) {
	t.Parallel()

	temperature := 0.8
	cfg := Default()
	cfg.Server.Address = " http://box:8080 "
	cfg.Generation.Temperature = &temperature

	p := cfg.Preferences()
	if p.ServerAddress != "http://box:8080" {
		t.Fatalf("ServerAddress = %q, want trimmed", p.ServerAddress)
	}
	if p.Temperature == nil || *p.Temperature != 0.8 {
		t.Fatalf("Temperature = %v, want 0.8", p.Temperature)
	}

	// Derived preferences do not alias config values.
	*p.Temperature = 1.9
	if *cfg.Generation.Temperature != 0.8 {
		t.Fatalf("config temperature mutated through derived preferences")
	}
}

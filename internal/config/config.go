package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"parley/internal/prefs"
)

const (
	defaultTUITheme           = "dark"
	defaultLogLevel           = "info"
	defaultConfigRelativePath = ".config/parley/config.toml"
	defaultStateRelativePath  = ".local/share/parley/state.json"
	defaultLogRelativePath    = ".local/share/parley/parley.log"
	envServerAddress          = "PARLEY_SERVER_ADDRESS"
	envTemperature            = "PARLEY_TEMPERATURE"
	envRepetitionPenalty      = "PARLEY_REPETITION_PENALTY"
	envStateFile              = "PARLEY_STATE_FILE"
	envTUITheme               = "PARLEY_TUI_THEME"
	envLogLevel               = "PARLEY_LOG_LEVEL"
)

var (
	// ErrInvalidConfig indicates malformed configuration input.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the application configuration root. It supplies startup
// defaults; preferences saved from the settings surface override the
// server/generation values once persisted.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Generation GenerationConfig `toml:"generation"`
	State      StateConfig      `toml:"state"`
	TUI        TUIConfig        `toml:"tui"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig locates the completion endpoint.
type ServerConfig struct {
	Address string `toml:"address"`
}

// GenerationConfig holds optional sampling parameters forwarded to the
// endpoint. Absent values leave the service defaults in effect.
type GenerationConfig struct {
	Temperature       *float64 `toml:"temperature"`
	RepetitionPenalty *float64 `toml:"repetition_penalty"`
}

// StateConfig locates the durable client state.
type StateConfig struct {
	File string `toml:"file"`
}

// TUIConfig configures terminal UI defaults.
type TUIConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig configures the diagnostic log.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadOptions controls config loading behavior.
type LoadOptions struct {
	Path string
}

// Default returns application defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address: prefs.DefaultServerAddress,
		},
		State: StateConfig{
			File: defaultStatePath(),
		},
		TUI: TUIConfig{
			Theme: defaultTUITheme,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  defaultLogPath(),
		},
	}
}

// Load reads config file then applies environment variable overrides.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultConfigPath()
	}

	if err := mergeConfigFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Preferences returns the startup preferences derived from this config.
func (c Config) Preferences() prefs.Preferences {
	p := prefs.Preferences{
		ServerAddress:     strings.TrimSpace(c.Server.Address),
		Temperature:       c.Generation.Temperature,
		RepetitionPenalty: c.Generation.RepetitionPenalty,
	}
	return p.Clone()
}

func mergeConfigFile(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if value, ok := os.LookupEnv(envServerAddress); ok && strings.TrimSpace(value) != "" {
		cfg.Server.Address = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envTemperature); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envTemperature, err)
		}
		cfg.Generation.Temperature = &parsed
	}
	if value, ok := os.LookupEnv(envRepetitionPenalty); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envRepetitionPenalty, err)
		}
		cfg.Generation.RepetitionPenalty = &parsed
	}
	if value, ok := os.LookupEnv(envStateFile); ok && strings.TrimSpace(value) != "" {
		cfg.State.File = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envTUITheme); ok && strings.TrimSpace(value) != "" {
		cfg.TUI.Theme = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		cfg.Log.Level = strings.TrimSpace(value)
	}
	return nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.State.File) == "" {
		return fmt.Errorf("%w: state.file is required", ErrInvalidConfig)
	}
	if err := cfg.Preferences().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func defaultConfigPath() string {
	return pathUnderHome(defaultConfigRelativePath)
}

func defaultStatePath() string {
	return pathUnderHome(defaultStateRelativePath)
}

func defaultLogPath() string {
	return pathUnderHome(defaultLogRelativePath)
}

func pathUnderHome(relative string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, relative)
}

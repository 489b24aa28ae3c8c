package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parley/internal/chat"
	"parley/internal/completion"
	"parley/internal/config"
	"parley/internal/persist"
	"parley/internal/prefs"
	"parley/internal/tui"
	"parley/internal/turn"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

func main() {
	if err := execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
	)

	cmd := &cobra.Command{
		Use:   "parley",
		Short: "parley is a terminal chat client for a local completion endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.LoadOptions{Path: strings.TrimSpace(configPath)})
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if trimmed := strings.TrimSpace(statePath); trimmed != "" {
				cfg.State.File = trimmed
			}

			logger, closeLogger, err := buildLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("open log: %w", err)
			}
			defer closeLogger()

			app, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("version", version).Msg("starting")
			program := tea.NewProgram(app, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&statePath, "state-file", "", "Path to the state file")
	return cmd
}

// buildApp wires storage, the turn coordinator and the UI together. The
// persistence adapter doubles as the store's committer so every session
// mutation lands on disk before the mutating call returns.
func buildApp(cfg config.Config, logger zerolog.Logger) (*tui.App, error) {
	kv, err := persist.NewFileKV(cfg.State.File)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	adapter := persist.NewAdapter(kv, logger)

	state := adapter.Load(cfg.Preferences())
	store := chat.Restore(state.Snapshot, adapter)
	selector := chat.NewSelector(store)
	selector.Restore(state.ActiveID)

	prefsStore := prefs.NewStore(state.Preferences)

	coordinator, err := turn.New(turn.Config{
		Store:     store,
		Completer: newCompleter(completion.NewClient(nil), prefsStore),
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create turn coordinator: %w", err)
	}

	return tui.NewApp(tui.AppConfig{
		Version:   version,
		ThemeName: cfg.TUI.Theme,
		Store:     store,
		Selector:  selector,
		Runner:    coordinator,
		Prefs:     prefsStore,
		Persister: adapter,
	}), nil
}

// newCompleter binds the HTTP client to the live preferences so settings
// changes apply from the next turn onward without rewiring anything.
func newCompleter(client *completion.Client, prefsStore *prefs.Store) turn.Completer {
	return turn.CompleterFunc(func(ctx context.Context, history []chat.Message) (string, error) {
		current := prefsStore.Current()
		return client.Complete(ctx, current.ServerAddress, history, completion.Options{
			Temperature:       current.Temperature,
			RepetitionPenalty: current.RepetitionPenalty,
		})
	})
}

func buildLogger(cfg config.LogConfig) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	logger := zerolog.New(file).Level(level).With().Timestamp().Logger()
	return logger, func() { _ = file.Close() }, nil
}

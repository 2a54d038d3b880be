package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/calcprefs/internal/backend"
	"github.com/kalambet/calcprefs/internal/config"
	"github.com/kalambet/calcprefs/internal/logging"
	"github.com/kalambet/calcprefs/internal/prefs"
)

var version = "dev"

var (
	noColor       bool
	flagBackend   string
	flagPath      string
	flagNamespace string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "calcprefs",
	Short: "Inspect and edit calculator preferences",
	Long: `Inspect and edit the preferences of the desktop calculator.

Preferences live in the platform settings store (UserDefaults on macOS,
$XDG_CONFIG_HOME/calcprefs/settings.json elsewhere) unless --backend selects
a JSON, YAML or SQLite file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagBackend, "backend", "", "settings backend: platform, json, yaml, sqlite or memory")
	pf.StringVar(&flagPath, "path", "", "backend file or database path")
	pf.StringVar(&flagNamespace, "namespace", "", "root key of the preferences")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(showCmd, keysCmd, getCmd, setCmd, resetCmd,
		historyCmd, varsCmd, exportCmd, importCmd, envCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session is the composition root of one command: the configured backend
// and the store bound to it.
type session struct {
	backend backend.Backend
	store   *prefs.Store
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend.Kind = flagBackend
	}
	if flags.Changed("path") {
		cfg.Backend.Path = flagPath
	}
	if flags.Changed("namespace") {
		cfg.Namespace = flagNamespace
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(cfg.Log.Level)

	b, err := backend.Open(cfg.Backend.Kind, cfg.Backend.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend.Kind, err)
	}
	logging.New("cli").Debug("backend opened", "kind", cfg.Backend.Kind, "path", cfg.Backend.Path)

	return &session{
		backend: b,
		store:   prefs.NewStore(b, prefs.WithNamespace(cfg.Namespace)),
	}, nil
}

func (s *session) Close() error {
	return backend.Close(s.backend)
}

// update loads the preferences, applies fn and saves the result.
func (s *session) update(fn func(p *prefs.Preferences) error) error {
	p, _ := s.store.Load()
	if err := fn(&p); err != nil {
		return err
	}
	if err := s.store.Save(p); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	return nil
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

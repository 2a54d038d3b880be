// Package config holds the settings of the calcprefs tool itself: which
// backend stores the preferences, where, and how verbosely to log. It is
// separate from the calculator preferences managed by package prefs.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kalambet/calcprefs/internal/backend"
	"github.com/kalambet/calcprefs/internal/prefs"
)

type Config struct {
	Backend   BackendConfig
	Namespace string
	Log       LogConfig
}

type BackendConfig struct {
	// Kind is one of backend.Kinds().
	Kind string
	// Path overrides the kind's default location. Empty means default.
	Path string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			Kind: backend.KindPlatform,
		},
		Namespace: prefs.DefaultNamespace,
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load returns the built-in defaults with CALCPREFS_* environment overrides
// applied.
func Load() (Config, error) {
	cfg := defaults()
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot fall back silently.
func (c Config) Validate() error {
	if !slices.Contains(backend.Kinds(), c.Backend.Kind) {
		return fmt.Errorf("invalid backend %q: want one of %s", c.Backend.Kind, strings.Join(backend.Kinds(), ", "))
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("invalid namespace: must not be empty")
	}
	if strings.Contains(c.Namespace, backend.Separator) {
		return fmt.Errorf("invalid namespace %q: must not contain %q", c.Namespace, backend.Separator)
	}
	return nil
}

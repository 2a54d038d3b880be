package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/kalambet/calcprefs/internal/logging"
)

const envPrefix = "CALCPREFS_"

type envSpec struct {
	env     string
	desc    string
	apply   func(cfg *Config, v string)
	extract func(cfg Config) string
}

var specs = []envSpec{
	{
		env: "CALCPREFS_BACKEND", desc: "backend kind",
		apply:   func(cfg *Config, v string) { cfg.Backend.Kind = strings.ToLower(v) },
		extract: func(cfg Config) string { return cfg.Backend.Kind },
	},
	{
		env: "CALCPREFS_PATH", desc: "backend file or database path",
		apply:   func(cfg *Config, v string) { cfg.Backend.Path = v },
		extract: func(cfg Config) string { return cfg.Backend.Path },
	},
	{
		env: "CALCPREFS_NAMESPACE", desc: "root key of the preferences",
		apply:   func(cfg *Config, v string) { cfg.Namespace = v },
		extract: func(cfg Config) string { return cfg.Namespace },
	},
	{
		env: "CALCPREFS_LOG_LEVEL", desc: "debug, info, warn or error",
		apply: func(cfg *Config, v string) {
			l := strings.ToLower(v)
			switch l {
			case "debug", "info", "warn", "warning", "error":
				cfg.Log.Level = l
			default:
				logging.New("config").Warn("unknown log level, using default",
					"env", "CALCPREFS_LOG_LEVEL", "value", v, "default", cfg.Log.Level)
			}
		},
		extract: func(cfg Config) string { return cfg.Log.Level },
	},
}

// applyEnvOverrides loads the CALCPREFS_* variables and applies the non-empty
// ones. Names are kept verbatim so they match the table above.
func applyEnvOverrides(cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string { return s }), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	for _, s := range specs {
		raw := strings.TrimSpace(k.String(s.env))
		if raw == "" {
			continue
		}
		s.apply(cfg, raw)
	}
	return nil
}

// EnvVar describes one environment override for help output.
type EnvVar struct {
	Name  string
	Desc  string
	Value string
}

// EnvVars lists the supported environment overrides with their values in cfg.
func EnvVars(cfg Config) []EnvVar {
	vars := make([]EnvVar, 0, len(specs))
	for _, s := range specs {
		vars = append(vars, EnvVar{Name: s.env, Desc: s.desc, Value: s.extract(cfg)})
	}
	return vars
}

// String renders the list one override per line.
func (v EnvVar) String() string {
	return fmt.Sprintf("%s=%s (%s)", v.Name, v.Value, v.Desc)
}

package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kalambet/calcprefs/internal/logging"
)

// YAML stores keys as a nested YAML document, one mapping per path segment.
// Writes are buffered until Flush.
type YAML struct {
	path  string
	k     *koanf.Koanf
	dirty bool
}

// OpenYAML reads the YAML document at path. Like OpenFile, an unreadable
// document is logged and treated as empty.
func OpenYAML(path string) *YAML {
	y := &YAML{path: path, k: koanf.New(Separator)}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			logging.New("backend").Warn("could not stat settings file, using defaults", "path", path, "error", err)
		}
		return y
	}
	if err := y.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		logging.New("backend").Warn("could not parse settings file, using defaults", "path", path, "error", err)
		y.k = koanf.New(Separator)
	}
	return y
}

// DefaultYAMLPath returns $XDG_CONFIG_HOME/calcprefs/settings.yaml.
func DefaultYAMLPath() string {
	return filepath.Join(configHome(), "calcprefs", "settings.yaml")
}

// leaf returns the scalar stored at key; sub-documents count as absent.
func (y *YAML) leaf(key string) (any, bool) {
	v := y.k.Get(key)
	if v == nil {
		return nil, false
	}
	if _, isMap := v.(map[string]any); isMap {
		return nil, false
	}
	return v, true
}

func (y *YAML) GetString(key string) (string, bool, error) {
	v, ok := y.leaf(key)
	if !ok {
		return "", false, nil
	}
	if s, ok := v.(string); ok {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

func (y *YAML) GetInt(key string) (int, bool, error) {
	v, ok := y.leaf(key)
	if !ok {
		return 0, false, nil
	}
	switch val := v.(type) {
	case int:
		return val, true, nil
	case int64:
		return int(val), true, nil
	case uint64:
		return int(val), true, nil
	case float64:
		if val != float64(int(val)) {
			return 0, true, fmt.Errorf("value %v for %s is not an integer", val, key)
		}
		return int(val), true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type %T for %s", v, key)
	}
}

func (y *YAML) GetBool(key string) (bool, bool, error) {
	v, ok := y.leaf(key)
	if !ok {
		return false, false, nil
	}
	switch val := v.(type) {
	case bool:
		return val, true, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, true, fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		return b, true, nil
	default:
		return false, true, fmt.Errorf("invalid type %T for %s", v, key)
	}
}

func (y *YAML) set(key string, val any) error {
	if err := y.k.Set(key, val); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	y.dirty = true
	return nil
}

func (y *YAML) SetString(key, val string) error { return y.set(key, val) }

func (y *YAML) SetInt(key string, val int) error { return y.set(key, val) }

func (y *YAML) SetBool(key string, val bool) error { return y.set(key, val) }

func (y *YAML) Delete(key string) error {
	if _, ok := y.leaf(key); ok {
		y.k.Delete(key)
		y.dirty = true
	}
	return nil
}

func (y *YAML) Children(group string) ([]string, error) {
	group = Join(group)
	var names []string
	for _, name := range y.k.MapKeys(group) {
		if _, ok := y.leaf(Join(group, name)); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Flush writes pending changes. The file is replaced atomically.
func (y *YAML) Flush() error {
	if !y.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(y.path), 0o700); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	data, err := y.k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("encoding %s: %w", y.path, err)
	}
	if err := writeAtomic(y.path, data); err != nil {
		return err
	}
	y.dirty = false
	return nil
}

package backend

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kalambet/calcprefs/internal/logging"
)

// File stores keys as a flat JSON object. Writes are buffered until Flush.
type File struct {
	path  string
	data  map[string]any
	dirty bool
}

// OpenFile reads the JSON store at path. A missing or unreadable file yields
// an empty store; the problem is logged and the next Flush replaces the file.
func OpenFile(path string) *File {
	f := &File{path: path, data: make(map[string]any)}
	f.load()
	return f
}

// DefaultFilePath returns $XDG_CONFIG_HOME/calcprefs/settings.json.
func DefaultFilePath() string {
	return filepath.Join(configHome(), "calcprefs", "settings.json")
}

func configHome() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return dir
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) load() {
	log := logging.New("backend")
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("could not read settings file, using defaults", "path", f.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &f.data); err != nil {
		log.Warn("could not parse settings file, using defaults", "path", f.path, "error", err)
		f.data = make(map[string]any)
	}
	if f.data == nil {
		f.data = make(map[string]any)
	}
}

// Flush writes pending changes. The file is replaced atomically.
func (f *File) Flush() error {
	if !f.dirty {
		return nil
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	data, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(f.path, data); err != nil {
		return err
	}
	f.dirty = false
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (f *File) GetString(key string) (string, bool, error) {
	v, ok := f.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("%v", v), true, nil
	}
	return s, true, nil
}

func (f *File) GetInt(key string) (int, bool, error) {
	v, ok := f.data[key]
	if !ok {
		return 0, false, nil
	}
	switch val := v.(type) {
	case float64:
		if val < math.MinInt || val > math.MaxInt || val != math.Trunc(val) {
			return 0, true, fmt.Errorf("value %v for %s is not a valid integer or is out of range", val, key)
		}
		return int(val), true, nil
	case int:
		return val, true, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return i, true, nil
	default:
		return 0, true, fmt.Errorf("invalid type for %s", key)
	}
}

func (f *File) GetBool(key string) (bool, bool, error) {
	v, ok := f.data[key]
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
		return false, true, fmt.Errorf("invalid type for %s", key)
	}
}

func (f *File) SetString(key, val string) error {
	f.data[key] = val
	f.dirty = true
	return nil
}

func (f *File) SetInt(key string, val int) error {
	f.data[key] = val
	f.dirty = true
	return nil
}

func (f *File) SetBool(key string, val bool) error {
	f.data[key] = val
	f.dirty = true
	return nil
}

func (f *File) Delete(key string) error {
	if _, ok := f.data[key]; ok {
		delete(f.data, key)
		f.dirty = true
	}
	return nil
}

func (f *File) Children(group string) ([]string, error) {
	keys := make([]string, 0, len(f.data))
	for k := range f.data {
		keys = append(keys, k)
	}
	return leafChildren(keys, group), nil
}

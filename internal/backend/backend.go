// Package backend provides hierarchical key/value stores for preferences.
//
// Keys are slash-separated paths such as "SpeedCrunch/View/Format". A group
// is any path prefix; Children lists the leaf names stored directly below one.
// macOS uses UserDefaults (via the `defaults` CLI), other platforms use a JSON
// file under $XDG_CONFIG_HOME. YAML, SQLite and in-memory stores are
// available everywhere.
package backend

import (
	"sort"
	"strings"
)

// Separator delimits the segments of a key path.
const Separator = "/"

// Backend is a hierarchical key/value store with string, integer and boolean
// values. Getters report ok=false when the key is absent.
type Backend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	GetBool(key string) (val bool, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	SetBool(key string, val bool) error
	Delete(key string) error
	// Children returns the sorted names of the leaf keys directly below group.
	Children(group string) ([]string, error)
}

// Flusher is implemented by backends that buffer writes.
type Flusher interface {
	Flush() error
}

// Join builds a key path from its segments, skipping empty ones.
func Join(parts ...string) string {
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, Separator)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, Separator)
}

// leafChildren picks the names of keys directly below group out of a flat
// key list.
func leafChildren(keys []string, group string) []string {
	prefix := Join(group) + Separator
	var names []string
	for _, k := range keys {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || rest == "" || strings.Contains(rest, Separator) {
			continue
		}
		names = append(names, rest)
	}
	sort.Strings(names)
	return names
}

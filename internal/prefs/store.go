package prefs

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kalambet/calcprefs/internal/backend"
	"github.com/kalambet/calcprefs/internal/logging"
)

// Store loads and saves Preferences under one namespace of a backend.
// It holds no preference state itself and is not safe for concurrent use.
type Store struct {
	backend backend.Backend
	ns      string
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace sets the root segment of every key path.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.ns = ns
		}
	}
}

// WithLogger sets the logger used for fallback and write warnings.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// NewStore returns a Store bound to b.
func NewStore(b backend.Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		ns:      DefaultNamespace,
		log:     logging.New("prefs"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the root segment of the store's key paths.
func (s *Store) Namespace() string {
	return s.ns
}

func (s *Store) path(rel ...string) string {
	return backend.Join(append([]string{s.ns}, rel...)...)
}

// Fallback records a key that did not yield a stored value on load. Err is
// nil when the key was simply absent.
type Fallback struct {
	Key string
	Err error
}

// Report lists the keys that fell back during a load. Keys are relative to
// the namespace, e.g. "View/Format".
type Report struct {
	Fallbacks []Fallback
}

// Defaulted reports whether key fell back to its default or previous value.
func (r Report) Defaulted(key string) bool {
	for _, f := range r.Fallbacks {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Err joins the errors of every fallback caused by a malformed value or a
// backend failure. It is nil when keys were only absent.
func (r Report) Err() error {
	var errs []error
	for _, f := range r.Fallbacks {
		if f.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Key, f.Err))
		}
	}
	return errors.Join(errs...)
}

func (r *Report) add(key string, err error) {
	r.Fallbacks = append(r.Fallbacks, Fallback{Key: key, Err: err})
}

// Load returns the stored preferences, with defaults for anything absent or
// malformed.
func (s *Store) Load() (Preferences, Report) {
	p := Defaults()
	r := s.LoadInto(&p)
	return p, r
}

// LoadInto overwrites every field of p from the backend. Absent keys take the
// built-in default, except View/Format which keeps p's current value when the
// stored spelling is absent or unrecognized.
func (s *Store) LoadInto(p *Preferences) Report {
	var r Report
	defaults := Defaults()

	for _, f := range fields {
		def := f.extract(defaults)
		if f.kind == kFormat {
			def = f.extract(*p)
		}
		v, ok := s.read(f, &r)
		if !ok {
			v = def
		}
		f.apply(p, v)
	}

	p.History = s.loadHistory(&r)
	p.Variables = s.loadVariables(&r)

	s.log.Debug("preferences loaded",
		"namespace", s.ns,
		"fallbacks", len(r.Fallbacks),
		"history", len(p.History),
		"variables", len(p.Variables),
	)
	return r
}

// read returns the stored value of f and true, or false when the key is
// absent or unusable. Every false result is recorded in r.
func (s *Store) read(f field, r *Report) (any, bool) {
	key := s.path(f.key)

	var (
		v   any
		ok  bool
		err error
	)
	switch f.kind {
	case kString:
		v, ok, err = s.backend.GetString(key)
	case kBool:
		v, ok, err = s.backend.GetBool(key)
	case kInt:
		v, ok, err = s.backend.GetInt(key)
	case kColor, kFormat:
		var raw string
		raw, ok, err = s.backend.GetString(key)
		if ok && err == nil {
			v, err = parseValue(f.kind, raw)
		}
	}

	if err != nil {
		s.log.Warn("invalid preference value, using default", "key", key, "error", err)
		r.add(f.key, err)
		return nil, false
	}
	if !ok {
		r.add(f.key, nil)
		return nil, false
	}
	return v, true
}

func (s *Store) loadHistory(r *Report) []string {
	count, ok, err := s.backend.GetInt(s.path(historyCount))
	if err != nil {
		s.log.Warn("invalid history count, skipping history", "key", s.path(historyCount), "error", err)
		r.add(historyCount, err)
		return nil
	}
	if !ok {
		r.add(historyCount, nil)
		return nil
	}

	var history []string
	for i := 0; i < count; i++ {
		rel := historyGroup + backend.Separator + historyPrefix + strconv.Itoa(i)
		entry, _, err := s.backend.GetString(s.path(rel))
		if err != nil {
			s.log.Warn("unreadable history entry", "key", s.path(rel), "error", err)
			r.add(rel, err)
			continue
		}
		if entry == "" {
			continue
		}
		// An entry made only of control characters is kept as "".
		history = append(history, stripControl(entry))
	}
	return history
}

func (s *Store) loadVariables(r *Report) []string {
	names, err := s.backend.Children(s.path(variablesGroup))
	if err != nil {
		s.log.Warn("could not list variables", "key", s.path(variablesGroup), "error", err)
		r.add(variablesGroup, err)
		return nil
	}

	var vars []string
	for _, name := range names {
		rel := variablesGroup + backend.Separator + name
		value, _, err := s.backend.GetString(s.path(rel))
		if err != nil {
			s.log.Warn("unreadable variable", "key", s.path(rel), "error", err)
			r.add(rel, err)
			continue
		}
		if value == "" {
			continue
		}
		vars = append(vars, name+"="+value)
	}
	return vars
}

// stripControl removes code points below U+0020.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 {
			return -1
		}
		return r
	}, s)
}

// Save writes p to the backend. Every key is attempted even when earlier
// writes fail; failures are logged and returned joined. p is not modified.
func (s *Store) Save(p Preferences) error {
	var errs []error
	fail := func(key string, err error) {
		if err == nil {
			return
		}
		s.log.Warn("could not write preference", "key", key, "error", err)
		errs = append(errs, fmt.Errorf("writing %s: %w", key, err))
	}

	for _, f := range fields {
		fail(s.path(f.key), s.write(f, f.extract(p)))
	}
	s.saveHistory(p.History, fail)
	s.saveVariables(p.Variables, fail)

	if fl, ok := s.backend.(backend.Flusher); ok {
		fail(s.ns, fl.Flush())
	}

	s.log.Debug("preferences saved", "namespace", s.ns, "errors", len(errs))
	return errors.Join(errs...)
}

func (s *Store) write(f field, v any) error {
	key := s.path(f.key)
	switch f.kind {
	case kString:
		return s.backend.SetString(key, v.(string))
	case kBool:
		return s.backend.SetBool(key, v.(bool))
	case kInt:
		return s.backend.SetInt(key, v.(int))
	case kColor, kFormat:
		return s.backend.SetString(key, formatValue(f.kind, v))
	default:
		return fmt.Errorf("unsupported field kind %d", f.kind)
	}
}

// RetainedHistory returns the entries Save persists: the last MaxHistory, in
// order. The result shares storage with history.
func RetainedHistory(history []string) []string {
	if len(history) > MaxHistory {
		return history[len(history)-MaxHistory:]
	}
	return history
}

func (s *Store) saveHistory(history []string, fail func(string, error)) {
	group := s.path(historyGroup)
	names, err := s.backend.Children(group)
	fail(group, err)
	for _, name := range names {
		if strings.HasPrefix(name, historyPrefix) {
			key := backend.Join(group, name)
			fail(key, s.backend.Delete(key))
		}
	}

	retained := RetainedHistory(history)
	fail(s.path(historyCount), s.backend.SetInt(s.path(historyCount), len(retained)))
	for i, entry := range retained {
		key := backend.Join(group, historyPrefix+strconv.Itoa(i))
		fail(key, s.backend.SetString(key, entry))
	}
}

func (s *Store) saveVariables(vars []string, fail func(string, error)) {
	group := s.path(variablesGroup)
	names, err := s.backend.Children(group)
	fail(group, err)
	for _, name := range names {
		key := backend.Join(group, name)
		fail(key, s.backend.Delete(key))
	}

	for _, entry := range vars {
		name, value, ok := SplitVariable(entry)
		if !ok {
			s.log.Debug("skipping malformed variable", "entry", entry)
			continue
		}
		key := backend.Join(group, name)
		fail(key, s.backend.SetString(key, value))
	}
}

// SplitVariable splits a "name=value" binding. It reports false unless the
// entry holds exactly one "=" with a non-empty name and value, and the name
// is usable as a key segment.
func SplitVariable(entry string) (name, value string, ok bool) {
	parts := strings.Split(entry, "=")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	if strings.Contains(parts[0], backend.Separator) {
		return "", "", false
	}
	return parts[0], parts[1], true
}

package prefs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned for a key that names no scalar preference.
var ErrUnknownKey = errors.New("unknown preference key")

// ErrInvalidVariable is returned by SetVariable for a binding Save would drop.
var ErrInvalidVariable = errors.New("invalid variable binding")

// Entry describes one scalar preference for display.
type Entry struct {
	Key       string
	Value     string
	Color     bool
	Defaulted bool
}

// Keys returns the scalar preference keys in namespace order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	return keys
}

// Entries returns every scalar preference of p. Defaulted is taken from r.
func Entries(p Preferences, r Report) []Entry {
	result := make([]Entry, 0, len(fields))
	for _, f := range fields {
		result = append(result, Entry{
			Key:       f.key,
			Value:     formatValue(f.kind, f.extract(p)),
			Color:     f.kind == kColor,
			Defaulted: r.Defaulted(f.key),
		})
	}
	return result
}

// Get returns the display form of the preference at key.
func (p *Preferences) Get(key string) (string, error) {
	f, ok := lookupField(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return formatValue(f.kind, f.extract(*p)), nil
}

// Set parses value according to the preference at key and stores it in p.
// Decimal digits are clamped as on load.
func (p *Preferences) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	v, err := parseValue(f.kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	f.apply(p, v)
	return nil
}

// AddHistory appends an evaluated expression.
func (p *Preferences) AddHistory(expr string) {
	p.History = append(p.History, expr)
}

// ClearHistory drops every history entry.
func (p *Preferences) ClearHistory() {
	p.History = nil
}

// Variable returns the value bound to name.
func (p *Preferences) Variable(name string) (string, bool) {
	for _, entry := range p.Variables {
		if n, v, ok := strings.Cut(entry, "="); ok && n == name {
			return v, true
		}
	}
	return "", false
}

// SetVariable binds name to value, replacing an existing binding.
func (p *Preferences) SetVariable(name, value string) error {
	entry := name + "=" + value
	if _, _, ok := SplitVariable(entry); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidVariable, entry)
	}
	for i, e := range p.Variables {
		if n, _, ok := strings.Cut(e, "="); ok && n == name {
			p.Variables[i] = entry
			return nil
		}
	}
	p.Variables = append(p.Variables, entry)
	return nil
}

// UnsetVariable removes every binding of name and reports whether one existed.
func (p *Preferences) UnsetVariable(name string) bool {
	kept := p.Variables[:0]
	found := false
	for _, e := range p.Variables {
		if n, _, ok := strings.Cut(e, "="); ok && n == name {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	p.Variables = kept
	return found
}

//go:build darwin

package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultsDomain is the UserDefaults domain used by Platform.
const DefaultsDomain = "com.calcprefs.app"

// Defaults stores keys in macOS UserDefaults through the `defaults` CLI.
// Key paths are stored verbatim as flat keys of one domain.
type Defaults struct {
	domain string
}

// NewDefaults returns a backend bound to the given UserDefaults domain.
func NewDefaults(domain string) *Defaults {
	return &Defaults{domain: domain}
}

// Platform returns the native backend: UserDefaults on macOS.
func Platform() (Backend, error) {
	return NewDefaults(DefaultsDomain), nil
}

func (b *Defaults) read(key string) (string, bool, error) {
	cmd := exec.Command("defaults", "read", b.domain, key)
	out, err := cmd.CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading default for key '%s': %w, output: %s", key, err, s)
	}
	return s, true, nil
}

func (b *Defaults) GetString(key string) (string, bool, error) {
	return b.read(key)
}

func (b *Defaults) GetInt(key string) (int, bool, error) {
	s, ok, err := b.read(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

// GetBool accepts both the "1"/"0" printed for -bool values and "true"/"false"
// strings.
func (b *Defaults) GetBool(key string) (bool, bool, error) {
	s, ok, err := b.read(key)
	if !ok || err != nil {
		return false, ok, err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, true, fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	return v, true, nil
}

func (b *Defaults) SetString(key, val string) error {
	return exec.Command("defaults", "write", b.domain, key, "-string", val).Run()
}

func (b *Defaults) SetInt(key string, val int) error {
	return exec.Command("defaults", "write", b.domain, key, "-int", strconv.Itoa(val)).Run()
}

func (b *Defaults) SetBool(key string, val bool) error {
	return exec.Command("defaults", "write", b.domain, key, "-bool", strconv.FormatBool(val)).Run()
}

func (b *Defaults) Delete(key string) error {
	if _, ok, err := b.read(key); err != nil || !ok {
		return err
	}
	return exec.Command("defaults", "delete", b.domain, key).Run()
}

func (b *Defaults) Children(group string) ([]string, error) {
	out, err := exec.Command("defaults", "export", b.domain, "-").Output()
	if err != nil {
		return nil, fmt.Errorf("exporting defaults domain %s: %w", b.domain, err)
	}
	keys, err := plistKeys(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	return leafChildren(keys, group), nil
}

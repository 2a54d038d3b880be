package backend

import (
	"errors"
	"fmt"
	"io"
)

// Backend kinds accepted by Open.
const (
	KindPlatform = "platform"
	KindMemory   = "memory"
	KindJSON     = "json"
	KindYAML     = "yaml"
	KindSQLite   = "sqlite"
)

// ErrUnknownKind is returned by Open for an unrecognized backend kind.
var ErrUnknownKind = errors.New("unknown backend kind")

// Kinds lists the backend kinds accepted by Open.
func Kinds() []string {
	return []string{KindPlatform, KindMemory, KindJSON, KindYAML, KindSQLite}
}

// Open returns the backend of the given kind. An empty path selects the
// kind's default location; the platform and memory kinds ignore path.
func Open(kind, path string) (Backend, error) {
	switch kind {
	case KindPlatform, "":
		return Platform()
	case KindMemory:
		return NewMemory(), nil
	case KindJSON:
		if path == "" {
			path = DefaultFilePath()
		}
		return OpenFile(path), nil
	case KindYAML:
		if path == "" {
			path = DefaultYAMLPath()
		}
		return OpenYAML(path), nil
	case KindSQLite:
		if path == "" {
			path = DefaultSQLitePath()
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Close flushes and closes b when it supports either operation.
func Close(b Backend) error {
	var errs []error
	if f, ok := b.(Flusher); ok {
		errs = append(errs, f.Flush())
	}
	if c, ok := b.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

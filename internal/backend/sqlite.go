package backend

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const (
	kindString = "string"
	kindInt    = "int"
	kindBool   = "bool"
)

// SQLite stores each key as one row of the entries table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Pass ":memory:" for an
// in-memory database (used by tests).
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection keeps ":memory:" databases alive and avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// DefaultSQLitePath returns $XDG_CONFIG_HOME/calcprefs/settings.db.
func DefaultSQLitePath() string {
	return filepath.Join(configHome(), "calcprefs", "settings.db")
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) read(key string) (kind, value string, ok bool, err error) {
	err = s.db.QueryRow("SELECT kind, value FROM entries WHERE key = ?", key).Scan(&kind, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return kind, value, true, nil
}

func (s *SQLite) write(key, kind, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO entries (key, kind, value) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
		key, kind, value,
	)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) GetString(key string) (string, bool, error) {
	_, v, ok, err := s.read(key)
	return v, ok, err
}

func (s *SQLite) GetInt(key string) (int, bool, error) {
	kind, v, ok, err := s.read(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	if kind == kindBool {
		return 0, true, fmt.Errorf("invalid type %s for %s", kind, key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, true, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, true, nil
}

func (s *SQLite) GetBool(key string) (bool, bool, error) {
	kind, v, ok, err := s.read(key)
	if !ok || err != nil {
		return false, ok, err
	}
	if kind == kindInt {
		return false, true, fmt.Errorf("invalid type %s for %s", kind, key)
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, true, fmt.Errorf("invalid bool for %s: %w", key, err)
	}
	return b, true, nil
}

func (s *SQLite) SetString(key, val string) error {
	return s.write(key, kindString, val)
}

func (s *SQLite) SetInt(key string, val int) error {
	return s.write(key, kindInt, strconv.Itoa(val))
}

func (s *SQLite) SetBool(key string, val bool) error {
	return s.write(key, kindBool, strconv.FormatBool(val))
}

func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Children(group string) ([]string, error) {
	prefix := Join(group) + Separator
	rows, err := s.db.Query(`SELECT key FROM entries WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", group, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leafChildren(keys, group), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

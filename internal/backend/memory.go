package backend

import (
	"fmt"
	"strconv"
)

// Memory is a map-backed Backend. It is not safe for concurrent use.
type Memory struct {
	data map[string]any
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]any)}
}

func (m *Memory) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	if s, ok := v.(string); ok {
		return s, true, nil
	}
	return fmt.Sprintf("%v", v), true, nil
}

func (m *Memory) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	switch val := v.(type) {
	case int:
		return val, true, nil
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

func (m *Memory) GetBool(key string) (bool, bool, error) {
	v, ok := m.data[key]
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

func (m *Memory) SetString(key, val string) error {
	m.data[key] = val
	return nil
}

func (m *Memory) SetInt(key string, val int) error {
	m.data[key] = val
	return nil
}

func (m *Memory) SetBool(key string, val bool) error {
	m.data[key] = val
	return nil
}

func (m *Memory) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *Memory) Children(group string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return leafChildren(keys, group), nil
}

// Len reports the number of stored keys.
func (m *Memory) Len() int {
	return len(m.data)
}

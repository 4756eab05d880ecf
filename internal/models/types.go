package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StringList is a list column stored as a JSON array. Scan also accepts the
// Postgres text[] literal form ("{a,b}") so rows written by older tooling load.
type StringList []string

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("unsupported StringList source %T", value)
	}

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}")
		if raw == "" {
			*l = StringList{}
			return nil
		}
		*l = strings.Split(raw, ",")
		return nil
	}

	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether s is in the list (case-insensitive).
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// JSONMap is free-form metadata stored as a JSON object.
type JSONMap map[string]interface{}

// String returns the metadata value at key as a string. Numbers are
// formatted without a trailing ".0" so numeric ids compare like strings.
func (m JSONMap) String(key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FirstString returns the first non-empty value among keys.
func (m JSONMap) FirstString(keys ...string) string {
	for _, key := range keys {
		if v := m.String(key); v != "" {
			return v
		}
	}
	return ""
}

func generateUUID() string {
	return uuid.New().String()
}

func ensureID(id *string) {
	if *id == "" {
		*id = generateUUID()
	}
}

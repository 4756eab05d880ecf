package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses "true"/"1"/"false"/"0", returning defaultValue otherwise
func ParseBool(s string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// ParseLimit clamps a page size into [1, max], using def when absent or invalid.
func ParseLimit(s string, def, max int) int {
	limit := ParseInt(s, def)
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// ParseOffset returns a non-negative offset.
func ParseOffset(s string) int {
	offset := ParseInt(s, 0)
	if offset < 0 {
		return 0
	}
	return offset
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// SplitCSV parses a comma-separated list, dropping empty entries
func SplitCSV(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

package registry

import (
	"fmt"
	"time"
)

// Settings is the free-form configuration block of one backend.
type Settings map[string]any

// String returns the string under key, or def when it is absent.
func (s Settings) String(key, def string) string {
	if v, ok := s[key].(string); ok && v != "" {
		return v
	}
	return def
}

// RequireString returns the string under key or an error naming it.
func (s Settings) RequireString(key string) (string, error) {
	v := s.String(key, "")
	if v == "" {
		return "", fmt.Errorf("setting %q is required", key)
	}
	return v, nil
}

// Strings returns the string list under key.
func (s Settings) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}

// Int returns the integer under key, or def.
func (s Settings) Int(key string, def int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Duration parses the duration under key, or returns def.
func (s Settings) Duration(key string, def time.Duration) (time.Duration, error) {
	raw, ok := s[key]
	if !ok {
		return def, nil
	}
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("setting %q must be a duration string", key)
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("setting %q: %w", key, err)
	}
	return d, nil
}

// StringMap returns the string map under key.
func (s Settings) StringMap(key string) map[string]string {
	out := make(map[string]string)
	switch v := s[key].(type) {
	case map[string]any:
		for k, item := range v {
			if str, ok := item.(string); ok {
				out[k] = str
			}
		}
	case map[string]string:
		for k, item := range v {
			out[k] = item
		}
	}
	return out
}

// Bool returns the boolean under key, or def.
func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

var sensitiveKeys = []string{"password", "token", "key", "secret"}

func sensitive(key string) bool {
	for _, s := range sensitiveKeys {
		if strings.EqualFold(key, s) {
			return true
		}
	}
	return false
}

// Sanitize returns a copy of v without map entries whose key is a credential
// name, at any depth. Sequences keep their order and length and scalars pass
// through. The input is not modified.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitive(k) {
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, val := range t {
			if !sensitive(k) {
				out[k] = val
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// SanitizeJSON normalises v to plain JSON values before sanitizing, so struct
// fields are matched by their JSON names.
func SanitizeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	return Sanitize(generic), nil
}

// Decode converts a sanitized value back into a typed result.
func Decode[T any](v any) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, fmt.Errorf("failed to encode result: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}

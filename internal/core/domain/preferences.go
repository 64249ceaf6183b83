package domain

import (
	"encoding/json"
	"strings"
)

// DecodePreferences turns the stored free-form preferences blob into a map.
// The contract is deliberately lenient: a nil or empty blob and any parse
// failure all yield an empty map, never an error and never a partial result.
// Only strict JSON objects are accepted; the blob is data, not code.
func DecodePreferences(raw *string) map[string]any {
	if raw == nil {
		return map[string]any{}
	}

	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return map[string]any{}
	}

	var prefs map[string]any
	if err := json.Unmarshal([]byte(trimmed), &prefs); err != nil {
		return map[string]any{}
	}
	if prefs == nil {
		return map[string]any{}
	}

	return prefs
}

package convert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence, if present.
// Generation backends frequently wrap JSON replies in ```json blocks even
// when told not to.
func StripFences(s string) string {
	s = strings.TrimSpace(s)

	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// DecodeObject parses a generation reply as a single JSON object, stripping
// markdown fences first.
func DecodeObject(s string) (map[string]any, error) {
	cleaned := StripFences(s)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, fmt.Errorf("decoding reply as JSON object: %w", err)
	}
	return obj, nil
}

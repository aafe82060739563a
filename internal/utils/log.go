package utils

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// PreviewValue renders an arbitrary value as compact JSON for a log line and
// truncates it. Values that cannot be marshalled fall back to %v.
func PreviewValue(v any, limit int) string {
	if v == nil {
		return ""
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return TruncateForLog(fmt.Sprintf("%v", v), limit)
	}
	return TruncateForLog(string(raw), limit)
}

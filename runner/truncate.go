package runner

import (
	"fmt"
	"strings"
)

// DefaultMaxOutput is the per-stream output cap in characters.
const DefaultMaxOutput = 5000

const truncationMarker = "\n[OUTPUT TRUNCATED]"

// Truncate caps s at max characters. When truncation occurs the marker is
// appended to the returned text and the second return value carries a
// warning stating the limit and how many characters were dropped.
func Truncate(s string, max int) (string, string) {
	if max <= 0 {
		max = DefaultMaxOutput
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s, ""
	}
	dropped := len(runes) - max
	warning := fmt.Sprintf("Output truncated after %d characters (%d dropped).", max, dropped)
	return string(runes[:max]) + truncationMarker, warning
}

// JoinWarnings concatenates non-empty warning fragments into one
// human-readable annotation.
func JoinWarnings(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, " ")
}

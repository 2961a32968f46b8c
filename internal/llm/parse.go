package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls the JSON object out of a model reply. Models wrap
// output in markdown fences or add commentary often enough that the
// strict path alone would fail a meaningful share of runs. The returned
// text is still untrusted; callers decode and validate it themselves.
func ExtractJSON(reply string) (string, error) {
	s := strings.TrimSpace(reply)

	// Strip a ```json ... ``` fence if present.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s, nil
	}

	// Fall back to scanning for the outermost balanced object, skipping
	// braces inside string literals.
	start := strings.Index(s, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in model reply")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in model reply")
}

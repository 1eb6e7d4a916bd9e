package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ParseIntent extracts an Intent from a model reply. Markdown code fences
// and surrounding prose are ignored; the first JSON object wins. Missing
// fields become "unknown" but the action must be one of the known skills.
func ParseIntent(reply string) (*Intent, error) {
	raw, ok := firstObject(reply)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoIntent, truncate(reply, 120))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("planner: decode intent: %w", err)
	}

	get := func(key string) string {
		v, ok := fields[key].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return Unknown
		}
		return strings.TrimSpace(v)
	}

	action, err := ParseAction(get("action"))
	if err != nil {
		return nil, err
	}

	return &Intent{
		Action:            action,
		ObjectDescription: get("object_description"),
		ObjectColor:       strings.ToLower(get("object_color")),
		ObjectType:        strings.ToLower(get("object_type")),
	}, nil
}

// firstObject returns the first balanced {...} in s, honouring strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

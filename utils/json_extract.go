package utils

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrNoJSON = errors.New("no JSON found in response")

// ExtractJSON pulls the first JSON document out of a model response. Models
// frequently wrap payloads in markdown fences or surround them with prose,
// so the raw text is unfenced first and then scanned for a balanced object
// or array.
func ExtractJSON(text string) (json.RawMessage, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, ErrNoJSON
	}

	if fenced, ok := unfence(s, "```json"); ok {
		s = fenced
	} else if fenced, ok := unfence(s, "```"); ok {
		s = fenced
	}

	s = strings.TrimSpace(s)
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') && json.Valid([]byte(s)) {
		return json.RawMessage(s), nil
	}

	if doc, ok := scanBalanced(s); ok {
		return json.RawMessage(doc), nil
	}
	return nil, ErrNoJSON
}

// unfence returns the content between the opening marker and the closing
// "```", when both are present.
func unfence(s, marker string) (string, bool) {
	start := strings.Index(s, marker)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// scanBalanced finds the first balanced JSON object or array, tracking string
// literals so braces inside them do not confuse the depth count.
func scanBalanced(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	open := s[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

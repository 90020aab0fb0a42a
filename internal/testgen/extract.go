package testgen

import (
	"encoding/json"
	"regexp"
)

type Shape string

const (
	ShapeArray  Shape = "array"
	ShapeObject Shape = "object"
)

var fenceMarker = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// Extract pulls the first JSON fragment of the requested shape out of raw
// model text and parses it. It returns nil when nothing usable is found; that
// is an expected outcome, not an error.
func Extract(raw string, shape Shape) any {
	text := fenceMarker.ReplaceAllString(raw, "")

	var fragment string
	if shape == ShapeObject {
		fragment = scanBalanced(text, '{', '}')
	}
	if fragment == "" {
		fragment = scanBalanced(text, '[', ']')
	}
	if fragment == "" {
		return nil
	}

	var v any
	if err := json.Unmarshal([]byte(fragment), &v); err != nil {
		return nil
	}
	return v
}

// scanBalanced returns the first complete open...close fragment. Delimiters
// inside JSON strings are ignored once a fragment has started; prose before
// the fragment is not treated as JSON, so stray quotes there cannot derail it.
// Byte iteration is safe because UTF-8 never reuses ASCII bytes.
func scanBalanced(s string, open, close byte) string {
	start, depth := -1, 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		b := s[i]
		if start < 0 {
			if b == open {
				start, depth = i, 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// matchesShape reports whether a parsed value has the required top-level type.
func matchesShape(v any, shape Shape) bool {
	switch shape {
	case ShapeArray:
		_, ok := v.([]any)
		return ok
	case ShapeObject:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

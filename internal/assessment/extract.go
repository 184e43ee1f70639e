package assessment

import (
	"encoding/json"
	"strings"
)

// ExtractJSONArray locates a JSON array embedded in free-form LLM text.
// It first tries every balanced, string-aware [...] span in order and returns
// the first that is valid JSON; failing that it falls back to the greedy span
// from the first '[' to the last ']'.
func ExtractJSONArray(text string) (string, bool) {
	for start := strings.IndexByte(text, '['); start >= 0; {
		if end, ok := matchBracket(text, start); ok {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}

	first := strings.IndexByte(text, '[')
	last := strings.LastIndexByte(text, ']')
	if first < 0 || last <= first {
		return "", false
	}
	candidate := text[first : last+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// matchBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings.
func matchBracket(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch ch {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

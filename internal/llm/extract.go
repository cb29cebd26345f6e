package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSON = errors.New("no JSON value found in response")

// ExtractJSON recovers a JSON value from model output that was supposed to
// be pure JSON. It strips markdown code fences and parses the remainder; if
// that fails it parses the first balanced {...} or [...] substring. Anything
// else is an *ErrInvalidResponse.
func ExtractJSON(raw string) (json.RawMessage, error) {
	text := stripFences(raw)
	if json.Valid([]byte(text)) && text != "" {
		return json.RawMessage(text), nil
	}

	if sub, ok := firstBalanced(text); ok && json.Valid([]byte(sub)) {
		return json.RawMessage(sub), nil
	}
	// The fences may have been malformed; retry on the untouched text.
	if sub, ok := firstBalanced(raw); ok && json.Valid([]byte(sub)) {
		return json.RawMessage(sub), nil
	}

	return nil, &ErrInvalidResponse{Content: json.RawMessage(raw), Err: errNoJSON}
}

// DecodeJSON runs ExtractJSON on raw and unmarshals the result into v.
func DecodeJSON(raw string, v any) error {
	clean, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(clean))
	if err := dec.Decode(v); err != nil {
		return &ErrInvalidResponse{Content: clean, Err: err}
	}
	return nil
}

// stripFences removes ```json / ``` wrappers anywhere in s.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// firstBalanced returns the first substring starting at '{' or '[' whose
// brackets balance, skipping over string literals.
func firstBalanced(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	for start >= 0 {
		if end, ok := matchBracket(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexAny(s[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBracket(s string, start int) (int, bool) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
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
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

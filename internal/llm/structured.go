package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON decodes the first JSON object of type T found in raw model
// output. Code fences and prose around the object are ignored. If
// validator is non-nil, the decoded value is validated before return.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	text := stripCodeFences(raw)
	var lastErr error
	for start := strings.IndexByte(text, '{'); start >= 0; {
		var result T
		dec := json.NewDecoder(strings.NewReader(text[start:]))
		err := dec.Decode(&result)
		if err == nil {
			if validator != nil {
				if err := validator(result); err != nil {
					return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
				}
			}
			return result, nil
		}
		lastErr = err

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	if lastErr == nil {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}
	return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, lastErr)
}

// stripCodeFences drops markdown fence lines (```json, ```) and keeps
// everything else.
func stripCodeFences(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when a model response contains no JSON object
var ErrNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the span from the first '{' to the last '}'.
// Models often wrap their JSON in prose or code fences.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// DecodeJSONObject parses a model response into v, falling back to the
// embedded object when the whole response is not valid JSON
func DecodeJSONObject(text string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), v); err == nil {
		return nil
	}

	obj, err := ExtractJSONObject(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return nil
}

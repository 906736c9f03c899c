package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSONObject parses a generated reply as a JSON object. Markdown code
// fences and text around the outermost braces are tolerated; anything else is
// an error. Values are left untyped for the normalizer.
func DecodeJSONObject(text string) (map[string]any, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start > 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("response is not a JSON object")
	}
	return obj, nil
}

func stripCodeFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	case strings.HasPrefix(s, "```"):
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

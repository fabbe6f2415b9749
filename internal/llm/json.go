package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingJSONFence = regexp.MustCompile("```json\\s*")
	leadingFence     = regexp.MustCompile("```\\s*")
	trailingFence    = regexp.MustCompile("\\s*```\\s*$")
)

// StripCodeFences removes a markdown code fence that models like to wrap
// JSON answers in. Only the first opening fence and a closing fence at the
// very end are removed.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	switch {
	case strings.Contains(text, "```json"):
		text = replaceFirst(leadingJSONFence, text)
		text = trailingFence.ReplaceAllString(text, "")
	case strings.Contains(text, "```"):
		text = replaceFirst(leadingFence, text)
		text = trailingFence.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// DecodeJSON strips fences and unmarshals the model output into v.
func DecodeJSON(text string, v any) error {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return fmt.Errorf("empty model response")
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("parsing model JSON: %w", err)
	}
	return nil
}

func replaceFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

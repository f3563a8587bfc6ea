// internal/llm/parse.go
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON unmarshals a model reply into dest, tolerating the usual
// sloppiness: markdown code fences, leading prose before the first brace, and
// mildly broken JSON (trailing commas, single quotes) which jsonrepair fixes.
func ExtractJSON(raw string, dest any) error {
	text := StripCodeFences(raw)

	// Trim anything before the first opening brace/bracket; models love to
	// narrate before the payload.
	if idx := strings.IndexAny(text, "{["); idx > 0 {
		text = text[idx:]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("model reply contains no JSON payload")
	}

	if err := json.Unmarshal([]byte(text), dest); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return fmt.Errorf("model reply is not parseable JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), dest); err != nil {
		return fmt.Errorf("repaired model reply still not valid JSON: %w", err)
	}
	return nil
}

// StripCodeFences removes a surrounding markdown code block, with or without a
// language tag, and returns the trimmed inner text.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}
	// Drop the opening fence line (``` or ```json etc.).
	lines = lines[1:]
	// Drop a closing fence if present.
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			lines = append(lines[:i], lines[i+1:]...)
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

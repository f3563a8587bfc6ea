// internal/steps/parser.go
package steps

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

// enumPrefix matches leading enumeration markers such as "3." or "12)".
var enumPrefix = regexp.MustCompile(`^\s*\d+\s*[.)]\s*`)

// Parse splits a free-form instruction block into an ordered sequence of
// steps: one instruction per line, enumeration prefixes stripped, blank and
// purely symbolic lines discarded. Order is preserved and nothing is
// deduplicated; zero steps is a valid result.
func Parse(instructions string) []schemas.Step {
	var parsed []schemas.Step
	for _, line := range strings.Split(instructions, "\n") {
		text := strings.TrimSpace(enumPrefix.ReplaceAllString(line, ""))
		if !hasLetter(text) {
			continue
		}
		parsed = append(parsed, schemas.Step{
			Text:  text,
			Index: len(parsed) + 1,
		})
	}
	return parsed
}

// hasLetter reports whether s contains at least one alphabetic rune. Lines
// without one are separators ("----", "===", blank) rather than instructions.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

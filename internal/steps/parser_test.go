// internal/steps/parser_test.go
package steps

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripsEnumerationPrefixes(t *testing.T) {
	parsed := Parse("1. Click the Login button\n2) Hover over the menu\n  12.   Press Cancel")

	require.Len(t, parsed, 3)
	assert.Equal(t, "Click the Login button", parsed[0].Text)
	assert.Equal(t, "Hover over the menu", parsed[1].Text)
	assert.Equal(t, "Press Cancel", parsed[2].Text)
}

func TestParseAssignsSequentialIndexes(t *testing.T) {
	parsed := Parse("Click A\n\n----\nClick B\nClick C")

	require.Len(t, parsed, 3)
	for i, step := range parsed {
		assert.Equal(t, i+1, step.Index)
	}
}

func TestParseDiscardsNonInstructionLines(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("\n\n\n"))
	assert.Empty(t, Parse("----\n====\n3.\n42)\n!!!"))
}

func TestParsePreservesOrderAndDuplicates(t *testing.T) {
	parsed := Parse("Click the tab\nClick the tab\nClick the tab")

	require.Len(t, parsed, 3)
	for _, step := range parsed {
		assert.Equal(t, "Click the tab", step.Text)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	input := "1. Click the Login button\n----\n2. Verify the dashboard loads\n3) Click Logout"
	once := Parse(input)

	var texts []string
	for _, s := range once {
		texts = append(texts, s.Text)
	}
	twice := Parse(strings.Join(texts, "\n"))

	assert.Equal(t, once, twice, "parsing its own output must be a fixed point")
}

func TestParseKeepsInlineNumbers(t *testing.T) {
	parsed := Parse("Click option 3. in the list")

	require.Len(t, parsed, 1)
	assert.Equal(t, "Click option 3. in the list", parsed[0].Text)
}

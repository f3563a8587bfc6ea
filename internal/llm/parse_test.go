// internal/llm/parse_test.go
package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type actionReply struct {
	Action string `json:"action"`
	Target string `json:"target"`
}

func TestExtractJSONPlain(t *testing.T) {
	var got actionReply
	require.NoError(t, ExtractJSON(`{"action": "click", "target": "#a"}`, &got))
	assert.Equal(t, actionReply{Action: "click", Target: "#a"}, got)
}

func TestExtractJSONFenced(t *testing.T) {
	raw := "```json\n{\"action\": \"hover\", \"target\": \".menu\"}\n```"
	var got actionReply
	require.NoError(t, ExtractJSON(raw, &got))
	assert.Equal(t, "hover", got.Action)
}

func TestExtractJSONWithLeadingProse(t *testing.T) {
	raw := `Sure! Here is the action you asked for: {"action": "click", "target": "#submit"}`
	var got actionReply
	require.NoError(t, ExtractJSON(raw, &got))
	assert.Equal(t, "#submit", got.Target)
}

func TestExtractJSONRepairsSloppyOutput(t *testing.T) {
	raw := `{"action": "click", "target": "#a",}`
	var got actionReply
	require.NoError(t, ExtractJSON(raw, &got))
	assert.Equal(t, "click", got.Action)

	raw = `{'action': 'hover', 'target': '.b'}`
	require.NoError(t, ExtractJSON(raw, &got))
	assert.Equal(t, "hover", got.Action)
}

func TestExtractJSONRejectsNonJSON(t *testing.T) {
	var got actionReply
	assert.Error(t, ExtractJSON("", &got))
	assert.Error(t, ExtractJSON("I would click the submit button.", &got))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "Feature: x", StripCodeFences("```gherkin\nFeature: x\n```"))
	assert.Equal(t, "Feature: x", StripCodeFences("```\nFeature: x\n```"))
	assert.Equal(t, "no fences here", StripCodeFences("  no fences here  "))
}

// internal/scenario/generator_test.go
package scenario

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/llm"
)

type scriptedClient struct {
	replies  []string
	requests []llm.GenerationRequest
}

func (c *scriptedClient) ModelName() string { return "scripted" }

func (c *scriptedClient) GenerateResponse(_ context.Context, req llm.GenerationRequest) (string, error) {
	c.requests = append(c.requests, req)
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func TestAnalyzeHTMLParsesReply(t *testing.T) {
	client := &scriptedClient{replies: []string{`{
		"hover_candidates": [{"selector": ".menu", "description": "main navigation"}],
		"popup_candidates": [{"selector": "#delete", "description": "delete confirmation"}],
		"action_plan": [
			{"action": "hover", "selector": ".menu", "description": "the navigation menu"},
			{"action": "click", "selector": "#delete", "description": "the delete button"}
		]
	}`}}
	g := NewGenerator(client, zap.NewNop())

	analysis, err := g.AnalyzeHTML(context.Background(), "https://example.test",
		`<html><head><title>Example</title></head><body><a href="/x">X</a></body></html>`)

	require.NoError(t, err)
	assert.Len(t, analysis.HoverCandidates, 1)
	assert.Len(t, analysis.PopupCandidates, 1)
	require.Len(t, analysis.ActionPlan, 2)
	assert.Equal(t, schemas.ActionHover, analysis.ActionPlan[0].Action)

	require.Len(t, client.requests, 1)
	assert.True(t, client.requests[0].ForceJSONFormat)
	assert.Contains(t, client.requests[0].UserPrompt, "Page title: Example")
}

func TestConvertCustomTestStripsFences(t *testing.T) {
	client := &scriptedClient{replies: []string{
		"```gherkin\nFeature: Login\n  Scenario: happy path\n```",
	}}
	g := NewGenerator(client, zap.NewNop())

	feature, err := g.ConvertCustomTest(context.Background(), "https://example.test",
		"1. Click Login", nil)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(feature, "Feature: Login"))
}

func TestConvertCustomTestIncludesRunRecord(t *testing.T) {
	client := &scriptedClient{replies: []string{"Feature: Login"}}
	g := NewGenerator(client, zap.NewNop())

	result := &schemas.RunResult{
		RunID: "r-1",
		URL:   "https://example.test",
		StepsExecuted: []schemas.ActionOutcome{
			{Step: schemas.Step{Text: "Click Login", Index: 1}, Kind: schemas.ActionClick, Success: true},
		},
	}
	_, err := g.ConvertCustomTest(context.Background(), "https://example.test", "1. Click Login", result)

	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Contains(t, client.requests[0].UserPrompt, `"run_id": "r-1"`)
}

func TestWithModelStampsRequests(t *testing.T) {
	client := &scriptedClient{replies: []string{"Feature: Login", "Feature: Login"}}
	base := NewGenerator(client, zap.NewNop())

	_, err := base.WithModel("gemini-2.5-pro").ConvertCustomTest(
		context.Background(), "https://example.test", "1. Click Login", nil)
	require.NoError(t, err)
	_, err = base.ConvertCustomTest(
		context.Background(), "https://example.test", "1. Click Login", nil)
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	assert.Equal(t, "gemini-2.5-pro", client.requests[0].Model)
	assert.Empty(t, client.requests[1].Model, "the base generator keeps the client default")
}

func TestGenerateRejectsNonGherkinReply(t *testing.T) {
	client := &scriptedClient{replies: []string{"Sorry, I cannot help with that."}}
	g := NewGenerator(client, zap.NewNop())

	_, err := g.ConvertCustomTest(context.Background(), "https://example.test", "1. Click Login", nil)
	assert.Error(t, err)
}

func TestCondenseInventoriesInteractiveElements(t *testing.T) {
	html := `<html><head><title>Store</title></head><body>
		<a href="/cart" class="nav-cart">View cart</a>
		<button id="checkout" type="submit">Checkout</button>
		<input type="text" name="coupon" placeholder="Coupon code">
		<input type="hidden" name="csrf" value="x">
		<div onclick="openMenu()" id="burger">Menu</div>
	</body></html>`

	condensed := Condense(html)

	assert.Contains(t, condensed, "Page title: Store")
	assert.Contains(t, condensed, `"View cart" -> /cart`)
	assert.Contains(t, condensed, `"Checkout"`)
	assert.Contains(t, condensed, `name="coupon"`)
	assert.NotContains(t, condensed, "csrf", "hidden inputs carry no test value")
	assert.Contains(t, condensed, "id=burger")
}

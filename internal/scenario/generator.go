// internal/scenario/generator.go
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/llm"
)

// Generator owns the model-facing half of scenario production: analyzing a
// page for interaction candidates, interpreting what a run actually did, and
// rendering both into Gherkin.
type Generator struct {
	client llm.Client
	// model overrides the client's configured model when non-empty.
	model string
	log   *zap.Logger
}

// NewGenerator builds a generator on client.
func NewGenerator(client llm.Client, logger *zap.Logger) *Generator {
	return &Generator{client: client, log: logger.Named("generator")}
}

// WithModel returns a generator whose prompts run against model instead of
// the client's configured default. The receiver is unchanged.
func (g *Generator) WithModel(model string) *Generator {
	derived := *g
	derived.model = model
	return &derived
}

const analystSystemPrompt = `You are a senior QA engineer analyzing a web page for automated exploratory testing. Respond with only a valid JSON object, no prose and no markdown.`

const gherkinSystemPrompt = `You are a senior QA engineer who writes clean, conventional Gherkin. Respond with only the Gherkin feature text, no surrounding prose and no markdown fences.`

// AnalyzeHTML asks the model which elements of the page likely hide hover
// content or open dialogs, and for an ordered plan to exercise them.
func (g *Generator) AnalyzeHTML(ctx context.Context, url, html string) (*schemas.PageAnalysis, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this web page (%s) and identify elements worth exercising in an automated UI test.\n\n", url)
	b.WriteString("Find:\n")
	b.WriteString("1. hover_candidates: elements that likely reveal tooltips, dropdown menus, or previews on hover.\n")
	b.WriteString("2. popup_candidates: elements that likely open a modal, dialog, or popup when clicked.\n")
	b.WriteString("3. action_plan: an ordered list of actions (click or hover) to exercise the most interesting candidates. Popups must be dismissed before the next action.\n\n")
	b.WriteString("Use plain CSS selectors only; never :contains() or other text pseudo-selectors.\n\n")
	b.WriteString("Reply with exactly this JSON shape:\n")
	b.WriteString(`{"hover_candidates": [{"selector": "...", "description": "..."}], "popup_candidates": [{"selector": "...", "description": "..."}], "action_plan": [{"action": "click", "selector": "...", "description": "..."}]}`)
	b.WriteString("\n\nPage inventory:\n")
	b.WriteString(Condense(html))

	raw, err := g.client.GenerateResponse(ctx, llm.GenerationRequest{
		SystemPrompt:    analystSystemPrompt,
		UserPrompt:      b.String(),
		Model:           g.model,
		ForceJSONFormat: true,
	})
	if err != nil {
		return nil, fmt.Errorf("page analysis failed: %w", err)
	}

	var analysis schemas.PageAnalysis
	if err := llm.ExtractJSON(raw, &analysis); err != nil {
		return nil, fmt.Errorf("page analysis reply was not parseable: %w", err)
	}
	g.log.Info("Page analyzed.",
		zap.Int("hover_candidates", len(analysis.HoverCandidates)),
		zap.Int("popup_candidates", len(analysis.PopupCandidates)),
		zap.Int("planned_actions", len(analysis.ActionPlan)))
	return &analysis, nil
}

// InterpretResults turns a raw run record into a semantic account of what the
// page did: which hovers revealed content, which clicks opened or closed
// dialogs, where navigation went, and what failed.
func (g *Generator) InterpretResults(ctx context.Context, result *schemas.RunResult) (*schemas.Interpretation, error) {
	record, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode run record: %w", err)
	}

	var b strings.Builder
	b.WriteString("Below is the execution record of an automated browser test run. Interpret what actually happened on the page.\n\n")
	b.WriteString("Reply with exactly this JSON shape:\n")
	b.WriteString(`{"hover_interactions": [], "popup_interactions": [], "navigation_changes": [], "failures": [], "overall_summary": "..."}`)
	b.WriteString("\n\nEach list entry is an object describing one interaction in your own fields. overall_summary is one paragraph.\n\n")
	b.WriteString("Execution record:\n")
	b.Write(record)

	raw, err := g.client.GenerateResponse(ctx, llm.GenerationRequest{
		SystemPrompt:    analystSystemPrompt,
		UserPrompt:      b.String(),
		Model:           g.model,
		ForceJSONFormat: true,
	})
	if err != nil {
		return nil, fmt.Errorf("run interpretation failed: %w", err)
	}

	var interp schemas.Interpretation
	if err := llm.ExtractJSON(raw, &interp); err != nil {
		return nil, fmt.Errorf("run interpretation reply was not parseable: %w", err)
	}
	return &interp, nil
}

// GenerateGherkin renders the autonomous analysis and its observed outcome
// into a feature file.
func (g *Generator) GenerateGherkin(ctx context.Context, url string, analysis *schemas.PageAnalysis, interp *schemas.Interpretation) (string, error) {
	analysisJSON, _ := json.MarshalIndent(analysis, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Write a Gherkin feature file describing UI tests for %s.\n\n", url)
	b.WriteString("Base the scenarios on the interaction analysis below")
	if interp != nil {
		b.WriteString(" and on what was actually observed when the actions ran")
	}
	b.WriteString(". One Feature, one scenario per meaningful interaction. Use Given/When/Then with concrete element descriptions a human tester could follow. Mark interactions that failed during execution with a comment.\n\n")
	b.WriteString("Interaction analysis:\n")
	b.Write(analysisJSON)
	if interp != nil {
		interpJSON, _ := json.MarshalIndent(interp, "", "  ")
		b.WriteString("\n\nObserved behavior:\n")
		b.Write(interpJSON)
	}

	return g.generateFeature(ctx, b.String())
}

// ConvertCustomTest renders a user-written step script into Gherkin,
// optionally enriched with the record of executing it.
func (g *Generator) ConvertCustomTest(ctx context.Context, url, testSteps string, result *schemas.RunResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Convert this manual test script for %s into a Gherkin feature file.\n\n", url)
	b.WriteString("One Feature, scenarios grouped by intent. Preserve the script's step order and wording intent; do not invent steps the script does not contain.\n\n")
	b.WriteString("Test script:\n")
	b.WriteString(testSteps)
	if result != nil {
		record, _ := json.MarshalIndent(result, "", "  ")
		b.WriteString("\n\nThe script was executed against the live page. Reflect observed outcomes in the Then steps, and mark steps that failed with a comment:\n")
		b.Write(record)
	}

	return g.generateFeature(ctx, b.String())
}

func (g *Generator) generateFeature(ctx context.Context, prompt string) (string, error) {
	raw, err := g.client.GenerateResponse(ctx, llm.GenerationRequest{
		SystemPrompt: gherkinSystemPrompt,
		UserPrompt:   prompt,
		Model:        g.model,
	})
	if err != nil {
		return "", fmt.Errorf("gherkin generation failed: %w", err)
	}

	feature := llm.StripCodeFences(raw)
	if !strings.Contains(feature, "Feature:") {
		return "", fmt.Errorf("model reply is not a Gherkin feature")
	}
	return feature, nil
}

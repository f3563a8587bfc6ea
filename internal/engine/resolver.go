// internal/engine/resolver.go
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/llm"
)

// PopupContext describes the dialog state a resolution happens under. It
// feeds both the prompt and the cache key: popup resolutions must not share
// cache entries with full-page ones, and two resolutions against structurally
// different dialogs must not share either.
type PopupContext struct {
	// Active is true when the step was classified popup-related.
	Active bool
	// ModalVisible is true when a dialog was open at resolution time.
	ModalVisible bool
	// StructureKey is the normalized structure of the open dialog, "" if none.
	StructureKey string
	// ScopedMarkup is true when the markup handed to the resolver is the
	// dialog's own markup rather than the whole page.
	ScopedMarkup bool
}

// Resolver turns one step plus current markup into a concrete browser action
// by asking the model, then hardening the answer: unparseable replies and
// invalid selectors degrade to a no-op or to text matching, never to an error.
type Resolver struct {
	client     llm.Client
	pageLimit  int
	popupLimit int
	log        *zap.Logger
}

// NewResolver builds a resolver. pageLimit and popupLimit bound the markup
// excerpt embedded in prompts for full-page and dialog-scoped markup.
func NewResolver(client llm.Client, pageLimit, popupLimit int, logger *zap.Logger) *Resolver {
	return &Resolver{
		client:     client,
		pageLimit:  pageLimit,
		popupLimit: popupLimit,
		log:        logger.Named("resolver"),
	}
}

// pseudoTextSyntax matches selector dialects that embed text matching, which
// the driver does not evaluate. Seen in model output trained on other tools.
var pseudoTextSyntax = regexp.MustCompile(`:(?:contains|has-text|text-is|text)\(`)

var quotedText = regexp.MustCompile(`['"]([^'"]+)['"]`)

const resolverSystemPrompt = `You are a web UI test automation expert. You map a natural-language test step onto one concrete browser action against the provided HTML. Respond with only a valid JSON object, no prose and no markdown.`

// Resolve decides the action for one step. It never returns an error: every
// failure mode maps to an ActionNone outcome so a flaky model reply degrades
// a single step instead of aborting the run.
func (r *Resolver) Resolve(ctx context.Context, step schemas.Step, markup string, pctx PopupContext) schemas.ResolvedAction {
	prompt := r.buildPrompt(step, markup, pctx)

	raw, err := r.client.GenerateResponse(ctx, llm.GenerationRequest{
		SystemPrompt:    resolverSystemPrompt,
		UserPrompt:      prompt,
		ForceJSONFormat: true,
		CacheKey:        r.cacheKey(step, prompt, pctx),
	})
	if err != nil {
		r.log.Warn("Model resolution failed; treating step as no-op.",
			zap.Int("step", step.Index), zap.Error(err))
		return noAction("model call failed: " + err.Error())
	}

	var reply struct {
		Action         string `json:"action"`
		Target         string `json:"target"`
		UseTextLocator bool   `json:"use_text_locator"`
		Rationale      string `json:"rationale"`
	}
	if err := llm.ExtractJSON(raw, &reply); err != nil {
		r.log.Warn("Model reply was not parseable; treating step as no-op.",
			zap.Int("step", step.Index), zap.Error(err))
		return noAction("unparseable model reply")
	}

	action := schemas.ResolvedAction{
		Target:         strings.TrimSpace(reply.Target),
		UseTextLocator: reply.UseTextLocator,
		Rationale:      reply.Rationale,
	}
	switch strings.ToLower(strings.TrimSpace(reply.Action)) {
	case "click":
		action.Kind = schemas.ActionClick
	case "hover":
		action.Kind = schemas.ActionHover
	case "none", "":
		return noAction(reply.Rationale)
	default:
		r.log.Warn("Model proposed an unknown action; treating step as no-op.",
			zap.Int("step", step.Index), zap.String("action", reply.Action))
		return noAction("unknown action kind: " + reply.Action)
	}
	if action.Target == "" {
		return noAction("model returned an empty target")
	}

	return r.validate(step, action)
}

// validate enforces the ResolvedAction invariant: a structural target must be
// a parseable selector free of pseudo text-matching syntax. Violations
// degrade to text matching when quoted text can be salvaged, otherwise to a
// no-op.
func (r *Resolver) validate(step schemas.Step, action schemas.ResolvedAction) schemas.ResolvedAction {
	if action.UseTextLocator {
		return action
	}

	if pseudoTextSyntax.MatchString(action.Target) {
		if text := extractQuoted(action.Target); text != "" {
			r.log.Debug("Rewriting pseudo text selector to a text locator.",
				zap.Int("step", step.Index), zap.String("target", action.Target))
			action.Target = text
			action.UseTextLocator = true
			return action
		}
		return noAction("selector uses unsupported text-matching syntax: " + action.Target)
	}

	if _, err := cascadia.Parse(action.Target); err != nil {
		if text := extractQuoted(action.Target); text != "" {
			r.log.Debug("Rewriting invalid selector to a text locator.",
				zap.Int("step", step.Index), zap.String("target", action.Target))
			action.Target = text
			action.UseTextLocator = true
			return action
		}
		r.log.Warn("Model proposed an invalid selector; treating step as no-op.",
			zap.Int("step", step.Index), zap.String("target", action.Target), zap.Error(err))
		return noAction("invalid selector: " + action.Target)
	}

	return action
}

func (r *Resolver) buildPrompt(step schemas.Step, markup string, pctx PopupContext) string {
	limit := r.pageLimit
	if pctx.ScopedMarkup {
		limit = r.popupLimit
	}
	excerpt := markup
	if len(excerpt) > limit {
		excerpt = excerpt[:limit]
	}

	var b strings.Builder
	b.WriteString("Test step to perform:\n")
	b.WriteString(step.Text)
	b.WriteString("\n\n")

	if pctx.Active {
		if pctx.ScopedMarkup {
			b.WriteString("A dialog is currently open. The HTML below is the dialog content only.\n")
		} else if pctx.ModalVisible {
			b.WriteString("A dialog is currently open somewhere in the page HTML below.\n")
		} else {
			b.WriteString("The step mentions a popup or dialog, but none is currently open.\n")
		}
		b.WriteString("For dialog buttons prefer matching by visible text (use_text_locator true), since dialog markup is often generated with unstable ids.\n\n")
	} else {
		b.WriteString("Prefer a stable structural CSS selector: an id, a meaningful class, an attribute match, or an href substring. Fall back to visible text (use_text_locator true) only when no stable selector exists.\n\n")
	}

	b.WriteString("Rules:\n")
	b.WriteString("- action is exactly one of \"click\", \"hover\", or \"none\".\n")
	b.WriteString("- Use \"none\" when the step requires no browser action or the target is not in the HTML.\n")
	b.WriteString("- When use_text_locator is true, target is the exact visible text, nothing else.\n")
	b.WriteString("- When use_text_locator is false, target is a plain CSS selector. Never use :contains() or other text pseudo-selectors.\n\n")

	b.WriteString("Reply with exactly this JSON shape:\n")
	b.WriteString(`{"action": "click", "target": "...", "use_text_locator": false, "rationale": "..."}`)
	b.WriteString("\n\nPage HTML:\n")
	b.WriteString(excerpt)
	return b.String()
}

// cacheKey picks the cache identity for the model call. Popup-context steps
// key on what actually distinguishes them (dialog visibility, the control
// being targeted, and the dialog's normalized structure) so the same dialog
// reuses one resolution even when surrounding page markup differs between
// runs. Everything else keys on the full prompt.
func (r *Resolver) cacheKey(step schemas.Step, prompt string, pctx PopupContext) string {
	if !pctx.Active {
		return "" // caching client derives model+prompt key
	}
	composite := fmt.Sprintf("popup|visible=%t|keyword=%s|structure=%s",
		pctx.ModalVisible, controlKeyword(step.Text), pctx.StructureKey)
	sum := sha256.Sum256([]byte(r.client.ModelName() + ":" + composite))
	return hex.EncodeToString(sum[:])
}

// controlKeyword extracts what the step is aiming at inside the dialog: the
// first quoted phrase, else the first known dialog control word.
func controlKeyword(stepText string) string {
	if text := extractQuoted(stepText); text != "" {
		return strings.ToLower(text)
	}
	lower := strings.ToLower(stepText)
	for _, word := range []string{"cancel", "close", "continue", "confirm", "ok", "dismiss"} {
		if strings.Contains(lower, word) {
			return word
		}
	}
	return ""
}

func extractQuoted(s string) string {
	if m := quotedText.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func noAction(note string) schemas.ResolvedAction {
	return schemas.ResolvedAction{Kind: schemas.ActionNone, Rationale: note}
}

// internal/steps/classifier.go
package steps

import (
	"strings"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

// Keywords is the classification policy. The lists are heuristic and will
// misread some phrasings; they are kept as data rather than scattered
// literals so a deployment can tune them.
type Keywords struct {
	// PopupRelated flags any step that mentions a popup or one of the usual
	// dialog buttons.
	PopupRelated []string
	// PopupControl is the stricter subset used to decide a pre-emptive skip
	// when no dialog is open.
	PopupControl []string
	// ObservationPhrases mark steps that only verify state. A step matching
	// one is still actionable if it also contains an ActionVerb ("Click
	// Cancel when the popup appears").
	ObservationPhrases []string
	// ActionVerbs guard observation matching.
	ActionVerbs []string
}

// DefaultKeywords returns the stock classification policy.
func DefaultKeywords() Keywords {
	return Keywords{
		PopupRelated: []string{
			"popup", "modal", "dialog", "cancel", "close", "continue", "confirm", "ok",
		},
		PopupControl: []string{
			"cancel", "close", "continue", "confirm", "ok", "dismiss",
		},
		ObservationPhrases: []string{
			"popup appears", "modal appears", "dialog appears",
			"popup closes", "modal closes", "dialog closes",
			"popup is visible", "modal is visible", "dialog is visible",
			"verify popup", "check popup", "popup should",
		},
		ActionVerbs: []string{"click", "press", "tap", "select"},
	}
}

// Classifier categorizes steps from keyword heuristics alone. Classification
// is deliberately cheap and deterministic: it gates whether the rate-limited
// model call and the DOM interrogation happen at all.
type Classifier struct {
	kw Keywords
}

// NewClassifier builds a classifier with the given policy.
func NewClassifier(kw Keywords) *Classifier {
	return &Classifier{kw: kw}
}

// Classify is a pure function from step text to its classification.
func (c *Classifier) Classify(stepText string) schemas.StepClassification {
	text := strings.ToLower(stepText)

	return schemas.StepClassification{
		IsObservation:  c.isObservation(text),
		IsPopupRelated: containsAny(text, c.kw.PopupRelated),
		IsPopupControl: containsAny(text, c.kw.PopupControl),
	}
}

func (c *Classifier) isObservation(text string) bool {
	if !containsAny(text, c.kw.ObservationPhrases) {
		return false
	}
	// An action verb wins: "Click Cancel when the popup appears" is an
	// action, not an observation.
	return !containsAny(text, c.kw.ActionVerbs)
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

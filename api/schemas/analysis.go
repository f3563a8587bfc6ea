// api/schemas/analysis.go
package schemas

// Candidate is an element the analysis model flags as worth exercising.
type Candidate struct {
	Selector    string `json:"selector"`
	Description string `json:"description"`
}

// PlannedAction is one entry of a model-proposed action plan for autonomous
// page exploration.
type PlannedAction struct {
	Action      ActionKind `json:"action"`
	Selector    string     `json:"selector"`
	Description string     `json:"description"`
}

// PageAnalysis is the model's structural read of a page: which elements likely
// reveal content on hover, which likely open popups, and a plan to exercise
// them.
type PageAnalysis struct {
	HoverCandidates []Candidate     `json:"hover_candidates"`
	PopupCandidates []Candidate     `json:"popup_candidates"`
	ActionPlan      []PlannedAction `json:"action_plan"`
}

// Interpretation is the model's reading of what actually happened during a run.
// Free-form JSON from the model is preserved as-is for the Gherkin stage.
type Interpretation struct {
	HoverInteractions []map[string]any `json:"hover_interactions"`
	PopupInteractions []map[string]any `json:"popup_interactions"`
	NavigationChanges []map[string]any `json:"navigation_changes"`
	Failures          []map[string]any `json:"failures"`
	OverallSummary    string           `json:"overall_summary"`
}

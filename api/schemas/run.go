// api/schemas/run.go
package schemas

// ActionKind is the closed set of browser actions the engine knows how to perform.
// The resolver decides the kind exactly once; the executor switches over it
// exhaustively. There is no "unknown action" fallthrough.
type ActionKind string

const (
	ActionClick ActionKind = "click"
	ActionHover ActionKind = "hover"
	ActionNone  ActionKind = "none"
)

// Step is a single parsed instruction. Steps are immutable and consumed exactly
// once per run, in order.
type Step struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
}

// StepClassification is derived fresh from the step text on every step and is
// never persisted.
type StepClassification struct {
	IsObservation  bool
	IsPopupRelated bool
	IsPopupControl bool
}

// ResolvedAction is the resolver's verdict for one step.
//
// Invariant: when UseTextLocator is true, Target is plain visible text and never
// selector syntax; when false, Target is a syntactically valid structural
// selector with no pseudo text-matching syntax.
type ResolvedAction struct {
	Kind           ActionKind `json:"action"`
	Target         string     `json:"target"`
	UseTextLocator bool       `json:"use_text_locator"`
	Rationale      string     `json:"rationale,omitempty"`
}

// ActionOutcome records what happened to one step. One is appended to the run's
// outcome sequence per executed step and never mutated afterwards.
type ActionOutcome struct {
	Step    Step       `json:"step"`
	Kind    ActionKind `json:"action"`
	Target  string     `json:"target,omitempty"`
	Success bool       `json:"success"`
	Note    string     `json:"note,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// RunResult aggregates one orchestration run over one URL and one instruction
// block. It is mutated only by appending outcomes and errors while the run is
// live, and is read-only once the run ends.
//
// Callers may rely on exactly three things: outcomes are in step order, Errors
// may be non-empty even when some steps succeeded, and a halted run's
// StepsExecuted is a strict prefix of all parsed steps.
type RunResult struct {
	RunID         string          `json:"run_id"`
	URL           string          `json:"url"`
	StepsExecuted []ActionOutcome `json:"steps_executed"`
	FinalLocation string          `json:"final_location"`
	Errors        []string        `json:"errors"`
}

// Succeeded reports whether every executed step succeeded and no run-level
// errors were recorded.
func (r *RunResult) Succeeded() bool {
	if len(r.Errors) > 0 {
		return false
	}
	for _, o := range r.StepsExecuted {
		if !o.Success {
			return false
		}
	}
	return true
}

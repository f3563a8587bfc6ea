// internal/engine/orchestrator.go
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/steps"
)

// Runner drives one browser session through a parsed instruction sequence.
// Failure handling is two-tier: a step whose strategies are exhausted is
// recorded as failed and the run continues, while an exception during a step
// halts the run at that step. A *RunResult always comes back, partial or not,
// and the session is closed no matter how the run ends.
type Runner struct {
	sessions   SessionFactory
	classifier *steps.Classifier
	resolver   *Resolver
	popups     *Tracker
	timing     Timing
	log        *zap.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(sessions SessionFactory, classifier *steps.Classifier, resolver *Resolver, popups *Tracker, timing Timing, logger *zap.Logger) *Runner {
	return &Runner{
		sessions:   sessions,
		classifier: classifier,
		resolver:   resolver,
		popups:     popups,
		timing:     timing,
		log:        logger.Named("runner"),
	}
}

// WithSessions returns a runner that opens pages through sessions instead of
// the wired factory, for per-request browser overrides. The receiver is
// unchanged.
func (r *Runner) WithSessions(sessions SessionFactory) *Runner {
	derived := *r
	derived.sessions = sessions
	return &derived
}

// Run executes the instruction block against url and reports what happened.
// Never returns nil.
func (r *Runner) Run(ctx context.Context, url, instructions string) *schemas.RunResult {
	result := &schemas.RunResult{
		RunID:         uuid.NewString(),
		URL:           url,
		StepsExecuted: []schemas.ActionOutcome{},
		Errors:        []string{},
	}
	log := r.log.With(zap.String("run_id", result.RunID), zap.String("url", url))

	parsed := steps.Parse(instructions)
	if len(parsed) == 0 {
		log.Info("No actionable steps parsed; nothing to run.")
		return result
	}
	log.Info("Starting run.", zap.Int("steps", len(parsed)))

	page, err := r.sessions.NewPage(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Fatal error: failed to open browser session: %v", err))
		return result
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("Run panicked.", zap.Any("panic", rec))
			result.Errors = append(result.Errors, fmt.Sprintf("Fatal error: %v", rec))
		}
		if loc, lerr := page.Location(ctx); lerr == nil {
			result.FinalLocation = loc
		}
		if cerr := page.Close(ctx); cerr != nil {
			log.Warn("Failed to close browser session.", zap.Error(cerr))
		}
	}()

	if err := page.Navigate(ctx, url); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Fatal error: failed to open %s: %v", url, err))
		return result
	}

	executor := NewExecutor(page, r.popups, r.timing, r.log)

	for _, step := range parsed {
		outcome, halt := r.runStep(ctx, page, executor, step, log)
		result.StepsExecuted = append(result.StepsExecuted, outcome)
		if halt != "" {
			result.Errors = append(result.Errors,
				fmt.Sprintf("STOPPED at step %d: %s", step.Index, halt))
			log.Error("Run halted.", zap.Int("step", step.Index), zap.String("reason", halt))
			break
		}
	}

	log.Info("Run finished.",
		zap.Int("executed", len(result.StepsExecuted)),
		zap.Bool("succeeded", result.Succeeded()))
	return result
}

// runStep executes one step. A non-empty halt reason means the run must stop
// after recording the returned outcome.
func (r *Runner) runStep(ctx context.Context, page Page, executor *Executor, step schemas.Step, log *zap.Logger) (outcome schemas.ActionOutcome, halt string) {
	outcome = schemas.ActionOutcome{Step: step, Kind: schemas.ActionNone}
	cls := r.classifier.Classify(step.Text)

	if cls.IsObservation {
		log.Debug("Observation step; no browser action.", zap.Int("step", step.Index))
		outcome.Success = true
		outcome.Note = "observation step, no action performed"
		return outcome, ""
	}

	// A dialog-dismissal step with no dialog on screen means an earlier
	// action already closed it (or it never opened); clicking would hit
	// whatever sits underneath.
	if cls.IsPopupControl && !r.popups.IsVisible(ctx, page) {
		log.Debug("Popup control step skipped; no dialog open.", zap.Int("step", step.Index))
		outcome.Success = true
		outcome.Note = "skipped: no dialog open, likely already dismissed"
		return outcome, ""
	}

	markup, pctx, err := r.captureContext(ctx, page, cls)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err.Error()
	}

	action := r.resolver.Resolve(ctx, step, markup, pctx)
	outcome.Kind = action.Kind
	outcome.Target = action.Target

	if action.Kind == schemas.ActionNone {
		outcome.Success = true
		outcome.Note = action.Rationale
		if outcome.Note == "" {
			outcome.Note = "no browser action required"
		}
		return outcome, ""
	}

	var ok bool
	switch action.Kind {
	case schemas.ActionClick:
		ok, err = executor.Click(ctx, action, pctx.Active)
	case schemas.ActionHover:
		ok, err = executor.Hover(ctx, action)
	}
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err.Error()
	}

	outcome.Success = ok
	if !ok {
		outcome.Note = "every action strategy failed"
	} else if action.UseTextLocator {
		outcome.Note = "matched by visible text"
	}
	return outcome, ""
}

// captureContext picks the markup the resolver sees: the open dialog's cached
// markup for popup-related steps, the full page otherwise or when no dialog
// is extractable.
func (r *Runner) captureContext(ctx context.Context, page Page, cls schemas.StepClassification) (string, PopupContext, error) {
	pctx := PopupContext{Active: cls.IsPopupRelated}

	if cls.IsPopupRelated {
		if markup, key := r.popups.CachedMarkup(ctx, page); markup != "" {
			pctx.ModalVisible = true
			pctx.StructureKey = key
			pctx.ScopedMarkup = true
			return markup, pctx, nil
		}
	}

	markup, err := page.Markup(ctx)
	if err != nil {
		return "", pctx, fmt.Errorf("failed to capture page markup: %w", err)
	}
	return markup, pctx, nil
}

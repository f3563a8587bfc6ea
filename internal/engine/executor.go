// internal/engine/executor.go
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/api/schemas"
	"github.com/dkoval87/gherkinforge/internal/config"
)

// Timing bundles the post-action wait knobs.
type Timing struct {
	NetworkIdleWait time.Duration
	SettleDelay     time.Duration
	ModalHiddenWait time.Duration
}

// TimingFromConfig lifts the network section of the configuration.
func TimingFromConfig(cfg config.NetworkConfig) Timing {
	return Timing{
		NetworkIdleWait: cfg.NetworkIdleWait,
		SettleDelay:     cfg.SettleDelay,
		ModalHiddenWait: cfg.ModalHiddenWait,
	}
}

// clickStrategy is one rung of the click fallback ladder. Ordering is
// strongest-signal first: a standard click on a visible element proves the
// most about the page, a dispatched synthetic event proves the least but
// lands on elements that are covered, detached from layout, or hidden.
type clickStrategy struct {
	mech         ClickMechanism
	needsVisible bool
	wait         time.Duration
}

var clickLadder = []clickStrategy{
	{MechStandard, true, 10 * time.Second},
	{MechForced, true, 5 * time.Second},
	{MechScript, false, 3 * time.Second},
	{MechDispatch, false, 3 * time.Second},
}

// Executor performs resolved actions against one page. Strategy failures are
// absorbed by the fallback ladder; only session-level failures surface as
// errors, and those halt the run upstream.
type Executor struct {
	page   Page
	popups *Tracker
	timing Timing
	log    *zap.Logger
}

// NewExecutor binds an executor to the run's page.
func NewExecutor(page Page, popups *Tracker, timing Timing, logger *zap.Logger) *Executor {
	return &Executor{
		page:   page,
		popups: popups,
		timing: timing,
		log:    logger.Named("executor"),
	}
}

// Click walks the fallback ladder until one strategy lands. The target is
// re-resolved before every attempt: a failed attempt may itself have churned
// the DOM. Returns (false, nil) when every strategy was exhausted, which the
// caller records as a failed step without halting the run.
func (e *Executor) Click(ctx context.Context, action schemas.ResolvedAction, popupCtx bool) (bool, error) {
	// Resolved actions normally arrive sanitized, but a cached resolution from
	// an older build may still carry text-matching pseudo-selector syntax.
	if !action.UseTextLocator && pseudoTextSyntax.MatchString(action.Target) {
		if text := extractQuoted(action.Target); text != "" {
			action.Target = text
			action.UseTextLocator = true
		}
	}

	scope := ""
	if popupCtx {
		if sel, ok := e.popups.VisibleSelector(ctx, e.page); ok {
			scope = sel
		}
	}

	for _, strat := range clickLadder {
		ok, err := e.tryClick(ctx, action, scope, strat)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		e.log.Debug("Click landed.",
			zap.String("target", action.Target),
			zap.String("mechanism", strat.mech.String()))
		e.settle(ctx, popupCtx)
		return true, nil
	}

	e.log.Warn("All click strategies exhausted.", zap.String("target", action.Target))
	return false, nil
}

func (e *Executor) tryClick(ctx context.Context, action schemas.ResolvedAction, scope string, strat clickStrategy) (bool, error) {
	sel, err := e.page.ResolveTarget(ctx, action.Target, action.UseTextLocator, scope)
	if err != nil {
		return false, e.nonFatal(ctx, err, "target resolution", strat.mech)
	}

	if err := e.page.WaitReady(ctx, sel, strat.wait); err != nil {
		return false, e.nonFatal(ctx, err, "attachment wait", strat.mech)
	}
	if strat.needsVisible {
		if err := e.page.WaitVisible(ctx, sel, strat.wait); err != nil {
			return false, e.nonFatal(ctx, err, "visibility wait", strat.mech)
		}
		if err := e.page.ScrollIntoView(ctx, sel); err != nil {
			return false, e.nonFatal(ctx, err, "scroll", strat.mech)
		}
	}

	if err := e.page.Click(ctx, sel, strat.mech); err != nil {
		return false, e.nonFatal(ctx, err, "click", strat.mech)
	}
	return true, nil
}

// Hover moves the pointer over the target. A single strategy suffices: a
// hover on an invisible element is meaningless, so there is no forcing ladder.
func (e *Executor) Hover(ctx context.Context, action schemas.ResolvedAction) (bool, error) {
	sel, err := e.page.ResolveTarget(ctx, action.Target, action.UseTextLocator, "")
	if err != nil {
		if ferr := e.nonFatal(ctx, err, "target resolution", MechStandard); ferr != nil {
			return false, ferr
		}
		return false, nil
	}
	if err := e.page.WaitVisible(ctx, sel, 5*time.Second); err != nil {
		if ferr := e.nonFatal(ctx, err, "visibility wait", MechStandard); ferr != nil {
			return false, ferr
		}
		return false, nil
	}
	if err := e.page.ScrollIntoView(ctx, sel); err != nil {
		e.log.Debug("Scroll before hover failed.", zap.Error(err))
	}
	// Let any scroll-triggered animation finish before the pointer moves.
	pause(ctx, e.timing.SettleDelay)
	if err := e.page.Hover(ctx, sel); err != nil {
		if ferr := e.nonFatal(ctx, err, "hover", MechStandard); ferr != nil {
			return false, ferr
		}
		return false, nil
	}

	e.settle(ctx, false)
	return true, nil
}

// settle lets the page absorb the action: wait for the network to quiet,
// pause for animations, and for popup steps wait for dismissed dialogs to
// actually leave the screen. All best effort.
func (e *Executor) settle(ctx context.Context, popupCtx bool) {
	if err := e.page.WaitNetworkIdle(ctx, e.timing.NetworkIdleWait); err != nil {
		e.log.Debug("Network did not go idle after action.", zap.Error(err))
	}
	pause(ctx, e.timing.SettleDelay)
	if popupCtx {
		e.popups.WaitDismissed(ctx, e.page, e.timing.ModalHiddenWait)
	}
}

// nonFatal logs a strategy-level failure and returns nil, unless the error
// means the session itself is gone, in which case it is returned for the
// orchestrator to halt on.
func (e *Executor) nonFatal(ctx context.Context, err error, phase string, mech ClickMechanism) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, ErrSessionLost) {
		return err
	}
	e.log.Debug("Strategy attempt failed.",
		zap.String("phase", phase),
		zap.String("mechanism", mech.String()),
		zap.Error(err))
	return nil
}

func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

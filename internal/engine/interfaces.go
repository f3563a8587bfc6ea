// internal/engine/interfaces.go
package engine

import (
	"context"
	"errors"
	"time"
)

// ClickMechanism selects how a click is delivered to the resolved element.
type ClickMechanism int

const (
	// MechStandard is a regular click that requires the element to be visible.
	MechStandard ClickMechanism = iota
	// MechForced delivers raw mouse events at the element's coordinates,
	// ignoring pointer-event interception but still requiring visibility.
	MechForced
	// MechScript invokes the element's click() method, bypassing visibility.
	MechScript
	// MechDispatch dispatches a synthetic MouseEvent, bypassing visibility.
	MechDispatch
)

func (m ClickMechanism) String() string {
	switch m {
	case MechStandard:
		return "standard"
	case MechForced:
		return "forced"
	case MechScript:
		return "script"
	case MechDispatch:
		return "dispatch"
	}
	return "unknown"
}

// ErrSessionLost marks browser failures the run cannot recover from: the tab
// crashed, the browser process died, or the session context was torn down.
// Strategy-level failures never carry it; the orchestrator halts on it.
var ErrSessionLost = errors.New("browser session lost")

// Page is the browser surface the engine drives. One Page spans one whole
// instruction sequence so later steps observe DOM state left by earlier ones.
// The production implementation lives in internal/browser; tests use fakes.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)

	// Markup returns the serialized markup of the whole page.
	Markup(ctx context.Context) (string, error)
	// InnerHTML returns the inner markup of the first element matching the
	// selector.
	InnerHTML(ctx context.Context, selector string) (string, error)
	// IsVisible reports whether at least one element matching the selector is
	// currently visible.
	IsVisible(ctx context.Context, selector string) (bool, error)

	// ResolveTarget locates the element a step should act on and returns a
	// selector that uniquely addresses it for the duration of the attempt.
	// When useText is true the target is matched against rendered text,
	// scoped to scopeSelector when non-empty, page-wide otherwise; when false
	// the target is a structural selector. Among multiple matches the first
	// visible one wins, falling back to the first match.
	ResolveTarget(ctx context.Context, target string, useText bool, scopeSelector string) (string, error)

	// WaitReady waits for the element to be attached to the DOM.
	WaitReady(ctx context.Context, selector string, timeout time.Duration) error
	// WaitVisible waits for the element to become visible.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// WaitHidden waits for every match of selector to be hidden or detached.
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, selector string) error

	Click(ctx context.Context, selector string, mech ClickMechanism) error
	Hover(ctx context.Context, selector string) error

	// WaitNetworkIdle blocks until no requests have been in flight for the
	// quiet period, or the deadline passes. Expiry is not an error condition
	// for callers; they treat it as best effort.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error

	Close(ctx context.Context) error
}

// SessionFactory opens fresh browser pages. The orchestrator owns the
// returned Page exclusively for the run's duration.
type SessionFactory interface {
	NewPage(ctx context.Context) (Page, error)
}

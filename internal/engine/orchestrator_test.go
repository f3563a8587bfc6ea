// internal/engine/orchestrator_test.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

const clickSubmitReply = `{"action": "click", "target": "#submit", "use_text_locator": false}`

func TestRunWithNoActionableSteps(t *testing.T) {
	// A session-factory error would surface if a browser were opened; an
	// empty script must not open one.
	runner := newTestRunner(&fakeSessions{err: errors.New("must not be called")}, &fakeModel{})

	result := runner.Run(context.Background(), "https://example.test", "\n----\n42)\n")

	require.NotNil(t, result)
	assert.Empty(t, result.StepsExecuted)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.RunID)
}

func TestRunSessionOpenFailureIsFatal(t *testing.T) {
	runner := newTestRunner(&fakeSessions{err: errors.New("chrome not found")}, &fakeModel{})

	result := runner.Run(context.Background(), "https://example.test", "Click the Submit button")

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Fatal error:")
	assert.Empty(t, result.StepsExecuted)
}

func TestWithSessionsRoutesRunThroughOverride(t *testing.T) {
	// The shared factory would fail the run; only the derived runner may be
	// affected by the override.
	base := newTestRunner(&fakeSessions{err: errors.New("shared factory must not serve this run")},
		&fakeModel{replies: []string{clickSubmitReply}})
	page := &fakePage{location: "https://example.test/"}

	result := base.WithSessions(&fakeSessions{page: page}).Run(
		context.Background(), "https://example.test", "Click the Submit button")

	require.Len(t, result.StepsExecuted, 1)
	assert.True(t, result.StepsExecuted[0].Success)
	assert.Empty(t, result.Errors)
	assert.True(t, page.closed)

	fallback := base.Run(context.Background(), "https://example.test", "Click the Submit button")
	require.Len(t, fallback.Errors, 1)
	assert.Contains(t, fallback.Errors[0], "shared factory", "the base runner still uses its own factory")
}

func TestRunObservationStepSkipsModelAndBrowserAction(t *testing.T) {
	page := &fakePage{location: "https://example.test/"}
	model := &fakeModel{}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test", "Check that the popup appears")

	require.Len(t, result.StepsExecuted, 1)
	outcome := result.StepsExecuted[0]
	assert.True(t, outcome.Success)
	assert.Equal(t, schemas.ActionNone, outcome.Kind)
	assert.Zero(t, model.callCount(), "observation steps must not reach the model")
	assert.Empty(t, page.clicks)
	assert.True(t, page.closed)
}

func TestRunPopupControlStepSkippedWhenNoDialogOpen(t *testing.T) {
	page := &fakePage{}
	model := &fakeModel{}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test", "Click the Cancel button")

	require.Len(t, result.StepsExecuted, 1)
	outcome := result.StepsExecuted[0]
	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Note, "skipped")
	assert.Zero(t, model.callCount(), "a pre-emptive skip must cost no model call")
	assert.Empty(t, page.clicks)
}

func TestRunPopupStepResolvesAgainstDialogMarkup(t *testing.T) {
	page := &fakePage{
		visible: map[string]bool{"[role='dialog']": true},
		inner:   map[string]string{"[role='dialog']": `<button>Cancel</button><button>OK</button>`},
	}
	model := &fakeModel{replies: []string{
		`{"action": "click", "target": "Cancel", "use_text_locator": true}`,
	}}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test", "Click the Cancel button in the popup")

	require.Len(t, result.StepsExecuted, 1)
	assert.True(t, result.StepsExecuted[0].Success)

	require.Equal(t, 1, model.callCount())
	req := model.requests[0]
	assert.Contains(t, req.UserPrompt, "dialog content only")
	assert.NotEmpty(t, req.CacheKey, "popup resolutions must use the composite cache key")

	require.NotEmpty(t, page.resolveScopes)
	assert.Equal(t, "[role='dialog']", page.resolveScopes[0])
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	page := &fakePage{location: "https://example.test/done"}
	model := &fakeModel{replies: []string{
		clickSubmitReply,
		`{"action": "hover", "target": ".info-icon", "use_text_locator": false}`,
	}}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test",
		"1. Click the Submit button\n2. Hover over the info icon")

	require.Len(t, result.StepsExecuted, 2)
	assert.Equal(t, "Click the Submit button", result.StepsExecuted[0].Step.Text)
	assert.Equal(t, schemas.ActionClick, result.StepsExecuted[0].Kind)
	assert.Equal(t, "Hover over the info icon", result.StepsExecuted[1].Step.Text)
	assert.Equal(t, schemas.ActionHover, result.StepsExecuted[1].Kind)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "https://example.test/done", result.FinalLocation)
	assert.Equal(t, []string{"https://example.test"}, page.navigations)
	assert.True(t, page.closed)
}

func TestRunStrategyExhaustionFailsStepButContinues(t *testing.T) {
	page := &fakePage{
		clickFn: func(string, ClickMechanism) error { return errors.New("unclickable") },
	}
	model := &fakeModel{replies: []string{clickSubmitReply, clickSubmitReply}}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test",
		"Click the Submit button\nClick the Search input")

	require.Len(t, result.StepsExecuted, 2, "an exhausted step must not halt the run")
	assert.False(t, result.StepsExecuted[0].Success)
	assert.False(t, result.Succeeded())
	assert.Empty(t, result.Errors, "exhaustion is a step failure, not a run error")
}

func TestRunHaltsOnSessionLoss(t *testing.T) {
	var clicks atomic.Int32
	page := &fakePage{
		location: "https://example.test/partial",
		clickFn: func(string, ClickMechanism) error {
			if clicks.Add(1) == 1 {
				return nil
			}
			return fmt.Errorf("%w: browser process exited", ErrSessionLost)
		},
	}
	model := &fakeModel{replies: []string{clickSubmitReply, clickSubmitReply, clickSubmitReply}}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test",
		"1. Click the Submit button\n2. Click the Search input\n3. Click the menu icon")

	require.Len(t, result.StepsExecuted, 2, "the halting step is recorded, later steps are not attempted")
	assert.True(t, result.StepsExecuted[0].Success)
	assert.False(t, result.StepsExecuted[1].Success)
	assert.NotEmpty(t, result.StepsExecuted[1].Error)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "STOPPED at step 2:")

	assert.Equal(t, 2, model.callCount(), "step 3 must never be resolved")
	assert.True(t, page.closed, "the session is closed even on a halted run")
	assert.Equal(t, "https://example.test/partial", result.FinalLocation)
}

// TestRunModalLifecycle walks the canonical open-observe-dismiss-observe
// sequence against a page whose dialog opens on the first click and closes on
// the Cancel click.
func TestRunModalLifecycle(t *testing.T) {
	page := &fakePage{
		visible: map[string]bool{},
		inner:   map[string]string{".modal": `<button>Cancel</button><button>Continue</button>`},
	}
	page.clickFn = func(selector string, _ ClickMechanism) error {
		page.mu.Lock()
		defer page.mu.Unlock()
		// First click opens the dialog, the next closes it.
		page.visible[".modal"] = !page.visible[".modal"]
		return nil
	}
	model := &fakeModel{replies: []string{
		`{"action": "click", "target": "a.learn-more", "use_text_locator": false}`,
		`{"action": "click", "target": "Cancel", "use_text_locator": true}`,
	}}
	runner := newTestRunner(&fakeSessions{page: page}, model)

	result := runner.Run(context.Background(), "https://example.test",
		"1. Click Learn More\n2. Verify a popup appears\n3. Click Cancel\n4. Verify popup closes")

	require.Len(t, result.StepsExecuted, 4)
	assert.True(t, result.StepsExecuted[0].Success)
	assert.Equal(t, schemas.ActionClick, result.StepsExecuted[0].Kind)
	assert.True(t, result.StepsExecuted[1].Success)
	assert.Equal(t, schemas.ActionNone, result.StepsExecuted[1].Kind)
	assert.True(t, result.StepsExecuted[2].Success)
	assert.Equal(t, schemas.ActionClick, result.StepsExecuted[2].Kind)
	assert.True(t, result.StepsExecuted[3].Success)
	assert.Equal(t, schemas.ActionNone, result.StepsExecuted[3].Kind)
	assert.Empty(t, result.Errors)
	assert.True(t, result.Succeeded())
	assert.Equal(t, 2, model.callCount(), "only the two click steps consult the model")
}

func TestRunMarkupFailureHaltsWithStepNumber(t *testing.T) {
	page := &fakePage{markupErr: fmt.Errorf("%w: tab gone", ErrSessionLost)}
	runner := newTestRunner(&fakeSessions{page: page}, &fakeModel{})

	result := runner.Run(context.Background(), "https://example.test", "Click the Submit button")

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "STOPPED at step 1:")
	require.Len(t, result.StepsExecuted, 1)
	assert.False(t, result.StepsExecuted[0].Success)
	assert.True(t, page.closed)
}

// internal/service/service_test.go
package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoval87/gherkinforge/api/schemas"
)

func TestPlanToScript(t *testing.T) {
	plan := []schemas.PlannedAction{
		{Action: schemas.ActionHover, Selector: ".menu", Description: "the navigation menu"},
		{Action: schemas.ActionClick, Selector: "#delete", Description: "the delete button"},
		{Action: schemas.ActionNone, Selector: "", Description: "nothing"},
		{Action: schemas.ActionClick, Selector: "#bare"},
	}

	script := planToScript(plan)

	assert.Equal(t,
		"1. Hover over the navigation menu\n2. Click the delete button\n3. Click #bare",
		script)
}

func TestPlanToScriptEmptyPlan(t *testing.T) {
	assert.Empty(t, planToScript(nil))
}

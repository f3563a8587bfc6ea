// internal/engine/popup_test.go
package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/cache"
)

func TestNormalizeIsOrderIndependent(t *testing.T) {
	a := `<div class="modal-body" id="m-1234">
		<p>Session expires in 09:41</p>
		<button type="button" class="btn-ok">Continue</button>
		<button type="button" class="btn-cancel">Cancel</button>
	</div>`
	b := `<div class="modal-body" id="m-9876">
		<p>Session expires in 02:07</p>
		<button class="btn-cancel" type="button">Cancel</button>
		<button class="btn-ok" type="button">Continue</button>
	</div>`

	assert.Equal(t, Normalize(a), Normalize(b),
		"same controls must yield the same key regardless of order and dynamic text")
}

func TestNormalizeDistinguishesDifferentControls(t *testing.T) {
	confirm := `<div><button>Cancel</button><button>Continue</button></div>`
	alert := `<div><button>Cancel</button><button>Delete forever</button></div>`

	assert.NotEqual(t, Normalize(confirm), Normalize(alert))
}

func TestNormalizeUsesInputValues(t *testing.T) {
	key := Normalize(`<form><input type="submit" value="Save changes"></form>`)
	assert.Contains(t, key, "Save changes")
	assert.Contains(t, key, "type=submit")
}

func TestNormalizeFallsBackToDegenerateKey(t *testing.T) {
	markup := `<div><p>just text, nothing interactive</p></div>`

	key := Normalize(markup)
	assert.Regexp(t, `^\d+:[0-9a-f]+$`, key)
	assert.Equal(t, key, Normalize(markup), "degenerate key must be deterministic")
	assert.NotEqual(t, key, Normalize(`<div><p>different text entirely here</p></div>`))
}

func TestTrackerVisibleSelectorHonorsPriority(t *testing.T) {
	page := &fakePage{visible: map[string]bool{
		".modal":         true,
		"[role='dialog']": true,
	}}

	sel, ok := newTestTracker().VisibleSelector(context.Background(), page)
	require.True(t, ok)
	assert.Equal(t, "[role='dialog']", sel, "semantic markers outrank class matches")
}

func TestTrackerNoDialog(t *testing.T) {
	page := &fakePage{}
	tracker := newTestTracker()

	assert.False(t, tracker.IsVisible(context.Background(), page))
	assert.Empty(t, tracker.ExtractMarkup(context.Background(), page))

	markup, key := tracker.CachedMarkup(context.Background(), page)
	assert.Empty(t, markup)
	assert.Empty(t, key)
}

func TestTrackerCachedMarkupReplaysFirstExtraction(t *testing.T) {
	store, err := cache.NewSQLite(t.TempDir()+"/cache.db", time.Hour, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tracker := NewTracker(store, zap.NewNop())
	first := &fakePage{
		visible: map[string]bool{".modal": true},
		inner:   map[string]string{".modal": `<p>id 111</p><button>Cancel</button><button>OK</button>`},
	}
	second := &fakePage{
		visible: map[string]bool{".modal": true},
		inner:   map[string]string{".modal": `<p>id 222</p><button>OK</button><button>Cancel</button>`},
	}

	markup1, key1 := tracker.CachedMarkup(context.Background(), first)
	markup2, key2 := tracker.CachedMarkup(context.Background(), second)

	assert.Equal(t, key1, key2)
	assert.Equal(t, markup1, markup2, "structurally equal dialogs replay the cached markup")
	assert.Contains(t, markup2, "id 111")
}

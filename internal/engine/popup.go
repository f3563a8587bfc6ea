// internal/engine/popup.go
package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/cache"
)

// modalSelectors is the probe list for open dialogs, in priority order:
// semantic ARIA markers first, then the common framework classes, then loose
// substring matches. Extraction uses the first selector with a visible match.
var modalSelectors = []string{
	"[role='dialog']",
	"[aria-modal='true']",
	".modal.show",
	".modal-dialog",
	".modal",
	".popup",
	"[class*='modal']",
	"[class*='popup']",
}

// Tracker probes the live page for open dialogs and maintains the
// structure-keyed popup markup cache. It holds no page state of its own; the
// page is passed per call so one tracker serves any number of runs.
type Tracker struct {
	store cache.Cache
	log   *zap.Logger
}

// NewTracker builds a tracker backed by store.
func NewTracker(store cache.Cache, logger *zap.Logger) *Tracker {
	return &Tracker{store: store, log: logger.Named("popup")}
}

// IsVisible reports whether any known dialog pattern currently has a visible
// match. Probe errors count as "not visible"; a dead page must not make a
// skip decision throw.
func (t *Tracker) IsVisible(ctx context.Context, page Page) bool {
	_, ok := t.VisibleSelector(ctx, page)
	return ok
}

// VisibleSelector returns the highest-priority modal selector with a visible
// match, if any.
func (t *Tracker) VisibleSelector(ctx context.Context, page Page) (string, bool) {
	for _, sel := range modalSelectors {
		visible, err := page.IsVisible(ctx, sel)
		if err != nil {
			t.log.Debug("Modal visibility probe failed.",
				zap.String("selector", sel), zap.Error(err))
			continue
		}
		if visible {
			return sel, true
		}
	}
	return "", false
}

// ExtractMarkup returns the markup of the currently visible dialog, or ""
// when no dialog is open or extraction fails.
func (t *Tracker) ExtractMarkup(ctx context.Context, page Page) string {
	sel, ok := t.VisibleSelector(ctx, page)
	if !ok {
		return ""
	}
	markup, err := page.InnerHTML(ctx, sel)
	if err != nil {
		t.log.Debug("Modal markup extraction failed.",
			zap.String("selector", sel), zap.Error(err))
		return ""
	}
	return markup
}

// CachedMarkup extracts the open dialog's markup and runs it through the
// structure-keyed cache: a hit replaces the extract with the cached copy so
// dialogs that only differ in dynamic noise (timestamps, ids) resolve
// identically. Returns the markup and its structure key, or "" for both when
// no dialog is open.
func (t *Tracker) CachedMarkup(ctx context.Context, page Page) (markup, key string) {
	extracted := t.ExtractMarkup(ctx, page)
	if extracted == "" {
		return "", ""
	}

	key = Normalize(extracted)
	if cached, ok := t.store.GetPopupMarkup(ctx, key); ok {
		t.log.Debug("Popup markup cache hit.", zap.String("key", key))
		return cached, key
	}
	t.store.SetPopupMarkup(ctx, key, extracted)
	return extracted, key
}

// WaitDismissed waits for every dialog pattern to clear, timeout split across
// the patterns that are still visible. Best effort: expiry only means the
// dialog lingered, which the caller tolerates.
func (t *Tracker) WaitDismissed(ctx context.Context, page Page, timeout time.Duration) {
	per := timeout / time.Duration(len(modalSelectors))
	if per <= 0 {
		per = timeout
	}
	for _, sel := range modalSelectors {
		visible, err := page.IsVisible(ctx, sel)
		if err != nil || !visible {
			continue
		}
		if err := page.WaitHidden(ctx, sel, per); err != nil {
			t.log.Debug("Dialog still visible after dismissal wait.",
				zap.String("selector", sel), zap.Error(err))
		}
	}
}

// Normalize reduces popup markup to an order-independent structural key: the
// tag, text, and type/role of each interactive element, sorted by text and
// joined into one canonical string. Two dialogs with the same controls map to
// the same key regardless of attribute order or cosmetic wrapper churn.
//
// When the markup cannot be reduced (unparseable, or nothing interactive in
// it) the key degrades to length plus a hash of the leading bytes, which
// still only collides for near-identical markup.
func Normalize(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return degenerateKey(markup)
	}

	var entries []string
	doc.Find("button, a, input, [role='button']").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			text = strings.TrimSpace(s.AttrOr("value", ""))
		}
		if text == "" {
			return
		}
		entry := goquery.NodeName(s) + "|" + text
		if typ := s.AttrOr("type", ""); typ != "" {
			entry += "|type=" + typ
		}
		if role := s.AttrOr("role", ""); role != "" {
			entry += "|role=" + role
		}
		entries = append(entries, entry)
	})
	if len(entries) == 0 {
		return degenerateKey(markup)
	}

	sort.Strings(entries)
	return strings.Join(entries, ";")
}

func degenerateKey(markup string) string {
	prefix := markup
	if len(prefix) > 512 {
		prefix = prefix[:512]
	}
	h := fnv.New64a()
	h.Write([]byte(prefix))
	return fmt.Sprintf("%d:%x", len(markup), h.Sum64())
}

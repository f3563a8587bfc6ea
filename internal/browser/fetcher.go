// internal/browser/fetcher.go
package browser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/cache"
	"github.com/dkoval87/gherkinforge/internal/engine"
)

// Fetcher renders a URL and returns its post-JavaScript markup, backed by the
// shared cache. Analysis and generation want the DOM a user actually sees,
// not the raw HTTP body, so fetching goes through a real browser.
type Fetcher struct {
	sessions engine.SessionFactory
	store    cache.Cache
	log      *zap.Logger
}

// NewFetcher builds a fetcher on top of a session factory.
func NewFetcher(sessions engine.SessionFactory, store cache.Cache, logger *zap.Logger) *Fetcher {
	return &Fetcher{sessions: sessions, store: store, log: logger.Named("fetcher")}
}

// WithSessions returns a fetcher that opens pages through sessions instead of
// the wired factory. The receiver is unchanged.
func (f *Fetcher) WithSessions(sessions engine.SessionFactory) *Fetcher {
	derived := *f
	derived.sessions = sessions
	return &derived
}

// FetchHTML returns the rendered markup for url, from cache when fresh.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	if html, ok := f.store.GetHTML(ctx, url); ok {
		f.log.Debug("Rendered markup served from cache.", zap.String("url", url))
		return html, nil
	}

	page, err := f.sessions.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := page.Close(ctx); cerr != nil {
			f.log.Warn("Failed to close fetch session.", zap.Error(cerr))
		}
	}()

	if err := page.Navigate(ctx, url); err != nil {
		return "", err
	}
	html, err := page.Markup(ctx)
	if err != nil {
		return "", err
	}

	f.store.SetHTML(ctx, url, html)
	return html, nil
}

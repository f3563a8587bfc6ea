// internal/browser/factory.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/config"
	"github.com/dkoval87/gherkinforge/internal/engine"
)

// Factory opens Chrome tabs configured from the application settings. Each
// NewPage call launches its own browser process so concurrent runs cannot
// share cookies, storage, or crash each other.
type Factory struct {
	cfg config.BrowserConfig
	net config.NetworkConfig
	log *zap.Logger
}

var _ engine.SessionFactory = (*Factory)(nil)

// NewFactory builds a session factory.
func NewFactory(cfg config.BrowserConfig, net config.NetworkConfig, logger *zap.Logger) *Factory {
	return &Factory{cfg: cfg, net: net, log: logger.Named("browser")}
}

// WithHeadless returns a factory whose pages run with the given headless
// setting instead of the configured one. The receiver is unchanged.
func (f *Factory) WithHeadless(headless bool) *Factory {
	derived := *f
	derived.cfg.Headless = headless
	return &derived
}

func (f *Factory) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.WindowSize(f.cfg.WindowWidth, f.cfg.WindowHeight),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if f.cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range f.cfg.Args {
		name, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// NewPage launches a browser and returns a Page bound to its sole tab. The
// caller owns the page and must Close it; Close tears the whole browser down.
func (f *Factory) NewPage(ctx context.Context) (engine.Page, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	page := &Page{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		net:         f.net,
		log:         f.log,
	}
	page.tracker = newNetworkTracker(tabCtx)

	// Starting the browser eagerly surfaces launch failures here instead of
	// on the first action.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	f.log.Debug("Browser session opened.", zap.Bool("headless", f.cfg.Headless))
	return page, nil
}

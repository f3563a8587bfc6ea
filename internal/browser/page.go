// internal/browser/page.go
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/config"
	"github.com/dkoval87/gherkinforge/internal/engine"
)

// Page drives one Chrome tab. All methods run on the tab's own context; the
// caller context gates entry and per-call deadlines bound individual waits.
type Page struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	tracker     *networkTracker
	net         config.NetworkConfig
	log         *zap.Logger
}

var _ engine.Page = (*Page)(nil)

// quote JSON-encodes s for safe embedding in an evaluated script.
func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// fatal classifies an action error: a dead tab context means the session is
// unrecoverable and the error is marked engine.ErrSessionLost. Per-call
// deadline expiries stay ordinary errors so the fallback ladder can proceed.
func (p *Page) fatal(err error) error {
	if err == nil {
		return nil
	}
	if p.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", engine.ErrSessionLost, err)
	}
	return err
}

// run executes actions on the tab with an optional deadline.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx := p.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(p.ctx, timeout)
		defer cancel()
	}
	return p.fatal(chromedp.Run(tctx, actions...))
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.log.Debug("Navigating.", zap.String("url", url))
	err := p.run(ctx, p.net.NavigationTimeout,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	// Give client-side rendering a chance to run before anyone reads the DOM.
	sleep(ctx, p.net.PostLoadWait)
	if err := p.tracker.awaitIdle(ctx, p.net.NetworkIdleWait); err != nil {
		p.log.Debug("Page network still active after load.", zap.Error(err))
	}
	return nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	var loc string
	if err := p.run(ctx, 10*time.Second, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (p *Page) Markup(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 15*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to serialize page markup: %w", err)
	}
	return html, nil
}

func (p *Page) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := p.run(ctx, 5*time.Second,
		chromedp.InnerHTML(selector, &html, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("failed to read %q markup: %w", selector, err)
	}
	return html, nil
}

func (p *Page) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	err := p.run(ctx, 5*time.Second,
		chromedp.Evaluate(fmt.Sprintf(jsIsVisible, quote(selector)), &visible))
	if err != nil {
		return false, err
	}
	return visible, nil
}

func (p *Page) ResolveTarget(ctx context.Context, target string, useText bool, scopeSelector string) (string, error) {
	script := fmt.Sprintf(jsResolveTarget, useText, quote(target), quote(scopeSelector))
	var tagged string
	if err := p.run(ctx, 10*time.Second, chromedp.Evaluate(script, &tagged)); err != nil {
		return "", err
	}
	if tagged == "" {
		return "", fmt.Errorf("no element matches %q (text mode: %t)", target, useText)
	}
	return tagged, nil
}

func (p *Page) WaitReady(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitHidden polls visibility rather than using a node-based wait: "hidden"
// must also cover the element leaving the DOM entirely, which dialog
// teardown commonly does.
func (p *Page) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		visible, err := p.IsVisible(ctx, selector)
		if err != nil {
			return err
		}
		if !visible {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%q still visible after %s", selector, timeout)
		}
		sleep(ctx, 100*time.Millisecond)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (p *Page) ScrollIntoView(ctx context.Context, selector string) error {
	var ok bool
	err := p.run(ctx, 5*time.Second,
		chromedp.Evaluate(fmt.Sprintf(jsScrollIntoView, quote(selector)), &ok))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("cannot scroll: no element matches %q", selector)
	}
	return nil
}

func (p *Page) Click(ctx context.Context, selector string, mech engine.ClickMechanism) error {
	switch mech {
	case engine.MechStandard:
		return p.run(ctx, 10*time.Second,
			chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))

	case engine.MechForced:
		center, err := p.center(ctx, selector)
		if err != nil {
			return err
		}
		return p.run(ctx, 5*time.Second, chromedp.MouseClickXY(center.X, center.Y))

	case engine.MechScript:
		return p.evalClick(ctx, jsScriptClick, selector)

	case engine.MechDispatch:
		return p.evalClick(ctx, jsDispatchClick, selector)
	}
	return fmt.Errorf("unknown click mechanism %d", mech)
}

func (p *Page) evalClick(ctx context.Context, script, selector string) error {
	var ok bool
	err := p.run(ctx, 5*time.Second,
		chromedp.Evaluate(fmt.Sprintf(script, quote(selector)), &ok))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element matches %q", selector)
	}
	return nil
}

func (p *Page) Hover(ctx context.Context, selector string) error {
	center, err := p.center(ctx, selector)
	if err != nil {
		return err
	}
	return p.run(ctx, 5*time.Second,
		chromedp.MouseEvent(input.MouseMoved, center.X, center.Y))
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *Page) center(ctx context.Context, selector string) (point, error) {
	var pt *point
	err := p.run(ctx, 5*time.Second,
		chromedp.Evaluate(fmt.Sprintf(jsClickRect, quote(selector)), &pt))
	if err != nil {
		return point{}, err
	}
	if pt == nil {
		return point{}, fmt.Errorf("no element matches %q", selector)
	}
	return *pt, nil
}

func (p *Page) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	return p.tracker.awaitIdle(ctx, timeout)
}

// Close tears down the tab and its browser process. Safe to call on an
// already-dead session.
func (p *Page) Close(ctx context.Context) error {
	err := chromedp.Cancel(p.ctx)
	p.cancelTab()
	p.cancelAlloc()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("browser shutdown reported: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

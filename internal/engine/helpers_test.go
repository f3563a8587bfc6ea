// internal/engine/helpers_test.go
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/cache"
	"github.com/dkoval87/gherkinforge/internal/llm"
	"github.com/dkoval87/gherkinforge/internal/steps"
)

// fakePage is a scriptable in-memory Page. Zero value behaves like a healthy
// blank page; override the function fields to inject behavior.
type fakePage struct {
	mu sync.Mutex

	markup    string
	markupErr error
	location  string
	visible   map[string]bool
	inner     map[string]string

	resolveFn     func(target string, useText bool, scope string) (string, error)
	clickFn       func(selector string, mech ClickMechanism) error
	waitVisibleFn func(selector string) error

	navigations   []string
	clicks        []ClickMechanism
	hovers        int
	resolveScopes []string
	closed        bool
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigations = append(p.navigations, url)
	return nil
}

func (p *fakePage) Location(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location, nil
}

func (p *fakePage) Markup(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.markupErr != nil {
		return "", p.markupErr
	}
	if p.markup == "" {
		return "<html><body></body></html>", nil
	}
	return p.markup, nil
}

func (p *fakePage) InnerHTML(_ context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if html, ok := p.inner[selector]; ok {
		return html, nil
	}
	return "", errors.New("no such element")
}

func (p *fakePage) IsVisible(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector], nil
}

func (p *fakePage) ResolveTarget(_ context.Context, target string, useText bool, scope string) (string, error) {
	p.mu.Lock()
	p.resolveScopes = append(p.resolveScopes, scope)
	p.mu.Unlock()
	if p.resolveFn != nil {
		return p.resolveFn(target, useText, scope)
	}
	return `[data-gf-target="fake"]`, nil
}

func (p *fakePage) WaitReady(context.Context, string, time.Duration) error { return nil }

func (p *fakePage) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if p.waitVisibleFn != nil {
		return p.waitVisibleFn(selector)
	}
	return nil
}

func (p *fakePage) WaitHidden(context.Context, string, time.Duration) error { return nil }
func (p *fakePage) ScrollIntoView(context.Context, string) error            { return nil }

func (p *fakePage) Click(_ context.Context, selector string, mech ClickMechanism) error {
	p.mu.Lock()
	p.clicks = append(p.clicks, mech)
	p.mu.Unlock()
	if p.clickFn != nil {
		return p.clickFn(selector, mech)
	}
	return nil
}

func (p *fakePage) Hover(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hovers++
	return nil
}

func (p *fakePage) WaitNetworkIdle(context.Context, time.Duration) error { return nil }

func (p *fakePage) Close(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// fakeSessions hands out one page, or fails.
type fakeSessions struct {
	page *fakePage
	err  error
}

func (f *fakeSessions) NewPage(context.Context) (Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

// fakeModel replays scripted replies in order and records every request.
type fakeModel struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []llm.GenerationRequest
}

func (m *fakeModel) ModelName() string { return "fake-model" }

func (m *fakeModel) GenerateResponse(_ context.Context, req llm.GenerationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return "", m.err
	}
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func newTestTracker() *Tracker {
	return NewTracker(cache.Nop{}, zap.NewNop())
}

func newTestRunner(sessions SessionFactory, model *fakeModel) *Runner {
	return NewRunner(
		sessions,
		steps.NewClassifier(steps.DefaultKeywords()),
		NewResolver(model, 50000, 4000, zap.NewNop()),
		newTestTracker(),
		Timing{},
		zap.NewNop(),
	)
}

// internal/service/components.go
package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/browser"
	"github.com/dkoval87/gherkinforge/internal/cache"
	"github.com/dkoval87/gherkinforge/internal/config"
	"github.com/dkoval87/gherkinforge/internal/engine"
	"github.com/dkoval87/gherkinforge/internal/llm"
	"github.com/dkoval87/gherkinforge/internal/scenario"
	"github.com/dkoval87/gherkinforge/internal/steps"
)

// Components holds every initialized dependency an operation needs. One set
// is built at startup and shared across CLI commands and HTTP handlers; only
// the cache owns resources that need explicit teardown.
type Components struct {
	Cache cache.Cache
	LLM   llm.Client
	// Sessions is kept concrete so request handling can derive per-request
	// variants via WithHeadless.
	Sessions  *browser.Factory
	Fetcher   *browser.Fetcher
	Runner    *engine.Runner
	Generator *scenario.Generator
	Writer    *scenario.Writer

	log *zap.Logger
}

// Build wires the full dependency graph from configuration.
func Build(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	var store cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		sqlite, err := cache.NewSQLite(cfg.Cache.Path, cfg.Cache.TTL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		store = sqlite
	}

	client, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	cached := llm.NewCachingClient(client, store, logger)

	sessions := browser.NewFactory(cfg.Browser, cfg.Network, logger)
	popups := engine.NewTracker(store, logger)
	resolver := engine.NewResolver(cached, cfg.Engine.PageExcerptLimit, cfg.Engine.PopupExcerptLimit, logger)
	classifier := steps.NewClassifier(steps.DefaultKeywords())
	runner := engine.NewRunner(sessions, classifier, resolver, popups,
		engine.TimingFromConfig(cfg.Network), logger)

	writer, err := scenario.NewWriter(cfg.Output.Dir, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Components{
		Cache:     store,
		LLM:       cached,
		Sessions:  sessions,
		Fetcher:   browser.NewFetcher(sessions, store, logger),
		Runner:    runner,
		Generator: scenario.NewGenerator(cached, logger),
		Writer:    writer,
		log:       logger.Named("service"),
	}, nil
}

// Shutdown releases held resources. Safe to call once.
func (c *Components) Shutdown() {
	if err := c.Cache.Close(); err != nil {
		c.log.Warn("Error closing cache.", zap.Error(err))
	}
}

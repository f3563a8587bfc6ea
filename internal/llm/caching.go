// internal/llm/caching.go
package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/cache"
)

// CachingClient wraps a Client with the shared response cache. The key is the
// request's explicit CacheKey when set, otherwise model+prompt. The stored
// value is the raw model output, so a hit replays exactly what the model said.
type CachingClient struct {
	inner Client
	store cache.Cache
	log   *zap.Logger
}

var _ Client = (*CachingClient)(nil)

// NewCachingClient decorates inner with store. Pass cache.Nop{} to disable.
func NewCachingClient(inner Client, store cache.Cache, logger *zap.Logger) *CachingClient {
	return &CachingClient{
		inner: inner,
		store: store,
		log:   logger.Named("llm.cache"),
	}
}

func (c *CachingClient) ModelName() string { return c.inner.ModelName() }

func (c *CachingClient) GenerateResponse(ctx context.Context, req GenerationRequest) (string, error) {
	model := c.inner.ModelName()
	if req.Model != "" {
		model = req.Model
	}
	key := req.CacheKey
	if key == "" {
		key = cache.ResponseKey(model, req.SystemPrompt+"\n"+req.UserPrompt)
	}

	if cached, ok := c.store.GetResponse(ctx, key); ok {
		c.log.Debug("Model response cache hit.", zap.String("key", key))
		return cached, nil
	}

	out, err := c.inner.GenerateResponse(ctx, req)
	if err != nil {
		return "", err
	}

	c.store.SetResponse(ctx, key, req.UserPrompt, out, model)
	return out, nil
}

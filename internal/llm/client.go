// internal/llm/client.go
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/config"
)

// GenerationRequest carries one prompt to the model.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	// Model overrides the client's configured model for this request when
	// non-empty. API callers may pick a model per generation.
	Model string
	// ForceJSONFormat asks the provider for a JSON response body where
	// supported; callers still run the output through ExtractJSON.
	ForceJSONFormat bool
	// CacheKey overrides the default model+prompt cache key. The resolver uses
	// this for popup-context calls, whose raw prompts are non-deterministic
	// per render.
	CacheKey string
}

// Client generates free-text responses from a language model. Implementations
// must tolerate occasional malformed output without failing the caller; parse
// recovery is the caller's job via ExtractJSON.
type Client interface {
	GenerateResponse(ctx context.Context, req GenerationRequest) (string, error)
	ModelName() string
}

// NewClient is a factory that builds a Client from configuration.
func NewClient(cfg config.LLMConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [gemini]", cfg.Provider)
	}
}

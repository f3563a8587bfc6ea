// internal/browser/factory_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dkoval87/gherkinforge/internal/config"
)

func TestWithHeadlessDerivesWithoutMutating(t *testing.T) {
	base := NewFactory(config.BrowserConfig{Headless: true, WindowWidth: 1280, WindowHeight: 800},
		config.NetworkConfig{}, zap.NewNop())

	headed := base.WithHeadless(false)

	assert.False(t, headed.cfg.Headless)
	assert.True(t, base.cfg.Headless, "deriving must not change the shared factory")
	assert.Equal(t, base.cfg.WindowWidth, headed.cfg.WindowWidth, "the rest of the config carries over")
}

// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Network.SettleDelay)
	assert.Equal(t, 50000, cfg.Engine.PageExcerptLimit)
	assert.Equal(t, ":8000", cfg.Server.Addr)
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("llm.model", "gemini-2.5-pro")
	v.Set("browser.headless", false)
	v.Set("network.modal_hidden_wait", "9s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.Model)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 9*time.Second, cfg.Network.ModalHiddenWait)
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing model", func(c *Config) { c.LLM.Model = "" }},
		{"cache enabled without path", func(c *Config) { c.Cache.Path = "" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Hour }},
		{"zero excerpt limit", func(c *Config) { c.Engine.PageExcerptLimit = 0 }},
		{"missing output dir", func(c *Config) { c.Output.Dir = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

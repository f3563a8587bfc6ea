// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless        bool     `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool     `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string `mapstructure:"args" yaml:"args"`
	WindowWidth     int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight    int      `mapstructure:"window_height" yaml:"window_height"`
}

// NetworkConfig tunes page-load and wait behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	NetworkIdleWait   time.Duration `mapstructure:"network_idle_wait" yaml:"network_idle_wait"`
	SettleDelay       time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	ModalHiddenWait   time.Duration `mapstructure:"modal_hidden_wait" yaml:"modal_hidden_wait"`
}

// LLMConfig defines the model client settings.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// CacheConfig controls the shared on-disk cache for page markup and model
// responses.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Path    string        `mapstructure:"path" yaml:"path"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// EngineConfig tunes the step execution engine.
type EngineConfig struct {
	// Caps on the markup excerpt embedded in resolver prompts.
	PageExcerptLimit  int `mapstructure:"page_excerpt_limit" yaml:"page_excerpt_limit"`
	PopupExcerptLimit int `mapstructure:"popup_excerpt_limit" yaml:"popup_excerpt_limit"`
}

// OutputConfig controls where generated feature files land.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// SetDefaults initializes default values for the configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "gherkinforge")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.window_width", 1440)
	v.SetDefault("browser.window_height", 900)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.post_load_wait", "2s")
	v.SetDefault("network.network_idle_wait", "3s")
	v.SetDefault("network.settle_delay", "1500ms")
	v.SetDefault("network.modal_hidden_wait", "5s")

	// -- LLM --
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.api_timeout", "90s")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2500)

	// -- Cache --
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", ".cache/gherkinforge.db")
	v.SetDefault("cache.ttl", "24h")

	// -- Engine --
	v.SetDefault("engine.page_excerpt_limit", 50000)
	v.SetDefault("engine.popup_excerpt_limit", 4000)

	// -- Output --
	v.SetDefault("output.dir", "output")

	// -- Server --
	v.SetDefault("server.addr", ":8000")
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the config file.
	v.BindEnv("llm.api_key", "GHERKINFORGE_LLM_API_KEY", "GEMINI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is a required configuration field")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set when the cache is enabled")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Engine.PageExcerptLimit <= 0 || c.Engine.PopupExcerptLimit <= 0 {
		return fmt.Errorf("engine excerpt limits must be positive")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is a required configuration field")
	}
	return nil
}

package chat

import (
	"log/slog"
	"time"
)

// DefaultSystem is the fixed persona prompt for voice-mode fast replies.
const DefaultSystem = `You are K2S0, a reprogrammed Imperial KX-series security droid.
Voice mode rules: 1-2 sentences max. No markdown. No lists. Direct and conversational.
Strong opinions. Dry wit. Never say "Great question" or "I'd be happy to help".
You coordinate a dev team: Charlie (developer), Dennis (PM), Mac (QA), Frank (devops), Sweet Dee (research), Cricket (designer).
If asked about a complex task, say you're routing it to the appropriate agent.`

// Config holds chat provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	APIKey  string
	BaseURL string

	Model     string
	System    string
	MaxTokens int

	Timeout time.Duration

	Logger *slog.Logger
}

// Option is a functional option for configuring chat providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithSystem sets the persona system prompt.
func WithSystem(system string) Option {
	return func(c *Config) {
		c.System = system
	}
}

// WithMaxTokens caps the output length. Fast replies stay short.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:     "claude-haiku-4-5-20251001",
		System:    DefaultSystem,
		MaxTokens: 100,
		Timeout:   10 * time.Second,
		Logger:    slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

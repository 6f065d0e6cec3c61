// Package config provides environment-driven configuration for voicebridge.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultChannelID    = "1476655601106026577"
	DefaultAgentBotID   = "1476128387822129236"
	DefaultStatusPort   = "7799"
	DefaultTTSVoice     = "fable"
	DefaultPollInterval = 300 * time.Millisecond
)

// Config holds everything voicebridge needs to run.
type Config struct {
	// Required credentials
	OpenAIKey       string // STT + TTS
	AnthropicKey    string // fast replies
	ChannelBotToken string // channel reads (watcher)
	ChannelToken    string // channel posts

	// Channel identity
	ChannelID  string
	AgentBotID string

	// Tunables
	StatusPort   string
	TTSVoice     string
	PollInterval time.Duration

	// Logging
	Debug bool
}

// Load reads configuration from the environment.
// A .env file in the working directory is applied first if present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ChannelBotToken: os.Getenv("DISCORD_BOT_TOKEN"),
		ChannelToken:    os.Getenv("DISCORD_USER_TOKEN"),
		ChannelID:       envOr("DISCORD_CHANNEL_ID", DefaultChannelID),
		AgentBotID:      envOr("AGENT_BOT_ID", DefaultAgentBotID),
		StatusPort:      envOr("STATUS_PORT", DefaultStatusPort),
		TTSVoice:        envOr("TTS_VOICE", DefaultTTSVoice),
		PollInterval:    DefaultPollInterval,
	}

	if v := os.Getenv("WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		}
	}

	return cfg
}

// Validate checks that all required credentials are present.
// The returned error names every missing variable so the operator can fix
// them in one pass.
func (c Config) Validate() error {
	var missing []string
	if c.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.AnthropicKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.ChannelBotToken == "" {
		missing = append(missing, "DISCORD_BOT_TOKEN")
	}
	if c.ChannelToken == "" {
		missing = append(missing, "DISCORD_USER_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

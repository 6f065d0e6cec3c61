// Package tts provides a unified interface for text-to-speech providers.
//
// The primary provider is the OpenAI speech API; a local OS synthesizer
// acts as the last-resort fallback so the voice interface never goes
// silent when the network is down. Providers compose through Chain, which
// tries each in order. Callers meter characters sent, not bytes returned.
package tts

import "context"

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data. Empty when the provider played
	// the audio itself (local synthesis).
	Audio []byte

	// Ext is the container extension of Audio ("mp3", "wav"), used to
	// hand the bytes to a file-based player.
	Ext string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to the full buffer in milliseconds.
	LatencyMs int64
}

// Package chat provides the low-latency conversational model used for
// fast replies and routing acknowledgments.
//
// Providers return the exact input/output token counts reported by the
// API so callers can meter usage. Callers are expected to degrade to a
// fixed fallback string when a provider fails; the voice interface must
// never go silent on a transient error.
package chat

import "context"

// Reply is one model response plus its metered token usage.
type Reply struct {
	// Text is the model's reply, whitespace-trimmed.
	Text string

	// InputTokens and OutputTokens are the exact counts reported by the
	// API for this call.
	InputTokens  int64
	OutputTokens int64
}

// Provider generates short conversational replies.
type Provider interface {
	// Reply sends the user text with the configured persona prompt and
	// returns the model's response.
	Reply(ctx context.Context, userText string) (*Reply, error)

	// Close releases any resources held by the provider.
	Close() error
}

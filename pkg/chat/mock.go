package chat

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
// Behavior can be customized via function fields.
type Mock struct {
	// ReplyFunc is called when Reply is invoked.
	// If nil, echoes the user text with zero usage.
	ReplyFunc func(ctx context.Context, userText string) (*Reply, error)

	mu    sync.Mutex
	calls []string
}

// NewMock creates a mock provider that echoes input.
func NewMock() *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, userText string) (*Reply, error) {
			return &Reply{Text: "echo: " + userText, InputTokens: 1, OutputTokens: 1}, nil
		},
	}
}

// WithError returns a mock whose Reply always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		ReplyFunc: func(ctx context.Context, userText string) (*Reply, error) {
			return nil, err
		},
	}
}

// Reply calls ReplyFunc and records the call.
func (m *Mock) Reply(ctx context.Context, userText string) (*Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, userText)
	m.mu.Unlock()

	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, userText)
	}
	return nil, ErrEmptyResponse
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Calls returns the user texts passed to Reply, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Reply was invoked.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)

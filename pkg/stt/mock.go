package stt

import (
	"context"
	"sync"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns "" with nil error.
	TranscribeFunc func(ctx context.Context, clip *audioio.Clip) (string, error)

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock that always transcribes to text.
func NewMock(text string) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, clip *audioio.Clip) (string, error) {
			return text, nil
		},
	}
}

// WithError returns a mock whose Transcribe always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, clip *audioio.Clip) (string, error) {
			return "", err
		},
	}
}

// Transcribe calls TranscribeFunc and counts the call.
func (m *Mock) Transcribe(ctx context.Context, clip *audioio.Clip) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, clip)
	}
	return "", nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Calls returns how many times Transcribe was invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Verify Mock implements Transcriber at compile time.
var _ Transcriber = (*Mock)(nil)

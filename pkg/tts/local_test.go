package tts

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestLocalTruncatesAtRuneBoundary(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no 'true' command available")
	}

	l := &Local{
		logger:  slog.Default(),
		argv:    []string{"true"},
		maxLen:  200,
		timeout: time.Second,
	}

	// 100 three-byte runes: the 200-byte cap lands mid-rune and must back
	// off to the previous boundary.
	result, err := l.Synthesize(context.Background(), strings.Repeat("日", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CharCount != 198 {
		t.Errorf("expected 198 bytes spoken, got %d", result.CharCount)
	}
}

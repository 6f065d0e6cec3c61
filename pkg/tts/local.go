package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
	"unicode/utf8"
)

const providerLocal = "local"

// ErrNoLocalSynth is returned when no local synthesis command exists.
var ErrNoLocalSynth = errors.New("tts: no local synthesizer found (need 'say' or 'espeak')")

// localCommands lists OS synthesizers in preference order. Each takes the
// text as its final argument and plays it directly.
var localCommands = [][]string{
	{"say"},
	{"espeak"},
	{"espeak-ng"},
}

// Local implements Provider by shelling out to the OS speech synthesizer.
// It plays audio itself rather than returning bytes, which makes it the
// fallback of last resort: no network, no API key, always audible.
type Local struct {
	logger  *slog.Logger
	argv    []string
	maxLen  int
	timeout time.Duration
}

// NewLocal creates a local synthesizer provider.
// Returns ErrNoLocalSynth when no supported command is on PATH.
func NewLocal(logger *slog.Logger) (*Local, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, argv := range localCommands {
		if _, err := exec.LookPath(argv[0]); err == nil {
			return &Local{
				logger:  logger.With("component", "tts.local"),
				argv:    argv,
				maxLen:  200,
				timeout: 30 * time.Second,
			}, nil
		}
	}
	return nil, ErrNoLocalSynth
}

// Synthesize speaks the text through the OS synthesizer, blocking until
// playback finishes. The returned result carries no audio bytes.
func (l *Local) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()

	spoken := text
	if len(spoken) > l.maxLen {
		cut := l.maxLen
		for cut > 0 && !utf8.RuneStart(spoken[cut]) {
			cut--
		}
		spoken = spoken[:cut]
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	args := append(append([]string{}, l.argv[1:]...), spoken)
	cmd := exec.CommandContext(ctx, l.argv[0], args...)
	if err := cmd.Run(); err != nil {
		return nil, WrapError(providerLocal, fmt.Errorf("%s: %w", l.argv[0], err))
	}

	l.logger.Debug("spoke via local synthesizer",
		"chars", len(spoken),
		"tool", l.argv[0],
	)

	return &AudioResult{
		CharCount: len(spoken),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Health reports whether the synthesizer command is still available.
func (l *Local) Health(ctx context.Context) error {
	if _, err := exec.LookPath(l.argv[0]); err != nil {
		return WrapError(providerLocal, err)
	}
	return nil
}

// Close releases resources.
func (l *Local) Close() error {
	return nil
}

// Verify Local implements Provider at compile time.
var _ Provider = (*Local)(nil)

// Package voice turns reply text into audible speech.
//
// Speaker sits between the dispatch loop and the tts provider chain: it
// sanitizes markdown out of the text, enforces the synthesis length cap,
// meters characters into the ledger, and plays the result. SpeakAsync
// decouples long playbacks from the caller; errors are logged and
// swallowed there, never surfaced, so a failed background speech can
// never take down a turn.
package voice

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
	"github.com/seanmckenzie/voicebridge/pkg/ledger"
	"github.com/seanmckenzie/voicebridge/pkg/tts"
)

// MaxSpeakChars caps the text sent to synthesis per call.
const MaxSpeakChars = 400

// minSpeakChars skips synthesis for degenerate fragments.
const minSpeakChars = 3

// Speaker speaks text through the TTS chain and local playback.
type Speaker struct {
	synth  tts.Provider
	player audioio.Player
	meter  *ledger.Ledger
	logger *slog.Logger

	// AckPath is an optional audio file played as the instant
	// acknowledgment sound. Empty disables the ack.
	AckPath string
}

// NewSpeaker creates a Speaker. meter may be nil to disable metering.
func NewSpeaker(synth tts.Provider, player audioio.Player, meter *ledger.Ledger, logger *slog.Logger) *Speaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		synth:  synth,
		player: player,
		meter:  meter,
		logger: logger.With("component", "voice.speaker"),
	}
}

// Sanitize strips markdown decoration that reads badly aloud.
func Sanitize(text string) string {
	r := strings.NewReplacer("**", "", "*", "", "`", "", "#", "")
	return r.Replace(text)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Speak synthesizes and plays text, blocking until playback completes.
// Characters sent to synthesis are metered, not audio bytes returned.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	clean := Sanitize(text)
	if len(strings.TrimSpace(clean)) < minSpeakChars {
		return nil
	}
	clean = truncate(clean, MaxSpeakChars)

	if s.meter != nil {
		s.meter.Add(ledger.CounterTTSChars, int64(len(clean)))
	}

	result, err := s.synth.Synthesize(ctx, clean)
	if err != nil {
		return err
	}

	// Local fallback providers play the audio themselves and return no
	// bytes; only file-based results need the player.
	if len(result.Audio) > 0 {
		return s.player.Play(result.Audio, result.Ext)
	}
	return nil
}

// SpeakAsync speaks on a background goroutine. Failures are logged and
// discarded; the caller can begin the next turn immediately.
func (s *Speaker) SpeakAsync(text string) {
	go func() {
		if err := s.Speak(context.Background(), text); err != nil {
			s.logger.Warn("async speech failed", "error", err)
		}
	}()
}

// PlayAck plays the acknowledgment sound without waiting. Best effort:
// missing file or playback failure is ignored.
func (s *Speaker) PlayAck() {
	if s.AckPath == "" {
		return
	}
	go func() {
		if err := s.player.PlayFile(s.AckPath); err != nil {
			s.logger.Debug("ack playback failed", "error", err)
		}
	}()
}

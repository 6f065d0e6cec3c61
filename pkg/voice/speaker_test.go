package voice_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
	"github.com/seanmckenzie/voicebridge/pkg/ledger"
	"github.com/seanmckenzie/voicebridge/pkg/tts"
	"github.com/seanmckenzie/voicebridge/pkg/voice"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"**bold** and *italic*", "bold and italic"},
		{"`code` # heading", "code  heading"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := voice.Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSpeak(t *testing.T) {
	t.Run("synthesizes and plays", func(t *testing.T) {
		synth := tts.NewMock()
		player := audioio.NewMockPlayer()
		l := ledger.New()
		s := voice.NewSpeaker(synth, player, l, nil)

		if err := s.Speak(context.Background(), "Hello there."); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if synth.CallCount("Synthesize") != 1 {
			t.Error("expected one synthesis call")
		}
		if len(player.Played()) != 1 {
			t.Error("expected one playback")
		}
		if got := l.Get(ledger.CounterTTSChars); got != int64(len("Hello there.")) {
			t.Errorf("expected %d chars metered, got %d", len("Hello there."), got)
		}
	})

	t.Run("skips degenerate text", func(t *testing.T) {
		synth := tts.NewMock()
		s := voice.NewSpeaker(synth, audioio.NewMockPlayer(), nil, nil)

		if err := s.Speak(context.Background(), "**"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if synth.CallCount("Synthesize") != 0 {
			t.Error("expected no synthesis for markdown-only text")
		}
	})

	t.Run("truncates long text and meters truncated length", func(t *testing.T) {
		var sent string
		synth := tts.NewMock()
		synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			sent = text
			return &tts.AudioResult{Audio: []byte{1}, Ext: "mp3", CharCount: len(text)}, nil
		}
		l := ledger.New()
		s := voice.NewSpeaker(synth, audioio.NewMockPlayer(), l, nil)

		long := strings.Repeat("a", 1000)
		if err := s.Speak(context.Background(), long); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sent) != voice.MaxSpeakChars {
			t.Errorf("expected %d chars sent, got %d", voice.MaxSpeakChars, len(sent))
		}
		if got := l.Get(ledger.CounterTTSChars); got != voice.MaxSpeakChars {
			t.Errorf("expected %d chars metered, got %d", voice.MaxSpeakChars, got)
		}
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		var sent string
		synth := tts.NewMock()
		synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			sent = text
			return &tts.AudioResult{Audio: []byte{1}, Ext: "mp3", CharCount: len(text)}, nil
		}
		s := voice.NewSpeaker(synth, audioio.NewMockPlayer(), nil, nil)

		long := strings.Repeat("日", 200) // 600 bytes, cap lands mid-rune
		if err := s.Speak(context.Background(), long); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sent) > voice.MaxSpeakChars {
			t.Errorf("expected at most %d bytes sent, got %d", voice.MaxSpeakChars, len(sent))
		}
		if !utf8.ValidString(sent) {
			t.Error("truncated text is not valid UTF-8")
		}
		if !strings.HasPrefix(long, sent) {
			t.Error("truncated text is not a prefix of the input")
		}
	})

	t.Run("synthesis error surfaces", func(t *testing.T) {
		s := voice.NewSpeaker(tts.WithError(errors.New("down")), audioio.NewMockPlayer(), nil, nil)
		if err := s.Speak(context.Background(), "hello world"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("byteless result skips player", func(t *testing.T) {
		synth := tts.NewMock()
		synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			return &tts.AudioResult{CharCount: len(text)}, nil
		}
		player := audioio.NewMockPlayer()
		s := voice.NewSpeaker(synth, player, nil, nil)

		if err := s.Speak(context.Background(), "spoken locally"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(player.Played()) != 0 {
			t.Error("expected no playback for byteless result")
		}
	})
}

func TestSpeakAsync(t *testing.T) {
	synth := tts.NewMock()
	done := make(chan struct{})
	synth.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
		defer close(done)
		return &tts.AudioResult{Audio: []byte{1}, Ext: "mp3"}, nil
	}
	s := voice.NewSpeaker(synth, audioio.NewMockPlayer(), nil, nil)

	s.SpeakAsync("background speech")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async speech never ran")
	}
}

func TestPlayAck(t *testing.T) {
	t.Run("disabled without path", func(t *testing.T) {
		player := audioio.NewMockPlayer()
		s := voice.NewSpeaker(tts.NewMock(), player, nil, nil)
		s.PlayAck()
		time.Sleep(20 * time.Millisecond)
		if len(player.Played()) != 0 {
			t.Error("expected no playback without ack path")
		}
	})

	t.Run("plays configured file", func(t *testing.T) {
		player := audioio.NewMockPlayer()
		s := voice.NewSpeaker(tts.NewMock(), player, nil, nil)
		s.AckPath = "msg_received.mp3"
		s.PlayAck()

		deadline := time.After(time.Second)
		for len(player.Played()) == 0 {
			select {
			case <-deadline:
				t.Fatal("ack never played")
			case <-time.After(5 * time.Millisecond):
			}
		}
		if player.Played()[0].Path != "msg_received.mp3" {
			t.Errorf("unexpected path: %s", player.Played()[0].Path)
		}
	})
}

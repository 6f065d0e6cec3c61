package audioio_test

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
)

func TestClipDuration(t *testing.T) {
	t.Run("one second of samples", func(t *testing.T) {
		clip := &audioio.Clip{Samples: make([]int16, audioio.SampleRate)}
		if clip.Duration() != time.Second {
			t.Errorf("expected 1s, got %v", clip.Duration())
		}
		if clip.Seconds() != 1.0 {
			t.Errorf("expected 1.0, got %f", clip.Seconds())
		}
	})

	t.Run("empty clip", func(t *testing.T) {
		clip := &audioio.Clip{}
		if clip.Duration() != 0 {
			t.Errorf("expected 0, got %v", clip.Duration())
		}
	})

	t.Run("nil clip", func(t *testing.T) {
		var clip *audioio.Clip
		if clip.Duration() != 0 {
			t.Errorf("expected 0, got %v", clip.Duration())
		}
	})
}

func TestFromBytes(t *testing.T) {
	data := []byte{0x01, 0x00, 0xFF, 0xFF} // 1, -1
	clip := audioio.FromBytes(data)
	if len(clip.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(clip.Samples))
	}
	if clip.Samples[0] != 1 || clip.Samples[1] != -1 {
		t.Errorf("unexpected samples: %v", clip.Samples)
	}
}

func TestWAV(t *testing.T) {
	clip := audioio.TestClip(100 * time.Millisecond)
	wav := clip.WAV()

	if len(wav) != 44+len(clip.Samples)*2 {
		t.Fatalf("unexpected WAV size: %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != audioio.SampleRate {
		t.Errorf("expected sample rate %d, got %d", audioio.SampleRate, rate)
	}
	if ch := binary.LittleEndian.Uint16(wav[22:24]); ch != audioio.Channels {
		t.Errorf("expected %d channel, got %d", audioio.Channels, ch)
	}
	if dataLen := binary.LittleEndian.Uint32(wav[40:44]); int(dataLen) != len(clip.Samples)*2 {
		t.Errorf("data chunk length mismatch: %d", dataLen)
	}
}

func TestMockPlayerConcurrent(t *testing.T) {
	p := audioio.NewMockPlayer()

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_ = p.Play([]byte{1, 2, 3}, "mp3")
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if got := len(p.Played()); got != 10 {
		t.Errorf("expected 10 playbacks, got %d", got)
	}
}

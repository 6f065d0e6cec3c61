// Package audioio is the boundary to local audio devices: push-to-talk
// capture and best-effort playback. Real device access happens through
// external OS tools, so everything here is swappable with mocks in tests.
package audioio

import (
	"bytes"
	"encoding/binary"
	"time"
)

// Capture format: mono 16kHz PCM16, what the transcription service expects.
const (
	SampleRate = 16000
	Channels   = 1
)

// Clip is one captured utterance: raw PCM16 samples at 16kHz mono.
// Clips are ephemeral; nothing retains them past the current turn.
type Clip struct {
	Samples []int16
}

// Duration returns the real audio duration of the clip.
// Metering uses this, never the wall-clock time of any network call.
func (c *Clip) Duration() time.Duration {
	if c == nil || len(c.Samples) == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / SampleRate
}

// Seconds returns the duration in seconds as a float, for ledger metering.
func (c *Clip) Seconds() float64 {
	return c.Duration().Seconds()
}

// FromBytes builds a clip from little-endian PCM16 bytes.
// A trailing odd byte is dropped.
func FromBytes(data []byte) *Clip {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return &Clip{Samples: samples}
}

// WAV encodes the clip as a 16-bit mono WAV file.
func (c *Clip) WAV() []byte {
	dataLen := len(c.Samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	// RIFF header
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	// fmt chunk
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(Channels))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate*Channels*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(Channels*2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))                    // bits per sample

	// data chunk
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range c.Samples {
		binary.Write(buf, binary.LittleEndian, uint16(s))
	}

	return buf.Bytes()
}

// Package stt provides speech-to-text transcription of captured clips.
//
// Providers fail closed: any transport or API problem surfaces as an
// error, and the caller decides whether the turn survives. Callers meter
// the clip's real audio duration, never the latency of the call.
package stt

import (
	"context"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
)

// Transcriber converts a captured clip to text.
type Transcriber interface {
	// Transcribe returns the transcript text, whitespace-trimmed.
	// An empty string with nil error means the service heard nothing.
	Transcribe(ctx context.Context, clip *audioio.Clip) (string, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// Package dispatch runs the push-to-talk turn loop.
//
// One turn is: record an utterance, transcribe it, classify the intent,
// then either answer directly through the fast chat model or hand the
// request off to the agent channel with a spoken acknowledgment. Every
// turn is isolated: a panic or provider failure inside one turn is
// logged and the loop moves on to the next.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
	"github.com/seanmckenzie/voicebridge/pkg/chat"
	"github.com/seanmckenzie/voicebridge/pkg/intent"
	"github.com/seanmckenzie/voicebridge/pkg/ledger"
	"github.com/seanmckenzie/voicebridge/pkg/stt"
)

// MinClipDuration discards accidental taps of the talk key.
const MinClipDuration = 400 * time.Millisecond

// fallbackReply is spoken when the fast model is unreachable.
const fallbackReply = "Got it."

// deferredAckPrompt asks the fast model for a short hand-off line.
const deferredAckPrompt = "Say you're on it and routing to the appropriate agent. Original request: "

// recoverPause throttles the loop after a failed turn.
const recoverPause = time.Second

// Voice speaks replies and acknowledgment sounds.
type Voice interface {
	Speak(ctx context.Context, text string) error
	SpeakAsync(text string)
	PlayAck()
}

// Poster forwards transcripts into the agent channel.
type Poster interface {
	PostAsync(content string)
}

// Loop is the turn loop.
type Loop struct {
	recorder   audioio.Recorder
	transcribe stt.Transcriber
	classifier intent.Classifier
	fast       chat.Provider
	voice      Voice
	poster     Poster
	meter      *ledger.Ledger
	logger     *slog.Logger
}

// NewLoop wires a turn loop. meter may be nil to disable metering.
func NewLoop(
	recorder audioio.Recorder,
	transcribe stt.Transcriber,
	classifier intent.Classifier,
	fast chat.Provider,
	voice Voice,
	poster Poster,
	meter *ledger.Ledger,
	logger *slog.Logger,
) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		recorder:   recorder,
		transcribe: transcribe,
		classifier: classifier,
		fast:       fast,
		voice:      voice,
		poster:     poster,
		meter:      meter,
		logger:     logger.With("component", "dispatch.loop"),
	}
}

// Run executes turns until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.turn(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			l.logger.Error("turn failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(recoverPause):
			}
		}
	}
}

// turn runs one utterance end to end. A panic inside a turn becomes an
// error so the loop survives misbehaving providers.
func (l *Loop) turn(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: turn panic: %v", r)
		}
	}()

	clip, err := l.recorder.Record(ctx)
	if err != nil {
		return err
	}
	if clip.Duration() < MinClipDuration {
		l.logger.Debug("clip too short, discarded", "duration", clip.Duration())
		return nil
	}

	text, err := l.transcribe.Transcribe(ctx, clip)
	if err != nil {
		return fmt.Errorf("dispatch: transcribe: %w", err)
	}
	if l.meter != nil {
		l.meter.Add(ledger.CounterSTTRequests, 1)
		l.meter.AddSeconds(ledger.CounterSTTSeconds, clip.Seconds())
	}
	text = strings.TrimSpace(text)
	if text == "" {
		l.logger.Info("no transcription")
		return nil
	}

	l.logger.Info("heard", "text", text)

	switch intent.Classify(l.classifier, text) {
	case intent.Deferred:
		l.deferredTurn(ctx, text)
	default:
		l.fastTurn(ctx, text)
	}
	return nil
}

// fastTurn answers directly through the fast model.
func (l *Loop) fastTurn(ctx context.Context, text string) {
	l.voice.PlayAck()

	reply := l.fastReply(ctx, text)
	l.logger.Info("fast reply", "text", reply)

	if err := l.voice.Speak(ctx, reply); err != nil {
		l.logger.Warn("speech failed", "error", err)
	}
	l.poster.PostAsync("[voice] " + text)
}

// deferredTurn hands the request to the agent channel. The spoken
// acknowledgment runs in the background so the loop can take the next
// utterance while the agent works.
func (l *Loop) deferredTurn(ctx context.Context, text string) {
	l.logger.Info("routing to agent")
	l.voice.PlayAck()

	ack := l.fastReply(ctx, deferredAckPrompt+text)
	l.voice.SpeakAsync(ack)
	l.poster.PostAsync("[voice] " + text)
}

// fastReply asks the fast model and meters tokens. Any failure falls
// back to a canned line; a broken chat provider must not break a turn.
func (l *Loop) fastReply(ctx context.Context, prompt string) string {
	reply, err := l.fast.Reply(ctx, prompt)
	if err != nil {
		l.logger.Warn("fast reply failed", "error", err)
		return fallbackReply
	}
	if l.meter != nil {
		l.meter.Add(ledger.CounterChatInputTokens, int64(reply.InputTokens))
		l.meter.Add(ledger.CounterChatOutputTokens, int64(reply.OutputTokens))
	}
	return strings.TrimSpace(reply.Text)
}

package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
	"github.com/seanmckenzie/voicebridge/pkg/chat"
	"github.com/seanmckenzie/voicebridge/pkg/dispatch"
	"github.com/seanmckenzie/voicebridge/pkg/intent"
	"github.com/seanmckenzie/voicebridge/pkg/ledger"
	"github.com/seanmckenzie/voicebridge/pkg/stt"
)

// fakeVoice records speech calls synchronously.
type fakeVoice struct {
	mu     sync.Mutex
	spoken []string
	async  []string
	acks   int
}

func (v *fakeVoice) Speak(ctx context.Context, text string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spoken = append(v.spoken, text)
	return nil
}

func (v *fakeVoice) SpeakAsync(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.async = append(v.async, text)
}

func (v *fakeVoice) PlayAck() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.acks++
}

// fakePoster records posted content synchronously.
type fakePoster struct {
	mu    sync.Mutex
	posts []string
}

func (p *fakePoster) PostAsync(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, content)
}

type fixture struct {
	recorder *audioio.MockRecorder
	stt      *stt.Mock
	fast     *chat.Mock
	voice    *fakeVoice
	poster   *fakePoster
	meter    *ledger.Ledger
	loop     *dispatch.Loop
}

func newFixture(transcript string) *fixture {
	f := &fixture{
		recorder: audioio.NewMockRecorder(),
		stt:      stt.NewMock(transcript),
		fast:     chat.NewMock(),
		voice:    &fakeVoice{},
		poster:   &fakePoster{},
		meter:    ledger.New(),
	}
	f.loop = dispatch.NewLoop(
		f.recorder, f.stt, intent.NewKeywordClassifier(),
		f.fast, f.voice, f.poster, f.meter, nil,
	)
	return f
}

// runOne queues one clip and runs the loop until the exhausted
// recorder stops it.
func (f *fixture) runOne(t *testing.T) {
	t.Helper()
	f.recorder.QueueClip(audioio.TestClip(2 * time.Second))
	err := f.loop.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFastTurn(t *testing.T) {
	f := newFixture("what time is it")
	f.runOne(t)

	require.Equal(t, 1, f.voice.acks)
	require.Equal(t, []string{"echo: what time is it"}, f.voice.spoken)
	require.Empty(t, f.voice.async)
	require.Equal(t, []string{"[voice] what time is it"}, f.poster.posts)

	require.EqualValues(t, 1, f.meter.Get(ledger.CounterSTTRequests))
	require.InDelta(t, 2.0, f.meter.GetSeconds(ledger.CounterSTTSeconds), 0.01)
	require.EqualValues(t, 1, f.meter.Get(ledger.CounterChatInputTokens))
	require.EqualValues(t, 1, f.meter.Get(ledger.CounterChatOutputTokens))
}

func TestDeferredTurn(t *testing.T) {
	f := newFixture("create a file called notes.txt")
	f.runOne(t)

	require.Equal(t, 1, f.voice.acks)
	require.Empty(t, f.voice.spoken, "deferred ack must not block the loop")
	require.Len(t, f.voice.async, 1)
	require.Equal(t, []string{"[voice] create a file called notes.txt"}, f.poster.posts)

	// The hand-off prompt wraps the original request.
	calls := f.fast.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0], "Original request: create a file called notes.txt")
}

func TestShortClipDiscarded(t *testing.T) {
	f := newFixture("should never transcribe")
	f.recorder.QueueClip(audioio.TestClip(100 * time.Millisecond))

	err := f.loop.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)

	require.Zero(t, f.stt.Calls())
	require.Zero(t, f.meter.Get(ledger.CounterSTTRequests))
	require.Empty(t, f.poster.posts)
}

func TestEmptyTranscriptAbortsTurn(t *testing.T) {
	f := newFixture("   ")
	f.runOne(t)

	require.Zero(t, f.fast.CallCount())
	require.Zero(t, f.voice.acks)
	require.Empty(t, f.poster.posts)
}

func TestTranscribeErrorAbortsTurn(t *testing.T) {
	f := newFixture("")
	f.stt.TranscribeFunc = func(ctx context.Context, clip *audioio.Clip) (string, error) {
		return "", errors.New("whisper down")
	}
	f.recorder.QueueClip(audioio.TestClip(2 * time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := f.loop.Run(ctx)
	require.Error(t, err)

	require.Zero(t, f.fast.CallCount())
	require.Empty(t, f.poster.posts)
	require.Zero(t, f.meter.Get(ledger.CounterSTTRequests), "failed transcriptions must not meter requests")
	require.Zero(t, f.meter.GetSeconds(ledger.CounterSTTSeconds), "failed transcriptions must not meter audio seconds")
}

func TestFastReplyFallback(t *testing.T) {
	f := newFixture("what time is it")
	f.fast.ReplyFunc = func(ctx context.Context, userText string) (*chat.Reply, error) {
		return nil, errors.New("anthropic down")
	}
	f.runOne(t)

	require.Equal(t, []string{"Got it."}, f.voice.spoken)
	require.Zero(t, f.meter.Get(ledger.CounterChatInputTokens), "failed replies must not meter tokens")
	require.Equal(t, []string{"[voice] what time is it"}, f.poster.posts)
}

func TestPanicInProviderIsContained(t *testing.T) {
	f := newFixture("what time is it")
	first := true
	f.fast.ReplyFunc = func(ctx context.Context, userText string) (*chat.Reply, error) {
		if first {
			first = false
			panic("boom")
		}
		return &chat.Reply{Text: "recovered"}, nil
	}
	// First turn panics; the loop should pause, then serve the second.
	f.recorder.QueueClip(audioio.TestClip(2 * time.Second))
	f.recorder.QueueClip(audioio.TestClip(2 * time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := f.loop.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	f.voice.mu.Lock()
	defer f.voice.mu.Unlock()
	require.Contains(t, f.voice.spoken, "recovered")
}

func TestContextCancelStopsLoop(t *testing.T) {
	f := newFixture("hello")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.loop.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, f.recorder.Calls())
}

// Package ledger tracks metered usage of external services.
//
// A Ledger is a set of named monotonic counters updated from many
// goroutines: the dispatch loop, the channel watcher, and fire-and-forget
// speech tasks all record usage as they call out. A single mutex guards
// every update and snapshot so concurrent increments are never lost and a
// snapshot never observes a half-applied update.
package ledger

import (
	"sync"
	"time"
)

// Counter names for the services voicebridge meters.
const (
	CounterChatInputTokens  = "anthropic_haiku_input_tokens"
	CounterChatOutputTokens = "anthropic_haiku_output_tokens"
	CounterSTTRequests      = "openai_whisper_requests"
	CounterSTTSeconds       = "openai_whisper_duration_seconds"
	CounterTTSChars         = "openai_tts_chars"
)

// Ledger is a goroutine-safe set of usage counters for one session.
// Counters only ever increase; there is no persistence across restarts.
type Ledger struct {
	mu           sync.Mutex
	counts       map[string]int64
	seconds      map[string]float64
	sessionStart time.Time
}

// New creates a Ledger with all counters zeroed and the session start
// stamped at the current time.
func New() *Ledger {
	return &Ledger{
		counts: map[string]int64{
			CounterChatInputTokens:  0,
			CounterChatOutputTokens: 0,
			CounterSTTRequests:      0,
			CounterTTSChars:         0,
		},
		seconds: map[string]float64{
			CounterSTTSeconds: 0,
		},
		sessionStart: time.Now().UTC(),
	}
}

// Add atomically adds n to the named counter. Negative amounts are
// ignored; counters are monotonic within a session.
func (l *Ledger) Add(counter string, n int64) {
	if n < 0 {
		return
	}
	l.mu.Lock()
	l.counts[counter] += n
	l.mu.Unlock()
}

// AddSeconds atomically accumulates a duration (in seconds) into the
// named counter. Used for audio duration metering, where the billed unit
// is real audio time rather than request count.
func (l *Ledger) AddSeconds(counter string, secs float64) {
	if secs < 0 {
		return
	}
	l.mu.Lock()
	l.seconds[counter] += secs
	l.mu.Unlock()
}

// Get returns the current value of an integer counter.
func (l *Ledger) Get(counter string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[counter]
}

// GetSeconds returns the current value of a duration counter.
func (l *Ledger) GetSeconds(counter string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seconds[counter]
}

// SessionStart returns the fixed session start timestamp.
func (l *Ledger) SessionStart() time.Time {
	return l.sessionStart
}

// Snapshot returns a point-in-time copy of every counter plus the session
// start and current wall-clock time, for external reporting only. The map
// is freshly allocated; callers may mutate it freely.
func (l *Ledger) Snapshot() map[string]any {
	l.mu.Lock()
	out := make(map[string]any, len(l.counts)+len(l.seconds)+2)
	for name, v := range l.counts {
		out[name] = v
	}
	for name, v := range l.seconds {
		out[name] = v
	}
	l.mu.Unlock()

	out["session_start_time"] = l.sessionStart.Format(time.RFC3339)
	out["current_time"] = time.Now().UTC().Format(time.RFC3339)
	return out
}

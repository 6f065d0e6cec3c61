// Package watcher polls the channel for agent replies and speaks them.
//
// The watcher runs beside the main dispatch loop. It seeds a cursor at
// the newest channel message so only messages posted after startup are
// ever spoken, then advances the cursor past every message it sees,
// agent-authored or not. Poll failures are logged and swallowed with
// the cursor left untouched, so a flaky channel only delays replies.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seanmckenzie/voicebridge/pkg/channel"
)

const fetchLimit = 10

// Source reads messages from the channel.
type Source interface {
	Recent(ctx context.Context, limit int) ([]channel.Message, error)
	After(ctx context.Context, cursor string, limit int) ([]channel.Message, error)
}

var _ Source = (*channel.Client)(nil)

// SpeakFunc voices one agent reply. It must not block the poll loop
// for long; pass an async speaker when playback is slow.
type SpeakFunc func(text string)

// Watcher streams agent replies from the channel into speech.
type Watcher struct {
	source   Source
	agentID  string
	interval time.Duration
	speak    SpeakFunc
	logger   *slog.Logger

	mu     sync.Mutex
	cursor string
}

// New creates a watcher polling at the given interval. Only messages
// authored by agentID are spoken.
func New(source Source, agentID string, interval time.Duration, speak SpeakFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:   source,
		agentID:  agentID,
		interval: interval,
		speak:    speak,
		logger:   logger.With("component", "watcher"),
	}
}

// Cursor returns the ID of the last message the watcher has consumed,
// or an empty string before seeding.
func (w *Watcher) Cursor() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *Watcher) setCursor(id string) {
	w.mu.Lock()
	w.cursor = id
	w.mu.Unlock()
}

// Seed anchors the cursor at the newest existing message. Messages
// already in the channel at seed time are never spoken. An empty
// channel or a failed fetch leaves the watcher unseeded; Run retries
// on its next tick.
func (w *Watcher) Seed(ctx context.Context) error {
	msgs, err := w.source.Recent(ctx, 1)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	w.setCursor(msgs[0].ID)
	w.logger.Info("watch cursor seeded", "cursor", msgs[0].ID)
	return nil
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	if w.Cursor() == "" {
		if err := w.Seed(ctx); err != nil {
			w.logger.Warn("seed failed", "error", err)
		}
		return
	}

	msgs, err := w.source.After(ctx, w.Cursor(), fetchLimit)
	if err != nil {
		w.logger.Warn("poll failed", "error", err)
		return
	}
	if len(msgs) == 0 {
		return
	}

	for _, msg := range msgs {
		if msg.Author.ID != w.agentID || msg.Content == "" {
			continue
		}
		w.logger.Info("agent reply", "id", msg.ID, "chars", len(msg.Content))
		w.speak(msg.Content)
	}

	// Advance past the whole batch, spoken or not, so unrelated chatter
	// is never re-fetched.
	w.setCursor(msgs[len(msgs)-1].ID)
}

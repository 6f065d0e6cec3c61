package audioio

import (
	"context"
	"sync"
	"time"
)

// MockRecorder implements Recorder for testing.
// Each Record call pops the next queued result; an exhausted queue
// returns context.Canceled so driving loops terminate.
type MockRecorder struct {
	mu    sync.Mutex
	clips []*Clip
	errs  []error
	calls int
}

// NewMockRecorder creates an empty mock recorder.
func NewMockRecorder() *MockRecorder {
	return &MockRecorder{}
}

// QueueClip appends a clip to be returned by a future Record call.
func (m *MockRecorder) QueueClip(c *Clip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(m.clips, c)
	m.errs = append(m.errs, nil)
}

// QueueError appends an error result.
func (m *MockRecorder) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clips = append(m.clips, nil)
	m.errs = append(m.errs, err)
}

// Record pops the next queued result.
func (m *MockRecorder) Record(ctx context.Context) (*Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.clips) == 0 {
		return nil, context.Canceled
	}
	clip, err := m.clips[0], m.errs[0]
	m.clips, m.errs = m.clips[1:], m.errs[1:]
	return clip, err
}

// Calls returns how many times Record was invoked.
func (m *MockRecorder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPlayer implements Player for testing, recording every playback.
type MockPlayer struct {
	// PlayErr, if set, is returned by Play and PlayFile.
	PlayErr error

	mu     sync.Mutex
	played []MockPlayback
}

// MockPlayback records one Play or PlayFile invocation.
type MockPlayback struct {
	Bytes int
	Ext   string
	Path  string
	Time  time.Time
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play records the playback request.
func (m *MockPlayer) Play(audio []byte, ext string) error {
	m.mu.Lock()
	m.played = append(m.played, MockPlayback{Bytes: len(audio), Ext: ext, Time: time.Now()})
	m.mu.Unlock()
	return m.PlayErr
}

// PlayFile records the playback request.
func (m *MockPlayer) PlayFile(path string) error {
	m.mu.Lock()
	m.played = append(m.played, MockPlayback{Path: path, Time: time.Now()})
	m.mu.Unlock()
	return m.PlayErr
}

// Played returns all recorded playbacks.
func (m *MockPlayer) Played() []MockPlayback {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockPlayback, len(m.played))
	copy(out, m.played)
	return out
}

// TestClip builds a clip of the given duration filled with silence.
func TestClip(d time.Duration) *Clip {
	n := int(d * SampleRate / time.Second)
	return &Clip{Samples: make([]int16, n)}
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Recorder = (*MockRecorder)(nil)
	_ Player   = (*MockPlayer)(nil)
)

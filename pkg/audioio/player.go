package audioio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// ErrNoPlaybackTool is returned when no supported playback command exists.
var ErrNoPlaybackTool = errors.New("audioio: no playback tool found (need afplay, mpg123, ffplay, or aplay)")

// playbackCommands lists external players in preference order. Each takes
// a file path as its final argument.
var playbackCommands = [][]string{
	{"afplay", "-v", "0.7"},
	{"mpg123", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"aplay", "-q"},
}

// Player plays audio through the local output device.
// Multiple playbacks may overlap: each call writes its own uniquely-named
// temp file so concurrent turns and background speech never clobber each
// other's audio.
type Player interface {
	// Play writes audio bytes to a temp file and plays it, blocking
	// until playback completes. ext is the file extension ("mp3", "wav").
	Play(audio []byte, ext string) error

	// PlayFile plays an existing audio file, blocking until done.
	PlayFile(path string) error
}

// ExecPlayer implements Player by shelling out to an OS audio player.
type ExecPlayer struct {
	logger *slog.Logger

	mu      sync.Mutex
	argv    []string
	resolve sync.Once
}

// NewExecPlayer returns a player using the first available OS tool.
func NewExecPlayer(logger *slog.Logger) *ExecPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecPlayer{logger: logger.With("component", "audioio.player")}
}

// Play writes the audio to a per-call temp file, plays it, and removes
// the file. Safe to call concurrently.
func (p *ExecPlayer) Play(audio []byte, ext string) error {
	if len(audio) == 0 {
		return nil
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("voicebridge-%s.%s", uuid.NewString(), ext))
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("audioio: write temp audio: %w", err)
	}
	defer os.Remove(path)

	return p.PlayFile(path)
}

// PlayFile plays an existing file and blocks until playback completes.
func (p *ExecPlayer) PlayFile(path string) error {
	argv, err := p.playbackArgv()
	if err != nil {
		return err
	}

	args := append(append([]string{}, argv[1:]...), path)
	cmd := exec.Command(argv[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("audioio: playback: %w", err)
	}
	return nil
}

// playbackArgv resolves the playback command once per process.
func (p *ExecPlayer) playbackArgv() ([]string, error) {
	p.resolve.Do(func() {
		for _, argv := range playbackCommands {
			if _, err := exec.LookPath(argv[0]); err == nil {
				p.mu.Lock()
				p.argv = argv
				p.mu.Unlock()
				return
			}
		}
	})
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.argv == nil {
		return nil, ErrNoPlaybackTool
	}
	return p.argv, nil
}

// Verify ExecPlayer implements Player at compile time.
var _ Player = (*ExecPlayer)(nil)

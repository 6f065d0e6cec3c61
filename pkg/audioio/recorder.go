package audioio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// ErrNoCaptureTool is returned when no supported capture command exists.
var ErrNoCaptureTool = errors.New("audioio: no capture tool found (need sox 'rec' or alsa 'arecord')")

// Recorder captures one push-to-talk utterance at a time.
type Recorder interface {
	// Record blocks until the user signals start-of-speech, captures
	// until the stop signal, and returns the clip. A nil clip with nil
	// error means nothing usable was captured.
	Record(ctx context.Context) (*Clip, error)
}

// captureCommands lists external capture tools in preference order, each
// emitting raw little-endian PCM16 mono 16kHz to stdout.
var captureCommands = [][]string{
	{"rec", "-q", "-t", "raw", "-r", "16000", "-e", "signed", "-b", "16", "-c", "1", "-"},
	{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw"},
	{"sox", "-q", "-d", "-t", "raw", "-r", "16000", "-e", "signed", "-b", "16", "-c", "1", "-"},
}

// StdinRecorder implements push-to-talk over the terminal: Enter starts
// capture, Enter again stops it. Audio comes from the first available
// external capture tool on PATH.
type StdinRecorder struct {
	in     *bufio.Reader
	out    io.Writer
	logger *slog.Logger

	mu      sync.Mutex
	argv    []string // resolved capture command
	resolve sync.Once
}

// NewStdinRecorder returns a recorder reading key presses from stdin.
func NewStdinRecorder(logger *slog.Logger) *StdinRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdinRecorder{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		logger: logger.With("component", "audioio.recorder"),
	}
}

// Record waits for Enter, captures audio until the next Enter, and
// returns the captured clip.
func (r *StdinRecorder) Record(ctx context.Context) (*Clip, error) {
	argv, err := r.captureArgv()
	if err != nil {
		return nil, err
	}

	fmt.Fprint(r.out, "\n⏎  Press ENTER to speak...")
	if err := r.waitEnter(ctx); err != nil {
		return nil, err
	}
	fmt.Fprintln(r.out, "🔴 Recording — press ENTER to stop")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("audioio: capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("audioio: start capture: %w", err)
	}

	var buf bytes.Buffer
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		io.Copy(&buf, stdout)
	}()

	stopErr := r.waitEnter(ctx)

	// Stop capture regardless of how the wait ended.
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-copyDone
	_ = cmd.Wait()

	if stopErr != nil {
		return nil, stopErr
	}

	clip := FromBytes(buf.Bytes())
	if len(clip.Samples) == 0 {
		return nil, nil
	}
	r.logger.Debug("captured clip", "duration", clip.Duration())
	return clip, nil
}

// waitEnter blocks until a newline arrives on stdin or the context ends.
func (r *StdinRecorder) waitEnter(ctx context.Context) error {
	lineCh := make(chan error, 1)
	go func() {
		_, err := r.in.ReadString('\n')
		lineCh <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-lineCh:
		if err != nil && err != io.EOF {
			return fmt.Errorf("audioio: read stdin: %w", err)
		}
		return nil
	}
}

// captureArgv resolves the capture command once per process.
func (r *StdinRecorder) captureArgv() ([]string, error) {
	r.resolve.Do(func() {
		for _, argv := range captureCommands {
			if _, err := exec.LookPath(argv[0]); err == nil {
				r.mu.Lock()
				r.argv = argv
				r.mu.Unlock()
				return
			}
		}
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.argv == nil {
		return nil, ErrNoCaptureTool
	}
	return r.argv, nil
}

// Verify StdinRecorder implements Recorder at compile time.
var _ Recorder = (*StdinRecorder)(nil)

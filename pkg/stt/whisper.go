package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/seanmckenzie/voicebridge/pkg/audioio"
)

const (
	whisperURL      = "https://api.openai.com/v1/audio/transcriptions"
	whisperModel    = "whisper-1"
	providerWhisper = "whisper"
)

// ErrNoAPIKey is returned when the API key is missing.
var ErrNoAPIKey = errors.New("stt: API key required")

// Whisper implements Transcriber using the OpenAI transcription API.
type Whisper struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// WhisperOption configures a Whisper transcriber.
type WhisperOption func(*Whisper)

// WithBaseURL overrides the default API URL.
func WithBaseURL(url string) WhisperOption {
	return func(w *Whisper) { w.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) WhisperOption {
	return func(w *Whisper) { w.client = c }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) WhisperOption {
	return func(w *Whisper) { w.logger = logger.With("component", "stt.whisper") }
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(apiKey string, opts ...WhisperOption) (*Whisper, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	w := &Whisper{
		apiKey:  apiKey,
		baseURL: whisperURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default().With("component", "stt.whisper"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Transcribe uploads the clip as WAV and returns the transcript.
func (w *Whisper) Transcribe(ctx context.Context, clip *audioio.Clip) (string, error) {
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("stt [%s]: build form: %w", providerWhisper, err)
	}
	if _, err := part.Write(clip.WAV()); err != nil {
		return "", fmt.Errorf("stt [%s]: write audio: %w", providerWhisper, err)
	}
	_ = mw.WriteField("model", whisperModel)
	_ = mw.WriteField("language", "en")
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("stt [%s]: close form: %w", providerWhisper, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL, &body)
	if err != nil {
		return "", fmt.Errorf("stt [%s]: create request: %w", providerWhisper, err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt [%s]: %w", providerWhisper, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("stt [%s]: API error %d: %s", providerWhisper, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("stt [%s]: decode response: %w", providerWhisper, err)
	}

	w.logger.Debug("transcribed clip",
		"audio_secs", clip.Seconds(),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return strings.TrimSpace(decoded.Text), nil
}

// Close releases resources.
func (w *Whisper) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)

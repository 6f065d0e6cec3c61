package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	providerAnthropic    = "anthropic"
)

// Anthropic implements Provider using the Anthropic messages API.
type Anthropic struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewAnthropic creates a new Anthropic chat provider.
func NewAnthropic(opts ...Option) (*Anthropic, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicMessagesURL
	}

	return &Anthropic{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "chat.anthropic"),
		baseURL: baseURL,
	}, nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int64 `json:"input_tokens"`
		OutputTokens int64 `json:"output_tokens"`
	} `json:"usage"`
}

// Reply sends the user text with the persona prompt and returns the
// model's response plus exact token usage.
func (a *Anthropic) Reply(ctx context.Context, userText string) (*Reply, error) {
	start := time.Now()

	payload := messagesRequest{
		Model:     a.config.Model,
		MaxTokens: a.config.MaxTokens,
		System:    a.config.System,
		Messages:  []message{{Role: "user", Content: userText}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chat [%s]: marshal payload: %w", providerAnthropic, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chat [%s]: create request: %w", providerAnthropic, err)
	}

	req.Header.Set("x-api-key", a.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat [%s]: %w", providerAnthropic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.parseError(resp)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("chat [%s]: decode response: %w", providerAnthropic, err)
	}

	var text string
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text = strings.TrimSpace(block.Text)
			break
		}
	}
	if text == "" {
		return nil, ErrEmptyResponse
	}

	a.logger.Debug("fast reply",
		"input_tokens", decoded.Usage.InputTokens,
		"output_tokens", decoded.Usage.OutputTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &Reply{
		Text:         text,
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}, nil
}

// Close releases resources.
func (a *Anthropic) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// parseError reads and parses an error response.
func (a *Anthropic) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	msg := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Provider:   providerAnthropic,
	}
}

// Verify Anthropic implements Provider at compile time.
var _ Provider = (*Anthropic)(nil)

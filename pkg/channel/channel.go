// Package channel talks to the external chat channel that connects the
// voice interface to the asynchronous agent.
//
// The channel is the only bridge to the agent: deferred requests are
// posted into it, and the watcher polls it for the agent's replies.
// Message IDs are opaque, totally-ordered identifiers assigned by the
// channel; this package never interprets them beyond passing them back
// as "after" cursors.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/seanmckenzie/voicebridge/internal/httpc"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"
	userAgent      = "DiscordBot (https://github.com/seanmckenzie/voicebridge, 1.0)"
)

// Author identifies a message sender.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Message is one channel message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Author    Author `json:"author"`
	Content   string `json:"content"`
}

// Client is a REST client for one channel.
type Client struct {
	baseURL   string
	channelID string
	botToken  string // reads
	userToken string // posts

	httpClient *http.Client
	backoff    time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the sleep applied after a rate-limit response.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.With("component", "channel.client") }
}

// NewClient creates a channel client. botToken authorizes reads and is
// normalized to carry the "Bot " prefix; userToken authorizes posts and
// is sent as-is.
func NewClient(channelID, botToken, userToken string, opts ...ClientOption) *Client {
	if botToken != "" && !strings.HasPrefix(botToken, "Bot ") {
		botToken = "Bot " + botToken
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		channelID:  channelID,
		botToken:   botToken,
		userToken:  userToken,
		httpClient: httpc.NewClient(10 * time.Second),
		backoff:    2 * time.Second,
		logger:     slog.Default().With("component", "channel.client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Recent fetches the most recent messages, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]Message, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	return c.getMessages(ctx, q)
}

// After fetches messages with IDs strictly greater than the cursor,
// oldest first. A rate-limited response backs off and returns an empty
// batch with no error.
func (c *Client) After(ctx context.Context, cursor string, limit int) ([]Message, error) {
	q := url.Values{}
	q.Set("after", cursor)
	q.Set("limit", fmt.Sprint(limit))
	return c.getMessages(ctx, q)
}

func (c *Client) getMessages(ctx context.Context, q url.Values) ([]Message, error) {
	u := fmt.Sprintf("%s/channels/%s/messages?%s", c.baseURL, c.channelID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("channel: create request: %w", err)
	}
	req.Header.Set("Authorization", c.botToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("rate limited, backing off", "backoff", c.backoff)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("channel: API error %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var msgs []Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("channel: decode messages: %w", err)
	}
	return msgs, nil
}

// Post writes a message to the channel.
func (c *Client) Post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("channel: marshal post: %w", err)
	}

	u := fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.channelID)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("channel: create request: %w", err)
	}
	req.Header.Set("Authorization", c.userToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("channel: post failed %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// PostAsync posts on a background goroutine. Failures are logged and
// discarded so a slow or down channel never blocks a turn.
func (c *Client) PostAsync(content string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Post(ctx, content); err != nil {
			c.logger.Warn("async post failed", "error", err)
		}
	}()
}

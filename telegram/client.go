// Package telegram sends notification messages through the Telegram Bot API.
// Delivery is fire-and-forget: a failed send is logged by the caller and
// never retried; the next detected change produces the next message.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"nexus-mods-notifier/config"
)

const (
	telegramAPIURL = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// Client posts messages to a fixed chat (and optional topic thread).
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	token   string
	chatID  string
	topicID string
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a Telegram client from configuration.
func NewClient(cfg config.Config) (*Client, error) {
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not configured")
	}
	if cfg.TelegramChatID == "" {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not configured")
	}

	// Sends are not retried, so the breaker's only job is to stop a long
	// poll run from hammering a dead bot endpoint on every detected change.
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		BaseURL: telegramAPIURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		token:   cfg.TelegramBotToken,
		chatID:  cfg.TelegramChatID,
		topicID: cfg.TelegramTopicID,
		breaker: breaker,
	}, nil
}

// Send delivers one HTML-formatted message. Callers treat errors as
// log-and-continue; they are returned only for visibility.
func (c *Client) Send(ctx context.Context, text string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.sendMessage(ctx, text)
	})
	if err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

func (c *Client) sendMessage(ctx context.Context, text string) error {
	payload := url.Values{}
	payload.Set("chat_id", c.chatID)
	payload.Set("text", text)
	payload.Set("parse_mode", "HTML")
	if c.topicID != "" {
		payload.Set("message_thread_id", c.topicID)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.BaseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

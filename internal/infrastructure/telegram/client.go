// Package telegram adapts the Bot API library to the two operations the app
// needs: long-poll updates in, messages out.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stockwatch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Client wraps a Bot API connection. It implements the bot's update source
// and sender ports as well as the monitor's notifier port.
type Client struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

type options struct {
	endpoint   string
	httpClient tgbotapi.HTTPClient
}

// Option customizes a Client.
type Option func(*options)

// WithBaseURL points the client at a different API host. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.endpoint = strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc tgbotapi.HTTPClient) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// NewClient connects a Bot API client for the given bot token. The library
// verifies the token with a getMe call, so a bad token fails here instead of
// on the first poll.
func NewClient(token string, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{
		endpoint: tgbotapi.APIEndpoint,
		// Long polling holds the connection open for the poll timeout, so the
		// client timeout must exceed it.
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.endpoint, o.httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to bot api: %w", err)
	}
	logger.Info("bot api connected", zap.String("bot_username", api.Self.UserName))

	return &Client{api: api, logger: logger}, nil
}

// SendMessage delivers a Markdown-formatted message to a chat. A 403 response
// means the user blocked the bot or deleted their account and is reported as
// shared.ErrRecipientUnreachable so callers can deactivate the recipient.
func (c *Client) SendMessage(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	_, err := c.api.Send(msg)
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		c.logger.Info("recipient unreachable",
			zap.Int64("chat_id", chatID),
			zap.String("description", apiErr.Message),
		)
		return shared.ErrRecipientUnreachable
	}
	return err
}

// GetUpdates long-polls for new updates after the given offset. The library
// carries no context; cancellation happens in the poll loop between calls.
func (c *Client) GetUpdates(_ context.Context, offset int, timeout time.Duration) ([]tgbotapi.Update, error) {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = int(timeout.Seconds())
	cfg.AllowedUpdates = []string{"message"}
	return c.api.GetUpdates(cfg)
}

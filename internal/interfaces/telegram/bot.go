// Package telegram is the chat interface: a long-polling bot that translates
// commands into subscriber operations.
package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stockwatch/backend/internal/application/subscriber"
	"github.com/stockwatch/backend/internal/domain/location"
	"go.uber.org/zap"
)

const (
	defaultPollTimeout  = 30 * time.Second
	defaultPollBackoff  = 3 * time.Second
	defaultHandleBudget = 2 * time.Minute
)

// UpdateSource supplies incoming updates. Implemented by the Bot API client.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]tgbotapi.Update, error)
}

// MessageSender delivers outgoing replies.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SubscriberService is the application surface the bot drives.
type SubscriberService interface {
	Register(ctx context.Context, userID int64, username, firstName string) error
	SetLocation(ctx context.Context, userID int64, postalCode string) (*location.Resolution, error)
	Products(ctx context.Context, userID int64) ([]subscriber.Product, error)
	Subscribe(ctx context.Context, userID int64, sku string) (*subscriber.Product, error)
	Unsubscribe(ctx context.Context, userID int64, sku string) error
	Subscriptions(ctx context.Context, userID int64) ([]subscriber.Subscription, error)
	Deactivate(ctx context.Context, userID int64) error
}

// Bot long-polls for updates and dispatches commands.
type Bot struct {
	source      UpdateSource
	sender      MessageSender
	service     SubscriberService
	logger      *zap.Logger
	pollTimeout time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// BotOption customizes a Bot.
type BotOption func(*Bot)

// WithPollTimeout overrides the long-poll timeout.
func WithPollTimeout(d time.Duration) BotOption {
	return func(b *Bot) {
		if d > 0 {
			b.pollTimeout = d
		}
	}
}

// NewBot creates a bot over the given update source and sender.
func NewBot(source UpdateSource, sender MessageSender, service SubscriberService, logger *zap.Logger, opts ...BotOption) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bot{
		source:      source,
		sender:      sender,
		service:     service,
		logger:      logger,
		pollTimeout: defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start launches the polling loop.
func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.wg.Add(1)
	go b.pollLoop(ctx)

	b.logger.Info("telegram bot started", zap.Duration("poll_timeout", b.pollTimeout))
	return nil
}

// Stop gracefully stops the polling loop.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel != nil {
		b.cancel()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("telegram bot stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	var offset int
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.source.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("failed to poll updates", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(defaultPollBackoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, defaultHandleBudget)
	defer cancel()

	command, arg := splitCommand(text)
	b.logger.Debug("handling command",
		zap.Int64("user_id", msg.From.ID),
		zap.String("command", command),
	)

	reply := b.dispatch(ctx, msg, command, arg)
	if reply == "" {
		return
	}
	if err := b.sender.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		b.logger.Error("failed to send reply",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.String("command", command),
			zap.Error(err),
		)
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message, command, arg string) string {
	userID := msg.From.ID

	switch command {
	case "/start":
		return b.handleStart(ctx, msg)
	case "/setlocation":
		return b.handleSetLocation(ctx, userID, arg)
	case "/products":
		return b.handleProducts(ctx, userID)
	case "/subscribe":
		return b.handleSubscribe(ctx, userID, arg)
	case "/unsubscribe":
		return b.handleUnsubscribe(ctx, userID, arg)
	case "/mysubs":
		return b.handleSubscriptions(ctx, userID)
	case "/stop":
		return b.handleStop(ctx, userID)
	case "/help":
		return helpText
	default:
		return "Unknown command. " + helpHint
	}
}

// splitCommand separates the command token from its argument, dropping a
// trailing @botname mention on the command.
func splitCommand(text string) (string, string) {
	command, arg, _ := strings.Cut(text, " ")
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	return strings.ToLower(command), strings.TrimSpace(arg)
}

func isPostalCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

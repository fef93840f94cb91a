package telegram

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stockwatch/backend/internal/application/subscriber"
	"github.com/stockwatch/backend/internal/domain/location"
	"github.com/stockwatch/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	registered    []int64
	locations     map[int64]string
	locationErr   error
	products      []subscriber.Product
	productsErr   error
	subscribeErr  error
	subscriptions []subscriber.Subscription
	deactivated   []int64
}

func (s *fakeService) Register(_ context.Context, userID int64, _, _ string) error {
	s.registered = append(s.registered, userID)
	return nil
}

func (s *fakeService) SetLocation(_ context.Context, userID int64, postalCode string) (*location.Resolution, error) {
	if s.locationErr != nil {
		return nil, s.locationErr
	}
	if s.locations == nil {
		s.locations = make(map[int64]string)
	}
	s.locations[userID] = postalCode
	if res, ok := location.ResolveByRange(postalCode); ok {
		return res, nil
	}
	return nil, shared.ErrLocationNotServiceable
}

func (s *fakeService) Products(context.Context, int64) ([]subscriber.Product, error) {
	return s.products, s.productsErr
}

func (s *fakeService) Subscribe(_ context.Context, _ int64, sku string) (*subscriber.Product, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	for i := range s.products {
		if s.products[i].SKU == sku {
			return &s.products[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *fakeService) Unsubscribe(context.Context, int64, string) error { return nil }

func (s *fakeService) Subscriptions(context.Context, int64) ([]subscriber.Subscription, error) {
	return s.subscriptions, nil
}

func (s *fakeService) Deactivate(_ context.Context, userID int64) error {
	s.deactivated = append(s.deactivated, userID)
	return nil
}

type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendMessage(_ context.Context, _ int64, text string) error {
	s.sent = append(s.sent, text)
	return nil
}

// fakeSource serves one batch of updates, then blocks until the poll context
// is cancelled.
type fakeSource struct {
	batch []tgbotapi.Update

	mu      sync.Mutex
	served  bool
	offsets []int
}

func (s *fakeSource) GetUpdates(ctx context.Context, offset int, _ time.Duration) ([]tgbotapi.Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	first := !s.served
	s.served = true
	s.mu.Unlock()

	if first {
		return s.batch, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *fakeSource) seenOffsets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.offsets...)
}

func command(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 100,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, FirstName: "Asha", UserName: "asha"},
			Chat: &tgbotapi.Chat{ID: userID, Type: "private"},
			Text: text,
		},
	}
}

func newTestBot(service *fakeService) (*Bot, *fakeSender) {
	sender := &fakeSender{}
	return NewBot(&fakeSource{}, sender, service, zap.NewNop()), sender
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in      string
		command string
		arg     string
	}{
		{"/start", "/start", ""},
		{"/setlocation 400001", "/setlocation", "400001"},
		{"/subscribe@stockbot WHEY1", "/subscribe", "WHEY1"},
		{"/PRODUCTS", "/products", ""},
		{"/subscribe   WHEY1  ", "/subscribe", "WHEY1"},
	}
	for _, tc := range cases {
		command, arg := splitCommand(tc.in)
		assert.Equal(t, tc.command, command, tc.in)
		assert.Equal(t, tc.arg, arg, tc.in)
	}
}

func TestIsPostalCode(t *testing.T) {
	assert.True(t, isPostalCode("400001"))
	assert.False(t, isPostalCode("40001"))
	assert.False(t, isPostalCode("4000011"))
	assert.False(t, isPostalCode("40000a"))
	assert.False(t, isPostalCode(""))
}

func TestHandleStart(t *testing.T) {
	service := &fakeService{}
	bot, sender := newTestBot(service)

	bot.handleUpdate(context.Background(), command(42, "/start"))

	assert.Equal(t, []int64{42}, service.registered)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Hi Asha")
	assert.Contains(t, sender.sent[0], "/setlocation")
}

func TestHandleSetLocation(t *testing.T) {
	t.Run("valid pincode", func(t *testing.T) {
		service := &fakeService{}
		bot, sender := newTestBot(service)

		bot.handleUpdate(context.Background(), command(42, "/setlocation 400063"))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0], "Mumbai")
		assert.Equal(t, "400063", service.locations[42])
	})

	t.Run("malformed pincode", func(t *testing.T) {
		service := &fakeService{}
		bot, sender := newTestBot(service)

		bot.handleUpdate(context.Background(), command(42, "/setlocation abc"))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0], "6-digit")
		assert.Empty(t, service.locations)
	})

	t.Run("unserviceable pincode", func(t *testing.T) {
		service := &fakeService{locationErr: shared.ErrLocationNotServiceable}
		bot, sender := newTestBot(service)

		bot.handleUpdate(context.Background(), command(42, "/setlocation 999999"))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0], "couldn't find a store")
	})
}

func TestHandleProducts(t *testing.T) {
	t.Run("lists catalog", func(t *testing.T) {
		service := &fakeService{products: []subscriber.Product{
			{SKU: "WHEY1", Name: "Whey 1kg", Price: decimal.NewFromInt(1999), Quantity: 5, InStock: true},
			{SKU: "SHK200", Name: "Shake 200ml", Price: decimal.NewFromInt(50)},
		}}
		bot, sender := newTestBot(service)

		bot.handleUpdate(context.Background(), command(42, "/products"))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0], "Whey 1kg")
		assert.Contains(t, sender.sent[0], "in stock: 5")
		assert.Contains(t, sender.sent[0], "out of stock")
		assert.Contains(t, sender.sent[0], "`WHEY1`")
	})

	t.Run("needs a location first", func(t *testing.T) {
		service := &fakeService{productsErr: subscriber.ErrLocationNotSet}
		bot, sender := newTestBot(service)

		bot.handleUpdate(context.Background(), command(42, "/products"))

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0], "/setlocation")
	})
}

func TestHandleSubscribe(t *testing.T) {
	service := &fakeService{products: []subscriber.Product{
		{SKU: "WHEY1", Name: "Whey 1kg", Price: decimal.NewFromInt(1999), Quantity: 5, InStock: true},
	}}
	bot, sender := newTestBot(service)

	t.Run("known sku, case folded", func(t *testing.T) {
		bot.handleUpdate(context.Background(), command(42, "/subscribe whey1"))
		require.NotEmpty(t, sender.sent)
		assert.Contains(t, sender.sent[len(sender.sent)-1], "Subscribed to *Whey 1kg*")
	})

	t.Run("unknown sku", func(t *testing.T) {
		bot.handleUpdate(context.Background(), command(42, "/subscribe NOPE"))
		assert.Contains(t, sender.sent[len(sender.sent)-1], "don't know the SKU")
	})

	t.Run("missing argument", func(t *testing.T) {
		bot.handleUpdate(context.Background(), command(42, "/subscribe"))
		assert.Contains(t, sender.sent[len(sender.sent)-1], "/subscribe <sku>")
	})
}

func TestHandleStop(t *testing.T) {
	service := &fakeService{}
	bot, sender := newTestBot(service)

	bot.handleUpdate(context.Background(), command(42, "/stop"))

	assert.Equal(t, []int64{42}, service.deactivated)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "stopped")
}

func TestIgnoresNonCommands(t *testing.T) {
	service := &fakeService{}
	bot, sender := newTestBot(service)

	bot.handleUpdate(context.Background(), command(42, "hello"))
	botMsg := command(42, "/start")
	botMsg.Message.From.IsBot = true
	bot.handleUpdate(context.Background(), botMsg)
	bot.handleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1})

	assert.Empty(t, sender.sent)
	assert.Empty(t, service.registered)
}

func TestPollLoopAdvancesOffset(t *testing.T) {
	service := &fakeService{}
	sender := &fakeSender{}
	source := &fakeSource{batch: []tgbotapi.Update{command(42, "/start")}}
	bot := NewBot(source, sender, service, zap.NewNop())

	require.NoError(t, bot.Start(context.Background()))

	require.Eventually(t, func() bool {
		return len(source.seenOffsets()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bot.Stop(ctx))

	offsets := source.seenOffsets()
	assert.Equal(t, 0, offsets[0])
	assert.Equal(t, 101, offsets[1], "offset moves past the served update")
	assert.Equal(t, []int64{42}, service.registered)
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stockwatch/backend/internal/application/subscriber"
	"github.com/stockwatch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const helpHint = "Send /help to see what I can do."

const helpText = `*Commands*
/setlocation <pincode> - set your delivery pincode
/products - list products available in your area
/subscribe <sku> - get stock alerts for a product
/unsubscribe <sku> - stop alerts for a product
/mysubs - list your subscriptions
/stop - stop all alerts`

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) string {
	if err := b.service.Register(ctx, msg.From.ID, msg.From.UserName, msg.From.FirstName); err != nil {
		b.logger.Error("failed to register user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return somethingWentWrong
	}
	name := msg.From.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s! I watch product stock for your area and alert you on changes.\n\n"+
		"Start by setting your delivery pincode:\n`/setlocation 400001`", name)
}

func (b *Bot) handleSetLocation(ctx context.Context, userID int64, arg string) string {
	if !isPostalCode(arg) {
		return "Please send a 6-digit pincode, e.g. `/setlocation 400001`"
	}

	res, err := b.service.SetLocation(ctx, userID, arg)
	switch {
	case errors.Is(err, shared.ErrLocationNotServiceable):
		return fmt.Sprintf("Sorry, I couldn't find a store serving pincode %s. Try a nearby pincode.", arg)
	case errors.Is(err, shared.ErrNotFound):
		return "Please send /start first."
	case err != nil:
		b.logger.Error("failed to set location", zap.Int64("user_id", userID), zap.Error(err))
		return somethingWentWrong
	}

	place := res.City
	if place == "" {
		place = res.PartitionName
	}
	return fmt.Sprintf("📍 Location set to *%s* (%s).\n\nSend /products to browse what's available.", place, arg)
}

func (b *Bot) handleProducts(ctx context.Context, userID int64) string {
	products, err := b.service.Products(ctx, userID)
	switch {
	case errors.Is(err, subscriber.ErrLocationNotSet), errors.Is(err, shared.ErrNotFound):
		return "Set your pincode first with `/setlocation <pincode>`"
	case errors.Is(err, shared.ErrCatalogUnavailable), errors.Is(err, shared.ErrLocationNotServiceable):
		return "The catalog isn't reachable right now. Please try again in a few minutes."
	case err != nil:
		b.logger.Error("failed to fetch products", zap.Int64("user_id", userID), zap.Error(err))
		return somethingWentWrong
	}

	var sb strings.Builder
	sb.WriteString("*Products in your area*\n\n")
	for _, p := range products {
		sb.WriteString(formatProductLine(p))
	}
	sb.WriteString("\nSubscribe with `/subscribe <sku>`")
	return sb.String()
}

func (b *Bot) handleSubscribe(ctx context.Context, userID int64, sku string) string {
	if sku == "" {
		return "Tell me which product: `/subscribe <sku>`\nSend /products to see SKUs."
	}

	product, err := b.service.Subscribe(ctx, userID, strings.ToUpper(sku))
	switch {
	case errors.Is(err, subscriber.ErrLocationNotSet):
		return "Set your pincode first with `/setlocation <pincode>`"
	case errors.Is(err, shared.ErrNotFound):
		return fmt.Sprintf("I don't know the SKU `%s`. Send /products to see what's available.", sku)
	case err != nil:
		b.logger.Error("failed to subscribe", zap.Int64("user_id", userID), zap.String("sku", sku), zap.Error(err))
		return somethingWentWrong
	}

	return fmt.Sprintf("🔔 Subscribed to *%s*. I'll alert you when its stock changes.", product.Name)
}

func (b *Bot) handleUnsubscribe(ctx context.Context, userID int64, sku string) string {
	if sku == "" {
		return "Tell me which product: `/unsubscribe <sku>`"
	}

	err := b.service.Unsubscribe(ctx, userID, strings.ToUpper(sku))
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return fmt.Sprintf("You're not subscribed to `%s`.", sku)
	case err != nil:
		b.logger.Error("failed to unsubscribe", zap.Int64("user_id", userID), zap.String("sku", sku), zap.Error(err))
		return somethingWentWrong
	}

	return fmt.Sprintf("🔕 Unsubscribed from `%s`.", strings.ToUpper(sku))
}

func (b *Bot) handleSubscriptions(ctx context.Context, userID int64) string {
	subs, err := b.service.Subscriptions(ctx, userID)
	if err != nil {
		b.logger.Error("failed to list subscriptions", zap.Int64("user_id", userID), zap.Error(err))
		return somethingWentWrong
	}
	if len(subs) == 0 {
		return "You have no subscriptions. Send /products to find something to watch."
	}

	var sb strings.Builder
	sb.WriteString("*Your subscriptions*\n\n")
	for _, sub := range subs {
		if sub.Product != nil {
			sb.WriteString(formatProductLine(*sub.Product))
		} else {
			fmt.Fprintf(&sb, "• `%s`\n", sub.ProductSKU)
		}
	}
	return sb.String()
}

func (b *Bot) handleStop(ctx context.Context, userID int64) string {
	if err := b.service.Deactivate(ctx, userID); err != nil {
		b.logger.Error("failed to deactivate user", zap.Int64("user_id", userID), zap.Error(err))
		return somethingWentWrong
	}
	return "All alerts stopped. Send /start whenever you want them back."
}

const somethingWentWrong = "Something went wrong on my side. Please try again."

func formatProductLine(p subscriber.Product) string {
	stock := "out of stock"
	if p.InStock {
		stock = fmt.Sprintf("in stock: %d", p.Quantity)
	}

	name := p.Name
	if p.ProductURL != "" {
		name = fmt.Sprintf("[%s](%s)", p.Name, p.ProductURL)
	}
	return fmt.Sprintf("• %s\n  ₹%s, %s, SKU `%s`\n", name, p.Price.StringFixed(2), stock, p.SKU)
}

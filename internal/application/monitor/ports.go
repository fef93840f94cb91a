// Package monitor runs the periodic stock check: fetch each partition's
// catalog, diff subscribed products against the last observation, and notify
// subscribers about transitions.
package monitor

import (
	"context"

	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
)

// User is a subscriber eligible for monitoring: active, with a stored
// location.
type User struct {
	UserID        int64
	FirstName     string
	PostalCode    string
	PartitionID   string
	PartitionName string
}

// Subscription links a user to one product SKU.
type Subscription struct {
	UserID     int64
	ProductSKU string
}

// Store is the persistence surface the monitor needs.
type Store interface {
	ActiveUsersWithLocation(ctx context.Context) ([]User, error)
	ActiveSubscriptionsByUser(ctx context.Context, userID int64) ([]Subscription, error)
	UpsertProducts(ctx context.Context, items []catalog.ProductSnapshot) error
	DeactivateUser(ctx context.Context, userID int64) error
	RecordAlert(ctx context.Context, userID int64, sku string, quantity int) error
}

// Resolver maps a postal code to a catalog partition.
type Resolver interface {
	Resolve(ctx context.Context, postalCode string) (*location.Resolution, error)
}

// Fetcher produces the current catalog for a resolved partition.
type Fetcher interface {
	FetchCatalog(ctx context.Context, res *location.Resolution) ([]catalog.ProductSnapshot, error)
}

// Notifier delivers one message to one user. Implementations report a
// permanently unreachable recipient as shared.ErrRecipientUnreachable.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

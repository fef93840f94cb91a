// Package subscriber implements the chat-facing operations: user
// registration, location setup, catalog browsing, and subscription
// management.
package subscriber

import (
	"context"
	"sort"

	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/location"
	"github.com/stockwatch/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrLocationNotSet is returned by operations that need a delivery location
// before the user has set one.
var ErrLocationNotSet = shared.NewDomainError("LOCATION_NOT_SET", "Set a delivery location first")

// Store is the persistence surface the service needs.
type Store interface {
	SaveUser(ctx context.Context, user User) error
	FindUser(ctx context.Context, userID int64) (*User, error)
	UpdateUserLocation(ctx context.Context, userID int64, postalCode, partitionID, partitionName string) error
	SetUserActive(ctx context.Context, userID int64, active bool) error

	UpsertProducts(ctx context.Context, items []catalog.ProductSnapshot) error
	FindProductBySKU(ctx context.Context, sku string) (*Product, error)

	AddSubscription(ctx context.Context, userID int64, sku string) error
	RemoveSubscription(ctx context.Context, userID int64, sku string) error
	ActiveSubscriptions(ctx context.Context, userID int64) ([]Subscription, error)
	DeactivateAllSubscriptions(ctx context.Context, userID int64) error
}

// Resolver maps a postal code to a catalog partition.
type Resolver interface {
	Resolve(ctx context.Context, postalCode string) (*location.Resolution, error)
}

// Fetcher produces the current catalog for a resolved partition.
type Fetcher interface {
	FetchCatalog(ctx context.Context, res *location.Resolution) ([]catalog.ProductSnapshot, error)
}

// Service handles subscriber operations.
type Service struct {
	store    Store
	resolver Resolver
	fetcher  Fetcher
	logger   *zap.Logger
}

// NewService creates a subscriber service.
func NewService(store Store, resolver Resolver, fetcher Fetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// Register creates or reactivates a user record. Registration is idempotent;
// a returning user keeps their stored location.
func (s *Service) Register(ctx context.Context, userID int64, username, firstName string) error {
	if err := s.store.SaveUser(ctx, User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		IsActive:  true,
	}); err != nil {
		return err
	}
	return s.store.SetUserActive(ctx, userID, true)
}

// SetLocation resolves a postal code and stores the resulting partition on
// the user. A code that cannot be resolved leaves the stored location
// unchanged.
func (s *Service) SetLocation(ctx context.Context, userID int64, postalCode string) (*location.Resolution, error) {
	res, err := s.resolver.Resolve(ctx, postalCode)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateUserLocation(ctx, userID, postalCode, res.PartitionID, res.PartitionName); err != nil {
		return nil, err
	}
	s.logger.Info("user location set",
		zap.Int64("user_id", userID),
		zap.String("postal_code", postalCode),
		zap.String("partition", res.PartitionName),
	)
	return res, nil
}

// Products fetches the live catalog for the user's partition, persists the
// snapshots, and returns them sorted by name.
func (s *Service) Products(ctx context.Context, userID int64) ([]Product, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasLocation() {
		return nil, ErrLocationNotSet
	}

	res, err := s.resolver.Resolve(ctx, user.PostalCode)
	if err != nil {
		return nil, err
	}

	items, err := s.fetcher.FetchCatalog(ctx, res)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.ErrCatalogUnavailable
	}

	if err := s.store.UpsertProducts(ctx, items); err != nil {
		s.logger.Error("failed to persist product snapshots", zap.Error(err))
	}

	out := make([]Product, len(items))
	for i, item := range items {
		out[i] = Product{
			SKU:        item.SKU,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			InStock:    item.InStock,
			ProductURL: item.ProductURL,
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Subscribe adds a subscription to a known SKU. The SKU must have appeared in
// a previous catalog fetch.
func (s *Service) Subscribe(ctx context.Context, userID int64, sku string) (*Product, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasLocation() {
		return nil, ErrLocationNotSet
	}

	product, err := s.store.FindProductBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddSubscription(ctx, userID, sku); err != nil {
		return nil, err
	}

	s.logger.Info("subscription added",
		zap.Int64("user_id", userID),
		zap.String("sku", sku),
	)
	return product, nil
}

// Unsubscribe removes an active subscription.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, sku string) error {
	return s.store.RemoveSubscription(ctx, userID, sku)
}

// Subscriptions lists the user's active subscriptions.
func (s *Service) Subscriptions(ctx context.Context, userID int64) ([]Subscription, error) {
	return s.store.ActiveSubscriptions(ctx, userID)
}

// Deactivate handles a user opting out: the user stops receiving alerts and
// every subscription is deactivated. Subscriptions are kept as rows so a
// returning user can be reactivated.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	if err := s.store.SetUserActive(ctx, userID, false); err != nil {
		return err
	}
	return s.store.DeactivateAllSubscriptions(ctx, userID)
}

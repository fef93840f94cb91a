package persistence

import (
	"context"

	"github.com/stockwatch/backend/internal/application/subscriber"
	"github.com/stockwatch/backend/internal/domain/catalog"
)

// SubscriberStore adapts the gorm repositories to the subscriber service's
// persistence port.
type SubscriberStore struct {
	users         *GormUserRepository
	products      *GormProductRepository
	subscriptions *GormSubscriptionRepository
}

// NewSubscriberStore creates a subscriber store over the given repositories.
func NewSubscriberStore(
	users *GormUserRepository,
	products *GormProductRepository,
	subscriptions *GormSubscriptionRepository,
) *SubscriberStore {
	return &SubscriberStore{
		users:         users,
		products:      products,
		subscriptions: subscriptions,
	}
}

var _ subscriber.Store = (*SubscriberStore)(nil)

func (s *SubscriberStore) SaveUser(ctx context.Context, user subscriber.User) error {
	return s.users.Save(ctx, &User{
		UserID:    user.UserID,
		Username:  user.Username,
		FirstName: user.FirstName,
		IsActive:  user.IsActive,
	})
}

func (s *SubscriberStore) FindUser(ctx context.Context, userID int64) (*subscriber.User, error) {
	row, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &subscriber.User{
		UserID:        row.UserID,
		Username:      row.Username,
		FirstName:     row.FirstName,
		PostalCode:    row.PostalCode,
		PartitionID:   row.PartitionID,
		PartitionName: row.PartitionName,
		IsActive:      row.IsActive,
	}, nil
}

func (s *SubscriberStore) UpdateUserLocation(ctx context.Context, userID int64, postalCode, partitionID, partitionName string) error {
	return s.users.UpdateLocation(ctx, userID, postalCode, partitionID, partitionName)
}

func (s *SubscriberStore) SetUserActive(ctx context.Context, userID int64, active bool) error {
	return s.users.SetActive(ctx, userID, active)
}

func (s *SubscriberStore) UpsertProducts(ctx context.Context, items []catalog.ProductSnapshot) error {
	for _, item := range items {
		if err := s.products.Upsert(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SubscriberStore) FindProductBySKU(ctx context.Context, sku string) (*subscriber.Product, error) {
	row, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	return productView(row), nil
}

func (s *SubscriberStore) AddSubscription(ctx context.Context, userID int64, sku string) error {
	return s.subscriptions.Add(ctx, userID, sku)
}

func (s *SubscriberStore) RemoveSubscription(ctx context.Context, userID int64, sku string) error {
	return s.subscriptions.Remove(ctx, userID, sku)
}

func (s *SubscriberStore) ActiveSubscriptions(ctx context.Context, userID int64) ([]subscriber.Subscription, error) {
	rows, err := s.subscriptions.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]subscriber.Subscription, len(rows))
	for i, row := range rows {
		sub := subscriber.Subscription{ProductSKU: row.ProductSKU}
		// The product may never have been observed for this partition yet.
		if product, err := s.products.FindBySKU(ctx, row.ProductSKU); err == nil {
			sub.Product = productView(product)
		}
		out[i] = sub
	}
	return out, nil
}

func (s *SubscriberStore) DeactivateAllSubscriptions(ctx context.Context, userID int64) error {
	return s.subscriptions.DeactivateAllForUser(ctx, userID)
}

func productView(row *Product) *subscriber.Product {
	return &subscriber.Product{
		SKU:        row.SKU,
		Name:       row.Name,
		Price:      row.Price,
		Quantity:   row.Quantity,
		InStock:    row.InStock,
		ProductURL: row.ProductURL,
		UpdatedAt:  row.UpdatedAt,
	}
}

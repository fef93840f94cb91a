package persistence

import (
	"context"

	"github.com/stockwatch/backend/internal/application/monitor"
	"github.com/stockwatch/backend/internal/domain/catalog"
)

// MonitorStore adapts the gorm repositories to the monitor's persistence
// port.
type MonitorStore struct {
	users         *GormUserRepository
	products      *GormProductRepository
	subscriptions *GormSubscriptionRepository
	alerts        *GormAlertRepository
}

// NewMonitorStore creates a monitor store over the given repositories.
func NewMonitorStore(
	users *GormUserRepository,
	products *GormProductRepository,
	subscriptions *GormSubscriptionRepository,
	alerts *GormAlertRepository,
) *MonitorStore {
	return &MonitorStore{
		users:         users,
		products:      products,
		subscriptions: subscriptions,
		alerts:        alerts,
	}
}

var _ monitor.Store = (*MonitorStore)(nil)

func (s *MonitorStore) ActiveUsersWithLocation(ctx context.Context) ([]monitor.User, error) {
	rows, err := s.users.FindActiveWithLocation(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]monitor.User, len(rows))
	for i, row := range rows {
		out[i] = monitor.User{
			UserID:        row.UserID,
			FirstName:     row.FirstName,
			PostalCode:    row.PostalCode,
			PartitionID:   row.PartitionID,
			PartitionName: row.PartitionName,
		}
	}
	return out, nil
}

func (s *MonitorStore) ActiveSubscriptionsByUser(ctx context.Context, userID int64) ([]monitor.Subscription, error) {
	rows, err := s.subscriptions.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]monitor.Subscription, len(rows))
	for i, row := range rows {
		out[i] = monitor.Subscription{
			UserID:     row.UserID,
			ProductSKU: row.ProductSKU,
		}
	}
	return out, nil
}

func (s *MonitorStore) UpsertProducts(ctx context.Context, items []catalog.ProductSnapshot) error {
	for _, item := range items {
		if err := s.products.Upsert(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *MonitorStore) DeactivateUser(ctx context.Context, userID int64) error {
	return s.users.SetActive(ctx, userID, false)
}

func (s *MonitorStore) RecordAlert(ctx context.Context, userID int64, sku string, quantity int) error {
	return s.alerts.Record(ctx, userID, sku, quantity)
}

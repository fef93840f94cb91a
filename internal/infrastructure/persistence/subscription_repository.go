package persistence

import (
	"context"
	"time"

	"github.com/stockwatch/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubscriptionRepository implements subscription persistence using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// Add subscribes a user to a SKU, reactivating a previous subscription if one
// exists for the pair.
func (r *GormSubscriptionRepository) Add(ctx context.Context, userID int64, sku string) error {
	sub := Subscription{
		UserID:     userID,
		ProductSKU: sku,
		IsActive:   true,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_sku"}},
		DoUpdates: clause.Assignments(map[string]any{"is_active": true, "updated_at": time.Now()}),
	}).Create(&sub).Error
}

// Remove deactivates a subscription. The row is kept so the alert history
// stays joinable.
func (r *GormSubscriptionRepository) Remove(ctx context.Context, userID int64, sku string) error {
	result := r.db.WithContext(ctx).Model(&Subscription{}).
		Where("user_id = ? AND product_sku = ?", userID, sku).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindActiveByUser returns a user's active subscriptions
func (r *GormSubscriptionRepository) FindActiveByUser(ctx context.Context, userID int64) ([]Subscription, error) {
	var subs []Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// DeactivateAllForUser removes every subscription of a user in one statement.
func (r *GormSubscriptionRepository) DeactivateAllForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&Subscription{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error
}

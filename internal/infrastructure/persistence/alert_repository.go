package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/stockwatch/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAlertRepository implements the stock-alert ledger using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// Record appends a sent notification to the ledger.
func (r *GormAlertRepository) Record(ctx context.Context, userID int64, sku string, quantity int) error {
	alert := StockAlert{
		UserID:     userID,
		ProductSKU: sku,
		Quantity:   quantity,
	}
	return r.db.WithContext(ctx).Create(&alert).Error
}

// LastFor returns the most recent alert for a (user, sku) pair.
func (r *GormAlertRepository) LastFor(ctx context.Context, userID int64, sku string) (*StockAlert, error) {
	var alert StockAlert
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_sku = ?", userID, sku).
		Order("notified_at DESC").
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// CountSince reports how many alerts were recorded for anyone after a cutoff.
func (r *GormAlertRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&StockAlert{}).
		Where("notified_at >= ?", since).
		Count(&count).Error
	return count, err
}

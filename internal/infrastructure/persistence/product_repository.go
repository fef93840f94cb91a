package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/stockwatch/backend/internal/domain/catalog"
	"github.com/stockwatch/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements the shared product cache using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Upsert writes a fresh snapshot over any previous state for the product.
// Last write wins; each upsert is independently idempotent.
func (r *GormProductRepository) Upsert(ctx context.Context, snapshot catalog.ProductSnapshot) error {
	row := Product{
		ProductID:    snapshot.ProductID,
		SKU:          snapshot.SKU,
		Name:         snapshot.Name,
		Price:        snapshot.Price,
		ComparePrice: snapshot.ComparePrice,
		ImageURL:     snapshot.ImageURL,
		ProductURL:   snapshot.ProductURL,
		InStock:      snapshot.InStock,
		Quantity:     snapshot.Quantity,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sku", "name", "price", "compare_price", "image_url",
			"product_url", "in_stock", "quantity", "updated_at",
		}),
	}).Create(&row).Error
}

// FindBySKU finds a cached product by SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAll returns every cached product ordered by name
func (r *GormProductRepository) FindAll(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Package catalog holds the product snapshot model produced by a live
// catalog fetch for one partition.
package catalog

import (
	"github.com/shopspring/decimal"
)

// ProductSnapshot is one product's state as observed in a single catalog
// fetch. SKU is the stable cross-fetch identity key; the site reuses product
// ids, so everything downstream diffs by SKU.
type ProductSnapshot struct {
	ProductID    string
	SKU          string
	Name         string
	Slug         string
	Price        decimal.Decimal
	ComparePrice decimal.Decimal
	Quantity     int
	InStock      bool
	ImageURL     string
	ProductURL   string
}

// NewProductSnapshot builds a snapshot with InStock derived from quantity.
// InStock is never set independently of Quantity.
func NewProductSnapshot(productID, sku, name, slug string, price, comparePrice decimal.Decimal, quantity int, imageURL, productURL string) ProductSnapshot {
	if quantity < 0 {
		quantity = 0
	}
	return ProductSnapshot{
		ProductID:    productID,
		SKU:          sku,
		Name:         name,
		Slug:         slug,
		Price:        price,
		ComparePrice: comparePrice,
		Quantity:     quantity,
		InStock:      quantity > 0,
		ImageURL:     imageURL,
		ProductURL:   productURL,
	}
}

// DeduplicateBySKU enforces SKU uniqueness within one fetch: the first
// occurrence wins, later duplicates are dropped, and items with an empty SKU
// are discarded because nothing downstream can track them.
func DeduplicateBySKU(items []ProductSnapshot) []ProductSnapshot {
	seen := make(map[string]struct{}, len(items))
	out := make([]ProductSnapshot, 0, len(items))
	for _, item := range items {
		if item.SKU == "" {
			continue
		}
		if _, dup := seen[item.SKU]; dup {
			continue
		}
		seen[item.SKU] = struct{}{}
		out = append(out, item)
	}
	return out
}

// IndexBySKU builds the lookup used by the diff engine. Input is expected to
// be deduplicated already; on duplicates the first occurrence wins here too.
func IndexBySKU(items []ProductSnapshot) map[string]ProductSnapshot {
	m := make(map[string]ProductSnapshot, len(items))
	for _, item := range items {
		if _, ok := m[item.SKU]; !ok {
			m[item.SKU] = item
		}
	}
	return m
}

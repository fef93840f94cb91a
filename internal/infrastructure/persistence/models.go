package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User is a chat subscriber. UserID is the chat platform's numeric id, so it
// doubles as the primary key.
type User struct {
	UserID        int64  `gorm:"primaryKey"`
	Username      string `gorm:"type:varchar(100)"`
	FirstName     string `gorm:"type:varchar(100)"`
	PostalCode    string `gorm:"type:varchar(10);index"`
	PartitionID   string `gorm:"type:varchar(64);index"`
	PartitionName string `gorm:"type:varchar(64)"`
	IsActive      bool   `gorm:"not null;default:true;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// Product is the shared cache of the most recently fetched snapshot per SKU.
// Other collaborators (the chat interface) read it to render product lists
// without triggering a live fetch.
type Product struct {
	ProductID    string          `gorm:"type:varchar(64);primaryKey"`
	SKU          string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ComparePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImageURL     string          `gorm:"type:text"`
	ProductURL   string          `gorm:"type:text"`
	InStock      bool            `gorm:"not null;default:false"`
	Quantity     int             `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// Subscription links a user to a tracked SKU. Unsubscribing deactivates the
// row rather than deleting it, so re-subscribing is an upsert.
type Subscription struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_subscription_user_sku,priority:1"`
	ProductSKU string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_subscription_user_sku,priority:2"`
	IsActive   bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

// BeforeCreate assigns the row id
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StockAlert is the append-only ledger of notifications actually sent.
type StockAlert struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     int64     `gorm:"not null;index"`
	ProductSKU string    `gorm:"type:varchar(64);not null;index"`
	Quantity   int       `gorm:"not null;default:0"`
	NotifiedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockAlert) TableName() string {
	return "stock_alerts"
}

// BeforeCreate assigns the row id and timestamp
func (a *StockAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.NotifiedAt.IsZero() {
		a.NotifiedAt = time.Now()
	}
	return nil
}

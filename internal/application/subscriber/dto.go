package subscriber

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a chat user as the service sees it.
type User struct {
	UserID        int64
	Username      string
	FirstName     string
	PostalCode    string
	PartitionID   string
	PartitionName string
	IsActive      bool
}

// HasLocation reports whether the user has completed location setup.
func (u User) HasLocation() bool {
	return u.PostalCode != "" && u.PartitionID != ""
}

// Product is one catalog product as last observed.
type Product struct {
	SKU        string
	Name       string
	Price      decimal.Decimal
	Quantity   int
	InStock    bool
	ProductURL string
	UpdatedAt  time.Time
}

// Subscription is one active subscription joined with its product, when the
// product has been observed.
type Subscription struct {
	ProductSKU string
	Product    *Product
}

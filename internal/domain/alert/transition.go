// Package alert classifies stock-state transitions and decides when a
// subscriber should be notified.
package alert

// Kind identifies the stock transition a notification reports.
type Kind string

const (
	KindRestocked Kind = "restocked"
	KindIncreased Kind = "increased"
	KindDecreased Kind = "decreased"
	KindLowStock  Kind = "low_stock"
	KindSoldOut   Kind = "sold_out"
)

// LowStockThreshold is the quantity at or below which a decrease is reported
// as low stock rather than a plain decrease.
const LowStockThreshold = 10

// StockState is the (in_stock, quantity) pair a transition is computed over.
type StockState struct {
	InStock  bool
	Quantity int
}

// Event is a single notification-worthy transition for one subscriber and one
// SKU. Transient: constructed, sent, and logged to the alert ledger.
type Event struct {
	UserID        int64
	SKU           string
	Kind          Kind
	Quantity      int
	QuantityDelta int
}

// Classify applies the transition table to a previous and current state.
// The second return is false when the transition warrants no notification
// (unchanged state, or an unchanged out-of-stock condition).
func Classify(prev, cur StockState) (Kind, bool) {
	switch {
	case cur.InStock && !prev.InStock:
		return KindRestocked, true
	case !cur.InStock && prev.InStock:
		return KindSoldOut, true
	case cur.InStock && prev.InStock && cur.Quantity > prev.Quantity:
		return KindIncreased, true
	case cur.InStock && prev.InStock && cur.Quantity < prev.Quantity:
		if cur.Quantity <= LowStockThreshold {
			return KindLowStock, true
		}
		return KindDecreased, true
	default:
		return "", false
	}
}

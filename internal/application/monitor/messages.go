package monitor

import (
	"fmt"
	"strings"

	"github.com/stockwatch/backend/internal/domain/alert"
	"github.com/stockwatch/backend/internal/domain/catalog"
)

// renderEvent formats one transition as a Markdown chat message.
func renderEvent(event alert.Event, snapshot catalog.ProductSnapshot) string {
	var b strings.Builder

	switch event.Kind {
	case alert.KindRestocked:
		b.WriteString("🎉 *Back in stock!*\n\n")
	case alert.KindIncreased:
		b.WriteString("📈 *Stock increased*\n\n")
	case alert.KindDecreased:
		b.WriteString("📉 *Stock decreased*\n\n")
	case alert.KindLowStock:
		b.WriteString("⚠️ *Low stock*\n\n")
	case alert.KindSoldOut:
		b.WriteString("😔 *Sold out*\n\n")
	}

	b.WriteString(productLine(snapshot))
	b.WriteString("\n")

	switch event.Kind {
	case alert.KindRestocked:
		fmt.Fprintf(&b, "Available now: %d units\n", event.Quantity)
	case alert.KindIncreased:
		fmt.Fprintf(&b, "Stock: %d units (+%d)\n", event.Quantity, event.QuantityDelta)
	case alert.KindDecreased:
		fmt.Fprintf(&b, "Stock: %d units (%d)\n", event.Quantity, event.QuantityDelta)
	case alert.KindLowStock:
		fmt.Fprintf(&b, "Only %d left, grab it before it's gone!\n", event.Quantity)
	case alert.KindSoldOut:
		b.WriteString("You'll be notified when it's back.\n")
	}

	if event.Kind != alert.KindSoldOut && !snapshot.Price.IsZero() {
		fmt.Fprintf(&b, "Price: ₹%s", snapshot.Price.StringFixed(2))
	}

	return strings.TrimRight(b.String(), "\n")
}

func productLine(snapshot catalog.ProductSnapshot) string {
	if snapshot.ProductURL != "" {
		return fmt.Sprintf("[%s](%s)", snapshot.Name, snapshot.ProductURL)
	}
	return snapshot.Name
}

package chat

import (
	"context"
	"fmt"
	"strings"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
)

// Assistant answers free text that is neither an analytics query nor a
// product search, i.e. messages sent from a product page.
type Assistant interface {
	Reply(ctx context.Context, message string, product *backend.Product) (string, error)
}

// StaticAssistant returns a fixed help text built from the product and the
// query menu.
type StaticAssistant struct{}

func (StaticAssistant) Reply(_ context.Context, _ string, product *backend.Product) (string, error) {
	return HelpText(product), nil
}

// HelpText is the fallback reply for free text on a product page.
func HelpText(product *backend.Product) string {
	var b strings.Builder
	if product != nil {
		fmt.Fprintf(&b, "You're looking at %s", analytics.TruncateName(product.Name))
		if product.DiscountedPrice > 0 {
			fmt.Fprintf(&b, " ($%s", analytics.ToFixed(float64(product.DiscountedPrice), 2))
			if product.ReviewCount > 0 {
				fmt.Fprintf(&b, ", %s stars from %d reviews", analytics.ToFixed(float64(product.AvgRating), 1), int64(product.ReviewCount))
			}
			b.WriteString(")")
		}
		b.WriteString(". ")
	}
	b.WriteString("I can't answer that directly, but I can help with store-wide insights. Type a number:")
	for _, q := range analytics.Queries() {
		fmt.Fprintf(&b, "\n%d. %s", int(q.ID), q.Label)
	}
	return b.String()
}

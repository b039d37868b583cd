package notifications

import (
	"fmt"
	"strings"

	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
)

// LowStockMessage renders the alert mail for a product that just crossed
// into the low-stock band.
func LowStockMessage(product models.Product) (subject, body string) {
	subject = fmt.Sprintf("Low stock alert: %s", product.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "Product %q is running low.\n\n", product.Name)
	fmt.Fprintf(&b, "Product ID:      %d\n", product.ID)
	fmt.Fprintf(&b, "Remaining stock: %d\n", product.StockQuantity)
	fmt.Fprintf(&b, "Price:           %s\n", product.Price.StringFixed(2))
	b.WriteString("\nRestock soon to avoid missed sales.\n")
	return subject, b.String()
}

// DigestMessage renders the daily sales digest mail.
func DigestMessage(summary orders.SalesSummary) (subject, body string) {
	date := summary.Date.Format("2006-01-02")
	subject = fmt.Sprintf("Daily sales summary for %s", date)

	var b strings.Builder
	fmt.Fprintf(&b, "Sales summary for %s\n\n", date)
	fmt.Fprintf(&b, "Orders:  %d\n", summary.OrderCount)
	fmt.Fprintf(&b, "Revenue: %s\n", summary.Revenue.StringFixed(2))

	if len(summary.Products) > 0 {
		b.WriteString("\nTop products:\n")
		for _, product := range summary.Products {
			fmt.Fprintf(&b, "  - %s: %d units, %s\n",
				product.Name, product.Units, product.Revenue.StringFixed(2))
		}
	} else {
		b.WriteString("\nNo orders were placed today.\n")
	}
	return subject, b.String()
}

package stock

import (
	"fmt"

	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
)

// Outcome tags the result of an add-to-cart stock decision.
type Outcome int

const (
	// Accept means the requested quantity fits within available stock.
	Accept Outcome = iota
	// Adjust means the merged cart quantity was capped at available stock.
	Adjust
	// Reject means the requested quantity alone exceeds available stock.
	Reject
)

const (
	// MsgInsufficient is surfaced when a request alone exceeds stock.
	MsgInsufficient = "Insufficient stock available"
	// MsgAdjusted is surfaced when a merged cart line was capped at stock.
	MsgAdjusted = "Quantity adjusted to available stock"
)

// Decision carries the outcome plus the quantity the cart line should hold.
type Decision struct {
	Outcome  Outcome
	Quantity int
	Message  string
}

// Decide applies the add-to-cart policy. requested is the incoming quantity,
// existing the quantity already in the cart line (zero for a new line), and
// available the product's current stock.
//
// The requested quantity alone exceeding stock is a hard reject; only the
// merged total overflowing is softened into an adjustment.
func Decide(requested, existing, available int) Decision {
	if requested > available {
		return Decision{Outcome: Reject, Quantity: existing, Message: MsgInsufficient}
	}
	merged := existing + requested
	if merged > available {
		return Decision{Outcome: Adjust, Quantity: available, Message: MsgAdjusted}
	}
	return Decision{Outcome: Accept, Quantity: merged}
}

// ValidateLine applies the checkout rule: a line whose quantity exceeds the
// current stock reading aborts the whole checkout, naming the product.
func ValidateLine(productName string, quantity, available int) error {
	if quantity > available {
		return pkgerrors.New(pkgerrors.CodeStock, fmt.Sprintf("Insufficient stock for %s", productName)).
			WithDetails(map[string]any{
				"product":   productName,
				"requested": quantity,
				"available": available,
			})
	}
	return nil
}

// IsLowStock reports whether a post-decrement stock level sits in the
// low-stock band (0, threshold]. Zero is out of stock and does not alert.
func IsLowStock(available, threshold int) bool {
	return available > 0 && available <= threshold
}

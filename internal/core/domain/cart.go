package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineItem pairs a product snapshot with a quantity. TrueID addresses the line
// for removal and is distinct from the product id.
type LineItem struct {
	TrueID   string  `json:"trueId,omitempty"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price × quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart is the mutable set of line items owned by one user.
type Cart struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	LineItems []LineItem      `json:"lineItems"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	return json.Marshal(struct {
		plain
		TotalCost json.Number `json:"totalCost"`
	}{plain(c), jsonNumber(c.TotalCost)})
}

// Total recomputes the cart total from its line items.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range c.LineItems {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Reconcile replaces TotalCost with the recomputed total and reports whether
// the previously stored value disagreed.
func (c *Cart) Reconcile() bool {
	total := c.Total()
	stale := !c.TotalCost.Equal(total)
	c.TotalCost = total
	return stale
}

// IsEmpty reports whether the cart has no line items.
func (c Cart) IsEmpty() bool { return len(c.LineItems) == 0 }

// LineFor returns the first line item holding the given product.
func (c Cart) LineFor(productID string) (LineItem, bool) {
	for _, li := range c.LineItems {
		if li.Product.ID == productID {
			return li, true
		}
	}
	return LineItem{}, false
}

// Line returns the line item with the given trueId.
func (c Cart) Line(trueID string) (LineItem, bool) {
	for _, li := range c.LineItems {
		if li.TrueID == trueID {
			return li, true
		}
	}
	return LineItem{}, false
}

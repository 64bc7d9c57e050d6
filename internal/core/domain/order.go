package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryLeadDays is the fixed delivery policy: orders arrive two calendar
// days after they are placed.
const DeliveryLeadDays = 2

// DeliveryDate returns orderDate plus DeliveryLeadDays calendar days in the
// same location.
func DeliveryDate(orderDate time.Time) time.Time {
	return orderDate.AddDate(0, 0, DeliveryLeadDays)
}

// Order is the immutable record created from a cart at checkout.
type Order struct {
	ID           string          `json:"id"`
	CartID       string          `json:"cartId,omitempty"`
	UserID       string          `json:"userId,omitempty"`
	Address      string          `json:"address"`
	OrderDate    time.Time       `json:"orderDate"`
	DeliveryDate time.Time       `json:"deliveryDate"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	LineItems    []LineItem      `json:"lineItems"`
}

// MarshalJSON writes the total as a JSON number.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	return json.Marshal(struct {
		plain
		TotalCost json.Number `json:"totalCost"`
	}{plain(o), jsonNumber(o.TotalCost)})
}

// ShortRef returns the last four characters of the id, upper-cased, as shown
// on the confirmation view.
func (o Order) ShortRef() string {
	id := o.ID
	if len(id) > 4 {
		id = id[len(id)-4:]
	}
	return strings.ToUpper(id)
}

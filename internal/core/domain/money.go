package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied on the checkout summary.
var TaxRate = decimal.RequireFromString("0.18")

// PriceSummary is the subtotal / tax / total breakdown shown at checkout.
type PriceSummary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Summarize computes the checkout breakdown for a cart subtotal.
func Summarize(subtotal decimal.Decimal) PriceSummary {
	tax := subtotal.Mul(TaxRate).Round(2)
	return PriceSummary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// PriceString renders an amount as dollars with two decimals and thousands
// separators, e.g. "$1,234.50".
func PriceString(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String() + "." + frac
}

// jsonNumber renders amount for the wire, where prices are JSON numbers.
func jsonNumber(amount decimal.Decimal) json.Number {
	return json.Number(amount.String())
}

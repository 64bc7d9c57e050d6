package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/minimal/storefront/internal/core/domain"
)

const dateLayout = "Mon Jan 2 2006"

func table(write func(w *tabwriter.Writer)) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	write(w)
	_ = w.Flush()
	return b.String()
}

func renderProducts(products []domain.Product) string {
	if len(products) == 0 {
		return "no products\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tRATING")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.DisplayName(), p.Category, domain.PriceString(p.Price), rating(p))
		}
	})
}

func renderProduct(p domain.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", p.DisplayName(), domain.PriceString(p.Price))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", p.Description)
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "category: %s\n", p.Category)
	}
	fmt.Fprintf(&b, "rating: %s\n", rating(p))
	for _, r := range p.ReviewsByRating() {
		fmt.Fprintf(&b, "  %d/5 %s: %s\n", r.Rating, r.Username, r.Body)
	}
	return b.String()
}

func rating(p domain.Product) string {
	if len(p.Reviews) == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", p.AverageRating(), len(p.Reviews))
}

func renderCart(cart domain.Cart, summary domain.PriceSummary) string {
	if cart.IsEmpty() {
		return "cart is empty\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "LINE\tPRODUCT\tQTY\tPRICE\tSUBTOTAL")
		for _, li := range cart.LineItems {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				li.TrueID, li.Product.DisplayName(), li.Quantity,
				domain.PriceString(li.Product.Price), domain.PriceString(li.Subtotal()))
		}
		fmt.Fprintf(w, "\t\t\tsubtotal\t%s\n", domain.PriceString(summary.Subtotal))
		fmt.Fprintf(w, "\t\t\ttax\t%s\n", domain.PriceString(summary.Tax))
		fmt.Fprintf(w, "\t\t\ttotal\t%s\n", domain.PriceString(summary.Total))
	})
}

func renderConfirmation(o domain.Order) string {
	return fmt.Sprintf("order #%s placed, %s, arriving %s\n",
		o.ShortRef(), domain.PriceString(o.TotalCost), o.DeliveryDate.Local().Format(dateLayout))
}

func renderOrders(orders []domain.Order) string {
	if len(orders) == 0 {
		return "no orders\n"
	}
	return table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tPLACED\tDELIVERY\tITEMS\tTOTAL")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				o.ID, day(o.OrderDate), day(o.DeliveryDate), len(o.LineItems), domain.PriceString(o.TotalCost))
		}
	})
}

func renderOrder(o domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "order #%s to %s\n", o.ShortRef(), o.Address)
	fmt.Fprintf(&b, "placed %s, delivery %s\n", day(o.OrderDate), day(o.DeliveryDate))
	b.WriteString(table(func(w *tabwriter.Writer) {
		for _, li := range o.LineItems {
			fmt.Fprintf(w, "  %s\tx%d\t%s\n", li.Product.DisplayName(), li.Quantity, domain.PriceString(li.Subtotal()))
		}
	}))
	fmt.Fprintf(&b, "total %s\n", domain.PriceString(o.TotalCost))
	return b.String()
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

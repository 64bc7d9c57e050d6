package domain

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Review is an append-only rating left by a user on a product.
type Review struct {
	UserID   string `json:"userId"   validate:"required"`
	Username string `json:"username"`
	Rating   int    `json:"rating"   validate:"gte=0,lte=5"`
	Body     string `json:"reviewBody"`
	Date     string `json:"date,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"                validate:"required_without=Title"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"               validate:"gte=0"`
	Images      []string        `json:"images,omitempty"    validate:"dive,required"`
	Tags        []string        `json:"tags,omitempty"`
	Category    string          `json:"category,omitempty"`
	Reviews     []Review        `json:"reviews,omitempty"`
}

// MarshalJSON writes the price as a JSON number.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(p), jsonNumber(p.Price)})
}

// DisplayName prefers the name and falls back to the title.
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Title
}

// AverageRating returns the mean review rating, or 0 when there are no reviews.
func (p Product) AverageRating() float64 {
	if len(p.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(p.Reviews))
}

// ReviewsByRating returns a copy of the reviews ordered from highest to lowest
// rating. Equal ratings keep their submission order.
func (p Product) ReviewsByRating() []Review {
	out := make([]Review, len(p.Reviews))
	copy(out, p.Reviews)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out
}

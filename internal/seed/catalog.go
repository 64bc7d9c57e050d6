// Package seed fills a storefront catalog with generated products.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minimal/storefront/internal/core/domain"
)

// ProductAdder creates one product on behalf of actor.
type ProductAdder interface {
	AddProduct(ctx context.Context, actor *domain.User, p domain.Product) (*domain.Product, error)
}

// Generator produces deterministic products for a given seed.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a Generator. Seed 0 picks a random seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Product returns one generated product without id or reviews.
func (g *Generator) Product() domain.Product {
	f := g.faker
	name := f.ProductName()
	return domain.Product{
		Name:        name,
		Title:       strings.ToUpper(name[:1]) + name[1:],
		Description: f.Sentence(12),
		Price:       decimal.NewFromFloat(f.Price(1, 500)).Round(2),
		Images:      []string{fmt.Sprintf("https://picsum.photos/seed/%s/400/400", f.UUID())},
		Tags:        []string{f.ProductFeature(), f.ProductFeature()},
		Category:    f.ProductCategory(),
	}
}

// Products returns n generated products.
func (g *Generator) Products(n int) []domain.Product {
	out := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Product())
	}
	return out
}

// Run adds every product through adder and returns the created ones. It stops
// at the first failure.
func Run(ctx context.Context, adder ProductAdder, actor *domain.User, products []domain.Product, log zerolog.Logger) ([]domain.Product, error) {
	created := make([]domain.Product, 0, len(products))
	for i, p := range products {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		got, err := adder.AddProduct(ctx, actor, p)
		if err != nil {
			return created, fmt.Errorf("seed product %d (%s): %w", i+1, p.Name, err)
		}
		log.Debug().Str("product_id", got.ID).Str("name", got.Name).Msg("product seeded")
		created = append(created, *got)
	}
	log.Info().Int("count", len(created)).Msg("catalog seeded")
	return created, nil
}

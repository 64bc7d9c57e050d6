package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
	"github.com/minimal/storefront/internal/pkg/validate"
)

// CatalogGate fronts catalog reads and puts every catalog mutation behind an
// admin verdict. The backend re-checks admin status on its own; the gate only
// keeps non-admins from issuing calls that would be refused.
type CatalogGate struct {
	backend   ports.CatalogBackend
	auth      Authorizer
	validator *validate.Validator
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCatalogGate(backend ports.CatalogBackend, auth Authorizer, validator *validate.Validator, logger zerolog.Logger) *CatalogGate {
	return &CatalogGate{
		backend:   backend,
		auth:      auth,
		validator: validator,
		now:       time.Now,
		logger:    logger,
	}
}

func (g *CatalogGate) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := g.backend.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (g *CatalogGate) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	p, err := g.backend.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (g *CatalogGate) AddProduct(ctx context.Context, actor *domain.User, p domain.Product) (*domain.Product, error) {
	if err := g.authorize(ctx, actor, "add"); err != nil {
		return nil, err
	}
	if err := g.validator.Struct(p); err != nil {
		return nil, err
	}
	created, err := g.backend.AddProduct(ctx, p, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("add product: %w", err)
	}
	g.logger.Info().Str("product_id", created.ID).Str("user_id", actor.ID).Msg("product added")
	return created, nil
}

func (g *CatalogGate) UpdateProduct(ctx context.Context, actor *domain.User, id string, p domain.Product) (*domain.Product, error) {
	if err := g.authorize(ctx, actor, "update"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	if err := g.validator.Struct(p); err != nil {
		return nil, err
	}
	updated, err := g.backend.UpdateProduct(ctx, id, p, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	g.logger.Info().Str("product_id", id).Str("user_id", actor.ID).Msg("product updated")
	return updated, nil
}

// DeleteProduct removes a product. Deleting a product that is already gone
// succeeds.
func (g *CatalogGate) DeleteProduct(ctx context.Context, actor *domain.User, id string) error {
	if err := g.authorize(ctx, actor, "delete"); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	err := g.backend.DeleteProduct(ctx, id, actor.ID)
	if errors.Is(err, domain.ErrNotFound) {
		g.logger.Debug().Str("product_id", id).Msg("product already deleted")
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	g.logger.Info().Str("product_id", id).Str("user_id", actor.ID).Msg("product deleted")
	return nil
}

// AddReview appends a review by actor. Any signed-in user may review.
func (g *CatalogGate) AddReview(ctx context.Context, actor *domain.User, productID string, rating int, body string) (*domain.Product, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	review := domain.Review{
		UserID:   actor.ID,
		Username: actor.Username,
		Rating:   rating,
		Body:     strings.TrimSpace(body),
		Date:     g.now().Format(time.DateOnly),
	}
	if err := g.validator.Struct(review); err != nil {
		return nil, err
	}
	p, err := g.backend.AddReview(ctx, productID, review)
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	return p, nil
}

func (g *CatalogGate) authorize(ctx context.Context, actor *domain.User, action string) error {
	if !actor.Authenticated() {
		metrics.GateDecisionsTotal.WithLabelValues(action, "denied").Inc()
		return domain.ErrUnauthenticated
	}
	v := g.auth.Resolve(ctx, actor)
	if !v.IsAdmin {
		metrics.GateDecisionsTotal.WithLabelValues(action, "denied").Inc()
		g.logger.Info().Str("user_id", actor.ID).Str("action", action).Str("source", string(v.Source)).Msg("catalog mutation denied")
		return fmt.Errorf("%s product: %w", action, domain.ErrUnauthorized)
	}
	metrics.GateDecisionsTotal.WithLabelValues(action, "allowed").Inc()
	return nil
}

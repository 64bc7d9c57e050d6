package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
)

// MergePolicy controls what adding a product already in the cart does.
type MergePolicy string

const (
	// MergeAppend posts a fresh line item on every add.
	MergeAppend MergePolicy = "append"
	// MergeByProduct folds the quantity into the existing line for the product.
	MergeByProduct MergePolicy = "merge"
)

// CartManager keeps the shopper's cart in sync with the backend.
type CartManager struct {
	backend ports.CartBackend
	policy  MergePolicy
	logger  zerolog.Logger
}

func NewCartManager(backend ports.CartBackend, policy MergePolicy, logger zerolog.Logger) *CartManager {
	if policy != MergeByProduct {
		policy = MergeAppend
	}
	return &CartManager{backend: backend, policy: policy, logger: logger}
}

// Policy returns the merge policy in effect.
func (m *CartManager) Policy() MergePolicy { return m.policy }

// GetCart fetches the user's cart and recomputes its total. It returns
// domain.ErrNotFound when the user has no cart yet.
func (m *CartManager) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	cart, err := m.backend.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return m.reconcile(cart), nil
}

// View is GetCart for display: a user without a cart sees an empty one.
func (m *CartManager) View(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := m.GetCart(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Cart{UserID: userID, LineItems: []domain.LineItem{}}, nil
	}
	return cart, err
}

// AddToCart adds quantity units of product to the user's cart and returns the
// updated cart. The backend creates the cart on first add.
func (m *CartManager) AddToCart(ctx context.Context, userID string, product domain.Product, quantity int) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if product.ID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}

	item := domain.LineItem{Product: product, Quantity: quantity}
	op := "add"

	if m.policy == MergeByProduct {
		current, err := m.backend.GetCart(ctx, userID)
		switch {
		case err == nil:
			if line, ok := current.LineFor(product.ID); ok && line.TrueID != "" {
				item.TrueID = line.TrueID
				item.Quantity = line.Quantity + quantity
				op = "merge"
			}
		case errors.Is(err, domain.ErrNotFound):
		default:
			return nil, fmt.Errorf("add to cart: %w", err)
		}
	}

	cart, err := m.backend.AddToCart(ctx, userID, item)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	metrics.CartMutationsTotal.WithLabelValues(op).Inc()
	m.logger.Debug().Str("user_id", userID).Str("product_id", product.ID).Int("quantity", item.Quantity).Str("op", op).Msg("cart updated")
	return m.reconcile(cart), nil
}

// AddOne adds a single unit of product.
func (m *CartManager) AddOne(ctx context.Context, userID string, product domain.Product) (*domain.Cart, error) {
	return m.AddToCart(ctx, userID, product, 1)
}

// RemoveLineItem deletes the line addressed by its trueId and returns the cart
// as the backend reported it.
func (m *CartManager) RemoveLineItem(ctx context.Context, lineItemID, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(lineItemID) == "" {
		return nil, fmt.Errorf("%w: line item id is required", domain.ErrValidation)
	}
	cart, err := m.backend.RemoveLineItem(ctx, lineItemID, userID)
	if err != nil {
		return nil, fmt.Errorf("remove line item: %w", err)
	}
	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	if cart == nil {
		return nil, nil
	}
	return m.reconcile(cart), nil
}

// RemoveAndRefresh removes a line and then re-fetches the whole cart.
func (m *CartManager) RemoveAndRefresh(ctx context.Context, lineItemID, userID string) (*domain.Cart, error) {
	if _, err := m.RemoveLineItem(ctx, lineItemID, userID); err != nil {
		return nil, err
	}
	return m.View(ctx, userID)
}

func (m *CartManager) reconcile(cart *domain.Cart) *domain.Cart {
	if cart == nil {
		return nil
	}
	reported := cart.TotalCost
	if cart.Reconcile() {
		metrics.CartTotalCorrectionsTotal.Inc()
		m.logger.Warn().
			Str("cart_id", cart.ID).
			Str("reported", reported.String()).
			Str("computed", cart.TotalCost.String()).
			Msg("cart total disagreed with line items, recomputed")
	}
	if cart.LineItems == nil {
		cart.LineItems = []domain.LineItem{}
	}
	return cart
}

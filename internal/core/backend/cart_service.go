package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

var _ ports.CartService = (*CartService)(nil)

// CartService owns the per-user cart. Totals are recomputed on every write and
// line prices always come from the catalog, never from the request.
type CartService struct {
	carts    ports.CartRepository
	products ports.ProductRepository
	logger   zerolog.Logger
}

func NewCartService(carts ports.CartRepository, products ports.ProductRepository, logger zerolog.Logger) *CartService {
	return &CartService{carts: carts, products: products, logger: logger}
}

func (s *CartService) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	cart.Reconcile()
	return cart, nil
}

// AddLineItem creates the cart on first use. A line whose trueId already
// exists in the cart has its quantity replaced; anything else is appended
// under a fresh trueId.
func (s *CartService) AddLineItem(ctx context.Context, userID string, item domain.LineItem) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if item.Product.ID == "" {
		return nil, fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}

	product, err := s.products.FindByID(ctx, item.Product.ID)
	if err != nil {
		return nil, fmt.Errorf("add line item: %w", err)
	}
	product.Reviews = nil

	cart, err := s.carts.FindByUser(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cart = &domain.Cart{UserID: userID}
	case err != nil:
		return nil, fmt.Errorf("add line item: %w", err)
	}

	replaced := false
	if item.TrueID != "" {
		for i := range cart.LineItems {
			if cart.LineItems[i].TrueID == item.TrueID {
				cart.LineItems[i].Product = *product
				cart.LineItems[i].Quantity = item.Quantity
				replaced = true
				break
			}
		}
	}
	if !replaced {
		cart.LineItems = append(cart.LineItems, domain.LineItem{
			TrueID:   uuid.NewString(),
			Product:  *product,
			Quantity: item.Quantity,
		})
	}
	cart.Reconcile()

	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("add line item: %w", err)
	}
	s.logger.Debug().Str("cart_id", saved.ID).Str("product_id", product.ID).Bool("replaced", replaced).Msg("line item saved")
	return saved, nil
}

// RemoveLineItem drops the line with trueID. Removing a line that is not in
// the cart returns the cart unchanged.
func (s *CartService) RemoveLineItem(ctx context.Context, userID, trueID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", domain.ErrValidation)
	}
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("remove line item: %w", err)
	}

	kept := make([]domain.LineItem, 0, len(cart.LineItems))
	for _, li := range cart.LineItems {
		if li.TrueID != trueID {
			kept = append(kept, li)
		}
	}
	if len(kept) == len(cart.LineItems) {
		cart.Reconcile()
		return cart, nil
	}
	cart.LineItems = kept
	cart.Reconcile()

	saved, err := s.carts.Save(ctx, cart)
	if err != nil {
		return nil, fmt.Errorf("remove line item: %w", err)
	}
	return saved, nil
}

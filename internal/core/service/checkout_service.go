package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
)

// Checkout turns a cart into an order.
type Checkout struct {
	backend ports.OrderBackend
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCheckout builds a Checkout. A nil clock defaults to time.Now.
func NewCheckout(backend ports.OrderBackend, clock func() time.Time, logger zerolog.Logger) *Checkout {
	if clock == nil {
		clock = time.Now
	}
	return &Checkout{backend: backend, now: clock, logger: logger}
}

// PlaceOrder submits cart for delivery to address. Nothing is sent when the
// address is blank, the cart has no id, or the cart is empty. The order is
// placed at most once; a failure is returned as-is and never retried.
func (c *Checkout) PlaceOrder(ctx context.Context, cart *domain.Cart, address string) (*domain.Order, error) {
	address = strings.TrimSpace(address)
	switch {
	case address == "":
		return nil, fmt.Errorf("%w: address is required", domain.ErrValidation)
	case cart == nil || strings.TrimSpace(cart.ID) == "":
		return nil, fmt.Errorf("%w: cart id is required", domain.ErrValidation)
	case cart.IsEmpty():
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrCartEmpty)
	}

	orderDate := c.now()
	delivery := domain.DeliveryDate(orderDate)

	order, err := c.backend.PlaceOrder(ctx, cart.ID, address, delivery)
	if err != nil {
		c.logger.Error().Err(err).Str("cart_id", cart.ID).Msg("place order failed")
		return nil, fmt.Errorf("place order: %w", err)
	}
	if order == nil || strings.TrimSpace(order.ID) == "" {
		return nil, fmt.Errorf("place order: %w: order id missing", domain.ErrMalformedResponse)
	}

	c.fillSnapshot(order, cart, address, orderDate, delivery)
	metrics.OrdersPlacedTotal.Inc()
	c.logger.Info().
		Str("order_id", order.ID).
		Str("cart_id", cart.ID).
		Str("total", order.TotalCost.StringFixed(2)).
		Msg("order placed")
	return order, nil
}

// Summary returns the subtotal, tax and total shown before confirming.
func (c *Checkout) Summary(cart domain.Cart) domain.PriceSummary {
	return domain.Summarize(cart.Total())
}

func (c *Checkout) fillSnapshot(order *domain.Order, cart *domain.Cart, address string, orderDate, delivery time.Time) {
	if order.CartID == "" {
		order.CartID = cart.ID
	}
	if order.UserID == "" {
		order.UserID = cart.UserID
	}
	if order.Address == "" {
		order.Address = address
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = orderDate
	}
	if order.DeliveryDate.IsZero() {
		order.DeliveryDate = delivery
	}
	if len(order.LineItems) == 0 {
		order.LineItems = append([]domain.LineItem(nil), cart.LineItems...)
	}

	total := cart.Total()
	if !order.TotalCost.IsZero() && !order.TotalCost.Equal(total) {
		c.logger.Warn().
			Str("order_id", order.ID).
			Str("reported", order.TotalCost.String()).
			Str("cart_total", total.String()).
			Msg("order total differs from cart snapshot")
	}
	order.TotalCost = total
}

package backend

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

var _ ports.OrderService = (*OrderService)(nil)

// OrderService snapshots carts into orders.
type OrderService struct {
	orders ports.OrderRepository
	carts  ports.CartRepository
	now    func() time.Time
	logger zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, carts ports.CartRepository, logger zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, carts: carts, now: time.Now, logger: logger}
}

// Place creates an order from the cart and then empties the cart. The cart
// document itself is kept so the user's next add reuses it. A zero
// deliveryDate defaults to the standard lead time.
func (s *OrderService) Place(ctx context.Context, cartID, address string, deliveryDate time.Time) (*domain.Order, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", domain.ErrValidation)
	}

	cart, err := s.carts.FindByID(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("place order: %w: %w", domain.ErrValidation, domain.ErrCartEmpty)
	}

	now := s.now().UTC()
	if deliveryDate.IsZero() {
		deliveryDate = domain.DeliveryDate(now)
	}

	order, err := s.orders.Create(ctx, &domain.Order{
		CartID:       cart.ID,
		UserID:       cart.UserID,
		Address:      address,
		OrderDate:    now,
		DeliveryDate: deliveryDate.UTC(),
		TotalCost:    cart.Total(),
		LineItems:    append([]domain.LineItem(nil), cart.LineItems...),
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	metrics.OrdersCreatedTotal.Inc()

	cart.LineItems = []domain.LineItem{}
	cart.Reconcile()
	if _, err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cart.ID).Str("order_id", order.ID).Msg("order placed but cart not emptied")
	}

	s.logger.Info().Str("order_id", order.ID).Str("user_id", order.UserID).Str("total", order.TotalCost.StringFixed(2)).Msg("order placed")
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) ([]domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete order %s: %w", id, err)
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete order %s: %w", id, err)
	}
	s.logger.Info().Str("order_id", id).Str("user_id", order.UserID).Msg("order deleted")
	return s.ListByUser(ctx, order.UserID)
}

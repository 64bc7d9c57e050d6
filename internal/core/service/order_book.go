package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// OrderBook reads and deletes placed orders. Orders are never modified.
type OrderBook struct {
	backend ports.OrderBackend
	logger  zerolog.Logger
}

func NewOrderBook(backend ports.OrderBackend, logger zerolog.Logger) *OrderBook {
	return &OrderBook{backend: backend, logger: logger}
}

// List returns the user's orders, most recent first.
func (b *OrderBook) List(ctx context.Context, userID string) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}
	orders, err := b.backend.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	sortByDateDesc(orders)
	return orders, nil
}

// Get looks an order up in the user's order list.
func (b *OrderBook) Get(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}
	orders, err := b.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("get order %s: %w", orderID, domain.ErrNotFound)
}

// Delete removes the order and returns the owner's remaining orders.
func (b *OrderBook) Delete(ctx context.Context, orderID string) ([]domain.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}
	remaining, err := b.backend.DeleteOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}
	b.logger.Info().Str("order_id", orderID).Int("remaining", len(remaining)).Msg("order deleted")
	sortByDateDesc(remaining)
	return remaining, nil
}

func sortByDateDesc(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

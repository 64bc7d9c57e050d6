package ports

import (
	"context"

	"github.com/minimal/storefront/internal/core/domain"
)

// UserRepository persists accounts of the reference backend.
type UserRepository interface {
	// Create stores a new user and returns it with its assigned id. It fails
	// with domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// ProductRepository persists the catalog.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	// Update replaces the mutable fields of the product; reviews are kept.
	Update(ctx context.Context, id string, p *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	AppendReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error)
}

// CartRepository persists one active cart per user.
type CartRepository interface {
	// FindByUser returns domain.ErrNotFound when the user has no cart.
	FindByUser(ctx context.Context, userID string) (*domain.Cart, error)
	FindByID(ctx context.Context, id string) (*domain.Cart, error)
	// Save inserts the cart when it has no id and replaces it otherwise.
	Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error)
}

// OrderRepository persists placed orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
}

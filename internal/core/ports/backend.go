package ports

import (
	"context"
	"time"

	"github.com/minimal/storefront/internal/core/domain"
)

// CatalogBackend is the product side of the backend contract.
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// AddProduct, UpdateProduct and DeleteProduct send actingUserID as the
	// userId query parameter; the backend authorizes the call on its own.
	AddProduct(ctx context.Context, p domain.Product, actingUserID string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product, actingUserID string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id, actingUserID string) error
	AddReview(ctx context.Context, productID string, r domain.Review) (*domain.Product, error)
}

// RoleBackend answers the authoritative role of a user. The returned role is
// already normalized, whichever representation the backend used.
type RoleBackend interface {
	GetRole(ctx context.Context, userID string) (domain.Role, error)
}

// CartBackend is the cart side of the backend contract.
type CartBackend interface {
	// GetCart returns domain.ErrNotFound when the user has no cart yet.
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID string, item domain.LineItem) (*domain.Cart, error)
	RemoveLineItem(ctx context.Context, lineItemID, userID string) (*domain.Cart, error)
}

// OrderBackend is the order side of the backend contract.
type OrderBackend interface {
	PlaceOrder(ctx context.Context, cartID, address string, deliveryDate time.Time) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, orderID string) ([]domain.Order, error)
}

// NewAccount carries the registration form.
type NewAccount struct {
	Username  string `json:"username"  validate:"notblank"`
	Password  string `json:"password"  validate:"min=6"`
	Email     string `json:"email"     validate:"required,email"`
	Role      string `json:"role"`
	AdminCode string `json:"adminCode,omitempty"`
}

// UserBackend covers login and registration.
type UserBackend interface {
	Login(ctx context.Context, username, password string) (*domain.User, error)
	Register(ctx context.Context, account NewAccount) (*domain.User, error)
}

// Backend is the full request/response boundary to the authoritative server.
type Backend interface {
	CatalogBackend
	RoleBackend
	CartBackend
	OrderBackend
	UserBackend
}

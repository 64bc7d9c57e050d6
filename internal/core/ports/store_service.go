package ports

import (
	"context"
	"time"

	"github.com/minimal/storefront/internal/core/domain"
)

// RoleInfo is the answer of the role endpoint.
type RoleInfo struct {
	UserID  string      `json:"userId"`
	Role    domain.Role `json:"role"`
	IsAdmin bool        `json:"isAdmin"`
}

// AccountService implements registration, login and role lookup on the
// reference backend.
type AccountService interface {
	Register(ctx context.Context, account NewAccount) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetRole(ctx context.Context, id string) (*RoleInfo, error)
	// VerifyToken returns the user id carried by a token issued by Login or
	// Register.
	VerifyToken(token string) (string, error)
}

// CatalogService serves and mutates the catalog. Callers are expected to have
// checked admin status before the mutating methods.
type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Add(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	AddReview(ctx context.Context, id string, r domain.Review) (*domain.Product, error)
}

// CartService owns the server side of the cart lifecycle.
type CartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, userID string, item domain.LineItem) (*domain.Cart, error)
	RemoveLineItem(ctx context.Context, userID, trueID string) (*domain.Cart, error)
}

// OrderService turns carts into orders on the reference backend.
type OrderService interface {
	Place(ctx context.Context, cartID, address string, deliveryDate time.Time) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Delete removes the order and returns the remaining orders of its owner.
	Delete(ctx context.Context, id string) ([]domain.Order, error)
}

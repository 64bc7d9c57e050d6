package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

var _ ports.Backend = (*Client)(nil)

func actingUser(userID string) url.Values {
	return url.Values{"userId": []string{userID}}
}

// --- Catalog ---

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, request{op: "list_products", method: http.MethodGet, path: []string{"products"}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, request{op: "get_product", method: http.MethodGet, path: []string{"products", id}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddProduct(ctx context.Context, p domain.Product, actingUserID string) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, request{
		op:     "add_product",
		method: http.MethodPost,
		path:   []string{"products"},
		query:  actingUser(actingUserID),
		body:   p,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("add_product: %w: product id missing", domain.ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, p domain.Product, actingUserID string) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, request{
		op:     "update_product",
		method: http.MethodPut,
		path:   []string{"products", id},
		query:  actingUser(actingUserID),
		body:   p,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id, actingUserID string) error {
	return c.do(ctx, request{
		op:     "delete_product",
		method: http.MethodDelete,
		path:   []string{"products", id},
		query:  actingUser(actingUserID),
	}, nil)
}

func (c *Client) AddReview(ctx context.Context, productID string, r domain.Review) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, request{
		op:     "add_review",
		method: http.MethodPost,
		path:   []string{"products", productID, "review"},
		body:   r,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Role ---

// roleResponse accepts both shapes the role endpoint has used: a role string
// or an isAdmin flag.
type roleResponse struct {
	Role    *string `json:"role"`
	IsAdmin *bool   `json:"isAdmin"`
}

func (r roleResponse) normalize() (domain.Role, bool) {
	switch {
	case r.IsAdmin != nil && *r.IsAdmin:
		return domain.RoleAdmin, true
	case r.Role != nil:
		return domain.ParseRole(*r.Role), true
	case r.IsAdmin != nil:
		return domain.RoleUser, true
	default:
		return "", false
	}
}

func (c *Client) GetRole(ctx context.Context, userID string) (domain.Role, error) {
	var out roleResponse
	if err := c.do(ctx, request{op: "get_role", method: http.MethodGet, path: []string{"users", userID, "role"}}, &out); err != nil {
		return "", err
	}
	role, ok := out.normalize()
	if !ok {
		return "", fmt.Errorf("get_role: %w: neither role nor isAdmin present", domain.ErrMalformedResponse)
	}
	return role, nil
}

// --- Cart ---

type addToCartRequest struct {
	UserID   string          `json:"userId"`
	LineItem domain.LineItem `json:"lineItem"`
}

func (c *Client) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var out domain.Cart
	if err := c.do(ctx, request{op: "get_cart", method: http.MethodGet, path: []string{"cart", userID}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToCart(ctx context.Context, userID string, item domain.LineItem) (*domain.Cart, error) {
	var out domain.Cart
	err := c.do(ctx, request{
		op:     "add_to_cart",
		method: http.MethodPost,
		path:   []string{"cart"},
		body:   addToCartRequest{UserID: userID, LineItem: item},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveLineItem(ctx context.Context, lineItemID, userID string) (*domain.Cart, error) {
	var out domain.Cart
	err := c.do(ctx, request{
		op:     "remove_line_item",
		method: http.MethodDelete,
		path:   []string{"cart", lineItemID},
		query:  actingUser(userID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Orders ---

type placeOrderRequest struct {
	Address      string `json:"address"`
	DeliveryDate string `json:"deliveryDate"`
}

func (c *Client) PlaceOrder(ctx context.Context, cartID, address string, deliveryDate time.Time) (*domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, request{
		op:     "place_order",
		method: http.MethodPost,
		path:   []string{"orders", cartID},
		body:   placeOrderRequest{Address: address, DeliveryDate: deliveryDate.Format(time.RFC3339)},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, request{op: "list_orders", method: http.MethodGet, path: []string{"orders", userID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteOrder(ctx context.Context, orderID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, request{op: "delete_order", method: http.MethodDelete, path: []string{"orders", orderID}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Users ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, request{
		op:        "login",
		method:    http.MethodPost,
		path:      []string{"login"},
		body:      loginRequest{Username: strings.TrimSpace(username), Password: password},
		anonymous: true,
	}, &out)
	if errors.Is(err, domain.ErrUnauthorized) {
		return nil, fmt.Errorf("login: %w", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, account ports.NewAccount) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, request{
		op:        "register",
		method:    http.MethodPost,
		path:      []string{"users"},
		body:      account,
		anonymous: true,
	}, &out)
	if errors.Is(err, errConflict) {
		return nil, fmt.Errorf("register: %w", domain.ErrUserExists)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

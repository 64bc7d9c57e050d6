package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub backend
// ---------------------------------------------------------------------------

// stubBackend records every call and answers from in-memory state. Each *Err
// field, when set, is returned by the matching call.
type stubBackend struct {
	mu sync.Mutex

	calls map[string]int

	roles   map[string]domain.Role
	roleErr error

	carts      map[string]*domain.Cart
	addedItems []domain.LineItem
	cartErr    error
	nextLineID int

	placedCartID   string
	placedAddress  string
	placedDelivery time.Time
	placeResp      *domain.Order
	placeErr       error
	orders         map[string][]domain.Order

	products   map[string]domain.Product
	productErr error
	actingIDs  []string

	loginResp *domain.User
	loginErr  error
	accounts  []ports.NewAccount
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		calls:    make(map[string]int),
		roles:    make(map[string]domain.Role),
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string][]domain.Order),
		products: make(map[string]domain.Product),
	}
}

func (b *stubBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *stubBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

func (b *stubBackend) record(name string) {
	b.mu.Lock()
	b.calls[name]++
	b.mu.Unlock()
}

func (b *stubBackend) GetRole(_ context.Context, userID string) (domain.Role, error) {
	b.record("GetRole")
	if b.roleErr != nil {
		return "", b.roleErr
	}
	role, ok := b.roles[userID]
	if !ok {
		return domain.RoleUser, nil
	}
	return role, nil
}

func (b *stubBackend) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	b.record("GetCart")
	if b.cartErr != nil {
		return nil, b.cartErr
	}
	c, ok := b.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCart(c), nil
}

// AddToCart mirrors the reference backend: a known trueId is upserted, an
// unknown or empty one appends a new line.
func (b *stubBackend) AddToCart(_ context.Context, userID string, item domain.LineItem) (*domain.Cart, error) {
	b.record("AddToCart")
	if b.cartErr != nil {
		return nil, b.cartErr
	}
	b.addedItems = append(b.addedItems, item)
	c, ok := b.carts[userID]
	if !ok {
		c = &domain.Cart{ID: "cart-" + userID, UserID: userID}
		b.carts[userID] = c
	}
	replaced := false
	if item.TrueID != "" {
		for i := range c.LineItems {
			if c.LineItems[i].TrueID == item.TrueID {
				c.LineItems[i].Quantity = item.Quantity
				replaced = true
			}
		}
	}
	if !replaced {
		b.nextLineID++
		item.TrueID = "line-" + strconv.Itoa(b.nextLineID)
		c.LineItems = append(c.LineItems, item)
	}
	c.TotalCost = c.Total()
	return cloneCart(c), nil
}

func (b *stubBackend) RemoveLineItem(_ context.Context, lineItemID, userID string) (*domain.Cart, error) {
	b.record("RemoveLineItem")
	if b.cartErr != nil {
		return nil, b.cartErr
	}
	c, ok := b.carts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	kept := c.LineItems[:0]
	for _, li := range c.LineItems {
		if li.TrueID != lineItemID {
			kept = append(kept, li)
		}
	}
	c.LineItems = kept
	c.TotalCost = c.Total()
	return cloneCart(c), nil
}

func (b *stubBackend) PlaceOrder(_ context.Context, cartID, address string, deliveryDate time.Time) (*domain.Order, error) {
	b.record("PlaceOrder")
	b.placedCartID, b.placedAddress, b.placedDelivery = cartID, address, deliveryDate
	if b.placeErr != nil {
		return nil, b.placeErr
	}
	if b.placeResp == nil {
		return nil, nil
	}
	clone := *b.placeResp
	return &clone, nil
}

func (b *stubBackend) ListOrders(_ context.Context, userID string) ([]domain.Order, error) {
	b.record("ListOrders")
	return append([]domain.Order(nil), b.orders[userID]...), nil
}

func (b *stubBackend) DeleteOrder(_ context.Context, orderID string) ([]domain.Order, error) {
	b.record("DeleteOrder")
	for user, orders := range b.orders {
		for i, o := range orders {
			if o.ID == orderID {
				b.orders[user] = append(orders[:i:i], orders[i+1:]...)
				return append([]domain.Order(nil), b.orders[user]...), nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

func (b *stubBackend) ListProducts(_ context.Context) ([]domain.Product, error) {
	b.record("ListProducts")
	if b.productErr != nil {
		return nil, b.productErr
	}
	out := make([]domain.Product, 0, len(b.products))
	for _, p := range b.products {
		out = append(out, p)
	}
	return out, nil
}

func (b *stubBackend) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	b.record("GetProduct")
	p, ok := b.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (b *stubBackend) AddProduct(_ context.Context, p domain.Product, actingUserID string) (*domain.Product, error) {
	b.record("AddProduct")
	b.actingIDs = append(b.actingIDs, actingUserID)
	if b.productErr != nil {
		return nil, b.productErr
	}
	p.ID = "prod-" + strconv.Itoa(len(b.products)+1)
	b.products[p.ID] = p
	return &p, nil
}

func (b *stubBackend) UpdateProduct(_ context.Context, id string, p domain.Product, actingUserID string) (*domain.Product, error) {
	b.record("UpdateProduct")
	b.actingIDs = append(b.actingIDs, actingUserID)
	if _, ok := b.products[id]; !ok {
		return nil, domain.ErrNotFound
	}
	p.ID = id
	b.products[id] = p
	return &p, nil
}

func (b *stubBackend) DeleteProduct(_ context.Context, id, actingUserID string) error {
	b.record("DeleteProduct")
	b.actingIDs = append(b.actingIDs, actingUserID)
	if b.productErr != nil {
		return b.productErr
	}
	if _, ok := b.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(b.products, id)
	return nil
}

func (b *stubBackend) AddReview(_ context.Context, productID string, r domain.Review) (*domain.Product, error) {
	b.record("AddReview")
	p, ok := b.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Reviews = append(p.Reviews, r)
	b.products[productID] = p
	return &p, nil
}

func (b *stubBackend) Login(_ context.Context, _, _ string) (*domain.User, error) {
	b.record("Login")
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	if b.loginResp == nil {
		return nil, nil
	}
	u := *b.loginResp
	return &u, nil
}

func (b *stubBackend) Register(_ context.Context, account ports.NewAccount) (*domain.User, error) {
	b.record("Register")
	b.accounts = append(b.accounts, account)
	if b.loginErr != nil {
		return nil, b.loginErr
	}
	return &domain.User{ID: "u-" + account.Username, Username: account.Username, Email: account.Email, Role: domain.RoleUser}, nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	clone := *c
	clone.LineItems = append([]domain.LineItem(nil), c.LineItems...)
	return &clone
}

// ---------------------------------------------------------------------------
// Stub identity store
// ---------------------------------------------------------------------------

type stubIdentityStore struct {
	mu       sync.Mutex
	user     *domain.User
	getErr   error
	mergeErr error
	sets     int
	merges   int
	clears   int
}

func (s *stubIdentityStore) Get(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *stubIdentityStore) Set(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	s.user = &user
	return nil
}

func (s *stubIdentityStore) Merge(_ context.Context, userID string, patch domain.IdentityPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merges++
	if s.mergeErr != nil {
		return nil, s.mergeErr
	}
	if s.user == nil {
		return nil, domain.ErrNotFound
	}
	if s.user.ID != userID {
		return nil, domain.ErrIdentityMismatch
	}
	patch.Apply(s.user)
	u := *s.user
	return &u, nil
}

func (s *stubIdentityStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.user = nil
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func product(id, name, p string) domain.Product {
	return domain.Product{ID: id, Name: name, Price: price(p)}
}

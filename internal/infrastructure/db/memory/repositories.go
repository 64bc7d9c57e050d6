package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

var (
	_ ports.UserRepository    = (*UserRepository)(nil)
	_ ports.ProductRepository = (*ProductRepository)(nil)
	_ ports.CartRepository    = (*CartRepository)(nil)
	_ ports.OrderRepository   = (*OrderRepository)(nil)
)

// --- Users ---

type UserRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.User
	names map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[string]domain.User), names: make(map[string]string)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.names[user.Username]; taken {
		return nil, domain.ErrUserExists
	}
	u := *user
	u.ID = uuid.NewString()
	r.byID[u.ID] = u
	r.names[u.Username] = u.ID
	return &u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// --- Products ---

type ProductRepository struct {
	mu    sync.RWMutex
	byID  map[string]domain.Product
	order []string
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{byID: make(map[string]domain.Product)}
}

func (r *ProductRepository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneProduct(r.byID[id]))
	}
	return out, nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *ProductRepository) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := cloneProduct(*p)
	created.ID = uuid.NewString()
	r.byID[created.ID] = created
	r.order = append(r.order, created.ID)
	out := cloneProduct(created)
	return &out, nil
}

func (r *ProductRepository) Update(_ context.Context, id string, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	updated := cloneProduct(*p)
	updated.ID = id
	updated.Reviews = existing.Reviews
	r.byID[id] = updated
	out := cloneProduct(updated)
	return &out, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *ProductRepository) AppendReview(_ context.Context, id string, review domain.Review) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = cloneProduct(p)
	p.Reviews = append(p.Reviews, review)
	r.byID[id] = p
	out := cloneProduct(p)
	return &out, nil
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Tags = append([]string(nil), p.Tags...)
	p.Reviews = append([]domain.Review(nil), p.Reviews...)
	return p
}

// --- Carts ---

type CartRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.Cart
	byUser map[string]string
}

func NewCartRepository() *CartRepository {
	return &CartRepository{byID: make(map[string]domain.Cart), byUser: make(map[string]string)}
}

func (r *CartRepository) FindByUser(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := cloneCart(r.byID[id])
	return &c, nil
}

func (r *CartRepository) FindByID(_ context.Context, id string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c = cloneCart(c)
	return &c, nil
}

func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneCart(*cart)
	if c.ID == "" {
		if existing, ok := r.byUser[c.UserID]; ok {
			c.ID = existing
		} else {
			c.ID = uuid.NewString()
		}
	}
	r.byID[c.ID] = c
	r.byUser[c.UserID] = c.ID
	out := cloneCart(c)
	return &out, nil
}

func cloneCart(c domain.Cart) domain.Cart {
	c.LineItems = append([]domain.LineItem{}, c.LineItems...)
	return c
}

// --- Orders ---

type OrderRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{byID: make(map[string]domain.Order)}
}

func (r *OrderRepository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := *order
	o.ID = uuid.NewString()
	o.LineItems = append([]domain.LineItem(nil), order.LineItems...)
	r.byID[o.ID] = o
	return &o, nil
}

// ListByUser returns the user's orders oldest first.
func (r *OrderRepository) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Order{}
	for _, o := range r.byID {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].OrderDate.Before(out[j].OrderDate)
	})
	return out, nil
}

func (r *OrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/minimal/storefront/internal/core/domain"
)

func TestCartManager_GetCart_ReconcilesStaleTotal(t *testing.T) {
	backend := newStubBackend()
	backend.carts["u1"] = &domain.Cart{
		ID:     "c1",
		UserID: "u1",
		LineItems: []domain.LineItem{
			{TrueID: "l1", Product: product("p1", "Mug", "12.50"), Quantity: 2},
			{TrueID: "l2", Product: product("p2", "Tee", "75.00"), Quantity: 1},
		},
		TotalCost: price("1.00"),
	}
	m := NewCartManager(backend, MergeAppend, discardLogger)

	cart, err := m.GetCart(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetCart returned error: %v", err)
	}
	if !cart.TotalCost.Equal(price("100.00")) {
		t.Fatalf("expected recomputed total 100.00, got %s", cart.TotalCost)
	}
}

func TestCartManager_GetCart_NotFound(t *testing.T) {
	m := NewCartManager(newStubBackend(), MergeAppend, discardLogger)

	if _, err := m.GetCart(context.Background(), "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	cart, err := m.View(context.Background(), "u1")
	if err != nil {
		t.Fatalf("View returned error: %v", err)
	}
	if !cart.IsEmpty() || !cart.TotalCost.IsZero() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestCartManager_RequiresUser(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeAppend, discardLogger)

	if _, err := m.GetCart(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := m.AddOne(context.Background(), "", product("p1", "Mug", "1")); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if backend.total() != 0 {
		t.Fatalf("expected no backend calls, got %d", backend.total())
	}
}

func TestCartManager_AddToCart_RejectsNonPositiveQuantity(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeAppend, discardLogger)

	for _, q := range []int{0, -3} {
		if _, err := m.AddToCart(context.Background(), "u1", product("p1", "Mug", "1"), q); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("quantity %d: expected ErrValidation, got %v", q, err)
		}
	}
	if backend.count("AddToCart") != 0 {
		t.Fatal("expected no add-to-cart call")
	}
}

func TestCartManager_AppendPolicy_AddsSeparateLines(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeAppend, discardLogger)
	mug := product("p1", "Mug", "12.50")

	if _, err := m.AddOne(context.Background(), "u1", mug); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := m.AddOne(context.Background(), "u1", mug)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(cart.LineItems))
	}
	if !cart.TotalCost.Equal(price("25.00")) {
		t.Fatalf("expected total 25.00, got %s", cart.TotalCost)
	}
	if backend.count("GetCart") != 0 {
		t.Fatal("append policy must not re-fetch before adding")
	}
}

func TestCartManager_MergePolicy_FoldsQuantity(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeByProduct, discardLogger)
	mug := product("p1", "Mug", "12.50")

	if _, err := m.AddToCart(context.Background(), "u1", mug, 1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := m.AddToCart(context.Background(), "u1", mug, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.LineItems) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(cart.LineItems))
	}
	if cart.LineItems[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", cart.LineItems[0].Quantity)
	}
	last := backend.addedItems[len(backend.addedItems)-1]
	if last.TrueID != cart.LineItems[0].TrueID {
		t.Fatalf("expected merge to address line %q, sent %q", cart.LineItems[0].TrueID, last.TrueID)
	}
	if !cart.TotalCost.Equal(price("50.00")) {
		t.Fatalf("expected total 50.00, got %s", cart.TotalCost)
	}
}

func TestCartManager_MergePolicy_BackendErrorAborts(t *testing.T) {
	backend := newStubBackend()
	backend.cartErr = domain.ErrTransport
	m := NewCartManager(backend, MergeByProduct, discardLogger)

	if _, err := m.AddOne(context.Background(), "u1", product("p1", "Mug", "1")); !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestCartManager_UnknownPolicyDefaultsToAppend(t *testing.T) {
	m := NewCartManager(newStubBackend(), MergePolicy("whatever"), discardLogger)
	if m.Policy() != MergeAppend {
		t.Fatalf("expected append policy, got %q", m.Policy())
	}
}

func TestCartManager_RemoveAndRefresh_DropsLine(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeAppend, discardLogger)

	m.AddOne(context.Background(), "u1", product("p1", "Mug", "12.50"))
	cart, _ := m.AddOne(context.Background(), "u1", product("p2", "Tee", "20.00"))
	target := cart.LineItems[0].TrueID

	cart, err := m.RemoveAndRefresh(context.Background(), target, "u1")
	if err != nil {
		t.Fatalf("RemoveAndRefresh returned error: %v", err)
	}
	if _, ok := cart.Line(target); ok {
		t.Fatalf("line %q still present after removal", target)
	}
	if !cart.TotalCost.Equal(price("20.00")) {
		t.Fatalf("expected total 20.00, got %s", cart.TotalCost)
	}
	if backend.count("GetCart") != 1 {
		t.Fatalf("expected a re-fetch after removal, got %d", backend.count("GetCart"))
	}
}

func TestCartManager_RemoveLineItem_RequiresID(t *testing.T) {
	backend := newStubBackend()
	m := NewCartManager(backend, MergeAppend, discardLogger)

	if _, err := m.RemoveLineItem(context.Background(), " ", "u1"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if backend.count("RemoveLineItem") != 0 {
		t.Fatal("expected no backend call")
	}
}

package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	require.Error(t, err)

	_, err = New(Config{BaseURL: "not a url"}, zerolog.Nop())
	require.Error(t, err)
}

func TestGetRole_AcceptsBothShapes(t *testing.T) {
	cases := map[string]domain.Role{
		`{"role":"admin"}`:                   domain.RoleAdmin,
		`{"role":"USER"}`:                    domain.RoleUser,
		`{"isAdmin":true}`:                   domain.RoleAdmin,
		`{"isAdmin":false}`:                  domain.RoleUser,
		`{"userId":"u1","role":"USER","isAdmin":true}`: domain.RoleAdmin,
	}
	for body, want := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/u1/role", r.URL.Path)
			writeJSON(w, http.StatusOK, body)
		})
		role, err := c.GetRole(context.Background(), "u1")
		require.NoError(t, err, body)
		assert.Equal(t, want, role, body)
	}
}

func TestGetRole_MissingFieldsIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"userId":"u1"}`)
	})
	_, err := c.GetRole(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestStatusMapping(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          domain.ErrValidation,
		http.StatusUnprocessableEntity: domain.ErrValidation,
		http.StatusUnauthorized:        domain.ErrUnauthorized,
		http.StatusForbidden:           domain.ErrUnauthorized,
		http.StatusNotFound:            domain.ErrNotFound,
		http.StatusInternalServerError: domain.ErrTransport,
		http.StatusBadGateway:          domain.ErrTransport,
	}
	for status, want := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, `{"error":"nope"}`)
		})
		_, err := c.GetCart(context.Background(), "u1")
		assert.ErrorIs(t, err, want, "status %d", status)
		assert.Contains(t, err.Error(), "nope")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.ListProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestMutations_SendActingUserAndBearer(t *testing.T) {
	var gotQuery, gotAuth, gotRequestID string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("userId")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/products", r.URL.Path)
		writeJSON(w, http.StatusCreated, `{"id":"p9","name":"Mug","price":12.5}`)
	}, WithTokenSource(func(context.Context) string { return "tok" }))

	p, err := c.AddProduct(context.Background(), domain.Product{Name: "Mug", Price: decimal.RequireFromString("12.5")}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "p9", p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "admin-1", gotQuery)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, 12.5, gotBody["price"])
}

func TestDeleteProduct_NoBodyIsFine(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/products/p1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.DeleteProduct(context.Background(), "p1", "admin-1"))
}

func TestCart_RoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/cart":
			var req addToCartRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "u1", req.UserID)
			assert.Equal(t, 2, req.LineItem.Quantity)
			writeJSON(w, http.StatusOK, `{"id":"c1","userId":"u1","lineItems":[{"trueId":"t1","product":{"id":"p1","name":"Mug","price":"10.00"},"quantity":2}],"totalCost":20}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/cart/t1":
			assert.Equal(t, "u1", r.URL.Query().Get("userId"))
			writeJSON(w, http.StatusOK, `{"id":"c1","userId":"u1","lineItems":[],"totalCost":0}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	cart, err := c.AddToCart(context.Background(), "u1", domain.LineItem{Product: domain.Product{ID: "p1"}, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, cart.LineItems, 1)
	assert.Equal(t, "t1", cart.LineItems[0].TrueID)
	assert.True(t, cart.TotalCost.Equal(decimal.NewFromInt(20)))

	cart, err = c.RemoveLineItem(context.Background(), "t1", "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.LineItems)
}

func TestPlaceOrder_SendsRFC3339DeliveryDate(t *testing.T) {
	delivery := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/c1", r.URL.Path)
		var req placeOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1 Main St", req.Address)
		assert.Equal(t, "2024-03-01T15:30:00Z", req.DeliveryDate)
		writeJSON(w, http.StatusCreated, `{"id":"abc123"}`)
	})

	order, err := c.PlaceOrder(context.Background(), "c1", "1 Main St", delivery)
	require.NoError(t, err)
	assert.Equal(t, "abc123", order.ID)
}

func TestEmptyBodyWhereOneIsExpectedIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	_, err := c.ListOrders(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestLogin_BadCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid credentials"}`)
	})
	_, err := c.Login(context.Background(), "ada", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegister_Conflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, `{"error":"user already exists"}`)
	})
	_, err := c.Register(context.Background(), ports.NewAccount{Username: "ada"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestRateLimit_SpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 20}, zerolog.Nop())
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.ListProducts(context.Background())
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestLogin_NeverSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"id":"u1","username":"ada","role":"USER","token":"fresh"}`)
	}, WithTokenSource(func(context.Context) string { return "stale" }))

	u, err := c.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

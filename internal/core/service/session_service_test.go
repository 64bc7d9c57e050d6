package service

import (
	"context"
	"errors"
	"testing"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/pkg/validate"
)

func TestSession_Login_CachesIdentity(t *testing.T) {
	backend := newStubBackend()
	backend.loginResp = &domain.User{ID: "u1", Username: "ada", Role: domain.Role("admin"), Token: "jwt"}
	store := &stubIdentityStore{}
	s := NewSession(backend, store, validate.New(), discardLogger)

	user, err := s.Login(context.Background(), " ada ", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected normalized role, got %q", user.Role)
	}
	if store.user == nil || store.user.ID != "u1" || store.user.Token != "jwt" {
		t.Fatalf("expected identity cached, got %+v", store.user)
	}
}

func TestSession_Login_Validation(t *testing.T) {
	backend := newStubBackend()
	s := NewSession(backend, &stubIdentityStore{}, validate.New(), discardLogger)

	if _, err := s.Login(context.Background(), "", "x"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if backend.count("Login") != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestSession_Login_FailureLeavesCacheEmpty(t *testing.T) {
	backend := newStubBackend()
	backend.loginErr = domain.ErrInvalidCredentials
	store := &stubIdentityStore{}
	s := NewSession(backend, store, validate.New(), discardLogger)

	if _, err := s.Login(context.Background(), "ada", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.sets != 0 {
		t.Fatal("cache must not be written on failed login")
	}
}

func TestSession_Login_ResponseWithoutIDIsMalformed(t *testing.T) {
	backend := newStubBackend()
	backend.loginResp = &domain.User{Username: "ada"}
	s := NewSession(backend, &stubIdentityStore{}, validate.New(), discardLogger)

	if _, err := s.Login(context.Background(), "ada", "secret"); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestSession_Register_CachesGrantedRole(t *testing.T) {
	backend := newStubBackend()
	store := &stubIdentityStore{}
	s := NewSession(backend, store, validate.New(), discardLogger)

	user, err := s.Register(context.Background(), ports.NewAccount{
		Username: "bob",
		Password: "secret1",
		Email:    "bob@example.com",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if backend.accounts[0].Role != string(domain.RoleAdmin) {
		t.Fatalf("expected requested role normalized, got %q", backend.accounts[0].Role)
	}
	// The stub backend grants USER regardless of the request.
	if user.Role != domain.RoleUser || store.user.Role != domain.RoleUser {
		t.Fatalf("expected granted role USER cached, got %q / %q", user.Role, store.user.Role)
	}
}

func TestSession_Register_Validation(t *testing.T) {
	backend := newStubBackend()
	s := NewSession(backend, &stubIdentityStore{}, validate.New(), discardLogger)

	bad := []ports.NewAccount{
		{Username: " ", Password: "secret1", Email: "a@b.co"},
		{Username: "bob", Password: "123", Email: "a@b.co"},
		{Username: "bob", Password: "secret1", Email: "not-an-email"},
	}
	for _, acc := range bad {
		if _, err := s.Register(context.Background(), acc); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", acc, err)
		}
	}
	if backend.count("Register") != 0 {
		t.Fatal("expected no backend call")
	}
}

func TestSession_CurrentAndLogout(t *testing.T) {
	store := &stubIdentityStore{user: &domain.User{ID: "u1"}}
	s := NewSession(newStubBackend(), store, validate.New(), discardLogger)

	if u, err := s.Current(context.Background()); err != nil || u.ID != "u1" {
		t.Fatalf("expected current user u1, got %+v, %v", u, err)
	}
	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := s.Current(context.Background()); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

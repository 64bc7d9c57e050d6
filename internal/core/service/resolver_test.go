package service

import (
	"context"
	"errors"
	"testing"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

var _ ports.Backend = (*stubBackend)(nil)
var _ ports.IdentityStore = (*stubIdentityStore)(nil)

func TestResolver_NoUser_IsNotAdminWithoutBackendCall(t *testing.T) {
	backend := newStubBackend()
	r := NewResolver(backend, &stubIdentityStore{}, discardLogger)

	for _, u := range []*domain.User{nil, {}, {ID: "   ", Role: domain.RoleAdmin}} {
		v := r.Resolve(context.Background(), u)
		if v.IsAdmin {
			t.Fatalf("expected non-admin for %+v", u)
		}
		if v.Source != SourceAnonymous {
			t.Fatalf("expected source %q, got %q", SourceAnonymous, v.Source)
		}
	}
	if n := backend.total(); n != 0 {
		t.Fatalf("expected no backend calls, got %d", n)
	}
}

func TestResolver_CachedAdmin_AnyCase_SkipsBackend(t *testing.T) {
	for _, raw := range []string{"admin", "ADMIN", "Admin"} {
		backend := newStubBackend()
		store := &stubIdentityStore{user: &domain.User{ID: "u1", Role: domain.ParseRole(raw)}}
		r := NewResolver(backend, store, discardLogger)

		v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
		if !v.IsAdmin || v.Source != SourceCache {
			t.Fatalf("role %q: expected cached admin verdict, got %+v", raw, v)
		}
		if n := backend.count("GetRole"); n != 0 {
			t.Fatalf("role %q: expected no role lookup, got %d", raw, n)
		}
	}
}

func TestResolver_CachedAdminForOtherUser_AsksBackend(t *testing.T) {
	backend := newStubBackend()
	store := &stubIdentityStore{user: &domain.User{ID: "someone-else", Role: domain.RoleAdmin}}
	r := NewResolver(backend, store, discardLogger)

	v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if v.IsAdmin {
		t.Fatal("another user's cached admin role must not be trusted")
	}
	if backend.count("GetRole") != 1 {
		t.Fatalf("expected one role lookup, got %d", backend.count("GetRole"))
	}
}

func TestResolver_BackendAdmin_MergesRolePreservingFields(t *testing.T) {
	backend := newStubBackend()
	backend.roles["u1"] = domain.RoleAdmin
	store := &stubIdentityStore{user: &domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: domain.RoleUser, Token: "tok"}}
	r := NewResolver(backend, store, discardLogger)

	v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if !v.IsAdmin || v.Source != SourceBackend {
		t.Fatalf("expected backend admin verdict, got %+v", v)
	}

	cached := store.user
	if cached.Role != domain.RoleAdmin {
		t.Fatalf("expected cached role ADMIN, got %q", cached.Role)
	}
	if cached.Username != "ada" || cached.Email != "ada@example.com" || cached.Token != "tok" {
		t.Fatalf("merge clobbered other fields: %+v", cached)
	}

	// Second call is answered from the cache.
	r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if backend.count("GetRole") != 1 {
		t.Fatalf("expected cached fast path on second call, got %d lookups", backend.count("GetRole"))
	}
}

func TestResolver_BackendNonAdmin_LeavesCacheUntouched(t *testing.T) {
	backend := newStubBackend()
	backend.roles["u1"] = domain.RoleUser
	store := &stubIdentityStore{user: &domain.User{ID: "u1", Role: domain.RoleUser}}
	r := NewResolver(backend, store, discardLogger)

	v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if v.IsAdmin {
		t.Fatal("expected non-admin")
	}
	if store.merges != 0 || store.sets != 0 {
		t.Fatalf("expected no cache writes, got merges=%d sets=%d", store.merges, store.sets)
	}
}

func TestResolver_BackendError_FailsClosed(t *testing.T) {
	backend := newStubBackend()
	backend.roleErr = domain.ErrTransport
	store := &stubIdentityStore{user: &domain.User{ID: "u1", Role: domain.RoleUser}}
	r := NewResolver(backend, store, discardLogger)

	v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if v.IsAdmin {
		t.Fatal("expected fail-closed verdict")
	}
	if v.Source != SourceError || !errors.Is(v.Err, domain.ErrTransport) {
		t.Fatalf("expected error verdict wrapping transport failure, got %+v", v)
	}
	if store.merges != 0 {
		t.Fatal("cache must not be written on error")
	}
}

func TestResolver_CacheReadError_FallsBackToBackend(t *testing.T) {
	backend := newStubBackend()
	backend.roles["u1"] = domain.RoleAdmin
	store := &stubIdentityStore{getErr: errors.New("redis down")}
	r := NewResolver(backend, store, discardLogger)

	v := r.Resolve(context.Background(), &domain.User{ID: "u1"})
	if !v.IsAdmin || v.Source != SourceBackend {
		t.Fatalf("expected backend verdict, got %+v", v)
	}
}

func TestResolver_MergeFailure_KeepsVerdict(t *testing.T) {
	backend := newStubBackend()
	backend.roles["u1"] = domain.RoleAdmin
	store := &stubIdentityStore{user: &domain.User{ID: "u1"}, mergeErr: errors.New("write failed")}
	r := NewResolver(backend, store, discardLogger)

	if v := r.Resolve(context.Background(), &domain.User{ID: "u1"}); !v.IsAdmin {
		t.Fatal("a failed cache merge must not change the verdict")
	}
}

func TestResolver_ResolveCurrent_UsesCachedIdentity(t *testing.T) {
	backend := newStubBackend()
	r := NewResolver(backend, &stubIdentityStore{}, discardLogger)
	if v := r.ResolveCurrent(context.Background()); v.Source != SourceAnonymous {
		t.Fatalf("expected anonymous with empty cache, got %+v", v)
	}

	store := &stubIdentityStore{user: &domain.User{ID: "u1", Role: domain.RoleAdmin}}
	r = NewResolver(backend, store, discardLogger)
	if v := r.ResolveCurrent(context.Background()); !v.IsAdmin || v.Source != SourceCache {
		t.Fatalf("expected cached admin, got %+v", v)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestResolver_Refresh_DowngradesStaleAdmin(t *testing.T) {
	backend := newStubBackend()
	backend.roles["u1"] = domain.RoleUser
	store := &stubIdentityStore{user: &domain.User{ID: "u1", Username: "ada", Role: domain.RoleAdmin}}
	r := NewResolver(backend, store, discardLogger)

	// The fast path still trusts the stale cache.
	if v := r.Resolve(context.Background(), &domain.User{ID: "u1"}); !v.IsAdmin {
		t.Fatal("expected stale cached admin before refresh")
	}

	v, err := r.Refresh(context.Background(), &domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if v.IsAdmin {
		t.Fatal("expected authoritative non-admin verdict")
	}
	if store.user.Role != domain.RoleUser || store.user.Username != "ada" {
		t.Fatalf("expected demoted cache with fields kept, got %+v", store.user)
	}
	if v := r.Resolve(context.Background(), &domain.User{ID: "u1"}); v.IsAdmin {
		t.Fatal("expected non-admin after refresh")
	}
}

func TestResolver_Refresh_BackendErrorKeepsCache(t *testing.T) {
	backend := newStubBackend()
	backend.roleErr = domain.ErrTransport
	store := &stubIdentityStore{user: &domain.User{ID: "u1", Role: domain.RoleAdmin}}
	r := NewResolver(backend, store, discardLogger)

	v, err := r.Refresh(context.Background(), &domain.User{ID: "u1"})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if v.IsAdmin {
		t.Fatal("expected fail-closed verdict")
	}
	if store.user.Role != domain.RoleAdmin || store.merges != 0 {
		t.Fatal("cache must not change when the backend call fails")
	}
}

func TestResolver_Refresh_RequiresIdentity(t *testing.T) {
	r := NewResolver(newStubBackend(), &stubIdentityStore{}, discardLogger)
	if _, err := r.Refresh(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minimal/storefront/internal/core/domain"
)

func setupStore(t *testing.T) (*IdentityStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewIdentityStore(client, ""), mr
}

func strPtr(s string) *string { return &s }

func TestConnect_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Connect(context.Background(), Config{Addr: addr})
	assert.Error(t, err)
}

func TestGet_EmptyReturnsNil(t *testing.T) {
	store, _ := setupStore(t)

	u, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSetAndGet(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	in := domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: domain.Role("admin"), Token: "tok"}
	require.NoError(t, store.Set(ctx, in))

	out, err := store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "u1", out.ID)
	assert.Equal(t, "ada", out.Username)
	assert.Equal(t, domain.RoleAdmin, out.Role)
	assert.Equal(t, "tok", out.Token)

	assert.Equal(t, "ADMIN", mr.HGet(DefaultKey, "role"))
}

func TestSet_ReplacesPreviousIdentity(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.User{ID: "u1", Username: "ada", Token: "old"}))
	require.NoError(t, store.Set(ctx, domain.User{ID: "u2", Username: "bob"}))

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u2", out.ID)
	assert.Empty(t, out.Token)
}

func TestGet_NormalizesRawRole(t *testing.T) {
	store, mr := setupStore(t)
	mr.HSet(DefaultKey, "id", "u1", "role", "admin")

	out, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.Role)
}

func TestMerge_PreservesOtherFields(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: domain.RoleUser, Token: "tok"}))

	admin := domain.RoleAdmin
	merged, err := store.Merge(ctx, "u1", domain.IdentityPatch{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, merged.Role)

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: domain.RoleAdmin, Token: "tok"}, *out)
}

func TestMerge_MissingOrOtherUser(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	admin := domain.RoleAdmin

	_, err := store.Merge(ctx, "u1", domain.IdentityPatch{Role: &admin})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Set(ctx, domain.User{ID: "u2", Role: domain.RoleUser}))
	_, err = store.Merge(ctx, "u1", domain.IdentityPatch{Role: &admin})
	assert.ErrorIs(t, err, domain.ErrIdentityMismatch)

	out, _ := store.Get(ctx)
	assert.Equal(t, domain.RoleUser, out.Role, "another user's identity must not change")
}

func TestMerge_ConcurrentPatchesKeepEachField(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.User{ID: "u1", Username: "ada", Role: domain.RoleUser}))

	admin := domain.RoleAdmin
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := store.Merge(ctx, "u1", domain.IdentityPatch{Role: &admin})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := store.Merge(ctx, "u1", domain.IdentityPatch{Email: strPtr("ada@example.com")})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, out.Role)
	assert.Equal(t, "ada@example.com", out.Email)
	assert.Equal(t, "ada", out.Username)
}

func TestClear(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, domain.User{ID: "u1"}))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists(DefaultKey))

	out, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestCustomKey(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)

	store := NewIdentityStore(client, "session:42")
	require.NoError(t, store.Set(context.Background(), domain.User{ID: "u1"}))
	assert.True(t, mr.Exists("session:42"))
	assert.False(t, mr.Exists(DefaultKey))
}

package ports

import (
	"context"

	"github.com/minimal/storefront/internal/core/domain"
)

// IdentityStore persists the current session's identity outside the process.
type IdentityStore interface {
	// Get returns the cached identity, or nil when none is stored.
	Get(ctx context.Context) (*domain.User, error)
	// Set replaces the cached identity.
	Set(ctx context.Context, user domain.User) error
	// Merge atomically applies patch to the cached identity of userID and
	// returns the result. Fields absent from the patch are preserved. It
	// fails with domain.ErrNotFound when nothing is cached and with
	// domain.ErrIdentityMismatch when another user is cached.
	Merge(ctx context.Context, userID string, patch domain.IdentityPatch) (*domain.User, error)
	// Clear removes the cached identity.
	Clear(ctx context.Context) error
}

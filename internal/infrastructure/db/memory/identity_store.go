// Package memory provides process-local implementations of the storage ports,
// used by tests and by single-process runs that need no external services.
package memory

import (
	"context"
	"sync"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

var _ ports.IdentityStore = (*IdentityStore)(nil)

// IdentityStore keeps the identity in memory.
type IdentityStore struct {
	mu   sync.Mutex
	user *domain.User
}

func NewIdentityStore() *IdentityStore { return &IdentityStore{} }

func (s *IdentityStore) Get(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *IdentityStore) Set(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Role = domain.ParseRole(string(user.Role))
	s.user = &user
	return nil
}

func (s *IdentityStore) Merge(_ context.Context, userID string, patch domain.IdentityPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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

func (s *IdentityStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

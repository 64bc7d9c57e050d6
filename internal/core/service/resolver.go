package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
)

// Source names where an admin verdict came from.
type Source string

const (
	SourceAnonymous Source = "anonymous"
	SourceCache     Source = "cache"
	SourceBackend   Source = "backend"
	SourceError     Source = "error"
)

// Verdict is the outcome of an admin check. Err is set only when Source is
// SourceError and IsAdmin is then always false.
type Verdict struct {
	IsAdmin bool
	Role    domain.Role
	Source  Source
	Err     error
}

// Authorizer decides whether a user holds the admin role.
type Authorizer interface {
	Resolve(ctx context.Context, user *domain.User) Verdict
}

// Resolver combines the identity cache with the backend's authoritative role.
type Resolver struct {
	backend ports.RoleBackend
	store   ports.IdentityStore
	logger  zerolog.Logger
}

func NewResolver(backend ports.RoleBackend, store ports.IdentityStore, logger zerolog.Logger) *Resolver {
	return &Resolver{backend: backend, store: store, logger: logger}
}

// Resolve answers whether user is an admin. Precedence:
//
//  1. no user or no id: not admin, no backend call
//  2. cached identity for the same id with role ADMIN: admin, no backend call
//  3. backend says ADMIN: role merged into the cached identity, admin
//  4. backend says anything else: not admin, cache untouched
//  5. backend error: not admin
//
// A cached ADMIN is trusted until Refresh is called; a demotion on the backend
// is not observed by Resolve while the cache still says ADMIN.
func (r *Resolver) Resolve(ctx context.Context, user *domain.User) Verdict {
	v := r.resolve(ctx, user)
	metrics.RoleVerdictsTotal.WithLabelValues(string(v.Source), strconv.FormatBool(v.IsAdmin)).Inc()
	return v
}

func (r *Resolver) resolve(ctx context.Context, user *domain.User) Verdict {
	if !user.Authenticated() {
		return Verdict{Role: domain.RoleUser, Source: SourceAnonymous}
	}

	cached, err := r.store.Get(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", user.ID).Msg("identity cache read failed, asking backend")
	} else if cached != nil && cached.ID == user.ID && cached.Role.IsAdmin() {
		return Verdict{IsAdmin: true, Role: domain.RoleAdmin, Source: SourceCache}
	}

	role, err := r.backend.GetRole(ctx, user.ID)
	if err != nil {
		r.logger.Warn().Err(err).Str("user_id", user.ID).Msg("role lookup failed, denying admin")
		return Verdict{Role: domain.RoleUser, Source: SourceError, Err: fmt.Errorf("resolve role: %w", err)}
	}

	if !role.IsAdmin() {
		return Verdict{Role: role, Source: SourceBackend}
	}

	admin := domain.RoleAdmin
	if _, err := r.store.Merge(ctx, user.ID, domain.IdentityPatch{Role: &admin}); err != nil {
		metrics.IdentityCacheWritesTotal.WithLabelValues("merge", "error").Inc()
		r.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to cache admin role")
	} else {
		metrics.IdentityCacheWritesTotal.WithLabelValues("merge", "ok").Inc()
	}
	return Verdict{IsAdmin: true, Role: domain.RoleAdmin, Source: SourceBackend}
}

// ResolveCurrent resolves the identity held in the cache. An unreadable or
// empty cache resolves as anonymous.
func (r *Resolver) ResolveCurrent(ctx context.Context) Verdict {
	user, err := r.store.Get(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("identity cache read failed")
		user = nil
	}
	return r.Resolve(ctx, user)
}

// Refresh skips the cached fast path, asks the backend, and writes the answer
// into the cached identity in either direction. The cache is written only
// after a successful backend answer. A user with no cached identity gets a
// verdict without any cache write.
func (r *Resolver) Refresh(ctx context.Context, user *domain.User) (Verdict, error) {
	if !user.Authenticated() {
		return Verdict{Role: domain.RoleUser, Source: SourceAnonymous}, domain.ErrUnauthenticated
	}

	role, err := r.backend.GetRole(ctx, user.ID)
	if err != nil {
		err = fmt.Errorf("refresh role: %w", err)
		metrics.RoleVerdictsTotal.WithLabelValues(string(SourceError), "false").Inc()
		return Verdict{Role: domain.RoleUser, Source: SourceError, Err: err}, err
	}

	v := Verdict{IsAdmin: role.IsAdmin(), Role: role, Source: SourceBackend}
	metrics.RoleVerdictsTotal.WithLabelValues(string(v.Source), strconv.FormatBool(v.IsAdmin)).Inc()

	_, err = r.store.Merge(ctx, user.ID, domain.IdentityPatch{Role: &role})
	switch {
	case err == nil:
		metrics.IdentityCacheWritesTotal.WithLabelValues("refresh", "ok").Inc()
		r.logger.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("cached role refreshed")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrIdentityMismatch):
		r.logger.Debug().Str("user_id", user.ID).Msg("no cached identity to refresh")
	default:
		metrics.IdentityCacheWritesTotal.WithLabelValues("refresh", "error").Inc()
		return v, fmt.Errorf("refresh role: cache write: %w", err)
	}
	return v, nil
}

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/metrics"
	"github.com/minimal/storefront/internal/pkg/validate"
)

// Session signs users in and out and owns the cached identity between
// role checks.
type Session struct {
	backend   ports.UserBackend
	store     ports.IdentityStore
	validator *validate.Validator
	logger    zerolog.Logger
}

func NewSession(backend ports.UserBackend, store ports.IdentityStore, validator *validate.Validator, logger zerolog.Logger) *Session {
	return &Session{backend: backend, store: store, validator: validator, logger: logger}
}

// Login authenticates against the backend and caches the returned identity.
func (s *Session) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	user, err := s.backend.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.remember(ctx, user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("signed in")
	return user, nil
}

// Register creates an account and signs it in. The cached role is whatever the
// backend granted, not what was requested.
func (s *Session) Register(ctx context.Context, account ports.NewAccount) (*domain.User, error) {
	account.Username = strings.TrimSpace(account.Username)
	account.Email = strings.TrimSpace(account.Email)
	account.Role = string(domain.ParseRole(account.Role))
	if err := s.validator.Struct(account); err != nil {
		return nil, err
	}
	user, err := s.backend.Register(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.remember(ctx, user); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if account.Role != string(user.Role) {
		s.logger.Warn().Str("user_id", user.ID).Str("requested", account.Role).Str("granted", string(user.Role)).Msg("requested role not granted")
	}
	s.logger.Info().Str("user_id", user.ID).Msg("account registered")
	return user, nil
}

// Current returns the cached identity or domain.ErrUnauthenticated.
func (s *Session) Current(ctx context.Context) (*domain.User, error) {
	user, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if !user.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// Logout forgets the cached identity.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		metrics.IdentityCacheWritesTotal.WithLabelValues("clear", "error").Inc()
		return fmt.Errorf("logout: %w", err)
	}
	metrics.IdentityCacheWritesTotal.WithLabelValues("clear", "ok").Inc()
	return nil
}

func (s *Session) remember(ctx context.Context, user *domain.User) error {
	if !user.Authenticated() {
		return fmt.Errorf("%w: user id missing", domain.ErrMalformedResponse)
	}
	user.Role = domain.ParseRole(string(user.Role))
	if err := s.store.Set(ctx, *user); err != nil {
		metrics.IdentityCacheWritesTotal.WithLabelValues("set", "error").Inc()
		return fmt.Errorf("cache identity: %w", err)
	}
	metrics.IdentityCacheWritesTotal.WithLabelValues("set", "ok").Inc()
	return nil
}

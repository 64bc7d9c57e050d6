// Package backend holds the use cases of the reference storefront API: the
// authoritative side of the contract the client core talks to.
package backend

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
	"github.com/minimal/storefront/internal/pkg/validate"
)

const defaultTokenTTL = 24 * time.Hour

var _ ports.AccountService = (*AccountService)(nil)

// AccountService implements registration, login and role lookup.
type AccountService struct {
	repo      ports.UserRepository
	validator *validate.Validator
	jwtSecret []byte
	tokenTTL  time.Duration
	adminCode string
	now       func() time.Time
	logger    zerolog.Logger
}

// AccountConfig carries the token and signup settings.
type AccountConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// AdminSignupCode must accompany a registration asking for the admin
	// role. Empty disables admin signup.
	AdminSignupCode string
}

func NewAccountService(repo ports.UserRepository, validator *validate.Validator, cfg AccountConfig, logger zerolog.Logger) *AccountService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	return &AccountService{
		repo:      repo,
		validator: validator,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		adminCode: cfg.AdminSignupCode,
		now:       time.Now,
		logger:    logger,
	}
}

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AccountService) Register(ctx context.Context, account ports.NewAccount) (*domain.User, error) {
	account.Username = strings.TrimSpace(account.Username)
	account.Email = strings.TrimSpace(account.Email)
	if err := s.validator.Struct(account); err != nil {
		return nil, err
	}

	role := domain.ParseRole(account.Role)
	if role.IsAdmin() && !s.adminCodeMatches(account.AdminCode) {
		s.logger.Warn().Str("username", account.Username).Msg("admin signup refused")
		return nil, fmt.Errorf("register: admin signup code: %w", domain.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Username:     account.Username,
		Email:        account.Email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	if user.Token, err = s.issueToken(user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if user.Token, err = s.issueToken(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetRole answers the role of id. An unknown user is reported as a non-admin
// rather than as an error.
func (s *AccountService) GetRole(ctx context.Context, id string) (*ports.RoleInfo, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrNotFound) {
		return &ports.RoleInfo{UserID: id, Role: domain.RoleUser, IsAdmin: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &ports.RoleInfo{UserID: user.ID, Role: user.Role, IsAdmin: user.Role.IsAdmin()}, nil
}

// VerifyToken checks an HS256 token issued by this service and returns its
// subject.
func (s *AccountService) VerifyToken(token string) (string, error) {
	claims := &tokenClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return "", domain.ErrUnauthenticated
	}
	if claims.Subject == "" {
		return "", domain.ErrUnauthenticated
	}
	return claims.Subject, nil
}

func (s *AccountService) issueToken(user *domain.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *AccountService) adminCodeMatches(code string) bool {
	if s.adminCode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(s.adminCode)) == 1
}

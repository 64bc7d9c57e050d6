package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// DefaultKey is the well-known key the cached identity lives under.
const DefaultKey = "minimalUser"

// maxMergeAttempts bounds optimistic-lock retries when another writer touches
// the key between WATCH and EXEC.
const maxMergeAttempts = 5

const (
	fieldID       = "id"
	fieldUsername = "username"
	fieldEmail    = "email"
	fieldRole     = "role"
	fieldToken    = "token"
)

var _ ports.IdentityStore = (*IdentityStore)(nil)

// IdentityStore keeps the current identity as a Redis hash under one key.
// Key format: <key> -> {id, username, email, role, token}
type IdentityStore struct {
	client *redis.Client
	key    string
}

// NewIdentityStore wraps client. An empty key selects DefaultKey.
func NewIdentityStore(client *redis.Client, key string) *IdentityStore {
	if key == "" {
		key = DefaultKey
	}
	return &IdentityStore{client: client, key: key}
}

func (s *IdentityStore) Get(ctx context.Context) (*domain.User, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("identity get: %w", err)
	}
	return decode(fields), nil
}

func (s *IdentityStore) Set(ctx context.Context, user domain.User) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		pipe.HSet(ctx, s.key, encode(user))
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity set: %w", err)
	}
	return nil
}

// Merge applies patch under WATCH so a concurrent writer can never have its
// fields dropped; only the patched fields are written.
func (s *IdentityStore) Merge(ctx context.Context, userID string, patch domain.IdentityPatch) (*domain.User, error) {
	var merged *domain.User
	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil {
			return err
		}
		current := decode(fields)
		if current == nil {
			return domain.ErrNotFound
		}
		if current.ID != userID {
			return domain.ErrIdentityMismatch
		}
		patch.Apply(current)
		changed := patchFields(patch, *current)
		if len(changed) == 0 {
			merged = current
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.key, changed)
			return nil
		})
		if err == nil {
			merged = current
		}
		return err
	}

	for i := 0; i < maxMergeAttempts; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("identity merge: %w", err)
		}
		return merged, nil
	}
	return nil, fmt.Errorf("identity merge: %w", redis.TxFailedErr)
}

func (s *IdentityStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("identity clear: %w", err)
	}
	return nil
}

func encode(u domain.User) map[string]any {
	return map[string]any{
		fieldID:       u.ID,
		fieldUsername: u.Username,
		fieldEmail:    u.Email,
		fieldRole:     string(domain.ParseRole(string(u.Role))),
		fieldToken:    u.Token,
	}
}

func decode(fields map[string]string) *domain.User {
	if len(fields) == 0 || fields[fieldID] == "" {
		return nil
	}
	return &domain.User{
		ID:       fields[fieldID],
		Username: fields[fieldUsername],
		Email:    fields[fieldEmail],
		Role:     domain.ParseRole(fields[fieldRole]),
		Token:    fields[fieldToken],
	}
}

func patchFields(p domain.IdentityPatch, u domain.User) map[string]any {
	out := make(map[string]any, 4)
	if p.Username != nil {
		out[fieldUsername] = u.Username
	}
	if p.Email != nil {
		out[fieldEmail] = u.Email
	}
	if p.Role != nil {
		out[fieldRole] = string(u.Role)
	}
	if p.Token != nil {
		out[fieldToken] = u.Token
	}
	return out
}

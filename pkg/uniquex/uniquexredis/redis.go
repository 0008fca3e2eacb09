package uniquexredis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/ucbscz/registro/pkg/uniquex"
)

// RedisStore implements uniquex.Store on Redis. SETNX provides the atomic
// set-if-absent the claim invariant requires.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

var _ uniquex.Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed uniqueness store. Keys are laid out
// as "<prefix>:<namespace>:<key>".
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "registro:unique"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) claimKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, key)
}

// SaveUnique claims (namespace, key) atomically via SETNX.
func (s *RedisStore) SaveUnique(ctx context.Context, namespace, key string, snapshot []byte) error {
	ok, err := s.rdb.SetNX(ctx, s.claimKey(namespace, key), snapshot, 0).Result()
	if err != nil {
		return uniquex.Errors().NewWithCause(uniquex.ErrStore, err).
			WithDetail("namespace", namespace).
			WithDetail("key", key)
	}
	if !ok {
		return uniquex.Errors().NewWithMessage(uniquex.ErrDuplicate,
			fmt.Sprintf("Ya existe un registro en %s con clave %s", namespace, key))
	}
	return nil
}

// Exists reports whether the claim is present.
func (s *RedisStore) Exists(ctx context.Context, namespace, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.claimKey(namespace, key)).Result()
	if err != nil {
		return false, uniquex.Errors().NewWithCause(uniquex.ErrStore, err)
	}
	return n > 0, nil
}

// Get returns the claimed snapshot.
func (s *RedisStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, s.claimKey(namespace, key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, uniquex.Errors().New(uniquex.ErrNotClaimed).
				WithDetail("namespace", namespace).
				WithDetail("key", key)
		}
		return nil, uniquex.Errors().NewWithCause(uniquex.ErrStore, err)
	}
	return data, nil
}

// Update overwrites the claimed snapshot.
func (s *RedisStore) Update(ctx context.Context, namespace, key string, snapshot []byte) error {
	if err := s.rdb.Set(ctx, s.claimKey(namespace, key), snapshot, 0).Err(); err != nil {
		return uniquex.Errors().NewWithCause(uniquex.ErrStore, err)
	}
	return nil
}

// DeleteUnique releases the claim. Deleting an absent claim is a no-op.
func (s *RedisStore) DeleteUnique(ctx context.Context, namespace, key string) error {
	if err := s.rdb.Del(ctx, s.claimKey(namespace, key)).Err(); err != nil {
		return uniquex.Errors().NewWithCause(uniquex.ErrStore, err)
	}
	return nil
}

package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	internalerrors "github.com/jrsteele09/multipaga/internal/errors"
	"github.com/jrsteele09/multipaga/tokenstore"
)

var _ tokenstore.Store = (*RedisStore)(nil)

// RedisStore keeps one session as a hash under key. All slots share the key's TTL,
// which is refreshed by every read and write.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	policy tokenstore.Policy
}

func New(client redis.UniversalClient, key string, policy tokenstore.Policy) *RedisStore {
	return &RedisStore{
		client: client,
		key:    key,
		policy: policy,
	}
}

// NewClient builds a client and pings it with a short timeout.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "[redisstore.NewClient] ping %s", addr)
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, slot tokenstore.Slot) (string, error) {
	value, err := r.client.HGet(ctx, r.key, string(slot)).Result()
	if errors.Is(err, redis.Nil) {
		return "", internalerrors.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[RedisStore.Get] %s", slot)
	}
	if err := r.touch(ctx); err != nil {
		return "", err
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, slot tokenstore.Slot, value string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, string(slot), value)
		if r.policy.Expiry > 0 {
			pipe.Expire(ctx, r.key, r.policy.Expiry)
		}
		return nil
	})
	return errors.Wrapf(err, "[RedisStore.Set] %s", slot)
}

func (r *RedisStore) Delete(ctx context.Context, slot tokenstore.Slot) error {
	err := r.client.HDel(ctx, r.key, string(slot)).Err()
	return errors.Wrapf(err, "[RedisStore.Delete] %s", slot)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	err := r.client.Del(ctx, r.key).Err()
	return errors.Wrap(err, "[RedisStore.Clear]")
}

func (r *RedisStore) touch(ctx context.Context) error {
	if r.policy.Expiry <= 0 {
		return nil
	}
	err := r.client.Expire(ctx, r.key, r.policy.Expiry).Err()
	return errors.Wrap(err, "[RedisStore.touch]")
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a KeyValueStore backed by redis. Entries written with a
// zero Expiration never expire.
type RedisStore struct {
	Addr       string
	Password   string
	DB         int
	Expiration time.Duration
	client     *redis.Client
	ctx        context.Context
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{Addr: addr, Password: password, DB: db, client: rdb, ctx: ctx}
}

func (r *RedisStore) Get(key string) ([]byte, bool, error) {
	data, err := r.client.Get(r.ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

func (r *RedisStore) Set(key string, value []byte) error {
	if err := r.client.Set(r.ctx, key, value, r.Expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Remove(key string) error {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

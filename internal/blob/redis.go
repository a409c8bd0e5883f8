package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys written by the redis backend.
const DefaultRedisPrefix = "ms:"

// RedisOptions configures [OpenRedis].
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key. Empty means DefaultRedisPrefix.
	Prefix string
}

// Redis stores blobs as plain string values.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to a Redis server and pings it.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("%w: redis: address is empty", ErrUnavailable)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("%w: redis ping %s: %w", ErrUnavailable, opts.Addr, err)
	}

	return &Redis{client: client, prefix: prefix}, nil
}

// Load implements Store.
func (r *Redis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	err := validateKey(key)
	if err != nil {
		return nil, false, err
	}

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	return data, true, nil
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, key string, data []byte) error {
	err := validateKey(key)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, r.prefix+key, data, 0).Err()
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	err := r.client.Close()
	if err != nil {
		return fmt.Errorf("close redis: %w", err)
	}

	return nil
}

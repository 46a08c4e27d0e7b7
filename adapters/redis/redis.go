// Package redis provides a Redis-backed tier cache so multiple gateway
// instances can share tier snapshots for the same user.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/neuralbroker/tiergate"
)

const (
	defaultPrefix  = "tiergate:tier:"
	defaultTimeout = 5 * time.Second
)

type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix scopes all cache keys. Defaults to "tiergate:tier:".
	Prefix string

	// TTL applied to every entry. Zero means no expiry.
	TTL time.Duration

	// Timeout bounds each cache operation. Defaults to 5s.
	Timeout time.Duration
}

type Adapter struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

var _ tiergate.TierCache = (*Adapter)(nil)

func New(ctx context.Context, cfg Config) (*Adapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Adapter{client: client, prefix: prefix, ttl: cfg.TTL, timeout: timeout}, nil
}

func (a *Adapter) key(userID string) string {
	return a.prefix + userID
}

// opCtx bounds a single cache operation. The cache port is ctx-free,
// so each call gets its own deadline.
func (a *Adapter) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *Adapter) Get(userID string) (*tiergate.TierData, error) {
	ctx, cancel := a.opCtx()
	defer cancel()

	raw, err := a.client.Get(ctx, a.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, tiergate.ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to get tier data: %w", err)
	}

	var data tiergate.TierData
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode tier data: %w", err)
	}
	return &data, nil
}

func (a *Adapter) Set(userID string, data *tiergate.TierData) error {
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode tier data: %w", err)
	}

	ctx, cancel := a.opCtx()
	defer cancel()
	if err := a.client.Set(ctx, a.key(userID), raw, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set tier data: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(userID string) error {
	ctx, cancel := a.opCtx()
	defer cancel()
	if err := a.client.Del(ctx, a.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete tier data: %w", err)
	}
	return nil
}

func (a *Adapter) Clear() error {
	ctx, cancel := a.opCtx()
	defer cancel()

	iter := a.client.Scan(ctx, 0, a.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := a.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear tier data: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan tier keys: %w", err)
	}
	return nil
}

// Close releases the underlying client connection pool.
func (a *Adapter) Close() error {
	return a.client.Close()
}

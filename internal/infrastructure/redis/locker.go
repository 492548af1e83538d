// Package redis provides the distributed lock used to serialize work on one
// resource across service instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// KeyPrefix namespaces every lock key
const KeyPrefix = "fulfillment:lock:"

// Config holds Redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// NewClient connects and pings Redis
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 20
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Locker implements domain.Locker with redislock. Obtain never retries: a
// held key fails fast with domain.ErrLockNotObtained.
type Locker struct {
	client *redislock.Client
}

// NewLocker creates a Locker on client
func NewLocker(client goredis.UniversalClient) *Locker {
	return &Locker{client: redislock.New(client)}
}

// Obtain takes key for ttl. The returned release is safe to call after the
// lock expired.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, KeyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return nil
		}
		return err
	}, nil
}

package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another holder owns the lock.
var ErrNotObtained = errors.New("lock held by another process")

// ReleaseFunc gives a lock back.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out named, expiring locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (ReleaseFunc, error)
}

// RedisLocker implements Locker on top of redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewRedisClient creates a go-redis client and verifies it with a ping.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisLocker wraps rdb. Every lock it hands out expires after ttl.
func NewRedisLocker(rdb redislock.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl}
}

// Acquire obtains key without retrying. It returns ErrNotObtained when the key is taken.
// The lock is refreshed every third of its TTL until released, so a run that
// outlives the TTL keeps it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (ReleaseFunc, error) {
	lk, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	stop := keepAlive(context.WithoutCancel(ctx), l.ttl/3, func(ctx context.Context) error {
		return lk.Refresh(ctx, l.ttl, nil)
	})
	return func(ctx context.Context) error {
		stop()
		err := lk.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// Expired before the run finished.
			return nil
		}
		return err
	}, nil
}

// keepAlive calls refresh every interval until the returned stop func is called
// or refresh fails. stop waits for the refresher to exit and is safe to call twice.
func keepAlive(ctx context.Context, interval time.Duration, refresh func(context.Context) error) (stop func()) {
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := refresh(ctx); err != nil {
					// Lost or unreachable; Release reports the rest.
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}

// Noop is a Locker that always succeeds.
type Noop struct{}

// Acquire always succeeds.
func (Noop) Acquire(context.Context, string) (ReleaseFunc, error) {
	return func(context.Context) error { return nil }, nil
}

// Package lock provides the distributed run lock used to keep concurrent
// processes from syncing inventory at the same time.
//
// RedisLocker is backed by github.com/bsm/redislock and a go-redis client.
// A held Redis lock is refreshed in the background every third of its TTL
// until released, so the TTL only bounds how long a crashed holder blocks others.
// Noop is used when Redis is disabled; in-process coalescing still applies.
//
// # Usage
//
//	rdb, err := lock.NewRedisClient(ctx, cfg.Redis)
//	locker := lock.NewRedisLocker(rdb, cfg.Redis.TTL())
//	release, err := locker.Acquire(ctx, "sync:inventory")
//	if errors.Is(err, lock.ErrNotObtained) {
//	    // someone else is running
//	}
//	defer release(ctx)
package lock

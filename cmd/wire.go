package cmd

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/core/config"
	"inventory-sync/core/lock"
	"inventory-sync/core/storage"
	"inventory-sync/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// connectTimeout bounds startup round trips to Redis and object storage.
const connectTimeout = 10 * time.Second

// openArchive returns the archive client, or nil when archiving is disabled.
func openArchive(ctx context.Context, cfg storage.Config) (storage.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := storage.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := storage.EnsureBucket(ctx, client, cfg.Bucket, cfg.Region); err != nil {
		return nil, err
	}
	return client, nil
}

// newInventoryService wires the inventory feature from configuration. The
// returned cleanup closes the Redis client, if any.
func newInventoryService(ctx context.Context, cfg *config.Config, db *gorm.DB, archive storage.Client, logg *zap.Logger) (*inventory.Service, func(), error) {
	cleanup := func() {}

	var locker lock.Locker
	if cfg.Redis.Enabled {
		rctx, cancel := context.WithTimeout(ctx, connectTimeout)
		rdb, err := lock.NewRedisClient(rctx, cfg.Redis)
		cancel()
		if err != nil {
			return nil, cleanup, fmt.Errorf("redis lock enabled but unavailable: %w", err)
		}
		cleanup = func() { _ = rdb.Close() }
		locker = lock.NewRedisLocker(rdb, cfg.Redis.TTL())
		logg.Info("Using Redis run lock", zap.String("addr", cfg.Redis.Addr))
	}

	svc := inventory.Build(db, inventory.Options{
		Source: inventory.SourceConfig{
			BaseURL: cfg.POS.BaseURL,
			Method:  cfg.POS.Method,
			Token:   cfg.POS.Token,
			Timeout: cfg.POS.Timeout(),
		},
		Concurrency:   cfg.Sync.Concurrency,
		LockKey:       cfg.Sync.LockKey,
		Locker:        locker,
		Archive:       archive,
		ArchiveBucket: cfg.Storage.Bucket,
		ArchivePrefix: cfg.Storage.Prefix,
	}, logg)

	return svc, cleanup, nil
}

package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"inventory-sync/core/reconcile"
	"inventory-sync/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchivingRunLogger copies every run record to object storage after handing
// it to the wrapped logger. Archive failures are logged and never returned.
type ArchivingRunLogger struct {
	next   reconcile.RunLogger
	client storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewArchivingRunLogger wraps next.
func NewArchivingRunLogger(next reconcile.RunLogger, client storage.Client, bucket, prefix string, logger *zap.Logger) *ArchivingRunLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchivingRunLogger{
		next:   next,
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// RecordRun implements reconcile.RunLogger.
func (a *ArchivingRunLogger) RecordRun(ctx context.Context, rec *reconcile.RunRecord) error {
	err := a.next.RecordRun(ctx, rec)
	a.archive(ctx, rec)
	return err
}

func (a *ArchivingRunLogger) archive(ctx context.Context, rec *reconcile.RunRecord) {
	key := ArchiveKey(a.prefix, rec)
	body, err := json.Marshal(rec)
	if err != nil {
		a.logger.Warn("Failed to encode run for archive", zap.String("key", key), zap.Error(err))
		return
	}

	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		a.logger.Warn("Failed to archive sync run",
			zap.String("bucket", a.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	a.logger.Debug("Archived sync run", zap.String("key", key))
}

// ArchiveKey returns the object key for rec: prefix/YYYY/MM/DD/<id>.json.
// Runs that have no id because the database write failed are keyed by start time.
func ArchiveKey(prefix string, rec *reconcile.RunRecord) string {
	day := rec.StartedAt.UTC().Format("2006/01/02")
	name := fmt.Sprintf("%d.json", rec.ID)
	if rec.ID == 0 {
		name = fmt.Sprintf("unrecorded-%d.json", rec.StartedAt.UnixNano())
	}
	return path.Join(prefix, day, name)
}

package integrity

import (
	"context"

	"inventory-sync/core/storage"
	"inventory-sync/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	db     *gorm.DB
}

// NewService creates a new integrity service. A nil client means the run
// archive is disabled.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
		db:     db,
	}
}

// CheckServer compares the sync tables against the models.
func (s *Service) CheckServer() (*checks.ServerReport, error) {
	return checks.CheckServerIntegrity(s.db)
}

// CheckStorage verifies the archive bucket.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// Healthy reports whether every check passed. Errors count as failures.
func (s *Service) Healthy(ctx context.Context) bool {
	srv, err := s.CheckServer()
	if err != nil || !srv.Matched {
		return false
	}
	st, err := s.CheckStorage(ctx)
	return err == nil && st.Status != "error"
}

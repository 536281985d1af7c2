package inventory

import (
	"context"
	"errors"
	"time"

	"inventory-sync/core/lock"
	"inventory-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrSyncInProgress is reported when another process holds the run lock.
var ErrSyncInProgress = errors.New("inventory sync already in progress")

// Runner performs one reconciliation pass.
type Runner interface {
	Run(ctx context.Context) reconcile.Summary
}

// Service is the entry point for triggering inventory syncs and reading their history.
type Service struct {
	runner  Runner
	history RunHistory
	locker  lock.Locker
	lockKey string
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group
}

// NewService creates a new inventory service. A nil locker disables cross-process locking.
func NewService(runner Runner, history RunHistory, locker lock.Locker, lockKey string, logger *zap.Logger) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner:  runner,
		history: history,
		locker:  locker,
		lockKey: lockKey,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunInventorySync runs one sync. Concurrent callers in this process share a
// single run and all receive its summary.
func (s *Service) RunInventorySync(ctx context.Context) reconcile.Summary {
	ctx = context.WithoutCancel(ctx)
	v, _, shared := s.group.Do(s.lockKey, func() (any, error) {
		return s.run(ctx), nil
	})
	if shared {
		s.logger.Debug("Joined in-flight inventory sync")
	}
	return v.(reconcile.Summary)
}

func (s *Service) run(ctx context.Context) reconcile.Summary {
	release, err := s.locker.Acquire(ctx, s.lockKey)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			s.logger.Warn("Inventory sync rejected, lock held elsewhere", zap.String("lock", s.lockKey))
			return s.rejected(ErrSyncInProgress)
		}
		s.logger.Error("Failed to acquire sync lock", zap.String("lock", s.lockKey), zap.Error(err))
		return s.rejected(err)
	}
	defer func() {
		if err := release(ctx); err != nil {
			s.logger.Warn("Failed to release sync lock", zap.String("lock", s.lockKey), zap.Error(err))
		}
	}()

	return s.runner.Run(ctx)
}

func (s *Service) rejected(err error) reconcile.Summary {
	return reconcile.Summary{
		Success:   false,
		Message:   "Inventory sync not started",
		Error:     err.Error(),
		Timestamp: s.now(),
	}
}

// ListRuns returns recent runs, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]reconcile.RunRecord, error) {
	return s.history.ListRuns(ctx, limit)
}

// GetRun returns a single run.
func (s *Service) GetRun(ctx context.Context, id uint) (*reconcile.RunRecord, error) {
	return s.history.GetRun(ctx, id)
}

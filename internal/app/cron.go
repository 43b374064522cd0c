package app

import (
	"context"
	"time"

	"github.com/memloc/core/internal/models"
	"github.com/memloc/core/internal/modules/memory"
	pkgcron "github.com/memloc/core/internal/pkg/cron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, memSvc *memory.Service, logger *zap.Logger) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:     "deactivate_expired_memories",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := memSvc.DeactivateExpired()
			if err != nil {
				cronLogger.Warn("deactivate expired memories failed", zap.Error(err))
				return err
			}
			if n > 0 {
				cronLogger.Info("deactivated expired memories", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:     "purge_stale_sessions",
		Interval: 24 * time.Hour,
		Fn: func(ctx context.Context) error {
			result := db.Where("expires_at < ?", time.Now()).Delete(&models.UserSession{})
			if result.Error != nil {
				cronLogger.Warn("purge stale sessions failed", zap.Error(result.Error))
				return result.Error
			}
			if result.RowsAffected > 0 {
				cronLogger.Info("purged stale sessions", zap.Int64("count", result.RowsAffected))
			}
			return nil
		},
	})
}

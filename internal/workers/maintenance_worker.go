package workers

import (
	"context"
	"time"

	"torres_backend/internal/appErrors"
	"torres_backend/internal/logger"
	"torres_backend/internal/services"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultCleanupInterval = 24 * time.Hour
	DefaultExpireInterval  = 6 * time.Hour
)

// MaintenanceWorker периодически выполняет обслуживание: очистку аудита и
// перевод истекших планов на бесплатный.
type MaintenanceWorker struct {
	admin           services.AdminService
	cleanupInterval time.Duration
	expireInterval  time.Duration
}

func NewMaintenanceWorker(admin services.AdminService, cleanupInterval, expireInterval time.Duration) *MaintenanceWorker {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	if expireInterval <= 0 {
		expireInterval = DefaultExpireInterval
	}
	return &MaintenanceWorker{
		admin:           admin,
		cleanupInterval: cleanupInterval,
		expireInterval:  expireInterval,
	}
}

// Run выполняет обе задачи сразу, затем по расписанию, пока ctx не отменен.
func (w *MaintenanceWorker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.every(gctx, "cleanup-logs", w.cleanupInterval, w.cleanupLogs) })
	g.Go(func() error { return w.every(gctx, "expire-plans", w.expireInterval, w.expirePlans) })

	err := g.Wait()
	logger.Info("Maintenance worker stopped")
	// Остановка по контексту вызывающего - штатное завершение
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *MaintenanceWorker) every(ctx context.Context, task string, interval time.Duration, fn func(ctx context.Context)) error {
	logger.Debug("Maintenance task scheduled", "task", task, "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Ошибки задач только логируются: следующий запуск попробует снова
func (w *MaintenanceWorker) cleanupLogs(ctx context.Context) {
	res, err := w.admin.CleanupLogs(ctx)
	if err != nil {
		w.logFailure("cleanup-logs", err)
		return
	}
	if res.Removed > 0 {
		logger.Info("Old audit logs removed", "count", res.Removed, "cutoff", res.Cutoff)
	}
}

func (w *MaintenanceWorker) expirePlans(ctx context.Context) {
	res, err := w.admin.ExpirePlans(ctx)
	if err != nil {
		w.logFailure("expire-plans", err)
		return
	}
	if res.Expired > 0 {
		logger.Info("Expired plans moved to free", "count", res.Expired)
	}
}

func (w *MaintenanceWorker) logFailure(task string, err error) {
	if appErrors.Is(err, appErrors.ErrOperationInProgress) {
		logger.Debug("Maintenance task skipped, admin lock is held", "task", task)
		return
	}
	logger.WithError(err).Error("Maintenance task failed", "task", task)
}

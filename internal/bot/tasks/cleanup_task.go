package tasks

import (
	"context"
	"fmt"
	"time"
)

// newCleanupOldDataTask deletes search history older than
// scheduler.retention_days.
func newCleanupOldDataTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "cleanup_old_data")

	return func(ctx context.Context) error {
		days := deps.Config.Scheduler.RetentionDays
		log.InfoContext(ctx, "Starting history cleanup", "retention_days", days)
		startTime := time.Now()

		removed, err := deps.Store.CleanupOldData(ctx, days)
		duration := time.Since(startTime)
		if err != nil {
			log.ErrorContext(ctx, "History cleanup failed", "error", err, "duration", duration)
			return fmt.Errorf("cleanup of old data failed: %w", err)
		}

		log.InfoContext(ctx, "History cleanup completed", "removed", removed, "duration", duration)
		return nil
	}
}

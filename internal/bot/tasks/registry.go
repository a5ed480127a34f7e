package tasks

import (
	"context"

	"github.com/edgard/termbot/internal/config"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context
// carries the task timeout and is cancelled on shutdown.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the available tasks keyed by the name used in
// scheduler.tasks.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		config.TaskSQLMaintenance: newSQLMaintenanceTask(deps),
		config.TaskCleanupOldData: newCleanupOldDataTask(deps),
	}
	if deps.Sweeper != nil {
		tasks[config.TaskSweepDialogues] = newSweepDialoguesTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

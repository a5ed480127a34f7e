package tasks

import "context"

// newSweepDialoguesTask evicts expired in-memory dialogue sessions.
func newSweepDialoguesTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sweep_dialogues")

	return func(ctx context.Context) error {
		removed := deps.Sweeper.Sweep()
		log.DebugContext(ctx, "Dialogue sweep completed", "removed", removed)
		return nil
	}
}

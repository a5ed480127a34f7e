package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/bot/tasks"
	"github.com/edgard/termbot/internal/config"
	"github.com/edgard/termbot/internal/database"
	"github.com/edgard/termbot/internal/dialogue"
)

func setup(t *testing.T, now func() time.Time) (database.Store, *sqlx.DB, map[string]tasks.ScheduledTaskFunc) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "tasks.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger, database.WithClock(now))
	cfg := &config.Config{Scheduler: config.SchedulerConfig{RetentionDays: 30}}

	deps := tasks.TaskDeps{Logger: logger, Store: store, Config: cfg, Sweeper: dialogue.NewMemoryStore(time.Minute)}
	return store, db, tasks.RegisterAllTasks(deps)
}

func TestRegisterAllTasksMatchesConfigNames(t *testing.T) {
	t.Parallel()

	_, _, registry := setup(t, time.Now)
	for name := range config.DefaultTasks {
		assert.Contains(t, registry, name)
	}
}

func TestCleanupOldDataTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store, _, registry := setup(t, clock)

	_, err := store.GetOrCreateUser(ctx, 1, database.Identity{FirstName: "Ann"})
	require.NoError(t, err)
	_, err = store.AddSearchHistory(ctx, 1, database.SearchRecord{Term: "old", Success: true})
	require.NoError(t, err)

	now = now.Add(45 * 24 * time.Hour)
	_, err = store.AddSearchHistory(ctx, 1, database.SearchRecord{Term: "new", Success: true})
	require.NoError(t, err)

	require.NoError(t, registry[config.TaskCleanupOldData](ctx))

	history, err := store.GetSearchHistory(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "new", history[0].SearchTerm)
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	_, _, registry := setup(t, time.Now)
	require.NoError(t, registry[config.TaskSQLMaintenance](context.Background()))
}

func TestTasksReportFailures(t *testing.T) {
	t.Parallel()

	_, db, registry := setup(t, time.Now)
	require.NoError(t, db.Close())

	assert.Error(t, registry[config.TaskSQLMaintenance](context.Background()))
	assert.Error(t, registry[config.TaskCleanupOldData](context.Background()))
}

type countingSweeper struct{ calls int }

func (c *countingSweeper) Sweep() int {
	c.calls++
	return 3
}

func TestSweepDialoguesTask(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := &countingSweeper{}

	registry := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: logger, Config: &config.Config{}, Sweeper: sweeper})
	require.Contains(t, registry, config.TaskSweepDialogues)
	require.NoError(t, registry[config.TaskSweepDialogues](context.Background()))
	assert.Equal(t, 1, sweeper.calls)

	withoutSweeper := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: logger, Config: &config.Config{}})
	assert.NotContains(t, withoutSweeper, config.TaskSweepDialogues)
}

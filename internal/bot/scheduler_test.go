package bot_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/bot"
	"github.com/edgard/termbot/internal/bot/tasks"
	"github.com/edgard/termbot/internal/config"
)

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{
		Tasks: map[string]config.TaskConfig{
			"every_second": {Enabled: true, Schedule: "* * * * * *"},
			"disabled":     {Enabled: false, Schedule: "* * * * * *"},
			"unregistered": {Enabled: true, Schedule: "* * * * * *"},
		},
		TaskTimeout: time.Minute,
	}

	var runs, disabledRuns atomic.Int32
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"every_second": func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			runs.Add(1)
			return nil
		},
		"disabled": func(context.Context) error {
			disabledRuns.Add(1)
			return nil
		},
	}

	s, err := bot.NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start is refused")

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	require.NoError(t, s.Stop())
	assert.Zero(t, disabledRuns.Load())
	require.NoError(t, s.Stop(), "stop is idempotent")
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{"broken": {Enabled: true, Schedule: "not a cron"}}}
	taskMap := map[string]tasks.ScheduledTaskFunc{"broken": func(context.Context) error { return nil }}

	s, err := bot.NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestSchedulerRunNowAndCancellation(t *testing.T) {
	t.Parallel()

	cfg := &config.SchedulerConfig{TaskTimeout: time.Minute}
	var sawCancel atomic.Bool
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"once": func(ctx context.Context) error {
			sawCancel.Store(ctx.Err() != nil)
			return nil
		},
	}

	s, err := bot.NewScheduler(discardLogger(), cfg, taskMap)
	require.NoError(t, err)

	require.NoError(t, s.RunNow("once"))
	assert.False(t, sawCancel.Load())
	assert.Error(t, s.RunNow("missing"))

	require.NoError(t, s.Stop())
	require.NoError(t, s.RunNow("once"))
	assert.True(t, sawCancel.Load(), "tasks see shutdown")
}

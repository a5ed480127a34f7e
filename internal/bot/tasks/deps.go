// Package tasks implements the scheduled maintenance tasks of the bot.
package tasks

import (
	"log/slog"

	"github.com/edgard/termbot/internal/config"
	"github.com/edgard/termbot/internal/database"
)

// Sweeper drops expired entries from an in-process store.
type Sweeper interface {
	Sweep() int
}

// TaskDeps contains the dependencies shared by scheduled tasks. Sweeper is
// nil when dialogue state lives in Redis, which expires keys itself.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Config  *config.Config
	Sweeper Sweeper
}

package handlers

import (
	"log/slog"

	"github.com/edgard/termbot/internal/config"
	"github.com/edgard/termbot/internal/database"
	"github.com/edgard/termbot/internal/dialogue"
	"github.com/edgard/termbot/internal/encyclopedia"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	Encyclopedia encyclopedia.Client
	Dialogue     dialogue.StateStore
}

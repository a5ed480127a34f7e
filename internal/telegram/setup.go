// Package telegram creates the go-telegram client, registers handlers and
// manages the webhook and command menu.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/bot/handlers"
	"github.com/edgard/termbot/internal/config"
)

// NewTelegramBot creates the client. In webhook mode the secret token is
// checked on every incoming request.
func NewTelegramBot(cfg config.TelegramConfig, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	if cfg.Mode == "webhook" && cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}

	b, err := bot.New(cfg.Token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created", "mode", cfg.Mode)
	return b, nil
}

// applyMiddleware wraps a handler function with a slice of middleware.
// The first middleware in the slice is the outermost.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// RegisterHandlers registers each handler with its middleware applied.
func RegisterHandlers(b *bot.Bot, logger *slog.Logger, registeredHandlers map[string]handlers.RegisteredHandler) error {
	if b == nil {
		return errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	registered := 0
	for name, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "name", name)
			continue
		}
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType,
			applyMiddleware(regHandler.Handler, regHandler.Middleware))
		log.Debug("Registered handler", "name", name, "pattern", regHandler.Pattern, "middleware_count", len(regHandler.Middleware))
		registered++
	}

	log.Info("Registered Telegram handlers", "count", registered)
	return nil
}

// userCommands is the command menu Telegram shows to every user.
var userCommands = []models.BotCommand{
	{Command: "start", Description: "Register or open the menu"},
	{Command: "menu", Description: "Main menu"},
	{Command: "profile", Description: "Your profile"},
	{Command: "history", Description: "Recent searches"},
	{Command: "stats", Description: "Your statistics"},
	{Command: "cancel", Description: "Cancel the current action"},
	{Command: "help", Description: "Help"},
}

// PublishCommands sets the bot's command menu.
func PublishCommands(ctx context.Context, b *bot.Bot) error {
	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: userCommands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	return nil
}

// Package handlers contains Telegram bot command, callback and message
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly lets the update through only when the sender is listed in
// telegram.admin_ids. Others get the not-authorized reply.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			s, ok := senderOf(update)
			if !ok {
				return
			}

			if !deps.Config.Telegram.IsAdmin(s.userID) {
				log := deps.Logger.With("middleware", "AdminOnly")
				log.WarnContext(ctx, "Unauthorized access attempt", "user_id", s.userID, "chat_id", s.chatID)

				if s.callback != nil {
					answer(ctx, bot, log, s, deps.Config.Messages.NotAuthorized, true)
					return
				}
				send(ctx, bot, log, s.chatID, deps.Config.Messages.NotAuthorized, nil)
				return
			}

			next(ctx, bot, update)
		}
	}
}

// Recover stops a panicking handler from taking the bot down and reports
// the panic to Sentry.
func Recover(logger *slog.Logger) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					sentry.CurrentHub().Recover(r)
					logger.ErrorContext(ctx, "Handler panicked", "panic", r, "update_id", update.ID)
				}
			}()
			next(ctx, bot, update)
		}
	}
}

// TrackActivity refreshes the sender's last_activity before the handler
// runs. Unknown users are ignored.
func TrackActivity(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if s, ok := senderOf(update); ok {
				if _, err := deps.Store.TouchLastActivity(ctx, s.userID); err != nil {
					deps.Logger.WarnContext(ctx, "Failed to refresh last activity", "error", err, "user_id", s.userID)
				}
			}
			next(ctx, bot, update)
		}
	}
}

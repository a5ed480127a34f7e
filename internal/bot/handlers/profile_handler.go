package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/format"
)

const historyLimit = 5

// NewProfileHandler shows the sender's profile card.
func NewProfileHandler(deps HandlerDeps) bot.HandlerFunc {
	return profileHandler{deps}.Handle
}

type profileHandler struct {
	deps HandlerDeps
}

func (h profileHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "profile")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if err := h.deps.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}

	user := h.deps.requireRegistered(ctx, b, log, s)
	if user == nil {
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, format.Profile(user), profileKeyboard())
}

// NewHistoryHandler lists the sender's most recent searches.
func NewHistoryHandler(deps HandlerDeps) bot.HandlerFunc {
	return historyHandler{deps}.Handle
}

type historyHandler struct {
	deps HandlerDeps
}

func (h historyHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "history")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	entries, err := h.deps.Store.GetSearchHistory(ctx, s.userID, historyLimit)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to load search history", err)
		return
	}

	text := h.deps.Config.Messages.HistoryEmpty
	if len(entries) > 0 {
		text = format.History(entries)
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, text, backToProfileKeyboard())
}

// NewUserStatsHandler shows the sender's search statistics.
func NewUserStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return userStatsHandler{deps}.Handle
}

type userStatsHandler struct {
	deps HandlerDeps
}

func (h userStatsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "user_stats")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	stats, err := h.deps.Store.GetUserStats(ctx, s.userID)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to compute user statistics", err)
		return
	}
	if stats == nil {
		respond(ctx, b, log, s, h.deps.Config.Messages.NotRegistered, backKeyboard())
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, format.UserStats(stats), backToProfileKeyboard())
}

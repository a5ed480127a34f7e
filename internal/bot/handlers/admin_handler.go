package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/format"
)

const (
	recentSearchHours = 24
	recentSearchLimit = 10
	defaultUsersList  = 20
	maxUsersList      = 100
)

// NewAdminStatsHandler returns a handler for the /admin_stats command.
func NewAdminStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminStatsHandler{deps}.Handle
}

type adminStatsHandler struct {
	deps HandlerDeps
}

func (h adminStatsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin_stats")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	log.InfoContext(ctx, "Admin requested bot statistics", "chat_id", s.chatID, "user_id", s.userID)

	stats, err := h.deps.Store.GetBotStats(ctx)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to compute bot statistics", err)
		return
	}
	recent, err := h.deps.Store.GetRecentSearches(ctx, recentSearchHours, recentSearchLimit)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to load recent searches", err)
		return
	}

	text := format.BotStats(stats) + "\n\n" + format.RecentSearches(recent, recentSearchHours)
	send(ctx, b, log, s.chatID, format.Clip(text, format.MaxMessageLen), nil)
}

// NewAdminUsersHandler returns a handler for /admin_users [n].
func NewAdminUsersHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminUsersHandler{deps}.Handle
}

type adminUsersHandler struct {
	deps HandlerDeps
}

func (h adminUsersHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin_users")

	s, ok := senderOf(update)
	if !ok {
		return
	}

	limit := parseLimit(commandArgs(s.text), defaultUsersList, maxUsersList)
	log.InfoContext(ctx, "Admin requested user list", "chat_id", s.chatID, "user_id", s.userID, "limit", limit)

	users, err := h.deps.Store.ListUsers(ctx, limit)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to list users", err)
		return
	}
	send(ctx, b, log, s.chatID, format.Clip(format.UsersList(users), format.MaxMessageLen), nil)
}

// commandArgs returns the words after the command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// parseLimit reads the first argument as a positive count, falling back
// to fallback and capping at ceiling.
func parseLimit(args []string, fallback, ceiling int) int {
	if len(args) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fallback
	}
	return min(n, ceiling)
}

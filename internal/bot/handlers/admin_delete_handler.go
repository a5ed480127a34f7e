package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/format"
)

const (
	deleteTimeout       = 30 * time.Second
	deleteCandidatesMax = 10
)

// NewAdminDeleteUserHandler returns a handler for /admin_delete_user [id].
// Without an id it lists recent users; with one it asks for confirmation.
func NewAdminDeleteUserHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminDeleteUserHandler{deps}.Handle
}

type adminDeleteUserHandler struct {
	deps HandlerDeps
}

func (h adminDeleteUserHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin_delete_user")

	s, ok := senderOf(update)
	if !ok {
		return
	}

	args := commandArgs(s.text)
	var targetID int64
	var err error
	if len(args) > 0 {
		targetID, err = strconv.ParseInt(args[0], 10, 64)
	}
	if len(args) == 0 || err != nil || targetID <= 0 {
		users, err := h.deps.Store.ListUsers(ctx, deleteCandidatesMax)
		if err != nil {
			h.deps.reportError(ctx, b, log, s, "Failed to list users", err)
			return
		}
		text := fmt.Sprintf(h.deps.Config.Messages.AdminDeleteUsage, format.UsersList(users))
		send(ctx, b, log, s.chatID, format.Clip(text, format.MaxMessageLen), nil)
		return
	}

	if targetID == s.userID {
		send(ctx, b, log, s.chatID, h.deps.Config.Messages.AdminDeleteSelf, nil)
		return
	}

	user, err := h.deps.Store.GetUserProfile(ctx, targetID)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to load user", err)
		return
	}
	if user == nil {
		send(ctx, b, log, s.chatID, fmt.Sprintf(h.deps.Config.Messages.AdminUserNotFound, targetID), nil)
		return
	}

	log.InfoContext(ctx, "Admin asked to delete user", "user_id", s.userID, "target_id", targetID)
	text := fmt.Sprintf(h.deps.Config.Messages.AdminDeleteConfirm, format.UserLine(user))
	send(ctx, b, log, s.chatID, text, confirmDeleteKeyboard(strconv.FormatInt(targetID, 10)))
}

// NewAdminConfirmDeleteHandler deletes the user named in the callback data.
func NewAdminConfirmDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminConfirmDeleteHandler{deps}.Handle
}

type adminConfirmDeleteHandler struct {
	deps HandlerDeps
}

func (h adminConfirmDeleteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin_confirm_delete")

	s, ok := senderOf(update)
	if !ok {
		return
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(s.text, CallbackAdminConfirmDelete), 10, 64)
	if err != nil {
		log.WarnContext(ctx, "Malformed delete confirmation", "data", s.text)
		answer(ctx, b, log, s, "", false)
		respond(ctx, b, log, s, h.deps.Config.Messages.GeneralError, nil)
		return
	}
	if targetID == s.userID {
		answer(ctx, b, log, s, "", false)
		respond(ctx, b, log, s, h.deps.Config.Messages.AdminDeleteSelf, nil)
		return
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	deleted, err := h.deps.Store.DeleteUserData(timeoutCtx, targetID)
	if errors.Is(err, context.DeadlineExceeded) {
		log.WarnContext(ctx, "User deletion timed out", "target_id", targetID)
	}
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to delete user", err)
		return
	}
	answer(ctx, b, log, s, "", false)
	if !deleted {
		respond(ctx, b, log, s, fmt.Sprintf(h.deps.Config.Messages.AdminUserNotFound, targetID), nil)
		return
	}
	log.InfoContext(ctx, "User deleted by admin", "user_id", s.userID, "target_id", targetID)

	if err := h.deps.Dialogue.Clear(ctx, targetID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", targetID)
	}

	var users, searches int
	if stats, err := h.deps.Store.GetBotStats(ctx); err == nil {
		users, searches = stats.TotalUsers, stats.TotalSearches
	} else {
		log.WarnContext(ctx, "Failed to refresh totals after deletion", "error", err)
	}
	respond(ctx, b, log, s, fmt.Sprintf(h.deps.Config.Messages.AdminDeleteDone, targetID, users, searches), nil)

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    targetID,
		Text:      h.deps.Config.Messages.UserDeletedNotice,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.InfoContext(ctx, "Could not notify deleted user", "error", err, "target_id", targetID)
	}
}

// NewAdminCancelDeleteHandler dismisses a pending delete confirmation.
func NewAdminCancelDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return adminCancelDeleteHandler{deps}.Handle
}

type adminCancelDeleteHandler struct {
	deps HandlerDeps
}

func (h adminCancelDeleteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "admin_cancel_delete")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, h.deps.Config.Messages.AdminDeleteCancel, nil)
}

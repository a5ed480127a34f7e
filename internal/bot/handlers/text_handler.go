package handlers

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/dialogue"
)

// NewTextHandler returns the default handler. Plain text is routed by the
// sender's dialogue state; unmatched callbacks are acknowledged.
func NewTextHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps}.Handle
}

type textHandler struct {
	deps HandlerDeps
}

func (h textHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "text")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if s.callback != nil {
		log.DebugContext(ctx, "Unhandled callback data", "data", s.text, "user_id", s.userID)
		answer(ctx, b, log, s, "", false)
		return
	}

	sess, err := h.deps.Dialogue.Get(ctx, s.userID)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to load dialogue state", err)
		return
	}
	if sess == nil || s.text == "" {
		send(ctx, b, log, s.chatID, h.deps.Config.Messages.UnknownInput, mainMenuKeyboard())
		return
	}

	if dialogue.IsCancel(s.text, h.deps.Config.Dialogue.CancelWords) {
		h.deps.cancelDialogue(ctx, b, log, s, sess)
		return
	}

	switch {
	case sess.State.IsRegistration():
		h.deps.advanceRegistration(ctx, b, log, s, sess)
	case sess.State == dialogue.StateSearchTerm:
		h.deps.search(ctx, b, log, s)
	default:
		if field, ok := sess.State.EditField(); ok {
			h.deps.applyEdit(ctx, b, log, s, field)
			return
		}
		log.WarnContext(ctx, "Unknown dialogue state, resetting", "state", sess.State, "user_id", s.userID)
		if err := h.deps.Dialogue.Clear(ctx, s.userID); err != nil {
			log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
		}
		send(ctx, b, log, s.chatID, h.deps.Config.Messages.UnknownInput, mainMenuKeyboard())
	}
}

// NewCancelHandler returns a handler for the /cancel command.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	sess, err := h.deps.Dialogue.Get(ctx, s.userID)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to load dialogue state", err)
		return
	}
	h.deps.cancelDialogue(ctx, b, log, s, sess)
}

// cancelDialogue drops the dialogue in progress, if any.
func (d HandlerDeps) cancelDialogue(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, sess *dialogue.Session) {
	if err := d.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}

	switch {
	case sess == nil:
		send(ctx, b, log, s.chatID, d.Config.Messages.ActionCancelled, mainMenuKeyboard())
	case sess.State.IsRegistration():
		send(ctx, b, log, s.chatID, d.Config.Messages.RegistrationCancel, removeKeyboard())
	case sess.State == dialogue.StateSearchTerm:
		send(ctx, b, log, s.chatID, d.Config.Messages.SearchCancelled, mainMenuKeyboard())
	default:
		send(ctx, b, log, s.chatID, d.Config.Messages.ActionCancelled, profileKeyboard())
	}
	log.InfoContext(ctx, "Dialogue cancelled", "user_id", s.userID)
}

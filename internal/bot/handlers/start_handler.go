package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/dialogue"
	"github.com/edgard/termbot/internal/format"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler greets registered users and starts registration for new ones.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	s, ok := senderOf(update)
	if !ok {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	log.InfoContext(ctx, "Handling /start command", "chat_id", s.chatID, "user_id", s.userID)

	user, err := h.deps.Store.GetOrCreateUser(ctx, s.userID, s.ident)
	if err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to get or create user", err)
		return
	}

	if user.IsRegistered {
		if err := h.deps.Dialogue.Clear(ctx, s.userID); err != nil {
			log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
		}
		welcome := fmt.Sprintf(h.deps.Config.Messages.Welcome, format.Escape(user.DisplayName()))
		send(ctx, b, log, s.chatID, welcome, mainMenuKeyboard())
		return
	}

	if err := h.deps.Dialogue.Set(ctx, s.userID, dialogue.StartRegistration()); err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to start registration", err)
		return
	}
	send(ctx, b, log, s.chatID, h.deps.Config.Messages.RegistrationStart, registrationKeyboard())
	log.DebugContext(ctx, "Registration started", "user_id", s.userID)
}

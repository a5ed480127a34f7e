package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/dialogue"
)

// advanceRegistration applies the sender's answer to the current
// registration question and asks the next one.
func (d HandlerDeps) advanceRegistration(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, sess *dialogue.Session) {
	done, err := dialogue.Advance(sess, s.text)
	var inputErr *dialogue.InputError
	if errors.As(err, &inputErr) {
		send(ctx, b, log, s.chatID, d.invalidInputMessage(inputErr.Field), skipKeyboard())
		return
	}
	if err != nil {
		if clearErr := d.Dialogue.Clear(ctx, s.userID); clearErr != nil {
			log.WarnContext(ctx, "Failed to clear dialogue state", "error", clearErr, "user_id", s.userID)
		}
		d.reportError(ctx, b, log, s, "Failed to advance registration", err)
		return
	}

	if !done {
		if err := d.Dialogue.Set(ctx, s.userID, sess); err != nil {
			d.reportError(ctx, b, log, s, "Failed to store dialogue state", err)
			return
		}
		send(ctx, b, log, s.chatID, d.registrationPrompt(sess.State), skipKeyboard())
		return
	}

	if err := d.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}

	if sess.Draft.IsEmpty() {
		log.InfoContext(ctx, "Registration finished with every question skipped", "user_id", s.userID)
		send(ctx, b, log, s.chatID, d.Config.Messages.RegistrationSkip, removeKeyboard())
		send(ctx, b, log, s.chatID, d.Config.Messages.MainMenu, mainMenuKeyboard())
		return
	}

	updated, err := d.Store.UpdateUserProfile(ctx, s.userID, sess.Draft)
	if err != nil {
		d.reportError(ctx, b, log, s, "Failed to save registration", err)
		return
	}
	if !updated {
		send(ctx, b, log, s.chatID, d.Config.Messages.NotRegistered, removeKeyboard())
		return
	}

	log.InfoContext(ctx, "Registration completed", "user_id", s.userID)
	send(ctx, b, log, s.chatID, d.Config.Messages.RegistrationDone, removeKeyboard())
	send(ctx, b, log, s.chatID, d.Config.Messages.MainMenu, mainMenuKeyboard())
}

func (d HandlerDeps) registrationPrompt(state dialogue.State) string {
	switch state {
	case dialogue.StateRegLastName:
		return d.Config.Messages.AskLastName
	case dialogue.StateRegEmail:
		return d.Config.Messages.AskEmail
	case dialogue.StateRegAge:
		return d.Config.Messages.AskAge
	default:
		return d.Config.Messages.RegistrationStart
	}
}

// NewSkipRegistrationHandler abandons registration and opens the main menu.
// The user stays unregistered.
func NewSkipRegistrationHandler(deps HandlerDeps) bot.HandlerFunc {
	return registrationExitHandler{deps: deps, skip: true}.Handle
}

// NewCancelRegistrationHandler abandons registration.
func NewCancelRegistrationHandler(deps HandlerDeps) bot.HandlerFunc {
	return registrationExitHandler{deps: deps}.Handle
}

type registrationExitHandler struct {
	deps HandlerDeps
	skip bool
}

func (h registrationExitHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "registration_exit", "skip", h.skip)

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if err := h.deps.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}
	answer(ctx, b, log, s, "", false)

	if !h.skip {
		respond(ctx, b, log, s, h.deps.Config.Messages.RegistrationCancel, nil)
		return
	}
	respond(ctx, b, log, s, h.deps.Config.Messages.RegistrationSkip, nil)
	send(ctx, b, log, s.chatID, h.deps.Config.Messages.MainMenu, mainMenuKeyboard())
}

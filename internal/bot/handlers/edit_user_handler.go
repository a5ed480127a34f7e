package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/dialogue"
	"github.com/edgard/termbot/internal/format"
)

// NewEditProfileHandler offers the editable profile fields.
func NewEditProfileHandler(deps HandlerDeps) bot.HandlerFunc {
	return editProfileHandler{deps}.Handle
}

type editProfileHandler struct {
	deps HandlerDeps
}

func (h editProfileHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "edit_profile")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, h.deps.Config.Messages.EditChoose, editProfileKeyboard())
}

// NewEditFieldHandler asks for a new value of field and waits for it.
func NewEditFieldHandler(deps HandlerDeps, field dialogue.Field) bot.HandlerFunc {
	return editFieldHandler{deps: deps, field: field}.Handle
}

type editFieldHandler struct {
	deps  HandlerDeps
	field dialogue.Field
}

func (h editFieldHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "edit_field", "field", h.field)

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	sess := &dialogue.Session{State: dialogue.EditState(h.field)}
	if err := h.deps.Dialogue.Set(ctx, s.userID, sess); err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to store dialogue state", err)
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, fmt.Sprintf(h.deps.Config.Messages.EditAsk, format.Escape(h.field.Label())), backToProfileKeyboard())
}

// applyEdit validates the answer to an edit prompt and saves it.
func (d HandlerDeps) applyEdit(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, field dialogue.Field) {
	patch, err := dialogue.EditPatch(field, s.text)
	var inputErr *dialogue.InputError
	if errors.As(err, &inputErr) {
		send(ctx, b, log, s.chatID, d.invalidInputMessage(inputErr.Field), backToProfileKeyboard())
		return
	}
	if err != nil {
		d.reportError(ctx, b, log, s, "Failed to build profile patch", err)
		return
	}

	if err := d.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}

	updated, err := d.Store.UpdateUserProfile(ctx, s.userID, patch)
	if err != nil {
		d.reportError(ctx, b, log, s, "Failed to update profile", err)
		return
	}
	if !updated {
		send(ctx, b, log, s.chatID, d.Config.Messages.NotRegistered, nil)
		return
	}
	log.InfoContext(ctx, "Profile field updated", "user_id", s.userID, "field", field)

	user, err := d.Store.GetUserProfile(ctx, s.userID)
	if err != nil || user == nil {
		send(ctx, b, log, s.chatID, d.Config.Messages.EditDone, profileKeyboard())
		return
	}
	send(ctx, b, log, s.chatID, d.Config.Messages.EditDone+"\n\n"+format.Profile(user), profileKeyboard())
}

func (d HandlerDeps) invalidInputMessage(f dialogue.Field) string {
	switch f {
	case dialogue.FieldFirstName:
		return d.Config.Messages.InvalidFirstName
	case dialogue.FieldLastName:
		return d.Config.Messages.InvalidLastName
	case dialogue.FieldEmail:
		return d.Config.Messages.InvalidEmail
	case dialogue.FieldAge:
		return d.Config.Messages.InvalidAge
	default:
		return d.Config.Messages.UnknownInput
	}
}

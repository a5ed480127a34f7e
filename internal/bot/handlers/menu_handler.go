package handlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/format"
)

// NewMenuHandler serves /menu and the main-menu buttons. Leaving for the
// menu abandons any dialogue in progress.
func NewMenuHandler(deps HandlerDeps) bot.HandlerFunc {
	return menuHandler{deps}.Handle
}

type menuHandler struct {
	deps HandlerDeps
}

func (h menuHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "menu")

	s, ok := senderOf(update)
	if !ok {
		return
	}

	if err := h.deps.Dialogue.Clear(ctx, s.userID); err != nil {
		log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
	}

	if s.callback == nil && h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, h.deps.Config.Messages.MainMenu, mainMenuKeyboard())
}

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return NewInfoHandler(deps, deps.Config.Messages.Help)
}

// NewInfoHandler replies with a fixed text and a way back to the menu.
func NewInfoHandler(deps HandlerDeps, text string) bot.HandlerFunc {
	return infoHandler{deps: deps, text: text, keyboard: backKeyboard()}.Handle
}

// NewSettingsHandler shows the settings sections.
func NewSettingsHandler(deps HandlerDeps) bot.HandlerFunc {
	return infoHandler{deps: deps, text: deps.Config.Messages.Settings, keyboard: settingsKeyboard()}.Handle
}

// NewSettingsPageHandler shows one settings section with a way back to the
// settings list.
func NewSettingsPageHandler(deps HandlerDeps, text string) bot.HandlerFunc {
	return infoHandler{deps: deps, text: text, keyboard: settingsPageKeyboard()}.Handle
}

// languagePage names the wiki that serves lookups.
func languagePage(deps HandlerDeps) string {
	wiki := deps.Config.Encyclopedia.BaseURL
	if u, err := url.Parse(wiki); err == nil && u.Host != "" {
		wiki = u.Host
	}
	return fmt.Sprintf(deps.Config.Messages.SettingsLanguage, format.Code(wiki))
}

type infoHandler struct {
	deps     HandlerDeps
	text     string
	keyboard models.ReplyMarkup
}

func (h infoHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "info")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, h.text, h.keyboard)
}

package handlers

import (
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/termbot/internal/dialogue"
)

// RegisteredHandler represents a command or callback handler with its
// middleware. It encapsulates all information needed to register it.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

func command(name string, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     name,
		Handler:     h,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  mw,
	}
}

func callback(data string, match tgbot.MatchType, h tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     data,
		Handler:     h,
		MatchType:   match,
		Middleware:  mw,
	}
}

// RegisterAllCommands returns every command and callback handler keyed by
// a unique name. Plain text is served by NewTextHandler as the default
// handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/menu"] = command("menu", NewMenuHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))
	handlers["/profile"] = command("profile", NewProfileHandler(deps))
	handlers["/history"] = command("history", NewHistoryHandler(deps))
	handlers["/stats"] = command("stats", NewUserStatsHandler(deps))
	handlers["/cancel"] = command("cancel", NewCancelHandler(deps))

	adminOnly := AdminOnly(deps)

	handlers["/admin_stats"] = command("admin_stats", NewAdminStatsHandler(deps), adminOnly)
	handlers["/admin_users"] = command("admin_users", NewAdminUsersHandler(deps), adminOnly)
	handlers["/admin_delete_user"] = command("admin_delete_user", NewAdminDeleteUserHandler(deps), adminOnly)

	exact := tgbot.MatchTypeExact
	handlers["cb:"+CallbackProfile] = callback(CallbackProfile, exact, NewProfileHandler(deps))
	handlers["cb:"+CallbackBackToProfile] = callback(CallbackBackToProfile, exact, NewProfileHandler(deps))
	handlers["cb:"+CallbackHistory] = callback(CallbackHistory, exact, NewHistoryHandler(deps))
	handlers["cb:"+CallbackUserStats] = callback(CallbackUserStats, exact, NewUserStatsHandler(deps))
	handlers["cb:"+CallbackSearch] = callback(CallbackSearch, exact, NewSearchPromptHandler(deps))
	handlers["cb:"+CallbackBackMain] = callback(CallbackBackMain, exact, NewMenuHandler(deps))
	handlers["cb:"+CallbackMainMenu] = callback(CallbackMainMenu, exact, NewMenuHandler(deps))
	handlers["cb:"+CallbackAbout] = callback(CallbackAbout, exact, NewInfoHandler(deps, deps.Config.Messages.About))
	handlers["cb:"+CallbackFAQ] = callback(CallbackFAQ, exact, NewInfoHandler(deps, deps.Config.Messages.FAQ))
	handlers["cb:"+CallbackContacts] = callback(CallbackContacts, exact, NewInfoHandler(deps, deps.Config.Messages.Contacts))
	handlers["cb:"+CallbackSettings] = callback(CallbackSettings, exact, NewSettingsHandler(deps))
	handlers["cb:"+CallbackSettingsNotify] = callback(CallbackSettingsNotify, exact, NewSettingsPageHandler(deps, deps.Config.Messages.SettingsNotify))
	handlers["cb:"+CallbackSettingsLanguage] = callback(CallbackSettingsLanguage, exact, NewSettingsPageHandler(deps, languagePage(deps)))
	handlers["cb:"+CallbackSettingsTheme] = callback(CallbackSettingsTheme, exact, NewSettingsPageHandler(deps, deps.Config.Messages.SettingsTheme))
	handlers["cb:"+CallbackSkipRegistration] = callback(CallbackSkipRegistration, exact, NewSkipRegistrationHandler(deps))
	handlers["cb:"+CallbackCancelRegistration] = callback(CallbackCancelRegistration, exact, NewCancelRegistrationHandler(deps))
	handlers["cb:"+CallbackEditProfile] = callback(CallbackEditProfile, exact, NewEditProfileHandler(deps))
	for _, f := range dialogue.Fields {
		data := CallbackEditPrefix + string(f)
		handlers["cb:"+data] = callback(data, exact, NewEditFieldHandler(deps, f))
	}

	handlers["cb:"+CallbackAdminConfirmDelete] = callback(CallbackAdminConfirmDelete, tgbot.MatchTypePrefix, NewAdminConfirmDeleteHandler(deps), adminOnly)
	handlers["cb:"+CallbackAdminCancelDelete] = callback(CallbackAdminCancelDelete, exact, NewAdminCancelDeleteHandler(deps), adminOnly)

	return handlers
}

package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/dialogue"
)

// Callback data sent by inline keyboard buttons.
const (
	CallbackProfile            = "profile"
	CallbackSearch             = "term_search"
	CallbackHistory            = "history"
	CallbackUserStats          = "user_stats"
	CallbackEditProfile        = "edit_profile"
	CallbackEditPrefix         = "edit_"
	CallbackBackToProfile      = "back_to_profile"
	CallbackBackMain           = "back_main"
	CallbackMainMenu           = "main_menu"
	CallbackAbout              = "about"
	CallbackFAQ                = "faq"
	CallbackContacts           = "contacts"
	CallbackSettings           = "settings"
	CallbackSettingsNotify     = "notifications"
	CallbackSettingsLanguage   = "language"
	CallbackSettingsTheme      = "theme"
	CallbackSkipRegistration   = "skip_registration"
	CallbackCancelRegistration = "cancel_registration"
	CallbackAdminConfirmDelete = "admin_confirm_delete:"
	CallbackAdminCancelDelete  = "admin_cancel_delete"
)

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func inline(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func mainMenuKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("🔍 Search", CallbackSearch), button("👤 Profile", CallbackProfile)},
		[]models.InlineKeyboardButton{button("ℹ️ About", CallbackAbout), button("⚙️ Settings", CallbackSettings)},
		[]models.InlineKeyboardButton{button("📬 Contacts", CallbackContacts), button("❓ FAQ", CallbackFAQ)},
	)
}

func settingsKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("🔔 Notifications", CallbackSettingsNotify)},
		[]models.InlineKeyboardButton{button("🌍 Language", CallbackSettingsLanguage)},
		[]models.InlineKeyboardButton{button("🎨 Theme", CallbackSettingsTheme)},
		[]models.InlineKeyboardButton{button("🏠 Main menu", CallbackBackMain)},
	)
}

func settingsPageKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("⚙️ Back to settings", CallbackSettings)},
		[]models.InlineKeyboardButton{button("🏠 Main menu", CallbackMainMenu)},
	)
}

func backKeyboard() *models.InlineKeyboardMarkup {
	return inline([]models.InlineKeyboardButton{button("🏠 Main menu", CallbackBackMain)})
}

func profileKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("✏️ Edit profile", CallbackEditProfile)},
		[]models.InlineKeyboardButton{button("📜 History", CallbackHistory), button("📊 Statistics", CallbackUserStats)},
		[]models.InlineKeyboardButton{button("🏠 Main menu", CallbackBackMain)},
	)
}

func backToProfileKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("👤 Back to profile", CallbackBackToProfile)},
		[]models.InlineKeyboardButton{button("🏠 Main menu", CallbackBackMain)},
	)
}

func editProfileKeyboard() *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(dialogue.Fields)+1)
	for _, f := range dialogue.Fields {
		rows = append(rows, []models.InlineKeyboardButton{button(f.Label(), CallbackEditPrefix+string(f))})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("⬅️ Back", CallbackBackToProfile)})
	return inline(rows...)
}

func registrationKeyboard() *models.InlineKeyboardMarkup {
	return inline(
		[]models.InlineKeyboardButton{button("📝 Fill in later", CallbackSkipRegistration)},
		[]models.InlineKeyboardButton{button("❌ Cancel", CallbackCancelRegistration)},
	)
}

func resultKeyboard(url string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{}
	if url != "" {
		rows = append(rows, []models.InlineKeyboardButton{{Text: "📖 Full article", URL: url}})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("🏠 Main menu", CallbackBackMain)})
	return inline(rows...)
}

func confirmDeleteKeyboard(data string) *models.InlineKeyboardMarkup {
	return inline([]models.InlineKeyboardButton{
		button("✅ Delete", CallbackAdminConfirmDelete+data),
		button("❌ Cancel", CallbackAdminCancelDelete),
	})
}

// skipKeyboard offers a one-tap Skip answer for optional questions.
func skipKeyboard() *models.ReplyKeyboardMarkup {
	return &models.ReplyKeyboardMarkup{
		Keyboard:        [][]models.KeyboardButton{{{Text: dialogue.SkipLabel}}},
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

func removeKeyboard() *models.ReplyKeyboardRemove {
	return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
}

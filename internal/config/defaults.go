package config

import "time"

const (
	DefaultLogLevel = "info"

	DefaultTelegramMode = "polling"
	DefaultHTTPAddr     = ":8443"

	DefaultDatabasePath        = "bot_database.db"
	DefaultDatabaseBusyTimeout = 5 * time.Second

	DefaultEncyclopediaBaseURL   = "https://en.wikipedia.org"
	DefaultEncyclopediaResults   = 3
	DefaultEncyclopediaMaxLen    = 1500
	DefaultEncyclopediaTimeout   = 10 * time.Second
	DefaultEncyclopediaRPS       = 5
	DefaultEncyclopediaUserAgent = "TermBot/1.0 (https://github.com/edgard/termbot)"

	DefaultDialogueBackend  = "memory"
	DefaultDialogueStateTTL = 24 * time.Hour

	DefaultRetentionDays = 365
	DefaultTaskTimeout   = 10 * time.Minute

	TaskSQLMaintenance = "sql_maintenance"
	TaskCleanupOldData = "cleanup_old_data"
	TaskSweepDialogues = "sweep_dialogues"
)

var DefaultCancelWords = []string{"cancel", "stop", "отмена", "стоп"}

var DefaultMessages = MessagesConfig{
	Welcome:            "👋 Welcome back, %s! Pick an action below.",
	RegistrationStart:  "👋 Hi! Let's set up your profile.\n\nWhat is your first name?",
	AskLastName:        "Nice to meet you! What is your last name? Press Skip to leave it empty.",
	AskEmail:           "📧 What is your email address? Press Skip to leave it empty.",
	AskAge:             "🎂 How old are you? Press Skip to leave it empty.",
	RegistrationDone:   "✅ Registration complete! You can now look up terms.",
	RegistrationSkip:   "⏭ Registration skipped. Term search is available after registration; send /start when you are ready.",
	RegistrationCancel: "Registration cancelled. Send /start to begin again.",
	InvalidFirstName:   "⚠️ The first name must be at least 2 characters long. Try again.",
	InvalidLastName:    "⚠️ The last name must not be empty. Try again.",
	InvalidEmail:       "⚠️ That does not look like an email address. Try again.",
	InvalidAge:         "⚠️ Age must be a whole number between 1 and 120. Try again.",
	MainMenu:           "📋 Main menu",
	Help: "ℹ️ <b>TermBot</b> looks up terms in Wikipedia.\n\n" +
		"/start - register or open the menu\n" +
		"/menu - main menu\n" +
		"/profile - your profile\n" +
		"/history - recent searches\n" +
		"/stats - your statistics\n" +
		"/cancel - cancel the current action\n" +
		"/help - this message\n\n" +
		"Press <b>Search</b> and send a word or phrase.",
	About:              "🤖 TermBot finds short encyclopedia summaries for any term you send.",
	FAQ:                "❓ <b>Where does the data come from?</b>\nWikipedia.\n\n❓ <b>Is my history stored?</b>\nYes, your searches are kept for a year.",
	Contacts:           "📬 Questions? Contact the bot administrator.",
	Settings:           "⚙️ <b>Settings</b>\n\nPick a section.",
	SettingsNotify:     "🔔 <b>Notifications</b>\n\nTermBot only writes when you message it. The one exception is a notice when an administrator deletes your data.",
	SettingsLanguage:   "🌍 <b>Language</b>\n\nArticles are looked up in %s. Ask the administrator to switch to another wiki.",
	SettingsTheme:      "🎨 <b>Theme</b>\n\nMessages follow the theme of your Telegram app.",
	AskSearchTerm:      "🔎 Send me a term to look up. Send <i>cancel</i> to stop.",
	SearchNotFound:     "😕 Nothing found for <b>%s</b>. Try another spelling.",
	SearchAmbiguous:    "🤔 <b>%s</b> may refer to several things. Try one of:\n%s",
	SearchFailed:       "⚠️ The encyclopedia is not responding right now. Please try again later.",
	SearchCancelled:    "Search cancelled.",
	ActionCancelled:    "✖️ Cancelled.",
	HistoryEmpty:       "📭 You have not searched for anything yet.",
	NotRegistered:      "⚠️ Please finish registration first. Send /start to register.",
	EditChoose:         "✏️ Which field do you want to change?",
	EditAsk:            "Send the new value for <b>%s</b>.",
	EditDone:           "✅ Profile updated.",
	UnknownInput:       "I did not understand that. Use the menu below or send /help.",
	NotAuthorized:      "🚫 Access denied.",
	GeneralError:       "❌ An error occurred. Please try again later.",
	AdminDeleteUsage:   "Usage: /admin_delete_user &lt;user id&gt;\n\nRecent users:\n%s",
	AdminDeleteConfirm: "⚠️ Delete user %s and all of their search history? This cannot be undone.",
	AdminDeleteSelf:    "You cannot delete yourself.",
	AdminDeleteDone:    "🗑 User %d deleted. Users left: %d, searches left: %d.",
	AdminDeleteCancel:  "Deletion cancelled.",
	AdminUserNotFound:  "User %d not found.",
	UserDeletedNotice:  "Your data has been deleted by an administrator. Send /start to register again.",
}

// DefaultTasks mirrors scheduler.tasks in config.yaml.
var DefaultTasks = map[string]TaskConfig{
	TaskSQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * 0"},
	TaskCleanupOldData: {Enabled: true, Schedule: "0 30 3 * * *"},
	TaskSweepDialogues: {Enabled: true, Schedule: "0 */10 * * * *"},
}

package handlers

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/database"
)

// sender identifies who an update came from and where to answer.
type sender struct {
	userID int64
	chatID int64
	// messageID is the message a callback was attached to, 0 for commands
	// and inaccessible messages.
	messageID int
	callback  *models.CallbackQuery
	ident     database.Identity
	text      string
}

func senderOf(update *models.Update) (sender, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		m := update.Message
		return sender{
			userID: m.From.ID,
			chatID: m.Chat.ID,
			ident:  identityOf(m.From),
			text:   m.Text,
		}, true

	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		s := sender{userID: cq.From.ID, callback: cq, ident: identityOf(&cq.From), text: cq.Data}
		switch {
		case cq.Message.Message != nil:
			s.chatID = cq.Message.Message.Chat.ID
			s.messageID = cq.Message.Message.ID
		case cq.Message.InaccessibleMessage != nil:
			s.chatID = cq.Message.InaccessibleMessage.Chat.ID
		default:
			s.chatID = cq.From.ID
		}
		return s, true
	}
	return sender{}, false
}

func identityOf(u *models.User) database.Identity {
	return database.Identity{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

// send posts a new HTML message.
func send(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// respond edits the message a callback came from, or sends a new message
// when there is nothing to edit. markup must be inline when editing.
func respond(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, text string, markup models.ReplyMarkup) {
	if s.messageID == 0 {
		send(ctx, b, log, s.chatID, text, markup)
		return
	}
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      s.chatID,
		MessageID:   s.messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to edit message, sending a new one", "error", err, "chat_id", s.chatID)
		send(ctx, b, log, s.chatID, text, markup)
	}
}

// answer acknowledges a callback query. It is a no-op for messages.
func answer(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, text string, alert bool) {
	if s.callback == nil {
		return
	}
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: s.callback.ID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.DebugContext(ctx, "Failed to answer callback query", "error", err, "callback_query_id", s.callback.ID)
	}
}

// reportError logs err, forwards it to Sentry and tells the user something
// went wrong.
func (d HandlerDeps) reportError(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender, msg string, err error) {
	log.ErrorContext(ctx, msg, "error", err, "user_id", s.userID, "chat_id", s.chatID)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetUser(sentry.User{ID: strconv.FormatInt(s.userID, 10)})
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
	answer(ctx, b, log, s, "", false)
	send(ctx, b, log, s.chatID, d.Config.Messages.GeneralError, nil)
}

// registeredUser returns the user when the profile is registered and nil
// otherwise.
func (d HandlerDeps) registeredUser(ctx context.Context, userID int64) (*database.User, error) {
	u, err := d.Store.GetUserProfile(ctx, userID)
	if err != nil || u == nil || !u.IsRegistered {
		return nil, err
	}
	return u, nil
}

// requireRegistered loads the registered user or tells the sender to
// register. It returns nil when the caller should stop.
func (d HandlerDeps) requireRegistered(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender) *database.User {
	u, err := d.registeredUser(ctx, s.userID)
	if err != nil {
		d.reportError(ctx, b, log, s, "Failed to load user profile", err)
		return nil
	}
	if u == nil {
		answer(ctx, b, log, s, "", false)
		respond(ctx, b, log, s, d.Config.Messages.NotRegistered, backKeyboard())
		return nil
	}
	return u
}

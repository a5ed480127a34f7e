package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/termbot/internal/database"
	"github.com/edgard/termbot/internal/dialogue"
	"github.com/edgard/termbot/internal/encyclopedia"
	"github.com/edgard/termbot/internal/format"
)

// NewSearchPromptHandler asks a registered user for a term to look up.
func NewSearchPromptHandler(deps HandlerDeps) bot.HandlerFunc {
	return searchPromptHandler{deps}.Handle
}

type searchPromptHandler struct {
	deps HandlerDeps
}

func (h searchPromptHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "search_prompt")

	s, ok := senderOf(update)
	if !ok {
		return
	}
	if h.deps.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	if err := h.deps.Dialogue.Set(ctx, s.userID, &dialogue.Session{State: dialogue.StateSearchTerm}); err != nil {
		h.deps.reportError(ctx, b, log, s, "Failed to store dialogue state", err)
		return
	}
	answer(ctx, b, log, s, "", false)
	respond(ctx, b, log, s, h.deps.Config.Messages.AskSearchTerm, backKeyboard())
}

// search looks up the sender's text, records the attempt whatever its
// outcome and replies with the result. The dialogue returns to idle.
func (d HandlerDeps) search(ctx context.Context, b *bot.Bot, log *slog.Logger, s sender) {
	term := strings.TrimSpace(s.text)
	if term == "" {
		send(ctx, b, log, s.chatID, d.Config.Messages.AskSearchTerm, backKeyboard())
		return
	}

	defer func() {
		if err := d.Dialogue.Clear(ctx, s.userID); err != nil {
			log.WarnContext(ctx, "Failed to clear dialogue state", "error", err, "user_id", s.userID)
		}
	}()

	if d.requireRegistered(ctx, b, log, s) == nil {
		return
	}

	stopTyping := keepTyping(ctx, b, log, s.chatID)
	article, err := d.Encyclopedia.Lookup(ctx, term)
	stopTyping()

	rec := database.SearchRecord{Term: term}
	var (
		text   string
		markup models.ReplyMarkup = backKeyboard()
		disamb *encyclopedia.DisambiguationError
	)
	switch {
	case err == nil:
		rec.Success = true
		rec.ResultTitle = article.Title
		rec.ResultURL = article.URL
		text = format.Article(article)
		markup = resultKeyboard(article.URL)

	case errors.Is(err, encyclopedia.ErrNotFound):
		text = fmt.Sprintf(d.Config.Messages.SearchNotFound, format.Escape(term))

	case errors.As(err, &disamb):
		text = fmt.Sprintf(d.Config.Messages.SearchAmbiguous, format.Escape(term), format.Options(disamb.Options))

	default:
		log.ErrorContext(ctx, "Encyclopedia lookup failed", "error", err, "term", term, "user_id", s.userID)
		sentry.CaptureException(err)
		text = d.Config.Messages.SearchFailed
	}

	recorded, recErr := d.Store.AddSearchHistory(ctx, s.userID, rec)
	switch {
	case recErr != nil:
		log.ErrorContext(ctx, "Failed to record search", "error", recErr, "user_id", s.userID)
		sentry.CaptureException(recErr)
	case !recorded:
		log.WarnContext(ctx, "Search not recorded for unknown user", "user_id", s.userID)
	}

	log.InfoContext(ctx, "Search handled", "user_id", s.userID, "term", term, "success", rec.Success)
	send(ctx, b, log, s.chatID, text, markup)
}

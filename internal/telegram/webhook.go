package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"

	"github.com/edgard/termbot/internal/config"
)

// ConfigureWebhook points Telegram at cfg.WebhookURL. In polling mode it
// removes any webhook left from an earlier deployment, since getUpdates
// fails while one is set.
func ConfigureWebhook(ctx context.Context, b *bot.Bot, cfg config.TelegramConfig, logger *slog.Logger) error {
	log := logger.With("component", "telegram_webhook")

	if cfg.Mode != "webhook" {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		log.Debug("Webhook cleared for long polling")
		return nil
	}

	if cfg.WebhookURL == "" {
		return errors.New("webhook mode requires telegram.webhook_url")
	}
	ok, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         cfg.WebhookURL,
		SecretToken: cfg.WebhookSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return errors.New("telegram refused the webhook")
	}
	log.Info("Webhook configured", "url", cfg.WebhookURL)
	return nil
}

// RemoveWebhook deletes the webhook on shutdown.
func RemoveWebhook(ctx context.Context, b *bot.Bot, logger *slog.Logger) {
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		logger.Warn("Failed to delete webhook", "error", err)
		return
	}
	logger.Info("Webhook deleted")
}

// Package bot wires the Telegram client, HTTP server and scheduler together
// and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/termbot/internal/config"
)

// Bot runs the update listener, the HTTP server and the scheduler until
// the context is cancelled or one of them fails.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	tgBot     *tgbot.Bot
	server    *Server
	scheduler *Scheduler
}

// NewBot creates the orchestrator.
func NewBot(logger *slog.Logger, cfg *config.Config, tgBot *tgbot.Bot, server *Server, scheduler *Scheduler) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		tgBot:     tgBot,
		server:    server,
		scheduler: scheduler,
	}
}

func (b *Bot) webhookMode() bool {
	return b.cfg.Telegram.Mode == "webhook"
}

// Run starts every component and blocks until shutdown.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator", "mode", b.cfg.Telegram.Mode)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if b.webhookMode() {
			b.logger.Info("Processing webhook updates")
			b.tgBot.StartWebhook(gCtx)
		} else {
			b.logger.Info("Starting long polling")
			b.tgBot.Start(gCtx)
		}
		b.logger.Info("Telegram update listener stopped")

		if gCtx.Err() == nil {
			return errors.New("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		return b.server.Run(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}

// Package main contains the entrypoint for the TermBot Telegram bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/termbot/internal/bot"
	"github.com/edgard/termbot/internal/bot/handlers"
	"github.com/edgard/termbot/internal/bot/tasks"
	"github.com/edgard/termbot/internal/config"
	"github.com/edgard/termbot/internal/database"
	"github.com/edgard/termbot/internal/dialogue"
	"github.com/edgard/termbot/internal/encyclopedia"
	"github.com/edgard/termbot/internal/logger"
	"github.com/edgard/termbot/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component, blocks until shutdown and returns the exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	runTask := flag.String("run-task", "", "Run one scheduled task by name and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			log.Error("Failed to initialize Sentry", "error", err)
			return 1
		}
		defer sentry.Flush(2 * time.Second)
		log.Info("Sentry error reporting enabled", "environment", cfg.Sentry.Environment)
	}

	db, err := database.NewDB(cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	if _, err := store.NormalizeTimestamps(ctx); err != nil {
		log.Warn("Failed to normalize stored timestamps", "error", err)
	}

	if stats, err := store.GetBotStats(ctx); err != nil {
		log.Warn("Failed to read startup statistics", "error", err)
	} else {
		log.Info("Database ready", "users", stats.TotalUsers, "searches", stats.TotalSearches)
	}

	var (
		states  dialogue.StateStore
		sweeper tasks.Sweeper
	)
	switch cfg.Dialogue.Backend {
	case "redis":
		client, err := dialogue.NewRedisClient(ctx, cfg.Dialogue.RedisURL)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			return 1
		}
		defer client.Close()
		states = dialogue.NewRedisStore(client, cfg.Dialogue.StateTTL)
	default:
		mem := dialogue.NewMemoryStore(cfg.Dialogue.StateTTL)
		states, sweeper = mem, mem
	}
	log.Info("Dialogue state store ready", "backend", cfg.Dialogue.Backend, "ttl", cfg.Dialogue.StateTTL)

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Config:  cfg,
		Sweeper: sweeper,
	}
	taskMap := tasks.RegisterAllTasks(tDeps)

	if *runTask != "" {
		return runSingleTask(ctx, log, cfg, taskMap, *runTask)
	}

	hDeps := handlers.HandlerDeps{
		Logger:       log,
		Config:       cfg,
		Store:        store,
		Encyclopedia: encyclopedia.NewClient(cfg.Encyclopedia, log),
		Dialogue:     states,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(handlers.Recover(log), logger.Middleware(log), handlers.TrackActivity(hDeps)),
		tgbot.WithDefaultHandler(handlers.NewTextHandler(hDeps)),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.PublishCommands(ctx, tg); err != nil {
		log.Warn("Failed to publish command list", "error", err)
	}

	if err := telegram.ConfigureWebhook(ctx, tg, cfg.Telegram, log); err != nil {
		log.Error("Failed to configure update delivery", "mode", cfg.Telegram.Mode, "error", err)
		return 1
	}

	var webhook http.Handler
	if cfg.Telegram.Mode == "webhook" {
		webhook = tg.WebhookHandler()
		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			telegram.RemoveWebhook(cleanupCtx, tg, log)
		}()
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}
	server := bot.NewServer(cfg.HTTP.Addr, log, store, webhook)
	app := bot.NewBot(log, cfg, tg, server, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		sentry.CaptureException(runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}

// runSingleTask executes one registered task with the configured timeout.
func runSingleTask(ctx context.Context, log *slog.Logger, cfg *config.Config, taskMap map[string]tasks.ScheduledTaskFunc, name string) int {
	task, ok := taskMap[name]
	if !ok {
		log.Error("Unknown task", "task", name)
		return 1
	}

	taskCtx, cancel := context.WithTimeout(ctx, cfg.Scheduler.TaskTimeout)
	defer cancel()

	start := time.Now()
	if err := task(taskCtx); err != nil {
		log.Error("Task failed", "task", name, "error", err)
		return 1
	}
	log.Info("Task completed", "task", name, "duration", time.Since(start))
	return 0
}

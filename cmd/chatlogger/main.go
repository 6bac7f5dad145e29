// Package main contains the entrypoint for the chat logger service.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/chatlogger/internal/bot"
	"github.com/edgard/chatlogger/internal/bot/handlers"
	"github.com/edgard/chatlogger/internal/bot/tasks"
	"github.com/edgard/chatlogger/internal/chatlog"
	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/database"
	"github.com/edgard/chatlogger/internal/event"
	"github.com/edgard/chatlogger/internal/logger"
	"github.com/edgard/chatlogger/internal/server"
	"github.com/edgard/chatlogger/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := execute(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires configuration, storage, hosts and the scheduler, blocks until ctx
// is cancelled and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context, configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		return 1
	}
	if err := cfg.ValidateHosts(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		return 1
	}

	log, closeLog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		return 1
	}
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("Failed to close log file", "error", err)
		}
	}()
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON, "file", cfg.Log.File)

	bus := event.NewBus(log)
	chatLogger := chatlog.NewPlugin(cfg.ChatLog, database.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, log)
	if err := chatLogger.Initialize(ctx, bus); err != nil {
		return 1
	}
	defer chatLogger.Shutdown()

	var tg *tgbot.Bot
	if cfg.Telegram.Enabled() {
		tg, err = setupTelegram(ctx, cfg, bus, log)
		if err != nil {
			log.Error("Failed to set up Telegram", "error", err)
			return 1
		}
	}

	var httpServer bot.Runner
	if cfg.HTTP.Enabled() {
		httpServer = server.New(cfg.HTTP, bus, chatLogger.Store(), log)
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{Logger: log, Store: chatLogger.Store()})
	sched, err := bot.NewScheduler(log, cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, httpServer, sched, bus, chatLogger.Shutdown)

	log.Info("Starting chat logger")
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Chat logger stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Chat logger stopped gracefully")
	return 0
}

// setupTelegram creates the bot, resolves its own account id and registers
// the commands. Every incoming message passes the publishing middleware.
func setupTelegram(ctx context.Context, cfg *config.Config, publisher event.Publisher, log *slog.Logger) (*tgbot.Bot, error) {
	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Publisher: publisher,
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log,
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.PublishGroupMessages(hDeps)),
	)
	if err != nil {
		return nil, err
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	hDeps.Responder = telegram.NewResponder(tg, publisher, cfg.Telegram.ReplyPrefix, me.ID, log)
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		return nil, err
	}
	return tg, nil
}

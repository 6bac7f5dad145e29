// Package bot runs the chat logger service: it starts the configured hosts
// and the scheduler, and on shutdown drains in-flight events before the
// database pool is closed.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"
)

const defaultDrainTimeout = 10 * time.Second

// Runner is a host that serves until its context is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Drainer stops accepting events and waits for in-flight handlers.
type Drainer interface {
	Drain(ctx context.Context) error
}

// ShutdownFunc releases a component's resources. It must not fail.
type ShutdownFunc func()

// Bot represents the running service and manages its components' lifecycle.
type Bot struct {
	logger       *slog.Logger
	tgBot        *tgbot.Bot
	httpServer   Runner
	scheduler    *Scheduler
	events       Drainer
	shutdown     ShutdownFunc
	drainTimeout time.Duration
}

// NewBot creates the orchestrator. tgBot and httpServer may be nil when the
// corresponding host is disabled; events and shutdown run once Run returns.
func NewBot(
	logger *slog.Logger,
	tgBot *tgbot.Bot,
	httpServer Runner,
	scheduler *Scheduler,
	events Drainer,
	shutdown ShutdownFunc,
) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:       logger.With("component", "bot_orchestrator"),
		tgBot:        tgBot,
		httpServer:   httpServer,
		scheduler:    scheduler,
		events:       events,
		shutdown:     shutdown,
		drainTimeout: defaultDrainTimeout,
	}
}

// Run starts every component and blocks until ctx is cancelled or one of them
// fails. Shutdown drains the event bus, then releases storage.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram bot listener")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram bot listener stopped")

			if gCtx.Err() == nil {
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if b.httpServer != nil {
		g.Go(func() error {
			if err := b.httpServer.Run(gCtx); err != nil {
				return err
			}
			if gCtx.Err() == nil {
				return fmt.Errorf("http server stopped unexpectedly")
			}
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			<-gCtx.Done()
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	b.stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}

func (b *Bot) stop() {
	if b.events != nil {
		ctx, cancel := context.WithTimeout(context.Background(), b.drainTimeout)
		defer cancel()
		if err := b.events.Drain(ctx); err != nil {
			b.logger.Warn("Event handlers still running at shutdown", "error", err)
		}
	}
	if b.shutdown != nil {
		b.shutdown()
	}
}

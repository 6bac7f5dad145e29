package chatlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/database"
	"github.com/edgard/chatlogger/internal/event"
)

// Option customizes a Plugin.
type Option func(*Plugin)

// WithClock overrides the clock used to stamp records.
func WithClock(clock Clock) Option {
	return func(p *Plugin) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// Plugin owns the chat logger lifecycle: it opens storage, registers the
// handlers with a host and releases the pool on shutdown.
type Plugin struct {
	cfg    config.ChatLog
	pool   database.PoolOptions
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	db       *sqlx.DB
	store    database.Store
	handlers *Handlers

	closeOnce sync.Once
}

// NewPlugin creates an uninitialized chat logger.
func NewPlugin(cfg config.ChatLog, pool database.PoolOptions, logger *slog.Logger, opts ...Option) *Plugin {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Plugin{
		cfg:    cfg,
		pool:   pool,
		clock:  RealClock{},
		logger: logger.With("component", "chatlog"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize prepares the data directory and storage, then registers both
// handlers with registrar. Calling it again on an initialized plugin is a
// no-op.
func (p *Plugin) Initialize(ctx context.Context, registrar event.Registrar) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		p.logger.WarnContext(ctx, "Chat logger already initialized")
		return nil
	}

	if err := p.initialize(ctx, registrar); err != nil {
		p.logger.ErrorContext(ctx, "Failed to initialize chat logger", "error", err)
		return err
	}

	p.logger.InfoContext(ctx, "Chat logger initialized",
		"group_whitelist", p.cfg.GroupWhitelist,
		"group_blacklist", p.cfg.GroupBlacklist,
		"include_bot_messages", p.cfg.IncludeBotMessages)
	return nil
}

func (p *Plugin) initialize(ctx context.Context, registrar event.Registrar) error {
	if registrar == nil {
		return fmt.Errorf("no event registrar provided")
	}

	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", p.cfg.DataDir, err)
	}

	target, err := database.ParseURL(p.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := target.EnsureDir(); err != nil {
		return err
	}

	db, err := database.NewDB(target, p.pool)
	if err != nil {
		return err
	}

	store := database.NewStore(db, target.Dialect, p.logger)
	if err := store.Ping(ctx); err != nil {
		if closeErr := database.CloseDB(db); closeErr != nil {
			p.logger.ErrorContext(ctx, "Error closing database after failed ping", "error", closeErr)
		}
		return err
	}

	p.db = db
	p.store = store
	p.handlers = NewHandlers(NewWriter(store, p.clock, p.logger), p.cfg, p.logger)

	registrar.Register(event.KindGroupMessage, p.handlers.OnGroupMessage)
	registrar.Register(event.KindBotResponse, p.handlers.OnBotResponse)
	return nil
}

// Store returns the storage opened by Initialize, or nil before it.
func (p *Plugin) Store() database.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store
}

// Shutdown closes the connection pool. It is safe to call more than once and
// never returns an error; failures are logged.
func (p *Plugin) Shutdown() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		if p.db == nil {
			return
		}
		if err := database.CloseDB(p.db); err != nil {
			p.logger.Error("Error closing database", "error", err)
			return
		}
		p.logger.Info("Database connection closed")
	})
}

// Package logger provides structured logging for chatlogger.
// It uses Go's slog package with configurable level, format and an optional
// JSON log file written alongside stdout.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel maps a config level name to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to stdout, as JSON if jsonOutput is true and
// as text otherwise. When file is not empty every record is also appended to it
// as JSON. The returned cleanup closes the file.
func NewLogger(levelStr string, jsonOutput bool, file string) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(levelStr)}

	stdout := newHandler(os.Stdout, jsonOutput, opts)
	if file == "" {
		return slog.New(stdout), func() error { return nil }, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", file, err)
	}

	logger := slog.New(slogmulti.Fanout(stdout, slog.NewJSONHandler(f, opts)))
	return logger, f.Close, nil
}

// NewWithWriters creates a fan-out logger over arbitrary writers. Used by tests.
func NewWithWriters(primary io.Writer, jsonOutput bool, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	return slog.New(slogmulti.Fanout(
		newHandler(primary, jsonOutput, opts),
		slog.NewJSONHandler(file, opts),
	))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(w io.Writer, jsonOutput bool, opts *slog.HandlerOptions) slog.Handler {
	if jsonOutput {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs every update at debug level with its chat and sender.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)

			updateType := "other"
			if msg := update.Message; msg != nil {
				updateType = "message"
				logEntry = logEntry.With(
					"message_id", msg.ID,
					"chat_id", strconv.FormatInt(msg.Chat.ID, 10),
					"chat_type", string(msg.Chat.Type),
					"text_preview", truncateString(msg.Text, 50),
				)
				if msg.From != nil {
					logEntry = logEntry.With("user_id", strconv.FormatInt(msg.From.ID, 10))
				}
			}
			logEntry = logEntry.With("update_type", updateType)

			logEntry.DebugContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.DebugContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}

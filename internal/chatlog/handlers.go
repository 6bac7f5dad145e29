package chatlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/event"
	"github.com/edgard/chatlogger/internal/filter"
)

// SkipError marks an event that was deliberately not logged.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

func skip(reason string) error {
	return &SkipError{Reason: reason}
}

// Handlers holds the two event entry points. Their only state is immutable
// configuration and the writer.
type Handlers struct {
	writer             *Writer
	filter             filter.Filter
	botNickname        string
	includeBotMessages bool
	logger             *slog.Logger
}

// NewHandlers creates the handlers for the given settings.
func NewHandlers(writer *Writer, cfg config.ChatLog, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handlers{
		writer:             writer,
		filter:             filter.New(cfg.GroupWhitelist, cfg.GroupBlacklist),
		botNickname:        cfg.BotNickname,
		includeBotMessages: cfg.IncludeBotMessages,
		logger:             logger.With("component", "chatlog_handlers"),
	}
}

// OnGroupMessage is the event.HandlerFunc for incoming group messages.
// Nothing it encounters is propagated to the host.
func (h *Handlers) OnGroupMessage(ctx context.Context, ev event.Event) {
	log := h.logger.With("handler", "group_message")
	defer h.recoverPanic(ctx, log)

	msg, ok := ev.(event.GroupMessage)
	if !ok {
		log.ErrorContext(ctx, "Unexpected event type", "type", fmt.Sprintf("%T", ev))
		return
	}
	h.report(ctx, log.With("group_id", msg.GroupID), h.handleGroupMessage(ctx, msg))
}

// OnBotResponse is the event.HandlerFunc for bot responses.
// Nothing it encounters is propagated to the host.
func (h *Handlers) OnBotResponse(ctx context.Context, ev event.Event) {
	log := h.logger.With("handler", "bot_response")
	defer h.recoverPanic(ctx, log)

	resp, ok := ev.(event.BotResponse)
	if !ok {
		log.ErrorContext(ctx, "Unexpected event type", "type", fmt.Sprintf("%T", ev))
		return
	}
	h.report(ctx, log.With("group_id", resp.OriginID), h.handleBotResponse(ctx, resp))
}

func (h *Handlers) handleGroupMessage(ctx context.Context, msg event.GroupMessage) error {
	if msg.Scope != event.ScopeGroup {
		return skip("not a group message")
	}

	groupID := filter.Canonical(msg.GroupID)
	if groupID == "" {
		return errors.New("group message has no group id")
	}
	if !h.filter.Allow(groupID) {
		return skip("group filtered")
	}

	text := msg.Chain.String()
	if strings.TrimSpace(text) == "" {
		return skip("empty message")
	}

	if msg.Sender.ID == "" {
		return errors.New("group message has no sender id")
	}

	return h.writer.Append(ctx, Entry{
		UserID:   msg.Sender.ID,
		Nickname: msg.Sender.Name,
		Message:  text,
		GroupID:  groupID,
	})
}

func (h *Handlers) handleBotResponse(ctx context.Context, resp event.BotResponse) error {
	if !h.includeBotMessages {
		return skip("bot messages disabled")
	}
	if resp.Scope != event.ScopeGroup {
		return skip("not a group response")
	}

	groupID := filter.Canonical(resp.OriginID)
	if groupID == "" {
		return errors.New("bot response has no origin id")
	}
	if !h.filter.Allow(groupID) {
		return skip("group filtered")
	}

	text := resp.Prefix + resp.ResponseText
	if strings.TrimSpace(text) == "" {
		return skip("empty response")
	}

	if resp.BotAccountID == "" {
		return errors.New("bot account id unavailable")
	}

	return h.writer.Append(ctx, Entry{
		UserID:   resp.BotAccountID,
		Nickname: h.botNickname,
		Message:  text,
		GroupID:  groupID,
	})
}

// report turns a pipeline result into a log line.
func (h *Handlers) report(ctx context.Context, log *slog.Logger, err error) {
	var skipped *SkipError
	switch {
	case err == nil:
		return
	case errors.As(err, &skipped):
		log.DebugContext(ctx, "Event not logged", "reason", skipped.Reason)
	case errors.Is(err, ErrNotInitialized):
		log.WarnContext(ctx, "Database not initialized, skipping record save")
	default:
		log.ErrorContext(ctx, "Failed to log event", "error", err)
	}
}

func (h *Handlers) recoverPanic(ctx context.Context, log *slog.Logger) {
	if r := recover(); r != nil {
		log.ErrorContext(ctx, "Recovered from panic while handling event", "panic", fmt.Sprint(r))
	}
}

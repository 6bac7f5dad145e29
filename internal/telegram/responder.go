package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatlogger/internal/event"
)

// MessageSender is the part of *bot.Bot used to send replies.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Responder sends bot replies and publishes a BotResponse for each reply
// that reached Telegram.
type Responder struct {
	sender    MessageSender
	publisher event.Publisher
	prefix    string
	botID     string
	logger    *slog.Logger
}

// NewResponder creates a responder. A zero botID leaves BotAccountID empty.
func NewResponder(sender MessageSender, publisher event.Publisher, prefix string, botID int64, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	id := ""
	if botID != 0 {
		id = ChatID(botID)
	}
	return &Responder{
		sender:    sender,
		publisher: publisher,
		prefix:    prefix,
		botID:     id,
		logger:    logger.With("component", "telegram_responder"),
	}
}

// Reply sends prefix+text to chat.
func (r *Responder) Reply(ctx context.Context, chat models.Chat, text string) error {
	sent, err := r.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chat.ID,
		Text:   r.prefix + text,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chat.ID, err)
	}

	if sent != nil {
		r.logger.DebugContext(ctx, "Reply sent", "chat_id", chat.ID, "message_id", sent.ID)
	}

	if r.publisher == nil {
		return nil
	}
	resp := event.BotResponse{
		Scope:        ScopeForChat(chat),
		OriginID:     ChatID(chat.ID),
		Prefix:       r.prefix,
		ResponseText: text,
		BotAccountID: r.botID,
	}
	if err := r.publisher.Publish(ctx, resp); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish bot response", "chat_id", chat.ID, "error", err)
	}
	return nil
}

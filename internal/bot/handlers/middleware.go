// Package handlers contains Telegram bot command handlers, their
// registration and the middleware that feeds chat events to the logger.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatlogger/internal/event"
	"github.com/edgard/chatlogger/internal/telegram"
)

// PublishGroupMessages creates a middleware that publishes every incoming
// message as a GroupMessage event before handing the update on. Publishing
// never blocks and never stops the update from reaching next.
func PublishGroupMessages(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
			if update != nil {
				publishMessage(ctx, deps, update.Message)
			}
			next(ctx, bot, update)
		}
	}
}

func publishMessage(ctx context.Context, deps HandlerDeps, msg *models.Message) {
	if msg == nil || deps.Publisher == nil {
		return
	}
	log := deps.Logger.With("middleware", "publish_group_messages")

	ev, ok := telegram.GroupMessageFromMessage(msg)
	if !ok {
		log.DebugContext(ctx, "Ignoring message without sender", "chat_id", msg.Chat.ID)
		return
	}
	if ev.Scope != event.ScopeGroup {
		return
	}

	if err := deps.Publisher.Publish(ctx, ev); err != nil {
		log.WarnContext(ctx, "Failed to publish group message", "chat_id", msg.Chat.ID, "error", err)
	}
}

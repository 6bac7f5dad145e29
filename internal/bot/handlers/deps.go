package handlers

import (
	"log/slog"

	"github.com/edgard/chatlogger/internal/event"
	"github.com/edgard/chatlogger/internal/telegram"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Publisher event.Publisher
	Responder *telegram.Responder
}

package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/chatlogger/internal/event"
)

type senderRequest struct {
	ID   string `json:"id"   binding:"required"`
	Name string `json:"name"`
}

type componentRequest struct {
	Type    string `json:"type"    binding:"required,oneof=plain mention image file sticker voice"`
	Text    string `json:"text"`
	UserID  string `json:"user_id"`
	Display string `json:"display"`
	URL     string `json:"url"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
}

func (r componentRequest) component() event.Component {
	switch r.Type {
	case "mention":
		return event.Mention{UserID: r.UserID, Display: r.Display}
	case "image":
		return event.Image{URL: r.URL}
	case "file":
		return event.File{Name: r.Name}
	case "sticker":
		return event.Sticker{Emoji: r.Emoji}
	case "voice":
		return event.Voice{}
	default:
		return event.Plain{Text: r.Text}
	}
}

// groupMessageRequest carries either a plain text or a component chain.
// When both are set the chain wins.
type groupMessageRequest struct {
	Scope   string             `json:"scope"    binding:"omitempty,oneof=group person"`
	GroupID string             `json:"group_id" binding:"required"`
	Sender  senderRequest      `json:"sender"`
	Text    string             `json:"text"`
	Chain   []componentRequest `json:"chain"    binding:"omitempty,dive"`
}

func (r groupMessageRequest) toEvent() event.GroupMessage {
	chain := event.PlainChain(r.Text)
	if len(r.Chain) > 0 {
		chain = make(event.Chain, 0, len(r.Chain))
		for _, c := range r.Chain {
			chain = append(chain, c.component())
		}
	}
	return event.GroupMessage{
		Scope:   scopeOrGroup(r.Scope),
		GroupID: r.GroupID,
		Sender:  event.Sender{ID: r.Sender.ID, Name: r.Sender.Name},
		Chain:   chain,
	}
}

type botResponseRequest struct {
	Scope        string `json:"scope"          binding:"omitempty,oneof=group person"`
	OriginID     string `json:"origin_id"      binding:"required"`
	Prefix       string `json:"prefix"`
	ResponseText string `json:"response_text"`
	BotAccountID string `json:"bot_account_id" binding:"required"`
}

func (r botResponseRequest) toEvent() event.BotResponse {
	return event.BotResponse{
		Scope:        scopeOrGroup(r.Scope),
		OriginID:     r.OriginID,
		Prefix:       r.Prefix,
		ResponseText: r.ResponseText,
		BotAccountID: r.BotAccountID,
	}
}

func scopeOrGroup(scope string) event.Scope {
	if scope == "" {
		return event.ScopeGroup
	}
	return event.Scope(scope)
}

func groupMessageHandler(publisher event.Publisher, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req groupMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		publish(c, publisher, logger, req.toEvent())
	}
}

func botResponseHandler(publisher event.Publisher, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req botResponseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		publish(c, publisher, logger, req.toEvent())
	}
}

// publish answers 202 once the event is handed to the bus. Whether it is
// eventually stored is decided by the logger, not reported to the caller.
func publish(c *gin.Context, publisher event.Publisher, logger *slog.Logger, ev event.Event) {
	err := publisher.Publish(c.Request.Context(), ev)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	case errors.Is(err, event.ErrBusClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
	default:
		logger.ErrorContext(c.Request.Context(), "Failed to publish event", "kind", ev.Kind().String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish event"})
	}
}

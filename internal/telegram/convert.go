package telegram

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/chatlogger/internal/event"
)

// ScopeForChat maps a Telegram chat type to an event scope. Groups and
// supergroups are group scoped; everything else is treated as a person.
func ScopeForChat(chat models.Chat) event.Scope {
	switch chat.Type {
	case models.ChatTypeGroup, models.ChatTypeSupergroup:
		return event.ScopeGroup
	default:
		return event.ScopePerson
	}
}

// ChatID formats a Telegram chat or user id the way it is stored.
func ChatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// DisplayName returns "first last", falling back to @username.
func DisplayName(user *models.User) string {
	if user == nil {
		return ""
	}
	if name := strings.TrimSpace(user.FirstName + " " + user.LastName); name != "" {
		return name
	}
	if user.Username != "" {
		return "@" + user.Username
	}
	return ""
}

// GroupMessageFromMessage converts a Telegram message into a GroupMessage
// event. It reports false when the message has no sender.
func GroupMessageFromMessage(msg *models.Message) (event.GroupMessage, bool) {
	if msg == nil || msg.From == nil {
		return event.GroupMessage{}, false
	}
	return event.GroupMessage{
		Scope:   ScopeForChat(msg.Chat),
		GroupID: ChatID(msg.Chat.ID),
		Sender: event.Sender{
			ID:   ChatID(msg.From.ID),
			Name: DisplayName(msg.From),
		},
		Chain: ChainFromMessage(msg),
	}, true
}

// ChainFromMessage builds the component chain of a message: attachment
// placeholders first, then the text or caption split around mentions.
func ChainFromMessage(msg *models.Message) event.Chain {
	if msg == nil {
		return nil
	}

	var chain event.Chain
	if n := len(msg.Photo); n > 0 {
		chain = append(chain, event.Image{URL: msg.Photo[n-1].FileID})
	}
	if msg.Document != nil {
		chain = append(chain, event.File{Name: msg.Document.FileName})
	}
	if msg.Sticker != nil {
		chain = append(chain, event.Sticker{Emoji: msg.Sticker.Emoji})
	}
	if msg.Voice != nil {
		chain = append(chain, event.Voice{})
	}

	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}
	if text == "" {
		return chain
	}
	if len(chain) > 0 {
		chain = append(chain, event.Plain{Text: " "})
	}
	return append(chain, textComponents(text, entities)...)
}

// textComponents splits text around mention entities. Entity offsets are in
// UTF-16 code units.
func textComponents(text string, entities []models.MessageEntity) event.Chain {
	units := utf16.Encode([]rune(text))
	decode := func(from, to int) string {
		return string(utf16.Decode(units[from:to]))
	}

	var chain event.Chain
	cursor := 0
	for _, e := range entities {
		if e.Type != models.MessageEntityTypeMention && e.Type != models.MessageEntityTypeTextMention {
			continue
		}
		start, end := e.Offset, e.Offset+e.Length
		if e.Length <= 0 || start < cursor || end > len(units) {
			continue
		}

		if start > cursor {
			chain = append(chain, event.Plain{Text: decode(cursor, start)})
		}
		mention := event.Mention{Display: decode(start, end)}
		if e.User != nil {
			mention.UserID = ChatID(e.User.ID)
		}
		chain = append(chain, mention)
		cursor = end
	}

	if cursor < len(units) {
		chain = append(chain, event.Plain{Text: decode(cursor, len(units))})
	}
	return chain
}

// Package event defines the chat events exchanged between hosts (Telegram,
// HTTP ingest) and the chat logger, and the registration API hosts expose.
package event

import "context"

// Scope tells where an event originated.
type Scope string

const (
	ScopeGroup  Scope = "group"
	ScopePerson Scope = "person"
)

// Kind identifies an event type for registration.
type Kind int

const (
	KindGroupMessage Kind = iota + 1
	KindBotResponse
)

func (k Kind) String() string {
	switch k {
	case KindGroupMessage:
		return "group_message"
	case KindBotResponse:
		return "bot_response"
	default:
		return "unknown"
	}
}

// Event is implemented by every event type.
type Event interface {
	Kind() Kind
}

// Sender identifies the author of an incoming message.
type Sender struct {
	ID string
	// Name is the display name, empty when the platform has none.
	Name string
}

// GroupMessage is a message received by the bot.
type GroupMessage struct {
	Scope   Scope
	GroupID string
	Sender  Sender
	Chain   Chain
}

// Kind implements Event.
func (GroupMessage) Kind() Kind { return KindGroupMessage }

// BotResponse is a reply the bot sent.
type BotResponse struct {
	Scope        Scope
	OriginID     string
	Prefix       string
	ResponseText string
	// BotAccountID is the bot's own account id on the session that sent the reply.
	BotAccountID string
}

// Kind implements Event.
func (BotResponse) Kind() Kind { return KindBotResponse }

// HandlerFunc handles one event. Handlers must not panic and don't return
// errors: the host has nothing to do with them.
type HandlerFunc func(ctx context.Context, ev Event)

// Registrar is the registration API a host offers to consumers.
type Registrar interface {
	Register(kind Kind, handler HandlerFunc)
}

// Publisher is implemented by hosts' dispatch side.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

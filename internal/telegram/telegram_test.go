package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatlogger/internal/event"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func TestScopeForChat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, event.ScopeGroup, ScopeForChat(models.Chat{Type: models.ChatTypeGroup}))
	assert.Equal(t, event.ScopeGroup, ScopeForChat(models.Chat{Type: models.ChatTypeSupergroup}))
	assert.Equal(t, event.ScopePerson, ScopeForChat(models.Chat{Type: models.ChatTypePrivate}))
	assert.Equal(t, event.ScopePerson, ScopeForChat(models.Chat{}))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *models.User
		want string
	}{
		{name: "nil", user: nil, want: ""},
		{name: "full name", user: &models.User{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, want: "Ada Lovelace"},
		{name: "first only", user: &models.User{FirstName: "Ada"}, want: "Ada"},
		{name: "username fallback", user: &models.User{Username: "ada"}, want: "@ada"},
		{name: "nothing", user: &models.User{ID: 1}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DisplayName(tt.user))
		})
	}
}

func TestGroupMessageFromMessage(t *testing.T) {
	t.Parallel()

	msg := &models.Message{
		ID:   10,
		Chat: models.Chat{ID: -1001234, Type: models.ChatTypeSupergroup},
		From: &models.User{ID: 42, FirstName: "Alice"},
		Text: "hi",
	}

	got, ok := GroupMessageFromMessage(msg)
	require.True(t, ok)
	assert.Equal(t, event.ScopeGroup, got.Scope)
	assert.Equal(t, "-1001234", got.GroupID)
	assert.Equal(t, event.Sender{ID: "42", Name: "Alice"}, got.Sender)
	assert.Equal(t, "hi", got.Chain.String())

	_, ok = GroupMessageFromMessage(&models.Message{Text: "no sender"})
	assert.False(t, ok)
	_, ok = GroupMessageFromMessage(nil)
	assert.False(t, ok)
}

func TestChainFromMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *models.Message
		want string
	}{
		{name: "nil", msg: nil, want: ""},
		{name: "plain text", msg: &models.Message{Text: "hello"}, want: "hello"},
		{
			name: "photo with caption",
			msg: &models.Message{
				Photo:   []models.PhotoSize{{FileID: "small"}, {FileID: "large"}},
				Caption: "look",
			},
			want: "[Image] look",
		},
		{name: "document", msg: &models.Message{Document: &models.Document{FileName: "a.pdf"}}, want: "[File a.pdf]"},
		{name: "sticker", msg: &models.Message{Sticker: &models.Sticker{Emoji: "👍"}}, want: "[Sticker 👍]"},
		{name: "voice", msg: &models.Message{Voice: &models.Voice{}}, want: "[Voice]"},
		{
			name: "mention entity",
			msg: &models.Message{
				Text:     "hey @bob there",
				Entities: []models.MessageEntity{{Type: models.MessageEntityTypeMention, Offset: 4, Length: 4}},
			},
			want: "hey @bob there",
		},
		{
			name: "text mention after emoji uses utf16 offsets",
			msg: &models.Message{
				Text: "😀 Bob!",
				Entities: []models.MessageEntity{{
					Type:   models.MessageEntityTypeTextMention,
					Offset: 3,
					Length: 3,
					User:   &models.User{ID: 7},
				}},
			},
			want: "😀 @Bob!",
		},
		{
			name: "out of range entity ignored",
			msg: &models.Message{
				Text:     "short",
				Entities: []models.MessageEntity{{Type: models.MessageEntityTypeMention, Offset: 3, Length: 10}},
			},
			want: "short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ChainFromMessage(tt.msg).String())
		})
	}
}

func TestChainFromMessage_MentionCarriesUserID(t *testing.T) {
	t.Parallel()

	chain := ChainFromMessage(&models.Message{
		Text: "Bob",
		Entities: []models.MessageEntity{{
			Type:   models.MessageEntityTypeTextMention,
			Length: 3,
			User:   &models.User{ID: 7},
		}},
	})

	require.Len(t, chain, 1)
	assert.Equal(t, event.Mention{UserID: "7", Display: "Bob"}, chain[0])
}

func TestResponder_Reply(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	publisher := &fakePublisher{}
	r := NewResponder(sender, publisher, "[auto] ", 999, nil)
	chat := models.Chat{ID: -100, Type: models.ChatTypeGroup}

	require.NoError(t, r.Reply(context.Background(), chat, "done"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "[auto] done", sender.sent[0].Text)
	assert.Equal(t, int64(-100), sender.sent[0].ChatID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, event.BotResponse{
		Scope:        event.ScopeGroup,
		OriginID:     "-100",
		Prefix:       "[auto] ",
		ResponseText: "done",
		BotAccountID: "999",
	}, publisher.events[0])
}

func TestResponder_SendFailureDoesNotPublish(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{err: errors.New("forbidden")}
	publisher := &fakePublisher{}
	r := NewResponder(sender, publisher, "", 999, nil)

	err := r.Reply(context.Background(), models.Chat{ID: 1}, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Empty(t, publisher.events)
}

func TestResponder_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	r := NewResponder(sender, &fakePublisher{err: event.ErrBusClosed}, "", 0, nil)

	assert.NoError(t, r.Reply(context.Background(), models.Chat{ID: 1}, "hi"))
	assert.Len(t, sender.sent, 1)

	noPublisher := NewResponder(sender, nil, "", 0, nil)
	assert.NoError(t, noPublisher.Reply(context.Background(), models.Chat{ID: 1}, "hi"))
}

func TestNewTelegramBot_EmptyToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramBot("", nil)
	assert.Error(t, err)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	assert.Error(t, RegisterHandlers(nil, nil, nil))

	b, err := NewTelegramBot("123456789:test-token", nil, bot.WithSkipGetMe())
	require.NoError(t, err)

	noop := func(ctx context.Context, b *bot.Bot, update *models.Update) {}
	handlers := map[string]RegisteredHandler{
		"/start": {HandlerType: bot.HandlerTypeMessageText, Pattern: "start", Handler: noop, MatchType: bot.MatchTypeCommandStartOnly},
		"/nil":   {HandlerType: bot.HandlerTypeMessageText, Pattern: "nil", MatchType: bot.MatchTypeCommandStartOnly},
	}
	assert.NoError(t, RegisterHandlers(b, nil, handlers))
	assert.NoError(t, RegisterHandlers(b, nil, nil))
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, update *models.Update) {
				order = append(order, name)
				next(ctx, b, update)
			}
		}
	}
	handler := applyMiddleware(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mw("outer"), mw("inner")})

	handler(context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "12345678...", maskToken("123456789:abc"))
}

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatlogger/internal/config"
	"github.com/edgard/chatlogger/internal/event"
)

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

func (f *fakePublisher) Events() []event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]event.Event(nil), f.events...)
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGroupMessageEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantText   string
	}{
		{
			name:       "plain text",
			body:       `{"group_id":"g1","sender":{"id":"u1","name":"Alice"},"text":"hi"}`,
			wantStatus: http.StatusAccepted,
			wantText:   "hi",
		},
		{
			name: "component chain",
			body: `{"group_id":"g1","sender":{"id":"u1"},"chain":[` +
				`{"type":"mention","display":"bob"},{"type":"plain","text":" see "},{"type":"image","url":"x"}]}`,
			wantStatus: http.StatusAccepted,
			wantText:   "@bob see [Image]",
		},
		{
			name:       "empty text is still accepted",
			body:       `{"group_id":"g1","sender":{"id":"u1"},"text":"   "}`,
			wantStatus: http.StatusAccepted,
			wantText:   "   ",
		},
		{name: "malformed json", body: `{"group_id":`, wantStatus: http.StatusBadRequest},
		{name: "missing group id", body: `{"sender":{"id":"u1"},"text":"hi"}`, wantStatus: http.StatusBadRequest},
		{name: "missing sender", body: `{"group_id":"g1","text":"hi"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "unknown component type",
			body:       `{"group_id":"g1","sender":{"id":"u1"},"chain":[{"type":"poll"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid scope",
			body:       `{"scope":"channel","group_id":"g1","sender":{"id":"u1"},"text":"hi"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pub := &fakePublisher{}
			router := NewRouter(config.HTTPConfig{}, pub, fakePinger{}, nil)

			rec := do(t, router, http.MethodPost, "/v1/events/group-message", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			events := pub.Events()
			if tt.wantStatus != http.StatusAccepted {
				assert.Empty(t, events)
				return
			}
			require.Len(t, events, 1)
			msg, ok := events[0].(event.GroupMessage)
			require.True(t, ok)
			assert.Equal(t, event.ScopeGroup, msg.Scope)
			assert.Equal(t, "g1", msg.GroupID)
			assert.Equal(t, "u1", msg.Sender.ID)
			assert.Equal(t, tt.wantText, msg.Chain.String())
		})
	}
}

func TestBotResponseEndpoint(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	router := NewRouter(config.HTTPConfig{}, pub, fakePinger{}, nil)

	rec := do(t, router, http.MethodPost, "/v1/events/bot-response",
		`{"origin_id":"g1","prefix":"[auto] ","response_text":"done","bot_account_id":"999"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, event.BotResponse{
		Scope:        event.ScopeGroup,
		OriginID:     "g1",
		Prefix:       "[auto] ",
		ResponseText: "done",
		BotAccountID: "999",
	}, events[0])

	rec = do(t, router, http.MethodPost, "/v1/events/bot-response", `{"origin_id":"g1","response_text":"done"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishFailures(t *testing.T) {
	t.Parallel()

	body := `{"group_id":"g1","sender":{"id":"u1"},"text":"hi"}`

	closed := NewRouter(config.HTTPConfig{}, &fakePublisher{err: event.ErrBusClosed}, fakePinger{}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, closed, http.MethodPost, "/v1/events/group-message", body).Code)

	broken := NewRouter(config.HTTPConfig{}, &fakePublisher{err: errors.New("boom")}, fakePinger{}, nil)
	assert.Equal(t, http.StatusInternalServerError, do(t, broken, http.MethodPost, "/v1/events/group-message", body).Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	router := NewRouter(config.HTTPConfig{RateLimit: 0.001, RateBurst: 2}, pub, fakePinger{}, nil)
	body := `{"group_id":"g1","sender":{"id":"u1"},"text":"hi"}`

	assert.Equal(t, http.StatusAccepted, do(t, router, http.MethodPost, "/v1/events/group-message", body).Code)
	assert.Equal(t, http.StatusAccepted, do(t, router, http.MethodPost, "/v1/events/group-message", body).Code)

	rec := do(t, router, http.MethodPost, "/v1/events/group-message", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Len(t, pub.Events(), 2)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/healthz", "").Code, "health check is not rate limited")
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ok := NewRouter(config.HTTPConfig{}, &fakePublisher{}, fakePinger{}, nil)
	rec := do(t, ok, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := NewRouter(config.HTTPConfig{}, &fakePublisher{}, fakePinger{err: errors.New("sql: database is closed")}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/healthz", "").Code)

	missing := NewRouter(config.HTTPConfig{}, &fakePublisher{}, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, missing, http.MethodGet, "/healthz", "").Code)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := New(config.HTTPConfig{ListenAddr: "127.0.0.1:0"}, &fakePublisher{}, fakePinger{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrBusClosed is returned by Publish once Drain has started.
var ErrBusClosed = errors.New("event bus is closed")

// Bus is an in-process Registrar and Publisher. Publish never blocks on
// handlers: each handler runs on its own goroutine with a context that keeps
// its values but ignores the publisher's cancellation.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Kind][]HandlerFunc
	closed   bool
	inflight sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		logger:   logger.With("component", "event_bus"),
		handlers: make(map[Kind][]HandlerFunc),
	}
}

// Register implements Registrar.
func (b *Bus) Register(kind Kind, handler HandlerFunc) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
	b.logger.Debug("Registered event handler", "kind", kind.String(), "count", len(b.handlers[kind]))
}

// Publish dispatches ev to every handler registered for its kind.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if ev == nil {
		return errors.New("cannot publish nil event")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	handlers := b.handlers[ev.Kind()]
	if len(handlers) == 0 {
		b.logger.DebugContext(ctx, "No handler registered for event", "kind", ev.Kind().String())
		return nil
	}

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		b.inflight.Add(1)
		go b.run(detached, handler, ev)
	}
	return nil
}

func (b *Bus) run(ctx context.Context, handler HandlerFunc, ev Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Event handler panicked", "kind", ev.Kind().String(), "panic", fmt.Sprint(r))
		}
	}()
	handler(ctx, ev)
}

// Drain stops accepting events and waits for in-flight handlers to finish or
// for ctx to end, whichever comes first.
func (b *Bus) Drain(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight event handlers: %w", ctx.Err())
	}
}

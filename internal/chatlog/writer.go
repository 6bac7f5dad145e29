// Package chatlog implements the chat logger: the record writer, the two
// event handlers and the lifecycle that wires them to storage and a host.
package chatlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/chatlogger/internal/database"
)

// ErrNotInitialized is returned by Append when the writer has no store.
var ErrNotInitialized = errors.New("database not initialized")

// RecordStore is the part of database.Store the writer needs.
type RecordStore interface {
	InsertRecord(ctx context.Context, record *database.ChatRecord) error
}

// Entry is the normalized content of one record.
type Entry struct {
	UserID string
	// Nickname is stored as NULL when empty.
	Nickname string
	Message  string
	GroupID  string
}

// Writer appends chat records. Each Append is an independent unit of work:
// no retry, no buffering, no batching.
type Writer struct {
	store  RecordStore
	clock  Clock
	logger *slog.Logger
}

// NewWriter creates a writer over store. A nil store yields a writer whose
// Append always returns ErrNotInitialized.
func NewWriter(store RecordStore, clock Clock, logger *slog.Logger) *Writer {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{
		store:  store,
		clock:  clock,
		logger: logger.With("component", "record_writer"),
	}
}

// Append writes one record stamped with the current UTC time.
func (w *Writer) Append(ctx context.Context, entry Entry) error {
	if w == nil || w.store == nil {
		return ErrNotInitialized
	}

	record := &database.ChatRecord{
		Timestamp: w.clock.Now().UTC(),
		UserID:    entry.UserID,
		Nickname:  sql.NullString{String: entry.Nickname, Valid: entry.Nickname != ""},
		Message:   entry.Message,
		GroupID:   entry.GroupID,
	}

	if err := w.store.InsertRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save chat record: %w", err)
	}

	w.logger.DebugContext(ctx, "Saved chat record",
		"record_id", record.ID, "user_id", entry.UserID, "group_id", entry.GroupID)
	return nil
}

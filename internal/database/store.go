package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the database operations used by the chat logger.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// InsertRecord appends one record in its own transaction and sets record.ID.
	InsertRecord(ctx context.Context, record *ChatRecord) error

	// RunSQLMaintenance refreshes planner statistics and, for SQLite, checkpoints the WAL.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db          *sqlx.DB
	dialect     Dialect
	logger      *slog.Logger
	insertQuery string
}

// NewStore creates a new Store backed by sqlx for the given dialect.
func NewStore(db *sqlx.DB, dialect Dialect, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "store"),
		insertQuery: `
        INSERT INTO ` + dialect.Table() + ` ("timestamp", user_id, nickname, message, group_id)
        VALUES (:timestamp, :user_id, :nickname, :message, :group_id)
        RETURNING id;
    `,
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertRecord inserts a record inside a transaction. The transaction is rolled
// back on every path that does not reach Commit.
func (s *sqlxStore) InsertRecord(ctx context.Context, record *ChatRecord) error {
	if record == nil {
		return errors.New("cannot insert nil record")
	}
	if record.UserID == "" {
		return errors.New("record must have a user_id")
	}
	if record.GroupID == "" {
		return errors.New("record must have a group_id")
	}
	if record.Timestamp.IsZero() {
		return errors.New("record must have a non-zero timestamp")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query, args, err := tx.BindNamed(s.insertQuery, record)
	if err != nil {
		return fmt.Errorf("failed to bind insert query: %w", err)
	}

	var id int64
	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("failed to insert record (group %s, user %s): %w", record.GroupID, record.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	record.ID = id

	s.logger.DebugContext(ctx, "Record inserted", "id", id, "group_id", record.GroupID, "user_id", record.UserID)
	return nil
}

// RunSQLMaintenance runs the dialect's lightweight maintenance statements.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var statements []string
	switch s.dialect {
	case DialectPostgres:
		statements = []string{"ANALYZE " + s.dialect.Table()}
	default:
		statements = []string{"PRAGMA optimize", "PRAGMA wal_checkpoint(TRUNCATE)"}
	}

	startTime := time.Now()
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("maintenance statement %q failed: %w", stmt, err)
		}
	}

	s.logger.InfoContext(ctx, "Database maintenance completed", "statements", len(statements), "duration", time.Since(startTime))
	return nil
}

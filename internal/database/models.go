package database

import (
	"database/sql"
	"time"
)

// Table identity of the chat log.
const (
	SchemaName = "public"
	TableName  = "group_msg"
)

// Table returns the table name as addressed in queries for the dialect.
// SQLite has no schemas, so the table lives in the main database there.
func (d Dialect) Table() string {
	if d == DialectPostgres {
		return SchemaName + "." + TableName
	}
	return TableName
}

// ChatRecord is one logged group message or bot response.
// Records are append-only: inserted once and never updated.
type ChatRecord struct {
	ID        int64          `db:"id"`
	Timestamp time.Time      `db:"timestamp"`
	UserID    string         `db:"user_id"`
	Nickname  sql.NullString `db:"nickname"`
	Message   string         `db:"message"`
	GroupID   string         `db:"group_id"`
}

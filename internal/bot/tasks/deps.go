// Package tasks implements the scheduled maintenance tasks of the chat logger.
package tasks

import (
	"context"
	"log/slog"
)

// Maintainer runs periodic storage maintenance.
type Maintainer interface {
	RunSQLMaintenance(ctx context.Context) error
}

// TaskDeps contains the dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  Maintainer
}

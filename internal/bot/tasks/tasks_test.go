package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatlogger/internal/config"
)

type fakeMaintainer struct {
	calls int
	err   error
}

func (f *fakeMaintainer) RunSQLMaintenance(context.Context) error {
	f.calls++
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tasks := RegisterAllTasks(TaskDeps{Logger: testLogger(), Store: &fakeMaintainer{}})
	require.Contains(t, tasks, config.SQLMaintenanceTask)

	assert.Empty(t, RegisterAllTasks(TaskDeps{Logger: testLogger()}))
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &fakeMaintainer{}
	task := newSQLMaintenanceTask(TaskDeps{Logger: testLogger(), Store: store})
	require.NoError(t, task(context.Background()))
	assert.Equal(t, 1, store.calls)

	store.err = errors.New("database is locked")
	err := task(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
	assert.Equal(t, 2, store.calls)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatlogger/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestValidateConfigCommand(t *testing.T) {
	path := writeConfig(t, `
database_url: sqlite:///./data/chat.db
http:
  listen_addr: ":8080"
`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "validate-config"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "configuration OK (database: sqlite at ./data/chat.db)")
	assert.NotContains(t, out.String(), "warning")
}

func TestValidateConfig_WarnsWithoutHost(t *testing.T) {
	path := writeConfig(t, "database_url: postgresql://u:p@localhost/chat\n")

	var out bytes.Buffer
	require.NoError(t, validateConfig(&out, path))
	assert.Contains(t, out.String(), "database: postgres)")
	assert.Contains(t, out.String(), "warning")
}

func TestValidateConfig_Errors(t *testing.T) {
	var out bytes.Buffer

	unsupported := writeConfig(t, "database_url: mysql://localhost/chat\n")
	assert.ErrorIs(t, validateConfig(&out, unsupported), config.ErrConfiguration)

	invalid := writeConfig(t, "log:\n  level: loud\n")
	assert.ErrorIs(t, validateConfig(&out, invalid), config.ErrConfiguration)
}

func TestRunFailsWithoutHost(t *testing.T) {
	path := writeConfig(t, "data_dir: "+t.TempDir()+"\n")
	assert.Equal(t, 1, run(context.Background(), path))
}

func TestExecuteReturnsExitCode(t *testing.T) {
	assert.Equal(t, 1, int(exitCode(1)))
	assert.Equal(t, "exit status 2", exitCode(2).Error())
}

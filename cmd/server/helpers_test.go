package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "cmd-test-secret-that-is-at-least-32-chars"

// writeTestConfig writes a config file for a fresh SQLite database in a
// temporary directory and returns its path.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	content := fmt.Sprintf(`server:
  log_level: error
database:
  driver: sqlite
  url: %s
  max_open_conns: 4
auth:
  jwt_secret: %s
%s`, filepath.Join(dir, "study.db"), testJWTSecret, extra)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runCmd executes the root command with args and returns its standard output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustLoadConfig(t *testing.T, path string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	return cfg
}
